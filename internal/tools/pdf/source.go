package pdf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sammcj/mcp-pdf-reader/internal/pathguard"
	"github.com/sammcj/mcp-pdf-reader/internal/pdfdoc"
)

// opener turns a Source into an open document. The open functions are
// swappable so handler tests run against fakes instead of real PDFs.
type opener struct {
	guard    *pathguard.Guard
	openPath func(string) (pdfdoc.Doc, error)
	openURL  func(context.Context, string) (pdfdoc.Doc, error)
}

func defaultOpener() opener {
	return opener{
		guard: pathguard.Default(),
		openPath: func(path string) (pdfdoc.Doc, error) {
			doc, err := pdfdoc.OpenPath(path)
			if err != nil {
				return nil, err
			}
			return doc, nil
		},
		openURL: func(ctx context.Context, url string) (pdfdoc.Doc, error) {
			doc, err := pdfdoc.OpenURL(ctx, url)
			if err != nil {
				return nil, err
			}
			return doc, nil
		},
	}
}

// open resolves and opens a source. Confinement violations surface as
// pathguard error types; callers treat those as caller misuse and
// abort, unlike load failures which are per-source environmental
// errors.
func (o opener) open(ctx context.Context, src Source) (pdfdoc.Doc, error) {
	if src.URL != "" {
		return o.openURL(ctx, src.URL)
	}

	resolved, err := o.guard.Resolve(src.Path)
	if err != nil {
		return nil, err
	}
	return o.openPath(resolved)
}

// isStructural reports whether err indicates caller misuse (absolute
// path, traversal) rather than an environmental failure.
func isStructural(err error) bool {
	var invalid *pathguard.InvalidInputError
	var denied *pathguard.AccessDeniedError
	return errors.As(err, &invalid) || errors.As(err, &denied)
}

// parseSource validates one source argument object: exactly one of
// "path" and "url" must be present and non-empty.
func parseSource(arg any) (Source, error) {
	m, ok := arg.(map[string]any)
	if !ok {
		return Source{}, fmt.Errorf("source must be an object, got %T", arg)
	}

	var src Source
	if v, ok := m["path"]; ok {
		s, ok := v.(string)
		if !ok {
			return Source{}, fmt.Errorf("source path must be a string, got %T", v)
		}
		src.Path = s
	}
	if v, ok := m["url"]; ok {
		s, ok := v.(string)
		if !ok {
			return Source{}, fmt.Errorf("source url must be a string, got %T", v)
		}
		src.URL = s
	}
	if v, ok := m["pages"]; ok {
		s, ok := v.(string)
		if !ok {
			return Source{}, fmt.Errorf("source pages must be a string, got %T", v)
		}
		src.Pages = s
	}

	if (src.Path == "") == (src.URL == "") {
		return Source{}, fmt.Errorf("source must have exactly one of path or url")
	}
	return src, nil
}

// sourceFromArgs builds a single Source from flat "path"/"url"
// arguments, used by the single-source tools.
func sourceFromArgs(args map[string]any) (Source, error) {
	m := map[string]any{}
	if v, ok := args["path"]; ok {
		m["path"] = v
	}
	if v, ok := args["url"]; ok {
		m["url"] = v
	}
	return parseSource(m)
}

// stringArg returns a string argument, treating absence as "".
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, v)
	}
	return s, nil
}

// boolArg returns a bool argument with a default.
func boolArg(args map[string]any, key string, def bool) (bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return def, fmt.Errorf("%s must be a boolean, got %T", key, v)
	}
	return b, nil
}

// intArg returns a numeric argument as int with a default. JSON
// numbers arrive as float64.
func intArg(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return def, fmt.Errorf("%s must be a number, got %T", key, v)
	}
}

// newToolResultJSON creates a tool result with indented JSON content
func newToolResultJSON(data any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
