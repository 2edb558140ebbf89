// Package pdf implements the MCP tools exposed by this server:
// pdf_read, pdf_search and pdf_outline. The tools are thin handlers:
// argument parsing and response assembly live here, the confinement
// and search semantics live in internal/pathguard and
// internal/pdfsearch.
package pdf

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/sammcj/mcp-pdf-reader/internal/registry"
	"github.com/sammcj/mcp-pdf-reader/internal/tools"
)

// ReadTool extracts text and metadata from one or more PDFs
type ReadTool struct {
	opener
}

// init registers the pdf_read tool
func init() {
	registry.Register(NewReadTool())
}

// NewReadTool returns a ReadTool wired to the real loader and the
// process-wide path guard.
func NewReadTool() *ReadTool {
	return &ReadTool{opener: defaultOpener()}
}

// Definition returns the tool's definition for MCP registration
func (t *ReadTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pdf_read",
		mcp.WithDescription(`Read text content, metadata & page counts from PDF files. Each source is either a relative path inside the server's allowed root directories or an HTTP(S) URL. Sources are processed independently: one failing source never fails the batch.`),
		mcp.WithArray("sources",
			mcp.Required(),
			mcp.Description(`PDFs to read. Each item is an object with exactly one of "path" (relative to an allowed root) or "url", plus an optional "pages" selection ("all", "1-5" or "1,3,5")`),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path":  map[string]any{"type": "string", "description": "Relative path to a PDF inside an allowed root"},
					"url":   map[string]any{"type": "string", "description": "HTTP(S) URL of a PDF"},
					"pages": map[string]any{"type": "string", "description": "Page selection, e.g. '1-5', '1,3,5' or 'all'"},
				},
			}),
		),
		mcp.WithBoolean("include_full_text",
			mcp.Description("Include the full document text for sources without a pages selection (default: false)"),
			mcp.DefaultBool(false),
		),
		mcp.WithBoolean("include_metadata",
			mcp.Description("Include the document information dictionary (default: true)"),
			mcp.DefaultBool(true),
		),
		mcp.WithBoolean("include_page_count",
			mcp.Description("Include the total page count (default: true)"),
			mcp.DefaultBool(true),
		),
	)
}

// Execute processes the read request
func (t *ReadTool) Execute(ctx context.Context, logger *logrus.Logger, _ *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	request, err := t.ParseRequest(args)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"sources":          len(request.Sources),
		"include_metadata": request.IncludeMetadata,
	}).Debug("Executing pdf_read")

	response := ReadResponse{Results: make([]SourceResult, 0, len(request.Sources))}
	for _, src := range request.Sources {
		result, err := t.readSource(ctx, logger, src, request)
		if err != nil {
			// Confinement violations are caller misuse and abort the
			// whole request; anything else is recorded per source.
			return nil, err
		}
		response.Results = append(response.Results, result)
	}

	return newToolResultJSON(response)
}

// ParseRequest parses and validates the tool arguments
func (t *ReadTool) ParseRequest(args map[string]any) (*ReadRequest, error) {
	rawSources, ok := args["sources"].([]any)
	if !ok || len(rawSources) == 0 {
		return nil, fmt.Errorf("missing or invalid required parameter: sources")
	}

	request := &ReadRequest{
		IncludeMetadata:  true,
		IncludePageCount: true,
	}
	for i, raw := range rawSources {
		src, err := parseSource(raw)
		if err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		request.Sources = append(request.Sources, src)
	}

	var err error
	if request.IncludeFullText, err = boolArg(args, "include_full_text", false); err != nil {
		return nil, err
	}
	if request.IncludeMetadata, err = boolArg(args, "include_metadata", true); err != nil {
		return nil, err
	}
	if request.IncludePageCount, err = boolArg(args, "include_page_count", true); err != nil {
		return nil, err
	}
	return request, nil
}

// readSource processes one source. Environmental failures come back as
// a failed SourceResult with a nil error; only structural errors
// propagate.
func (t *ReadTool) readSource(ctx context.Context, logger *logrus.Logger, src Source, request *ReadRequest) (SourceResult, error) {
	result := SourceResult{Source: src.Label()}

	doc, err := t.open(ctx, src)
	if err != nil {
		if isStructural(err) {
			return SourceResult{}, err
		}
		logger.WithError(err).WithField("source", src.Label()).Debug("Failed to load PDF source")
		result.Error = err.Error()
		return result, nil
	}
	defer func() { _ = doc.Close() }()

	result.Success = true
	if request.IncludePageCount {
		result.PageCount = doc.PageCount()
	}
	if request.IncludeMetadata {
		md := doc.Metadata()
		result.Metadata = &md
	}

	switch {
	case src.Pages != "":
		selected, err := parsePageSelection(src.Pages, doc.PageCount())
		if err != nil {
			result.Success = false
			result.Error = fmt.Sprintf("invalid page selection: %v", err)
			return result, nil
		}
		for _, page := range selected {
			text, err := doc.PageText(ctx, page)
			if err != nil {
				// A single unreadable page degrades the result, it
				// does not fail the source.
				logger.WithError(err).WithField("page", page).Debug("Page text extraction failed")
				result.Warnings = append(result.Warnings, fmt.Sprintf("page %d: text extraction failed", page))
				continue
			}
			result.Pages = append(result.Pages, PageText{Page: page, Text: text})
		}
	case request.IncludeFullText:
		var sb strings.Builder
		for page := 1; page <= doc.PageCount(); page++ {
			text, err := doc.PageText(ctx, page)
			if err != nil {
				logger.WithError(err).WithField("page", page).Debug("Page text extraction failed")
				result.Warnings = append(result.Warnings, fmt.Sprintf("page %d: text extraction failed", page))
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(text)
		}
		result.FullText = sb.String()
	}

	return result, nil
}

// ProvideExtendedInfo provides detailed usage information for pdf_read
func (t *ReadTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description: "Read metadata and page count of a local PDF",
				Arguments: map[string]any{
					"sources": []any{map[string]any{"path": "reports/annual.pdf"}},
				},
				ExpectedResult: "Returns the document's metadata and page count without extracting text",
			},
			{
				Description: "Extract specific pages from two documents at once",
				Arguments: map[string]any{
					"sources": []any{
						map[string]any{"path": "reports/annual.pdf", "pages": "1-3"},
						map[string]any{"url": "https://example.com/whitepaper.pdf", "pages": "10"},
					},
				},
				ExpectedResult: "Returns per-source results; a failing source reports its error while the other still succeeds",
			},
			{
				Description: "Extract the complete text of a document",
				Arguments: map[string]any{
					"sources":           []any{map[string]any{"path": "manual.pdf"}},
					"include_full_text": true,
				},
				ExpectedResult: "Returns the whole document's text in full_text",
			},
		},
		CommonPatterns: []string{
			"Read metadata first (the default) to size up a document before extracting text",
			"Use a pages selection instead of include_full_text for large documents",
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "access denied: path resolves outside the allowed roots",
				Solution: "Paths must be relative and stay inside the directories the server was started with (--root / PDF_ROOTS). Absolute paths and .. traversal are rejected.",
			},
			{
				Problem:  "A source reports success: false with an error message",
				Solution: "That source failed to load (missing file, unreachable URL, corrupt PDF). Other sources in the same request are unaffected.",
			},
		},
		ParameterDetails: map[string]string{
			"sources": "Array of source objects, each with exactly one of path or url. path is resolved against the server's allowed roots.",
		},
		WhenToUse:    "Use to pull text, metadata or page counts out of PDFs for further processing.",
		WhenNotToUse: "Don't use for scanned PDFs that need OCR, or to find where text occurs (use pdf_search).",
	}
}
