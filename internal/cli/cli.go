// Package cli runs the registered PDF tools directly from the command
// line, bypassing the MCP server. Tools execute in-process through the
// registry, so no server or transport is involved.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/sammcj/mcp-pdf-reader/internal/registry"
	"github.com/sammcj/mcp-pdf-reader/internal/tools"
)

// Runner executes CLI commands against the tool registry.
type Runner struct {
	logger *logrus.Logger
	cache  *sync.Map
	out    io.Writer
	asJSON bool
}

// NewRunner creates a Runner writing to out. When asJSON is set,
// results and listings are emitted as indented JSON instead of plain
// text.
func NewRunner(logger *logrus.Logger, cache *sync.Map, out io.Writer, asJSON bool) *Runner {
	return &Runner{logger: logger, cache: cache, out: out, asJSON: asJSON}
}

// ListTools prints all enabled tools with their descriptions.
func (r *Runner) ListTools() error {
	type entry struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	var entries []entry
	for _, t := range registry.GetEnabledTools() {
		def := t.Definition()
		entries = append(entries, entry{Name: def.Name, Description: firstLine(def.Description)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	if r.asJSON {
		return r.writeJSON(entries)
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.Name, e.Description)
	}
	return w.Flush()
}

// HelpTool prints the parameter schema for a single tool, plus the
// tool's extended usage information when it provides any.
func (r *Runner) HelpTool(name string) error {
	tool, ok := registry.GetTool(name)
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}
	def := tool.Definition()

	var extended *tools.ExtendedHelp
	if provider, ok := tool.(tools.ExtendedHelpProvider); ok {
		extended = provider.ProvideExtendedInfo()
	}

	if r.asJSON {
		return r.writeJSON(struct {
			Definition   mcp.Tool            `json:"definition"`
			ExtendedHelp *tools.ExtendedHelp `json:"extended_help,omitempty"`
		}{Definition: def, ExtendedHelp: extended})
	}

	fmt.Fprintf(r.out, "Tool: %s\n\n", def.Name)
	if def.Description != "" {
		fmt.Fprintf(r.out, "%s\n\n", def.Description)
	}

	if err := r.printParameters(def); err != nil {
		return err
	}
	r.printExtendedHelp(extended)
	return nil
}

func (r *Runner) printParameters(def mcp.Tool) error {
	props := def.InputSchema.Properties
	if len(props) == 0 {
		fmt.Fprintln(r.out, "No parameters.")
		return nil
	}

	required := make(map[string]bool, len(def.InputSchema.Required))
	for _, name := range def.InputSchema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(r.out, "Parameters:")
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, name := range names {
		prop, _ := props[name].(map[string]any)
		propType, _ := prop["type"].(string)
		desc, _ := prop["description"].(string)
		mark := ""
		if required[name] {
			mark = " (required)"
		}
		fmt.Fprintf(w, "  --%s\t%s\t%s%s\n", name, propType, firstLine(desc), mark)
	}
	return w.Flush()
}

func (r *Runner) printExtendedHelp(extended *tools.ExtendedHelp) {
	if extended == nil {
		return
	}

	if extended.WhenToUse != "" {
		fmt.Fprintf(r.out, "\nWhen to use: %s\n", extended.WhenToUse)
	}
	if extended.WhenNotToUse != "" {
		fmt.Fprintf(r.out, "When not to use: %s\n", extended.WhenNotToUse)
	}

	if len(extended.Examples) > 0 {
		fmt.Fprintln(r.out, "\nExamples:")
		for _, ex := range extended.Examples {
			fmt.Fprintf(r.out, "  %s\n", ex.Description)
			if args, err := json.Marshal(ex.Arguments); err == nil {
				fmt.Fprintf(r.out, "    %s\n", args)
			}
			if ex.ExpectedResult != "" {
				fmt.Fprintf(r.out, "    %s\n", ex.ExpectedResult)
			}
		}
	}

	if len(extended.CommonPatterns) > 0 {
		fmt.Fprintln(r.out, "\nCommon patterns:")
		for _, p := range extended.CommonPatterns {
			fmt.Fprintf(r.out, "  - %s\n", p)
		}
	}

	if len(extended.Troubleshooting) > 0 {
		fmt.Fprintln(r.out, "\nTroubleshooting:")
		for _, tip := range extended.Troubleshooting {
			fmt.Fprintf(r.out, "  %s\n    %s\n", tip.Problem, tip.Solution)
		}
	}
}

// RunTool executes a tool by name. Arguments are either a single JSON
// object or --key=value flags; flags win when both name a key.
func (r *Runner) RunTool(ctx context.Context, name string, args []string) error {
	tool, ok := registry.GetTool(name)
	if !ok {
		return fmt.Errorf("unknown tool: %s (run 'mcp-pdf-reader cli list' to see available tools)", name)
	}
	def := tool.Definition()

	params, err := parseArgs(args, def)
	if err != nil {
		return fmt.Errorf("argument error: %w", err)
	}

	result, err := tool.Execute(ctx, r.logger, r.cache, params)
	if err != nil {
		return fmt.Errorf("tool error: %w", err)
	}
	return r.renderResult(result)
}

// parseArgs converts CLI arguments into the map tool.Execute expects.
func parseArgs(args []string, def mcp.Tool) (map[string]any, error) {
	types := make(map[string]string, len(def.InputSchema.Properties))
	for name, prop := range def.InputSchema.Properties {
		if pm, ok := prop.(map[string]any); ok {
			if t, ok := pm["type"].(string); ok {
				types[name] = t
			}
		}
	}

	params := make(map[string]any)
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "{") {
			var obj map[string]any
			if err := json.Unmarshal([]byte(arg), &obj); err != nil {
				return nil, fmt.Errorf("invalid JSON argument: %w", err)
			}
			for k, v := range obj {
				if _, exists := params[k]; !exists {
					params[k] = v
				}
			}
			continue
		}

		if !strings.HasPrefix(arg, "--") {
			return nil, fmt.Errorf("unexpected argument: %s (use --key=value flags or pass a JSON object)", arg)
		}

		key := strings.TrimPrefix(arg, "--")
		var raw string
		if k, v, found := strings.Cut(key, "="); found {
			key, raw = k, v
		} else if types[key] == "boolean" {
			params[key] = true
			continue
		} else {
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("flag --%s requires a value", key)
			}
			raw = args[i]
		}
		params[key] = coerceValue(raw, types[key])
	}
	return params, nil
}

// coerceValue converts a flag value string per its JSON Schema type.
func coerceValue(raw, schemaType string) any {
	switch schemaType {
	case "number", "integer":
		var f float64
		if _, err := fmt.Sscanf(raw, "%g", &f); err == nil {
			return f
		}
		return raw
	case "boolean":
		switch strings.ToLower(raw) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
		return raw
	case "array", "object":
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v
		}
		return raw
	default:
		return raw
	}
}

// renderResult formats a CallToolResult for the terminal.
func (r *Runner) renderResult(result *mcp.CallToolResult) error {
	if result == nil {
		return nil
	}

	if r.asJSON {
		if err := r.writeJSON(result); err != nil {
			return err
		}
	} else {
		for _, content := range result.Content {
			switch c := content.(type) {
			case mcp.TextContent:
				fmt.Fprintln(r.out, c.Text)
			default:
				data, err := json.MarshalIndent(c, "", "  ")
				if err != nil {
					fmt.Fprintf(r.out, "%+v\n", c)
				} else {
					fmt.Fprintln(r.out, string(data))
				}
			}
		}
	}

	if result.IsError {
		return fmt.Errorf("tool returned an error")
	}
	return nil
}

func (r *Runner) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstLine(s string) string {
	if before, _, found := strings.Cut(s, "\n"); found {
		return before
	}
	return s
}
