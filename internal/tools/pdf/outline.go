package pdf

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/sammcj/mcp-pdf-reader/internal/outline"
	"github.com/sammcj/mcp-pdf-reader/internal/registry"
	"github.com/sammcj/mcp-pdf-reader/internal/tools"
)

// OutlineTool extracts a PDF's outline (table of contents)
type OutlineTool struct {
	opener
}

// init registers the pdf_outline tool
func init() {
	registry.Register(NewOutlineTool())
}

// NewOutlineTool returns an OutlineTool wired to the real loader and
// the process-wide path guard.
func NewOutlineTool() *OutlineTool {
	return &OutlineTool{opener: defaultOpener()}
}

// Definition returns the tool's definition for MCP registration
func (t *OutlineTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pdf_outline",
		mcp.WithDescription(`Extract a PDF's outline (table of contents) as a nested list of titles with 1-based page numbers. A document without an outline returns a warning, not an error.`),
		mcp.WithString("path",
			mcp.Description("Relative path to a PDF inside an allowed root (use either path or url)"),
		),
		mcp.WithString("url",
			mcp.Description("HTTP(S) URL of a PDF (use either path or url)"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("Maximum nesting depth to traverse, 1-10 (default: 5)"),
			mcp.DefaultNumber(outline.DefaultMaxDepth),
		),
	)
}

// Execute processes the outline request
func (t *OutlineTool) Execute(ctx context.Context, logger *logrus.Logger, _ *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	request, err := t.ParseRequest(args)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"source":    request.Source.Label(),
		"max_depth": request.MaxDepth,
	}).Debug("Executing pdf_outline")

	response := OutlineResponse{Source: request.Source.Label()}

	doc, err := t.open(ctx, request.Source)
	if err != nil {
		if isStructural(err) {
			return nil, err
		}
		response.Error = err.Error()
		return newToolResultJSON(response)
	}
	defer func() { _ = doc.Close() }()

	raw, err := doc.Outline()
	if err != nil {
		// An unreadable outline is not a failed document: report the
		// no-outline outcome and keep the diagnostic in the log.
		logger.WithError(err).WithField("source", request.Source.Label()).Debug("Outline extraction failed")
		raw = nil
	}

	nodes, warning := outline.Build(raw, request.MaxDepth)
	response.Success = true
	response.Outline = nodes
	if warning != "" {
		response.Warnings = append(response.Warnings, warning)
	}
	return newToolResultJSON(response)
}

// ParseRequest parses and validates the tool arguments
func (t *OutlineTool) ParseRequest(args map[string]any) (*OutlineRequest, error) {
	src, err := sourceFromArgs(args)
	if err != nil {
		return nil, err
	}

	maxDepth, err := intArg(args, "max_depth", outline.DefaultMaxDepth)
	if err != nil {
		return nil, err
	}
	return &OutlineRequest{Source: src, MaxDepth: outline.ClampDepth(maxDepth)}, nil
}

// ProvideExtendedInfo provides detailed usage information for pdf_outline
func (t *OutlineTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description: "Get the top two levels of a document's table of contents",
				Arguments: map[string]any{
					"path":      "books/go-programming.pdf",
					"max_depth": 2,
				},
				ExpectedResult: "Returns chapters and sections with their 1-based start pages; deeper levels are pruned",
			},
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "The response carries a 'no outline' warning",
				Solution: "The document has no embedded table of contents. That is a normal outcome for many PDFs; use pdf_search to navigate instead.",
			},
		},
		WhenToUse:    "Use to map a document's structure before reading specific pages.",
		WhenNotToUse: "Don't use to extract page text; outline entries carry titles and page numbers only.",
	}
}
