package pdf

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/sammcj/mcp-pdf-reader/internal/pdfsearch"
	"github.com/sammcj/mcp-pdf-reader/internal/registry"
	"github.com/sammcj/mcp-pdf-reader/internal/tools"
)

// SearchTool finds text occurrences in a PDF with positional results
type SearchTool struct {
	opener
}

// init registers the pdf_search tool
func init() {
	registry.Register(NewSearchTool())
}

// NewSearchTool returns a SearchTool wired to the real loader and the
// process-wide path guard.
func NewSearchTool() *SearchTool {
	return &SearchTool{opener: defaultOpener()}
}

// Definition returns the tool's definition for MCP registration
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pdf_search",
		mcp.WithDescription(`Search a PDF for literal text. Returns every occurrence with its page number, character offsets and a context snippet. Matching is case-insensitive by default.`),
		mcp.WithString("path",
			mcp.Description("Relative path to a PDF inside an allowed root (use either path or url)"),
		),
		mcp.WithString("url",
			mcp.Description("HTTP(S) URL of a PDF (use either path or url)"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Literal text to search for (no regex)"),
		),
		mcp.WithBoolean("case_sensitive",
			mcp.Description("Match case exactly (default: false)"),
			mcp.DefaultBool(false),
		),
		mcp.WithNumber("depth",
			mcp.Description("Context granularity: 0 returns a word window around the match, 1-5 return the whole page (default: 0)"),
			mcp.DefaultNumber(0),
		),
		mcp.WithNumber("context_words",
			mcp.Description("Number of words either side of the match when depth is 0, 0-50 (default: 5)"),
			mcp.DefaultNumber(pdfsearch.DefaultContextWords),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum matches to return, 1-100 (default: 20)"),
			mcp.DefaultNumber(pdfsearch.DefaultMaxResults),
		),
		mcp.WithNumber("page",
			mcp.Description("Restrict the search to a single 1-based page (default: all pages)"),
		),
	)
}

// Execute processes the search request
func (t *SearchTool) Execute(ctx context.Context, logger *logrus.Logger, _ *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	request, err := t.ParseRequest(args)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"source": request.Source.Label(),
		"query":  request.Query,
	}).Debug("Executing pdf_search")

	response := SearchResponse{Source: request.Source.Label(), Query: request.Query}

	doc, err := t.open(ctx, request.Source)
	if err != nil {
		if isStructural(err) {
			return nil, err
		}
		response.Error = err.Error()
		return newToolResultJSON(response)
	}
	defer func() { _ = doc.Close() }()

	result, err := pdfsearch.SearchDocument(ctx, doc, request.Query, request.Opts, logger)
	if err != nil {
		return nil, err
	}

	response.Success = true
	response.Results = result.Results
	response.TotalMatches = result.TotalMatches
	response.Warnings = result.Warnings
	return newToolResultJSON(response)
}

// ParseRequest parses and validates the tool arguments
func (t *SearchTool) ParseRequest(args map[string]any) (*SearchRequest, error) {
	src, err := sourceFromArgs(args)
	if err != nil {
		return nil, err
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("missing or invalid required parameter: query")
	}

	request := &SearchRequest{Source: src, Query: query}
	if request.Opts.CaseSensitive, err = boolArg(args, "case_sensitive", false); err != nil {
		return nil, err
	}
	if request.Opts.Depth, err = intArg(args, "depth", 0); err != nil {
		return nil, err
	}
	if request.Opts.ContextWords, err = intArg(args, "context_words", pdfsearch.DefaultContextWords); err != nil {
		return nil, err
	}
	if request.Opts.MaxResults, err = intArg(args, "max_results", pdfsearch.DefaultMaxResults); err != nil {
		return nil, err
	}
	if request.Opts.Page, err = intArg(args, "page", 0); err != nil {
		return nil, err
	}
	if request.Opts.Page < 0 {
		request.Opts.Page = 0
	}
	return request, nil
}

// ProvideExtendedInfo provides detailed usage information for pdf_search
func (t *SearchTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description: "Find a phrase anywhere in a document",
				Arguments: map[string]any{
					"path":  "contracts/lease.pdf",
					"query": "termination notice",
				},
				ExpectedResult: "Returns each occurrence with page number, offsets and a five-word context window",
			},
			{
				Description: "Case-sensitive search on one page with wide context",
				Arguments: map[string]any{
					"path":           "reports/annual.pdf",
					"query":          "EBITDA",
					"case_sensitive": true,
					"page":           12,
					"context_words":  15,
				},
				ExpectedResult: "Returns matches from page 12 only, each with fifteen words of context either side",
			},
		},
		CommonPatterns: []string{
			"Keep the default max_results and raise it only when the truncation warning appears",
			"Use depth 1 to get whole-page context when the word window cuts off mid-sentence",
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "total_matches is larger than the number of results",
				Solution: "Results are capped by max_results (default 20, max 100). The warning names both counts; raise max_results or narrow the query.",
			},
			{
				Problem:  "A phrase visible in the PDF is not found",
				Solution: "Matching is literal against extracted text. Hyphenation, unusual encodings or scanned pages can prevent matches; try a shorter distinctive word from the phrase.",
			},
		},
		WhenToUse:    "Use to locate where specific text occurs in a PDF before reading the relevant pages.",
		WhenNotToUse: "Don't use for fuzzy or regex matching, or for reading large spans of text (use pdf_read).",
	}
}
