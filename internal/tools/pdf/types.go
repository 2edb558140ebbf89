package pdf

import (
	"github.com/sammcj/mcp-pdf-reader/internal/outline"
	"github.com/sammcj/mcp-pdf-reader/internal/pdfdoc"
	"github.com/sammcj/mcp-pdf-reader/internal/pdfsearch"
)

// Source identifies one PDF to operate on: a relative path confined to
// the server's allowed roots, or an HTTP(S) URL. Exactly one of the
// two is set.
type Source struct {
	// Path is a relative path under one of the configured roots
	Path string `json:"path,omitempty"`

	// URL is a remote PDF location
	URL string `json:"url,omitempty"`

	// Pages selects which pages to read (e.g. "1-5", "1,3,5", "all")
	Pages string `json:"pages,omitempty"`
}

// Label returns the caller-facing identifier for the source.
func (s Source) Label() string {
	if s.Path != "" {
		return s.Path
	}
	return s.URL
}

// ReadRequest represents a parsed pdf_read request
type ReadRequest struct {
	// Sources are the PDFs to read, processed independently
	Sources []Source `json:"sources"`

	// IncludeFullText includes the whole document's text when no page
	// selection is given for a source
	IncludeFullText bool `json:"include_full_text"`

	// IncludeMetadata includes the document information dictionary
	IncludeMetadata bool `json:"include_metadata"`

	// IncludePageCount includes the total page count
	IncludePageCount bool `json:"include_page_count"`
}

// PageText is one page's extracted text
type PageText struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// SourceResult is the per-source outcome of a pdf_read request. A
// failed source reports its error here; it never aborts the batch.
type SourceResult struct {
	Source    string           `json:"source"`
	Success   bool             `json:"success"`
	Error     string           `json:"error,omitempty"`
	PageCount int              `json:"page_count,omitempty"`
	Metadata  *pdfdoc.Metadata `json:"metadata,omitempty"`
	Pages     []PageText       `json:"pages,omitempty"`
	FullText  string           `json:"full_text,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
}

// ReadResponse represents the result of a pdf_read request
type ReadResponse struct {
	Results []SourceResult `json:"results"`
}

// SearchRequest represents a parsed pdf_search request
type SearchRequest struct {
	Source Source `json:"source"`
	Query  string `json:"query"`
	Opts   pdfsearch.DocumentOptions
}

// SearchResponse represents the result of a pdf_search request
type SearchResponse struct {
	Source       string            `json:"source"`
	Query        string            `json:"query"`
	Success      bool              `json:"success"`
	Error        string            `json:"error,omitempty"`
	Results      []pdfsearch.Match `json:"results,omitempty"`
	TotalMatches int               `json:"total_matches"`
	Warnings     []string          `json:"warnings,omitempty"`
}

// OutlineRequest represents a parsed pdf_outline request
type OutlineRequest struct {
	Source   Source `json:"source"`
	MaxDepth int    `json:"max_depth"`
}

// OutlineResponse represents the result of a pdf_outline request
type OutlineResponse struct {
	Source   string         `json:"source"`
	Success  bool           `json:"success"`
	Error    string         `json:"error,omitempty"`
	Outline  []outline.Node `json:"outline,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}
