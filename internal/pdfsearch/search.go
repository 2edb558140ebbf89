// Package pdfsearch finds literal text occurrences in a page's
// extracted fragment stream and maps each occurrence back to the
// fragment that owns it, with a bounded context window around it.
package pdfsearch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sammcj/mcp-pdf-reader/internal/pdfdoc"
)

const (
	DefaultMaxResults   = 20
	MaxResultsLimit     = 100
	DefaultContextWords = 5
	MaxContextWords     = 50
	MaxDepth            = 5
)

// Options controls how a single page is searched.
type Options struct {
	// CaseSensitive disables case folding of page text and query.
	CaseSensitive bool

	// Depth selects the context granularity: 0 means a word window of
	// ContextWords fragments either side of the match; 1..5 all
	// currently mean whole-page context. The fragment stream exposes no
	// block/section/chapter boundaries, so the five coarse tiers are
	// deliberately degenerate rather than inventing structure the data
	// does not carry.
	Depth int

	// ContextWords is the fragment-window radius used when Depth is 0.
	ContextWords int
}

// Match is one occurrence of the query on one page.
type Match struct {
	Page    int    `json:"page"`
	Text    string `json:"text"`
	Start   int    `json:"start_index"`
	End     int    `json:"end_index"`
	Context string `json:"context,omitempty"`
}

// DocumentOptions extends Options with document-level controls.
type DocumentOptions struct {
	Options

	// Page, when positive, restricts the search to that single page
	// (1-based, clamped to the page count).
	Page int

	// MaxResults caps the returned matches; zero means
	// DefaultMaxResults.
	MaxResults int
}

// DocumentResult is the aggregate outcome of a document search.
type DocumentResult struct {
	Results      []Match  `json:"results"`
	TotalMatches int      `json:"total_matches"`
	Warnings     []string `json:"warnings,omitempty"`
}

// PageSource supplies per-page fragment streams. pdfdoc.Document
// satisfies it; tests substitute fakes.
type PageSource interface {
	PageCount() int
	PageFragments(ctx context.Context, page int) ([]pdfdoc.Fragment, error)
}

// SearchPage scans one page's fragments for every occurrence of query.
//
// The flat searchable text is the fragment texts joined with single
// spaces; the cumulative offset index uses the same join so offsets
// stay self-consistent. Scanning restarts at matchStart+1 rather than
// past the whole match, deliberately admitting overlapping occurrences
// to maximise recall for short queries.
func SearchPage(pageNum int, frags []pdfdoc.Fragment, query string, opts Options) []Match {
	if query == "" || len(frags) == 0 {
		return nil
	}
	opts = opts.clamped()

	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = f.Text
	}

	// When folding, fold the parts before building the flat text and
	// the offset index, so offsets refer to one consistent string. The
	// stored fragments are never mutated; context is always built from
	// the original casing.
	searchParts := parts
	needle := query
	if !opts.CaseSensitive {
		searchParts = make([]string, len(parts))
		for i, p := range parts {
			searchParts[i] = strings.ToLower(p)
		}
		needle = strings.ToLower(query)
	}

	offsets := make([]int, len(searchParts))
	cum := 0
	for i, p := range searchParts {
		offsets[i] = cum
		cum += len(p) + 1 // +1 for the joining space
	}
	haystack := strings.Join(searchParts, " ")

	var matches []Match
	for from := 0; ; {
		rel := strings.Index(haystack[from:], needle)
		if rel < 0 {
			break
		}
		start := from + rel
		owner := owningFragment(offsets, start)

		matches = append(matches, Match{
			Page:    pageNum,
			Text:    query,
			Start:   start,
			End:     start + len(needle),
			Context: buildContext(parts, owner, opts),
		})

		from = start + 1
	}
	return matches
}

// owningFragment locates the fragment index i with the largest offset
// c_i <= start. A match starting on a joining space belongs to the
// fragment before it.
func owningFragment(offsets []int, start int) int {
	i := sort.Search(len(offsets), func(j int) bool { return offsets[j] > start }) - 1
	if i < 0 {
		return 0
	}
	return i
}

func buildContext(parts []string, owner int, opts Options) string {
	if opts.Depth > 0 {
		// Whole-page context for every coarse tier; see Options.Depth.
		return strings.Join(parts, " ")
	}

	lo := max(owner-opts.ContextWords, 0)
	hi := min(owner+opts.ContextWords, len(parts)-1)
	return strings.Join(parts[lo:hi+1], " ")
}

// SearchDocument runs SearchPage over the selected pages in ascending
// order, stopping further page scans once MaxResults matches have been
// accumulated. This short-circuit is a cost control, not a correctness
// requirement: TotalMatches reports the count found up to that point,
// before truncation.
//
// A page whose fragment extraction fails contributes no matches and is
// logged rather than failing the whole search; partial results beat
// total failure for a best-effort tool.
func SearchDocument(ctx context.Context, src PageSource, query string, opts DocumentOptions, logger *logrus.Logger) (DocumentResult, error) {
	if query == "" {
		return DocumentResult{}, fmt.Errorf("search query must not be empty")
	}
	opts.Options = opts.Options.clamped()

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > MaxResultsLimit {
		maxResults = MaxResultsLimit
	}

	pageCount := src.PageCount()
	firstPage, lastPage := 1, pageCount
	if opts.Page > 0 && pageCount > 0 {
		p := min(opts.Page, pageCount)
		firstPage, lastPage = p, p
	}

	var all []Match
	for page := firstPage; page <= lastPage; page++ {
		if err := ctx.Err(); err != nil {
			return DocumentResult{}, err
		}

		frags, err := src.PageFragments(ctx, page)
		if err != nil {
			if logger != nil {
				logger.WithError(err).WithField("page", page).Warn("Skipping page: text extraction failed")
			}
			continue
		}

		all = append(all, SearchPage(page, frags, query, opts.Options)...)
		if len(all) >= maxResults {
			break
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Page != all[j].Page {
			return all[i].Page < all[j].Page
		}
		return all[i].Start < all[j].Start
	})

	result := DocumentResult{TotalMatches: len(all), Results: all}
	if len(all) > maxResults {
		result.Results = all[:maxResults]
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("showing %d of %d matches found; raise max_results or narrow the query for more", maxResults, len(all)))
	}
	if result.Results == nil {
		result.Results = []Match{}
	}
	return result, nil
}

func (o Options) clamped() Options {
	if o.Depth < 0 {
		o.Depth = 0
	}
	if o.Depth > MaxDepth {
		o.Depth = MaxDepth
	}
	if o.ContextWords < 0 {
		o.ContextWords = 0
	}
	if o.ContextWords > MaxContextWords {
		o.ContextWords = MaxContextWords
	}
	return o
}
