package pdfsearch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammcj/mcp-pdf-reader/internal/pdfdoc"
)

func frags(words ...string) []pdfdoc.Fragment {
	out := make([]pdfdoc.Fragment, len(words))
	for i, w := range words {
		out[i] = pdfdoc.Fragment{Text: w}
	}
	return out
}

// fakeSource serves canned fragments per page; pages listed in broken
// fail extraction.
type fakeSource struct {
	pages  [][]pdfdoc.Fragment
	broken map[int]bool
}

func (f *fakeSource) PageCount() int { return len(f.pages) }

func (f *fakeSource) PageFragments(_ context.Context, page int) ([]pdfdoc.Fragment, error) {
	if page < 1 || page > len(f.pages) {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	if f.broken[page] {
		return nil, fmt.Errorf("simulated extraction failure on page %d", page)
	}
	return f.pages[page-1], nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSearchPageSingleMatchWithWordContext(t *testing.T) {
	fs := frags("This", "is", "a", "test", "document")

	matches := SearchPage(1, fs, "test", Options{ContextWords: 5})
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, 1, m.Page)
	assert.Equal(t, "test", m.Text)
	assert.Equal(t, "This is a test document", m.Context,
		"a five-word radius around the owning fragment covers all five fragments")

	// "This is a " is 10 characters in the joined text.
	assert.Equal(t, 10, m.Start)
	assert.Equal(t, 14, m.End)
}

func TestSearchPageCaseSensitivity(t *testing.T) {
	fs := frags("TEST", "test")

	insensitive := SearchPage(1, fs, "test", Options{})
	assert.Len(t, insensitive, 2)

	sensitive := SearchPage(1, fs, "test", Options{CaseSensitive: true})
	require.Len(t, sensitive, 1)
	assert.Equal(t, 5, sensitive[0].Start, "only the lowercase fragment matches")
}

func TestSearchPageOverlappingMatches(t *testing.T) {
	// "aaaa" contains "aa" at offsets 0, 1 and 2: the scan restarts at
	// matchStart+1, not past the match.
	matches := SearchPage(1, frags("aaaa"), "aa", Options{})
	require.Len(t, matches, 3)
	for i, m := range matches {
		assert.Equal(t, i, m.Start)
	}
}

func TestSearchPageQueryAcrossFragments(t *testing.T) {
	// The joined page text is "hello world"; a spaced query spans the
	// fragment boundary.
	matches := SearchPage(1, frags("hello", "world"), "hello world", Options{})
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Start)
	assert.Equal(t, 11, matches[0].End)
}

func TestSearchPageContextWindowClamps(t *testing.T) {
	fs := frags("one", "two", "three", "four", "five", "six", "seven")

	matches := SearchPage(1, fs, "two", Options{ContextWords: 1})
	require.Len(t, matches, 1)
	assert.Equal(t, "one two three", matches[0].Context)

	matches = SearchPage(1, fs, "one", Options{ContextWords: 2})
	require.Len(t, matches, 1)
	assert.Equal(t, "one two three", matches[0].Context, "window clamps at the first fragment")

	matches = SearchPage(1, fs, "seven", Options{ContextWords: 0})
	require.Len(t, matches, 1)
	assert.Equal(t, "seven", matches[0].Context, "zero radius is just the owning fragment")
}

func TestSearchPageDepthTiersReturnWholePage(t *testing.T) {
	fs := frags("alpha", "beta", "gamma", "delta")

	for depth := 1; depth <= 5; depth++ {
		matches := SearchPage(1, fs, "gamma", Options{Depth: depth, ContextWords: 1})
		require.Len(t, matches, 1, "depth %d", depth)
		assert.Equal(t, "alpha beta gamma delta", matches[0].Context, "depth %d", depth)
	}
}

func TestSearchPagePreservesOriginalCasingInContext(t *testing.T) {
	fs := frags("The", "QUICK", "Brown", "Fox")

	matches := SearchPage(1, fs, "quick", Options{ContextWords: 1})
	require.Len(t, matches, 1)
	assert.Equal(t, "quick", matches[0].Text, "text echoes the literal query")
	assert.Equal(t, "The QUICK Brown", matches[0].Context, "context keeps the page's casing")
}

func TestSearchDocumentTruncationAndTotal(t *testing.T) {
	// 30 identical matching fragments on one page, capped at 5.
	words := make([]string, 30)
	for i := range words {
		words[i] = "match"
	}
	src := &fakeSource{pages: [][]pdfdoc.Fragment{frags(words...)}}

	result, err := SearchDocument(context.Background(), src, "match",
		DocumentOptions{MaxResults: 5}, quietLogger())
	require.NoError(t, err)

	assert.Len(t, result.Results, 5)
	assert.Equal(t, 30, result.TotalMatches)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "5")
	assert.Contains(t, result.Warnings[0], "30")
}

func TestSearchDocumentShortCircuitStopsScanningPages(t *testing.T) {
	// Page 1 already satisfies the cap; page 2 would blow up if scanned.
	src := &fakeSource{
		pages: [][]pdfdoc.Fragment{
			frags("hit", "hit", "hit"),
			frags("hit"),
		},
		broken: map[int]bool{2: true},
	}

	result, err := SearchDocument(context.Background(), src, "hit",
		DocumentOptions{MaxResults: 2}, quietLogger())
	require.NoError(t, err)
	assert.Len(t, result.Results, 2)
	// Page 1 was fully counted before the cut; page 2 never scanned.
	assert.Equal(t, 3, result.TotalMatches)
}

func TestSearchDocumentOrderingAndInvariants(t *testing.T) {
	src := &fakeSource{pages: [][]pdfdoc.Fragment{
		frags("x", "needle", "y", "needle"),
		frags("needle"),
		frags("z"),
	}}

	result, err := SearchDocument(context.Background(), src, "needle",
		DocumentOptions{}, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, len(result.Results), min(result.TotalMatches, DefaultMaxResults))
	assert.Empty(t, result.Warnings)

	for i := 1; i < len(result.Results); i++ {
		prev, cur := result.Results[i-1], result.Results[i]
		ordered := cur.Page > prev.Page || (cur.Page == prev.Page && cur.Start >= prev.Start)
		assert.True(t, ordered, "results must be non-decreasing in (page, start)")
	}
}

func TestSearchDocumentSkipsFailedPages(t *testing.T) {
	src := &fakeSource{
		pages: [][]pdfdoc.Fragment{
			frags("needle"),
			frags("needle"),
			frags("needle"),
		},
		broken: map[int]bool{2: true},
	}

	var logBuf strings.Builder
	logger := logrus.New()
	logger.SetOutput(&logBuf)

	result, err := SearchDocument(context.Background(), src, "needle",
		DocumentOptions{}, logger)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalMatches, "broken page contributes zero matches")
	assert.Equal(t, []int{1, 3}, []int{result.Results[0].Page, result.Results[1].Page})
	assert.Contains(t, logBuf.String(), "Skipping page")
}

func TestSearchDocumentSinglePageFilterClamped(t *testing.T) {
	src := &fakeSource{pages: [][]pdfdoc.Fragment{
		frags("needle"),
		frags("needle"),
	}}

	result, err := SearchDocument(context.Background(), src, "needle",
		DocumentOptions{Page: 2}, quietLogger())
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, 2, result.Results[0].Page)

	// Out-of-range page filters clamp to the last page.
	result, err = SearchDocument(context.Background(), src, "needle",
		DocumentOptions{Page: 99}, quietLogger())
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, 2, result.Results[0].Page)
}

func TestSearchDocumentPageFilterOnEmptyDocument(t *testing.T) {
	src := &fakeSource{}

	var logBuf strings.Builder
	logger := logrus.New()
	logger.SetOutput(&logBuf)

	result, err := SearchDocument(context.Background(), src, "needle",
		DocumentOptions{Page: 1}, logger)
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalMatches)
	assert.Empty(t, result.Results)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, logBuf.String(), "a zero-page document must not log skipped pages")
}

func TestSearchDocumentIdempotent(t *testing.T) {
	src := &fakeSource{pages: [][]pdfdoc.Fragment{
		frags("alpha", "beta", "alpha", "gamma"),
	}}
	opts := DocumentOptions{Options: Options{ContextWords: 2}}

	first, err := SearchDocument(context.Background(), src, "alpha", opts, quietLogger())
	require.NoError(t, err)
	second, err := SearchDocument(context.Background(), src, "alpha", opts, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSearchDocumentEmptyQuery(t *testing.T) {
	src := &fakeSource{pages: [][]pdfdoc.Fragment{frags("a")}}
	_, err := SearchDocument(context.Background(), src, "", DocumentOptions{}, quietLogger())
	assert.Error(t, err)
}

func TestSearchDocumentCancelledContext(t *testing.T) {
	src := &fakeSource{pages: [][]pdfdoc.Fragment{frags("a")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SearchDocument(ctx, src, "a", DocumentOptions{}, quietLogger())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchDocumentMaxResultsClampedToLimit(t *testing.T) {
	words := make([]string, MaxResultsLimit+20)
	for i := range words {
		words[i] = "w"
	}
	src := &fakeSource{pages: [][]pdfdoc.Fragment{frags(words...)}}

	result, err := SearchDocument(context.Background(), src, "w",
		DocumentOptions{MaxResults: 500}, quietLogger())
	require.NoError(t, err)
	assert.Len(t, result.Results, MaxResultsLimit)
}
