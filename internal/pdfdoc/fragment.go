package pdfdoc

import (
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// Fragment is one unit of a page's extracted text: a literal word plus
// the vertical position of the row it came from. Consumers other than
// the loader treat everything but Text as opaque.
type Fragment struct {
	Text string
	Row  float64
}

// fragmentsFromRows converts ledongthuc/pdf row output into word
// fragments. Rows arrive in top-to-bottom reading order; each row's
// glyph runs are concatenated and split on whitespace so that one
// fragment corresponds to one word on the page.
//
// Extracted text is NFKC-normalised first: PDFs frequently encode
// ligatures (fi, fl) and compatibility forms that would otherwise make
// literal search misses out of visually identical text.
func fragmentsFromRows(rows pdf.Rows) []Fragment {
	var frags []Fragment
	for _, row := range rows {
		if row == nil {
			continue
		}
		var sb strings.Builder
		for _, text := range row.Content {
			sb.WriteString(text.S)
		}
		line := norm.NFKC.String(sb.String())
		for _, word := range strings.Fields(line) {
			frags = append(frags, Fragment{Text: word, Row: float64(row.Position)})
		}
	}
	return frags
}
