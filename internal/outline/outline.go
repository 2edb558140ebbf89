// Package outline flattens a document's raw bookmark tree into
// serialisable nodes with 1-based page numbers.
package outline

// RawNode is the loosely-typed outline structure handed over by the
// document loader: a title, a raw destination array whose first
// element is a 0-based page index when it is numeric, and child nodes.
type RawNode struct {
	Title string
	Dest  []any
	Items []RawNode
}

// Node is one resolved outline entry. Page is 1-based and omitted
// entirely when the destination does not carry a resolvable page.
type Node struct {
	Title string `json:"title"`
	Page  int    `json:"page,omitempty"`
	Dest  []any  `json:"dest,omitempty"`
	Items []Node `json:"items,omitempty"`
}

const (
	// DefaultMaxDepth is the traversal cap applied when the caller does
	// not specify one.
	DefaultMaxDepth = 5

	// MaxDepthLimit is the largest accepted traversal cap.
	MaxDepthLimit = 10

	// NoOutlineWarning explains an empty result. A document without a
	// table of contents is a normal outcome, not a failure.
	NoOutlineWarning = "document contains no outline (table of contents)"
)

// ClampDepth normalises a requested max depth into [1, MaxDepthLimit],
// substituting DefaultMaxDepth for zero or negative requests.
func ClampDepth(maxDepth int) int {
	if maxDepth <= 0 {
		return DefaultMaxDepth
	}
	if maxDepth > MaxDepthLimit {
		return MaxDepthLimit
	}
	return maxDepth
}

// Build walks the raw outline tree down to maxDepth levels and returns
// the resolved nodes. The second return value is a warning string,
// non-empty when the document has no outline at all.
func Build(raw []RawNode, maxDepth int) ([]Node, string) {
	maxDepth = ClampDepth(maxDepth)
	nodes := walk(raw, 1, maxDepth)
	if len(nodes) == 0 {
		return nil, NoOutlineWarning
	}
	return nodes, ""
}

// walk carries the depth as an explicit counter so the cap is enforced
// by value, not by recursion bookkeeping.
func walk(raw []RawNode, depth, maxDepth int) []Node {
	if depth > maxDepth || len(raw) == 0 {
		return nil
	}

	nodes := make([]Node, 0, len(raw))
	for _, r := range raw {
		node := Node{Title: r.Title, Dest: r.Dest}
		if page, ok := destPage(r.Dest); ok {
			node.Page = page
		}
		node.Items = walk(r.Items, depth+1, maxDepth)
		nodes = append(nodes, node)
	}
	return nodes
}

// destPage derives the 1-based page number from a raw destination: the
// first element, when numeric, is a 0-based page index. Non-numeric or
// absent destinations yield no page rather than a zero page.
func destPage(dest []any) (int, bool) {
	if len(dest) == 0 {
		return 0, false
	}
	switch v := dest[0].(type) {
	case int:
		return v + 1, true
	case int64:
		return int(v) + 1, true
	case float64:
		return int(v) + 1, true
	default:
		return 0, false
	}
}
