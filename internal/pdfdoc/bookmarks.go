package pdfdoc

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"github.com/sammcj/mcp-pdf-reader/internal/outline"
)

// rawNodesFromBookmarks adapts pdfcpu's bookmark tree to the outline
// walker's raw-node form. pdfcpu resolves destination pages to 1-based
// numbers already; the raw destination contract is 0-based, so shift
// down here and let the walker shift back up.
func rawNodesFromBookmarks(bms []pdfcpu.Bookmark) []outline.RawNode {
	if len(bms) == 0 {
		return nil
	}
	nodes := make([]outline.RawNode, 0, len(bms))
	for _, bm := range bms {
		node := outline.RawNode{Title: bm.Title}
		if bm.PageFrom >= 1 {
			node.Dest = []any{bm.PageFrom - 1}
		}
		node.Items = rawNodesFromBookmarks(bm.Kids)
		nodes = append(nodes, node)
	}
	return nodes
}
