package pages

import "github.com/inkwellhq/leaflet/pkg/types"

// BuildTree assembles a flat page list into a forest. Pages without a
// parent are roots. A page whose parent is not in the input set is an
// orphan and surfaces as a root too, never dropped: tree assembly is total
// over its input. Child order follows input order.
func BuildTree(pages []*types.Page) []*types.PageNode {
	nodes := make(map[string]*types.PageNode, len(pages))
	for _, p := range pages {
		nodes[p.PageID] = &types.PageNode{Page: p}
	}

	roots := make([]*types.PageNode, 0, len(pages))
	for _, p := range pages {
		node := nodes[p.PageID]
		if p.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*p.ParentID]
		if !ok || parent == node {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots
}
