package org

import (
	"strings"

	"golang.org/x/text/cases"
)

// foldCaser performs Unicode case folding so search behaves the same for
// localized secondary names as for ASCII codes.
var foldCaser = cases.Fold()

// matchFields lists, in fixed order, the fields a search term is matched
// against for each node type. Any single match is sufficient.
func matchFields(n *Node) []string {
	if n.Type == TypeUser {
		return []string{n.Name, n.Code, n.SecondaryName, n.Identifier}
	}
	return []string{n.Name, n.Code}
}

func nodeMatches(n *Node, foldedTerm string) bool {
	for _, field := range matchFields(n) {
		if field == "" {
			continue
		}
		if strings.Contains(foldCaser.String(field), foldedTerm) {
			return true
		}
	}
	return false
}

// FilterTree prunes the forest down to nodes that match the term directly
// or have at least one matching descendant. Matching is a case-insensitive
// substring test over the node's search fields.
//
// A surviving node's children are replaced by its surviving children, with
// one deliberate asymmetry: a node that matches directly but has no
// matching descendant keeps its full original subtree, so a user can find a
// broad category and still browse everything under it. An empty or blank
// term returns the input tree unchanged. The input is never mutated;
// subtrees kept whole are shared by reference with the result.
func FilterTree(t *Tree, term string) *Tree {
	if t == nil {
		return nil
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return t
	}
	folded := foldCaser.String(term)

	out := NewTree()
	for _, root := range t.Roots {
		if id, ok := t.filterNode(out, root, folded); ok {
			out.Roots = append(out.Roots, id)
		}
	}
	return out
}

// filterNode copies the surviving part of the subtree at id into dst and
// reports whether the node survived.
func (t *Tree) filterNode(dst *Tree, id, foldedTerm string) (string, bool) {
	n := t.nodes[id]
	if n == nil {
		return "", false
	}
	matched := nodeMatches(n, foldedTerm)

	var kept []string
	for _, child := range n.Children {
		if cid, ok := t.filterNode(dst, child, foldedTerm); ok {
			kept = append(kept, cid)
		}
	}

	switch {
	case len(kept) > 0:
		clone := *n
		clone.Children = kept
		dst.add(&clone)
		return n.ID, true
	case matched:
		// Direct match with no matching descendants: keep the original,
		// unfiltered subtree.
		t.shareSubtree(dst, id)
		return n.ID, true
	default:
		return "", false
	}
}

// shareSubtree copies node pointers for the whole subtree into dst without
// cloning; the subtree is immutable from the result's point of view.
func (t *Tree) shareSubtree(dst *Tree, id string) {
	n := t.nodes[id]
	if n == nil {
		return
	}
	dst.add(n)
	for _, child := range n.Children {
		t.shareSubtree(dst, child)
	}
}
