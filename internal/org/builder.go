package org

// UnassignedPrefix starts the IDs of synthetic bucket nodes generated for
// records whose declared parent is absent from the input set.
const UnassignedPrefix = "unassigned:"

// BuildOptions tunes tree assembly.
type BuildOptions struct {
	// KeepEmptyGroups retains grouping nodes that end up with no children.
	// By default empty groups are pruned, mirroring the selector views that
	// hide business units without a single plannable project.
	KeepEmptyGroups bool
}

// Normalize filters raw rows down to the ones that can participate in a
// tree: rows without an ID are excluded (one bad row must never block the
// whole view) and archived rows are dropped. Order is preserved.
func Normalize(records []FlatRecord) []FlatRecord {
	out := make([]FlatRecord, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" || rec.Archived {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// BuildTree assembles normalized flat records into a rooted forest.
//
// Children are grouped under parents by ParentID in input order. A record
// whose declared parent is missing, or whose type the transition table does
// not allow under that parent, is placed under a synthetic "unassigned"
// bucket at the level of the missing parent; such buckets become extra
// roots. Records reusing an already-seen ID are ignored, first occurrence
// wins; every surviving record lands in exactly one node. Building twice
// from the same input yields deep-equal forests.
func BuildTree(records []FlatRecord, opts BuildOptions) *Tree {
	records = dedupeByID(Normalize(records))
	tree := NewTree()

	byID := make(map[string]FlatRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
		tree.add(&Node{
			ID:            rec.ID,
			Code:          rec.Code,
			Name:          rec.Name,
			SecondaryName: rec.SecondaryName,
			Identifier:    rec.Identifier,
			Type:          rec.Type,
		})
	}

	for _, rec := range records {
		switch {
		case rec.ParentID == "" && rootTypes[rec.Type]:
			tree.Roots = append(tree.Roots, rec.ID)
		case rec.ParentID != "":
			parent, ok := byID[rec.ParentID]
			if ok && ValidChild(parent.Type, rec.Type) {
				p := tree.nodes[rec.ParentID]
				p.Children = append(p.Children, rec.ID)
				continue
			}
			tree.attachUnassigned(rec)
		default:
			// Non-root type with no parent reference at all.
			tree.attachUnassigned(rec)
		}
	}

	if !opts.KeepEmptyGroups {
		tree.pruneEmptyGroups()
	}
	return tree
}

// dedupeByID drops records whose ID was already taken by an earlier row.
// Without this, a colliding row would overwrite the first node's identity
// during indexing and then attach the shared node a second time, so one
// record would vanish and the other would be counted twice during roll-up.
func dedupeByID(records []FlatRecord) []FlatRecord {
	seen := make(map[string]bool, len(records))
	out := records[:0]
	for _, rec := range records {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		out = append(out, rec)
	}
	return out
}

// attachUnassigned parents the record under the synthetic bucket for its
// level, creating the bucket on first use.
func (t *Tree) attachUnassigned(rec FlatRecord) {
	level, ok := bucketType[rec.Type]
	if !ok {
		// Root-level record flagged as dangling; keep it as a root.
		t.Roots = append(t.Roots, rec.ID)
		return
	}
	id := UnassignedPrefix + string(level)
	bucket := t.nodes[id]
	if bucket == nil {
		bucket = &Node{
			ID:        id,
			Code:      "TBD",
			Name:      "Unassigned",
			Type:      level,
			Synthetic: true,
		}
		t.add(bucket)
		t.Roots = append(t.Roots, id)
	}
	bucket.Children = append(bucket.Children, rec.ID)
}

// pruneEmptyGroups removes grouping nodes with no surviving children,
// bottom-up. Leaf-level nodes are never pruned.
func (t *Tree) pruneEmptyGroups() {
	var prune func(id string) bool
	prune = func(id string) bool {
		n := t.nodes[id]
		if n == nil {
			return false
		}
		kept := n.Children[:0]
		for _, child := range n.Children {
			if prune(child) {
				kept = append(kept, child)
			}
		}
		n.Children = kept
		if IsGroup(n.Type) && len(n.Children) == 0 {
			delete(t.nodes, id)
			return false
		}
		return true
	}
	roots := t.Roots[:0]
	for _, root := range t.Roots {
		if prune(root) {
			roots = append(roots, root)
		}
	}
	t.Roots = roots
}
