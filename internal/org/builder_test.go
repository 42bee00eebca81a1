package org

import (
	"reflect"
	"testing"
)

func projectRecords() []FlatRecord {
	return []FlatRecord{
		{ID: "BU1", Code: "CORE", Name: "Core Platform", Type: TypeBusinessUnit},
		{ID: "PL1", Code: "PAY", Name: "Payments", Type: TypeProductLine, ParentID: "BU1"},
		{ID: "P1", Code: "PAY-API", Name: "Payments API", Type: TypeProject, ParentID: "PL1"},
		{ID: "P2", Code: "PAY-OPS", Name: "Payments Ops", Type: TypeProject, ParentID: "PL1"},
	}
}

func TestBuildTreeGroupsChildrenUnderParents(t *testing.T) {
	tree := BuildTree(projectRecords(), BuildOptions{})
	if got := tree.Len(); got != 4 {
		t.Fatalf("expected 4 nodes, got %d", got)
	}
	if !reflect.DeepEqual(tree.Roots, []string{"BU1"}) {
		t.Fatalf("unexpected roots %v", tree.Roots)
	}
	pl := tree.Node("PL1")
	if pl == nil || !reflect.DeepEqual(pl.Children, []string{"P1", "P2"}) {
		t.Fatalf("unexpected product line children %#v", pl)
	}
	if !tree.IsLeaf("P1") || !tree.IsLeaf("P2") {
		t.Fatalf("projects should be leaves")
	}
}

func TestBuildTreeIsDeterministic(t *testing.T) {
	a := BuildTree(projectRecords(), BuildOptions{})
	b := BuildTree(projectRecords(), BuildOptions{})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical input must build deep-equal trees")
	}
}

func TestBuildTreeBucketsDanglingParent(t *testing.T) {
	records := append(projectRecords(),
		FlatRecord{ID: "P3", Code: "GHOST", Name: "Ghost Project", Type: TypeProject, ParentID: "PL-MISSING"},
	)
	tree := BuildTree(records, BuildOptions{})

	bucket := tree.Node(UnassignedPrefix + string(TypeProductLine))
	if bucket == nil {
		t.Fatalf("expected synthetic product line bucket")
	}
	if !bucket.Synthetic || bucket.Code != "TBD" {
		t.Fatalf("unexpected bucket %#v", bucket)
	}
	if !reflect.DeepEqual(bucket.Children, []string{"P3"}) {
		t.Fatalf("dangling project not bucketed: %v", bucket.Children)
	}
	if len(tree.Roots) != 2 {
		t.Fatalf("bucket should be an extra root, roots=%v", tree.Roots)
	}
}

func TestBuildTreeRejectsInvalidChildType(t *testing.T) {
	// A user row claiming a product line as parent violates the transition
	// table and must land in a bucket instead of under the product line.
	records := append(projectRecords(),
		FlatRecord{ID: "U1", Code: "jdoe", Name: "J. Doe", Type: TypeUser, ParentID: "PL1"},
	)
	tree := BuildTree(records, BuildOptions{})
	pl := tree.Node("PL1")
	for _, child := range pl.Children {
		if child == "U1" {
			t.Fatalf("user must not be attached under product line")
		}
	}
	bucket := tree.Node(UnassignedPrefix + string(TypeSubTeam))
	if bucket == nil || len(bucket.Children) != 1 {
		t.Fatalf("expected user bucketed under synthetic sub team, got %#v", bucket)
	}
}

func TestBuildTreePrunesEmptyGroups(t *testing.T) {
	records := append(projectRecords(),
		FlatRecord{ID: "BU2", Code: "EMPTY", Name: "Empty Unit", Type: TypeBusinessUnit},
		FlatRecord{ID: "PL2", Code: "BARE", Name: "Bare Line", Type: TypeProductLine, ParentID: "BU1"},
	)

	pruned := BuildTree(records, BuildOptions{})
	if pruned.Node("BU2") != nil || pruned.Node("PL2") != nil {
		t.Fatalf("empty groups should be pruned by default")
	}

	kept := BuildTree(records, BuildOptions{KeepEmptyGroups: true})
	if kept.Node("BU2") == nil || kept.Node("PL2") == nil {
		t.Fatalf("KeepEmptyGroups must retain empty groups")
	}
}

func TestNormalizeDropsBadAndArchivedRows(t *testing.T) {
	records := []FlatRecord{
		{Code: "NOID", Name: "missing id", Type: TypeProject},
		{ID: "P9", Code: "OLD", Name: "Archived", Type: TypeProject, Archived: true},
		{ID: "P1", Code: "OK", Name: "Kept", Type: TypeProject},
	}
	out := Normalize(records)
	if len(out) != 1 || out[0].ID != "P1" {
		t.Fatalf("unexpected normalize result %#v", out)
	}
}

func TestBuildTreeCompleteness(t *testing.T) {
	// Every record with a valid ID appears in exactly one node.
	records := append(projectRecords(),
		FlatRecord{ID: "P3", Code: "GHOST", Name: "Ghost", Type: TypeProject, ParentID: "nope"},
		FlatRecord{ID: "D1", Code: "ENG", Name: "Engineering", Type: TypeDepartment},
		FlatRecord{ID: "U1", Code: "jdoe", Name: "J. Doe", Type: TypeUser, ParentID: "D1"},
	)
	tree := BuildTree(records, BuildOptions{})

	seen := make(map[string]int)
	tree.Walk(func(n *Node, _ int) bool {
		if !n.Synthetic {
			seen[n.ID]++
		}
		return true
	})
	for _, rec := range records {
		if seen[rec.ID] != 1 {
			t.Fatalf("record %s appears %d times", rec.ID, seen[rec.ID])
		}
	}
}

func TestBuildTreeKeepsFirstOnIDCollision(t *testing.T) {
	records := []FlatRecord{
		{ID: "1", Code: "BU1", Name: "Platform", Type: TypeBusinessUnit},
		{ID: "2", Code: "BU2", Name: "Commerce", Type: TypeBusinessUnit},
		{ID: "1", Code: "PL9", Name: "Stray Line", Type: TypeProductLine, ParentID: "2"},
	}
	tree := BuildTree(records, BuildOptions{KeepEmptyGroups: true})

	seen := make(map[string]int)
	tree.Walk(func(n *Node, _ int) bool {
		seen[n.ID]++
		return true
	})
	if seen["1"] != 1 {
		t.Fatalf("node 1 visited %d times, want exactly 1", seen["1"])
	}

	kept := tree.Node("1")
	if kept.Type != TypeBusinessUnit || kept.Name != "Platform" {
		t.Fatalf("first record must win, got %s %q", kept.Type, kept.Name)
	}
	if got := len(tree.Node("2").Children); got != 0 {
		t.Fatalf("colliding record must not attach as a child, got %d children", got)
	}
	if len(tree.Roots) != 2 {
		t.Fatalf("expected 2 roots, got %v", tree.Roots)
	}
}

func TestParentIndex(t *testing.T) {
	tree := BuildTree(projectRecords(), BuildOptions{})
	idx := tree.ParentIndex()
	if idx["P1"] != "PL1" || idx["PL1"] != "BU1" {
		t.Fatalf("unexpected parent index %v", idx)
	}
	if _, ok := idx["BU1"]; ok {
		t.Fatalf("roots must not have parents")
	}
}
