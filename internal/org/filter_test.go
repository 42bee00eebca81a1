package org

import (
	"reflect"
	"testing"
)

func deepRecords() []FlatRecord {
	return []FlatRecord{
		{ID: "BU1", Code: "CORE", Name: "Core Platform", Type: TypeBusinessUnit},
		{ID: "PL1", Code: "PAY", Name: "Payments", Type: TypeProductLine, ParentID: "BU1"},
		{ID: "P1", Code: "PAY-ABC", Name: "Checkout", Type: TypeProject, ParentID: "PL1"},
		{ID: "P2", Code: "PAY-XYZ", Name: "Refunds", Type: TypeProject, ParentID: "PL1"},
		{ID: "BU2", Code: "DATA", Name: "Data Platform", Type: TypeBusinessUnit},
		{ID: "PL2", Code: "WH", Name: "Warehouse", Type: TypeProductLine, ParentID: "BU2"},
		{ID: "P3", Code: "WH-ETL", Name: "Pipelines", Type: TypeProject, ParentID: "PL2"},
	}
}

func TestFilterTreeEmptyTermIsIdentity(t *testing.T) {
	tree := BuildTree(deepRecords(), BuildOptions{})
	if got := FilterTree(tree, "  "); got != tree {
		t.Fatalf("blank term must return the tree unchanged")
	}
}

func TestFilterTreeKeepsAncestorPath(t *testing.T) {
	tree := BuildTree(deepRecords(), BuildOptions{})

	// Only a deeply nested leaf code contains "abc" (case-insensitive).
	got := FilterTree(tree, "abc")
	if !reflect.DeepEqual(got.Roots, []string{"BU1"}) {
		t.Fatalf("unexpected roots %v", got.Roots)
	}
	if got.Node("P1") == nil {
		t.Fatalf("matching leaf must survive")
	}
	if got.Node("P2") != nil || got.Node("BU2") != nil || got.Node("P3") != nil {
		t.Fatalf("non-matching siblings and branches must be dropped")
	}
	if !reflect.DeepEqual(got.Node("PL1").Children, []string{"P1"}) {
		t.Fatalf("ancestor children must be replaced by the surviving path")
	}
}

func TestFilterTreeDirectMatchKeepsFullSubtree(t *testing.T) {
	tree := BuildTree(deepRecords(), BuildOptions{})

	// "payments" matches the product line itself but none of its projects;
	// the whole original subtree must be browsable.
	got := FilterTree(tree, "PAYMENTS")
	pl := got.Node("PL1")
	if pl == nil {
		t.Fatalf("matching group must survive")
	}
	if !reflect.DeepEqual(pl.Children, []string{"P1", "P2"}) {
		t.Fatalf("direct match must keep original children, got %v", pl.Children)
	}
	if got.Node("P2") == nil {
		t.Fatalf("unfiltered subtree nodes must be reachable in the result")
	}
}

func TestFilterTreeDoesNotMutateInput(t *testing.T) {
	tree := BuildTree(deepRecords(), BuildOptions{})
	before := BuildTree(deepRecords(), BuildOptions{})

	_ = FilterTree(tree, "abc")
	if !reflect.DeepEqual(tree, before) {
		t.Fatalf("input tree was mutated by filtering")
	}
}

func TestFilterTreeMonotonicity(t *testing.T) {
	tree := BuildTree(deepRecords(), BuildOptions{})
	got := FilterTree(tree, "platform")
	got.Walk(func(n *Node, _ int) bool {
		if tree.Node(n.ID) == nil {
			t.Fatalf("filtered tree contains node %s absent from input", n.ID)
		}
		return true
	})
}

func TestFilterTreeMatchesUserFields(t *testing.T) {
	records := []FlatRecord{
		{ID: "D1", Code: "ENG", Name: "Engineering", Type: TypeDepartment},
		{ID: "U1", Code: "u-1", Name: "Jane Doe", SecondaryName: "ジェーン", Identifier: "jane@corp.example", Type: TypeUser, ParentID: "D1"},
		{ID: "U2", Code: "u-2", Name: "Ann Smith", Identifier: "ann@corp.example", Type: TypeUser, ParentID: "D1"},
	}
	tree := BuildTree(records, BuildOptions{})

	if got := FilterTree(tree, "ジェーン"); got.Node("U1") == nil || got.Node("U2") != nil {
		t.Fatalf("secondary name must be searchable")
	}
	if got := FilterTree(tree, "ann@"); got.Node("U2") == nil || got.Node("U1") != nil {
		t.Fatalf("identifier must be searchable")
	}
	if got := FilterTree(tree, "nobody"); got.Len() != 0 || len(got.Roots) != 0 {
		t.Fatalf("no match must yield an empty forest")
	}
}
