package routinghash

import "testing"

func TestRouteIsStableForSameInputs(t *testing.T) {
	nodes := []string{"pod-b", "pod-a", "pod-c"}
	r1, ok1 := Route("110/homo_sapiens/GRCh38", nodes)
	r2, ok2 := Route("110/homo_sapiens/GRCh38", nodes)
	if !ok1 || !ok2 {
		t.Fatal("expected a route for non-empty nodes")
	}
	if r1 != r2 {
		t.Fatalf("expected stable route, got %s vs %s", r1, r2)
	}
}

func TestRouteReturnsFalseForEmptyNodes(t *testing.T) {
	if _, ok := Route("x", nil); ok {
		t.Fatal("expected no route for empty node set")
	}
}

func TestRouteOrderIndependentOfInputOrder(t *testing.T) {
	a, _ := Route("k", []string{"pod-a", "pod-b", "pod-c"})
	b, _ := Route("k", []string{"pod-c", "pod-b", "pod-a"})
	if a != b {
		t.Fatalf("expected route independent of input node order, got %s vs %s", a, b)
	}
}
