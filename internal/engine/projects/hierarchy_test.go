package projects

import "testing"

func dir(id string, parentID *string, name string) *DirectoryWithPrompts {
	return &DirectoryWithPrompts{
		Directory: Directory{
			ID:       id,
			ParentID: parentID,
			Name:     name,
			IsRoot:   parentID == nil,
		},
	}
}

func strPtr(s string) *string { return &s }

func countNodes(nodes []*Node) int {
	total := 0
	for _, n := range nodes {
		total += 1 + countNodes(n.Children)
	}
	return total
}

func collectIDs(nodes []*Node, seen map[string]int) {
	for _, n := range nodes {
		seen[n.ID]++
		collectIDs(n.Children, seen)
	}
}

func TestBuildHierarchy_Forest(t *testing.T) {
	dirs := []*DirectoryWithPrompts{
		dir("root_a", nil, "Alpha"),
		dir("root_b", nil, "Beta"),
		dir("child_a1", strPtr("root_a"), "Nested"),
		dir("child_a2", strPtr("root_a"), "Other"),
		dir("grandchild", strPtr("child_a1"), "Deep"),
	}

	forest := BuildHierarchy(dirs, 4)

	if len(forest) != 2 {
		t.Fatalf("Expected 2 roots, got %d", len(forest))
	}
	if forest[0].ID != "root_a" || forest[1].ID != "root_b" {
		t.Errorf("Root order not preserved: %s, %s", forest[0].ID, forest[1].ID)
	}
	if got := countNodes(forest); got != len(dirs) {
		t.Errorf("Expected %d nodes, got %d", len(dirs), got)
	}
	if len(forest[0].Children) != 2 {
		t.Fatalf("Expected 2 children under root_a, got %d", len(forest[0].Children))
	}
	if forest[0].Children[0].Children[0].ID != "grandchild" {
		t.Errorf("Grandchild not attached under child_a1")
	}
}

func TestBuildHierarchy_NoDuplicateNodes(t *testing.T) {
	dirs := []*DirectoryWithPrompts{
		dir("r", nil, "Root"),
		dir("a", strPtr("r"), "A"),
		dir("b", strPtr("r"), "B"),
		dir("c", strPtr("a"), "C"),
	}

	seen := map[string]int{}
	collectIDs(BuildHierarchy(dirs, 4), seen)

	for id, count := range seen {
		if count != 1 {
			t.Errorf("Directory %s appears %d times", id, count)
		}
	}
	if len(seen) != len(dirs) {
		t.Errorf("Expected %d distinct nodes, got %d", len(dirs), len(seen))
	}
}

func TestBuildHierarchy_DepthBound(t *testing.T) {
	// Chain five levels deep; with bound 4 the fifth level must be silently
	// dropped.
	dirs := []*DirectoryWithPrompts{
		dir("l1", nil, "L1"),
		dir("l2", strPtr("l1"), "L2"),
		dir("l3", strPtr("l2"), "L3"),
		dir("l4", strPtr("l3"), "L4"),
		dir("l5", strPtr("l4"), "L5"),
	}

	forest := BuildHierarchy(dirs, 4)

	if got := countNodes(forest); got != 4 {
		t.Fatalf("Expected 4 nodes within depth bound, got %d", got)
	}

	node := forest[0]
	for i := 0; i < 3; i++ {
		if len(node.Children) != 1 {
			t.Fatalf("Expected single child at level %d", i+1)
		}
		node = node.Children[0]
	}
	if node.ID != "l4" {
		t.Errorf("Expected deepest node l4, got %s", node.ID)
	}
	if len(node.Children) != 0 {
		t.Errorf("Node at depth bound must have empty children, got %d", len(node.Children))
	}
}

func TestBuildHierarchy_CycleTerminates(t *testing.T) {
	// Corrupt data: a and b reference each other. The build must still
	// terminate and only emit rows reachable from a root.
	dirs := []*DirectoryWithPrompts{
		dir("root", nil, "Root"),
		dir("a", strPtr("b"), "A"),
		dir("b", strPtr("a"), "B"),
	}

	forest := BuildHierarchy(dirs, 4)

	if len(forest) != 1 {
		t.Fatalf("Expected 1 root, got %d", len(forest))
	}
	if got := countNodes(forest); got != 1 {
		t.Errorf("Cycle members must not appear, got %d nodes", got)
	}
}

func TestBuildHierarchy_PromptsAttached(t *testing.T) {
	root := dir("root", nil, "Root")
	root.Prompts = []*Prompt{
		{ID: "pmt_1", DirectoryID: "root", Name: "Greeting"},
	}

	forest := BuildHierarchy([]*DirectoryWithPrompts{root}, 4)

	if len(forest) != 1 || len(forest[0].Prompts) != 1 {
		t.Fatalf("Expected root with one prompt leaf")
	}
	leaf := forest[0].Prompts[0]
	if leaf.Name != "Greeting" || leaf.Type != "prompt" {
		t.Errorf("Unexpected prompt leaf: %+v", leaf)
	}
}

func TestBuildHierarchy_EmptyInput(t *testing.T) {
	forest := BuildHierarchy(nil, 4)
	if forest == nil {
		t.Fatal("Expected empty slice, got nil")
	}
	if len(forest) != 0 {
		t.Errorf("Expected no nodes, got %d", len(forest))
	}
}
