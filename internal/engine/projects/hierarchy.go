package projects

// DefaultMaxDepth bounds directory nesting in detail responses. Directories
// stored deeper than this are omitted, not errored on.
const DefaultMaxDepth = 4

// Node is one entry of the rendered directory forest.
type Node struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	IsRoot      bool         `json:"isRoot"`
	Type        string       `json:"type"`
	CreatedAt   int64        `json:"createdAt"`
	UpdatedAt   int64        `json:"updatedAt"`
	Children    []*Node      `json:"children"`
	Prompts     []PromptLeaf `json:"prompts"`
}

// PromptLeaf is a prompt rendered inside its directory node. Prompts have no
// children and are never recursed into.
type PromptLeaf struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Type        string  `json:"type"`
	CreatedAt   int64   `json:"createdAt"`
	UpdatedAt   int64   `json:"updatedAt"`
}

// DirectoryWithPrompts is the flat input row for the builder: a directory
// already annotated with its own prompts.
type DirectoryWithPrompts struct {
	Directory
	Prompts []*Prompt
}

// BuildHierarchy assembles the flat, permission-pre-checked directory list
// into a forest of root nodes. Input order is preserved within each level,
// so the repository's ordering (roots first, then name ascending) is the
// presentation order. Recursion stops at maxDepth: a directory at the bound
// gets an empty children slice even when deeper rows exist, which also makes
// the assembly terminate if the stored parent references ever form a cycle.
func BuildHierarchy(dirs []*DirectoryWithPrompts, maxDepth int) []*Node {
	return buildLevel(dirs, nil, 0, maxDepth)
}

func buildLevel(dirs []*DirectoryWithPrompts, parentID *string, depth, maxDepth int) []*Node {
	nodes := []*Node{}
	if depth >= maxDepth {
		return nodes
	}

	for _, dir := range dirs {
		if !sameParent(dir.ParentID, parentID) {
			continue
		}
		id := dir.ID
		nodes = append(nodes, &Node{
			ID:          dir.ID,
			Name:        dir.Name,
			Description: dir.Description,
			IsRoot:      dir.IsRoot,
			Type:        "directory",
			CreatedAt:   dir.CreatedAt,
			UpdatedAt:   dir.UpdatedAt,
			Children:    buildLevel(dirs, &id, depth+1, maxDepth),
			Prompts:     promptLeaves(dir.Prompts),
		})
	}
	return nodes
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func promptLeaves(prompts []*Prompt) []PromptLeaf {
	leaves := []PromptLeaf{}
	for _, p := range prompts {
		leaves = append(leaves, PromptLeaf{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Type:        "prompt",
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return leaves
}
