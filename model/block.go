package model

// Block is one node of a workspace document block tree.
type Block struct {
	ID          string
	Type        string
	Text        []string
	HasChildren bool
	Children    []Block
}

// FlattenBlocks returns every text run of the tree, depth-first, parent before children.
func FlattenBlocks(blocks []Block) []string {
	var out []string
	for _, block := range blocks {
		for _, text := range block.Text {
			if text != "" {
				out = append(out, text)
			}
		}
		out = append(out, FlattenBlocks(block.Children)...)
	}
	return out
}
