// Package viz renders coauthorship neighborhoods as interactive HTML.
package viz

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is an author in the neighborhood.
type Node struct {
	ID       string `json:"id"` // "a<author id>"
	AuthorID int    `json:"authorId"`
	Label    string `json:"label"`
	Papers   int    `json:"papers"`
	Depth    int    `json:"depth"` // Hops from the center author
}

// Edge is a coauthorship between two nodes of the neighborhood.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0
}
