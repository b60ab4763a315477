package viz

import (
	"fmt"
	"sort"

	"github.com/matsen/coauthor/internal/graph"
	"github.com/matsen/coauthor/internal/storage"
)

// Source is the query surface the neighborhood builder needs.
// *storage.DB implements it.
type Source interface {
	GetAuthor(id int) (*graph.Author, error)
	Coauthors(authorID, limit int) ([]storage.Collaborator, error)
	PaperCount(authorID int) (int, error)
}

// EgoOptions bounds the neighborhood.
type EgoOptions struct {
	Depth     int // Hops from the center (at least 1)
	MinWeight int // Drop coauthorships with fewer shared papers
	MaxNodes  int // Stop adding authors past this many (0 = no limit)
}

// DefaultEgoOptions returns the direct coauthors of an author.
func DefaultEgoOptions() EgoOptions {
	return EgoOptions{Depth: 1, MinWeight: 1, MaxNodes: 200}
}

// BuildEgoGraph collects the authors within opts.Depth hops of center,
// heaviest coauthorships first, and every edge among them that meets
// opts.MinWeight. The center is the first node.
func BuildEgoGraph(src Source, center int, opts EgoOptions) (*GraphData, error) {
	if opts.Depth < 1 {
		return nil, fmt.Errorf("depth must be at least 1, got %d", opts.Depth)
	}

	root, err := src.GetAuthor(center)
	if err != nil {
		return nil, err
	}

	depth := map[int]int{root.ID: 0}
	names := map[int]string{root.ID: root.Name}
	order := []int{root.ID}
	neighbors := make(map[int][]storage.Collaborator)

	full := func() bool { return opts.MaxNodes > 0 && len(order) >= opts.MaxNodes }

	for i := 0; i < len(order); i++ {
		id := order[i]
		coauthors, err := src.Coauthors(id, 0)
		if err != nil {
			return nil, fmt.Errorf("coauthors of %d: %w", id, err)
		}
		neighbors[id] = coauthors

		if depth[id] >= opts.Depth {
			continue
		}
		for _, c := range coauthors {
			if c.Weight < opts.MinWeight || full() {
				continue
			}
			if _, ok := depth[c.ID]; ok {
				continue
			}
			depth[c.ID] = depth[id] + 1
			names[c.ID] = c.Name
			order = append(order, c.ID)
		}
	}

	g := &GraphData{}
	for _, id := range order {
		papers, err := src.PaperCount(id)
		if err != nil {
			return nil, fmt.Errorf("paper count of %d: %w", id, err)
		}
		g.Nodes = append(g.Nodes, Node{
			ID:       nodeID(id),
			AuthorID: id,
			Label:    names[id],
			Papers:   papers,
			Depth:    depth[id],
		})
	}

	type pair struct{ low, high int }
	var pairs []pair
	weights := make(map[pair]int)
	for _, id := range order {
		for _, c := range neighbors[id] {
			if _, ok := depth[c.ID]; !ok || c.Weight < opts.MinWeight || id > c.ID {
				continue
			}
			p := pair{id, c.ID}
			if _, seen := weights[p]; !seen {
				pairs = append(pairs, p)
			}
			weights[p] = c.Weight
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].low != pairs[j].low {
			return pairs[i].low < pairs[j].low
		}
		return pairs[i].high < pairs[j].high
	})
	for _, p := range pairs {
		g.Edges = append(g.Edges, Edge{Source: nodeID(p.low), Target: nodeID(p.high), Weight: weights[p]})
	}

	return g, nil
}
