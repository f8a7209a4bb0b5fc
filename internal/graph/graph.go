package graph

import (
	"slices"
	"sort"

	"github.com/ppiankov/lexigraph/internal/model"
)

// Cooccurrence is the read side of a neighbor table
type Cooccurrence interface {
	Count(a, b string) int
}

// Edge is an undirected weighted edge with A < B
type Edge struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Weight int    `json:"weight"`
}

// adjacent is a neighbor index + weight pair kept sorted by index
type adjacent struct {
	to     int
	weight int
}

// Graph is the undirected connectivity graph of the top-ranked lemmas
type Graph struct {
	Nodes []string
	Edges []Edge

	index map[string]int
	adj   [][]adjacent
}

// Build connects every pair of the first topN ranked lemmas that co-occur.
// The edge weight is the stored symmetric count read in lemma order, so it
// does not depend on which direction was recorded first. Self-loops are
// never added.
func Build(ranked []model.RankedEntry, topN int, table Cooccurrence) *Graph {
	if topN <= 0 || topN > len(ranked) {
		topN = len(ranked)
	}

	g := &Graph{
		Nodes: make([]string, 0, topN),
		index: make(map[string]int, topN),
	}
	for _, e := range ranked[:topN] {
		if _, ok := g.index[e.Lemma]; ok {
			continue
		}
		g.index[e.Lemma] = len(g.Nodes)
		g.Nodes = append(g.Nodes, e.Lemma)
	}
	g.adj = make([][]adjacent, len(g.Nodes))

	for i, a := range g.Nodes {
		for j := i + 1; j < len(g.Nodes); j++ {
			b := g.Nodes[j]
			lo, hi := a, b
			if hi < lo {
				lo, hi = hi, lo
			}

			w := table.Count(lo, hi)
			if w <= 0 {
				continue
			}
			g.Edges = append(g.Edges, Edge{A: lo, B: hi, Weight: w})
			g.adj[i] = append(g.adj[i], adjacent{to: j, weight: w})
			g.adj[j] = append(g.adj[j], adjacent{to: i, weight: w})
		}
	}

	for i := range g.adj {
		slices.SortFunc(g.adj[i], func(x, y adjacent) int {
			return x.to - y.to
		})
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].A != g.Edges[j].A {
			return g.Edges[i].A < g.Edges[j].A
		}
		return g.Edges[i].B < g.Edges[j].B
	})
	return g
}

// weight returns the edge weight between a and b, or 0
func (g *Graph) weight(a, b string) int {
	i, ok := g.index[a]
	if !ok {
		return 0
	}
	j, ok := g.index[b]
	if !ok {
		return 0
	}
	for _, n := range g.adj[i] {
		if n.to == j {
			return n.weight
		}
	}
	return 0
}

// Degree returns the number of edges touching lemma
func (g *Graph) Degree(lemma string) int {
	i, ok := g.index[lemma]
	if !ok {
		return 0
	}
	return len(g.adj[i])
}

// Stats summarises the graph size
func (g *Graph) Stats() model.GraphStats {
	stats := model.GraphStats{
		Nodes: len(g.Nodes),
		Edges: len(g.Edges),
	}
	for _, e := range g.Edges {
		stats.TotalWeight += e.Weight
	}
	if n := len(g.Nodes); n > 1 {
		stats.Density = 2 * float64(len(g.Edges)) / float64(n*(n-1))
	}
	return stats
}

// Degrees ranks every node by unweighted degree descending, ties broken by
// lemma byte order ascending. Weighted degree and PageRank are reported
// alongside but never affect the order.
func Degrees(g *Graph) []model.DegreeEntry {
	scores := PageRank(g)

	entries := make([]model.DegreeEntry, len(g.Nodes))
	for i, lemma := range g.Nodes {
		weighted := 0
		for _, n := range g.adj[i] {
			weighted += n.weight
		}
		entries[i] = model.DegreeEntry{
			Lemma:          lemma,
			Degree:         g.Degree(lemma),
			WeightedDegree: weighted,
			PageRank:       scores[i],
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Degree != entries[j].Degree {
			return entries[i].Degree > entries[j].Degree
		}
		return entries[i].Lemma < entries[j].Lemma
	})
	return entries
}
