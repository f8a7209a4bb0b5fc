package graph

import "math"

const (
	damping = 0.85
	maxIter = 100
	epsilon = 1e-6
)

// PageRank runs weighted PageRank over g and returns one score per node in
// g.Nodes order. Scores sum to 1.
func PageRank(g *Graph) []float64 {
	n := len(g.Nodes)
	if n == 0 {
		return nil
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0 / float64(n)
	}

	outWeight := make([]float64, n)
	for i, neighbors := range g.adj {
		for _, e := range neighbors {
			outWeight[i] += float64(e.weight)
		}
	}

	nf := float64(n)
	for range maxIter {
		next := make([]float64, n)
		maxDelta := 0.0

		// isolated nodes spread their mass evenly
		dangling := 0.0
		for i := range n {
			if outWeight[i] == 0 {
				dangling += scores[i]
			}
		}

		for i := range n {
			sum := dangling / nf
			for _, e := range g.adj[i] {
				sum += (float64(e.weight) / outWeight[e.to]) * scores[e.to]
			}
			next[i] = (1-damping)/nf + damping*sum
			maxDelta = math.Max(maxDelta, math.Abs(next[i]-scores[i]))
		}

		scores = next
		if maxDelta < epsilon {
			break
		}
	}
	return scores
}
