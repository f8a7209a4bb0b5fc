package aggregate

// Neighbors counts co-occurrences inside a symmetric ±window span.
//
// counts[a][b] is the number of occurrences of a that had b within their
// window. With symmetric windows inside one sentence every pair of positions
// is seen from both ends, so counts[a][b] == counts[b][a].
type Neighbors struct {
	window int
	counts map[string]map[string]int
}

// NewNeighbors creates a neighbor aggregator with a ±window span
func NewNeighbors(window int) *Neighbors {
	if window <= 0 {
		window = 1
	}
	return &Neighbors{
		window: window,
		counts: make(map[string]map[string]int),
	}
}

// Record counts every lemma of window as a neighbor of lemma. Self pairs are
// ignored.
func (n *Neighbors) Record(lemma string, window []string) {
	for _, other := range window {
		if other == lemma {
			continue
		}
		n.add(lemma, other, 1)
	}
}

// RecordSentence records the ±window neighbors of every position of one
// sentence. Windows are clipped at the sentence edges, so pairs never cross
// a sentence boundary.
func (n *Neighbors) RecordSentence(lemmas []string) {
	for i, lemma := range lemmas {
		lo := max(i-n.window, 0)
		hi := min(i+n.window+1, len(lemmas))
		n.Record(lemma, lemmas[lo:hi])
	}
}

// Merge adds other's counts into n. Addition is associative and commutative,
// so the merge order never changes the result.
func (n *Neighbors) Merge(other *Neighbors) {
	for a, row := range other.counts {
		for b, c := range row {
			n.add(a, b, c)
		}
	}
}

// Finalize freezes the counts into a read-only table
func (n *Neighbors) Finalize() *NeighborTable {
	counts := make(map[string]map[string]int, len(n.counts))
	for a, row := range n.counts {
		cp := make(map[string]int, len(row))
		for b, c := range row {
			cp[b] = c
		}
		counts[a] = cp
	}
	return &NeighborTable{counts: counts}
}

func (n *Neighbors) add(a, b string, k int) {
	row, ok := n.counts[a]
	if !ok {
		row = make(map[string]int)
		n.counts[a] = row
	}
	row[b] += k
}

// NeighborTable is the finalized co-occurrence table
type NeighborTable struct {
	counts map[string]map[string]int
}

// Count returns how often b was recorded in a's window
func (t *NeighborTable) Count(a, b string) int {
	return t.counts[a][b]
}

// Len returns the number of lemmas with at least one neighbor
func (t *NeighborTable) Len() int {
	return len(t.counts)
}

// Symmetric reports whether every recorded pair has the same count in both
// directions
func (t *NeighborTable) Symmetric() bool {
	for a, row := range t.counts {
		for b, c := range row {
			if t.counts[b][a] != c {
				return false
			}
		}
	}
	return true
}
