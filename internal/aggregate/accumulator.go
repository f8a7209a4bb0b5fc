package aggregate

import (
	"iter"

	"github.com/ppiankov/lexigraph/internal/extract"
)

// Accumulator feeds one token stream into both aggregators. Workers keep one
// accumulator each and the results are combined with Merge.
type Accumulator struct {
	Freq      *Frequency
	Neighbors *Neighbors
}

// NewAccumulator creates an accumulator with a ±window neighbor span
func NewAccumulator(window int) *Accumulator {
	return &Accumulator{
		Freq:      NewFrequency(),
		Neighbors: NewNeighbors(window),
	}
}

// Consume aggregates a token stream sentence by sentence and returns the
// number of tokens counted
func (a *Accumulator) Consume(tokens iter.Seq[extract.Token]) int {
	n := 0
	var lemmas []string
	for sentence := range extract.Sentences(tokens) {
		lemmas = lemmas[:0]
		for _, tok := range sentence {
			a.Freq.RecordToken(tok)
			lemmas = append(lemmas, tok.Lemma)
		}
		a.Neighbors.RecordSentence(lemmas)
		n += len(sentence)
	}
	return n
}

// Merge folds other into a
func (a *Accumulator) Merge(other *Accumulator) {
	a.Freq.Merge(other.Freq)
	a.Neighbors.Merge(other.Neighbors)
}

// Finalize freezes both aggregators
func (a *Accumulator) Finalize() (*FrequencyTable, *NeighborTable) {
	freq, _ := a.Freq.Finalize()
	return freq, a.Neighbors.Finalize()
}
