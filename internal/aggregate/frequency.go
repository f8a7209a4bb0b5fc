package aggregate

import (
	"fmt"

	"github.com/ppiankov/lexigraph/internal/extract"
	"github.com/ppiankov/lexigraph/internal/model"
)

// Frequency counts lemma occurrences. Memory grows with the vocabulary, not
// with the corpus.
type Frequency struct {
	counts  map[string]int
	display map[string]string
	pos     map[string]map[string]int
	total   int
}

// NewFrequency creates an empty frequency aggregator
func NewFrequency() *Frequency {
	return &Frequency{
		counts:  make(map[string]int),
		display: make(map[string]string),
		pos:     make(map[string]map[string]int),
	}
}

// Record counts one occurrence of lemma
func (f *Frequency) Record(lemma string) {
	f.counts[lemma]++
	f.total++
}

// RecordWord counts lemma and keeps its corpus spelling and part of speech
func (f *Frequency) RecordWord(lemma, display, pos string) {
	f.Record(lemma)
	f.noteDisplay(lemma, display)
	if pos != "" {
		f.votePOS(lemma, pos, 1)
	}
}

// RecordToken counts one extracted token
func (f *Frequency) RecordToken(tok extract.Token) {
	f.RecordWord(tok.Lemma, tok.Display, tok.POS)
}

// Merge adds other's counts into f. Merging is associative and commutative:
// counts and POS votes add, and the display spelling is the lexically
// smallest one seen, so any merge order gives the same table.
func (f *Frequency) Merge(other *Frequency) {
	for lemma, c := range other.counts {
		f.counts[lemma] += c
	}
	f.total += other.total

	for lemma, d := range other.display {
		f.noteDisplay(lemma, d)
	}
	for lemma, votes := range other.pos {
		for pos, n := range votes {
			f.votePOS(lemma, pos, n)
		}
	}
}

// Total returns the number of recorded occurrences
func (f *Frequency) Total() int {
	return f.total
}

// Finalize freezes the counts into a read-only table and returns it with the
// grand total
func (f *Frequency) Finalize() (*FrequencyTable, int) {
	table := &FrequencyTable{
		counts:  make(map[string]int, len(f.counts)),
		display: make(map[string]string, len(f.display)),
		pos:     make(map[string]string, len(f.pos)),
		total:   f.total,
	}
	for lemma, c := range f.counts {
		table.counts[lemma] = c
	}
	for lemma, d := range f.display {
		table.display[lemma] = d
	}
	for lemma, votes := range f.pos {
		table.pos[lemma] = majority(votes)
	}
	return table, f.total
}

func (f *Frequency) noteDisplay(lemma, display string) {
	if display == "" {
		return
	}
	if cur, ok := f.display[lemma]; !ok || display < cur {
		f.display[lemma] = display
	}
}

func (f *Frequency) votePOS(lemma, pos string, n int) {
	votes, ok := f.pos[lemma]
	if !ok {
		votes = make(map[string]int)
		f.pos[lemma] = votes
	}
	votes[pos] += n
}

// majority picks the most voted part of speech, ties going to the smaller name
func majority(votes map[string]int) string {
	best, bestN := "", 0
	for pos, n := range votes {
		if n > bestN || (n == bestN && pos < best) {
			best, bestN = pos, n
		}
	}
	return best
}

// FrequencyTable is the finalized lemma → count mapping
type FrequencyTable struct {
	counts  map[string]int
	display map[string]string
	pos     map[string]string
	total   int
}

// Count returns the occurrences of lemma
func (t *FrequencyTable) Count(lemma string) int {
	return t.counts[lemma]
}

// Total returns the sum of all counts
func (t *FrequencyTable) Total() int {
	return t.total
}

// Len returns the number of distinct lemmas
func (t *FrequencyTable) Len() int {
	return len(t.counts)
}

// Each calls fn for every lemma in unspecified order
func (t *FrequencyTable) Each(fn func(lemma string, count int)) {
	for lemma, c := range t.counts {
		fn(lemma, c)
	}
}

// Display returns the corpus spelling of lemma, falling back to the key
func (t *FrequencyTable) Display(lemma string) string {
	if d, ok := t.display[lemma]; ok {
		return d
	}
	return lemma
}

// POS returns the majority corpus part of speech of lemma, or ""
func (t *FrequencyTable) POS(lemma string) string {
	return t.pos[lemma]
}

// CheckIntegrity compares the grand total with the expected corpus size. A
// mismatch returns model.ErrIntegrityMismatch; expected <= 0 disables the check.
func CheckIntegrity(total, expected int) error {
	if expected <= 0 || total == expected {
		return nil
	}
	return fmt.Errorf("%w: counted %d tokens, expected %d (diff %+d)", model.ErrIntegrityMismatch, total, expected, total-expected)
}
