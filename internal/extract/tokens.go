package extract

import (
	"fmt"
	"iter"

	"github.com/ppiankov/lexigraph/internal/model"
)

// Token is one kept word occurrence, or a sentence boundary marker
type Token struct {
	Lemma    string // normalized aggregation key
	Display  string // lemma as spelled in the corpus
	Form     string // raw surface form
	POS      string
	Position int  // index among kept tokens of the sentence
	Boundary bool // true for the marker emitted between sentences
}

// Extractor turns parsed documents into token streams
type Extractor struct {
	normalizer *Normalizer
	skipped    int

	// OnDrop, when set, is told about every dropped word
	OnDrop func(err error)
}

// NewExtractor creates an extractor that keys tokens with n
func NewExtractor(n *Normalizer) *Extractor {
	return &Extractor{normalizer: n}
}

// Tokens lazily yields the document's tokens in reading order, with a
// Boundary token between consecutive sentences. Words whose lemma cannot be
// recovered are dropped and counted.
func (e *Extractor) Tokens(doc *model.Document) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for i, s := range doc.Sentences {
			if i > 0 && !yield(Token{Boundary: true}) {
				return
			}

			pos := 0
			for _, w := range s.Words {
				lemma := e.normalizer.Normalize(w.Lemma)
				if lemma == "" {
					e.skipped++
					if e.OnDrop != nil {
						e.OnDrop(fmt.Errorf("%w: %s sentence %s form %q", model.ErrUnrecoverableToken, doc.Name, s.ID, w.Form))
					}
					continue
				}

				tok := Token{
					Lemma:    lemma,
					Display:  w.Lemma,
					Form:     w.Form,
					POS:      w.POS,
					Position: pos,
				}
				if !yield(tok) {
					return
				}
				pos++
			}
		}
	}
}

// Skipped returns how many words have been dropped so far
func (e *Extractor) Skipped() int {
	return e.skipped
}

// Sentences groups a token stream into per-sentence slices, splitting on
// Boundary tokens. Empty sentences are not yielded.
func Sentences(tokens iter.Seq[Token]) iter.Seq[[]Token] {
	return func(yield func([]Token) bool) {
		var current []Token
		for tok := range tokens {
			if tok.Boundary {
				if len(current) > 0 && !yield(current) {
					return
				}
				current = nil
				continue
			}
			current = append(current, tok)
		}
		if len(current) > 0 {
			yield(current)
		}
	}
}
