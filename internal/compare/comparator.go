package compare

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/ppiankov/lexigraph/internal/gloss"
	"github.com/ppiankov/lexigraph/internal/model"
)

// DefaultTop is the number of nouns compared against the reference list
const DefaultTop = 50

// Comparator resolves glosses for the best connected lemmas, keeps the nouns
// and compares them with the reference list
type Comparator struct {
	resolver  *gloss.Resolver
	reference *Reference
	top       int
	deadline  time.Duration
}

// NewComparator creates a comparator. A nil resolver disables lookups; the
// corpus part of speech then decides which lemmas are nouns.
func NewComparator(resolver *gloss.Resolver, reference *Reference, top int, deadline time.Duration) *Comparator {
	if top <= 0 {
		top = DefaultTop
	}
	return &Comparator{
		resolver:  resolver,
		reference: reference,
		top:       top,
		deadline:  deadline,
	}
}

// Compare walks degrees in order, resolving glosses in batches until top
// nouns are collected or the list runs out. posOf and displayOf give the
// corpus part of speech and spelling of a lemma; either may be nil.
func (c *Comparator) Compare(ctx context.Context, degrees []model.DegreeEntry, posOf, displayOf func(string) string) (*model.ComparisonResult, []model.GlossEntry) {
	if c.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.deadline)
		defer cancel()
	}

	result := &model.ComparisonResult{ReferenceSize: c.reference.Len()}
	var nouns []model.GlossEntry

	for start := 0; start < len(degrees) && len(nouns) < c.top; {
		size := min(2*(c.top-len(nouns)), len(degrees)-start)
		batch := degrees[start : start+size]
		start += size

		lemmas := make([]string, len(batch))
		displays := make([]string, len(batch))
		for i, d := range batch {
			displays[i] = d.Lemma
			if displayOf != nil {
				displays[i] = displayOf(d.Lemma)
			}
			lemmas[i] = lookupKey(displays[i])
		}

		for i, res := range c.resolve(ctx, lemmas) {
			switch {
			case res.Skipped:
				result.LookupsSkipped++
			case res.Attempts > 0:
				result.LookupsAttempted++
				if !res.Resolved() {
					result.LookupsFailed++
				}
			}

			corpusPOS := ""
			if posOf != nil {
				corpusPOS = posOf(batch[i].Lemma)
			}
			if entry, ok := nounEntry(batch[i], displays[i], corpusPOS, res); ok && len(nouns) < c.top {
				nouns = append(nouns, entry)
			}
		}
	}

	c.match(result, nouns)
	return result, nouns
}

func (c *Comparator) resolve(ctx context.Context, lemmas []string) []gloss.Result {
	if c.resolver != nil {
		return c.resolver.ResolveAll(ctx, lemmas)
	}
	results := make([]gloss.Result, len(lemmas))
	for i, lemma := range lemmas {
		results[i] = gloss.Result{Lemma: lemma}
	}
	return results
}

// nounEntry builds the report row for a lemma if it is a noun. A resolved
// gloss decides the part of speech; otherwise the corpus tag does.
func nounEntry(d model.DegreeEntry, display, corpusPOS string, res gloss.Result) (model.GlossEntry, bool) {
	entry := model.GlossEntry{
		Lemma:   d.Lemma,
		Display: display,
		Degree:  d.Degree,
	}

	if res.Resolved() {
		for _, def := range res.Definitions {
			if def.IsNoun() {
				entry.POS = "noun"
				entry.Gloss = def.Text
				entry.Source = def.Source
				entry.Resolved = true
				return entry, true
			}
		}
		return entry, false
	}

	if !gloss.IsNounTag(corpusPOS) {
		return entry, false
	}
	entry.POS = "noun"
	entry.Gloss = model.Unresolved
	if res.Err != nil {
		entry.Error = res.Err.Error()
	} else {
		entry.Error = "gloss lookup disabled"
	}
	return entry, true
}

// match links resolved nouns to reference concepts and fills the overlap
// and difference sets
func (c *Comparator) match(result *model.ComparisonResult, nouns []model.GlossEntry) {
	covered := make(map[string]bool)

	for i := range nouns {
		entry := &nouns[i]
		if !entry.Resolved {
			result.Unresolved++
			continue
		}

		for _, term := range HeadTerms(entry.Gloss) {
			if concept, ok := c.reference.Match(term); ok {
				entry.Concept = concept
				result.Matches = append(result.Matches, model.ConceptMatch{
					Lemma:   entry.Lemma,
					Concept: concept,
					Term:    term,
				})
				covered[concept] = true
				break
			}
		}
		if entry.Concept == "" {
			result.NotInReference = append(result.NotInReference, entry.Display)
		}
	}

	for _, concept := range c.reference.Concepts() {
		if covered[concept] {
			result.Overlap = append(result.Overlap, concept)
		} else {
			result.MissingFromTop = append(result.MissingFromTop, concept)
		}
	}
	if result.ReferenceSize > 0 {
		result.OverlapRatio = float64(len(result.Overlap)) / float64(result.ReferenceSize)
	}
}

// lookupKey is the corpus spelling without homograph digits ("λόγος1")
func lookupKey(display string) string {
	key := strings.TrimRightFunc(display, unicode.IsDigit)
	if key == "" {
		return display
	}
	return key
}
