package rankfit

import (
	"math"
	"testing"

	"github.com/ppiankov/lexigraph/internal/model"
)

type counts map[string]int

func (c counts) Each(fn func(string, int)) {
	for l, n := range c {
		fn(l, n)
	}
}

func TestRank_NearZipfProducts(t *testing.T) {
	ranked := Rank(counts{"a": 100, "b": 50, "c": 33, "d": 25})

	wantRanks := []int{1, 2, 3, 4}
	wantProducts := []int{100, 100, 99, 100}
	if len(ranked) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(ranked))
	}
	for i, e := range ranked {
		if e.Rank != wantRanks[i] {
			t.Errorf("entry %d: rank = %d, want %d", i, e.Rank, wantRanks[i])
		}
		if e.Product != wantProducts[i] {
			t.Errorf("entry %d: product = %d, want %d", i, e.Product, wantProducts[i])
		}
	}
}

func TestRank_TieBreakByLemma(t *testing.T) {
	ranked := Rank(counts{"β": 5, "α": 5, "γ": 7, "b": 5})

	want := []string{"γ", "b", "α", "β"}
	for i, e := range ranked {
		if e.Lemma != want[i] {
			t.Errorf("position %d: got %q, want %q", i, e.Lemma, want[i])
		}
	}

	// stable across runs regardless of map order
	for range 10 {
		again := Rank(counts{"β": 5, "α": 5, "γ": 7, "b": 5})
		for i := range again {
			if again[i] != ranked[i] {
				t.Fatalf("ranking not reproducible at %d: %+v vs %+v", i, again[i], ranked[i])
			}
		}
	}
}

func TestTop(t *testing.T) {
	ranked := Rank(counts{"a": 3, "b": 2, "c": 1})
	if len(Top(ranked, 2)) != 2 {
		t.Error("expected 2 entries")
	}
	if len(Top(ranked, 0)) != 3 || len(Top(ranked, 10)) != 3 {
		t.Error("expected all entries when k is out of range")
	}
}

func TestFit_Zipfian(t *testing.T) {
	ranked := Rank(counts{"a": 100, "b": 50, "c": 33, "d": 25})
	fit := NewFitter().Fit(ranked, 50)

	if fit.TopK != 4 {
		t.Errorf("TopK = %d, want 4", fit.TopK)
	}
	if math.Abs(fit.Slope+1) > 0.05 {
		t.Errorf("slope = %.3f, want close to -1", fit.Slope)
	}
	if fit.RSquared < 0.99 {
		t.Errorf("R² = %.4f, want > 0.99", fit.RSquared)
	}
	if math.Abs(fit.ProductMean-99.75) > 1e-9 {
		t.Errorf("product mean = %f, want 99.75", fit.ProductMean)
	}
	if fit.Quality != "good" {
		t.Errorf("quality = %q, want good; signals %+v", fit.Quality, fit.Signals)
	}
	if len(fit.Signals) != 3 {
		t.Errorf("expected 3 signals, got %d", len(fit.Signals))
	}
}

func TestFit_Flat(t *testing.T) {
	ranked := Rank(counts{"a": 10, "b": 10, "c": 10, "d": 10, "e": 10})
	fit := NewFitter().Fit(ranked, 0)

	if fit.Slope != 0 {
		t.Errorf("slope = %f, want 0", fit.Slope)
	}
	if fit.Quality != "poor" {
		t.Errorf("quality = %q, want poor", fit.Quality)
	}
}

func TestFit_Insufficient(t *testing.T) {
	ranked := Rank(counts{"a": 10, "b": 5})
	fit := NewFitter().Fit(ranked, 50)

	if !fit.InsufficientN {
		t.Error("expected InsufficientN")
	}
	if len(fit.Signals) != 1 || fit.Signals[0].Type != model.SignalSmallVocabulary {
		t.Errorf("unexpected signals %+v", fit.Signals)
	}
}
