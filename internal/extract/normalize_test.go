package extract

import "testing"

func TestNormalizer_Fold(t *testing.T) {
	tests := []struct {
		desc string
		in   string
		want string
	}{
		{"lower case and final sigma", "\u039b\u03ccγος", "λ\u03ccγοσ"},
		{"grave folds to acute", "καλ\u1f78ς", "καλ\u03ccσ"},
		{"oxia folds to tonos", "\u1f71γω", "\u03acγω"},
		{"decomposed input composes", "α\u0301γω", "\u03acγω"},
		{"homograph digit dropped", "ε\u1f37ς1", "ε\u1f37σ"},
		{"surrounding space", "  θε\u03ccς ", "θε\u03ccσ"},
		{"digits only", "123", ""},
		{"empty", "", ""},
		{"punctuation only", "·", ""},
	}

	n := NewNormalizer(false)
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := n.Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizer_StripDiacritics(t *testing.T) {
	n := NewNormalizer(true)

	tests := map[string]string{
		"ἄνθρωπος": "ανθρωποσ",
		"Ἀθῆναι":   "αθηναι",
		"ἀνήρ":     "ανηρ",
		"ἀνὴρ":     "ανηρ",
	}
	for in, want := range tests {
		if got := n.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizer_Deterministic(t *testing.T) {
	a := NewNormalizer(false)
	b := NewNormalizer(false)

	inputs := []string{"Λόγος", "καλὸς", "εἷς1", "ἄνθρωπος"}
	for _, in := range inputs {
		first := a.Normalize(in)
		// memoised path and a fresh instance must agree
		if again := a.Normalize(in); again != first {
			t.Errorf("memoised result for %q changed: %q vs %q", in, first, again)
		}
		if other := b.Normalize(in); other != first {
			t.Errorf("instances disagree for %q: %q vs %q", in, first, other)
		}
	}
}
