package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	combiningGrave = '\u0300'
	combiningAcute = '\u0301'
)

// Normalizer folds orthographic variants of a lemma onto one aggregation key.
//
// The default fold is: NFC composition (which also maps oxia onto tonos),
// lower case, final sigma to medial sigma, grave to acute, and removal of
// homograph digits and anything that is not a letter or combining mark.
// StripDiacritics additionally removes every accent and breathing.
//
// The result depends only on the input. A Normalizer memoises results and is
// not safe for concurrent use; give each worker its own.
type Normalizer struct {
	stripDiacritics bool
	strip           transform.Transformer
	memo            map[string]string
}

// NewNormalizer creates a normalizer
func NewNormalizer(stripDiacritics bool) *Normalizer {
	return &Normalizer{
		stripDiacritics: stripDiacritics,
		strip:           transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		memo:            make(map[string]string),
	}
}

// Normalize returns the aggregation key for a raw lemma, or "" when nothing
// recoverable is left
func (n *Normalizer) Normalize(raw string) string {
	if key, ok := n.memo[raw]; ok {
		return key
	}
	key := n.fold(raw)
	n.memo[raw] = key
	return key
}

func (n *Normalizer) fold(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if n.stripDiacritics {
		out, _, err := transform.String(n.strip, s)
		if err != nil {
			return ""
		}
		s = out
	} else {
		s = norm.NFD.String(s)
		s = strings.Map(func(r rune) rune {
			if r == combiningGrave {
				return combiningAcute
			}
			return r
		}, s)
		s = norm.NFC.String(s)
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r == 'ς':
			return 'σ'
		case unicode.IsLetter(r):
			return unicode.ToLower(r)
		case unicode.Is(unicode.Mn, r):
			return r
		default:
			return -1
		}
	}, s)

	if !strings.ContainsFunc(s, unicode.IsLetter) {
		return ""
	}
	return s
}
