package gloss

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider looks up English definitions of a lemma
type Provider interface {
	// Name returns the provider name
	Name() string

	// Lookup returns the candidate definitions of lemma, most relevant
	// first. An empty answer is reported as ErrNotFound.
	Lookup(ctx context.Context, lemma string) ([]Definition, error)
}

// Definition is one candidate sense of a lemma
type Definition struct {
	POS    string `json:"pos"`  // lower-case part of speech, "noun", "verb", ...
	Text   string `json:"text"` // plain-text gloss
	Source string `json:"source"`
}

// IsNoun reports whether the definition is tagged as a noun
func (d Definition) IsNoun() bool {
	return IsNounTag(d.POS)
}

var (
	// ErrNotFound means the provider answered but has no definition
	ErrNotFound = errors.New("no definition found")

	// ErrDisallowed means robots.txt forbids the lookup URL
	ErrDisallowed = errors.New("disallowed by robots.txt")
)

// StatusError is a non-success HTTP answer from a provider
type StatusError struct {
	Provider string
	Code     int
	Err      error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: status %d", e.Provider, e.Code)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// normalizePOS maps provider part-of-speech labels onto lower-case names
func normalizePOS(pos string) string {
	pos = strings.ToLower(strings.TrimSpace(pos))
	switch pos {
	case "proper noun", "proper-noun", "propn":
		return "proper noun"
	case "n", "n.", "substantive":
		return "noun"
	case "v", "v.":
		return "verb"
	case "adj", "adj.":
		return "adjective"
	}
	return pos
}

// IsNounTag reports whether a part-of-speech label denotes a common noun.
// Corpus tags ("noun") and provider labels ("Noun") are both accepted.
func IsNounTag(pos string) bool {
	return normalizePOS(pos) == "noun"
}
