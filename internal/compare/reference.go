package compare

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/lexigraph/internal/model"
)

//go:embed swadesh100.txt
var swadesh100 string

// Reference is the core-vocabulary list the top nouns are compared against.
// It is read once and never modified.
type Reference struct {
	concepts []string
	terms    map[string]string // stemmed term -> concept
}

// LoadReference reads the reference list at path. An empty path selects the
// built-in Swadesh-100 list.
func LoadReference(path string) (*Reference, error) {
	if path == "" {
		return ParseReference(strings.NewReader(swadesh100))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrReferenceListMissing, err)
	}
	defer func() { _ = file.Close() }()

	ref, err := ParseReference(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrReferenceListMissing, path, err)
	}
	return ref, nil
}

// ParseReference reads one concept per line. Blank lines and lines starting
// with '#' are skipped; duplicates are dropped. "stone/rock" declares one
// concept, named by its first term, with two matching terms.
func ParseReference(r io.Reader) (*Reference, error) {
	ref := &Reference{terms: make(map[string]string)}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		alternatives := strings.Split(line, "/")
		concept := strings.TrimSpace(alternatives[0])
		key := strings.ToLower(concept)
		if concept == "" || seen[key] {
			continue
		}
		seen[key] = true
		ref.concepts = append(ref.concepts, concept)

		for _, alt := range alternatives {
			alt = strings.TrimSpace(alt)
			if alt == "" {
				continue
			}
			stem := stemTerm(alt)
			if _, taken := ref.terms[stem]; !taken {
				ref.terms[stem] = concept
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan reference list: %w", err)
	}
	if len(ref.concepts) == 0 {
		return nil, fmt.Errorf("reference list is empty")
	}
	return ref, nil
}

// Concepts returns the concepts in list order
func (r *Reference) Concepts() []string {
	return append([]string(nil), r.concepts...)
}

// Len returns the number of concepts
func (r *Reference) Len() int {
	return len(r.concepts)
}

// Match returns the concept an English term denotes, comparing stems
func (r *Reference) Match(term string) (string, bool) {
	concept, ok := r.terms[stemTerm(term)]
	return concept, ok
}
