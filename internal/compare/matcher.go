package compare

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
	snowballeng "github.com/kljensen/snowball/english"
)

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	senseSplit    = regexp.MustCompile(`[;,:]`)
)

// leading words that never head a noun gloss
var determiners = map[string]bool{
	"a": true, "an": true, "the": true, "any": true, "one's": true, "some": true,
}

// stemTerm lower-cases and stems one English word
func stemTerm(term string) string {
	return snowballeng.Stem(strings.ToLower(strings.TrimSpace(term)), false)
}

// HeadTerms returns the head noun of every sense in an English gloss, in
// gloss order. "head of a family; chief" yields ["head", "chief"].
func HeadTerms(gloss string) []string {
	gloss = parenthetical.ReplaceAllString(gloss, " ")

	var heads []string
	seen := make(map[string]bool)
	for _, sense := range senseSplit.Split(gloss, -1) {
		head := senseHead(sense)
		if head == "" || seen[head] {
			continue
		}
		seen[head] = true
		heads = append(heads, head)
	}
	return heads
}

// senseHead picks the head noun of one sense: the last noun before the first
// preposition, so "man of the house" gives "man" and "fishing net" gives "net"
func senseHead(sense string) string {
	words := senseWords(sense)
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	}

	doc, err := prose.NewDocument(strings.Join(words, " "),
		prose.WithSegmentation(false),
		prose.WithExtraction(false))
	if err != nil {
		return words[0]
	}

	head := ""
	for _, tok := range doc.Tokens() {
		if tok.Tag == "IN" || tok.Tag == "TO" || tok.Tag == "WDT" || tok.Tag == "CC" {
			break
		}
		if strings.HasPrefix(tok.Tag, "NN") && !strings.HasPrefix(tok.Tag, "NNP") {
			head = strings.ToLower(tok.Text)
		}
	}
	if head == "" {
		return words[0]
	}
	return head
}

// senseWords lower-cases a sense and drops punctuation and leading determiners
func senseWords(sense string) []string {
	fields := strings.FieldsFunc(strings.ToLower(sense), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\'' && r != '-'
	})

	for len(fields) > 0 && determiners[fields[0]] {
		fields = fields[1:]
	}
	return fields
}
