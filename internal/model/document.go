package model

// Document is one parsed literary work from the corpus archive
type Document struct {
	Name      string     `json:"name"` // archive entry name
	Title     string     `json:"title,omitempty"`
	Author    string     `json:"author,omitempty"`
	Sentences []Sentence `json:"sentences"`
}

// Sentence is an ordered run of annotated words
type Sentence struct {
	ID       string `json:"id,omitempty"`
	Location string `json:"location,omitempty"` // e.g. "1.1" (book.line)
	Words    []Word `json:"words"`
}

// Word is a single annotated word as it appears in the archive
type Word struct {
	Form  string `json:"form"`            // raw surface form
	Lemma string `json:"lemma,omitempty"` // dictionary entry, empty when the annotation is missing
	POS   string `json:"pos,omitempty"`   // part of speech from the lemma annotation
}

// WordCount returns the number of words across all sentences
func (d *Document) WordCount() int {
	n := 0
	for _, s := range d.Sentences {
		n += len(s.Words)
	}
	return n
}
