package archive

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/lexigraph/internal/model"
	"golang.org/x/net/html/charset"
)

// ParseDocument streams one annotated TEI document.
//
// The expected shape is
//
//	<teiHeader>…<title>…</title><author>…</author>…</teiHeader>
//	<text><body>
//	  <sentence id="1" location="1.1">
//	    <word form="…"><lemma entry="…" POS="noun">…</lemma></word>
//	    <punct mark="."/>
//	  </sentence>
//	</body></text>
//
// Only the first lemma with a non-empty entry counts for a word. Punctuation is
// ignored. Broken XML, or input with no root element, is reported as
// model.ErrMalformedDocument. A well-formed document without sentences comes
// back empty.
func ParseDocument(name string, r io.Reader) (*model.Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	doc := &model.Document{Name: name}

	var (
		inHeader  bool
		sawRoot   bool
		text      *string
		sentence  *model.Sentence
		word      *model.Word
		haveLemma bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrMalformedDocument, name, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			sawRoot = true
			switch t.Name.Local {
			case "teiHeader":
				inHeader = true
			case "title":
				if inHeader && doc.Title == "" {
					text = &doc.Title
				}
			case "author":
				if inHeader && doc.Author == "" {
					text = &doc.Author
				}
			case "sentence":
				sentence = &model.Sentence{
					ID:       attr(t, "id"),
					Location: attr(t, "location"),
				}
			case "word":
				if sentence != nil {
					word = &model.Word{Form: attr(t, "form")}
					haveLemma = false
				}
			case "lemma":
				if word != nil && !haveLemma {
					word.Lemma = attr(t, "entry")
					word.POS = attr(t, "POS")
					haveLemma = word.Lemma != ""
				}
			}

		case xml.CharData:
			if text != nil {
				*text += string(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "teiHeader":
				inHeader = false
			case "title", "author":
				if text != nil {
					*text = strings.Join(strings.Fields(*text), " ")
					text = nil
				}
			case "word":
				if word != nil && sentence != nil {
					sentence.Words = append(sentence.Words, *word)
				}
				word = nil
			case "sentence":
				if sentence != nil {
					doc.Sentences = append(doc.Sentences, *sentence)
				}
				sentence = nil
			}
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("%w: %s: no root element", model.ErrMalformedDocument, name)
	}

	return doc, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}
