package archive

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/ppiankov/lexigraph/internal/model"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<TEI.2>
<teiHeader>
  <fileDesc><titleStmt><title>Ilias</title><author>Homer</author></titleStmt></fileDesc>
</teiHeader>
<text><body>
<sentence id="1" location="1.1">
  <word form="mh=nin" id="1"><lemma id="1" entry="μῆνις" POS="noun"><analysis morph="fem acc sg"/></lemma></word>
  <word form="a)/eide" id="2"><lemma id="2" entry="ἀείδω" POS="verb"/></word>
  <punct mark=","/>
  <word form="qea/" id="3"><lemma id="3" entry="θεά" POS="noun"/><lemma id="4" entry="θέα" POS="noun"/></word>
</sentence>
<sentence id="2" location="1.2">
  <word form="???" id="4"></word>
</sentence>
</body></text>
</TEI.2>`

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "corpus.zip")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, content); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func writeTarGz(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	gz := pgzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for n, content := range files {
		hdr := &tar.Header{Name: n, Mode: 0644, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(tw, content); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func collectNames(t *testing.T, r *Reader) []string {
	t.Helper()
	var names []string
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		names = append(names, e.Name)
	}
	return names
}

func TestOpen_Zip_SkipsNonXML(t *testing.T) {
	p := writeZip(t, map[string]string{
		"Homer (0012) - Iliad (001).xml": sampleDoc,
		"README.txt":                     "not a document",
	})

	r, err := Open(p)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = r.Close() }()

	if r.Len() != 2 {
		t.Errorf("expected 2 zip entries, got %d", r.Len())
	}

	names := collectNames(t, r)
	if len(names) != 1 || !strings.HasSuffix(names[0], ".xml") {
		t.Errorf("expected only the xml entry, got %v", names)
	}
}

func TestOpen_TarGz(t *testing.T) {
	p := writeTarGz(t, "corpus.tar.gz", map[string]string{
		"a.xml":   sampleDoc,
		"b.xml":   sampleDoc,
		"meta.js": "{}",
	})

	r, err := Open(p)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = r.Close() }()

	if r.Len() != -1 {
		t.Errorf("expected unknown length for tar.gz, got %d", r.Len())
	}

	names := collectNames(t, r)
	if len(names) != 2 {
		t.Fatalf("expected 2 xml entries, got %v", names)
	}
}

func TestOpen_DetectsByMagic(t *testing.T) {
	zipPath := writeZip(t, map[string]string{"a.xml": sampleDoc})
	renamed := filepath.Join(t.TempDir(), "corpus.bin")
	data, err := os.ReadFile(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(renamed, data, 0644); err != nil {
		t.Fatal(err)
	}

	r, err := Open(renamed)
	if err != nil {
		t.Fatalf("expected zip detection by magic bytes, got %v", err)
	}
	_ = r.Close()
}

func TestOpen_Unreadable(t *testing.T) {
	tests := []struct {
		desc    string
		prepare func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "missing.zip")
		}},
		{"garbage zip", func(t *testing.T) string {
			p := filepath.Join(t.TempDir(), "broken.zip")
			_ = os.WriteFile(p, []byte("definitely not a zip"), 0644)
			return p
		}},
		{"unknown format", func(t *testing.T) string {
			p := filepath.Join(t.TempDir(), "corpus.dat")
			_ = os.WriteFile(p, []byte("plain text"), 0644)
			return p
		}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := Open(tt.prepare(t))
			if !errors.Is(err, model.ErrArchiveUnreadable) {
				t.Errorf("expected ErrArchiveUnreadable, got %v", err)
			}
		})
	}
}

func TestReadDocument_FromZip(t *testing.T) {
	p := writeZip(t, map[string]string{"iliad.xml": sampleDoc})
	r, err := Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()

	e, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	doc, err := ReadDocument(e)
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	if doc.Name != "iliad.xml" {
		t.Errorf("unexpected name %q", doc.Name)
	}
	if doc.WordCount() != 4 {
		t.Errorf("expected 4 words, got %d", doc.WordCount())
	}
}
