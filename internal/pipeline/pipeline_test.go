package pipeline

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/lexigraph/internal/compare"
	"github.com/ppiankov/lexigraph/internal/gloss"
	"github.com/ppiankov/lexigraph/internal/model"
	"github.com/ppiankov/lexigraph/internal/worker"
)

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }

func (failingProvider) Lookup(ctx context.Context, lemma string) ([]gloss.Definition, error) {
	return nil, &gloss.StatusError{Provider: "failing", Code: 503}
}

func tei(sentences ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><TEI.2><teiHeader><title>T</title></teiHeader><text><body>`)
	for i, s := range sentences {
		fmt.Fprintf(&b, `<sentence id="%d">`, i+1)
		for _, w := range strings.Fields(s) {
			lemma, pos, _ := strings.Cut(w, ":")
			fmt.Fprintf(&b, `<word form="%s"><lemma entry="%s" POS="%s"/></word>`, lemma, lemma, pos)
		}
		b.WriteString(`<punct mark="."/></sentence>`)
	}
	b.WriteString(`</body></text></TEI.2>`)
	return b.String()
}

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "toy.zip")
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

// toyCorpus has 2 documents, 10 words and 4 lemmas
func toyCorpus() map[string]string {
	return map[string]string{
		"a.xml": tei("λόγος:noun ἀνήρ:noun λόγος:noun", "ὁ:article ἀνήρ:noun"),
		"b.xml": tei("ὁ:article λόγος:noun ὕδωρ:noun ὁ:article ἀνήρ:noun"),
	}
}

func testConfig(archivePath string) *model.Config {
	cfg := model.DefaultConfig()
	cfg.Corpus.Archive = archivePath
	cfg.Corpus.ExpectedTotal = 10
	cfg.Concurrency.Workers = 2
	cfg.Gloss.Workers = 2
	cfg.Gloss.MaxRetries = 1
	cfg.Gloss.Timeout = time.Second
	cfg.Gloss.Deadline = 10 * time.Second
	cfg.Cache.Enabled = false
	return cfg
}

func testPipeline(t *testing.T, cfg *model.Config, p gloss.Provider) *Pipeline {
	t.Helper()
	ref, err := compare.LoadReference("")
	if err != nil {
		t.Fatal(err)
	}
	return NewPipelineWithProvider(cfg, p, ref)
}

func TestAnalyze_ToyArchive(t *testing.T) {
	cfg := testConfig(writeZip(t, toyCorpus()))
	report, err := testPipeline(t, cfg, failingProvider{}).Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	s := report.Summary
	if s.Tokens != 10 || s.Documents != 2 || s.Entries != 2 {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.Lemmas != 4 || len(report.Ranked) != 4 {
		t.Errorf("expected 4 lemmas ranked, got %d / %d", s.Lemmas, len(report.Ranked))
	}
	if !s.IntegrityOK {
		t.Errorf("expected integrity ok, warnings %v", s.Warnings)
	}

	sum := 0
	lemmas := make(map[string]bool)
	for _, e := range report.Ranked {
		sum += e.Count
		lemmas[e.Lemma] = true
	}
	if sum != 10 {
		t.Errorf("ranked counts sum to %d, want 10", sum)
	}
	if report.Graph.Nodes > 4 {
		t.Errorf("graph has %d nodes, want at most 4", report.Graph.Nodes)
	}
	if len(report.Degrees) == 0 {
		t.Fatal("expected a non-empty degree ranking")
	}
	for _, d := range report.Degrees {
		if !lemmas[d.Lemma] {
			t.Errorf("degree entry %q is not a ranked lemma", d.Lemma)
		}
	}
}

func TestAnalyze_LookupAlwaysFails(t *testing.T) {
	cfg := testConfig(writeZip(t, toyCorpus()))
	report, err := testPipeline(t, cfg, failingProvider{}).Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(report.Nouns) != 3 {
		t.Fatalf("expected 3 corpus nouns, got %+v", report.Nouns)
	}
	for _, n := range report.Nouns {
		if n.Gloss != model.Unresolved {
			t.Errorf("expected %s unresolved, got %q", n.Display, n.Gloss)
		}
	}
	if report.Summary.LookupsFailed == 0 {
		t.Error("expected failed lookups in the summary")
	}
}

func TestAnalyze_SkipsMalformedDocument(t *testing.T) {
	files := toyCorpus()
	files["broken.xml"] = "<TEI.2><text><sentence><word"
	files["notes.txt"] = "ignored"

	cfg := testConfig(writeZip(t, files))
	report, err := testPipeline(t, cfg, nil).Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Summary.SkippedEntries != 1 || report.Summary.Documents != 2 {
		t.Errorf("unexpected summary %+v", report.Summary)
	}
	if report.Summary.Tokens != 10 {
		t.Errorf("expected 10 tokens, got %d", report.Summary.Tokens)
	}
}

func TestAnalyze_EmptyDocumentIsNotSkipped(t *testing.T) {
	files := toyCorpus()
	files["empty.xml"] = `<TEI.2><teiHeader><title>Fragmenta</title></teiHeader><text></text></TEI.2>`

	cfg := testConfig(writeZip(t, files))
	report, err := testPipeline(t, cfg, nil).Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Summary.SkippedEntries != 0 || report.Summary.Documents != 3 {
		t.Errorf("unexpected summary %+v", report.Summary)
	}
	if report.Summary.Tokens != 10 {
		t.Errorf("expected 10 tokens, got %d", report.Summary.Tokens)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		res  worker.DocumentResult
		want string
	}{
		{worker.DocumentResult{Name: "a.xml"}, "a.xml"},
		{worker.DocumentResult{Name: "a.xml", Title: "Ilias"}, "a.xml: Ilias"},
		{worker.DocumentResult{Name: "a.xml", Title: "Ilias", Author: "Homer"}, "a.xml: Homer, Ilias"},
	}
	for _, tt := range tests {
		if got := describe(&tt.res); got != tt.want {
			t.Errorf("describe(%+v) = %q, want %q", tt.res, got, tt.want)
		}
	}
}

func TestAnalyze_IntegrityMismatchIsWarning(t *testing.T) {
	cfg := testConfig(writeZip(t, toyCorpus()))
	cfg.Corpus.ExpectedTotal = 11

	report, err := testPipeline(t, cfg, nil).Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Summary.IntegrityOK {
		t.Error("expected integrity mismatch")
	}
	if len(report.Summary.Warnings) == 0 {
		t.Error("expected a warning for the mismatch")
	}
}

func TestAnalyze_UnreadableArchive(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing.zip"))
	_, err := testPipeline(t, cfg, nil).Analyze(context.Background())
	if !errors.Is(err, model.ErrArchiveUnreadable) {
		t.Fatalf("expected ErrArchiveUnreadable, got %v", err)
	}
}

func TestAnalyze_NoDocuments(t *testing.T) {
	cfg := testConfig(writeZip(t, map[string]string{"readme.txt": "nothing"}))
	_, err := testPipeline(t, cfg, nil).Analyze(context.Background())
	if !errors.Is(err, model.ErrArchiveUnreadable) {
		t.Fatalf("expected ErrArchiveUnreadable, got %v", err)
	}
}

func TestNewPipeline_MissingReference(t *testing.T) {
	cfg := testConfig("unused.zip")
	cfg.Reference.Path = filepath.Join(t.TempDir(), "nope.txt")
	if _, err := NewPipeline(cfg); !errors.Is(err, model.ErrReferenceListMissing) {
		t.Fatalf("expected ErrReferenceListMissing, got %v", err)
	}
}

func TestRenderReport(t *testing.T) {
	cfg := testConfig(writeZip(t, toyCorpus()))
	p := testPipeline(t, cfg, failingProvider{})
	report, err := p.Analyze(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	textPath := filepath.Join(dir, "out", "report.txt")
	jsonPath := filepath.Join(dir, "out", "report.json")
	if err := p.RenderReport(report, textPath, jsonPath); err != nil {
		t.Fatalf("RenderReport() error = %v", err)
	}

	text, err := os.ReadFile(textPath)
	if err != nil {
		t.Fatal(err)
	}
	out := string(text)
	last := -1
	for _, heading := range []string{"1. MOST FREQUENT", "2. BEST CONNECTED", "3. TOP NOUNS", "RUN SUMMARY", "Integrity: ✓"} {
		i := strings.Index(out, heading)
		if i <= last {
			t.Fatalf("heading %q missing or out of order in:\n%s", heading, out)
		}
		last = i
	}
	if !strings.Contains(out, model.Unresolved) {
		t.Error("expected unresolved glosses in the noun table")
	}

	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var decoded model.Report
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("invalid JSON report: %v", err)
	}
	if len(decoded.Ranked) != 4 || decoded.Summary.Tokens != 10 {
		t.Errorf("unexpected decoded report %+v", decoded.Summary)
	}
}

func TestIntegrityLine(t *testing.T) {
	tests := []struct {
		summary model.RunSummary
		want    string
	}{
		{model.RunSummary{Tokens: 5}, "no expected total"},
		{model.RunSummary{Tokens: 5, ExpectedTotal: 5, IntegrityOK: true}, "✓"},
		{model.RunSummary{Tokens: 4, ExpectedTotal: 5}, "difference -1"},
	}
	for _, tt := range tests {
		if got := IntegrityLine(tt.summary); !strings.Contains(got, tt.want) {
			t.Errorf("IntegrityLine(%+v) = %q, want it to contain %q", tt.summary, got, tt.want)
		}
	}
}
