package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/ppiankov/lexigraph/internal/model"
)

// Renderer writes reports as text tables or JSON
type Renderer struct{}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// WriteText renders the text report to path
func (r *Renderer) WriteText(report *model.Report, path string) error {
	var buf bytes.Buffer
	if err := r.RenderText(report, &buf); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

// WriteJSON renders the JSON report to path
func (r *Renderer) WriteJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderText writes the three report sections in order (ranked lemmas,
// degree ranking, noun comparison) followed by the run summary
func (r *Renderer) RenderText(report *model.Report, w io.Writer) (err error) {
	printf := func(format string, a ...any) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, format, a...)
	}

	printf("LEXIGRAPH REPORT\n")
	printf("Archive:   %s\n", report.Archive)
	printf("Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	// 1. Rank / frequency
	printf("1. MOST FREQUENT LEMMAS (top %d)\n\n", len(report.Ranked))
	if err != nil {
		return err
	}
	ranked := newTable(w, []string{"Rank", "Lemma", "Count", "Rank × Count"})
	for _, e := range report.Ranked {
		ranked.Append([]string{strconv.Itoa(e.Rank), label(e.Lemma, e.Display), strconv.Itoa(e.Count), strconv.Itoa(e.Product)})
	}
	ranked.Render()

	fit := report.Fit
	printf("\nZipf fit over top %d: slope %.3f, R² %.3f, rank × count mean %.1f (CV %.3f), quality %s\n",
		fit.TopK, fit.Slope, fit.RSquared, fit.ProductMean, fit.ProductCV, fit.Quality)
	for _, s := range fit.Signals {
		printf("  [%s] %s\n", s.Severity, s.Description)
	}

	// 2. Degree ranking
	printf("\n2. BEST CONNECTED LEMMAS (top %d by degree)\n\n", len(report.Degrees))
	printf("Graph: %d nodes, %d edges, total weight %d, density %.4f\n\n",
		report.Graph.Nodes, report.Graph.Edges, report.Graph.TotalWeight, report.Graph.Density)
	if err != nil {
		return err
	}
	degrees := newTable(w, []string{"#", "Lemma", "Degree", "Weighted", "PageRank"})
	for i, d := range report.Degrees {
		degrees.Append([]string{strconv.Itoa(i + 1), label(d.Lemma, d.Display), strconv.Itoa(d.Degree),
			strconv.Itoa(d.WeightedDegree), strconv.FormatFloat(d.PageRank, 'f', 5, 64)})
	}
	degrees.Render()

	// 3. Noun comparison
	printf("\n3. TOP NOUNS AGAINST THE CORE VOCABULARY (%d nouns)\n\n", len(report.Nouns))
	if err != nil {
		return err
	}
	nouns := newTable(w, []string{"#", "Lemma", "Degree", "Gloss", "Concept"})
	for i, n := range report.Nouns {
		nouns.Append([]string{strconv.Itoa(i + 1), n.Display, strconv.Itoa(n.Degree), shorten(n.Gloss, 60), n.Concept})
	}
	nouns.Render()

	if c := report.Comparison; c != nil {
		printf("\nOverlap: %d of %d reference concepts (%.1f%%), %d unresolved\n",
			len(c.Overlap), c.ReferenceSize, c.OverlapRatio*100, c.Unresolved)
		printf("Covered:          %s\n", joinOrDash(c.Overlap))
		printf("Missing from top: %s\n", joinOrDash(c.MissingFromTop))
		printf("Not in reference: %s\n", joinOrDash(c.NotInReference))
	}

	// Run summary
	s := report.Summary
	printf("\nRUN SUMMARY\n\n")
	printf("  Entries:          %d (%d documents, %d skipped)\n", s.Entries, s.Documents, s.SkippedEntries)
	printf("  Tokens:           %d (%d dropped)\n", s.Tokens, s.SkippedTokens)
	printf("  Lemmas:           %d\n", s.Lemmas)
	printf("  Gloss lookups:    %d attempted, %d failed, %d skipped\n", s.LookupsAttempted, s.LookupsFailed, s.LookupsSkipped)
	printf("  Duration:         %s\n", s.Duration.Round(time.Millisecond))
	printf("  %s\n", IntegrityLine(s))
	for _, warning := range s.Warnings {
		printf("  ⚠ %s\n", warning)
	}
	return err
}

// IntegrityLine describes the token total check
func IntegrityLine(s model.RunSummary) string {
	switch {
	case s.ExpectedTotal <= 0:
		return fmt.Sprintf("Integrity: %d tokens (no expected total configured)", s.Tokens)
	case s.IntegrityOK:
		return fmt.Sprintf("Integrity: ✓ %d tokens match the expected total", s.Tokens)
	default:
		return fmt.Sprintf("Integrity: ✗ %d tokens, expected %d (difference %+d)", s.Tokens, s.ExpectedTotal, s.Tokens-s.ExpectedTotal)
	}
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func label(lemma, display string) string {
	if display == "" {
		return lemma
	}
	return display
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
