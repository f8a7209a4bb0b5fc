package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lexigraph/internal/model"
	"github.com/ppiankov/lexigraph/internal/pipeline"
)

var analyzeTimeout time.Duration

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [archive]",
	Short: "Analyze a corpus archive and write the report",
	Long: `Analyze streams every XML document of a corpus archive (.zip or .tar.gz,
local path or http(s) URL) and:
- Counts lemma frequencies and ±W co-occurrences within sentences
- Fits Zipf's law to the rank/frequency table
- Ranks the most frequent lemmas by connectivity in the adjacency graph
- Looks up glosses for the best connected nouns and compares them with a
  core vocabulary list (Swadesh-100 unless --reference is given)

Example:
  lexigraph analyze ./Diorisis.zip
  lexigraph analyze ./Diorisis.zip --out report.txt --json report.json
  lexigraph analyze ./Diorisis.zip --providers wiktionary,openai --noun-top 50
  lexigraph analyze ./Diorisis.zip --no-gloss`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	defaults := model.DefaultConfig()
	f := analyzeCmd.Flags()

	// Corpus flags
	f.Int("expected-total", defaults.Corpus.ExpectedTotal, "expected token total (0 disables the integrity check)")
	f.Bool("strip-diacritics", defaults.Corpus.StripDiacritics, "fold lemmas without accents and breathings")

	// Analysis flags
	f.Int("window", defaults.Analysis.Window, "co-occurrence window (±W tokens within a sentence)")
	f.Int("top", defaults.Analysis.ReportTopK, "ranked lemmas in the report")
	f.Int("fit-top", defaults.Analysis.FitTopK, "ranks used for the Zipf fit")
	f.Int("graph-top", defaults.Analysis.GraphTopN, "most frequent lemmas that become graph nodes")
	f.Int("degree-top", defaults.Analysis.DegreeTopM, "degree rows in the report")
	f.Int("noun-top", defaults.Analysis.NounTop, "nouns compared with the reference list")
	f.String("reference", defaults.Reference.Path, "core vocabulary list (default: built-in Swadesh-100)")

	// Gloss flags
	f.StringSlice("providers", defaults.Gloss.Providers, "gloss providers in order (wiktionary, openai, ollama)")
	f.Bool("no-gloss", defaults.Gloss.Disabled, "disable gloss lookups (corpus POS picks the nouns)")
	f.Int("gloss-workers", defaults.Gloss.Workers, "concurrent gloss lookups")
	f.Duration("gloss-deadline", defaults.Gloss.Deadline, "stop issuing gloss lookups after this long")
	f.Bool("no-cache", !defaults.Cache.Enabled, "disable the gloss cache")
	f.String("cache-dir", defaults.Cache.Dir, "persist the gloss cache in this directory")

	// Concurrency and HTTP flags
	f.Int("workers", defaults.Concurrency.Workers, "document parsing workers")
	f.String("ua", defaults.HTTP.UserAgent, "HTTP User-Agent")
	f.String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	f.String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// Output flags
	f.String("out", defaults.Output.ReportPath, "text report path")
	f.String("json", defaults.Output.JSONPath, "JSON report path (optional)")
	f.DurationVar(&analyzeTimeout, "timeout", 0, "overall timeout (0 means none)")
}

// analyzeBindings maps flags onto configuration keys
var analyzeBindings = map[string]string{
	"expected-total":   "corpus.expected_total",
	"strip-diacritics": "corpus.strip_diacritics",
	"window":           "analysis.window",
	"top":              "analysis.report_top_k",
	"fit-top":          "analysis.fit_top_k",
	"graph-top":        "analysis.graph_top_n",
	"degree-top":       "analysis.degree_top_m",
	"noun-top":         "analysis.noun_top",
	"reference":        "reference.path",
	"providers":        "gloss.providers",
	"no-gloss":         "gloss.disabled",
	"gloss-workers":    "gloss.workers",
	"gloss-deadline":   "gloss.deadline",
	"cache-dir":        "cache.dir",
	"workers":          "concurrency.workers",
	"ua":               "http.user_agent",
	"http-proxy":       "http.http_proxy",
	"https-proxy":      "http.https_proxy",
	"out":              "output.report_path",
	"json":             "output.json_path",
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	for flag, key := range analyzeBindings {
		bindFlag(cmd, key, flag)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Corpus.Archive = args[0]
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}

	ctx := context.Background()
	if analyzeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, analyzeTimeout)
		defer cancel()
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Lexigraph Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Archive:      %s\n", cfg.Corpus.Archive)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Window:       ±%d\n", cfg.Analysis.Window)
	if cfg.Gloss.Disabled {
		fmt.Fprintf(os.Stderr, "  Gloss:        disabled\n")
	} else {
		fmt.Fprintf(os.Stderr, "  Gloss:        %v (%d workers, deadline %v)\n", cfg.Gloss.Providers, cfg.Gloss.Workers, cfg.Gloss.Deadline)
	}
	fmt.Fprintf(os.Stderr, "\n")

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	report, err := p.Analyze(ctx)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	s := report.Summary
	fmt.Fprintf(os.Stderr, "✓ Read %d documents (%d skipped)\n", s.Documents, s.SkippedEntries)
	fmt.Fprintf(os.Stderr, "✓ Counted %d tokens over %d lemmas (%d dropped)\n", s.Tokens, s.Lemmas, s.SkippedTokens)
	fmt.Fprintf(os.Stderr, "✓ Zipf fit: slope %.3f, R² %.3f (%s)\n", report.Fit.Slope, report.Fit.RSquared, report.Fit.Quality)
	fmt.Fprintf(os.Stderr, "✓ Graph: %d nodes, %d edges\n", report.Graph.Nodes, report.Graph.Edges)
	if c := report.Comparison; c != nil {
		mark := "✓"
		if c.Unresolved > 0 {
			mark = "✗"
		}
		fmt.Fprintf(os.Stderr, "%s Compared %d nouns: %d of %d concepts covered, %d unresolved\n",
			mark, len(report.Nouns), len(c.Overlap), c.ReferenceSize, c.Unresolved)
	}
	fmt.Fprintf(os.Stderr, "%s\n", pipeline.IntegrityLine(s))

	if err := p.RenderReport(report, cfg.Output.ReportPath, cfg.Output.JSONPath); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Report:       %s\n", cfg.Output.ReportPath)
	if cfg.Output.JSONPath != "" {
		fmt.Fprintf(os.Stderr, "  JSON:         %s\n", cfg.Output.JSONPath)
	}
	fmt.Fprintf(os.Stderr, "  Duration:     %v\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
