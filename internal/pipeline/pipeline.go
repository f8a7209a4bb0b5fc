package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/projectdiscovery/gologger"

	"github.com/ppiankov/lexigraph/internal/aggregate"
	"github.com/ppiankov/lexigraph/internal/archive"
	"github.com/ppiankov/lexigraph/internal/cache"
	"github.com/ppiankov/lexigraph/internal/compare"
	"github.com/ppiankov/lexigraph/internal/extract"
	"github.com/ppiankov/lexigraph/internal/gloss"
	"github.com/ppiankov/lexigraph/internal/graph"
	"github.com/ppiankov/lexigraph/internal/model"
	"github.com/ppiankov/lexigraph/internal/rankfit"
	"github.com/ppiankov/lexigraph/internal/util"
	"github.com/ppiankov/lexigraph/internal/worker"
)

// Pipeline orchestrates the complete analysis of one corpus archive
type Pipeline struct {
	config     *model.Config
	fitter     *rankfit.Fitter
	comparator *compare.Comparator
	fetcher    *Fetcher
	renderer   *Renderer

	normalizers sync.Pool
}

// NewPipeline creates a pipeline from cfg. The reference list is loaded and
// the gloss providers are built up front, so a missing list fails early.
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	ref, err := compare.LoadReference(cfg.Reference.Path)
	if err != nil {
		return nil, err
	}

	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.New(cfg.Cache)
	}
	provider, err := gloss.NewProvider(cfg, c)
	if err != nil {
		return nil, fmt.Errorf("gloss provider: %w", err)
	}

	return NewPipelineWithProvider(cfg, provider, ref), nil
}

// NewPipelineWithProvider creates a pipeline around an existing gloss
// provider. A nil provider disables gloss lookups.
func NewPipelineWithProvider(cfg *model.Config, provider gloss.Provider, ref *compare.Reference) *Pipeline {
	var resolver *gloss.Resolver
	if provider != nil {
		resolver = gloss.NewResolverFromConfig(provider, cfg.Gloss)
	}

	p := &Pipeline{
		config:     cfg,
		fitter:     rankfit.NewFitter(),
		comparator: compare.NewComparator(resolver, ref, cfg.Analysis.NounTop, cfg.Gloss.Deadline),
		fetcher:    NewFetcher(util.NewHTTPClient(cfg.HTTP, 0), cfg.HTTP.UserAgent),
		renderer:   NewRenderer(),
	}
	p.normalizers.New = func() any {
		return extract.NewNormalizer(cfg.Corpus.StripDiacritics)
	}
	return p
}

// Analyze runs every stage over the configured archive and returns the report
func (p *Pipeline) Analyze(ctx context.Context) (*model.Report, error) {
	start := time.Now()
	cfg := p.config

	location, err := p.localArchive(ctx, cfg.Corpus.Archive)
	if err != nil {
		return nil, err
	}

	// 1. Read, tokenize and aggregate documents concurrently
	reader, err := archive.Open(location)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()
	if n := reader.Len(); n >= 0 {
		gologger.Info().Msgf("Reading %d archive entries from %s", n, reader.Path())
	} else {
		gologger.Info().Msgf("Streaming archive entries from %s", reader.Path())
	}

	report := &model.Report{Archive: cfg.Corpus.Archive}
	summary := &report.Summary

	total := aggregate.NewAccumulator(cfg.Analysis.Window)
	batch := worker.NewDocumentBatch(p, cfg.Concurrency.Workers)
	entries, srcErr := batch.Run(ctx, reader, func(res *worker.DocumentResult) {
		if res.Error != nil {
			summary.SkippedEntries++
			gologger.Warning().Msgf("Skipping %s: %v", res.Name, res.Error)
			return
		}
		total.Merge(res.Partial)
		summary.Documents++
		summary.SkippedTokens += res.Skipped
		gologger.Verbose().Msgf("Read %s (%d tokens)", describe(res), res.Tokens)
	})
	summary.Entries = entries

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}
	if srcErr != nil {
		if entries == 0 {
			return nil, srcErr
		}
		summary.AddWarning(fmt.Sprintf("archive truncated after %d entries: %v", entries, srcErr))
		gologger.Warning().Msgf("Archive truncated after %d entries: %v", entries, srcErr)
	}
	if entries == 0 {
		return nil, fmt.Errorf("%w: %s: no XML documents", model.ErrArchiveUnreadable, cfg.Corpus.Archive)
	}

	freq, neighbors := total.Finalize()
	summary.Tokens = freq.Total()
	summary.Lemmas = freq.Len()
	gologger.Info().Msgf("Aggregated %d tokens over %d lemmas from %d documents", summary.Tokens, summary.Lemmas, summary.Documents)
	gologger.Verbose().Msgf("%d lemmas have co-occurrences within ±%d", neighbors.Len(), cfg.Analysis.Window)
	if !neighbors.Symmetric() {
		summary.AddWarning("co-occurrence table is not symmetric")
		gologger.Warning().Msg("Co-occurrence table is not symmetric")
	}

	// 2. Rank and fit
	ranked := rankfit.Rank(freq)
	report.Ranked = rankfit.Top(ranked, cfg.Analysis.ReportTopK)
	for i := range report.Ranked {
		report.Ranked[i].Display = freq.Display(report.Ranked[i].Lemma)
	}
	report.Fit = p.fitter.Fit(ranked, cfg.Analysis.FitTopK)

	// 3. Connectivity graph
	g := graph.Build(ranked, cfg.Analysis.GraphTopN, neighbors)
	degrees := graph.Degrees(g)
	report.Graph = g.Stats()
	report.Degrees = topDegrees(degrees, cfg.Analysis.DegreeTopM)
	for i := range report.Degrees {
		report.Degrees[i].Display = freq.Display(report.Degrees[i].Lemma)
	}
	gologger.Info().Msgf("Built graph with %d nodes and %d edges", report.Graph.Nodes, report.Graph.Edges)

	// 4. Core vocabulary comparison
	comparison, nouns := p.comparator.Compare(ctx, degrees, freq.POS, freq.Display)
	report.Comparison = comparison
	report.Nouns = nouns
	summary.LookupsAttempted = comparison.LookupsAttempted
	summary.LookupsFailed = comparison.LookupsFailed
	summary.LookupsSkipped = comparison.LookupsSkipped
	if comparison.LookupsSkipped > 0 {
		summary.AddWarning(fmt.Sprintf("%d gloss lookups skipped after the deadline", comparison.LookupsSkipped))
	}

	// 5. Integrity
	summary.ExpectedTotal = cfg.Corpus.ExpectedTotal
	summary.IntegrityOK = true
	if err := aggregate.CheckIntegrity(summary.Tokens, cfg.Corpus.ExpectedTotal); err != nil {
		summary.IntegrityOK = false
		summary.AddWarning(err.Error())
		gologger.Warning().Msgf("%v", err)
	}

	report.GeneratedAt = time.Now().UTC()
	summary.Duration = time.Since(start)
	return report, nil
}

// ProcessEntry parses one archive entry into a partial aggregate. It runs on
// the document workers.
func (p *Pipeline) ProcessEntry(ctx context.Context, entry *archive.Entry) *worker.DocumentResult {
	result := &worker.DocumentResult{Name: entry.Name}
	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	doc, err := archive.ReadDocument(entry)
	if err != nil {
		result.Error = err
		return result
	}
	result.Title = doc.Title
	result.Author = doc.Author

	normalizer := p.normalizers.Get().(*extract.Normalizer)
	defer p.normalizers.Put(normalizer)

	extractor := extract.NewExtractor(normalizer)
	extractor.OnDrop = func(err error) {
		gologger.Debug().Msgf("%v", err)
	}

	acc := aggregate.NewAccumulator(p.config.Analysis.Window)
	result.Tokens = acc.Consume(extractor.Tokens(doc))
	result.Skipped = extractor.Skipped()
	result.Partial = acc
	return result
}

// describe names a document for progress logs
func describe(res *worker.DocumentResult) string {
	switch {
	case res.Title != "" && res.Author != "":
		return fmt.Sprintf("%s: %s, %s", res.Name, res.Author, res.Title)
	case res.Title != "":
		return fmt.Sprintf("%s: %s", res.Name, res.Title)
	}
	return res.Name
}

// localArchive downloads a remote archive into the cache directory, or
// returns a local path unchanged
func (p *Pipeline) localArchive(ctx context.Context, location string) (string, error) {
	if !IsRemote(location) {
		return location, nil
	}

	dir := p.config.Cache.Dir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "lexigraph")
	}
	gologger.Info().Msgf("Downloading %s", location)
	path, err := p.fetcher.Download(ctx, location, dir)
	if err != nil {
		return "", err
	}
	return path, nil
}

// RenderReport writes the text report and, when jsonPath is set, the JSON
// report
func (p *Pipeline) RenderReport(report *model.Report, textPath, jsonPath string) error {
	var errs []error
	if textPath != "" {
		if err := p.renderer.WriteText(report, textPath); err != nil {
			errs = append(errs, fmt.Errorf("render text: %w", err))
		}
	}
	if jsonPath != "" {
		if err := p.renderer.WriteJSON(report, jsonPath); err != nil {
			errs = append(errs, fmt.Errorf("render JSON: %w", err))
		}
	}
	return errors.Join(errs...)
}

func topDegrees(degrees []model.DegreeEntry, m int) []model.DegreeEntry {
	if m <= 0 || m >= len(degrees) {
		return append([]model.DegreeEntry(nil), degrees...)
	}
	return append([]model.DegreeEntry(nil), degrees[:m]...)
}
