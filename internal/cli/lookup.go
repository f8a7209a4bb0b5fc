package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lexigraph/internal/cache"
	"github.com/ppiankov/lexigraph/internal/compare"
	"github.com/ppiankov/lexigraph/internal/gloss"
)

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup <lemma>...",
	Short: "Look up glosses for lemmas",
	Long: `Lookup resolves English glosses for one or more lemmas with the configured
providers, using the same cache, rate limit and retry policy as analyze.
Noun glosses are matched against the reference list.

Example:
  lexigraph lookup λόγος ἀνήρ
  lexigraph lookup ὕδωρ --providers openai`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)

	lookupCmd.Flags().StringSlice("providers", nil, "gloss providers in order (wiktionary, openai, ollama)")
	lookupCmd.Flags().String("reference", "", "core vocabulary list (default: built-in Swadesh-100)")
}

func runLookup(cmd *cobra.Command, args []string) error {
	bindFlag(cmd, "gloss.providers", "providers")
	bindFlag(cmd, "reference.path", "reference")
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Gloss.Disabled = false

	ref, err := compare.LoadReference(cfg.Reference.Path)
	if err != nil {
		return err
	}

	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.New(cfg.Cache)
	}
	provider, err := gloss.NewProvider(cfg, c)
	if err != nil {
		return err
	}
	if provider == nil {
		return fmt.Errorf("no gloss providers configured")
	}

	ctx := context.Background()
	if cfg.Gloss.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Gloss.Deadline)
		defer cancel()
	}

	resolver := gloss.NewResolverFromConfig(provider, cfg.Gloss)
	failed := 0
	for _, res := range resolver.ResolveAll(ctx, args) {
		if !res.Resolved() {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Lemma, res.Err)
			continue
		}

		fmt.Printf("%s\n", res.Lemma)
		for _, def := range res.Definitions {
			concept := ""
			if def.IsNoun() {
				for _, term := range compare.HeadTerms(def.Text) {
					if name, ok := ref.Match(term); ok {
						concept = fmt.Sprintf("  [core: %s]", name)
						break
					}
				}
			}
			fmt.Printf("  %-10s %s (%s)%s\n", def.POS, def.Text, def.Source, concept)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d lookups failed", failed, len(args))
	}
	return nil
}
