package rankfit

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/lexigraph/internal/model"
)

// Counts is the read side of a frequency table
type Counts interface {
	Each(fn func(lemma string, count int))
}

// Rank orders every lemma by count descending, ties broken by lemma byte
// order ascending, and assigns ranks 1..n
func Rank(table Counts) []model.RankedEntry {
	var entries []model.RankedEntry
	table.Each(func(lemma string, count int) {
		entries = append(entries, model.RankedEntry{Lemma: lemma, Count: count})
	})

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Lemma < entries[j].Lemma
	})

	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].Product = entries[i].Rank * entries[i].Count
	}
	return entries
}

// Top returns the first k entries, or all of them when k <= 0
func Top(entries []model.RankedEntry, k int) []model.RankedEntry {
	if k <= 0 || k >= len(entries) {
		return entries
	}
	return entries[:k]
}

// minFitPoints is the smallest head that gives a meaningful regression
const minFitPoints = 3

// Fitter measures how closely ranked counts follow Zipf's law
type Fitter struct {
	// SlopeTolerance bounds |slope + 1| for an info-level slope signal
	SlopeTolerance float64
	// SpreadTolerance bounds the product coefficient of variation
	SpreadTolerance float64
	// MinRSquared is the log-log linearity expected of a good fit
	MinRSquared float64
}

// NewFitter creates a fitter with default tolerances
func NewFitter() *Fitter {
	return &Fitter{
		SlopeTolerance:  0.15,
		SpreadTolerance: 0.25,
		MinRSquared:     0.95,
	}
}

// Fit analyses the first topK ranked entries and explains the verdict with
// signals
func (f *Fitter) Fit(entries []model.RankedEntry, topK int) model.ZipfFit {
	head := Top(entries, topK)
	fit := model.ZipfFit{TopK: len(head)}

	if len(head) < minFitPoints {
		fit.InsufficientN = true
		fit.Quality = "insufficient"
		fit.Signals = append(fit.Signals, model.Signal{
			Type:        model.SignalSmallVocabulary,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("Only %d ranked lemmas, at least %d needed for a fit", len(head), minFitPoints),
			Data:        map[string]interface{}{"lemmas": len(head), "required": minFitPoints},
		})
		return fit
	}

	// 1. Log-log regression
	fit.Slope, fit.Intercept, fit.RSquared = regress(head)
	fit.Signals = append(fit.Signals, f.slopeSignal(fit.Slope))
	fit.Signals = append(fit.Signals, f.linearitySignal(fit.RSquared))

	// 2. Product stability
	fit.ProductMean, fit.ProductCV = productStats(head)
	fit.Signals = append(fit.Signals, f.spreadSignal(fit.ProductMean, fit.ProductCV))

	fit.Quality = determineQuality(fit.Signals)
	return fit
}

// regress fits ln(count) = intercept + slope × ln(rank)
func regress(entries []model.RankedEntry) (slope, intercept, r2 float64) {
	n := float64(len(entries))
	var sx, sy float64
	for _, e := range entries {
		sx += math.Log(float64(e.Rank))
		sy += math.Log(float64(e.Count))
	}
	mx, my := sx/n, sy/n

	var sxx, sxy, syy float64
	for _, e := range entries {
		dx := math.Log(float64(e.Rank)) - mx
		dy := math.Log(float64(e.Count)) - my
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 {
		return 0, my, 0
	}

	slope = sxy / sxx
	intercept = my - slope*mx
	if syy == 0 {
		// flat counts: the line is exact but explains nothing
		return slope, intercept, 0
	}
	r2 = (sxy * sxy) / (sxx * syy)
	return slope, intercept, r2
}

func productStats(entries []model.RankedEntry) (mean, cv float64) {
	n := float64(len(entries))
	for _, e := range entries {
		mean += float64(e.Product)
	}
	mean /= n

	var variance float64
	for _, e := range entries {
		d := float64(e.Product) - mean
		variance += d * d
	}
	variance /= n

	if mean == 0 {
		return 0, 0
	}
	return mean, math.Sqrt(variance) / mean
}

func (f *Fitter) slopeSignal(slope float64) model.Signal {
	deviation := math.Abs(slope + 1)

	severity := model.SeverityInfo
	if deviation > 2*f.SlopeTolerance {
		severity = model.SeverityCritical
	} else if deviation > f.SlopeTolerance {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalSlope,
		Severity:    severity,
		Description: fmt.Sprintf("Log-log slope: %.3f (ideal -1)", slope),
		Data: map[string]interface{}{
			"slope":     slope,
			"deviation": deviation,
			"tolerance": f.SlopeTolerance,
			"formula":   "least squares of ln(count) on ln(rank)",
		},
	}
}

func (f *Fitter) linearitySignal(r2 float64) model.Signal {
	severity := model.SeverityInfo
	if r2 < f.MinRSquared-0.1 {
		severity = model.SeverityCritical
	} else if r2 < f.MinRSquared {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalLinearity,
		Severity:    severity,
		Description: fmt.Sprintf("Log-log R²: %.3f", r2),
		Data: map[string]interface{}{
			"r_squared": r2,
			"minimum":   f.MinRSquared,
		},
	}
}

func (f *Fitter) spreadSignal(mean, cv float64) model.Signal {
	severity := model.SeverityInfo
	if cv > 2*f.SpreadTolerance {
		severity = model.SeverityCritical
	} else if cv > f.SpreadTolerance {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalProductSpread,
		Severity:    severity,
		Description: fmt.Sprintf("Rank × count mean %.0f, variation %.1f%%", mean, cv*100),
		Data: map[string]interface{}{
			"mean":      mean,
			"cv":        cv,
			"tolerance": f.SpreadTolerance,
			"formula":   "stddev(rank*count) / mean(rank*count)",
		},
	}
}

// determineQuality grades the fit by its worst signal
func determineQuality(signals []model.Signal) string {
	worst := model.SeverityInfo
	for _, s := range signals {
		switch s.Severity {
		case model.SeverityCritical:
			return "poor"
		case model.SeverityWarning:
			worst = model.SeverityWarning
		}
	}
	if worst == model.SeverityWarning {
		return "fair"
	}
	return "good"
}
