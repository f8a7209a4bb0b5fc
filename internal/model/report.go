package model

import "time"

// Report is the complete lexigraph analysis result
type Report struct {
	Archive     string    `json:"archive"`
	GeneratedAt time.Time `json:"generated_at"`

	Ranked []RankedEntry `json:"ranked"` // top-K by frequency
	Fit    ZipfFit       `json:"fit"`

	Graph   GraphStats    `json:"graph"`
	Degrees []DegreeEntry `json:"degrees"` // top-M by degree

	Nouns      []GlossEntry      `json:"nouns"`
	Comparison *ComparisonResult `json:"comparison,omitempty"`

	Summary RunSummary `json:"summary"`
}

// RankedEntry is one row of the rank/frequency table
type RankedEntry struct {
	Lemma   string `json:"lemma"`
	Display string `json:"display,omitempty"`
	Count   int    `json:"count"`
	Rank    int    `json:"rank"`
	Product int    `json:"product"` // rank × count
}

// ZipfFit summarises how well the ranked counts follow Zipf's law
type ZipfFit struct {
	TopK          int      `json:"top_k"`
	Slope         float64  `json:"slope"`     // log-log least squares, ideal -1
	Intercept     float64  `json:"intercept"` // log(count) at rank 1
	RSquared      float64  `json:"r_squared"`
	ProductMean   float64  `json:"product_mean"`
	ProductCV     float64  `json:"product_cv"` // coefficient of variation of rank × count
	Quality       string   `json:"quality"`    // "good", "fair", "poor"
	Signals       []Signal `json:"signals"`
	InsufficientN bool     `json:"insufficient_n,omitempty"`
}

// Signal is a diagnostic with the data that produced it
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies a diagnostic signal
type SignalType string

const (
	SignalSlope           SignalType = "zipf_slope"
	SignalProductSpread   SignalType = "product_spread"
	SignalLinearity       SignalType = "log_linearity"
	SignalSmallVocabulary SignalType = "small_vocabulary"
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// GraphStats describes the connectivity graph
type GraphStats struct {
	Nodes       int     `json:"nodes"`
	Edges       int     `json:"edges"`
	TotalWeight int     `json:"total_weight"`
	Density     float64 `json:"density"`
}

// DegreeEntry is a node of the connectivity graph with its degree
type DegreeEntry struct {
	Lemma          string  `json:"lemma"`
	Display        string  `json:"display,omitempty"`
	Degree         int     `json:"degree"`
	WeightedDegree int     `json:"weighted_degree"`
	PageRank       float64 `json:"pagerank,omitempty"`
}

// Unresolved is the gloss text of an entry whose lookup failed
const Unresolved = "unresolved"

// GlossEntry is a high-degree noun with its resolved definition
type GlossEntry struct {
	Lemma    string `json:"lemma"`
	Display  string `json:"display"` // lemma as spelled in the corpus
	Degree   int    `json:"degree"`
	POS      string `json:"pos,omitempty"`
	Gloss    string `json:"gloss"`
	Source   string `json:"source,omitempty"` // provider that answered
	Resolved bool   `json:"resolved"`
	Concept  string `json:"concept,omitempty"` // matched reference concept
	Error    string `json:"error,omitempty"`
}

// ComparisonResult relates the top nouns to the reference core vocabulary
type ComparisonResult struct {
	ReferenceSize  int            `json:"reference_size"`
	Matches        []ConceptMatch `json:"matches"`
	Overlap        []string       `json:"overlap"`          // reference concepts covered by a top noun
	MissingFromTop []string       `json:"missing_from_top"` // reference concepts no top noun covers
	NotInReference []string       `json:"not_in_reference"` // resolved top nouns outside the reference list
	OverlapRatio   float64        `json:"overlap_ratio"`
	Unresolved     int            `json:"unresolved"`

	LookupsAttempted int `json:"lookups_attempted"`
	LookupsFailed    int `json:"lookups_failed"`
	LookupsSkipped   int `json:"lookups_skipped"`
}

// ConceptMatch pairs a lemma with the reference concept its gloss matched
type ConceptMatch struct {
	Lemma   string `json:"lemma"`
	Concept string `json:"concept"`
	Term    string `json:"term"` // gloss term that matched
}

// RunSummary aggregates every recoverable problem seen during a run
type RunSummary struct {
	Entries          int           `json:"entries"`
	Documents        int           `json:"documents"`
	SkippedEntries   int           `json:"skipped_entries"`
	SkippedTokens    int           `json:"skipped_tokens"`
	Tokens           int           `json:"tokens"`
	Lemmas           int           `json:"lemmas"`
	ExpectedTotal    int           `json:"expected_total,omitempty"`
	IntegrityOK      bool          `json:"integrity_ok"`
	LookupsAttempted int           `json:"lookups_attempted"`
	LookupsFailed    int           `json:"lookups_failed"`
	LookupsSkipped   int           `json:"lookups_skipped"` // not issued because the deadline passed
	Warnings         []string      `json:"warnings,omitempty"`
	Duration         time.Duration `json:"duration"`
}

// AddWarning records a non-fatal warning
func (s *RunSummary) AddWarning(msg string) {
	s.Warnings = append(s.Warnings, msg)
}
