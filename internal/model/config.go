package model

import (
	"runtime"
	"time"
)

// DiorisisTotalTokens is the published token count of the Diorisis Ancient Greek corpus
const DiorisisTotalTokens = 10206117

// Config is the complete lexigraph configuration
type Config struct {
	Corpus      CorpusConfig      `yaml:"corpus" mapstructure:"corpus"`
	Analysis    AnalysisConfig    `yaml:"analysis" mapstructure:"analysis"`
	Gloss       GlossConfig       `yaml:"gloss" mapstructure:"gloss"`
	Reference   ReferenceConfig   `yaml:"reference" mapstructure:"reference"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// CorpusConfig describes the input archive
type CorpusConfig struct {
	Archive         string `yaml:"archive" mapstructure:"archive"`
	ExpectedTotal   int    `yaml:"expected_total" mapstructure:"expected_total"` // 0 disables the integrity check
	StripDiacritics bool   `yaml:"strip_diacritics" mapstructure:"strip_diacritics"`
}

// AnalysisConfig controls ranking and graph sizes
type AnalysisConfig struct {
	Window     int `yaml:"window" mapstructure:"window"`           // symmetric co-occurrence window (±W)
	ReportTopK int `yaml:"report_top_k" mapstructure:"report_top_k"` // ranked rows in the report
	FitTopK    int `yaml:"fit_top_k" mapstructure:"fit_top_k"`       // ranks used for the Zipf fit
	GraphTopN  int `yaml:"graph_top_n" mapstructure:"graph_top_n"`   // most frequent lemmas that become graph nodes
	DegreeTopM int `yaml:"degree_top_m" mapstructure:"degree_top_m"` // degree rows in the report
	NounTop    int `yaml:"noun_top" mapstructure:"noun_top"`         // nouns compared against the reference list
}

// GlossConfig configures the external gloss lookup
type GlossConfig struct {
	Providers     []string      `yaml:"providers" mapstructure:"providers"` // tried in order: wiktionary, openai, ollama
	WiktionaryURL string        `yaml:"wiktionary_url" mapstructure:"wiktionary_url"`
	Language      string        `yaml:"language" mapstructure:"language"` // Wiktionary language code
	OpenAIModel   string        `yaml:"openai_model" mapstructure:"openai_model"`
	OpenAIBaseURL string        `yaml:"openai_base_url,omitempty" mapstructure:"openai_base_url"`
	OllamaURL     string        `yaml:"ollama_url" mapstructure:"ollama_url"`
	OllamaModel   string        `yaml:"ollama_model" mapstructure:"ollama_model"`
	APIKey        string        `yaml:"-" mapstructure:"api_key"`
	Workers       int           `yaml:"workers" mapstructure:"workers"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`   // per lookup
	Deadline      time.Duration `yaml:"deadline" mapstructure:"deadline"` // whole comparator
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	Disabled      bool          `yaml:"disabled" mapstructure:"disabled"`
}

// ReferenceConfig points at the core-vocabulary list
type ReferenceConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // empty uses the built-in Swadesh list
}

// HTTPConfig holds shared HTTP client settings
type HTTPConfig struct {
	UserAgent  string `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the gloss cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir,omitempty" mapstructure:"dir"` // empty keeps the cache in memory only
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig sizes the worker pools
type ConcurrencyConfig struct {
	Workers           int     `yaml:"workers" mapstructure:"workers"` // document parsing workers
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls report artifacts
type OutputConfig struct {
	ReportPath string `yaml:"report_path" mapstructure:"report_path"`
	JSONPath   string `yaml:"json_path,omitempty" mapstructure:"json_path"`
	Verbose    bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the configuration used when nothing else is set
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Archive:       "./Diorisis.zip",
			ExpectedTotal: DiorisisTotalTokens,
		},
		Analysis: AnalysisConfig{
			Window:     2,
			ReportTopK: 50,
			FitTopK:    2000,
			GraphTopN:  2000,
			DegreeTopM: 50,
			NounTop:    50,
		},
		Gloss: GlossConfig{
			Providers:     []string{"wiktionary"},
			WiktionaryURL: "https://en.wiktionary.org",
			Language:      "grc",
			OpenAIModel:   "gpt-4o-mini",
			OllamaURL:     "http://localhost:11434",
			OllamaModel:   "llama3.1:8b",
			Workers:       4,
			Timeout:       10 * time.Second,
			Deadline:      5 * time.Minute,
			MaxRetries:    3,
			RespectRobots: true,
		},
		HTTP: HTTPConfig{
			UserAgent: "Lexigraph/0.1 (+https://github.com/ppiankov/lexigraph)",
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:           runtime.NumCPU(),
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Output: OutputConfig{
			ReportPath: "report.txt",
		},
	}
}
