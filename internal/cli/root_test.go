package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfig_Hierarchy(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "analysis:\n  window: 3\ngloss:\n  timeout: 30s\n  workers: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgFile = path
	defer func() { cfgFile = "" }()

	t.Setenv("LEXIGRAPH_GLOSS_WORKERS", "7")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	initConfig()
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Analysis.Window != 3 {
		t.Errorf("window from file: got %d", cfg.Analysis.Window)
	}
	if cfg.Gloss.Timeout != 30*time.Second {
		t.Errorf("timeout from file: got %v", cfg.Gloss.Timeout)
	}
	if cfg.Gloss.Workers != 7 {
		t.Errorf("environment should override the file: got %d workers", cfg.Gloss.Workers)
	}
	if cfg.Gloss.APIKey != "sk-test" {
		t.Errorf("api key from environment: got %q", cfg.Gloss.APIKey)
	}
	if cfg.Analysis.ReportTopK != 50 || cfg.Gloss.Language != "grc" {
		t.Errorf("defaults lost: %+v", cfg.Analysis)
	}
}
