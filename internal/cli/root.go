package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/lexigraph/internal/model"
)

// Version is set at build time with -ldflags "-X ...cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
	debug   bool
	silent  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lexigraph",
	Short: "Lexigraph - word frequency, co-occurrence and core vocabulary analysis of the Diorisis corpus",
	Long: `Lexigraph reads an annotated Ancient Greek corpus archive and reports:

- How closely lemma frequencies follow Zipf's law
- Which lemmas are best connected in the word adjacency graph
- How the best connected nouns compare with a core vocabulary list

Lexigraph only reads the archive; it never extracts it to disk.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setLogLevel()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Lexigraph.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lexigraph %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.lexigraph/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug output (every dropped token)")
	rootCmd.PersistentFlags().BoolVar(&silent, "silent", false, "only print errors")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

func setLogLevel() {
	switch {
	case silent:
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	case debug:
		gologger.DefaultLogger.SetMaxLevel(levels.LevelDebug)
	case verbose:
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	default:
		gologger.DefaultLogger.SetMaxLevel(levels.LevelInfo)
	}
}

// initConfig reads in .env, the config file and ENV variables
func initConfig() {
	// API keys usually live in .env
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".lexigraph"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match LEXIGRAPH_* (gloss.workers
	// becomes LEXIGRAPH_GLOSS_WORKERS)
	viper.SetEnvPrefix("LEXIGRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	registerDefaults()
	_ = viper.BindEnv("gloss.api_key", "LEXIGRAPH_API_KEY", "OPENAI_API_KEY")

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every configuration key known to viper, so
// AutomaticEnv can override keys that appear in no config file
func registerDefaults() {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	setDefaults("", tree)
}

func setDefaults(prefix string, tree map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			setDefaults(key, sub)
			continue
		}
		viper.SetDefault(key, v)
	}
}

// loadConfig merges defaults, the config file, environment and bound flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	return cfg, nil
}

// bindFlag binds a command flag to a configuration key
func bindFlag(cmd *cobra.Command, key, flag string) {
	_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
}
