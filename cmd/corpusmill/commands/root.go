// Package commands implements the CLI commands for corpusmill.
package commands

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/corpusmill/corpusmill/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "corpusmill",
	Short: "Website-to-QA training data pipeline",
	Long: `Corpusmill turns a website into QA training data through five
stages: crawl, clean, slice, tag, and generate. Each stage reads the
previous stage's output from a run directory and writes its own.

Examples:
  # Run the whole pipeline against a site
  corpusmill run --url "https://example.com" --max-pages 50

  # Or drive the stages one at a time
  corpusmill crawl --url "https://example.com"
  corpusmill clean data/runs/run_2025-12-22_21-11-29_e1b874
  corpusmill slice data/runs/run_2025-12-22_21-11-29_e1b874
  corpusmill tag data/runs/run_2025-12-22_21-11-29_e1b874
  corpusmill generate data/runs/run_2025-12-22_21-11-29_e1b874`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.corpusmill.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().Bool("json-logs", false, "emit logs as JSON")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("json_logs", rootCmd.PersistentFlags().Lookup("json-logs"))
}

func initConfig() {
	// A .env in the working directory is the easiest place for API keys.
	_ = godotenv.Load()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".corpusmill")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("CORPUSMILL")
	viper.AutomaticEnv()

	// Also check common API key env vars
	_ = viper.BindEnv("api_key", "GROQ_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// initLogger applies the global logging flags. Each RunE calls it first.
func initLogger() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("json_logs"),
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
