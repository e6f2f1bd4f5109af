package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/corpusmill/corpusmill/internal/llm"
	"github.com/corpusmill/corpusmill/internal/logger"
	"github.com/corpusmill/corpusmill/internal/qagen"
	"github.com/corpusmill/corpusmill/internal/rundir"
)

var generateCmd = &cobra.Command{
	Use:   "generate <run-dir>",
	Short: "Generate QA pairs from tagged blocks",
	Long: `Generate question-answer training pairs from the tagged blocks of
a run, batching blocks per page and submitting each batch to an LLM.

The provider is picked from --provider or auto-detected from the
available API keys (GROQ_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY).

Examples:
  corpusmill generate data/runs/run_2025-12-22_21-11-29_e1b874

  # Restrict generation to specific roles
  corpusmill generate data/runs/run_... --roles descriptive,procedural`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	flags := generateCmd.Flags()
	flags.StringP("provider", "p", "", "LLM provider: groq, openai, anthropic (auto-detects from env vars)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.String("base-url", "", "custom API base URL")
	flags.Duration("llm-timeout", 120*time.Second, "per-request LLM timeout")
	flags.StringSlice("roles", nil, "roles to generate from (default descriptive,procedural,temporal,transactional)")
	flags.Int("max-attempts", 5, "attempts per batch before abandoning it")

}

// flagOrConfig prefers an explicitly set command flag over the viper
// config/env value. The generate and run commands share these keys.
func flagOrConfig(cmd *cobra.Command, flag, key string) string {
	if v, err := cmd.Flags().GetString(flag); err == nil && v != "" {
		return v
	}
	return viper.GetString(key)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dir := args[0]
	if err := rundir.Validate(dir); err != nil {
		logger.Error("invalid run directory", "error", err)
		return err
	}

	client, err := buildClient(cmd)
	if err != nil {
		return err
	}

	roles, _ := cmd.Flags().GetStringSlice("roles")
	return generateInto(ctx, dir, client, roles)
}

// buildClient assembles the retrying LLM client from flags, config, and
// environment. A missing API key is a configuration error, not a
// generation failure.
func buildClient(cmd *cobra.Command) (*llm.Client, error) {
	providerName := flagOrConfig(cmd, "provider", "provider")
	apiKey := flagOrConfig(cmd, "api-key", "api_key")

	if providerName == "" {
		detected, detectedKey := llm.DetectProvider()
		if detected == "" {
			logger.Error("no API key found - set GROQ_API_KEY, OPENAI_API_KEY, or ANTHROPIC_API_KEY")
			return nil, fmt.Errorf("no LLM provider configured")
		}
		providerName = detected
		if apiKey == "" {
			apiKey = detectedKey
		}
	}
	if apiKey == "" {
		logger.Error("no API key for provider", "provider", providerName)
		return nil, fmt.Errorf("missing API key for provider %s", providerName)
	}

	cfg := llm.DefaultProviderConfig()
	cfg.APIKey = apiKey
	cfg.Model = flagOrConfig(cmd, "model", "model")
	cfg.BaseURL = flagOrConfig(cmd, "base-url", "base_url")
	if timeout, err := cmd.Flags().GetDuration("llm-timeout"); err == nil && timeout > 0 {
		cfg.Timeout = timeout
	}

	provider, err := llm.NewProvider(providerName, cfg)
	if err != nil {
		logger.Error("failed to create provider", "error", err)
		return nil, err
	}
	logger.Info("provider ready", "provider", provider.Name(), "model", cfg.Model)

	clientCfg := llm.DefaultClientConfig()
	if attempts, err := cmd.Flags().GetInt("max-attempts"); err == nil && attempts > 0 {
		clientCfg.MaxAttempts = attempts
	}

	return llm.NewClient(provider, clientCfg), nil
}

// generateInto runs the generation stage and records it in the manifest.
func generateInto(ctx context.Context, dir string, client *llm.Client, roles []string) error {
	summary, err := qagen.Run(ctx, dir, client, qagen.Options{
		Roles:       roles,
		ExactTokens: true,
	})
	if err != nil {
		logger.Error("generation failed", "error", err)
		return err
	}

	if info, statErr := os.Stat(summary.OutputPath); statErr == nil {
		logger.Info("training data written",
			"pairs", summary.PairsOut,
			"size", humanize.Bytes(uint64(info.Size())),
			"path", summary.OutputPath)
	}

	manifest, err := rundir.LoadManifest(dir)
	if err != nil {
		return err
	}
	return manifest.RecordStage(dir, "generate", summary.BlocksIn, summary.PairsOut, summary.OutputPath)
}
