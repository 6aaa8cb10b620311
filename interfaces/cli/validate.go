package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	infraconfig "github.com/felixgeelhaar/toolplan/infrastructure/config"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	configPath string
	strict     bool
	showSchema bool
}

func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a planner configuration file for correctness.

This command checks:
  - File format (YAML or JSON) and unknown fields
  - Search limits, probability ranges and durations
  - Provider, cache backend and exporter names
  - Environment variable references (in strict mode)

Examples:
  # Validate a configuration file
  toolplan validate -c toolplan.yaml

  # Strict validation (fail on missing env vars)
  toolplan validate -c toolplan.yaml --strict

  # Show the JSON schema for configuration
  toolplan validate --schema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showSchema {
				return a.showConfigSchema()
			}
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")
	cmd.Flags().BoolVar(&opts.showSchema, "schema", false, "Show JSON schema for configuration")

	return cmd
}

func (a *App) validateConfig(opts *validateOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	loader := infraconfig.NewLoader(infraconfig.WithStrictEnv(opts.strict))
	cfg, err := loader.LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := infraconfig.NewBuilder(cfg, a.stderr).Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, _ = fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	_, _ = fmt.Fprintf(a.stdout, "  Name: %s\n", cfg.Name)
	_, _ = fmt.Fprintf(a.stdout, "  Version: %s\n", cfg.Version)

	_, _ = fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	s := cfg.Search
	_, _ = fmt.Fprintf(a.stdout, "  Search: top_k=%d max_args=%d max_expansions=%d timeout=%s concurrency=%d\n",
		s.TopK, s.MaxArgCandidates, s.MaxExpansions, s.Timeout.Duration(), s.Concurrency)

	if infraconfig.Offline(cfg) {
		_, _ = fmt.Fprintf(a.stdout, "  Oracle: offline (fallback only)\n")
	} else {
		_, _ = fmt.Fprintf(a.stdout, "  Oracle: %s %s (attempts=%d, breaker=%d)\n",
			cfg.Oracle.Provider, cfg.Oracle.Model, cfg.Oracle.Retry.MaxAttempts, cfg.Oracle.CircuitBreaker.Threshold)
	}
	_, _ = fmt.Fprintf(a.stdout, "  Fallback: seed=%d p=[%.2f, %.2f]\n",
		cfg.Fallback.Seed, cfg.Fallback.MinProbability, cfg.Fallback.MaxProbability)

	if cfg.Cache.Enabled {
		_, _ = fmt.Fprintf(a.stdout, "  Cache: %s (ttl=%s)\n", cfg.Cache.Backend, cfg.Cache.TTL.Duration())
	}
	if cfg.Telemetry.Enabled {
		_, _ = fmt.Fprintf(a.stdout, "  Telemetry: %s exporter\n", cfg.Telemetry.Exporter)
	}
	return nil
}

func (a *App) showConfigSchema() error {
	schemaJSON, err := infraconfig.SchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	_, _ = fmt.Fprintln(a.stdout, schemaJSON)
	return nil
}
