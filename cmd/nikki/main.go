package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/nikki/internal/config"
	"github.com/user/nikki/internal/esa"
	"github.com/user/nikki/internal/pipeline"
	"github.com/user/nikki/internal/slack"
	"github.com/user/nikki/internal/state"
	"github.com/user/nikki/internal/types"
	"github.com/user/nikki/internal/window"
)

var (
	cfgPath string
	envPath string
	dryRun  bool
	runDate string
)

var rootCmd = &cobra.Command{
	Use:           "nikki",
	Short:         "Publish yesterday's Slack channel log to esa as a daily diary post",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOnce,
}

func init() {
	defaultCfg := os.Getenv("NIKKI_CONFIG")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultCfg, "JSON config file path")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the document instead of publishing it")
	rootCmd.Flags().StringVar(&runDate, "date", "", "aggregate this JST date (YYYY-MM-DD) instead of yesterday")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// readConfig reads .env, the config file and the environment without
// validating credentials.
func readConfig() (*config.Config, error) {
	if err := config.LoadEnvFile(envPath); err != nil {
		return nil, err
	}
	return config.Load(cfgPath)
}

// loadConfig is readConfig plus validation. No network call is made before
// this succeeds.
func loadConfig() (*config.Config, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// newPipeline wires the Slack source and pub according to cfg, recording
// runs in the ledger under the data dir.
func newPipeline(cfg *config.Config, pub types.Publisher) (*pipeline.Pipeline, *state.RunStore) {
	source := slack.New(cfg.Slack.Token,
		slack.WithBaseURL(cfg.Slack.BaseURL),
		slack.WithTimeout(cfg.Timeout()),
		slack.WithPagination(cfg.Slack.Paginate),
		slack.WithLimit(cfg.Slack.PageLimit),
	)
	runs := state.NewRunStore(cfg.DataDir)

	opts := []pipeline.Option{
		pipeline.WithChannel(cfg.Slack.Channel),
		pipeline.WithRunStore(runs),
		pipeline.WithDryRun(dryRun),
	}
	if cfg.SkipMalformed {
		opts = append(opts, pipeline.WithBucketOptions(window.SkipMalformed(slog.Default())))
	}
	return pipeline.New(source, pub, opts...), runs
}

func newPublisher(cfg *config.Config, out io.Writer) types.Publisher {
	if dryRun {
		return esa.NewPrinter(out)
	}
	return esa.New(cfg.Esa.Token, cfg.Esa.Team,
		esa.WithBaseURL(cfg.Esa.BaseURL),
		esa.WithTimeout(cfg.Timeout()),
	)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	var runOpts []pipeline.RunOption
	if runDate != "" {
		target, err := window.ParseDate(runDate, window.JST)
		if err != nil {
			return err
		}
		runOpts = append(runOpts, pipeline.ForDate(target))
	}
	runOpts = append(runOpts, pipeline.WithTrigger("cli"))

	out := cmd.OutOrStdout()
	p, _ := newPipeline(cfg, newPublisher(cfg, out))
	outcome, err := p.Run(cmd.Context(), runOpts...)
	return report(out, outcome, err)
}

// report prints the user-facing result line and returns the error that
// decides the exit code.
func report(out io.Writer, outcome *pipeline.Outcome, err error) error {
	if err != nil {
		var pe *pipeline.Error
		if errors.As(err, &pe) && pe.Kind == pipeline.KindPublishRejected {
			fmt.Fprintln(out, err.Error())
			return fmt.Errorf("publish rejected")
		}
		return err
	}
	if outcome.Status == pipeline.StatusNoLogs {
		fmt.Fprintln(out, "No logs are detected. exit")
		return nil
	}
	fmt.Fprintln(out, "OK")
	return nil
}
