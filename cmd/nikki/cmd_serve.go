package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/nikki/internal/esa"
	"github.com/user/nikki/internal/pipeline"
	"github.com/user/nikki/internal/scheduler"
	"github.com/user/nikki/internal/webhook"
	"github.com/user/nikki/internal/window"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a daemon publishing on the configured schedule",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func pidPath(dataDir string) string {
	return filepath.Join(dataDir, "nikki.pid")
}

func writePIDFile(dataDir string) (string, error) {
	path := pidPath(dataDir)
	pid := os.Getpid()
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return path, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	if err := scheduler.Validate(cfg.Serve.Schedule); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidFile, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidFile)

	publisher := esa.New(cfg.Esa.Token, cfg.Esa.Team,
		esa.WithBaseURL(cfg.Esa.BaseURL),
		esa.WithTimeout(cfg.Timeout()),
	)
	p, runs := newPipeline(cfg, publisher)
	guard := pipeline.NewGuard(p)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sched := scheduler.New(cfg.Serve.Schedule, window.JST, func() {
		outcome, err := guard.Run(ctx, pipeline.WithTrigger("cron"))
		if err != nil {
			if errors.Is(err, pipeline.ErrRunInProgress) {
				slog.Warn("skipping scheduled run", "error", err)
			}
			return
		}
		slog.Info("scheduled run finished", "status", outcome.Status, "date", outcome.Date, "document", outcome.DocumentName)
	})
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	if cfg.Serve.Listen != "" {
		ln, err := net.Listen("tcp", cfg.Serve.Listen)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Serve.Listen, err)
		}
		httpServer := &http.Server{
			Handler:           webhook.NewServer(guard, runs),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("status server failed", "error", err)
			}
		}()
		defer httpServer.Close()
		slog.Info("status server listening", "addr", ln.Addr().String())
	}

	slog.Info("nikki started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"schedule", cfg.Serve.Schedule,
		"channel", cfg.Slack.Channel,
		"team", cfg.Esa.Team,
		"pid_file", pidFile,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down")
			return nil
		case <-sigChan:
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			// Clean up PID file before re-exec
			os.Remove(pidFile)
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				if _, writeErr := writePIDFile(cfg.DataDir); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
			}
		}
	}
}
