package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"signframes/internal/config"
	"signframes/internal/daemon"
	"signframes/internal/logging"
)

// Options configures server process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the frames server and blocks until cmdCtx is cancelled or the
// process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := NewLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return Serve(signalCtx, cfg, logger)
}

// Serve wires the pipeline from cfg and serves until ctx is done.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	logConfigSnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.StateDir, "signframes.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	pipeline, err := NewPipeline(cfg, logger)
	if err != nil {
		logger.Error("build frames pipeline", logging.Error(err))
		return err
	}

	d, err := daemon.New(cfg, pipeline.Frames, logger, daemon.WithCloser(pipeline))
	if err != nil {
		_ = pipeline.Close()
		return fmt.Errorf("create server: %w", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logging.ErrorWithContext(logger, "server start failed", "server_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check server.bind and that no other instance shares the state dir"),
		)
		return err
	}

	<-ctx.Done()
	logger.Info("signframes server shutting down")
	return nil
}

// NewLogger builds the process logger, letting opts override the configured
// level.
func NewLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	outputs := []string{"stdout"}
	if cfg.Paths.LogDir != "" {
		outputs = append(outputs, filepath.Join(cfg.Paths.LogDir, "signframes.log"))
	}
	return logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
		Development: opts.Development,
	})
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	logger.Info("config snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("bind", cfg.Server.Bind),
		logging.String("clip_store", cfg.ClipStore.BaseURL),
		logging.String("translation_provider", cfg.Translation.Provider),
		logging.Int("concurrency", cfg.ClipStore.Concurrency),
		logging.Int("target_height", cfg.Frames.TargetHeight),
		logging.Bool("clip_cache", cfg.ClipCache.Enabled),
		logging.Bool("auth_required", cfg.Server.APIToken != ""),
	)
}
