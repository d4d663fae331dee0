package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gofrs/flock"

	"signframes/internal/api"
	"signframes/internal/config"
	"signframes/internal/logging"
)

// FramesHandler runs the frames pipeline for one request.
type FramesHandler interface {
	Frames(ctx context.Context, req api.FramesRequest) (*api.FramesResponse, error)
}

// Daemon owns the API server lifecycle and enforces single-instance
// execution per state directory.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	frames   FramesHandler
	closers  []io.Closer
	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Address      string
	LockFilePath string
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithCloser registers a resource released by Close, such as the clip cache.
func WithCloser(c io.Closer) Option {
	return func(d *Daemon) {
		if c != nil {
			d.closers = append(d.closers, c)
		}
	}
}

// New constructs a daemon serving frames.
func New(cfg *config.Config, frames FramesHandler, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || frames == nil {
		return nil, errors.New("daemon requires config and frames handler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		frames:   frames,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the instance lock and begins serving HTTP.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another signframes server is already using %s", d.cfg.Paths.StateDir)
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}
	d.running.Store(true)
	d.logger.Info("signframes server started",
		logging.String("address", d.api.address()),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop shuts the API server down and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release server lock", "lock_release_failed",
			logging.Error(err),
			logging.String("lock", d.lockPath),
			logging.String(logging.FieldErrorHint, "remove the lock file if no server is running"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("signframes server stopped")
}

// Close stops the daemon and releases registered resources.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Handler returns the HTTP handler, for embedding and tests.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Address:      d.api.address(),
		LockFilePath: d.lockPath,
	}
}
