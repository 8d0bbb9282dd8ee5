// Package daemon owns the vcertd process lifecycle: a flock guard against
// concurrent instances, the long-poll loop feeding updates into the
// engine, per-chat serial dispatch, and the idle-session sweeper.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"vcert/internal/config"
	"vcert/internal/logging"
	"vcert/internal/telegram"
)

// Updater is the inbound slice of the chat client.
type Updater interface {
	GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error)
}

// Handler consumes updates and maintains conversational state.
type Handler interface {
	HandleUpdate(ctx context.Context, update telegram.Update)
	SweepSessions() int
}

// Daemon runs the polling loop until its context is cancelled.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	updater Updater
	handler Handler

	lockPath string
	lock     *flock.Flock

	mu    sync.Mutex
	chats map[int64]chan telegram.Update
	wg    sync.WaitGroup
}

const (
	chatQueueDepth = 16
	pollBackoffMin = time.Second
	pollBackoffMax = 30 * time.Second
	sweepInterval  = time.Minute
)

// New builds a Daemon. The instance lock lives next to the database.
func New(cfg *config.Config, updater Updater, handler Handler, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || updater == nil || handler == nil {
		return nil, errors.New("daemon requires config, updater, and handler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	lockPath := filepath.Join(cfg.Paths.DataDir, "vcertd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger.With(logging.Component("daemon")),
		updater:  updater,
		handler:  handler,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		chats:    make(map[int64]chan telegram.Update),
	}, nil
}

// Run polls for updates until ctx is cancelled, then drains in-flight
// work within the configured shutdown timeout.
func (d *Daemon) Run(ctx context.Context) error {
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another vcertd instance is already running (lock %s)", d.lockPath)
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("release instance lock failed", "error", err)
		}
	}()

	d.logger.Info("vcertd started", "lock", d.lockPath)

	if d.cfg.Workflow.SessionExpiryMinutes > 0 {
		d.wg.Add(1)
		go d.sweepLoop(ctx)
	}

	d.pollLoop(ctx)
	return d.shutdown()
}

func (d *Daemon) pollLoop(ctx context.Context) {
	var offset int64
	backoff := pollBackoffMin
	for {
		if ctx.Err() != nil {
			return
		}
		updates, err := d.updater.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.logger.Warn("poll failed", "error", err, "retry_in", backoff.String())
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			if backoff *= 2; backoff > pollBackoffMax {
				backoff = pollBackoffMax
			}
			continue
		}
		backoff = pollBackoffMin

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			d.dispatch(ctx, update)
		}
	}
}

// dispatch routes an update to its chat's worker so conversations stay
// ordered while separate chats proceed concurrently.
func (d *Daemon) dispatch(ctx context.Context, update telegram.Update) {
	key := chatKey(update)

	d.mu.Lock()
	ch, ok := d.chats[key]
	if !ok {
		ch = make(chan telegram.Update, chatQueueDepth)
		d.chats[key] = ch
		d.wg.Add(1)
		go d.worker(ctx, ch)
	}
	d.mu.Unlock()

	select {
	case ch <- update:
	case <-ctx.Done():
	}
}

func (d *Daemon) worker(ctx context.Context, ch chan telegram.Update) {
	defer d.wg.Done()
	for {
		select {
		case update := <-ch:
			d.handler.HandleUpdate(ctx, update)
		case <-ctx.Done():
			return
		}
	}
}

func (d *Daemon) sweepLoop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if dropped := d.handler.SweepSessions(); dropped > 0 {
				d.logger.Info("expired idle sessions", "count", dropped)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (d *Daemon) shutdown() error {
	timeout := time.Duration(d.cfg.Workflow.ShutdownTimeout) * time.Second
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.logger.Info("vcertd stopped")
		return nil
	case <-time.After(timeout):
		d.logger.Warn("shutdown timed out with work in flight", "timeout", timeout.String())
		return errors.New("shutdown timed out")
	}
}

func chatKey(update telegram.Update) int64 {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message != nil {
			return update.CallbackQuery.Message.Chat.ID
		}
		return update.CallbackQuery.From.ID
	}
	return 0
}
