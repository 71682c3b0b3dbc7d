// Package flagsync keeps a locally cached configuration eventually consistent
// with the server, via polling or server-push, and notifies observers of
// lifecycle events.
package flagsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/scr2em/kitbase-go/models"
	"github.com/scr2em/kitbase-go/store"
	"github.com/scr2em/kitbase-go/transport"
)

// UpdateMode selects how the controller learns about new configurations.
// Modes are mutually exclusive and chosen at construction.
type UpdateMode string

const (
	ModePolling   UpdateMode = "polling"
	ModeStreaming UpdateMode = "streaming"
)

// DefaultPollInterval applies when polling is active and no interval is set.
const DefaultPollInterval = 60 * time.Second

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = errors.New("flagsync: controller is closed")

// Options configures a Controller.
type Options struct {
	Mode         UpdateMode
	PollInterval time.Duration // 0 disables polling in ModePolling
	Logger       *slog.Logger

	// Optional callbacks, invoked in addition to event listeners.
	OnConfigurationChanged func(*models.Configuration)
	OnError                func(error)
}

// initCall is one shared in-flight initialization. Concurrent Initialize
// callers all wait on the same call, so N simultaneous initializations
// produce exactly one network fetch.
type initCall struct {
	done chan struct{}
	err  error
}

// Controller owns the sync lifecycle: initialization, conditional refresh,
// the background update mechanism, and event dispatch.
type Controller struct {
	transport *transport.Client
	store     *store.ConfigStore
	em        *emitter
	logger    *slog.Logger

	mode         UpdateMode
	pollInterval time.Duration
	onChanged    func(*models.Configuration)
	onError      func(error)

	mu       sync.Mutex
	inflight *initCall
	ready    bool
	started  bool
	closed   bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewController(t *transport.Client, s *store.ConfigStore, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModePolling
	}
	return &Controller{
		transport:    t,
		store:        s,
		em:           newEmitter(logger),
		logger:       logger,
		mode:         mode,
		pollInterval: opts.PollInterval,
		onChanged:    opts.OnConfigurationChanged,
		onError:      opts.OnError,
	}
}

// Ready reports whether an initial configuration is available.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// OnReady registers a listener for the ready event.
func (c *Controller) OnReady(fn func(*models.Configuration)) func() {
	return c.em.on(EventReady, func(p interface{}) { fn(p.(*models.Configuration)) })
}

// OnConfigurationChanged registers a listener for configuration replacements.
func (c *Controller) OnConfigurationChanged(fn func(*models.Configuration)) func() {
	return c.em.on(EventConfigurationChanged, func(p interface{}) { fn(p.(*models.Configuration)) })
}

// OnError registers a listener for background sync failures.
func (c *Controller) OnError(fn func(error)) func() {
	return c.em.on(EventError, func(p interface{}) { fn(p.(error)) })
}

// Initialize fetches the first configuration and starts the update
// mechanism. It is idempotent; concurrent callers share one in-flight fetch.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.ready {
		c.mu.Unlock()
		return nil
	}
	if c.inflight != nil {
		call := c.inflight
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	call := &initCall{done: make(chan struct{})}
	c.inflight = call
	c.mu.Unlock()

	err := c.Refresh(ctx)

	c.mu.Lock()
	c.inflight = nil
	var cfg *models.Configuration
	if err == nil && !c.closed {
		c.ready = true
		cfg = c.store.Configuration()
		c.startUpdatesLocked()
	}
	closed := c.closed
	c.mu.Unlock()

	call.err = err
	close(call.done)

	if err == nil && !closed {
		c.em.emit(EventReady, cfg)
	}
	return err
}

// Bootstrap seeds the store with a configuration supplied up front, marking
// the controller ready without a network fetch. The update mechanism still
// starts, so the snapshot is refreshed in the background.
func (c *Controller) Bootstrap(cfg *models.Configuration) error {
	if err := models.ValidateConfiguration(cfg); err != nil {
		return fmt.Errorf("bootstrap configuration: %w", err)
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.ready {
		c.mu.Unlock()
		return nil
	}
	c.store.SetConfiguration(cfg)
	c.ready = true
	c.startUpdatesLocked()
	c.mu.Unlock()

	c.em.emit(EventReady, cfg)
	return nil
}

// Refresh performs one conditional fetch. A not-modified response is a no-op;
// a new etag replaces the store and fires configurationChanged. Errors
// propagate to the caller. After Close it returns ErrClosed without fetching.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	cfg, _, notModified, err := c.transport.FetchConfig(ctx, c.store.ETag())
	if err != nil {
		return err
	}
	if notModified {
		return nil
	}
	return c.apply(cfg)
}

// apply validates and atomically installs a configuration, whether fetched
// or pushed. The changed event fires only when the etag actually moved past
// an already-stored configuration.
func (c *Controller) apply(cfg *models.Configuration) error {
	if err := models.ValidateConfiguration(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		// A fetch that settles after close is discarded, not applied.
		c.mu.Unlock()
		return nil
	}
	had := c.store.Ready()
	prev := c.store.ETag()
	c.store.SetConfiguration(cfg)
	c.mu.Unlock()

	if had && cfg.ETag != prev {
		c.em.emit(EventConfigurationChanged, cfg)
		if c.onChanged != nil {
			c.safeCallback(func() { c.onChanged(cfg) })
		}
	}
	return nil
}

// startUpdatesLocked launches the background update goroutine once.
// Caller holds c.mu.
func (c *Controller) startUpdatesLocked() {
	if c.started || c.closed {
		return
	}
	c.started = true
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	switch {
	case c.mode == ModeStreaming:
		c.wg.Add(1)
		go c.runStream(ctx)
	case c.pollInterval > 0:
		c.wg.Add(1)
		go c.runPoller(ctx, c.pollInterval)
	}
}

// runPoller re-fetches on a fixed interval. Per-tick errors become error
// events and never stop the loop.
func (c *Controller) runPoller(ctx context.Context, interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				c.emitError(fmt.Errorf("poll: %w", err))
			}
		}
	}
}

func (c *Controller) emitError(err error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	c.logger.Warn("configuration sync failed", "error", err)
	c.em.emit(EventError, err)
	if c.onError != nil {
		c.safeCallback(func() { c.onError(err) })
	}
}

func (c *Controller) safeCallback(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("sync callback panicked", "panic", r)
		}
	}()
	fn()
}

// Close stops the poller and any stream connection and clears all listeners.
// The last known configuration remains readable from the store. Safe to call
// more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	c.em.clear()
}
