// Package client is the public SDK facade. A Client evaluates named feature
// flags for a user/session, either remotely (per-call network evaluation
// with a TTL response cache) or locally (against a synchronized rule set,
// no network round trip per decision).
package client

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/scr2em/kitbase-go/config"
	"github.com/scr2em/kitbase-go/engine"
	"github.com/scr2em/kitbase-go/flagsync"
	"github.com/scr2em/kitbase-go/models"
	"github.com/scr2em/kitbase-go/store"
	"github.com/scr2em/kitbase-go/transport"
)

// State is the client lifecycle position.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Client is the flags facade. Each instance owns its own store, listener
// registry and timers; no mutable state is shared across clients.
type Client struct {
	id         string
	mode       Mode
	logger     *slog.Logger
	credential string

	transport  *transport.Client
	store      *store.ConfigStore
	evaluator  *engine.Evaluator
	controller *flagsync.Controller

	cache       *responseCache
	persist     PersistentStore
	persistKey  string
	persistMu   sync.Mutex
	lastPersist time.Time

	state     atomic.Int32
	closeOnce sync.Once
}

// New builds a client from configuration plus options. Remote mode is the
// default; WithLocalEvaluation switches to cached offline evaluation.
func New(cfg config.Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &ValidationError{Message: "API key is required"}
	}
	if cfg.BaseURL == "" {
		return nil, &ValidationError{Message: "base URL is required"}
	}

	o := options{mode: ModeRemote, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.NewString()
	logger := o.logger.With("client_id", id)

	timeout := o.requestTimeout
	if timeout == 0 {
		timeout = cfg.RequestTimeout
	}
	topts := []transport.Option{
		transport.WithTimeout(timeout),
		transport.WithUserAgent("kitbase-go/" + id),
	}
	if o.httpClient != nil {
		topts = append(topts, transport.WithHTTPClient(o.httpClient))
	}
	t := transport.New(cfg.BaseURL, cfg.APIKey, topts...)

	st := store.NewConfigStore()

	syncMode := flagsync.ModePolling
	if o.streaming || cfg.Streaming {
		syncMode = flagsync.ModeStreaming
	}
	pollInterval := cfg.PollInterval
	if o.pollInterval != nil {
		pollInterval = *o.pollInterval
	}
	ctrl := flagsync.NewController(t, st, flagsync.Options{
		Mode:         syncMode,
		PollInterval: pollInterval,
		Logger:       logger,
	})

	c := &Client{
		id:         id,
		mode:       o.mode,
		logger:     logger,
		credential: cfg.APIKey,
		transport:  t,
		store:      st,
		evaluator:  engine.NewEvaluator(st),
		controller: ctrl,
	}

	// The controller reaching ready moves the client forward no matter which
	// caller triggered the fetch.
	ctrl.OnReady(func(*models.Configuration) {
		c.state.CompareAndSwap(int32(StateUninitialized), int32(StateReady))
		c.state.CompareAndSwap(int32(StateInitializing), int32(StateReady))
	})

	if c.mode == ModeRemote {
		ttl := o.cacheTTL
		if ttl == 0 {
			ttl = cfg.CacheTTL
		}
		c.cache = newResponseCache(ttl)
		if o.persist != nil {
			c.persist = o.persist
			c.persistKey = persistenceKey(cfg.APIKey)
			loadCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.loadPersistedCache(loadCtx); err != nil {
				logger.Warn("persisted cache unavailable", "error", err)
			}
		}
	}

	if o.initial != nil && c.mode == ModeLocal {
		if err := ctrl.Bootstrap(o.initial); err != nil {
			return nil, err
		}
		c.state.Store(int32(StateReady))
	}

	return c, nil
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Initialize makes the client ready. In local mode this fetches the first
// configuration and starts the update mechanism; concurrent callers share a
// single fetch. In remote mode there is nothing to synchronize.
func (c *Client) Initialize(ctx context.Context) error {
	if c.State() == StateClosed {
		return ErrClientClosed
	}
	if c.mode == ModeRemote {
		c.state.CompareAndSwap(int32(StateUninitialized), int32(StateReady))
		return nil
	}

	c.state.CompareAndSwap(int32(StateUninitialized), int32(StateInitializing))
	if err := c.controller.Initialize(ctx); err != nil {
		c.state.CompareAndSwap(int32(StateInitializing), int32(StateUninitialized))
		return err
	}
	c.state.CompareAndSwap(int32(StateInitializing), int32(StateReady))
	return nil
}

// Refresh forces one conditional configuration fetch, propagating any
// failure to the caller (background refreshes surface errors as events
// instead). Remote mode has no local configuration to refresh.
func (c *Client) Refresh(ctx context.Context) error {
	if c.State() == StateClosed {
		return ErrClientClosed
	}
	if c.mode == ModeRemote {
		return nil
	}
	return c.controller.Refresh(ctx)
}

// ensureReady lazily initializes local mode on first evaluation, sharing the
// in-flight attempt across concurrent first calls.
func (c *Client) ensureReady(ctx context.Context) error {
	if c.store.Ready() {
		return nil
	}
	return c.Initialize(ctx)
}

// OnReady subscribes to the ready event.
func (c *Client) OnReady(fn func(*models.Configuration)) func() {
	return c.controller.OnReady(fn)
}

// OnConfigurationChanged subscribes to configuration replacements.
func (c *Client) OnConfigurationChanged(fn func(*models.Configuration)) func() {
	return c.controller.OnConfigurationChanged(fn)
}

// OnError subscribes to background sync failures.
func (c *Client) OnError(fn func(error)) func() {
	return c.controller.OnError(fn)
}

// Close tears down the poller, stream and listeners, flushes the persisted
// cache, and moves the client to its terminal state. The last known
// configuration stays readable by whoever still holds it.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		c.controller.Close()
		if c.persist != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			c.savePersistedCache(ctx, true)
			err = c.persist.Close()
		}
	})
	return err
}
