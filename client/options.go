package client

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/scr2em/kitbase-go/models"
)

// Mode selects where evaluation happens.
type Mode string

const (
	// ModeRemote evaluates per-call on the server, with a TTL response cache.
	ModeRemote Mode = "remote"
	// ModeLocal evaluates against the synchronized configuration, offline.
	ModeLocal Mode = "local"
)

type options struct {
	mode       Mode
	streaming  bool
	logger     *slog.Logger
	httpClient *http.Client
	persist    PersistentStore
	initial    *models.Configuration

	// Zero means "use the value from config.Config".
	requestTimeout time.Duration
	pollInterval   *time.Duration
	cacheTTL       time.Duration
}

type Option func(*options)

// WithLocalEvaluation switches the client to local mode: synchronous
// evaluation against the cached configuration.
func WithLocalEvaluation() Option {
	return func(o *options) { o.mode = ModeLocal }
}

// WithRemoteEvaluation selects per-call server evaluation (the default).
func WithRemoteEvaluation() Option {
	return func(o *options) { o.mode = ModeRemote }
}

// WithStreaming keeps the configuration fresh over the server-push channel
// instead of polling. Falls back to polling if the server refuses the stream.
func WithStreaming() Option {
	return func(o *options) { o.streaming = true }
}

// WithPollInterval overrides the polling interval; 0 disables polling.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) { o.pollInterval = &d }
}

// WithRequestTimeout overrides the per-request deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithCacheTTL overrides the remote-mode response cache TTL.
func WithCacheTTL(d time.Duration) Option {
	return func(o *options) { o.cacheTTL = d }
}

// WithPersistence stores the remote-mode response cache in the given store,
// keyed by a hash of the credential. The client owns the store and closes it.
func WithPersistence(store PersistentStore) Option {
	return func(o *options) { o.persist = store }
}

// WithInitialConfiguration seeds local mode with a configuration snapshot so
// the first evaluation needs no network fetch.
func WithInitialConfiguration(cfg *models.Configuration) Option {
	return func(o *options) { o.initial = cfg }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}
