package navigation

import (
	"log/slog"
	"time"

	"github.com/go-drift/navstate/pkg/hydration"
	"github.com/go-drift/navstate/pkg/persist"
	"github.com/go-drift/navstate/pkg/platform"
	"github.com/go-drift/navstate/pkg/telemetry"
)

// DefaultPersistTimeout bounds a single snapshot write.
const DefaultPersistTimeout = 10 * time.Second

// Option configures the collaborators of a container.
type Option func(*config)

type config struct {
	host           Host
	scheduler      platform.Scheduler
	urls           platform.URLSource
	backs          platform.BackSource
	store          persist.Store
	codec          persist.Codec
	registry       *hydration.Registry
	metrics        *telemetry.Metrics
	logger         *slog.Logger
	debug          bool
	persistTimeout time.Duration
}

func defaultConfig() config {
	return config{
		host:           SyncHost{},
		scheduler:      platform.DefaultScheduler,
		store:          persist.DefaultStore,
		codec:          persist.DefaultCodec,
		registry:       hydration.Default,
		persistTimeout: DefaultPersistTimeout,
	}
}

// WithHost sets the rendering hook used to commit state. Defaults to SyncHost.
func WithHost(host Host) Option {
	return func(c *config) {
		if host != nil {
			c.host = host
		}
	}
}

// WithScheduler sets how background work is brought back to the UI
// goroutine. Defaults to platform.DefaultScheduler.
func WithScheduler(s platform.Scheduler) Option {
	return func(c *config) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithURLSource sets the source of URL-open events.
func WithURLSource(src platform.URLSource) Option {
	return func(c *config) {
		c.urls = src
	}
}

// WithBackSource sets the source of hardware back presses.
func WithBackSource(src platform.BackSource) Option {
	return func(c *config) {
		c.backs = src
	}
}

// WithStore sets the snapshot backend. Defaults to persist.DefaultStore.
func WithStore(store persist.Store) Option {
	return func(c *config) {
		if store != nil {
			c.store = store
		}
	}
}

// WithCodec sets the snapshot encoding. Defaults to JSON.
func WithCodec(codec persist.Codec) Option {
	return func(c *config) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithRegistry sets the hydration registry shared by the application's
// containers. Defaults to hydration.Default.
func WithRegistry(r *hydration.Registry) Option {
	return func(c *config) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithMetrics records container activity in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithDebug logs every state change that has no OnNavigationStateChange
// callback.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.debug = debug
	}
}

// WithPersistTimeout bounds each snapshot write.
func WithPersistTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.persistTimeout = d
		}
	}
}
