package persist

import (
	"context"
	"fmt"
	"log/slog"

	naverrors "github.com/go-drift/navstate/pkg/errors"
	"github.com/go-drift/navstate/pkg/telemetry"
)

// Load results recorded in metrics.
const (
	LoadHit       = "hit"
	LoadMiss      = "miss"
	LoadMalformed = "malformed"
	LoadError     = "error"
)

// Option configures a Manager.
type Option func(*managerConfig)

type managerConfig struct {
	codec   Codec
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// WithCodec sets the snapshot codec. Default: DefaultCodec.
func WithCodec(codec Codec) Option {
	return func(c *managerConfig) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *managerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records loads and writes on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *managerConfig) {
		c.metrics = m
	}
}

// Manager loads and saves snapshots of navigation state of type S.
type Manager[S any] struct {
	store   Store
	codec   Codec
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// NewManager creates a Manager backed by store.
func NewManager[S any](store Store, opts ...Option) *Manager[S] {
	cfg := managerConfig{
		codec:  DefaultCodec,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Manager[S]{
		store:   store,
		codec:   cfg.codec,
		logger:  cfg.logger.With("component", "persist"),
		metrics: cfg.metrics,
	}
}

// Codec returns the codec used for snapshots.
func (m *Manager[S]) Codec() Codec {
	return m.codec
}

// Load reads the snapshot stored under key.
//
// ok is false when there is no usable snapshot: the key is absent or holds
// an encoded null, the backend failed, or the stored data does not decode. None of these are
// errors to the caller; a malformed snapshot is logged and otherwise ignored.
func (m *Manager[S]) Load(ctx context.Context, key string) (state *S, ok bool) {
	ctx, span := telemetry.StartSpan(ctx, "persist.Load",
		telemetry.AttrPersistenceKey.String(key),
		telemetry.AttrCodec.String(m.codec.Name()))
	var spanErr error
	defer func() { telemetry.EndSpan(span, spanErr) }()

	raw, found, err := m.store.Get(ctx, key)
	if err != nil {
		spanErr = err
		m.metrics.ObserveLoad(LoadError)
		naverrors.Report(&naverrors.NavError{
			Op:   "persist.Load",
			Kind: naverrors.KindPersistence,
			Key:  key,
			Err:  err,
		})
		return nil, false
	}
	if !found || raw == "" {
		m.metrics.ObserveLoad(LoadMiss)
		return nil, false
	}

	var decoded *S
	if err := m.codec.Decode([]byte(raw), &decoded); err != nil {
		m.metrics.ObserveLoad(LoadMalformed)
		m.logger.Debug("discarding malformed snapshot", "key", key, "codec", m.codec.Name(), "error", err)
		return nil, false
	}
	if decoded == nil {
		m.metrics.ObserveLoad(LoadMiss)
		return nil, false
	}
	m.metrics.ObserveLoad(LoadHit)
	return decoded, true
}

// Save writes state under key. Failures are returned as
// *errors.PersistenceWriteError.
func (m *Manager[S]) Save(ctx context.Context, key string, state *S) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "persist.Save",
		telemetry.AttrPersistenceKey.String(key),
		telemetry.AttrCodec.String(m.codec.Name()))
	defer func() {
		m.metrics.ObservePersist(err)
		telemetry.EndSpan(span, err)
	}()

	if state == nil {
		return &naverrors.PersistenceWriteError{Key: key, Err: fmt.Errorf("nil state")}
	}
	data, encErr := m.codec.Encode(state)
	if encErr != nil {
		return &naverrors.PersistenceWriteError{Key: key, Err: fmt.Errorf("encode: %w", encErr)}
	}
	if setErr := m.store.Set(ctx, key, string(data)); setErr != nil {
		return &naverrors.PersistenceWriteError{Key: key, Err: setErr}
	}
	return nil
}

// Raw returns the encoded snapshot stored under key without decoding it.
func (m *Manager[S]) Raw(ctx context.Context, key string) (string, bool, error) {
	return m.store.Get(ctx, key)
}

// Clear removes the snapshot stored under key.
func (m *Manager[S]) Clear(ctx context.Context, key string) error {
	if err := m.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("clear snapshot %q: %w", key, err)
	}
	return nil
}
