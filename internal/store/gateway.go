package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/zzuhann/stellar/internal/metrics"
)

const (
	defaultCallTimeout = 12 * time.Second
	defaultMaxAttempts = 3
	initialInterval    = 200 * time.Millisecond
)

// Gateway wraps a Client so that every call runs under a per-call timeout and
// a small fixed number of retries with increasing backoff. Once the budget is
// exhausted the call surfaces ErrUnavailable; callers never retry again.
type Gateway struct {
	client      Client
	timeout     time.Duration
	maxAttempts uint64
	log         zerolog.Logger
}

type GatewayOption func(*Gateway)

func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.timeout = d }
}

func WithMaxAttempts(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.maxAttempts = uint64(n)
		}
	}
}

func NewGateway(client Client, log zerolog.Logger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		client:      client,
		timeout:     defaultCallTimeout,
		maxAttempts: defaultMaxAttempts,
		log:         log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// do runs op with timeout and retry. Domain errors (NotFound, Exists) are
// permanent and returned as-is; anything else counts as a transient store
// failure and is retried until attempts run out.
func (g *Gateway) do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	start := time.Now()
	defer func() {
		metrics.StoreOpDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ExponentialBackOff{
		InitialInterval:     initialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         2 * time.Second,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}, g.maxAttempts-1), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if attempt > 1 {
			metrics.StoreRetries.WithLabelValues(name).Inc()
		}
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		err := op(callCtx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExists) {
			return backoff.Permanent(err)
		}
		g.log.Warn().Err(err).Str("op", name).Int("attempt", attempt).Msg("store call failed")
		return err
	}, policy)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExists) {
		return err
	}
	return fmt.Errorf("%s after %d attempts: %w: %v", name, attempt, ErrUnavailable, err)
}

func (g *Gateway) Get(ctx context.Context, collection, id string) (Document, error) {
	var doc Document
	err := g.do(ctx, "get", func(ctx context.Context) error {
		var err error
		doc, err = g.client.Get(ctx, collection, id)
		return err
	})
	return doc, err
}

func (g *Gateway) Add(ctx context.Context, collection, id string, data map[string]any) error {
	return g.do(ctx, "add", func(ctx context.Context) error {
		return g.client.Add(ctx, collection, id, data)
	})
}

func (g *Gateway) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	return g.do(ctx, "update", func(ctx context.Context) error {
		return g.client.Update(ctx, collection, id, patch)
	})
}

func (g *Gateway) Delete(ctx context.Context, collection, id string) error {
	return g.do(ctx, "delete", func(ctx context.Context) error {
		return g.client.Delete(ctx, collection, id)
	})
}

func (g *Gateway) Query(ctx context.Context, collection string, filters []Filter, opts QueryOptions) ([]Document, error) {
	var docs []Document
	err := g.do(ctx, "query", func(ctx context.Context) error {
		var err error
		docs, err = g.client.Query(ctx, collection, filters, opts)
		return err
	})
	return docs, err
}

func (g *Gateway) BatchWrite(ctx context.Context, ops []WriteOp) error {
	return g.do(ctx, "batch_write", func(ctx context.Context) error {
		return g.client.BatchWrite(ctx, ops)
	})
}

var _ Client = (*Gateway)(nil)
