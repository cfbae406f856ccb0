package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/fd1az/token-deployer/business/network/domain"
	"github.com/fd1az/token-deployer/internal/apperror"
	"github.com/fd1az/token-deployer/internal/cache"
	"github.com/fd1az/token-deployer/internal/logger"
)

const selectionKey = "selection"

// SelectorConfig holds selection settings.
type SelectorConfig struct {
	TTL         time.Duration // how long a selection is reused
	MaxBlockAge time.Duration
}

// DefaultSelectorConfig returns sensible defaults.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		TTL:         60 * time.Second,
		MaxBlockAge: 30 * time.Second,
	}
}

type selectorMetrics struct {
	cacheHits   metric.Int64Counter
	probePasses metric.Int64Counter
	fallbacks   metric.Int64Counter
}

// Selector keeps the best endpoint for a TTL so that consecutive operations
// use the same node. Concurrent callers that find the selection stale share
// a single probe pass.
type Selector struct {
	cfg       SelectorConfig
	endpoints []domain.Endpoint
	prober    EndpointProber
	clock     clock.Clock
	logger    logger.LoggerInterface

	selection *cache.Cache[string, domain.Selection]
	flight    singleflight.Group
	passes    atomic.Int64

	tracer  trace.Tracer
	metrics *selectorMetrics
}

// NewSelector creates a Selector over endpoints in priority order.
func NewSelector(
	cfg SelectorConfig,
	endpoints []domain.Endpoint,
	prober EndpointProber,
	clk clock.Clock,
	log logger.LoggerInterface,
) (*Selector, error) {
	s := &Selector{
		cfg:       cfg,
		endpoints: append([]domain.Endpoint(nil), endpoints...),
		prober:    prober,
		clock:     clk,
		logger:    log,
		selection: cache.New[string, domain.Selection](0, cache.WithClock(clk)),
		tracer:    otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return s, nil
}

func (s *Selector) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &selectorMetrics{}

	s.metrics.cacheHits, err = meter.Int64Counter(
		"endpoint_selection_cache_hits_total",
		metric.WithDescription("Selections served without probing"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	s.metrics.probePasses, err = meter.Int64Counter(
		"endpoint_probe_passes_total",
		metric.WithDescription("Probe passes run to select an endpoint"),
		metric.WithUnit("{pass}"),
	)
	if err != nil {
		return err
	}

	s.metrics.fallbacks, err = meter.Int64Counter(
		"endpoint_selection_fallbacks_total",
		metric.WithDescription("Selections that fell back to the first endpoint"),
		metric.WithUnit("{selection}"),
	)
	return err
}

// Endpoints returns the configured endpoints.
func (s *Selector) Endpoints() []domain.Endpoint {
	return append([]domain.Endpoint(nil), s.endpoints...)
}

// SelectStable returns the cached endpoint while it is younger than the TTL,
// otherwise probes all endpoints and caches the winner. It fails only when
// no endpoints are configured or ctx ends while waiting for a probe pass.
func (s *Selector) SelectStable(ctx context.Context) (domain.Endpoint, error) {
	if len(s.endpoints) == 0 {
		return "", apperror.New(apperror.CodeNoEndpoints)
	}

	if sel, ok := s.selection.Get(ctx, selectionKey); ok {
		s.metrics.cacheHits.Add(ctx, 1)
		return sel.Endpoint, nil
	}

	// The pass outlives a cancelled caller so other waiters still get a
	// result; every probe inside it is bounded by the probe timeout.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(selectionKey, func() (any, error) {
		if sel, ok := s.selection.Get(flightCtx, selectionKey); ok {
			return sel, nil
		}
		return s.refresh(flightCtx), nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(domain.Selection).Endpoint, nil
	}
}

// Current returns the cached selection if it has not expired.
func (s *Selector) Current(ctx context.Context) (domain.Selection, bool) {
	return s.selection.Get(ctx, selectionKey)
}

// Invalidate drops the cached selection; the next SelectStable probes.
func (s *Selector) Invalidate() {
	s.selection.Delete(selectionKey)
}

// ProbePasses returns how many probe passes have run.
func (s *Selector) ProbePasses() int64 {
	return s.passes.Load()
}

// Close stops the selection cache.
func (s *Selector) Close() {
	s.selection.Close()
}

func (s *Selector) refresh(ctx context.Context) domain.Selection {
	ctx, span := s.tracer.Start(ctx, "network.select_endpoint")
	defer span.End()

	s.passes.Add(1)
	s.metrics.probePasses.Add(ctx, 1)

	results := s.prober.ProbeAll(ctx, s.endpoints)

	var sel domain.Selection
	if best, ok := domain.Best(results, s.cfg.MaxBlockAge); ok {
		sel = domain.Selection{
			Endpoint:    best.Endpoint,
			Latency:     best.Latency,
			BlockNumber: best.BlockNumber,
		}
		s.logger.Info(ctx, "selected RPC endpoint",
			"endpoint", best.Endpoint.Host(),
			"latency", best.Latency.Round(time.Millisecond),
			"block", best.BlockNumber)
	} else {
		sel = domain.Selection{Endpoint: s.endpoints[0], Fallback: true}
		s.metrics.fallbacks.Add(ctx, 1)
		s.logger.Warn(ctx, "no healthy RPC endpoint, falling back to first configured",
			"endpoint", sel.Endpoint.Host(),
			"candidates", len(s.endpoints))
	}
	sel.SelectedAt = s.clock.Now()

	s.selection.Set(ctx, selectionKey, sel, s.cfg.TTL)

	span.SetAttributes(
		attribute.String("endpoint", sel.Endpoint.Host()),
		attribute.Bool("fallback", sel.Fallback),
	)
	return sel
}
