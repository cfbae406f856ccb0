package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/token-deployer/business/network/domain"
	"github.com/fd1az/token-deployer/internal/circuitbreaker"
	"github.com/fd1az/token-deployer/internal/logger"
)

const (
	tracerName = "github.com/fd1az/token-deployer/business/network/app"
	meterName  = "github.com/fd1az/token-deployer/business/network/app"
)

// ProberConfig holds probe settings.
type ProberConfig struct {
	Timeout     time.Duration // per endpoint
	MaxBlockAge time.Duration // heads older than this are unsynchronized
}

// DefaultProberConfig returns sensible defaults.
func DefaultProberConfig() ProberConfig {
	return ProberConfig{
		Timeout:     5 * time.Second,
		MaxBlockAge: 30 * time.Second,
	}
}

type proberMetrics struct {
	probes       metric.Int64Counter
	probeLatency metric.Float64Histogram
	blockAge     metric.Float64Gauge
}

// Prober measures latency and head freshness of RPC endpoints.
type Prober struct {
	cfg    ProberConfig
	dialer Dialer
	clock  clock.Clock
	logger logger.LoggerInterface

	breakers   map[domain.Endpoint]*circuitbreaker.CircuitBreaker[*types.Header]
	breakersMu sync.Mutex

	tracer  trace.Tracer
	metrics *proberMetrics
}

// NewProber creates a Prober.
func NewProber(cfg ProberConfig, dialer Dialer, clk clock.Clock, log logger.LoggerInterface) (*Prober, error) {
	p := &Prober{
		cfg:      cfg,
		dialer:   dialer,
		clock:    clk,
		logger:   log,
		breakers: make(map[domain.Endpoint]*circuitbreaker.CircuitBreaker[*types.Header]),
		tracer:   otel.Tracer(tracerName),
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return p, nil
}

func (p *Prober) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &proberMetrics{}

	p.metrics.probes, err = meter.Int64Counter(
		"endpoint_probes_total",
		metric.WithDescription("Endpoint probes by outcome"),
		metric.WithUnit("{probe}"),
	)
	if err != nil {
		return err
	}

	p.metrics.probeLatency, err = meter.Float64Histogram(
		"endpoint_probe_latency_seconds",
		metric.WithDescription("Latency of latest-header requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	p.metrics.blockAge, err = meter.Float64Gauge(
		"endpoint_block_age_seconds",
		metric.WithDescription("Age of the latest block reported by an endpoint"),
		metric.WithUnit("s"),
	)
	return err
}

// ProbeAll probes every endpoint concurrently and returns one result per
// endpoint in input order. Unreachable and unsynchronized endpoints are
// logged and reported as such.
func (p *Prober) ProbeAll(ctx context.Context, endpoints []domain.Endpoint) []domain.ProbeResult {
	ctx, span := p.tracer.Start(ctx, "network.probe_all",
		trace.WithAttributes(attribute.Int("endpoints", len(endpoints))),
	)
	defer span.End()

	results := make([]domain.ProbeResult, len(endpoints))

	var g errgroup.Group
	for i, ep := range endpoints {
		g.Go(func() error {
			results[i] = p.probe(ctx, ep)
			return nil
		})
	}
	_ = g.Wait()

	viable := 0
	for _, r := range results {
		switch {
		case !r.Reachable:
			p.logger.Warn(ctx, "endpoint unreachable", "endpoint", r.Endpoint.Host(), "error", r.Err)
		case !r.Viable(p.cfg.MaxBlockAge):
			p.logger.Warn(ctx, "endpoint not synchronized",
				"endpoint", r.Endpoint.Host(),
				"block", r.BlockNumber,
				"block_age", r.Freshness.Round(time.Second),
				"max_age", p.cfg.MaxBlockAge)
		default:
			viable++
			p.logger.Debug(ctx, "endpoint probed",
				"endpoint", r.Endpoint.Host(),
				"latency", r.Latency.Round(time.Millisecond),
				"block", r.BlockNumber)
		}
	}
	span.SetAttributes(attribute.Int("viable", viable))

	return results
}

func (p *Prober) probe(ctx context.Context, ep domain.Endpoint) domain.ProbeResult {
	res := domain.ProbeResult{Endpoint: ep}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	header, err := p.breaker(ep).Execute(func() (*types.Header, error) {
		client, err := p.dialer.Client(ctx, ep)
		if err != nil {
			return nil, err
		}
		h, err := client.HeaderByNumber(ctx, nil)
		if err == nil && h == nil {
			err = errors.New("empty header")
		}
		return h, err
	})
	res.Latency = time.Since(start)

	attrs := metric.WithAttributes(attribute.String("endpoint", ep.Host()))
	p.metrics.probeLatency.Record(ctx, res.Latency.Seconds(), attrs)

	if err != nil {
		res.Err = err
		p.metrics.probes.Add(ctx, 1, metric.WithAttributes(
			attribute.String("endpoint", ep.Host()),
			attribute.String("outcome", "unreachable"),
		))
		return res
	}

	res.Reachable = true
	res.BlockNumber = header.Number.Uint64()
	res.Freshness = p.clock.Now().Sub(time.Unix(int64(header.Time), 0))
	if res.Freshness < 0 {
		res.Freshness = 0
	}

	outcome := "ok"
	if !res.Viable(p.cfg.MaxBlockAge) {
		outcome = "stale"
	}
	p.metrics.probes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", ep.Host()),
		attribute.String("outcome", outcome),
	))
	p.metrics.blockAge.Record(ctx, res.Freshness.Seconds(), attrs)

	return res
}

func (p *Prober) breaker(ep domain.Endpoint) *circuitbreaker.CircuitBreaker[*types.Header] {
	p.breakersMu.Lock()
	defer p.breakersMu.Unlock()

	cb, ok := p.breakers[ep]
	if !ok {
		cfg := circuitbreaker.DefaultConfig("probe:" + ep.Host())
		cb = circuitbreaker.New[*types.Header](cfg)
		p.breakers[ep] = cb
	}
	return cb
}
