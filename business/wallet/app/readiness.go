package app

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	networkdomain "github.com/fd1az/token-deployer/business/network/domain"
	"github.com/fd1az/token-deployer/internal/apperror"
	"github.com/fd1az/token-deployer/internal/asset"
	"github.com/fd1az/token-deployer/internal/logger"
	"github.com/fd1az/token-deployer/internal/pause"
)

const (
	tracerName = "github.com/fd1az/token-deployer/business/wallet/app"
	meterName  = "github.com/fd1az/token-deployer/business/wallet/app"
)

// ReadinessConfig holds readiness thresholds.
type ReadinessConfig struct {
	MaxBlockAge  time.Duration
	MinBalance   decimal.Decimal // in native units
	PollInterval time.Duration
	MaxWait      time.Duration // 0 waits until ctx is done
}

// DefaultReadinessConfig returns sensible defaults.
func DefaultReadinessConfig() ReadinessConfig {
	return ReadinessConfig{
		MaxBlockAge:  30 * time.Second,
		MinBalance:   decimal.RequireFromString("0.01"),
		PollInterval: 10 * time.Second,
	}
}

// Readiness is the result of one readiness check.
type Readiness struct {
	Endpoint    networkdomain.Endpoint
	BlockNumber uint64
	BlockAge    time.Duration
	Balance     asset.Amount
	Ready       bool
	Reason      string // why not ready, empty when ready
}

type readinessMetrics struct {
	checks  metric.Int64Counter
	balance metric.Float64Gauge
}

// ReadinessMonitor gates transactions on a fresh head and a funded wallet.
type ReadinessMonitor struct {
	cfg       ReadinessConfig
	connector Connector
	native    *asset.Asset
	clock     clock.Clock
	pause     pause.Func
	logger    logger.LoggerInterface

	tracer  trace.Tracer
	metrics *readinessMetrics
}

// NewReadinessMonitor creates a ReadinessMonitor. native is the chain's
// native asset used to interpret balances.
func NewReadinessMonitor(
	cfg ReadinessConfig,
	connector Connector,
	native *asset.Asset,
	clk clock.Clock,
	pauseFn pause.Func,
	log logger.LoggerInterface,
) (*ReadinessMonitor, error) {
	if pauseFn == nil {
		pauseFn = pause.WithClock(clk)
	}

	m := &ReadinessMonitor{
		cfg:       cfg,
		connector: connector,
		native:    native,
		clock:     clk,
		pause:     pauseFn,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}

	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return m, nil
}

func (m *ReadinessMonitor) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	m.metrics = &readinessMetrics{}

	m.metrics.checks, err = meter.Int64Counter(
		"readiness_checks_total",
		metric.WithDescription("Readiness checks by outcome"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return err
	}

	m.metrics.balance, err = meter.Float64Gauge(
		"wallet_balance",
		metric.WithDescription("Native balance of the signing wallet"),
		metric.WithUnit("{native}"),
	)
	return err
}

// Check inspects the selected endpoint's head and the wallet balance.
// An unready network is not an error; RPC failures are.
func (m *ReadinessMonitor) Check(ctx context.Context) (Readiness, error) {
	ctx, span := m.tracer.Start(ctx, "wallet.readiness_check")
	defer span.End()

	conn, err := m.connector.GetConnection(ctx)
	if err != nil {
		return Readiness{}, err
	}

	r := Readiness{Endpoint: conn.Endpoint, Balance: asset.Zero(m.native)}

	header, err := conn.Client.HeaderByNumber(ctx, nil)
	if err != nil {
		return r, apperror.External(apperror.CodeEthereumRPCError, "latest header", err)
	}
	r.BlockNumber = header.Number.Uint64()
	r.BlockAge = m.clock.Now().Sub(time.Unix(int64(header.Time), 0))
	if r.BlockAge < 0 {
		r.BlockAge = 0
	}

	raw, err := conn.Client.BalanceAt(ctx, conn.Identity.Address(), nil)
	if err != nil {
		return r, apperror.External(apperror.CodeEthereumRPCError, "wallet balance", err)
	}
	r.Balance = asset.NewAmount(m.native, raw)

	balance := r.Balance.ToDecimal()
	m.metrics.balance.Record(ctx, balance.InexactFloat64(),
		metric.WithAttributes(attribute.String("asset", m.native.Symbol())))

	switch {
	case r.BlockAge > m.cfg.MaxBlockAge:
		r.Reason = fmt.Sprintf("latest block is %s old (max %s)", r.BlockAge.Round(time.Second), m.cfg.MaxBlockAge)
	case balance.LessThan(m.cfg.MinBalance):
		r.Reason = fmt.Sprintf("balance %s below minimum %s", r.Balance, m.cfg.MinBalance)
	default:
		r.Ready = true
	}

	span.SetAttributes(
		attribute.Bool("ready", r.Ready),
		attribute.Int64("block", int64(r.BlockNumber)),
	)
	return r, nil
}

// IsReady reports whether a transaction can be sent now. Errors are logged
// and count as not ready.
func (m *ReadinessMonitor) IsReady(ctx context.Context) bool {
	r, err := m.Check(ctx)
	if err != nil {
		m.metrics.checks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
		m.logger.Error(ctx, "readiness check failed", "error", err)
		return false
	}

	outcome := "ready"
	if !r.Ready {
		outcome = "not_ready"
		m.logger.Debug(ctx, "network not ready", "endpoint", r.Endpoint.Host(), "reason", r.Reason)
	}
	m.metrics.checks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	return r.Ready
}

// WaitUntilReady polls IsReady every poll interval until it passes. It
// returns ctx.Err() on cancellation and READINESS_TIMEOUT once MaxWait
// (when set) has elapsed.
func (m *ReadinessMonitor) WaitUntilReady(ctx context.Context) error {
	start := m.clock.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if m.IsReady(ctx) {
			return nil
		}

		waited := m.clock.Since(start)
		if m.cfg.MaxWait > 0 && waited >= m.cfg.MaxWait {
			return apperror.New(apperror.CodeReadinessTimeout,
				apperror.WithContext(fmt.Sprintf("waited %s", waited.Round(time.Second))))
		}

		m.logger.Warn(ctx, "network not ready, waiting",
			"retry_in", m.cfg.PollInterval,
			"waited", waited.Round(time.Second))

		if err := m.pause(ctx, m.cfg.PollInterval); err != nil {
			return err
		}
	}
}
