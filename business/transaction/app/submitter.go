// Package app submits signed transactions with classification-driven retries.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/token-deployer/business/transaction/domain"
	walletapp "github.com/fd1az/token-deployer/business/wallet/app"
	"github.com/fd1az/token-deployer/internal/apperror"
	"github.com/fd1az/token-deployer/internal/logger"
	"github.com/fd1az/token-deployer/internal/pause"
)

const (
	tracerName = "github.com/fd1az/token-deployer/business/transaction/app"
	meterName  = "github.com/fd1az/token-deployer/business/transaction/app"
)

// SubmitterConfig holds retry and receipt settings.
type SubmitterConfig struct {
	MaxRetries       int
	ReceiptTimeout   time.Duration
	ReceiptPoll      time.Duration
	NonceWait        time.Duration // after nonce too low
	TransportWait    time.Duration // after a transient transport failure
	FeeBumpPercent   int64         // applied to a fresh suggestion after fee too low
	GasMarginPercent int64         // added to gas estimates
}

// DefaultSubmitterConfig returns sensible defaults.
func DefaultSubmitterConfig() SubmitterConfig {
	return SubmitterConfig{
		MaxRetries:       3,
		ReceiptTimeout:   3 * time.Minute,
		ReceiptPoll:      2 * time.Second,
		NonceWait:        5 * time.Second,
		TransportWait:    10 * time.Second,
		FeeBumpPercent:   20,
		GasMarginPercent: 10,
	}
}

type submitterMetrics struct {
	submissions metric.Int64Counter
	failures    metric.Int64Counter
	confirmTime metric.Float64Histogram
}

// Submitter signs, sends and confirms transactions, retrying nonce, fee and
// transport failures.
//
// An attempt that fails after the node accepted the transaction, for
// instance a receipt lookup lost to a gateway error, is not distinguished
// from one that was never sent. The retry re-reads the pending nonce and may
// submit the same intent twice.
type Submitter struct {
	cfg       SubmitterConfig
	connector walletapp.Connector
	clock     clock.Clock
	pause     pause.Func
	logger    logger.LoggerInterface

	tracer  trace.Tracer
	metrics *submitterMetrics
}

// NewSubmitter creates a Submitter. A nil pauseFn waits on clk.
func NewSubmitter(
	cfg SubmitterConfig,
	connector walletapp.Connector,
	clk clock.Clock,
	pauseFn pause.Func,
	log logger.LoggerInterface,
) (*Submitter, error) {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if pauseFn == nil {
		pauseFn = pause.WithClock(clk)
	}

	s := &Submitter{
		cfg:       cfg,
		connector: connector,
		clock:     clk,
		pause:     pauseFn,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return s, nil
}

func (s *Submitter) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &submitterMetrics{}

	s.metrics.submissions, err = meter.Int64Counter(
		"transaction_submissions_total",
		metric.WithDescription("Submitted transactions by final outcome"),
		metric.WithUnit("{transaction}"),
	)
	if err != nil {
		return err
	}

	s.metrics.failures, err = meter.Int64Counter(
		"transaction_attempt_failures_total",
		metric.WithDescription("Failed attempts by error kind"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return err
	}

	s.metrics.confirmTime, err = meter.Float64Histogram(
		"transaction_confirmation_seconds",
		metric.WithDescription("Time from submission to confirmed receipt"),
		metric.WithUnit("s"),
	)
	return err
}

// Submit sends req and waits for a successful receipt.
//
// Nonce, fee and transport failures are retried up to MaxRetries attempts,
// after which a TRANSACTION_FAILED error wrapping the last failure is
// returned. Other failures return TRANSACTION_REJECTED at once. A reverted
// receipt is terminal.
func (s *Submitter) Submit(ctx context.Context, req domain.Request) (*domain.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "transaction.submit",
		trace.WithAttributes(
			attribute.String("label", req.Label),
			attribute.Bool("contract_creation", req.IsContractCreation()),
		),
	)
	defer span.End()

	out, err := s.submit(ctx, req)

	outcome := "confirmed"
	if err != nil {
		outcome = string(apperror.GetCode(err))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = "cancelled"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.String("tx_hash", out.Hash.Hex()),
			attribute.Int("attempts", out.Attempts),
		)
	}
	s.metrics.submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("label", req.Label),
		attribute.String("outcome", outcome),
	))

	return out, err
}

func (s *Submitter) submit(ctx context.Context, req domain.Request) (*domain.Outcome, error) {
	gasPrice, err := s.initialGasPrice(ctx, req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := s.attempt(ctx, req, attempt, gasPrice)
		if err == nil {
			out.Attempts = attempt
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if isTerminal(err) {
			s.logger.Error(ctx, "transaction failed", "label", req.Label, "attempt", attempt, "error", err)
			return nil, err
		}

		kind := domain.Classify(err)
		s.metrics.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind.String())))
		s.logger.Warn(ctx, "transaction attempt failed",
			"label", req.Label,
			"attempt", attempt,
			"max_attempts", s.cfg.MaxRetries,
			"kind", kind.String(),
			"error", err)

		if !kind.Retryable() {
			if apperror.IsAppError(err) {
				return nil, err
			}
			return nil, apperror.New(apperror.CodeTransactionRejected,
				apperror.WithContext(req.Label),
				apperror.WithCause(err))
		}

		lastErr = err
		if attempt == s.cfg.MaxRetries {
			break
		}

		if err := s.prepareRetry(ctx, kind, &gasPrice); err != nil {
			return nil, err
		}
	}

	return nil, apperror.New(apperror.CodeTransactionFailed,
		apperror.WithContext("exhausted retries"),
		apperror.WithCause(lastErr))
}

func (s *Submitter) initialGasPrice(ctx context.Context, req domain.Request) (*big.Int, error) {
	if req.GasPrice != nil {
		return new(big.Int).Set(req.GasPrice), nil
	}

	conn, err := s.connector.GetConnection(ctx)
	if err != nil {
		return nil, err
	}
	price, err := conn.Client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, apperror.External(apperror.CodeEthereumRPCError, "suggest gas price", err)
	}
	return price, nil
}

// prepareRetry prepares the next attempt for a retryable failure.
func (s *Submitter) prepareRetry(ctx context.Context, kind domain.ErrorKind, gasPrice **big.Int) error {
	switch kind {
	case domain.KindNonceTooLow:
		return s.pause(ctx, s.cfg.NonceWait)

	case domain.KindFeeTooLow:
		conn, err := s.connector.GetConnection(ctx)
		if err != nil {
			return err
		}
		suggested, err := conn.Client.SuggestGasPrice(ctx)
		if err != nil {
			// Bump what we had; the next attempt surfaces a persistent RPC problem.
			s.logger.Warn(ctx, "could not refresh gas price", "error", err)
			suggested = *gasPrice
		}
		bumped := domain.BumpGasPrice(suggested, s.cfg.FeeBumpPercent)
		s.logger.Info(ctx, "raising gas price",
			"previous_wei", (*gasPrice).String(),
			"new_wei", bumped.String())
		*gasPrice = bumped
		return nil

	case domain.KindTransientTransport:
		return s.pause(ctx, s.cfg.TransportWait)
	}
	return nil
}

func (s *Submitter) attempt(ctx context.Context, req domain.Request, attempt int, gasPrice *big.Int) (*domain.Outcome, error) {
	conn, err := s.connector.GetConnection(ctx)
	if err != nil {
		return nil, err
	}
	client := conn.Client
	from := conn.Identity.Address()

	var nonce uint64
	if attempt == 1 && req.Nonce != nil {
		nonce = *req.Nonce
	} else {
		nonce, err = client.PendingNonceAt(ctx, from)
		if err != nil {
			return nil, fmt.Errorf("pending nonce: %w", err)
		}
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		estimate, err := client.EstimateGas(ctx, ethereum.CallMsg{
			From:     from,
			To:       req.To,
			GasPrice: gasPrice,
			Value:    value,
			Data:     req.Data,
		})
		if err != nil {
			return nil, fmt.Errorf("estimate gas: %w", err)
		}
		gasLimit = estimate + estimate*uint64(s.cfg.GasMarginPercent)/100
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       req.To,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     req.Data,
	})

	signed, err := conn.Identity.SignTx(tx, chainID)
	if err != nil {
		return nil, err
	}

	if err := client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	hash := signed.Hash()
	s.logger.Info(ctx, "transaction sent",
		"label", req.Label,
		"hash", hash.Hex(),
		"endpoint", conn.Endpoint.Host(),
		"nonce", nonce,
		"gas_price_wei", gasPrice.String(),
		"gas_limit", gasLimit)

	sentAt := s.clock.Now()
	receipt, err := s.awaitReceipt(ctx, client, hash)
	if err != nil {
		return nil, err
	}
	s.metrics.confirmTime.Record(ctx, s.clock.Since(sentAt).Seconds())

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, apperror.New(apperror.CodeTransactionReverted,
			apperror.WithContext(fmt.Sprintf("%s in block %s", hash.Hex(), receipt.BlockNumber)))
	}

	out := &domain.Outcome{
		Hash:     hash,
		Receipt:  receipt,
		Endpoint: conn.Endpoint,
		GasPrice: gasPrice,
		Nonce:    nonce,
	}
	if req.IsContractCreation() {
		addr := receipt.ContractAddress
		if addr == (common.Address{}) {
			addr = crypto.CreateAddress(from, nonce)
		}
		out.ContractAddress = &addr
	}

	s.logger.Success(ctx, "transaction confirmed",
		"label", req.Label,
		"hash", hash.Hex(),
		"block", receipt.BlockNumber,
		"gas_used", receipt.GasUsed)

	return out, nil
}

// awaitReceipt polls for the receipt until ReceiptTimeout. Lookup errors
// other than not-found are logged and polled through.
func (s *Submitter) awaitReceipt(ctx context.Context, client interface {
	TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error)
}, hash common.Hash) (*types.Receipt, error) {
	deadline := s.clock.Now().Add(s.cfg.ReceiptTimeout)

	for {
		receipt, err := client.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Debug(ctx, "receipt lookup failed", "hash", hash.Hex(), "error", err)
		}

		if !s.clock.Now().Before(deadline) {
			return nil, apperror.New(apperror.CodeReceiptTimeout,
				apperror.WithContext(fmt.Sprintf("%s after %s", hash.Hex(), s.cfg.ReceiptTimeout)))
		}

		if err := s.pause(ctx, s.cfg.ReceiptPoll); err != nil {
			return nil, err
		}
	}
}

func isTerminal(err error) bool {
	switch apperror.GetCode(err) {
	case apperror.CodeTransactionReverted, apperror.CodeReceiptTimeout, apperror.CodeNoEndpoints:
		return true
	}
	return false
}
