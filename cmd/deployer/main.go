// Package main is the entry point for the token deployer.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/token-deployer/business/network"
	networkDI "github.com/fd1az/token-deployer/business/network/di"
	"github.com/fd1az/token-deployer/business/token"
	tokenapp "github.com/fd1az/token-deployer/business/token/app"
	tokenDI "github.com/fd1az/token-deployer/business/token/di"
	tokendomain "github.com/fd1az/token-deployer/business/token/domain"
	"github.com/fd1az/token-deployer/business/transaction"
	"github.com/fd1az/token-deployer/business/wallet"
	walletDI "github.com/fd1az/token-deployer/business/wallet/di"
	"github.com/fd1az/token-deployer/internal/apm"
	"github.com/fd1az/token-deployer/internal/config"
	"github.com/fd1az/token-deployer/internal/health"
	"github.com/fd1az/token-deployer/internal/logger"
	"github.com/fd1az/token-deployer/internal/metrics"
	"github.com/fd1az/token-deployer/internal/monolith"
	"github.com/fd1az/token-deployer/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// CLI actions accepted by -action.
const (
	actionDeploy     = "deploy"
	actionSendNative = "send-native"
	actionSendToken  = "send-token"
	actionStatus     = "status"
)

type options struct {
	configPath string
	cliMode    bool
	action     string
	to         string
	amount     string
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&opts.cliMode, "cli", false, "Run a single action with logs on stderr (no TUI)")
	flag.StringVar(&opts.action, "action", actionStatus, "CLI action: deploy, send-native, send-token or status")
	flag.StringVar(&opts.to, "to", "", "Recipient address for send actions")
	flag.StringVar(&opts.amount, "amount", "", "Amount in whole units for send actions")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("token-deployer %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if opts.cliMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	tuiMode := !opts.cliMode
	cfg.App.TUIMode = tuiMode

	log := newLogger(cfg, tuiMode)
	if !tuiMode {
		log.Info(ctx, "starting token deployer",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	stopTelemetry, err := startTelemetry(ctx, cfg, log, tuiMode)
	if err != nil {
		return err
	}
	defer stopTelemetry()

	mono := monolith.New(cfg, log, nil)
	defer mono.Close()

	// Define modules in dependency order
	steps := []startupStep{
		{name: "network", modules: []monolith.Module{&network.Module{}}},
		{name: "wallet", modules: []monolith.Module{&wallet.Module{PrivateKey: cfg.Wallet.PrivateKey}, &transaction.Module{}}},
		{name: "token", modules: []monolith.Module{&token.Module{}}},
	}
	var modules []monolith.Module
	for _, s := range steps {
		modules = append(modules, s.modules...)
	}
	cfg.Wallet.PrivateKey = ""

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if cfg.Health.Enabled {
		hs := newHealthServer(cfg, mono, log)
		hs.Start(ctx)
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = hs.Stop(stopCtx)
		}()
	}

	svc := tokenDI.GetService(mono.Services())

	if tuiMode {
		return runTUI(ctx, cfg, mono.StartModules, steps, svc)
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	return runCLI(ctx, cfg, svc, opts, os.Stdout)
}

func newLogger(cfg *config.Config, tuiMode bool) *logger.Logger {
	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	if !tuiMode {
		return logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
	}

	// In TUI mode records go to the log panel instead of the terminal
	forward := func(ctx context.Context, r logger.Record) {
		ui.Send(ui.LogMsg{Level: logger.LevelString(r.Level), Message: formatRecord(r)})
	}
	events := &logger.Events{
		Info:    forward,
		Success: forward,
		Warn:    forward,
		Error:   forward,
	}
	if logLevel <= logger.LevelDebug {
		events.Debug = forward
	}
	if logLevel > logger.LevelInfo {
		events.Info, events.Success = nil, nil
	}
	return logger.New(io.Discard, logLevel, cfg.App.Name, events)
}

// formatRecord renders a record as "msg key=value ..." with sorted keys.
func formatRecord(r logger.Record) string {
	var sb strings.Builder
	sb.WriteString(r.Message)
	for _, k := range slices.Sorted(maps.Keys(r.Attributes)) {
		if k == "trace_id" || k == "span_id" {
			continue
		}
		fmt.Fprintf(&sb, " %s=%v", k, r.Attributes[k])
	}
	return sb.String()
}

func startTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface, tuiMode bool) (func(), error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil
	}

	var spanOut io.Writer = os.Stderr
	if tuiMode {
		spanOut = io.Discard
	}
	traceProvider, err := apm.NewTraceProvider(ctx, log, apm.Config{
		Provider:    apm.Provider(cfg.Telemetry.Exporter),
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.OTLPHeaders,
		Writer:      spanOut,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start tracing: %w", err)
	}

	_, reg, err := metrics.NewMetricProvider(ctx,
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithPrometheus(),
	)
	if err != nil {
		_ = traceProvider.Stop()
		return nil, fmt.Errorf("failed to start metrics: %w", err)
	}

	port := cfg.Telemetry.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go func() {
		if err := metrics.ServePrometheusMetrics(ctx, log, reg, port); err != nil {
			log.Warn(ctx, "prometheus metrics server stopped", "error", err)
		}
	}()

	return func() {
		if err := traceProvider.Stop(); err != nil {
			log.Warn(ctx, "failed to flush traces", "error", err)
		}
	}, nil
}

func newHealthServer(cfg *config.Config, mono monolith.Monolith, log logger.LoggerInterface) *health.Server {
	hs := health.NewServer(cfg.Health.Port, version, log)

	selector := networkDI.GetSelector(mono.Services())
	hs.RegisterCheck("endpoint", func(ctx context.Context) (bool, string) {
		sel, ok := selector.Current(ctx)
		if !ok {
			return false, "no endpoint selected"
		}
		if sel.Fallback {
			return false, "fallback " + sel.Endpoint.Host()
		}
		return true, sel.Endpoint.Host()
	})

	readiness := walletDI.GetReadinessMonitor(mono.Services())
	hs.RegisterCheck("wallet", func(ctx context.Context) (bool, string) {
		if !readiness.IsReady(ctx) {
			return false, "not ready"
		}
		return true, "ready"
	})

	return hs
}

func runCLI(ctx context.Context, cfg *config.Config, svc *tokenapp.Service, opts options, out io.Writer) error {
	var lines []string

	switch opts.action {
	case actionDeploy:
		res, err := svc.Deploy(ctx, deployDefaults(cfg))
		if err != nil {
			return err
		}
		lines = ui.DeploySummary(res, cfg.Network.ExplorerURL)
	case actionSendNative, actionSendToken:
		if opts.to == "" || opts.amount == "" {
			return fmt.Errorf("-to and -amount are required for %s", opts.action)
		}
		send := svc.SendNative
		if opts.action == actionSendToken {
			send = svc.SendToken
		}
		res, err := send(ctx, opts.to, opts.amount)
		if err != nil {
			return err
		}
		lines = ui.TransferSummary(res, cfg.Network.ExplorerURL)
	case actionStatus:
		st, err := svc.Status(ctx)
		if err != nil {
			return err
		}
		lines = ui.StatusSummary(st)
	default:
		return fmt.Errorf("unknown action %q", opts.action)
	}

	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
	return nil
}

func deployDefaults(cfg *config.Config) tokendomain.DeployParams {
	return tokendomain.DeployParams{
		Name:     cfg.Token.Name,
		Symbol:   cfg.Token.Symbol,
		Supply:   cfg.Token.Supply,
		Decimals: cfg.Token.Decimals,
	}
}

type startupStep struct {
	name    string
	modules []monolith.Module
}

type startFunc func(ctx context.Context, modules ...monolith.Module) error

func runTUI(ctx context.Context, cfg *config.Config, start startFunc, steps []startupStep, svc *tokenapp.Service) error {
	// Modules start once the welcome screen completes; the TUI shows progress.
	ui.OnStartModules = func() {
		ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
		for _, s := range steps {
			ui.Send(ui.StartupMsg{Step: s.name, Status: "connecting"})
			if err := start(ctx, s.modules...); err != nil {
				ui.Send(ui.StartupMsg{Step: s.name, Status: "failed", Message: err.Error()})
				return
			}
			ui.Send(ui.StartupMsg{Step: s.name, Status: "connected"})
		}
		ui.Send(ui.ReadyMsg{})
	}

	err := ui.Run(ctx, svc, ui.Options{
		Deploy:      deployDefaults(cfg),
		ExplorerURL: cfg.Network.ExplorerURL,
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
