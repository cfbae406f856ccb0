package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/token-deployer/business/network/app"
	"github.com/fd1az/token-deployer/business/network/domain"
	"github.com/fd1az/token-deployer/business/network/networktest"
	"github.com/fd1az/token-deployer/internal/logger"
)

func TestProber_ProbeAll(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMock()
	clk.Set(now)

	dialer := networktest.NewFakeDialer()

	fresh := networktest.NewFakeClient()
	fresh.BlockNumber = 500
	fresh.BlockTime = func() time.Time { return now.Add(-12 * time.Second) }
	dialer.Add("https://fresh.example", fresh)

	stale := networktest.NewFakeClient()
	stale.BlockTime = func() time.Time { return now.Add(-5 * time.Minute) }
	dialer.Add("https://stale.example", stale)

	dialer.Errors["https://down.example"] = errors.New("connection refused")

	failing := networktest.NewFakeClient()
	failing.HeaderFn = func(context.Context) (*types.Header, error) { return nil, errors.New("502 bad gateway") }
	dialer.Add("https://failing.example", failing)

	p, err := app.NewProber(app.DefaultProberConfig(), dialer, clk, logger.Discard())
	if err != nil {
		t.Fatalf("NewProber() error = %v", err)
	}

	eps := []domain.Endpoint{
		"https://down.example",
		"https://stale.example",
		"https://fresh.example",
		"https://failing.example",
	}
	results := p.ProbeAll(context.Background(), eps)

	if len(results) != len(eps) {
		t.Fatalf("got %d results, want %d", len(results), len(eps))
	}
	for i, r := range results {
		if r.Endpoint != eps[i] {
			t.Errorf("results[%d].Endpoint = %s, want %s", i, r.Endpoint, eps[i])
		}
	}

	if results[0].Reachable || results[0].Err == nil {
		t.Errorf("down endpoint: %+v", results[0])
	}
	if !results[1].Reachable || results[1].Viable(30*time.Second) {
		t.Errorf("stale endpoint should be reachable but not viable: %+v", results[1])
	}
	if results[1].Freshness != 5*time.Minute {
		t.Errorf("stale freshness = %v", results[1].Freshness)
	}
	if !results[2].Viable(30*time.Second) || results[2].BlockNumber != 500 {
		t.Errorf("fresh endpoint: %+v", results[2])
	}
	if results[3].Reachable {
		t.Errorf("failing endpoint should be unreachable: %+v", results[3])
	}

	best, ok := domain.Best(results, 30*time.Second)
	if !ok || best.Endpoint != "https://fresh.example" {
		t.Errorf("Best() = %s, %v", best.Endpoint, ok)
	}
}

func TestProber_Timeout(t *testing.T) {
	dialer := networktest.NewFakeDialer()
	slow := networktest.NewFakeClient()
	slow.Delay = time.Second
	dialer.Add("https://slow.example", slow)

	cfg := app.DefaultProberConfig()
	cfg.Timeout = 20 * time.Millisecond

	p, err := app.NewProber(cfg, dialer, clock.New(), logger.Discard())
	if err != nil {
		t.Fatalf("NewProber() error = %v", err)
	}

	start := time.Now()
	results := p.ProbeAll(context.Background(), []domain.Endpoint{"https://slow.example"})
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("probe took %v, timeout not applied", elapsed)
	}
	if results[0].Reachable {
		t.Error("timed out endpoint reported reachable")
	}
	if !errors.Is(results[0].Err, context.DeadlineExceeded) {
		t.Errorf("Err = %v, want deadline exceeded", results[0].Err)
	}
}
