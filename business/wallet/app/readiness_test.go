package app_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/token-deployer/business/network/networktest"
	"github.com/fd1az/token-deployer/business/wallet/app"
	"github.com/fd1az/token-deployer/business/wallet/domain"
	"github.com/fd1az/token-deployer/internal/apperror"
	"github.com/fd1az/token-deployer/internal/asset"
	"github.com/fd1az/token-deployer/internal/logger"
)

const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type fixture struct {
	clk     *clock.Mock
	client  *networktest.FakeClient
	monitor *app.ReadinessMonitor
	pauses  []time.Duration
}

// newFixture wires a monitor whose pause advances the mock clock.
func newFixture(t *testing.T, cfg app.ReadinessConfig) *fixture {
	t.Helper()

	f := &fixture{clk: clock.NewMock()}
	f.clk.Set(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	f.client = networktest.NewFakeClient()
	f.client.BlockTime = func() time.Time { return f.clk.Now().Add(-5 * time.Second) }

	dialer := networktest.NewFakeDialer()
	dialer.Add("https://rpc.example", f.client)

	id, err := domain.NewIdentity(testKey)
	if err != nil {
		t.Fatal(err)
	}
	factory := app.NewConnectionFactory(staticSelector("https://rpc.example"), dialer, id)

	pauseFn := func(ctx context.Context, d time.Duration) error {
		f.pauses = append(f.pauses, d)
		f.clk.Add(d)
		return ctx.Err()
	}

	f.monitor, err = app.NewReadinessMonitor(cfg, factory, asset.SepoliaETH, f.clk, pauseFn, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestReadiness_Check(t *testing.T) {
	tests := []struct {
		name      string
		blockAge  time.Duration
		balance   *big.Int
		wantReady bool
	}{
		{"fresh and funded", 5 * time.Second, networktest.OneEther, true},
		{"exactly at max age", 30 * time.Second, networktest.OneEther, true},
		{"stale head", 31 * time.Second, networktest.OneEther, false},
		{"exactly min balance", time.Second, big.NewInt(10_000_000_000_000_000), true},
		{"below min balance", time.Second, big.NewInt(9_999_999_999_999_999), false},
		{"empty wallet", time.Second, big.NewInt(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, app.DefaultReadinessConfig())
			f.client.BlockTime = func() time.Time { return f.clk.Now().Add(-tt.blockAge) }
			f.client.BalanceFn = func(context.Context, common.Address) (*big.Int, error) {
				return tt.balance, nil
			}

			r, err := f.monitor.Check(context.Background())
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if r.Ready != tt.wantReady {
				t.Errorf("Ready = %v, want %v (reason %q)", r.Ready, tt.wantReady, r.Reason)
			}
			if !tt.wantReady && r.Reason == "" {
				t.Error("expected a reason when not ready")
			}
			if f.monitor.IsReady(context.Background()) != tt.wantReady {
				t.Error("IsReady disagrees with Check")
			}
		})
	}
}

func TestReadiness_IsReadySwallowsErrors(t *testing.T) {
	f := newFixture(t, app.DefaultReadinessConfig())
	f.client.BalanceFn = func(context.Context, common.Address) (*big.Int, error) {
		return nil, errors.New("502 bad gateway")
	}

	if f.monitor.IsReady(context.Background()) {
		t.Error("IsReady() = true on RPC error")
	}
	if _, err := f.monitor.Check(context.Background()); !errors.Is(err, apperror.New(apperror.CodeEthereumRPCError)) {
		t.Errorf("Check() error = %v", err)
	}
}

func TestReadiness_WaitUntilReady(t *testing.T) {
	f := newFixture(t, app.DefaultReadinessConfig())

	calls := 0
	f.client.BalanceFn = func(context.Context, common.Address) (*big.Int, error) {
		calls++
		if calls < 3 {
			return big.NewInt(0), nil
		}
		return networktest.OneEther, nil
	}

	if err := f.monitor.WaitUntilReady(context.Background()); err != nil {
		t.Fatalf("WaitUntilReady() error = %v", err)
	}
	if len(f.pauses) != 2 {
		t.Fatalf("paused %d times, want 2", len(f.pauses))
	}
	for _, d := range f.pauses {
		if d != 10*time.Second {
			t.Errorf("pause = %v, want 10s", d)
		}
	}
}

func TestReadiness_WaitUntilReadyMaxWait(t *testing.T) {
	cfg := app.DefaultReadinessConfig()
	cfg.MaxWait = 25 * time.Second

	f := newFixture(t, cfg)
	f.client.BalanceFn = func(context.Context, common.Address) (*big.Int, error) {
		return big.NewInt(0), nil
	}

	err := f.monitor.WaitUntilReady(context.Background())
	if !errors.Is(err, apperror.New(apperror.CodeReadinessTimeout)) {
		t.Fatalf("WaitUntilReady() error = %v, want READINESS_TIMEOUT", err)
	}
	if len(f.pauses) != 3 {
		t.Errorf("paused %d times, want 3", len(f.pauses))
	}
}

func TestReadiness_WaitUntilReadyCancelled(t *testing.T) {
	f := newFixture(t, app.DefaultReadinessConfig())
	f.client.BalanceFn = func(context.Context, common.Address) (*big.Int, error) {
		return big.NewInt(0), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	checks := 0
	f.client.BlockTime = func() time.Time {
		checks++
		if checks == 2 {
			cancel()
		}
		return f.clk.Now()
	}

	if err := f.monitor.WaitUntilReady(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("WaitUntilReady() error = %v, want canceled", err)
	}
}
