package app_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	networkdomain "github.com/fd1az/token-deployer/business/network/domain"
	"github.com/fd1az/token-deployer/business/network/networktest"
	"github.com/fd1az/token-deployer/business/transaction/app"
	"github.com/fd1az/token-deployer/business/transaction/domain"
	walletapp "github.com/fd1az/token-deployer/business/wallet/app"
	walletdomain "github.com/fd1az/token-deployer/business/wallet/domain"
	"github.com/fd1az/token-deployer/internal/apperror"
	"github.com/fd1az/token-deployer/internal/logger"
)

const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

const gwei = 1_000_000_000

type staticSelector networkdomain.Endpoint

func (s staticSelector) SelectStable(context.Context) (networkdomain.Endpoint, error) {
	return networkdomain.Endpoint(s), nil
}

type harness struct {
	clk       *clock.Mock
	client    *networktest.FakeClient
	identity  *walletdomain.Identity
	submitter *app.Submitter
	pauses    []time.Duration
}

func newHarness(t *testing.T, cfg app.SubmitterConfig) *harness {
	t.Helper()

	h := &harness{clk: clock.NewMock()}
	h.client = networktest.NewFakeClient()

	dialer := networktest.NewFakeDialer()
	dialer.Add("https://rpc.example", h.client)

	var err error
	h.identity, err = walletdomain.NewIdentity(testKey)
	if err != nil {
		t.Fatal(err)
	}
	factory := walletapp.NewConnectionFactory(staticSelector("https://rpc.example"), dialer, h.identity)

	pauseFn := func(ctx context.Context, d time.Duration) error {
		h.pauses = append(h.pauses, d)
		h.clk.Add(d)
		return ctx.Err()
	}

	h.submitter, err = app.NewSubmitter(cfg, factory, h.clk, pauseFn, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func transfer() domain.Request {
	to := common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	return domain.Request{To: &to, Value: big.NewInt(1000), Label: "transfer"}
}

// failSends makes the first n sends fail with msg.
func failSends(c *networktest.FakeClient, n int, msg string) {
	calls := 0
	c.SendFn = func(context.Context, *types.Transaction) error {
		calls++
		if calls <= n {
			return errors.New(msg)
		}
		return nil
	}
}

func TestSubmit_Success(t *testing.T) {
	h := newHarness(t, app.DefaultSubmitterConfig())
	h.client.NonceFn = func(context.Context, common.Address) (uint64, error) { return 4, nil }

	out, err := h.submitter.Submit(context.Background(), transfer())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if out.Attempts != 1 || out.Nonce != 4 || out.Endpoint != "https://rpc.example" {
		t.Errorf("outcome = %+v", out)
	}
	if out.ContractAddress != nil {
		t.Error("transfer should not have a contract address")
	}

	sent := h.client.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d transactions, want 1", len(sent))
	}
	tx := sent[0]
	if tx.Gas() != 23100 {
		t.Errorf("gas limit = %d, want estimate plus 10%%", tx.Gas())
	}
	if tx.GasPrice().Int64() != gwei {
		t.Errorf("gas price = %s", tx.GasPrice())
	}
	if tx.Hash() != out.Hash {
		t.Error("outcome hash differs from sent transaction")
	}

	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil || from != h.identity.Address() {
		t.Errorf("sender = %s, %v", from.Hex(), err)
	}
	if len(h.pauses) != 0 {
		t.Errorf("unexpected pauses %v", h.pauses)
	}
}

func TestSubmit_CallerGasPriceSkipsFetch(t *testing.T) {
	h := newHarness(t, app.DefaultSubmitterConfig())

	req := transfer()
	req.GasPrice = big.NewInt(3 * gwei)
	req.GasLimit = 50_000

	if _, err := h.submitter.Submit(context.Background(), req); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if n := h.client.GasPriceCalls.Load(); n != 0 {
		t.Errorf("SuggestGasPrice called %d times", n)
	}
	tx := h.client.Sent()[0]
	if tx.GasPrice().Int64() != 3*gwei || tx.Gas() != 50_000 {
		t.Errorf("tx gas = %d @ %s", tx.Gas(), tx.GasPrice())
	}
}

func TestSubmit_NonceTooLowRetries(t *testing.T) {
	h := newHarness(t, app.DefaultSubmitterConfig())
	failSends(h.client, 1, "nonce too low")
	h.client.NonceFn = func(context.Context, common.Address) (uint64, error) { return 9, nil }

	req := transfer()
	pinned := uint64(7)
	req.Nonce = &pinned

	out, err := h.submitter.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	sent := h.client.Sent()
	if len(sent) != 2 {
		t.Fatalf("sent %d, want 2", len(sent))
	}
	if sent[0].Nonce() != 7 || sent[1].Nonce() != 9 {
		t.Errorf("nonces = %d, %d; want pinned 7 then fetched 9", sent[0].Nonce(), sent[1].Nonce())
	}
	if out.Attempts != 2 || out.Nonce != 9 {
		t.Errorf("outcome = %+v", out)
	}
	if len(h.pauses) != 1 || h.pauses[0] != 5*time.Second {
		t.Errorf("pauses = %v, want [5s]", h.pauses)
	}
}

func TestSubmit_FeeTooLowBumpsSuggestion(t *testing.T) {
	h := newHarness(t, app.DefaultSubmitterConfig())
	failSends(h.client, 1, "replacement transaction underpriced")

	prices := []int64{1 * gwei, 2 * gwei}
	h.client.GasPriceFn = func(context.Context) (*big.Int, error) {
		p := prices[0]
		prices = prices[1:]
		return big.NewInt(p), nil
	}

	if _, err := h.submitter.Submit(context.Background(), transfer()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	sent := h.client.Sent()
	if len(sent) != 2 {
		t.Fatalf("sent %d, want 2", len(sent))
	}
	if got := sent[1].GasPrice().Int64(); got != 2_400_000_000 {
		t.Errorf("retry gas price = %d, want fresh suggestion * 1.2", got)
	}
	if len(h.pauses) != 0 {
		t.Errorf("fee retry should not wait, pauses = %v", h.pauses)
	}
}

func TestSubmit_TransportExhaustsRetries(t *testing.T) {
	h := newHarness(t, app.DefaultSubmitterConfig())
	failSends(h.client, 10, "502 Bad Gateway")

	_, err := h.submitter.Submit(context.Background(), transfer())
	if !errors.Is(err, domain.ErrTransactionFailed) {
		t.Fatalf("Submit() error = %v, want TRANSACTION_FAILED", err)
	}
	if !strings.Contains(err.Error(), "exhausted retries") || !strings.Contains(err.Error(), "502") {
		t.Errorf("error = %v", err)
	}
	if n := len(h.client.Sent()); n != 3 {
		t.Errorf("sent %d, want 3", n)
	}
	if len(h.pauses) != 2 {
		t.Errorf("pauses = %v, want two 10s waits and none after the last attempt", h.pauses)
	}
	for _, d := range h.pauses {
		if d != 10*time.Second {
			t.Errorf("pause = %v", d)
		}
	}
}

func TestSubmit_OtherErrorIsNotRetried(t *testing.T) {
	for _, msg := range []string{
		"insufficient funds for gas * price + value",
		"insufficient funds for gas * price + value: address 0x70997970C51812dc3A010C7d01b50e0d17dc79C8 have 9502000000000000 want 10000000000000000",
	} {
		t.Run(msg, func(t *testing.T) {
			h := newHarness(t, app.DefaultSubmitterConfig())
			failSends(h.client, 10, msg)

			_, err := h.submitter.Submit(context.Background(), transfer())
			if !errors.Is(err, apperror.New(apperror.CodeTransactionRejected)) {
				t.Fatalf("Submit() error = %v, want TRANSACTION_REJECTED", err)
			}
			if errors.Is(err, domain.ErrTransactionFailed) {
				t.Error("rejection must not look like exhaustion")
			}
			if !strings.Contains(err.Error(), "insufficient funds") {
				t.Errorf("cause lost: %v", err)
			}
			if n := len(h.client.Sent()); n != 1 {
				t.Errorf("sent %d, want 1", n)
			}
			if len(h.pauses) != 0 {
				t.Errorf("unexpected pauses %v", h.pauses)
			}
		})
	}
}

func TestSubmit_RevertIsTerminal(t *testing.T) {
	h := newHarness(t, app.DefaultSubmitterConfig())
	h.client.ReceiptFn = func(_ context.Context, hash common.Hash) (*types.Receipt, error) {
		return &types.Receipt{Status: types.ReceiptStatusFailed, TxHash: hash, BlockNumber: big.NewInt(1)}, nil
	}

	out, err := h.submitter.Submit(context.Background(), transfer())
	if out != nil {
		t.Fatal("reverted transaction returned an outcome")
	}
	if !errors.Is(err, apperror.New(apperror.CodeTransactionReverted)) {
		t.Fatalf("Submit() error = %v, want TRANSACTION_REVERTED", err)
	}
	if n := len(h.client.Sent()); n != 1 {
		t.Errorf("sent %d, want 1", n)
	}
}

func TestSubmit_PollsForReceipt(t *testing.T) {
	h := newHarness(t, app.DefaultSubmitterConfig())

	polls := 0
	h.client.ReceiptFn = func(_ context.Context, hash common.Hash) (*types.Receipt, error) {
		polls++
		switch polls {
		case 1:
			return nil, ethereum.NotFound
		case 2:
			return nil, errors.New("502 bad gateway")
		}
		return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash, BlockNumber: big.NewInt(1)}, nil
	}

	out, err := h.submitter.Submit(context.Background(), transfer())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Attempts != 1 {
		t.Errorf("receipt polling must not count as a retry, attempts = %d", out.Attempts)
	}
	if len(h.pauses) != 2 || h.pauses[0] != 2*time.Second {
		t.Errorf("pauses = %v, want two 2s polls", h.pauses)
	}
}

func TestSubmit_ReceiptTimeout(t *testing.T) {
	cfg := app.DefaultSubmitterConfig()
	cfg.ReceiptTimeout = 10 * time.Second

	h := newHarness(t, cfg)
	h.client.ReceiptFn = func(context.Context, common.Hash) (*types.Receipt, error) {
		return nil, ethereum.NotFound
	}

	_, err := h.submitter.Submit(context.Background(), transfer())
	if !errors.Is(err, apperror.New(apperror.CodeReceiptTimeout)) {
		t.Fatalf("Submit() error = %v, want RECEIPT_TIMEOUT", err)
	}
	if len(h.pauses) != 5 {
		t.Errorf("polled %d times, want 5", len(h.pauses))
	}
}

func TestSubmit_ContractCreation(t *testing.T) {
	h := newHarness(t, app.DefaultSubmitterConfig())
	h.client.NonceFn = func(context.Context, common.Address) (uint64, error) { return 2, nil }

	out, err := h.submitter.Submit(context.Background(), domain.Request{Data: []byte{0x60, 0x80}, Label: "deploy"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	want := crypto.CreateAddress(h.identity.Address(), 2)
	if out.ContractAddress == nil || *out.ContractAddress != want {
		t.Errorf("ContractAddress = %v, want %s", out.ContractAddress, want.Hex())
	}
	if h.client.Sent()[0].To() != nil {
		t.Error("contract creation must have no recipient")
	}
}

func TestSubmit_GasPriceFetchFailure(t *testing.T) {
	h := newHarness(t, app.DefaultSubmitterConfig())
	h.client.GasPriceFn = func(context.Context) (*big.Int, error) {
		return nil, errors.New("connection reset")
	}

	_, err := h.submitter.Submit(context.Background(), transfer())
	if !errors.Is(err, apperror.New(apperror.CodeEthereumRPCError)) {
		t.Fatalf("Submit() error = %v, want ETHEREUM_RPC_ERROR", err)
	}
	if n := len(h.client.Sent()); n != 0 {
		t.Errorf("sent %d, want 0", n)
	}
}

func TestSubmit_ContextCancelled(t *testing.T) {
	h := newHarness(t, app.DefaultSubmitterConfig())

	ctx, cancel := context.WithCancel(context.Background())
	h.client.SendFn = func(context.Context, *types.Transaction) error {
		cancel()
		return errors.New("502 Bad Gateway")
	}

	_, err := h.submitter.Submit(ctx, transfer())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Submit() error = %v, want context.Canceled", err)
	}
	if n := len(h.client.Sent()); n != 1 {
		t.Errorf("sent %d, want 1", n)
	}
}
