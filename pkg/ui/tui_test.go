package ui

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fd1az/token-deployer/business/network/domain"
	tokendomain "github.com/fd1az/token-deployer/business/token/domain"
	txdomain "github.com/fd1az/token-deployer/business/transaction/domain"
	"github.com/fd1az/token-deployer/internal/asset"
)

type fakeOps struct {
	mu       sync.Mutex
	sends    [][2]string
	deploys  []tokendomain.DeployParams
	sendErr  error
	statuses int
}

func (f *fakeOps) Deploy(_ context.Context, p tokendomain.DeployParams) (*tokendomain.DeployResult, error) {
	f.mu.Lock()
	f.deploys = append(f.deploys, p)
	f.mu.Unlock()
	addr := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	return &tokendomain.DeployResult{
		Address:  addr,
		Verified: true,
		Outcome:  &txdomain.Outcome{Hash: common.HexToHash("0x01"), Attempts: 1, Endpoint: "https://rpc.example"},
	}, nil
}

func (f *fakeOps) SendNative(ctx context.Context, to, amount string) (*tokendomain.TransferResult, error) {
	f.mu.Lock()
	f.sends = append(f.sends, [2]string{to, amount})
	err := f.sendErr
	f.mu.Unlock()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	amt, _ := asset.ParsePositive(asset.SepoliaETH, amount)
	return &tokendomain.TransferResult{
		To:      common.HexToAddress(to),
		Amount:  amt,
		Outcome: &txdomain.Outcome{Hash: common.HexToHash("0x02"), Attempts: 2, Endpoint: "https://rpc.example"},
	}, nil
}

func (f *fakeOps) SendToken(ctx context.Context, to, amount string) (*tokendomain.TransferResult, error) {
	return f.SendNative(ctx, to, amount)
}

func (f *fakeOps) Status(context.Context) (*tokendomain.Status, error) {
	f.mu.Lock()
	f.statuses++
	f.mu.Unlock()
	return &tokendomain.Status{
		Endpoint:      domain.Endpoint("https://rpc.example"),
		BlockNumber:   42,
		NativeBalance: asset.NewAmount(asset.SepoliaETH, big.NewInt(1e18)),
		Ready:         true,
	}, nil
}

func press(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

// collect runs cmd and any batched commands, returning the non-batch messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func find[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func readyModel(t *testing.T, ops *fakeOps) Model {
	t.Helper()
	m := New(context.Background(), ops, Options{
		Deploy:      tokendomain.DeployParams{Name: "Deployer Token", Symbol: "DPL", Supply: "1000", Decimals: 18},
		ExplorerURL: "https://sepolia.etherscan.io",
	})
	m, cmd := update(t, m, ReadyMsg{})
	if m.Phase() != PhaseMenu {
		t.Fatalf("phase = %s, want menu", m.Phase())
	}
	st, ok := find[StatusMsg](collect(cmd))
	if !ok {
		t.Fatal("expected status refresh after ready")
	}
	m, _ = update(t, m, st)
	return m
}

func TestModel_ReadyRefreshesStatus(t *testing.T) {
	ops := &fakeOps{}
	m := readyModel(t, ops)

	if m.lastStatus == nil || m.lastStatus.BlockNumber != 42 {
		t.Fatalf("lastStatus = %+v", m.lastStatus)
	}
	if !strings.Contains(m.View(), "Block: #42") {
		t.Error("status bar should show the block number")
	}
}

func TestModel_SendNativeFlow(t *testing.T) {
	ops := &fakeOps{}
	m := readyModel(t, ops)

	m, _ = update(t, m, press(tea.KeyDown))
	m, _ = update(t, m, press(tea.KeyEnter))
	if m.Phase() != PhaseForm || m.action != ActionSendNative {
		t.Fatalf("phase = %s action = %s", m.Phase(), m.action)
	}
	if len(m.fields) != 2 {
		t.Fatalf("fields = %d", len(m.fields))
	}

	to := "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	m, _ = update(t, m, runes(to))
	m, _ = update(t, m, press(tea.KeyEnter))
	m, _ = update(t, m, runes("0.5"))
	m, cmd := update(t, m, press(tea.KeyEnter))
	if m.Phase() != PhaseRunning {
		t.Fatalf("phase = %s, want running", m.Phase())
	}

	done, ok := find[ActionDoneMsg](collect(cmd))
	if !ok {
		t.Fatal("expected ActionDoneMsg")
	}
	if len(ops.sends) != 1 || ops.sends[0] != [2]string{to, "0.5"} {
		t.Fatalf("sends = %v", ops.sends)
	}

	m, cmd = update(t, m, done)
	if m.Phase() != PhaseResult {
		t.Fatalf("phase = %s, want result", m.Phase())
	}
	view := m.View()
	if !strings.Contains(view, "Sent 0.5 ETH") || !strings.Contains(view, "https://sepolia.etherscan.io/tx/") {
		t.Errorf("result view missing summary:\n%s", view)
	}
	if _, ok := find[StatusMsg](collect(cmd)); !ok {
		t.Error("expected status refresh after a successful action")
	}

	m, _ = update(t, m, runes("x"))
	if m.Phase() != PhaseMenu {
		t.Errorf("phase = %s, want menu", m.Phase())
	}
}

func TestModel_DeployUsesFormDefaults(t *testing.T) {
	ops := &fakeOps{}
	m := readyModel(t, ops)

	m, _ = update(t, m, press(tea.KeyEnter))
	if m.Phase() != PhaseForm || m.action != ActionDeploy {
		t.Fatalf("phase = %s action = %s", m.Phase(), m.action)
	}
	for i := 0; i < 2; i++ {
		m, _ = update(t, m, press(tea.KeyEnter))
	}
	m, cmd := update(t, m, press(tea.KeyEnter))

	done, ok := find[ActionDoneMsg](collect(cmd))
	if !ok || done.Err != nil {
		t.Fatalf("done = %+v", done)
	}
	want := tokendomain.DeployParams{Name: "Deployer Token", Symbol: "DPL", Supply: "1000", Decimals: 18}
	if len(ops.deploys) != 1 || ops.deploys[0] != want {
		t.Fatalf("deploys = %+v", ops.deploys)
	}
	if !strings.Contains(strings.Join(done.Summary, "\n"), "Verified: yes") {
		t.Errorf("summary = %v", done.Summary)
	}
}

func TestModel_StatusAction(t *testing.T) {
	ops := &fakeOps{}
	m := readyModel(t, ops)

	for i := 0; i < 3; i++ {
		m, _ = update(t, m, press(tea.KeyDown))
	}
	m, cmd := update(t, m, press(tea.KeyEnter))
	if m.Phase() != PhaseRunning || m.action != ActionStatus {
		t.Fatalf("phase = %s action = %s", m.Phase(), m.action)
	}

	st, ok := find[StatusMsg](collect(cmd))
	if !ok {
		t.Fatal("expected StatusMsg")
	}
	m, _ = update(t, m, st)
	if m.Phase() != PhaseMenu {
		t.Errorf("phase = %s, want menu", m.Phase())
	}
	if ops.statuses != 2 {
		t.Errorf("status calls = %d, want 2", ops.statuses)
	}
}

func TestModel_EscLeavesForm(t *testing.T) {
	m := readyModel(t, &fakeOps{})

	m, _ = update(t, m, press(tea.KeyDown))
	m, _ = update(t, m, press(tea.KeyEnter))
	m, _ = update(t, m, runes("q"))
	if m.Phase() != PhaseForm {
		t.Fatalf("typing q in a form must not quit, phase = %s", m.Phase())
	}
	m, _ = update(t, m, press(tea.KeyEsc))
	if m.Phase() != PhaseMenu || m.fields != nil {
		t.Errorf("phase = %s fields = %d", m.Phase(), len(m.fields))
	}
}

func TestModel_CancelRunningAction(t *testing.T) {
	ops := &fakeOps{}
	m := readyModel(t, ops)

	m, _ = update(t, m, press(tea.KeyDown))
	m, _ = update(t, m, press(tea.KeyEnter))
	m, _ = update(t, m, runes("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	m, _ = update(t, m, press(tea.KeyEnter))
	m, _ = update(t, m, runes("1"))
	m, cmd := update(t, m, press(tea.KeyEnter))

	m, _ = update(t, m, press(tea.KeyEsc))

	done, ok := find[ActionDoneMsg](collect(cmd))
	if !ok || !errors.Is(done.Err, context.Canceled) {
		t.Fatalf("done = %+v", done)
	}
	m, _ = update(t, m, done)
	if m.Phase() != PhaseResult || len(m.errors) != 1 {
		t.Errorf("phase = %s errors = %d", m.Phase(), len(m.errors))
	}
}

func TestModel_IgnoresStaleActionDone(t *testing.T) {
	m := readyModel(t, &fakeOps{})

	m, _ = update(t, m, ActionDoneMsg{Action: ActionDeploy, Err: errors.New("late")})
	if m.Phase() != PhaseMenu || len(m.errors) != 0 {
		t.Errorf("phase = %s errors = %d", m.Phase(), len(m.errors))
	}
}

func TestModel_ExitQuits(t *testing.T) {
	m := readyModel(t, &fakeOps{})

	for i := 0; i < len(actions)-1; i++ {
		m, _ = update(t, m, press(tea.KeyDown))
	}
	m, cmd := update(t, m, press(tea.KeyEnter))
	if !m.quitting || cmd == nil {
		t.Fatal("expected quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestAddLog_KeepsLast(t *testing.T) {
	var logs []string
	for i := 0; i < maxLogs+3; i++ {
		logs = addLog(logs, "INFO", string(rune('a'+i)))
	}
	if len(logs) != maxLogs {
		t.Fatalf("len = %d", len(logs))
	}
	if !strings.HasSuffix(logs[0], "INFO: d") {
		t.Errorf("oldest kept = %q", logs[0])
	}
}
