package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fd1az/token-deployer/business/token/domain"
	"github.com/fd1az/token-deployer/pkg/ui/components"
)

// Operations is what the menu drives.
type Operations interface {
	Deploy(ctx context.Context, params domain.DeployParams) (*domain.DeployResult, error)
	SendNative(ctx context.Context, to, amount string) (*domain.TransferResult, error)
	SendToken(ctx context.Context, to, amount string) (*domain.TransferResult, error)
	Status(ctx context.Context) (*domain.Status, error)
}

// Options configures the menu.
type Options struct {
	Deploy      domain.DeployParams // form defaults
	ExplorerURL string
}

// Action is a menu entry.
type Action int

const (
	ActionDeploy Action = iota
	ActionSendNative
	ActionSendToken
	ActionStatus
	ActionExit
)

var actions = []Action{ActionDeploy, ActionSendNative, ActionSendToken, ActionStatus, ActionExit}

func (a Action) String() string {
	switch a {
	case ActionDeploy:
		return "Deploy token"
	case ActionSendNative:
		return "Send native coin"
	case ActionSendToken:
		return "Send token"
	case ActionStatus:
		return "Wallet status"
	case ActionExit:
		return "Exit"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

type field struct {
	label string
	input textinput.Model
}

func newField(label, placeholder, value string, limit int) field {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = "› "
	ti.SetValue(value)
	return field{label: label, input: ti}
}

// fieldsFor returns the form for a, or nil when a runs without input.
func fieldsFor(a Action, opts Options) []field {
	switch a {
	case ActionDeploy:
		return []field{
			newField("Name", "My Token", opts.Deploy.Name, 64),
			newField("Symbol", "MTK", opts.Deploy.Symbol, 11),
			newField("Supply", "1000000", opts.Deploy.Supply, 40),
		}
	case ActionSendNative, ActionSendToken:
		return []field{
			newField("Recipient", "0x…", "", 42),
			newField("Amount", "0.01", "", 40),
		}
	default:
		return nil
	}
}

// run builds the command for a with the submitted form values.
func run(ctx context.Context, ops Operations, opts Options, a Action, values []string) tea.Cmd {
	switch a {
	case ActionDeploy:
		return func() tea.Msg {
			// Decimals are fixed by the contract source.
			params := domain.DeployParams{
				Name:     values[0],
				Symbol:   values[1],
				Supply:   values[2],
				Decimals: opts.Deploy.Decimals,
			}
			res, err := ops.Deploy(ctx, params)
			if err != nil {
				return ActionDoneMsg{Action: a, Err: err}
			}
			return ActionDoneMsg{Action: a, Summary: DeploySummary(res, opts.ExplorerURL)}
		}
	case ActionSendNative, ActionSendToken:
		send := ops.SendNative
		if a == ActionSendToken {
			send = ops.SendToken
		}
		return func() tea.Msg {
			res, err := send(ctx, values[0], values[1])
			if err != nil {
				return ActionDoneMsg{Action: a, Err: err}
			}
			return ActionDoneMsg{Action: a, Summary: TransferSummary(res, opts.ExplorerURL)}
		}
	case ActionStatus:
		return refreshStatus(ctx, ops)
	default:
		return nil
	}
}

func refreshStatus(ctx context.Context, ops Operations) tea.Cmd {
	return func() tea.Msg {
		st, err := ops.Status(ctx)
		return StatusMsg{Status: st, Err: err}
	}
}

// DeploySummary renders a deploy result as display lines.
func DeploySummary(res *domain.DeployResult, explorer string) []string {
	lines := []string{fmt.Sprintf("Contract: %s", res.Address.Hex())}
	if res.Outcome != nil {
		lines = append(lines,
			fmt.Sprintf("Tx: %s", res.Outcome.Hash.Hex()),
			fmt.Sprintf("Attempts: %d via %s", res.Outcome.Attempts, res.Outcome.Endpoint.Host()),
		)
	}
	if link := explorerLink(explorer, "address", res.Address.Hex()); link != "" {
		lines = append(lines, "Explorer: "+link)
	}
	switch {
	case res.Verified:
		lines = append(lines, "Verified: yes")
	case res.VerifyErr != nil:
		lines = append(lines, "Verified: no ("+res.VerifyErr.Error()+")")
	}
	if res.StoreErr != nil {
		lines = append(lines, "Address not saved: "+res.StoreErr.Error())
	}
	return lines
}

// TransferSummary renders a transfer result as display lines.
func TransferSummary(res *domain.TransferResult, explorer string) []string {
	lines := []string{
		fmt.Sprintf("Sent %s to %s", res.Amount, res.To.Hex()),
	}
	if res.Outcome != nil {
		lines = append(lines,
			fmt.Sprintf("Tx: %s", res.Outcome.Hash.Hex()),
			fmt.Sprintf("Attempts: %d via %s", res.Outcome.Attempts, res.Outcome.Endpoint.Host()),
		)
		if link := explorerLink(explorer, "tx", res.Outcome.Hash.Hex()); link != "" {
			lines = append(lines, "Explorer: "+link)
		}
	}
	return lines
}

func explorerLink(base, kind, id string) string {
	if base == "" {
		return ""
	}
	return strings.TrimSuffix(base, "/") + "/" + kind + "/" + id
}

// StatusSummary renders a status snapshot as display lines.
func StatusSummary(st *domain.Status) []string {
	ws := toWalletStatus(st)
	lines := []string{
		"Endpoint: " + ws.Endpoint,
		"Address: " + ws.Address,
		fmt.Sprintf("Block: #%d", ws.BlockNumber),
		"Balance: " + ws.Balance,
	}
	if ws.Contract != "" {
		lines = append(lines, "Token: "+ws.Contract)
	}
	if ws.TokenBalance != "" {
		lines = append(lines, "Token balance: "+ws.TokenBalance)
	}
	if ws.Ready {
		lines = append(lines, "Ready: yes")
	} else {
		lines = append(lines, "Ready: no ("+ws.Reason+")")
	}
	return lines
}

// toWalletStatus converts a domain snapshot for the status panel.
func toWalletStatus(st *domain.Status) components.WalletStatus {
	ws := components.WalletStatus{
		Endpoint:    st.Endpoint.Host(),
		Address:     st.Address.Hex(),
		BlockNumber: st.BlockNumber,
		Balance:     st.NativeBalance.String(),
		Ready:       st.Ready,
		Reason:      st.Reason,
	}
	if st.Contract != nil && *st.Contract != (common.Address{}) {
		ws.Contract = st.Contract.Hex()
	}
	if st.TokenBalance != nil {
		ws.TokenBalance = st.TokenBalance.String()
	}
	return ws
}
