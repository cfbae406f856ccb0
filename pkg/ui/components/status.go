// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// WalletStatus is the display form of a wallet and network snapshot.
type WalletStatus struct {
	Endpoint     string
	Address      string
	BlockNumber  uint64
	Balance      string
	Ready        bool
	Reason       string
	Contract     string // empty when no token is configured
	TokenBalance string
	UpdatedAt    time.Time
}

// StatusComponent renders the wallet panel.
type StatusComponent struct {
	status *WalletStatus
	err    string
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{}
}

// Update replaces the snapshot and clears any previous error.
func (s *StatusComponent) Update(status WalletStatus) {
	s.status = &status
	s.err = ""
}

// SetError keeps the last snapshot and shows err below it.
func (s *StatusComponent) SetError(err error) {
	if err != nil {
		s.err = err.Error()
	}
}

// View renders the status component.
func (s *StatusComponent) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var sb strings.Builder
	sb.WriteString(header.Render("WALLET"))
	sb.WriteString("\n\n")

	if s.status == nil {
		sb.WriteString(muted.Render("  No status yet"))
	} else {
		st := s.status
		ready := green.Render("● Ready")
		if !st.Ready {
			ready = red.Render("○ Not ready")
			if st.Reason != "" {
				ready += muted.Render(" (" + st.Reason + ")")
			}
		}

		rows := [][2]string{
			{"Endpoint", st.Endpoint},
			{"Address", st.Address},
			{"Block", fmt.Sprintf("#%d", st.BlockNumber)},
			{"Balance", st.Balance},
		}
		if st.Contract != "" {
			rows = append(rows, [2]string{"Token", st.Contract})
			if st.TokenBalance != "" {
				rows = append(rows, [2]string{"Token balance", st.TokenBalance})
			}
		}

		for _, r := range rows {
			sb.WriteString(fmt.Sprintf("├─ %s %s\n", muted.Render(fmt.Sprintf("%-14s", r[0])), r[1]))
		}
		sb.WriteString("└─ " + ready)
		if !st.UpdatedAt.IsZero() {
			sb.WriteString(muted.Render(fmt.Sprintf("  %s", st.UpdatedAt.Format("15:04:05"))))
		}
	}

	if s.err != "" {
		sb.WriteString("\n")
		sb.WriteString(red.Render("  " + s.err))
	}

	return sb.String()
}
