// Package ui provides the Bubble Tea TUI for the token deployer.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fd1az/token-deployer/pkg/ui/components"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome Phase = "welcome" // Initial welcome screen
	PhaseStartup Phase = "startup" // Loading/connecting
	PhaseMenu    Phase = "menu"    // Action menu
	PhaseForm    Phase = "form"    // Collecting action input
	PhaseRunning Phase = "running" // Action in flight
	PhaseResult  Phase = "result"  // Last action outcome
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

const (
	maxLogs   = 8
	maxErrors = 3
)

var startupOrder = []string{"config", "network", "wallet", "token"}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	ctx  context.Context
	ops  Operations
	opts Options

	// Components
	menu    *components.MenuComponent
	status  *components.StatusComponent
	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// State
	quitting   bool
	width      int
	height     int
	lastStatus *components.WalletStatus
	errors     []ErrorEntry // Persistent error panel (last 3)
	logs       []string     // Recent log messages

	// Startup state
	startupSteps map[string]*StartupStep
	startupTime  time.Time

	// Action state
	action   Action
	fields   []field
	focus    int
	cancel   context.CancelFunc
	runStart time.Time
	result   *ActionDoneMsg
}

// New creates a new TUI model. ctx bounds every action started from the menu.
func New(ctx context.Context, ops Operations, opts Options) Model {
	now := time.Now()
	items := make([]string, len(actions))
	for i, a := range actions {
		items[i] = a.String()
	}

	return Model{
		ctx:          ctx,
		ops:          ops,
		opts:         opts,
		menu:         components.NewMenuComponent(items...),
		status:       components.NewStatusComponent(),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(ColorPrimary))),
		phase:        PhaseWelcome,
		welcomeStart: now,
		logs:         make([]string, 0, maxLogs),
		errors:       make([]ErrorEntry, 0, maxErrors),
		startupSteps: map[string]*StartupStep{
			"config":  {Name: "Loading configuration", Status: "pending"},
			"network": {Name: "Selecting RPC endpoint", Status: "pending"},
			"wallet":  {Name: "Loading wallet", Status: "pending"},
			"token":   {Name: "Preparing token service", Status: "pending"},
		},
		startupTime: now,
	}
}

// Phase returns the current phase.
func (m Model) Phase() Phase {
	return m.phase
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.startModules()
		}
		return m, tickCmd()

	case spinner.TickMsg:
		if m.phase != PhaseRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
		if msg.Status == "failed" && msg.Message != "" {
			m.errors = addError(m.errors, msg.Message)
		}

	case ReadyMsg:
		if m.phase == PhaseWelcome || m.phase == PhaseStartup {
			m.phase = PhaseMenu
		}
		return m, refreshStatus(m.ctx, m.ops)

	case StatusMsg:
		if msg.Err != nil {
			m.status.SetError(msg.Err)
			m.errors = addError(m.errors, msg.Err.Error())
		} else if msg.Status != nil {
			ws := toWalletStatus(msg.Status)
			ws.UpdatedAt = time.Now()
			m.status.Update(ws)
			m.lastStatus = &ws
		}
		if m.phase == PhaseRunning && m.action == ActionStatus {
			m.finishRun()
			m.phase = PhaseMenu
		}

	case ActionDoneMsg:
		if m.phase != PhaseRunning || msg.Action != m.action {
			return m, nil
		}
		m.finishRun()
		m.result = &msg
		m.phase = PhaseResult
		if msg.Err != nil {
			m.errors = addError(m.errors, fmt.Sprintf("%s: %v", msg.Action, msg.Err))
			return m, nil
		}
		return m, refreshStatus(m.ctx, m.ops)

	case ErrorMsg:
		if msg.Error != nil {
			m.errors = addError(m.errors, msg.Error.Error())
			m.logs = addLog(m.logs, "ERROR", msg.Error.Error())
		}

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Always allow ctrl+c
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	switch m.phase {
	case PhaseWelcome:
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		// Any other key skips to startup
		m.startModules()
		return m, nil

	case PhaseStartup:
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}

	case PhaseMenu:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		case key.Matches(msg, m.keys.Up):
			m.menu.Up()
		case key.Matches(msg, m.keys.Down):
			m.menu.Down()
		case key.Matches(msg, m.keys.Clear):
			m.logs = make([]string, 0, maxLogs)
			m.errors = make([]ErrorEntry, 0, maxErrors)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Select):
			return m.choose(actions[m.menu.Cursor()])
		}

	case PhaseForm:
		return m.handleFormKey(msg)

	case PhaseRunning:
		if key.Matches(msg, m.keys.Back) && m.cancel != nil {
			m.cancel()
			m.logs = addLog(m.logs, "WARN", "cancelling "+m.action.String())
		}

	case PhaseResult:
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		m.result = nil
		m.phase = PhaseMenu
	}

	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.fields = nil
		m.phase = PhaseMenu
		return m, nil
	case msg.Type == tea.KeyTab || msg.Type == tea.KeyDown:
		cmd := m.focusField(m.focus + 1)
		return m, cmd
	case msg.Type == tea.KeyShiftTab || msg.Type == tea.KeyUp:
		cmd := m.focusField(m.focus - 1)
		return m, cmd
	case msg.Type == tea.KeyEnter:
		if m.focus < len(m.fields)-1 {
			cmd := m.focusField(m.focus + 1)
			return m, cmd
		}
		values := make([]string, len(m.fields))
		for i, f := range m.fields {
			values[i] = strings.TrimSpace(f.input.Value())
		}
		return m.start(values)
	}

	var cmd tea.Cmd
	m.fields[m.focus].input, cmd = m.fields[m.focus].input.Update(msg)
	return m, cmd
}

// choose opens the form for a, or starts it directly when it takes no input.
func (m Model) choose(a Action) (tea.Model, tea.Cmd) {
	if a == ActionExit {
		return m.quit()
	}

	m.action = a
	m.fields = fieldsFor(a, m.opts)
	if len(m.fields) == 0 {
		return m.start(nil)
	}

	m.phase = PhaseForm
	m.focus = 0
	cmd := m.focusField(0)
	return m, cmd
}

func (m *Model) focusField(i int) tea.Cmd {
	if len(m.fields) == 0 {
		return nil
	}
	i = (i + len(m.fields)) % len(m.fields)
	m.fields[m.focus].input.Blur()
	m.focus = i
	return m.fields[i].input.Focus()
}

func (m Model) start(values []string) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(m.ctx)
	cmd := run(ctx, m.ops, m.opts, m.action, values)
	if cmd == nil {
		cancel()
		m.phase = PhaseMenu
		return m, nil
	}

	m.cancel = cancel
	m.runStart = time.Now()
	m.phase = PhaseRunning
	m.logs = addLog(m.logs, "INFO", "started "+m.action.String())
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m *Model) finishRun() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.fields = nil
}

func (m *Model) startModules() {
	if m.phase != PhaseWelcome {
		return
	}
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Trigger callback directly (don't use Send() from within Update)
	if OnStartModules != nil {
		go OnStartModules()
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	m.quitting = true
	return m, tea.Quit
}

// addLog adds a log message and returns the updated slice (keeps the last maxLogs).
func addLog(logs []string, level, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	logLine := fmt.Sprintf("[%s] %s: %s", timestamp, level, message)
	logs = append(logs, logLine)
	if len(logs) > maxLogs {
		logs = logs[len(logs)-maxLogs:]
	}
	return logs
}

func addError(errs []ErrorEntry, message string) []ErrorEntry {
	errs = append(errs, ErrorEntry{Message: message, Timestamp: time.Now()})
	if len(errs) > maxErrors {
		errs = errs[len(errs)-maxErrors:]
	}
	return errs
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" ⛓ Token Deployer "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	var leftCol string
	switch m.phase {
	case PhaseForm:
		leftCol = m.renderForm()
	case PhaseRunning:
		leftCol = m.renderRunning()
	case PhaseResult:
		leftCol = m.renderResult()
	default:
		leftCol = HeaderStyle.Render("ACTIONS") + "\n\n" + m.menu.View()
	}
	rightCol := m.status.View()

	if m.width > 100 {
		left := BoxStyle.Width(m.width/2 - 2).Render(leftCol)
		right := BoxStyle.Width(m.width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		width := m.width - 4
		if width < 40 {
			width = 60
		}
		b.WriteString(BoxStyle.Width(width).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(rightCol))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	if len(m.errors) > 0 {
		errorHeader := lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
		errorStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		mutedError := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(mutedError.Render(" (c: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(mutedError.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderForm() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render(strings.ToUpper(m.action.String())))
	sb.WriteString("\n\n")
	for i, f := range m.fields {
		label := LabelStyle.Render(f.label)
		if i == m.focus {
			label = FocusedLabelStyle.Render(f.label)
		}
		sb.WriteString(label)
		sb.WriteString(f.input.View())
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render("enter: next/submit • tab: switch field • esc: back"))
	return sb.String()
}

func (m Model) renderRunning() string {
	elapsed := time.Since(m.runStart).Round(time.Second)
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render(strings.ToUpper(m.action.String())))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("%s Working... %s", m.spinner.View(), MutedValue.Render(elapsed.String())))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("esc: cancel"))
	return sb.String()
}

func (m Model) renderResult() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render(strings.ToUpper(m.action.String())))
	sb.WriteString("\n\n")
	if m.result == nil {
		return sb.String()
	}
	if m.result.Err != nil {
		sb.WriteString(NegativeValue.Render("✗ " + m.result.Err.Error()))
	} else {
		sb.WriteString(PositiveValue.Render("✓ Done"))
		for _, line := range m.result.Summary {
			sb.WriteString("\n  ")
			sb.WriteString(line)
		}
	}
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("press any key to continue"))
	return sb.String()
}

func (m Model) renderLogs() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("LOG"))
	sb.WriteString("\n")
	if len(m.logs) == 0 {
		sb.WriteString(MutedValue.Render("  No activity yet"))
		sb.WriteString("\n\n")
		return sb.String()
	}
	for _, line := range m.logs {
		style := MutedValue
		switch {
		case strings.Contains(line, "] ERROR:"):
			style = LogErrorStyle
		case strings.Contains(line, "] WARN:"):
			style = LogWarnStyle
		case strings.Contains(line, "] SUCCESS:"):
			style = LogSuccessStyle
		case strings.Contains(line, "] INFO:"):
			style = LogInfoStyle
		}
		sb.WriteString("  " + style.Render(line))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary)

	mutedStyle := lipgloss.NewStyle().
		Foreground(ColorMuted)

	greenStyle := lipgloss.NewStyle().
		Foreground(ColorSecondary)

	// Animated dots based on time
	elapsed := time.Since(m.welcomeStart)
	dotCount := int(elapsed.Milliseconds()/300) % 4
	dots := strings.Repeat(".", dotCount)

	var sb strings.Builder

	sb.WriteString("\n\n\n\n")

	logo := `
   ████████╗ ██████╗ ██╗  ██╗███████╗███╗   ██╗
   ╚══██╔══╝██╔═══██╗██║ ██╔╝██╔════╝████╗  ██║
      ██║   ██║   ██║█████╔╝ █████╗  ██╔██╗ ██║
      ██║   ██║   ██║██╔═██╗ ██╔══╝  ██║╚██╗██║
      ██║   ╚██████╔╝██║  ██╗███████╗██║ ╚████║
      ╚═╝    ╚═════╝ ╚═╝  ╚═╝╚══════╝╚═╝  ╚═══╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")

	subtitle := "                 D E P L O Y E R"
	sb.WriteString(mutedStyle.Render(subtitle))
	sb.WriteString("\n\n\n")

	loading := fmt.Sprintf("                Initializing%s", dots)
	sb.WriteString(greenStyle.Render(loading))
	sb.WriteString("\n\n")

	hint := "          Press any key to skip, or wait..."
	sb.WriteString(mutedStyle.Render(hint))
	sb.WriteString("\n")

	return sb.String()
}

// renderStartupScreen renders the loading/startup screen.
func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		MarginBottom(1)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF"))

	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	successStyle := lipgloss.NewStyle().Foreground(ColorSecondary)
	connectingStyle := lipgloss.NewStyle().Foreground(ColorWarning)
	failedStyle := lipgloss.NewStyle().Foreground(ColorDanger)

	var sb strings.Builder

	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  ⛓ Token Deployer"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	failed := false
	for _, k := range startupOrder {
		step, ok := m.startupSteps[k]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style

		switch step.Status {
		case "connected", "done":
			icon = "✓"
			statusText = "Ready"
			style = successStyle
		case "connecting":
			spinners := []string{"◐", "◓", "◑", "◒"}
			idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)
			icon = spinners[idx]
			statusText = "Connecting..."
			style = connectingStyle
		case "failed":
			icon = "✗"
			statusText = "Failed"
			style = failedStyle
			failed = true
		default:
			icon = "○"
			statusText = "Pending"
			style = mutedStyle
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Render(icon),
			mutedStyle.Render(step.Name),
			style.Render(statusText),
		))
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n\n")

	if failed {
		for _, err := range m.errors {
			sb.WriteString(failedStyle.Render("  " + err.Message))
			sb.WriteString("\n")
		}
		sb.WriteString(mutedStyle.Render("  Press q to quit"))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if m.phase == PhaseRunning {
		runningStyle := lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
		parts = append(parts, runningStyle.Render(m.spinner.View()+" "+m.action.String()))
	}

	st := m.lastStatus
	if st == nil {
		parts = append(parts, StatusDisconnected.Render("○ no endpoint"))
		return strings.Join(parts, "  │  ")
	}

	if st.Ready {
		parts = append(parts, StatusConnected.Render("● "+st.Endpoint))
	} else {
		parts = append(parts, StatusDisconnected.Render("○ "+st.Endpoint))
	}
	parts = append(parts, fmt.Sprintf("Block: #%d", st.BlockNumber))
	parts = append(parts, st.Balance)

	if !st.UpdatedAt.IsZero() {
		ago := time.Since(st.UpdatedAt).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
// This is set by main.go to signal when to begin loading modules.
var OnStartModules func()

// Run starts the Bubble Tea program and blocks until it exits.
func Run(ctx context.Context, ops Operations, opts Options) error {
	Program = tea.NewProgram(New(ctx, ops, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
