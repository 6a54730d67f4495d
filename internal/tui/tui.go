package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/decidarch/assistant/internal/engine"
	"github.com/decidarch/assistant/internal/models"
)

type sessionState int

const (
	stateReady sessionState = iota
	statePlaying
	stateThinking
	stateFinished
	stateError
)

type model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	turns    *turnGate
	state    sessionState
	engine   *engine.Engine
	table    tableView
	viewport viewport.Model
	spinner  spinner.Model
	autoplay bool
	err      error
	gameLog  string
	result   *models.Result
	width    int
	height   int
}

// tableView is what the side panel shows. It is copied from the engine on
// the event loop while no turn is in flight, so View never touches the engine.
type tableView struct {
	scores    models.Impact
	remaining int
	next      models.Player
	running   bool
	deadline  time.Time
}

func snapshot(eng *engine.Engine) tableView {
	return tableView{
		scores:    eng.QAScores(),
		remaining: eng.Remaining(),
		next:      eng.NextPlayer(),
		running:   eng.State() == engine.StateRunning,
		deadline:  eng.Deadline(),
	}
}

// turnGate serializes engine access between turn commands and the code that
// reads the engine once the program has exited.
type turnGate struct {
	mu     sync.Mutex
	closed bool
}

func (g *turnGate) step(ctx context.Context, eng *engine.Engine) turnPlayedMsg {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return turnPlayedMsg{err: context.Canceled}
	}
	turn, err := eng.Step(ctx)
	return turnPlayedMsg{turn: turn, err: err}
}

// close waits for a turn in flight and stops later ones from starting.
func (g *turnGate) close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

var (
	turnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAF00"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true)
)

func NewModel(ctx context.Context, eng *engine.Engine) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	deck := eng.Deck()
	intro := titleStyle.Render(deck.Project.Name) + "\n" + gameStyle.Render(deck.Project.Purpose) + "\n\n"
	for _, s := range deck.Stakeholders {
		intro += fmt.Sprintf("%s (%s): %s\n", s.Role, s.Goal, s.Priorities)
	}
	for _, e := range deck.Events {
		intro += warnStyle.Render("Event: "+e.Title) + " - " + e.Description + "\n"
	}

	ctx, cancel := context.WithCancel(ctx)
	return model{
		ctx:      ctx,
		cancel:   cancel,
		turns:    &turnGate{},
		state:    stateReady,
		engine:   eng,
		table:    snapshot(eng),
		spinner:  sp,
		gameLog:  intro,
		viewport: viewport.New(80, 20),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

type turnPlayedMsg struct {
	turn *models.Turn
	err  error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancel()
			return m, tea.Quit

		case tea.KeyEnter:
			switch m.state {
			case stateReady:
				if err := m.engine.Start(); err != nil {
					m.err = err
					m.state = stateError
					return m, nil
				}
				m.table = snapshot(m.engine)
				m.appendLog(helpStyle.Render(fmt.Sprintf("Clock started. Session ends at %s.", m.table.deadline.Format(time.Kitchen))))
				return m.afterTurn()
			case statePlaying:
				return m.playTurn()
			case stateFinished, stateError:
				m.cancel()
				return m, tea.Quit
			}
		}
		if msg.String() == "a" && (m.state == statePlaying || m.state == stateThinking) {
			m.autoplay = !m.autoplay
			if m.autoplay && m.state == statePlaying {
				return m.playTurn()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.70)
		m.viewport.Height = msg.Height - 6
		m.viewport.SetContent(m.gameLog)

	case spinner.TickMsg:
		if m.state != stateThinking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case turnPlayedMsg:
		m.table = snapshot(m.engine)
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		if msg.turn == nil {
			m.appendLog(warnStyle.Render("Time is up."))
		} else {
			m.appendLog(m.renderTurn(*msg.turn))
		}
		return m.afterTurn()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// afterTurn scores the game once the engine leaves RUNNING, otherwise waits
// for the next player (or plays on when autoplay is on).
func (m model) afterTurn() (tea.Model, tea.Cmd) {
	if m.engine.State() == engine.StateRunning {
		m.state = statePlaying
		if m.autoplay {
			return m.playTurn()
		}
		return m, nil
	}
	res, err := m.engine.Score()
	if err != nil {
		m.err = err
		m.state = stateError
		return m, nil
	}
	m.result = &res
	m.state = stateFinished
	m.appendLog(titleStyle.Render(fmt.Sprintf("Final Score: %d", res.Score)))
	return m, nil
}

func (m model) playTurn() (tea.Model, tea.Cmd) {
	m.state = stateThinking
	eng, ctx, gate := m.engine, m.ctx, m.turns
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return gate.step(ctx, eng)
	})
}

func (m *model) appendLog(s string) {
	m.gameLog += s + "\n\n"
	m.viewport.SetContent(m.gameLog)
	m.viewport.GotoBottom()
}

func (m model) renderTurn(t models.Turn) string {
	width := m.viewport.Width
	var sb strings.Builder
	sb.WriteString(turnStyle.Width(width).Render(fmt.Sprintf("%s's turn:", t.Player)))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Concern: %s\n", t.Concern)
	switch {
	case t.AdvisorError != "":
		sb.WriteString(warnStyle.Render("Advisor unavailable: "+t.AdvisorError) + "\n")
	default:
		sb.WriteString(gameStyle.Width(width).Render("Suggestion: "+t.Suggestion) + "\n")
	}
	fmt.Fprintf(&sb, "Applied: %s", t.Applied)
	return sb.String()
}

func (m model) View() string {
	var s string

	switch m.state {
	case stateReady:
		s = lipgloss.JoinVertical(lipgloss.Left,
			m.gameLog,
			helpStyle.Render("Press Enter to start the clock, Esc to quit."),
		)

	case statePlaying, stateThinking, stateFinished:
		mainView := lipgloss.JoinHorizontal(lipgloss.Top,
			m.viewport.View(),
			m.renderState(),
		)
		var status string
		switch m.state {
		case stateThinking:
			status = m.spinner.View() + " Asking the advisor..."
		case statePlaying:
			status = fmt.Sprintf("%s, press Enter to draw the next concern.", m.table.next)
		case stateFinished:
			status = "Game over. Press Enter to exit."
		}
		help := helpStyle.Render("Commands: Enter next turn, a toggle autoplay, Esc quit.")
		s = lipgloss.JoinVertical(lipgloss.Left, mainView, "\n"+status, help)

	case stateError:
		s = fmt.Sprintf("\n  Error: %v\n\nPress Esc to quit.", m.err)
	}

	return "\n" + s + "\n"
}

func (m model) renderState() string {
	scores := m.table.scores
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("QA SCORES") + "\n")
	for _, attr := range scores.Keys() {
		line := fmt.Sprintf("%s: %d", attr, scores[attr])
		if scores[attr] < 0 {
			line = negativeStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n")

	sb.WriteString(titleStyle.Render("TABLE") + "\n")
	fmt.Fprintf(&sb, "Concerns left: %d\n", m.table.remaining)
	if m.table.running {
		left := time.Until(m.table.deadline).Round(time.Second)
		if left < 0 {
			left = 0
		}
		fmt.Fprintf(&sb, "Time left: %s\n", left)
	}
	if m.autoplay {
		sb.WriteString("Autoplay: on\n")
	}

	if m.result != nil && len(m.result.Satisfaction) > 0 {
		sb.WriteString("\n" + titleStyle.Render("SATISFACTION") + "\n")
		for _, s := range m.result.Satisfaction {
			fmt.Fprintf(&sb, "%s: %d\n", s.Role, s.Score)
		}
	}

	width := int(float64(m.width) * 0.28)
	return stateStyle.Width(width).Height(m.viewport.Height).Render(sb.String())
}

// Run plays eng interactively until the game is scored or the user quits.
// When it returns no turn is running and eng may be read again.
func Run(ctx context.Context, eng *engine.Engine) error {
	m := NewModel(ctx, eng)
	defer m.stop()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// stop cancels a turn in flight and waits for it to return.
func (m model) stop() {
	m.cancel()
	m.turns.close()
}
