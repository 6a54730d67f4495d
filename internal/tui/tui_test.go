package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/decidarch/assistant/internal/advisor"
	"github.com/decidarch/assistant/internal/config"
	"github.com/decidarch/assistant/internal/engine"
	"github.com/decidarch/assistant/internal/models"
)

func newTestModel(t *testing.T) (model, *engine.Engine) {
	t.Helper()
	cfg := config.Default()
	cfg.Advisor.Provider = config.ProviderStatic
	eng, err := engine.New(cfg, models.DemoDeck(), advisor.Static{}, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	m := NewModel(context.Background(), eng)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(model), eng
}

// runCommands executes cmd and feeds resulting messages back, skipping
// spinner ticks so the test does not wait on animation.
func runCommands(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 50; steps++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case spinner.TickMsg:
		default:
			out, next := m.Update(msg)
			m = out.(model)
			queue = append(queue, next)
		}
	}
	return m
}

func press(t *testing.T, m model, key tea.KeyMsg) model {
	t.Helper()
	out, cmd := m.Update(key)
	return runCommands(t, out.(model), cmd)
}

func TestPlayThroughDemoDeck(t *testing.T) {
	m, eng := newTestModel(t)
	if !strings.Contains(m.View(), "Press Enter to start the clock") {
		t.Fatalf("expected ready screen, got %s", m.View())
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != statePlaying || eng.State() != engine.StateRunning {
		t.Fatalf("expected playing state, got %d / %s", m.state, eng.State())
	}

	for i := 0; i < 3; i++ {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	}
	if m.state != stateFinished {
		t.Fatalf("expected finished after three turns, got %d (err %v)", m.state, m.err)
	}
	if m.result == nil || m.result.Score != -1 {
		t.Fatalf("expected immediate loss result, got %+v", m.result)
	}
	if !strings.Contains(m.gameLog, "John Doe's turn:") || !strings.Contains(m.gameLog, "Rick Harrington's turn:") {
		t.Errorf("turns missing from log")
	}
	if !strings.Contains(m.gameLog, "Final Score: -1") {
		t.Errorf("final score missing from log")
	}
	if eng.State() != engine.StateScored {
		t.Errorf("engine not scored: %s", eng.State())
	}
}

func TestAutoplay(t *testing.T) {
	m, eng := newTestModel(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	if m.state != stateFinished {
		t.Fatalf("autoplay should finish the game, state %d", m.state)
	}
	if len(eng.History()) != 3 {
		t.Errorf("expected 3 turns, got %d", len(eng.History()))
	}
}

func TestRenderStateHighlightsScores(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	panel := m.renderState()
	if !strings.Contains(panel, "Security: -2") || !strings.Contains(panel, "Concerns left: 2") {
		t.Errorf("unexpected panel:\n%s", panel)
	}
}

// runConcurrently starts every command of a batch on its own goroutine, the
// way the bubbletea runtime does, and returns a func that waits for their
// messages.
func runConcurrently(t *testing.T, cmd tea.Cmd) func() []tea.Msg {
	t.Helper()
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatalf("expected a batch of commands")
	}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		msgs []tea.Msg
	)
	for _, c := range batch {
		if c == nil {
			continue
		}
		wg.Add(1)
		go func(c tea.Cmd) {
			defer wg.Done()
			msg := c()
			mu.Lock()
			msgs = append(msgs, msg)
			mu.Unlock()
		}(c)
	}
	return func() []tea.Msg {
		wg.Wait()
		return msgs
	}
}

func TestViewWhileTurnInFlight(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	out, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = out.(model)
	if m.state != stateThinking {
		t.Fatalf("expected thinking state, got %d", m.state)
	}
	wait := runConcurrently(t, cmd)
	for i := 0; i < 200; i++ {
		if !strings.Contains(m.View(), "QA SCORES") {
			t.Fatalf("side panel missing while thinking")
		}
	}
	for _, msg := range wait() {
		if played, ok := msg.(turnPlayedMsg); ok {
			out, _ := m.Update(played)
			m = out.(model)
		}
	}
	if m.state != statePlaying || !strings.Contains(m.renderState(), "Concerns left: 2") {
		t.Errorf("turn result not shown, state %d:\n%s", m.state, m.renderState())
	}
}

type blockingAdvisor struct {
	started chan struct{}
}

func (b blockingAdvisor) Suggest(ctx context.Context, _ advisor.Request) (string, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return "", ctx.Err()
}

func TestQuitCancelsTurnInFlight(t *testing.T) {
	adv := blockingAdvisor{started: make(chan struct{}, 1)}
	eng, err := engine.New(config.Default(), models.DemoDeck(), adv, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	m := NewModel(context.Background(), eng)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	out, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = out.(model)
	wait := runConcurrently(t, cmd)
	<-adv.started

	out, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = out.(model)
	if m.ctx.Err() == nil {
		t.Fatalf("quitting should cancel the turn context")
	}
	m.stop()

	// stop has returned, so the engine is ours again
	if eng.State() != engine.StateRunning || len(eng.History()) != 0 {
		t.Errorf("cancelled turn should not be applied: %s, %d turns", eng.State(), len(eng.History()))
	}
	var gotCancel bool
	for _, msg := range wait() {
		if played, ok := msg.(turnPlayedMsg); ok && errors.Is(played.err, context.Canceled) {
			gotCancel = true
		}
	}
	if !gotCancel {
		t.Errorf("expected the in-flight turn to report cancellation")
	}
	if msg := m.turns.step(m.ctx, eng); !errors.Is(msg.err, context.Canceled) || len(eng.History()) != 0 {
		t.Errorf("no turn may start after stop: %+v", msg)
	}
}
