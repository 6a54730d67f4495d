package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/decidarch/assistant/internal/advisor"
	"github.com/decidarch/assistant/internal/config"
	"github.com/decidarch/assistant/internal/logging"
	"github.com/decidarch/assistant/internal/models"
	"github.com/decidarch/assistant/internal/scoring"
)

// State is a phase of the game.
type State int

const (
	StateSetup State = iota
	StateRunning
	StateTimedOut
	StateExhausted
	StateScored
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "SETUP"
	case StateRunning:
		return "RUNNING"
	case StateTimedOut:
		return "TIMED_OUT"
	case StateExhausted:
		return "EXHAUSTED"
	case StateScored:
		return "SCORED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrNotRunning  = errors.New("engine: game is not running")
	ErrNotFinished = errors.New("engine: game has not finished")
	ErrStarted     = errors.New("engine: game already started")
)

// Engine runs one game. It owns the ledger and the concern cursor and is not
// safe for concurrent use.
type Engine struct {
	ID string
	// Now is the wall clock; tests replace it.
	Now func() time.Time

	cfg     config.Config
	deck    models.Deck
	advisor advisor.Advisor
	log     *zap.Logger

	seed      []models.Attribute
	ledger    scoring.Ledger
	cursor    int
	state     State
	outcome   models.Outcome
	startedAt time.Time
	deadline  time.Time
	history   []models.Turn
	result    *models.Result
}

// New prepares a game in the SETUP state. The deck is copied and normalized.
func New(cfg config.Config, deck models.Deck, adv advisor.Advisor, logger *zap.Logger) (*Engine, error) {
	if adv == nil {
		return nil, errors.New("engine: advisor is required")
	}
	d := cloneDeck(deck)
	if err := d.Normalize(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if len(d.Players) == 0 {
		return nil, errors.New("engine: at least one player is required")
	}
	if cfg.SessionBudget <= 0 {
		return nil, errors.New("engine: session budget must be positive")
	}
	return &Engine{
		ID:      uuid.NewString(),
		Now:     time.Now,
		cfg:     cfg,
		deck:    d,
		advisor: adv,
		log:     logging.OrNop(logger),
		// every stakeholder attribute is seeded so the evaluator never misses one
		seed: scoring.SeedAttributes(d.Stakeholders),
	}, nil
}

// Start moves SETUP to RUNNING and fixes the deadline.
func (e *Engine) Start() error {
	if e.state != StateSetup {
		return ErrStarted
	}
	e.startedAt = e.Now()
	e.deadline = e.startedAt.Add(e.cfg.SessionBudget)
	e.state = StateRunning
	e.log.Info("game started",
		zap.String("game_id", e.ID),
		zap.String("project", e.deck.Project.Name),
		zap.Int("players", len(e.deck.Players)),
		zap.Int("concerns", len(e.deck.Concerns)),
		zap.Time("deadline", e.deadline),
	)
	if len(e.deck.Concerns) == 0 {
		e.finish(StateExhausted)
	}
	return nil
}

// Step plays the next turn. When the deadline has passed it moves to
// TIMED_OUT and returns a nil turn. The deadline is only checked here,
// between turns; an advisor call in flight is not interrupted by it.
func (e *Engine) Step(ctx context.Context) (*models.Turn, error) {
	if e.state != StateRunning {
		return nil, ErrNotRunning
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !e.Now().Before(e.deadline) {
		e.finish(StateTimedOut)
		return nil, nil
	}

	number := len(e.history) + 1
	player := e.deck.Players[(number-1)%len(e.deck.Players)]
	concern := e.deck.Concerns[e.cursor]
	log := e.log.With(
		zap.String("game_id", e.ID),
		zap.Int("turn", number),
		zap.String("player", player.String()),
		zap.Int("concern_id", concern.ID),
	)

	suggestion, err := e.suggest(ctx, concern)
	var advisorErr string
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if e.cfg.Advisor.Strict {
			log.Error("advisor failed", zap.Error(err))
			return nil, fmt.Errorf("advisor: turn %d: %w", number, err)
		}
		log.Warn("advisor failed, playing turn without suggestion", zap.Error(err))
		advisorErr = err.Error()
	}

	// the concern's own impact is always what gets applied
	e.ledger.Append(concern.Impact)
	e.cursor++

	turn := models.Turn{
		Number:       number,
		Player:       player,
		ConcernID:    concern.ID,
		Concern:      concern.Description,
		Suggestion:   suggestion,
		AdvisorError: advisorErr,
		Applied:      concern.Impact.Clone(),
		Scores:       e.QAScores(),
		At:           e.Now(),
	}
	e.history = append(e.history, turn)
	log.Info("turn played", zap.String("applied", turn.Applied.String()), zap.String("scores", turn.Scores.String()))

	if e.cursor >= len(e.deck.Concerns) {
		e.finish(StateExhausted)
	}
	return &turn, nil
}

func (e *Engine) suggest(ctx context.Context, concern models.Concern) (string, error) {
	if e.cfg.Advisor.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Advisor.Timeout)
		defer cancel()
	}
	return e.advisor.Suggest(ctx, e.Request(concern))
}

// Request builds the advisor context for concern from the current game state.
func (e *Engine) Request(concern models.Concern) advisor.Request {
	// the advisor gets copies; stakeholders and events stay fixed after setup
	d := cloneDeck(e.deck)
	concern.Impact = concern.Impact.Clone()
	return advisor.Request{
		Project:      d.Project,
		Stakeholders: d.Stakeholders,
		Decisions:    e.ledger.Entries(),
		Scores:       e.QAScores(),
		Events:       d.Events,
		Concern:      concern,
	}
}

func (e *Engine) finish(s State) {
	e.state = s
	if s == StateTimedOut {
		e.outcome = models.OutcomeTimedOut
	} else {
		e.outcome = models.OutcomeExhausted
	}
	e.log.Info("game finished",
		zap.String("game_id", e.ID),
		zap.Stringer("state", s),
		zap.Int("turns", len(e.history)),
		zap.Int("remaining_concerns", len(e.deck.Concerns)-e.cursor),
	)
}

// Run starts the game if needed, plays until a terminal state and scores it.
func (e *Engine) Run(ctx context.Context) (models.Result, error) {
	if e.state == StateSetup {
		if err := e.Start(); err != nil {
			return models.Result{}, err
		}
	}
	for e.state == StateRunning {
		if _, err := e.Step(ctx); err != nil {
			return models.Result{}, err
		}
	}
	return e.Score()
}

// Score evaluates the ledger once the game is TIMED_OUT or EXHAUSTED and
// moves it to SCORED. Calling it again returns the same result.
func (e *Engine) Score() (models.Result, error) {
	switch e.state {
	case StateScored:
		return *e.result, nil
	case StateTimedOut, StateExhausted:
	default:
		return models.Result{}, ErrNotFinished
	}

	scores := e.QAScores()
	score := scoring.Evaluate(scores, e.deck.Stakeholders)
	res := models.Result{
		GameID:     e.ID,
		Outcome:    e.outcome,
		Score:      score,
		Lost:       score == scoring.ImmediateLoss,
		QAScores:   scores,
		Turns:      len(e.history),
		StartedAt:  e.startedAt,
		FinishedAt: e.Now(),
	}
	if !res.Lost {
		res.Satisfaction = scoring.Breakdown(scores, e.deck.Stakeholders)
	}
	e.result = &res
	e.state = StateScored
	e.log.Info("game scored",
		zap.String("game_id", e.ID),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("score", res.Score),
		zap.Bool("lost", res.Lost),
	)
	return res, nil
}

// Record returns everything worth saving about a scored game.
func (e *Engine) Record() (models.GameRecord, error) {
	if e.state != StateScored {
		return models.GameRecord{}, ErrNotFinished
	}
	return models.GameRecord{
		Deck:    cloneDeck(e.deck),
		History: e.History(),
		Result:  *e.result,
	}, nil
}

// QAScores aggregates the full ledger.
func (e *Engine) QAScores() models.Impact {
	return scoring.Aggregate(e.ledger.Entries(), e.seed)
}

// Ledger returns the applied decisions in order.
func (e *Engine) Ledger() []models.Impact { return e.ledger.Entries() }

func (e *Engine) State() State { return e.state }

func (e *Engine) Deck() models.Deck { return cloneDeck(e.deck) }

func (e *Engine) Deadline() time.Time { return e.deadline }

// Remaining is the number of unresolved concerns.
func (e *Engine) Remaining() int { return len(e.deck.Concerns) - e.cursor }

// NextPlayer is whose turn comes next.
func (e *Engine) NextPlayer() models.Player {
	return e.deck.Players[len(e.history)%len(e.deck.Players)]
}

// History returns a copy of the turns played so far.
func (e *Engine) History() []models.Turn {
	out := make([]models.Turn, len(e.history))
	for i, t := range e.history {
		t.Applied = t.Applied.Clone()
		t.Scores = t.Scores.Clone()
		out[i] = t
	}
	return out
}

func cloneDeck(d models.Deck) models.Deck {
	out := models.Deck{
		Players: append([]models.Player(nil), d.Players...),
		Project: d.Project,
		Events:  append([]models.Event(nil), d.Events...),
	}
	for _, s := range d.Stakeholders {
		s.Priorities = s.Priorities.Clone()
		out.Stakeholders = append(out.Stakeholders, s)
	}
	for _, c := range d.Concerns {
		c.Impact = c.Impact.Clone()
		out.Concerns = append(out.Concerns, c)
	}
	return out
}
