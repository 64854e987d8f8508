package tictactoe

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/park285/kakao-tictactoe-bot/internal/obslog"
	"go.uber.org/zap"
)

const recordTimeout = 5 * time.Second

// Manager is the entry point the chat adapter calls. It owns no state of its own:
// sessions live in the Store and finished games go to the attached recorders.
type Manager struct {
	store    Store
	recorder ResultRecorder
	logger   *zap.Logger
	now      func() time.Time
}

func NewManager(store Store, logger *zap.Logger) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = obslog.L()
	}
	return &Manager{store: store, logger: logger, now: time.Now}
}

// AttachRecorder wires a sink for finished and ended games.
func (m *Manager) AttachRecorder(r ResultRecorder) {
	if m != nil {
		m.recorder = r
	}
}

// StartGame registers a new session under key. player1 moves first with MarkA.
func (m *Manager) StartGame(ctx context.Context, key string, player1, player2 PlayerID) (Renderable, error) {
	key = strings.TrimSpace(key)
	if key == "" || player1.IsZero() || player2.IsZero() {
		return Renderable{}, ErrInvalidArgs
	}
	s, err := m.store.Create(ctx, key, player1, player2)
	if err != nil {
		m.logger.Debug("ttt_game_start_rejected", zap.String("key", key), zap.String("kind", Kind(err)))
		return Renderable{}, err
	}
	m.logger.Info("ttt_game_start",
		zap.String("key", key),
		zap.String("game_id", s.GameID),
		zap.String("player1", string(player1)),
		zap.String("player2", string(player2)),
	)
	return s.Render(), nil
}

// MakeMove applies actor's move at cell (0-8) to key's session. A winning or tying move
// removes the session before MakeMove returns.
func (m *Manager) MakeMove(ctx context.Context, key string, actor PlayerID, cell int) (Renderable, Outcome, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Renderable{}, Outcome{}, ErrInvalidArgs
	}
	var outcome Outcome
	s, err := m.store.Update(ctx, key, func(cur Session) (Session, bool, error) {
		next, out, err := ApplyMove(cur, actor, cell)
		if err != nil {
			return Session{}, false, err
		}
		outcome = out
		return next, out.Terminal(), nil
	})
	if err != nil {
		m.logger.Debug("ttt_move_rejected",
			zap.String("key", key),
			zap.String("actor", string(actor)),
			zap.Int("cell", cell),
			zap.String("kind", Kind(err)),
		)
		return Renderable{}, Outcome{}, err
	}

	m.logger.Info("ttt_move",
		zap.String("key", key),
		zap.String("game_id", s.GameID),
		zap.String("actor", string(actor)),
		zap.Int("cell", cell),
		zap.Int("move_no", len(s.Moves)),
		zap.String("status", s.Status.String()),
		zap.String("outcome", outcome.String()),
	)

	if outcome.Terminal() {
		kind := ResultTie
		if outcome.Kind == Won {
			kind = ResultWin
		}
		res := resultFrom(s, kind, m.now())
		m.logger.Info("ttt_game_finish",
			zap.String("key", key),
			zap.String("game_id", s.GameID),
			zap.String("result", string(kind)),
			zap.String("winner", string(res.WinnerID())),
			zap.Duration("duration", res.Duration()),
		)
		m.record(ctx, res)
	}
	return s.Render(), outcome, nil
}

// EndGame destroys key's session regardless of its status.
func (m *Manager) EndGame(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrInvalidArgs
	}
	s, err := m.store.Update(ctx, key, func(cur Session) (Session, bool, error) {
		return cur, true, nil
	})
	if err != nil {
		return err
	}
	kind := ResultAborted
	if s.Status.Tied() {
		kind = ResultTie
	} else if _, ok := s.Status.Winner(); ok {
		kind = ResultWin
	}
	m.logger.Info("ttt_game_end",
		zap.String("key", key),
		zap.String("game_id", s.GameID),
		zap.Int("moves", len(s.Moves)),
		zap.String("result", string(kind)),
	)
	m.record(ctx, resultFrom(s, kind, m.now()))
	return nil
}

// Board returns the current snapshot of key's session without changing it.
func (m *Manager) Board(ctx context.Context, key string) (Renderable, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Renderable{}, ErrInvalidArgs
	}
	s, err := m.store.Get(ctx, key)
	if err != nil {
		return Renderable{}, err
	}
	return s.Render(), nil
}

// IsRuleError reports whether err belongs to the player-facing taxonomy rather than infrastructure.
func IsRuleError(err error) bool {
	var se staticErr
	return errors.As(err, &se)
}

func (m *Manager) record(ctx context.Context, res *Result) {
	if m.recorder == nil || res == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := m.recorder.Record(rctx, res); err != nil {
		m.logger.Error("ttt_result_record_error",
			zap.String("game_id", res.GameID),
			zap.String("key", res.Key),
			zap.Error(err),
		)
	}
}
