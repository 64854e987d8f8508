package tictactoe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ResultKind is how a game left the store.
type ResultKind string

const (
	ResultWin     ResultKind = "win"
	ResultTie     ResultKind = "tie"
	ResultAborted ResultKind = "aborted"
)

// Result describes a finished or ended game.
type Result struct {
	GameID    string
	Key       string
	Players   [2]PlayerID
	Kind      ResultKind
	Winner    int // player index; -1 unless Kind == ResultWin
	Moves     []int
	StartedAt time.Time
	EndedAt   time.Time
}

// WinnerID returns the winning player's token, or "" for ties and aborted games.
func (r *Result) WinnerID() PlayerID {
	if r == nil || r.Kind != ResultWin || r.Winner < 0 || r.Winner > 1 {
		return ""
	}
	return r.Players[r.Winner]
}

// LoserID returns the losing player's token, or "" for ties and aborted games.
func (r *Result) LoserID() PlayerID {
	if r == nil || r.Kind != ResultWin || r.Winner < 0 || r.Winner > 1 {
		return ""
	}
	return r.Players[1-r.Winner]
}

func (r *Result) Duration() time.Duration {
	if r == nil {
		return 0
	}
	d := r.EndedAt.Sub(r.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Transcript renders the moves as "X5 O1 X9", cells 1-based like the chat commands.
func (r *Result) Transcript() string {
	if r == nil || len(r.Moves) == 0 {
		return ""
	}
	var b strings.Builder
	for i, cell := range r.Moves {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s%d", MarkFor(i%2), cell+1)
	}
	return b.String()
}

// ResultRecorder receives every game that leaves the store.
type ResultRecorder interface {
	Record(ctx context.Context, r *Result) error
}

// Recorders fans a result out to several recorders and joins their errors.
type Recorders []ResultRecorder

func (rs Recorders) Record(ctx context.Context, r *Result) error {
	var errs []error
	for _, rec := range rs {
		if rec == nil {
			continue
		}
		if err := rec.Record(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func resultFrom(s Session, kind ResultKind, endedAt time.Time) *Result {
	winner := -1
	if idx, ok := s.Status.Winner(); ok && kind == ResultWin {
		winner = idx
	}
	return &Result{
		GameID:    s.GameID,
		Key:       s.Key,
		Players:   s.Players,
		Kind:      kind,
		Winner:    winner,
		Moves:     append([]int(nil), s.Moves...),
		StartedAt: s.CreatedAt,
		EndedAt:   endedAt,
	}
}
