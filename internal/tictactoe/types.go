package tictactoe

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BoardSize is the number of cells on the 3x3 board. Cells are indexed row-major (row*3+col).
const BoardSize = 9

// PlayerID is the opaque identity token the adapter assigns to a player.
// The core only ever compares it for equality.
type PlayerID string

func (p PlayerID) IsZero() bool { return strings.TrimSpace(string(p)) == "" }

// Mark is the content of a single cell.
type Mark uint8

const (
	Empty Mark = iota
	MarkA
	MarkB
)

func (m Mark) String() string {
	switch m {
	case MarkA:
		return "X"
	case MarkB:
		return "O"
	default:
		return "."
	}
}

// MarkFor returns the mark placed by the player at turn index idx.
func MarkFor(idx int) Mark {
	if idx == 0 {
		return MarkA
	}
	return MarkB
}

type Board [BoardSize]Mark

// Full reports whether no cell is Empty.
func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

type statusKind uint8

const (
	statusInProgress statusKind = iota
	statusWon
	statusTied
)

// Status is InProgress, WonBy(player index) or Tied. The zero value is InProgress.
type Status struct {
	kind   statusKind
	winner int
}

func InProgress() Status { return Status{kind: statusInProgress} }
func WonBy(idx int) Status { return Status{kind: statusWon, winner: idx} }
func TiedStatus() Status { return Status{kind: statusTied} }
func (s Status) Active() bool { return s.kind == statusInProgress }
func (s Status) Tied() bool { return s.kind == statusTied }

// Terminal reports WonBy or Tied.
func (s Status) Terminal() bool { return s.kind != statusInProgress }

// Winner returns the winning player index when the status is WonBy.
func (s Status) Winner() (int, bool) {
	if s.kind != statusWon {
		return 0, false
	}
	return s.winner, true
}

func (s Status) String() string {
	switch s.kind {
	case statusWon:
		if s.winner == 0 {
			return "WON_BY_0"
		}
		return "WON_BY_1"
	case statusTied:
		return "TIED"
	default:
		return "IN_PROGRESS"
	}
}

// OutcomeKind tags the result of an accepted move.
type OutcomeKind uint8

const (
	MoveAccepted OutcomeKind = iota
	Won
	Tie
)

// Outcome tells the adapter what to announce after an accepted move.
type Outcome struct {
	Kind   OutcomeKind
	Winner int // player index, meaningful only when Kind == Won
}

// Terminal reports whether the move ended the game.
func (o Outcome) Terminal() bool { return o.Kind != MoveAccepted }

func (o Outcome) String() string {
	switch o.Kind {
	case Won:
		if o.Winner == 0 {
			return "won_0"
		}
		return "won_1"
	case Tie:
		return "tied"
	default:
		return "accepted"
	}
}

// Session is one game instance. The engine treats it as a value; Moves is copied on write.
// Key identifies the live session; GameID identifies this particular game in archives.
type Session struct {
	Key       string
	GameID    string
	Board     Board
	Players   [2]PlayerID
	Turn      int
	Status    Status
	Moves     []int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession returns a fresh session with an empty board and player 0 to move.
func NewSession(key string, p1, p2 PlayerID) Session {
	now := time.Now()
	return Session{
		Key:       key,
		GameID:    uuid.NewString(),
		Players:   [2]PlayerID{p1, p2},
		Turn:      0,
		Status:    InProgress(),
		Moves:     []int{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TurnOwner returns the player whose move is currently accepted.
func (s Session) TurnOwner() PlayerID { return s.Players[s.Turn] }

func (s Session) clone() Session {
	c := s
	c.Moves = append([]int(nil), s.Moves...)
	return c
}

// Renderable is the snapshot handed to the adapter for formatting.
type Renderable struct {
	Key       string
	Cells     Board
	Players   [2]PlayerID
	Turn      int
	TurnOwner PlayerID
	Status    Status
	LastMove  int // -1 when no move was played yet
	MoveCount int
}

// Render builds the adapter-facing snapshot of s.
func (s Session) Render() Renderable {
	last := -1
	if n := len(s.Moves); n > 0 {
		last = s.Moves[n-1]
	}
	return Renderable{
		Key:       s.Key,
		Cells:     s.Board,
		Players:   s.Players,
		Turn:      s.Turn,
		TurnOwner: s.TurnOwner(),
		Status:    s.Status,
		LastMove:  last,
		MoveCount: len(s.Moves),
	}
}
