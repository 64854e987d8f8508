package boarddto

// BoardState is the presentation snapshot of one tic-tac-toe game.
type BoardState struct {
	Key        string
	Cells      [9]string // "X", "O" or "" per cell, row-major
	Players    [2]string
	Marks      [2]string
	Turn       int
	TurnOwner  string
	Status     string // in_progress | won | tied
	Winner     int    // player index, -1 unless Status is won
	WinLine    []int  // the three winning cells, nil otherwise
	LastMove   int    // -1 before the first move
	MoveCount  int
	BoardImage []byte
}

const (
	StatusInProgress = "in_progress"
	StatusWon        = "won"
	StatusTied       = "tied"
)

func (s *BoardState) Finished() bool {
	return s != nil && s.Status != StatusInProgress
}

// WinnerName returns the winner's display name or "".
func (s *BoardState) WinnerName() string {
	if s == nil || s.Status != StatusWon || s.Winner < 0 || s.Winner > 1 {
		return ""
	}
	return s.Players[s.Winner]
}
