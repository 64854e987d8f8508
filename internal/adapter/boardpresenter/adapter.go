package boardpresenter

import (
	"github.com/park285/kakao-tictactoe-bot/internal/tictactoe"
	"github.com/park285/kakao-tictactoe-bot/pkg/boarddto"
)

// ToDTO converts a core snapshot into the presentation DTO.
func ToDTO(r tictactoe.Renderable) *boarddto.BoardState {
	s := &boarddto.BoardState{
		Key:       r.Key,
		Players:   [2]string{string(r.Players[0]), string(r.Players[1])},
		Marks:     [2]string{tictactoe.MarkA.String(), tictactoe.MarkB.String()},
		Turn:      r.Turn,
		TurnOwner: string(r.TurnOwner),
		Status:    boarddto.StatusInProgress,
		Winner:    -1,
		LastMove:  r.LastMove,
		MoveCount: r.MoveCount,
	}
	for i, m := range r.Cells {
		if m != tictactoe.Empty {
			s.Cells[i] = m.String()
		}
	}
	switch {
	case r.Status.Tied():
		s.Status = boarddto.StatusTied
	case r.Status.Terminal():
		s.Status = boarddto.StatusWon
		s.Winner, _ = r.Status.Winner()
		if line, ok := tictactoe.WinningLine(r.Cells); ok {
			s.WinLine = line[:]
		}
	}
	return s
}
