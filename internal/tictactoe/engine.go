package tictactoe

// WinLines are the 8 triples that win: 3 rows, 3 columns, 2 diagonals.
var WinLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Winner returns the mark that fills a complete line, or Empty.
func Winner(b Board) Mark {
	line, ok := WinningLine(b)
	if !ok {
		return Empty
	}
	return b[line[0]]
}

// WinningLine returns the first complete line on b.
func WinningLine(b Board) ([3]int, bool) {
	for _, line := range WinLines {
		m := b[line[0]]
		if m != Empty && b[line[1]] == m && b[line[2]] == m {
			return line, true
		}
	}
	return [3]int{}, false
}

// ApplyMove validates a move by actor at cell and returns the resulting session.
// The input session is never modified; on error the zero Session is returned.
//
// Checks run in order and the first failure wins: game over, cell range, turn owner, free cell.
func ApplyMove(s Session, actor PlayerID, cell int) (Session, Outcome, error) {
	if !s.Status.Active() {
		return Session{}, Outcome{}, ErrGameOver
	}
	if cell < 0 || cell >= BoardSize {
		return Session{}, Outcome{}, ErrInvalidCell
	}
	if actor != s.Players[s.Turn] {
		return Session{}, Outcome{}, ErrNotYourTurn
	}
	if s.Board[cell] != Empty {
		return Session{}, Outcome{}, ErrCellTaken
	}

	next := s.clone()
	next.Board[cell] = MarkFor(s.Turn)
	next.Moves = append(next.Moves, cell)

	// the mover is the only one who can have just completed a line
	if Winner(next.Board) != Empty {
		next.Status = WonBy(s.Turn)
		return next, Outcome{Kind: Won, Winner: s.Turn}, nil
	}
	if next.Board.Full() {
		next.Status = TiedStatus()
		return next, Outcome{Kind: Tie}, nil
	}
	next.Turn = 1 - s.Turn
	return next, Outcome{Kind: MoveAccepted}, nil
}
