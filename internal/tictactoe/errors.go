package tictactoe

import "errors"

type staticErr string

func (e staticErr) Error() string { return string(e) }

// All of these are recoverable; none of them mutates state.
var (
	ErrInvalidArgs   = staticErr("invalid arguments")
	ErrAlreadyExists = staticErr("a game is already in progress for this key")
	ErrNotFound      = staticErr("no game in progress for this key")
	ErrGameOver      = staticErr("game is already over")
	ErrInvalidCell   = staticErr("cell must be between 0 and 8")
	ErrNotYourTurn   = staticErr("not your turn")
	ErrCellTaken     = staticErr("cell already taken")
)

// Kind maps err to a stable token for logs, metric labels and message keys.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgs):
		return "invalid_args"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrGameOver):
		return "game_over"
	case errors.Is(err, ErrInvalidCell):
		return "invalid_cell"
	case errors.Is(err, ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, ErrCellTaken):
		return "cell_taken"
	default:
		return "internal"
	}
}
