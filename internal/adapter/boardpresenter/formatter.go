package boardpresenter

import (
	"strings"

	"github.com/park285/kakao-tictactoe-bot/internal/msgcat"
	"github.com/park285/kakao-tictactoe-bot/internal/util"
	"github.com/park285/kakao-tictactoe-bot/pkg/boarddto"
)

const (
	emojiX     = "❌"
	emojiO     = "⭕"
	emojiEmpty = "⬜"

	helpHeader = "Tic Tac Toe commands:"

	// leaderboards longer than this are folded behind Kakao's "see more"
	foldAfterLines = 5
)

// Formatter renders board DTOs and replies into chat text using the message catalog.
type Formatter struct {
	cat    *msgcat.Catalog
	prefix string
}

func NewFormatter(cat *msgcat.Catalog, prefix string) *Formatter {
	if cat == nil {
		cat = msgcat.Must()
	}
	return &Formatter{cat: cat, prefix: prefix}
}

// Grid draws the board as three rows of emoji.
func Grid(s *boarddto.BoardState) string {
	if s == nil {
		return ""
	}
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			if col > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(symbol(s.Cells[row*3+col]))
		}
		if row < 2 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func symbol(cell string) string {
	switch cell {
	case "X":
		return emojiX
	case "O":
		return emojiO
	default:
		return emojiEmpty
	}
}

func markEmoji(idx int) string {
	if idx == 0 {
		return emojiX
	}
	return emojiO
}

func (f *Formatter) render(key string, data map[string]any, fallback string) string {
	if data == nil {
		data = map[string]any{}
	}
	data["Prefix"] = f.prefix
	return f.cat.RenderOr(key, data, fallback)
}

// Started announces a new game followed by the empty grid.
func (f *Formatter) Started(s *boarddto.BoardState) string {
	head := f.render("game.started", map[string]any{
		"P1": s.Players[0], "P2": s.Players[1],
		"MarkA": emojiX, "MarkB": emojiO,
	}, "Tic Tac Toe game started!")
	return head + "\n" + Grid(s)
}

// AfterMove is the grid plus whichever announcement the new state calls for.
func (f *Formatter) AfterMove(s *boarddto.BoardState) string {
	return Grid(s) + "\n" + f.Announcement(s)
}

// Announcement is the win, tie or next-turn line for s.
func (f *Formatter) Announcement(s *boarddto.BoardState) string {
	switch s.Status {
	case boarddto.StatusWon:
		return f.render("game.won", map[string]any{"Player": s.WinnerName(), "Mark": markEmoji(s.Winner)}, "Game over.")
	case boarddto.StatusTied:
		return f.render("game.tied", nil, "It's a tie!")
	default:
		return f.render("game.your_turn", map[string]any{"Player": s.TurnOwner, "Mark": markEmoji(s.Turn)}, "Next turn.")
	}
}

func (f *Formatter) Ended() string {
	return f.render("game.ended", nil, "The game has been ended.")
}

// Error maps a core error kind to its reply. actor and s are used by not_your_turn and may be empty.
func (f *Formatter) Error(kind, actor string, s *boarddto.BoardState) string {
	data := map[string]any{"Player": actor, "Owner": ""}
	if s != nil {
		data["Owner"] = s.TurnOwner
	}
	if kind == "" {
		kind = "internal"
	}
	return f.render("error."+kind, data, f.render("error.internal", nil, "Something went wrong."))
}

func (f *Formatter) NothingToEnd() string {
	return f.render("error.nothing_to_end", nil, "No game is ongoing to end.")
}

func (f *Formatter) Help() string {
	text := f.render("help", nil, helpHeader)
	return util.ApplySeeMoreWithHeader(text, helpHeader, "", "")
}

func (f *Formatter) Unknown() string { return f.render("unknown", nil, "Unknown command.") }

func (f *Formatter) UsageStart() string {
	return f.render("usage.start", nil, "Please mention two players to start the game.")
}

func (f *Formatter) UsageMove() string { return f.render("usage.move", nil, "Pick a cell (1-9).") }

func (f *Formatter) StatsUnavailable() string {
	return f.render("stats.unavailable", nil, "Stats are not enabled.")
}

func (f *Formatter) Record(r boarddto.PlayerRecord) string {
	return f.render("stats.record", map[string]any{
		"Player": r.Player, "Wins": r.Wins, "Losses": r.Losses, "Ties": r.Ties,
	}, r.Player)
}

// Leaderboard lists records in rank order.
func (f *Formatter) Leaderboard(records []boarddto.PlayerRecord) string {
	if len(records) == 0 {
		return f.render("stats.top_empty", nil, "No finished games yet.")
	}
	header := f.render("stats.top_header", nil, "Leaderboard")
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, header)
	for i, r := range records {
		lines = append(lines, f.render("stats.top_line", map[string]any{
			"Rank": i + 1, "Player": r.Player, "Wins": r.Wins, "Losses": r.Losses, "Ties": r.Ties,
		}, r.Player))
	}
	text := strings.Join(lines, "\n")
	if len(records) > foldAfterLines {
		return util.ApplySeeMoreWithHeader(text, header, "", "")
	}
	return text
}
