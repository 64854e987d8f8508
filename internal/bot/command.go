package bot

import (
	"strconv"
	"strings"
)

// Command is a parsed chat command: a canonical name and its remaining tokens.
type Command struct {
	Name string
	Args []string
}

const (
	cmdStart   = "start"
	cmdMove    = "move"
	cmdEnd     = "end"
	cmdBoard   = "board"
	cmdStats   = "stats"
	cmdTop     = "top"
	cmdHelp    = "help"
	cmdUnknown = "unknown"
)

var aliases = map[string]string{
	"start": cmdStart, "시작": cmdStart,
	"move": cmdMove, "m": cmdMove, "수": cmdMove,
	"end": cmdEnd, "stop": cmdEnd, "종료": cmdEnd,
	"board": cmdBoard, "status": cmdBoard, "현황": cmdBoard,
	"stats": cmdStats, "전적": cmdStats,
	"top": cmdTop, "rank": cmdTop, "순위": cmdTop,
	"help": cmdHelp, "도움말": cmdHelp,
}

// Parse strips prefix from text and resolves the command. ok is false when text
// does not start with prefix. An empty command after the prefix means help, and a
// bare cell number means move.
func Parse(text, prefix string) (Command, bool) {
	text = strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return Command{}, false
	}
	fields := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(fields) == 0 {
		return Command{Name: cmdHelp}, true
	}
	head := strings.ToLower(fields[0])
	if name, ok := aliases[head]; ok {
		return Command{Name: name, Args: fields[1:]}, true
	}
	if _, err := strconv.Atoi(head); err == nil {
		return Command{Name: cmdMove, Args: fields}, true
	}
	return Command{Name: cmdUnknown, Args: fields}, true
}

// Mention turns a "@name" token into the player token; senders are compared by display name.
func Mention(token string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(token), "@"))
}

// ParseCell reads a 1-based cell number from chat and returns the 0-based index.
// Anything that is not an integer yields -1, which the core rejects as an invalid cell.
func ParseCell(arg string) int {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return -1
	}
	return n - 1
}
