package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/kakao-tictactoe-bot/internal/adapter/boardpresenter"
	"github.com/park285/kakao-tictactoe-bot/internal/irisfast"
	"github.com/park285/kakao-tictactoe-bot/internal/metrics"
	"github.com/park285/kakao-tictactoe-bot/internal/tictactoe"
	"github.com/park285/kakao-tictactoe-bot/pkg/boarddto"
)

const handleTimeout = 15 * time.Second

// StatsReader serves the stats and top commands; *stats.Store implements it.
type StatsReader interface {
	Get(ctx context.Context, player string) (boarddto.PlayerRecord, error)
	Top(ctx context.Context, room string, n int) ([]boarddto.PlayerRecord, error)
}

// Options configures a Bot. Manager, Presenter and Formatter are required.
type Options struct {
	Prefix          string
	RoomAllowed     func(room string) bool
	LeaderboardSize int

	Manager   *tictactoe.Manager
	Presenter *boardpresenter.Presenter
	Formatter *boardpresenter.Formatter
	Stats     StatsReader
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Bot routes chat messages to the game manager and replies through the presenter.
type Bot struct {
	opts   Options
	logger *zap.Logger
	wg     sync.WaitGroup
}

func New(opts Options) *Bot {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.RoomAllowed == nil {
		opts.RoomAllowed = func(string) bool { return true }
	}
	if opts.LeaderboardSize <= 0 {
		opts.LeaderboardSize = 10
	}
	return &Bot{opts: opts, logger: opts.Logger}
}

// OnMessage is the WebSocket callback. Each accepted command is handled on its own goroutine;
// two events for the same room are serialized by the manager's per-room lock, not by arrival order.
func (b *Bot) OnMessage(msg *irisfast.Message) {
	if msg == nil || msg.Msg == "" {
		return
	}
	if !b.opts.RoomAllowed(msg.Room) {
		b.logger.Debug("room_not_allowed", zap.String("room", msg.Room))
		return
	}
	cmd, ok := Parse(msg.Msg, b.opts.Prefix)
	if !ok {
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		defer cancel()
		b.Dispatch(ctx, msg.Room, msg.SenderName(), cmd)
	}()
}

// Listen subscribes the bot to ws and returns a function that unsubscribes it.
func (b *Bot) Listen(ws irisfast.WSClient) (stop func()) {
	id := ws.OnMessage(b.OnMessage)
	return func() { ws.RemoveMessageCallback(id) }
}

// Wait blocks until every in-flight handler returned.
func (b *Bot) Wait() { b.wg.Wait() }

// Dispatch runs cmd synchronously for sender in room.
func (b *Bot) Dispatch(ctx context.Context, room, sender string, cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("command_panic", zap.String("command", cmd.Name), zap.Any("panic", r))
			b.reply(ctx, room, b.opts.Formatter.Error("internal", "", nil))
		}
	}()

	var result string
	switch cmd.Name {
	case cmdStart:
		result = b.start(ctx, room, cmd.Args)
	case cmdMove:
		result = b.move(ctx, room, sender, cmd.Args)
	case cmdEnd:
		result = b.end(ctx, room)
	case cmdBoard:
		result = b.board(ctx, room)
	case cmdStats:
		result = b.stats(ctx, room, sender, cmd.Args)
	case cmdTop:
		result = b.top(ctx, room)
	case cmdHelp:
		b.reply(ctx, room, b.opts.Formatter.Help())
	default:
		b.reply(ctx, room, b.opts.Formatter.Unknown())
	}
	if result == "" {
		result = "ok"
	}
	b.opts.Metrics.Command(cmd.Name, result)
}

func (b *Bot) start(ctx context.Context, room string, args []string) string {
	if len(args) < 2 {
		b.reply(ctx, room, b.opts.Formatter.UsageStart())
		return "usage"
	}
	p1, p2 := Mention(args[0]), Mention(args[1])
	if p1 == "" || p2 == "" {
		b.reply(ctx, room, b.opts.Formatter.UsageStart())
		return "usage"
	}
	r, err := b.opts.Manager.StartGame(ctx, room, tictactoe.PlayerID(p1), tictactoe.PlayerID(p2))
	if err != nil {
		return b.fail(ctx, room, "", err, nil)
	}
	b.opts.Metrics.GameStarted()
	dto := boardpresenter.ToDTO(r)
	b.sendBoard(ctx, room, b.opts.Formatter.Started(dto), dto)
	return ""
}

func (b *Bot) move(ctx context.Context, room, sender string, args []string) string {
	if len(args) == 0 {
		b.reply(ctx, room, b.opts.Formatter.UsageMove())
		return "usage"
	}
	if sender == "" {
		return b.fail(ctx, room, "", tictactoe.ErrInvalidArgs, nil)
	}
	r, out, err := b.opts.Manager.MakeMove(ctx, room, tictactoe.PlayerID(sender), ParseCell(args[0]))
	if err != nil {
		b.opts.Metrics.Move(tictactoe.Kind(err))
		var current *boarddto.BoardState
		if errors.Is(err, tictactoe.ErrNotYourTurn) {
			if cur, berr := b.opts.Manager.Board(ctx, room); berr == nil {
				current = boardpresenter.ToDTO(cur)
			}
		}
		return b.fail(ctx, room, sender, err, current)
	}
	b.opts.Metrics.Move(out.String())
	dto := boardpresenter.ToDTO(r)
	b.sendBoard(ctx, room, b.opts.Formatter.AfterMove(dto), dto)
	return ""
}

func (b *Bot) end(ctx context.Context, room string) string {
	if err := b.opts.Manager.EndGame(ctx, room); err != nil {
		if errors.Is(err, tictactoe.ErrNotFound) {
			b.reply(ctx, room, b.opts.Formatter.NothingToEnd())
			return tictactoe.Kind(err)
		}
		return b.fail(ctx, room, "", err, nil)
	}
	b.reply(ctx, room, b.opts.Formatter.Ended())
	return ""
}

func (b *Bot) board(ctx context.Context, room string) string {
	r, err := b.opts.Manager.Board(ctx, room)
	if err != nil {
		return b.fail(ctx, room, "", err, nil)
	}
	dto := boardpresenter.ToDTO(r)
	b.sendBoard(ctx, room, boardpresenter.Grid(dto)+"\n"+b.opts.Formatter.Announcement(dto), dto)
	return ""
}

func (b *Bot) stats(ctx context.Context, room, sender string, args []string) string {
	if b.opts.Stats == nil {
		b.reply(ctx, room, b.opts.Formatter.StatsUnavailable())
		return "unavailable"
	}
	player := sender
	if len(args) > 0 {
		player = Mention(args[0])
	}
	if player == "" {
		return b.fail(ctx, room, "", tictactoe.ErrInvalidArgs, nil)
	}
	rec, err := b.opts.Stats.Get(ctx, player)
	if err != nil {
		return b.fail(ctx, room, "", err, nil)
	}
	b.reply(ctx, room, b.opts.Formatter.Record(rec))
	return ""
}

func (b *Bot) top(ctx context.Context, room string) string {
	if b.opts.Stats == nil {
		b.reply(ctx, room, b.opts.Formatter.StatsUnavailable())
		return "unavailable"
	}
	recs, err := b.opts.Stats.Top(ctx, room, b.opts.LeaderboardSize)
	if err != nil {
		return b.fail(ctx, room, "", err, nil)
	}
	b.reply(ctx, room, b.opts.Formatter.Leaderboard(recs))
	return ""
}

// fail replies with the message for err's kind and returns the kind for metrics.
func (b *Bot) fail(ctx context.Context, room, actor string, err error, current *boarddto.BoardState) string {
	kind := tictactoe.Kind(err)
	if !tictactoe.IsRuleError(err) {
		b.logger.Error("command_failed", zap.String("room", room), zap.Error(err))
	}
	b.reply(ctx, room, b.opts.Formatter.Error(kind, actor, current))
	return kind
}

func (b *Bot) reply(ctx context.Context, room, text string) {
	if err := b.opts.Presenter.Text(ctx, room, text); err != nil {
		b.opts.Metrics.EgressFailed("text")
		b.logger.Warn("reply_failed", zap.String("room", room), zap.Error(err))
	}
}

func (b *Bot) sendBoard(ctx context.Context, room, text string, dto *boarddto.BoardState) {
	if err := b.opts.Presenter.Board(ctx, room, text, dto); err != nil {
		b.opts.Metrics.EgressFailed("board")
		b.logger.Warn("board_reply_failed", zap.String("room", room), zap.Error(err))
	}
}
