package stats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/kakao-tictactoe-bot/internal/tictactoe"
	"github.com/park285/kakao-tictactoe-bot/pkg/boarddto"
)

const (
	fieldWins    = "wins"
	fieldLosses  = "losses"
	fieldTies    = "ties"
	fieldAborted = "aborted"

	// a recorded game id is remembered this long so a retried Record is a no-op
	seenTTL = 7 * 24 * time.Hour

	// WATCH 충돌 시 재시도 횟수
	maxTxAttempts = 3
)

var ErrEmptyPlayer = errors.New("stats: empty player")

// Store keeps lifetime tallies per player and a wins leaderboard per room in Redis.
// It implements tictactoe.ResultRecorder.
type Store struct {
	rdb    *redis.Client
	prefix string
}

func New(rdb *redis.Client) *Store { return &Store{rdb: rdb, prefix: "ttt"} }

// Open connects to redisURL (redis://host:port/db) and pings it.
func Open(ctx context.Context, redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb), nil
}

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) keyPlayer(player string) string { return s.prefix + ":player:" + strings.TrimSpace(player) }
func (s *Store) keyBoard(room string) string    { return s.prefix + ":lb:" + strings.TrimSpace(room) }
func (s *Store) keySeen(gameID string) string   { return s.prefix + ":seen:" + gameID }

// Record tallies one result. Self-play games and duplicates of an already recorded game are ignored.
// The seen marker and the tallies commit in one MULTI guarded by WATCH, so a failed Record leaves
// nothing behind and can be retried.
func (s *Store) Record(ctx context.Context, res *tictactoe.Result) error {
	if res == nil {
		return nil
	}
	p0, p1 := string(res.Players[0]), string(res.Players[1])
	if p0 == p1 {
		return nil
	}

	board := s.keyBoard(res.Key)
	hashes := []string{s.keyPlayer(p0), s.keyPlayer(p1)}
	watched := append([]string{board}, hashes...)
	var seen string
	if res.GameID != "" {
		seen = s.keySeen(res.GameID)
		watched = append(watched, seen)
	}

	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			if seen != "" {
				n, err := tx.Exists(ctx, seen).Result()
				if err != nil {
					return err
				}
				if n > 0 {
					return nil
				}
			}
			// EXEC 안의 WRONGTYPE 은 앞선 명령을 되돌리지 않으므로 타입을 먼저 확인
			if err := expectType(ctx, tx, board, "zset"); err != nil {
				return err
			}
			for _, k := range hashes {
				if err := expectType(ctx, tx, k, "hash"); err != nil {
					return err
				}
			}
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				s.queueTally(ctx, pipe, res, board)
				if seen != "" {
					pipe.Set(ctx, seen, 1, seenTTL)
				}
				return nil
			})
			return err
		}, watched...)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("stats record: %w", err)
	}
	return nil
}

func (s *Store) queueTally(ctx context.Context, pipe redis.Pipeliner, res *tictactoe.Result, board string) {
	p0, p1 := string(res.Players[0]), string(res.Players[1])
	switch res.Kind {
	case tictactoe.ResultWin:
		winner, loser := string(res.WinnerID()), string(res.LoserID())
		pipe.HIncrBy(ctx, s.keyPlayer(winner), fieldWins, 1)
		pipe.HIncrBy(ctx, s.keyPlayer(loser), fieldLosses, 1)
		pipe.ZIncrBy(ctx, board, 1, winner)
		pipe.ZIncrBy(ctx, board, 0, loser)
	case tictactoe.ResultTie:
		for _, p := range []string{p0, p1} {
			pipe.HIncrBy(ctx, s.keyPlayer(p), fieldTies, 1)
			pipe.ZIncrBy(ctx, board, 0, p)
		}
	case tictactoe.ResultAborted:
		for _, p := range []string{p0, p1} {
			pipe.HIncrBy(ctx, s.keyPlayer(p), fieldAborted, 1)
		}
	}
}

func expectType(ctx context.Context, tx *redis.Tx, key, want string) error {
	got, err := tx.Type(ctx, key).Result()
	if err != nil {
		return err
	}
	if got != "none" && got != want {
		return fmt.Errorf("%s holds %s, want %s", key, got, want)
	}
	return nil
}

// Get returns a player's tally; unknown players have all zeros.
func (s *Store) Get(ctx context.Context, player string) (boarddto.PlayerRecord, error) {
	if strings.TrimSpace(player) == "" {
		return boarddto.PlayerRecord{}, ErrEmptyPlayer
	}
	m, err := s.rdb.HGetAll(ctx, s.keyPlayer(player)).Result()
	if err != nil {
		return boarddto.PlayerRecord{}, fmt.Errorf("stats get: %w", err)
	}
	return recordFrom(player, m), nil
}

// Top returns up to n players of room ordered by wins, highest first.
func (s *Store) Top(ctx context.Context, room string, n int) ([]boarddto.PlayerRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	ranked, err := s.rdb.ZRevRangeWithScores(ctx, s.keyBoard(room), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("stats top: %w", err)
	}
	if len(ranked) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ranked))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, z := range ranked {
			cmds[i] = pipe.HGetAll(ctx, s.keyPlayer(fmt.Sprint(z.Member)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("stats top details: %w", err)
	}
	out := make([]boarddto.PlayerRecord, 0, len(ranked))
	for i, z := range ranked {
		rec := recordFrom(fmt.Sprint(z.Member), cmds[i].Val())
		// the room board counts wins in this room only
		rec.Wins = int64(z.Score)
		out = append(out, rec)
	}
	return out, nil
}

func recordFrom(player string, m map[string]string) boarddto.PlayerRecord {
	return boarddto.PlayerRecord{
		Player: player,
		Wins:   parseCount(m[fieldWins]),
		Losses: parseCount(m[fieldLosses]),
		Ties:   parseCount(m[fieldTies]),
	}
}

func parseCount(v string) int64 {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

var _ tictactoe.ResultRecorder = (*Store)(nil)
