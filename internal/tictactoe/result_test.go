package tictactoe

import (
	"testing"
	"time"
)

func TestResultArgs(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	res := &Result{
		GameID:    "g-1",
		Key:       "room",
		Players:   [2]PlayerID{"alice", "bob"},
		Kind:      ResultWin,
		Winner:    1,
		Moves:     []int{4, 0, 8, 2, 6, 1},
		StartedAt: start,
		EndedAt:   start.Add(90 * time.Second),
	}
	args, err := resultArgs(res)
	if err != nil {
		t.Fatalf("resultArgs: %v", err)
	}
	if len(args) != 11 {
		t.Fatalf("expected 11 args, got %d", len(args))
	}
	if args[5] != "bob" {
		t.Fatalf("winner column: %v", args[5])
	}
	if args[6] != "[4,0,8,2,6,1]" {
		t.Fatalf("moves column: %v", args[6])
	}
	if args[7] != "X5 O1 X9 O3 X7 O2" {
		t.Fatalf("transcript column: %v", args[7])
	}
	if args[10] != int64(90000) {
		t.Fatalf("duration column: %v", args[10])
	}
}

func TestResultArgs_EmptyAborted(t *testing.T) {
	res := &Result{GameID: "g-2", Kind: ResultAborted, Winner: -1, Players: [2]PlayerID{"a", "b"}}
	args, err := resultArgs(res)
	if err != nil {
		t.Fatalf("resultArgs: %v", err)
	}
	if args[5] != "" || args[6] != "[]" || args[7] != "" || args[10] != int64(0) {
		t.Fatalf("unexpected args for aborted game: %v", args)
	}
}
