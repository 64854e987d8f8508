package tictactoe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestMemoryStore_CreateTwiceKeepsFirst(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	first, err := st.Create(ctx, "room", "alice", "bob")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.Turn != 0 || !first.Status.Active() || first.Board != (Board{}) {
		t.Fatalf("unexpected fresh session: %+v", first)
	}
	if _, err := st.Create(ctx, "room", "carol", "dave"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	got, err := st.Get(ctx, "room")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Players != first.Players || got.GameID != first.GameID {
		t.Fatalf("first session changed: %+v", got)
	}
}

func TestMemoryStore_GetRemove(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if _, err := st.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := st.Remove(ctx, "missing"); err != nil {
		t.Fatalf("Remove on missing key: %v", err)
	}
	if _, err := st.Create(ctx, "room", "alice", "bob"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := st.Remove(ctx, "room"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := st.Remove(ctx, "room"); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
	if st.Len() != 0 {
		t.Fatalf("expected empty store, got %d", st.Len())
	}
	if _, err := st.Create(ctx, "room", "alice", "bob"); err != nil {
		t.Fatalf("Create after Remove: %v", err)
	}
}

func TestMemoryStore_UpdateErrorLeavesSession(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	if _, err := st.Create(ctx, "room", "alice", "bob"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	boom := errors.New("boom")
	_, err := st.Update(ctx, "room", func(cur Session) (Session, bool, error) {
		cur.Board[0] = MarkA
		return cur, false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	got, _ := st.Get(ctx, "room")
	if got.Board[0] != Empty {
		t.Fatalf("failed update leaked into store")
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	if _, err := st.Create(ctx, "room", "alice", "bob"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := st.Update(ctx, "room", func(cur Session) (Session, bool, error) {
		next, _, err := ApplyMove(cur, "alice", 4)
		return next, false, err
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := st.Get(ctx, "room")
	got.Moves[0] = 8
	got.Board[4] = Empty
	again, _ := st.Get(ctx, "room")
	if again.Moves[0] != 4 || again.Board[4] != MarkA {
		t.Fatalf("caller mutation reached the store: %+v", again)
	}
}

func TestMemoryStore_ConcurrentCreateSingleWinner(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	var ok, dup atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := st.Create(ctx, "room", PlayerID(fmt.Sprintf("p%d", i)), "bob")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrAlreadyExists):
				dup.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if ok.Load() != 1 || dup.Load() != 63 {
		t.Fatalf("expected exactly one create to win, got ok=%d dup=%d", ok.Load(), dup.Load())
	}
	if n := st.locks.size(); n != 0 {
		t.Fatalf("key locks leaked: %d", n)
	}
}

func TestMemoryStore_RacingMovesApplyOnce(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	if _, err := st.Create(ctx, "room", "alice", "bob"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var accepted, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(cell int) {
			defer wg.Done()
			_, err := st.Update(ctx, "room", func(cur Session) (Session, bool, error) {
				next, _, err := ApplyMove(cur, "alice", cell)
				return next, false, err
			})
			if err == nil {
				accepted.Add(1)
				return
			}
			if !errors.Is(err, ErrNotYourTurn) && !errors.Is(err, ErrCellTaken) {
				t.Errorf("unexpected error: %v", err)
			}
			rejected.Add(1)
		}(i % BoardSize)
	}
	wg.Wait()
	if accepted.Load() != 1 {
		t.Fatalf("expected one accepted move, got %d", accepted.Load())
	}
	got, _ := st.Get(ctx, "room")
	if len(got.Moves) != 1 || got.Turn != 1 {
		t.Fatalf("unexpected state after race: moves=%v turn=%d", got.Moves, got.Turn)
	}
}

func TestMemoryStore_IndependentKeys(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	if _, err := st.Create(ctx, "a", "alice", "bob"); err != nil {
		t.Fatalf("Create a: %v", err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = st.Update(ctx, "a", func(cur Session) (Session, bool, error) {
			close(entered)
			<-release
			return cur, false, nil
		})
	}()
	<-entered

	// "a" is held; "b" must not wait for it
	if _, err := st.Create(ctx, "b", "carol", "dave"); err != nil {
		t.Fatalf("Create b while a is locked: %v", err)
	}
	close(release)
	<-done
}

func TestMemoryStore_BlankKey(t *testing.T) {
	st := NewMemoryStore()
	if _, err := st.Create(context.Background(), "  ", "alice", "bob"); !errors.Is(err, ErrInvalidArgs) {
		t.Fatalf("expected ErrInvalidArgs, got %v", err)
	}
}
