package analysis

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/muli0525/ChineseChessAssistant/internal/engine"
	"github.com/muli0525/ChineseChessAssistant/internal/xiangqi"
)

// fakeAnalyzer returns a canned suggestion and counts invocations.
type fakeAnalyzer struct {
	calls int
	sug   *engine.Suggestion
	err   error
}

func (f *fakeAnalyzer) State() engine.State { return engine.StateReady }

func (f *fakeAnalyzer) Analyze(ctx context.Context, board *xiangqi.Board, depth int) (*engine.Suggestion, error) {
	f.calls++
	return f.sug, f.err
}

func newTestService(t *testing.T, analyzer Analyzer) (*Service, *SuggestionCache) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cache := NewSuggestionCache(rdb, 0)
	svc := NewService(analyzer, cache, NewMemoryRepository(), Config{
		DefaultPreset:      "quick",
		HistoryLimit:       50,
		MaxConcurrentGames: 4,
	}, nil)
	return svc, cache
}

func TestNewGameStartsFromOpeningSetup(t *testing.T) {
	svc, _ := newTestService(t, &fakeAnalyzer{})

	st, err := svc.NewGame("")
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if st.GameID == "" {
		t.Fatalf("expected non-empty game id")
	}
	if st.Preset != "quick" {
		t.Fatalf("expected default preset quick, got %q", st.Preset)
	}
	if st.Turn != "Red" {
		t.Fatalf("expected Red to move first, got %q", st.Turn)
	}
	if st.MoveCount != 0 || st.Status != "Playing" {
		t.Fatalf("unexpected fresh state: moves=%d status=%q", st.MoveCount, st.Status)
	}
}

func TestNewGameRejectsUnknownPreset(t *testing.T) {
	svc, _ := newTestService(t, &fakeAnalyzer{})
	if _, err := svc.NewGame("grandmaster"); err == nil {
		t.Fatalf("expected error for unknown preset")
	}
}

func TestConcurrentGameLimit(t *testing.T) {
	svc, _ := newTestService(t, &fakeAnalyzer{})
	for i := 0; i < 4; i++ {
		if _, err := svc.NewGame(""); err != nil {
			t.Fatalf("NewGame #%d: %v", i, err)
		}
	}
	if _, err := svc.NewGame(""); !errors.Is(err, ErrTooManyGames) {
		t.Fatalf("expected ErrTooManyGames, got %v", err)
	}
}

func TestPlayMoveAndUndo(t *testing.T) {
	svc, _ := newTestService(t, &fakeAnalyzer{})
	st, err := svc.NewGame("")
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	// Red cannon to the central file.
	after, err := svc.PlayMove(st.GameID, "h2e2")
	if err != nil {
		t.Fatalf("PlayMove: %v", err)
	}
	if after.MoveCount != 1 || after.Turn != "Black" {
		t.Fatalf("unexpected state after move: moves=%d turn=%q", after.MoveCount, after.Turn)
	}
	if len(after.Moves) != 1 || after.Moves[0] != "h2e2" {
		t.Fatalf("unexpected history: %v", after.Moves)
	}

	undone, err := svc.Undo(st.GameID)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if undone.MoveCount != 0 || undone.Turn != "Red" {
		t.Fatalf("undo did not restore: moves=%d turn=%q", undone.MoveCount, undone.Turn)
	}
	if undone.FEN != st.FEN {
		t.Fatalf("undo FEN mismatch:\n%s\n%s", undone.FEN, st.FEN)
	}

	if _, err := svc.Undo(st.GameID); !errors.Is(err, ErrUndoNotAvailable) {
		t.Fatalf("expected ErrUndoNotAvailable on empty history, got %v", err)
	}
}

func TestPlayMoveRejectsIllegalAndMalformed(t *testing.T) {
	svc, _ := newTestService(t, &fakeAnalyzer{})
	st, err := svc.NewGame("")
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	// Chariot through its own soldier.
	if _, err := svc.PlayMove(st.GameID, "a0a5"); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove for blocked chariot, got %v", err)
	}
	if _, err := svc.PlayMove(st.GameID, "zz99"); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove for malformed token, got %v", err)
	}
	if _, err := svc.PlayMove("no-such-game", "h2e2"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestSuggestCachesEngineReply(t *testing.T) {
	fa := &fakeAnalyzer{sug: &engine.Suggestion{
		Token:  "h2e2",
		Ponder: "h9g7",
		Depth:  6,
	}}
	svc, _ := newTestService(t, fa)
	st, err := svc.NewGame("")
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	first, err := svc.Suggest(context.Background(), st.GameID)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if first.Token != "h2e2" || first.FromCache {
		t.Fatalf("unexpected first suggestion: %+v", first)
	}
	if fa.calls != 1 {
		t.Fatalf("expected one engine call, got %d", fa.calls)
	}

	second, err := svc.Suggest(context.Background(), st.GameID)
	if err != nil {
		t.Fatalf("Suggest (cached): %v", err)
	}
	if !second.FromCache || second.Token != "h2e2" || second.Ponder != "h9g7" {
		t.Fatalf("expected cache hit with same payload: %+v", second)
	}
	if fa.calls != 1 {
		t.Fatalf("cache hit still reached the engine: calls=%d", fa.calls)
	}

	// A different position misses the cache.
	if _, err := svc.PlayMove(st.GameID, "h2e2"); err != nil {
		t.Fatalf("PlayMove: %v", err)
	}
	if _, err := svc.Suggest(context.Background(), st.GameID); err != nil {
		t.Fatalf("Suggest (new position): %v", err)
	}
	if fa.calls != 2 {
		t.Fatalf("expected second engine call after the position changed, got %d", fa.calls)
	}
}

func TestSuggestSurfacesEngineFailure(t *testing.T) {
	fa := &fakeAnalyzer{err: engine.ErrNotReady}
	svc, _ := newTestService(t, fa)
	st, err := svc.NewGame("")
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if _, err := svc.Suggest(context.Background(), st.GameID); !errors.Is(err, engine.ErrNotReady) {
		t.Fatalf("expected engine error to pass through, got %v", err)
	}
}

func TestSuggestEmptyReplyIsNoSuggestion(t *testing.T) {
	svc, _ := newTestService(t, &fakeAnalyzer{})
	st, err := svc.NewGame("")
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if _, err := svc.Suggest(context.Background(), st.GameID); !errors.Is(err, ErrNoSuggestion) {
		t.Fatalf("expected ErrNoSuggestion, got %v", err)
	}
}

func TestFinishPersistsAndForgets(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(&fakeAnalyzer{}, nil, repo, Config{DefaultPreset: "quick"}, nil)

	st, err := svc.NewGame("")
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if _, err := svc.PlayMove(st.GameID, "h2e2"); err != nil {
		t.Fatalf("PlayMove: %v", err)
	}

	id, err := svc.Finish(context.Background(), st.GameID, "red_won")
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected persisted record id")
	}

	if _, err := svc.State(st.GameID); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected game to be forgotten, got %v", err)
	}

	rec, err := repo.GetGameBySession(context.Background(), st.GameID)
	if err != nil || rec == nil {
		t.Fatalf("GetGameBySession: rec=%v err=%v", rec, err)
	}
	if rec.Result != "red_won" || rec.MoveCount != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.MoveTokens) != 1 || rec.MoveTokens[0] != "h2e2" {
		t.Fatalf("unexpected move tokens: %v", rec.MoveTokens)
	}
}

func TestSuggestionCacheRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cache := NewSuggestionCache(rdb, 0)
	ctx := context.Background()

	got, err := cache.Get(ctx, "some-fen", 8)
	if err != nil || got != nil {
		t.Fatalf("expected clean miss, got %v err=%v", got, err)
	}

	want := &CachedSuggestion{Token: "b2b9", Depth: 8, Nodes: 42}
	if err := cache.Put(ctx, "some-fen", 8, want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err = cache.Get(ctx, "some-fen", 8)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Token != "b2b9" || got.Nodes != 42 {
		t.Fatalf("unexpected cached payload: %+v", got)
	}

	// Depth participates in the key.
	if other, _ := cache.Get(ctx, "some-fen", 10); other != nil {
		t.Fatalf("depth should separate cache entries, got %+v", other)
	}
}

func TestNilCacheIsAlwaysMiss(t *testing.T) {
	var cache *SuggestionCache
	if got, err := cache.Get(context.Background(), "fen", 4); err != nil || got != nil {
		t.Fatalf("nil cache should be a silent miss, got %v err=%v", got, err)
	}
	if err := cache.Put(context.Background(), "fen", 4, &CachedSuggestion{Token: "h2e2"}); err != nil {
		t.Fatalf("nil cache Put should be a no-op, got %v", err)
	}
}
