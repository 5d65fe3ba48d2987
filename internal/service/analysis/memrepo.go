package analysis

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/muli0525/ChineseChessAssistant/internal/domain"
)

// memrepo is a development-only in-memory repository used when no DB is
// configured.
type memrepo struct {
	mu sync.RWMutex

	nextGameID       int64
	nextSuggestionID int64

	gamesByID      map[int64]*domain.GameRecord
	gamesBySession map[string]*domain.GameRecord
	suggestions    []*domain.SuggestionRecord
}

func NewMemoryRepository() Repository {
	return &memrepo{
		gamesByID:      make(map[int64]*domain.GameRecord),
		gamesBySession: make(map[string]*domain.GameRecord),
	}
}

func (m *memrepo) InsertGame(ctx context.Context, game *domain.GameRecord) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateGame
	}
	key := strings.TrimSpace(game.SessionUUID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gamesBySession[key]; exists {
		return 0, ErrDuplicateGame
	}

	m.nextGameID++
	id := m.nextGameID
	copy := *game
	copy.ID = id

	m.gamesByID[id] = &copy
	m.gamesBySession[key] = &copy
	return id, nil
}

func (m *memrepo) GetRecentGames(ctx context.Context, limit int) ([]*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*domain.GameRecord, 0, len(m.gamesByID))
	for _, g := range m.gamesByID {
		items = append(items, g)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]*domain.GameRecord, len(items))
	for i, g := range items {
		copy := *g
		out[i] = &copy
	}
	return out, nil
}

func (m *memrepo) GetGameBySession(ctx context.Context, sessionUUID string) (*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.gamesBySession[strings.TrimSpace(sessionUUID)]; ok && g != nil {
		copy := *g
		return &copy, nil
	}
	return nil, nil
}

func (m *memrepo) InsertSuggestion(ctx context.Context, s *domain.SuggestionRecord) (int64, error) {
	if s == nil {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSuggestionID++
	copy := *s
	copy.ID = m.nextSuggestionID
	m.suggestions = append(m.suggestions, &copy)
	return copy.ID, nil
}
