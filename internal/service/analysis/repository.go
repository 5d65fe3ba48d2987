package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/muli0525/ChineseChessAssistant/internal/domain"
)

var ErrDuplicateGame = errors.New("game record already exists")

type Repository interface {
	InsertGame(ctx context.Context, game *domain.GameRecord) (int64, error)
	GetRecentGames(ctx context.Context, limit int) ([]*domain.GameRecord, error)
	GetGameBySession(ctx context.Context, sessionUUID string) (*domain.GameRecord, error)
	InsertSuggestion(ctx context.Context, s *domain.SuggestionRecord) (int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertGame(ctx context.Context, game *domain.GameRecord) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil game record payload")
	}

	moves, err := json.Marshal(game.MoveTokens)
	if err != nil {
		return 0, fmt.Errorf("marshal move_tokens: %w", err)
	}

	const query = `
		INSERT INTO xiangqi_games (
			session_uuid,
			preset,
			result,
			move_tokens,
			final_fen,
			started_at,
			ended_at,
			duration_ms,
			move_count
		)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8, $9)
		ON CONFLICT (session_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		game.SessionUUID,
		game.Preset,
		game.Result,
		moves,
		game.FinalFEN,
		game.StartedAt,
		game.EndedAt,
		game.Duration.Milliseconds(),
		game.MoveCount,
	).Scan(&id)
	if err == sql.ErrNoRows || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert game record: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) GetRecentGames(ctx context.Context, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT
			id,
			session_uuid,
			preset,
			result,
			move_tokens,
			final_fen,
			started_at,
			ended_at,
			duration_ms,
			move_count
		FROM xiangqi_games
		ORDER BY ended_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select game records: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.GameRecord, 0, limit)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

func (r *repository) GetGameBySession(ctx context.Context, sessionUUID string) (*domain.GameRecord, error) {
	const query = `
		SELECT
			id,
			session_uuid,
			preset,
			result,
			move_tokens,
			final_fen,
			started_at,
			ended_at,
			duration_ms,
			move_count
		FROM xiangqi_games
		WHERE session_uuid = $1
		ORDER BY ended_at DESC
		LIMIT 1`

	row := r.db.QueryRowContext(ctx, query, sessionUUID)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return game, nil
}

func (r *repository) InsertSuggestion(ctx context.Context, s *domain.SuggestionRecord) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("nil suggestion record payload")
	}
	const query = `
		INSERT INTO xiangqi_suggestions (
			session_uuid,
			fen,
			token,
			depth,
			nodes,
			time_ms,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(
		ctx,
		query,
		s.SessionUUID,
		s.FEN,
		s.Token,
		s.Depth,
		s.Nodes,
		s.TimeMillis,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert suggestion record: %w", err)
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.GameRecord, error) {
	var (
		game       domain.GameRecord
		movesJSON  []byte
		durationMS sql.NullInt64
	)
	if err := row.Scan(
		&game.ID,
		&game.SessionUUID,
		&game.Preset,
		&game.Result,
		&movesJSON,
		&game.FinalFEN,
		&game.StartedAt,
		&game.EndedAt,
		&durationMS,
		&game.MoveCount,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("scan game record: %w", err)
	}
	if durationMS.Valid {
		game.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if err := json.Unmarshal(movesJSON, &game.MoveTokens); err != nil {
		return nil, fmt.Errorf("unmarshal move_tokens: %w", err)
	}
	return &game, nil
}
