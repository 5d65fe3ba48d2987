package domain

import "time"

// GameRecord is the persisted summary of an assisted game.
type GameRecord struct {
	ID          int64
	SessionUUID string
	Preset      string
	Result      string
	MoveTokens  []string
	FinalFEN    string
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
	MoveCount   int
}

// SuggestionRecord keeps one engine suggestion for auditing.
type SuggestionRecord struct {
	ID          int64
	SessionUUID string
	FEN         string
	Token       string
	Depth       int
	Nodes       int64
	TimeMillis  int64
	CreatedAt   time.Time
}
