package assistdto

import "time"

type GameState struct {
	GameID    string    `json:"game_id"`
	Preset    string    `json:"preset"`
	FEN       string    `json:"fen"`
	Turn      string    `json:"turn"`
	Status    string    `json:"status"`
	InCheck   bool      `json:"in_check"`
	Moves     []string  `json:"moves"`
	MoveCount int       `json:"move_count"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Suggestion struct {
	GameID     string `json:"game_id"`
	Token      string `json:"token"`
	Ponder     string `json:"ponder,omitempty"`
	Depth      int    `json:"depth"`
	Nodes      int64  `json:"nodes,omitempty"`
	TimeMillis int64  `json:"time_ms,omitempty"`
	FromCache  bool   `json:"from_cache"`
}

type GameSummary struct {
	ID          int64     `json:"id"`
	SessionUUID string    `json:"session_uuid"`
	Preset      string    `json:"preset"`
	Result      string    `json:"result"`
	MoveTokens  []string  `json:"move_tokens"`
	FinalFEN    string    `json:"final_fen"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	MoveCount   int       `json:"move_count"`
}
