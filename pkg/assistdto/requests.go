package assistdto

type CreateGameRequest struct {
	Preset string `json:"preset,omitempty"`
}

type PlayMoveRequest struct {
	Token string `json:"token"`
}

type FinishGameRequest struct {
	Result string `json:"result,omitempty"`
}

type FinishGameResponse struct {
	RecordID int64 `json:"record_id"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Engine string `json:"engine"`
}
