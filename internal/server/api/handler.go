package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/muli0525/ChineseChessAssistant/internal/domain"
	"github.com/muli0525/ChineseChessAssistant/internal/engine"
	"github.com/muli0525/ChineseChessAssistant/internal/service/analysis"
	"github.com/muli0525/ChineseChessAssistant/pkg/assistdto"
)

// Handler routes the assistant HTTP API. All bodies are JSON; the
// suggestion stream endpoint speaks server-sent events instead.
type Handler struct {
	svc    *analysis.Service
	logger *zap.Logger
}

func NewHandler(svc *analysis.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Handle is the fasthttp request entrypoint.
func (h *Handler) Handle(ctx *fasthttp.RequestCtx) {
	method := string(ctx.Method())
	path := string(ctx.Path())

	switch {
	case path == "/healthz" && method == fasthttp.MethodGet:
		h.health(ctx)
		return
	case path == "/api/games" && method == fasthttp.MethodPost:
		h.createGame(ctx)
		return
	case path == "/api/games/recent" && method == fasthttp.MethodGet:
		h.recentGames(ctx)
		return
	}

	if rest, ok := strings.CutPrefix(path, "/api/games/"); ok {
		gameID, action, _ := strings.Cut(rest, "/")
		if gameID == "" {
			h.writeError(ctx, fasthttp.StatusNotFound, "not_found", "unknown route")
			return
		}
		switch {
		case action == "" && method == fasthttp.MethodGet:
			h.gameState(ctx, gameID)
			return
		case action == "moves" && method == fasthttp.MethodPost:
			h.playMove(ctx, gameID)
			return
		case action == "undo" && method == fasthttp.MethodPost:
			h.undo(ctx, gameID)
			return
		case action == "suggestion" && method == fasthttp.MethodGet:
			h.suggest(ctx, gameID)
			return
		case action == "suggestion/stream" && method == fasthttp.MethodGet:
			h.suggestStream(ctx, gameID)
			return
		case action == "finish" && method == fasthttp.MethodPost:
			h.finish(ctx, gameID)
			return
		}
	}

	h.writeError(ctx, fasthttp.StatusNotFound, "not_found", "unknown route")
}

func (h *Handler) health(ctx *fasthttp.RequestCtx) {
	state := h.svc.EngineState()
	status := "ok"
	if state != engine.StateReady && state != engine.StateAnalyzing {
		status = "degraded"
	}
	h.writeJSON(ctx, fasthttp.StatusOK, assistdto.HealthResponse{
		Status: status,
		Engine: state.String(),
	})
}

func (h *Handler) createGame(ctx *fasthttp.RequestCtx) {
	var req assistdto.CreateGameRequest
	if len(ctx.PostBody()) > 0 {
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			h.writeError(ctx, fasthttp.StatusBadRequest, "bad_request", "malformed json body")
			return
		}
	}
	st, err := h.svc.NewGame(req.Preset)
	if err != nil {
		h.writeServiceError(ctx, err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusCreated, toGameState(st))
}

func (h *Handler) gameState(ctx *fasthttp.RequestCtx, gameID string) {
	st, err := h.svc.State(gameID)
	if err != nil {
		h.writeServiceError(ctx, err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, toGameState(st))
}

func (h *Handler) playMove(ctx *fasthttp.RequestCtx, gameID string) {
	var req assistdto.PlayMoveRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || strings.TrimSpace(req.Token) == "" {
		h.writeError(ctx, fasthttp.StatusBadRequest, "bad_request", "move token is required")
		return
	}
	st, err := h.svc.PlayMove(gameID, req.Token)
	if err != nil {
		h.writeServiceError(ctx, err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, toGameState(st))
}

func (h *Handler) undo(ctx *fasthttp.RequestCtx, gameID string) {
	st, err := h.svc.Undo(gameID)
	if err != nil {
		h.writeServiceError(ctx, err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, toGameState(st))
}

func (h *Handler) suggest(ctx *fasthttp.RequestCtx, gameID string) {
	sug, err := h.svc.Suggest(ctx, gameID)
	if err != nil {
		h.writeServiceError(ctx, err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, toSuggestion(sug))
}

// suggestStream emits the current game state and then the engine suggestion
// as server-sent events. The stream closes once the suggestion is delivered.
func (h *Handler) suggestStream(ctx *fasthttp.RequestCtx, gameID string) {
	st, err := h.svc.State(gameID)
	if err != nil {
		h.writeServiceError(ctx, err)
		return
	}

	svc := h.svc
	logger := h.logger
	ctx.Response.Header.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		writeEvent(w, "state", toGameState(st))
		_ = w.Flush()

		streamCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		sug, err := svc.Suggest(streamCtx, gameID)
		if err != nil {
			logger.Warn("suggestion stream failed",
				zap.String("game", gameID), zap.Error(err))
			writeEvent(w, "error", assistdto.ErrorResponse{
				Code:    errorCode(err),
				Message: err.Error(),
			})
			_ = w.Flush()
			return
		}
		writeEvent(w, "suggestion", toSuggestion(sug))
		_ = w.Flush()
	})
}

func (h *Handler) finish(ctx *fasthttp.RequestCtx, gameID string) {
	var req assistdto.FinishGameRequest
	if len(ctx.PostBody()) > 0 {
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			h.writeError(ctx, fasthttp.StatusBadRequest, "bad_request", "malformed json body")
			return
		}
	}
	id, err := h.svc.Finish(ctx, gameID, req.Result)
	if err != nil {
		h.writeServiceError(ctx, err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, assistdto.FinishGameResponse{RecordID: id})
}

func (h *Handler) recentGames(ctx *fasthttp.RequestCtx) {
	limit := 10
	if v := string(ctx.QueryArgs().Peek("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := h.svc.RecentGames(ctx, limit)
	if err != nil {
		h.writeServiceError(ctx, err)
		return
	}
	out := make([]assistdto.GameSummary, len(records))
	for i, r := range records {
		out[i] = toGameSummary(r)
	}
	h.writeJSON(ctx, fasthttp.StatusOK, out)
}

func (h *Handler) writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		h.logger.Error("response encode failed", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(payload)
}

func (h *Handler) writeError(ctx *fasthttp.RequestCtx, status int, code, message string) {
	h.writeJSON(ctx, status, assistdto.ErrorResponse{Code: code, Message: message})
}

func (h *Handler) writeServiceError(ctx *fasthttp.RequestCtx, err error) {
	status := fasthttp.StatusInternalServerError
	switch {
	case errors.Is(err, analysis.ErrGameNotFound):
		status = fasthttp.StatusNotFound
	case errors.Is(err, analysis.ErrInvalidMove),
		errors.Is(err, analysis.ErrUndoNotAvailable):
		status = fasthttp.StatusUnprocessableEntity
	case errors.Is(err, analysis.ErrGameOver):
		status = fasthttp.StatusConflict
	case errors.Is(err, analysis.ErrTooManyGames):
		status = fasthttp.StatusTooManyRequests
	case errors.Is(err, engine.ErrNotReady),
		errors.Is(err, engine.ErrProcessExited),
		errors.Is(err, analysis.ErrNoSuggestion):
		status = fasthttp.StatusServiceUnavailable
	}
	if status == fasthttp.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	h.writeError(ctx, status, errorCode(err), err.Error())
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, analysis.ErrGameNotFound):
		return "game_not_found"
	case errors.Is(err, analysis.ErrInvalidMove):
		return "invalid_move"
	case errors.Is(err, analysis.ErrUndoNotAvailable):
		return "undo_not_available"
	case errors.Is(err, analysis.ErrGameOver):
		return "game_over"
	case errors.Is(err, analysis.ErrTooManyGames):
		return "too_many_games"
	case errors.Is(err, analysis.ErrNoSuggestion):
		return "no_suggestion"
	case errors.Is(err, engine.ErrNotReady), errors.Is(err, engine.ErrProcessExited):
		return "engine_unavailable"
	default:
		return "internal_error"
	}
}

func writeEvent(w *bufio.Writer, event string, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		return
	}
	_, _ = w.WriteString("event: " + event + "\n")
	_, _ = w.WriteString("data: " + string(payload) + "\n\n")
}

func toGameState(st *analysis.GameState) assistdto.GameState {
	return assistdto.GameState{
		GameID:    st.GameID,
		Preset:    st.Preset,
		FEN:       st.FEN,
		Turn:      strings.ToLower(st.Turn),
		Status:    strings.ToLower(st.Status),
		InCheck:   st.InCheck,
		Moves:     st.Moves,
		MoveCount: st.MoveCount,
		StartedAt: st.StartedAt,
		UpdatedAt: st.UpdatedAt,
	}
}

func toSuggestion(s *analysis.SuggestionView) assistdto.Suggestion {
	return assistdto.Suggestion{
		GameID:     s.GameID,
		Token:      s.Token,
		Ponder:     s.Ponder,
		Depth:      s.Depth,
		Nodes:      s.Nodes,
		TimeMillis: s.TimeMillis,
		FromCache:  s.FromCache,
	}
}

func toGameSummary(r *domain.GameRecord) assistdto.GameSummary {
	return assistdto.GameSummary{
		ID:          r.ID,
		SessionUUID: r.SessionUUID,
		Preset:      r.Preset,
		Result:      r.Result,
		MoveTokens:  r.MoveTokens,
		FinalFEN:    r.FinalFEN,
		StartedAt:   r.StartedAt,
		EndedAt:     r.EndedAt,
		MoveCount:   r.MoveCount,
	}
}
