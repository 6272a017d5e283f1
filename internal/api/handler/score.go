package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsgame/internal/api/apierr"
	"github.com/mcoot/rpsgame/internal/api/response"
	"github.com/mcoot/rpsgame/internal/model"
)

// maxUsernameLength matches the limit enforced on set-username
const maxUsernameLength = 32

// ScoreReader is the read side of the score ledger
type ScoreReader interface {
	GetScore(ctx context.Context, name string) (*model.Score, error)
}

// ScoreHandler serves score lookups
type ScoreHandler struct {
	scores ScoreReader
	logger *slog.Logger
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(scores ScoreReader, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{
		scores: scores,
		logger: logger,
	}
}

// Get handles GET /api/v1/scores/{username} and GET /api/score/username/{username}.
// Unknown names report a zeroed record.
func (h *ScoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(mux.Vars(r)["username"])
	if username == "" || len(username) > maxUsernameLength {
		WriteError(w, NewInvalidRequestError("username must be between 1 and 32 characters"))
		return
	}

	score, err := h.scores.GetScore(r.Context(), username)
	if err != nil {
		h.logger.Error("score lookup failed",
			slog.String("username", username),
			slog.Any("error", err))
		WriteError(w, apierr.NewUnavailableError())
		return
	}

	response.JSON(w, http.StatusOK, response.ScoreFromModel(score))
}
