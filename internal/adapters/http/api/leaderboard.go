package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/grapple/internal/domain/types"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
	Leaderboard(ctx context.Context, season string, limit int) ([]types.IndividualRow, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	if maxLimit < 1 {
		maxLimit = 100
	}
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N[&season=S].
// Without a season it lists current ratings; with one it lists that
// season's individual leaderboard ("all" for every season combined).
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, err := parseLimit(r, h.maxLimit, h.maxLimit)
	if err != nil {
		code := "bad_request"
		if errors.Is(err, ErrLimitExceeded) {
			code = "limit_exceeded"
		}
		writeError(w, http.StatusBadRequest, code, Wrap(op, err))
		return
	}

	season := r.URL.Query().Get("season")
	if season == "" {
		entries, err := h.deps.TopN(r.Context(), n)
		if err != nil {
			writeReadError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}
	rows, err := h.deps.Leaderboard(r.Context(), season, n)
	if err != nil {
		writeReadError(w, op, err)
		return
	}
	if rows == nil {
		rows = []types.IndividualRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}
