package api

import (
	"context"
	"net/http"

	"github.com/okian/grapple/internal/domain/types"
)

// TeamDependencies defines the interface for team and season reads.
type TeamDependencies interface {
	Teams(ctx context.Context, season string) ([]types.TeamRow, error)
	Seasons(ctx context.Context) ([]string, error)
}

// TeamHandler handles team leaderboard requests.
type TeamHandler struct {
	deps TeamDependencies
}

// NewTeamHandler creates a new team handler.
func NewTeamHandler(deps TeamDependencies) *TeamHandler {
	return &TeamHandler{deps: deps}
}

// HandleGetTeams handles GET /teams[?season=S].
func (h *TeamHandler) HandleGetTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_teams"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rows, err := h.deps.Teams(r.Context(), r.URL.Query().Get("season"))
	if err != nil {
		writeReadError(w, op, err)
		return
	}
	if rows == nil {
		rows = []types.TeamRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleGetSeasons handles GET /seasons.
func (h *TeamHandler) HandleGetSeasons(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_seasons"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	seasons, err := h.deps.Seasons(r.Context())
	if err != nil {
		writeReadError(w, op, err)
		return
	}
	if seasons == nil {
		seasons = []string{}
	}
	writeJSON(w, http.StatusOK, seasons)
}
