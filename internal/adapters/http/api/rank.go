package api

import (
	"context"
	"net/http"

	service "github.com/okian/grapple/internal/app"
)

// RankDependencies defines the interface for rank operations.
type RankDependencies interface {
	Rank(ctx context.Context, wrestlerID string) (Entry, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /rank/{wrestler_id} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := pathParam(r, "/rank/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, ErrBadRequest))
		return
	}
	entry, err := h.deps.Rank(r.Context(), id)
	if err != nil {
		writeReadError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// WrestlerDependencies defines the interface for wrestler lookups.
type WrestlerDependencies interface {
	Wrestler(ctx context.Context, wrestlerID string) (service.WrestlerView, error)
}

// WrestlerHandler handles wrestler detail requests.
type WrestlerHandler struct {
	deps WrestlerDependencies
}

// NewWrestlerHandler creates a new wrestler handler.
func NewWrestlerHandler(deps WrestlerDependencies) *WrestlerHandler {
	return &WrestlerHandler{deps: deps}
}

// HandleGetWrestler handles GET /wrestlers/{wrestler_id}.
func (h *WrestlerHandler) HandleGetWrestler(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_wrestler"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := pathParam(r, "/wrestlers/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, ErrBadRequest))
		return
	}
	v, err := h.deps.Wrestler(r.Context(), id)
	if err != nil {
		writeReadError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
