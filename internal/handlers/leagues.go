package handlers

import (
	"net/http"
	"strconv"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/leagues"
	"github.com/csl-racing/api/internal/middleware"
)

type LeagueHandler struct {
	leagues *leagues.Service
}

func NewLeagueHandler(leagues *leagues.Service) *LeagueHandler {
	return &LeagueHandler{leagues: leagues}
}

// List returns leagues, ?active=true for active ones only
func (h *LeagueHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.WriteError(w, r, apperr.Validation("active must be true or false"))
			return
		}
		activeOnly = v
	}

	list, err := h.leagues.List(r.Context(), activeOnly)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "leagues", list)
}

func (h *LeagueHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "league")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	league, err := h.leagues.Get(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "league", league)
}

// Create adds a league and backfills every driver into it
func (h *LeagueHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req leagues.Input
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	league, err := h.leagues.Create(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "league", league)
}

func (h *LeagueHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "league")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req leagues.Input
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	league, err := h.leagues.Update(r.Context(), id, req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "league", league)
}

func (h *LeagueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "league")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	if err := h.leagues.Delete(r.Context(), id); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respondMessage(w, r, "League deleted")
}
