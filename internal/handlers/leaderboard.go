package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/ledger"
	"github.com/csl-racing/api/internal/middleware"
	"github.com/csl-racing/api/internal/models"
)

// LeaderboardHandler serves league standings, point adjustments and the roster
type LeaderboardHandler struct {
	ledger *ledger.Service
}

func NewLeaderboardHandler(ledger *ledger.Service) *LeaderboardHandler {
	return &LeaderboardHandler{ledger: ledger}
}

// PointsRequest is the body of an add or remove
type PointsRequest struct {
	Points int    `json:"points"`
	Races  int    `json:"races"`
	Reason string `json:"reason"`
}

// AddDriverRequest is the body of a roster add
type AddDriverRequest struct {
	DriverID int `json:"driverId"`
}

// GetStandings returns the ordered league table
func (h *LeaderboardHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathID(r, "id", "league")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	standings, err := h.ledger.Standings(r.Context(), leagueID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "standings", standings)
}

// GetHistory returns the newest history entries, ?limit=N
func (h *LeaderboardHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathID(r, "id", "league")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit <= 0 {
			middleware.WriteError(w, r, apperr.Validation("limit must be a positive integer"))
			return
		}
	}

	history, err := h.ledger.History(r.Context(), leagueID, limit)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "history", history)
}

// AddPoints credits a driver
func (h *LeaderboardHandler) AddPoints(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.ledger.AddPoints)
}

// RemovePoints debits a driver, flooring at zero
func (h *LeaderboardHandler) RemovePoints(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.ledger.RemovePoints)
}

type ledgerOp func(ctx context.Context, leagueID, driverID int, adj ledger.Adjustment) (*models.PointsHistory, error)

func (h *LeaderboardHandler) adjust(w http.ResponseWriter, r *http.Request, op ledgerOp) {
	leagueID, driverID, err := leagueAndDriver(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req PointsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	entry, err := op(r.Context(), leagueID, driverID, ledger.Adjustment{
		Points:  req.Points,
		Races:   req.Races,
		Reason:  req.Reason,
		AdminID: claims(r).UserID,
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "entry", entry)
}

// ResetLeague zeroes every row of a league
func (h *LeaderboardHandler) ResetLeague(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathID(r, "id", "league")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	n, err := h.ledger.ResetLeague(r.Context(), leagueID, claims(r).UserID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "reset", n)
}

// Undo reverts the latest ledger action of a league
func (h *LeaderboardHandler) Undo(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathID(r, "id", "league")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	entry, err := h.ledger.Undo(r.Context(), leagueID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "undone", entry)
}

// ListDrivers returns the drivers holding a row in the league
func (h *LeaderboardHandler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathID(r, "id", "league")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	drivers, err := h.ledger.ListDrivers(r.Context(), leagueID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "drivers", drivers)
}

// AddDriver puts a driver on the league roster
func (h *LeaderboardHandler) AddDriver(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathID(r, "id", "league")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req AddDriverRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if req.DriverID <= 0 {
		middleware.WriteError(w, r, apperr.Validation("driverId is required"))
		return
	}

	row, err := h.ledger.AddDriver(r.Context(), leagueID, req.DriverID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "driver", row)
}

// RemoveDriver takes a driver off the roster along with their league history
func (h *LeaderboardHandler) RemoveDriver(w http.ResponseWriter, r *http.Request) {
	leagueID, driverID, err := leagueAndDriver(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	if err := h.ledger.RemoveDriver(r.Context(), leagueID, driverID); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respondMessage(w, r, "Driver removed from league")
}

func leagueAndDriver(r *http.Request) (int, int, error) {
	leagueID, err := pathID(r, "id", "league")
	if err != nil {
		return 0, 0, err
	}
	driverID, err := pathID(r, "driverId", "driver")
	if err != nil {
		return 0, 0, err
	}
	return leagueID, driverID, nil
}
