package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/csl-racing/api/internal/middleware"
)

// Check probes one backing service
type Check func(ctx context.Context) error

// HealthHandler reports the API and its dependencies
type HealthHandler struct {
	checks map[string]Check
	clock  clockwork.Clock
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Success bool              `json:"success"`
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Checks  map[string]string `json:"checks"`
}

func NewHealthHandler(clock clockwork.Clock, checks map[string]Check) *HealthHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &HealthHandler{checks: checks, clock: clock}
}

// Health answers 200 when every check passes and 503 otherwise
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Success: true, Status: "healthy", Checks: make(map[string]string, len(h.checks))}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("check", name).Msg("health check failed")
			resp.Checks[name] = "unavailable"
			resp.Success = false
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}
	resp.Time = h.clock.Now().UTC().Format(time.RFC3339)

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusServiceUnavailable
	}
	middleware.JSONResponse(w, r, status, resp)
}
