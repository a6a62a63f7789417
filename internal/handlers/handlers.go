// Package handlers implements the JSON HTTP endpoints.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/auth"
	"github.com/csl-racing/api/internal/middleware"
)

// envelope is the success body: {"success":true,"<key>":payload}
type envelope map[string]any

func respond(w http.ResponseWriter, r *http.Request, status int, key string, payload any) {
	middleware.JSONResponse(w, r, status, envelope{"success": true, key: payload})
}

func respondMessage(w http.ResponseWriter, r *http.Request, message string) {
	respond(w, r, http.StatusOK, "message", message)
}

// pathID parses a positive integer path value
func pathID(r *http.Request, name, label string) (int, error) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid " + label + " id")
	}
	return id, nil
}

// claims returns the caller's claims. Routes using it sit behind the guard.
func claims(r *http.Request) *auth.Claims {
	c, ok := middleware.GetUserClaims(r)
	if !ok {
		return &auth.Claims{}
	}
	return c
}
