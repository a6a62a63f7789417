package handlers

import (
	"net/http"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/middleware"
	"github.com/csl-racing/api/internal/users"
)

// UserHandler serves the public driver list and admin account management
type UserHandler struct {
	users *users.Service
}

func NewUserHandler(users *users.Service) *UserHandler {
	return &UserHandler{users: users}
}

// UpdateRoleRequest is the body of PUT /admin/users/{id}/role
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// SetDriverRequest is the body of PUT /admin/users/{id}/driver
type SetDriverRequest struct {
	IsDriver *bool `json:"is_driver"`
}

// ListDrivers returns every user with the driver flag
func (h *UserHandler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.users.ListDrivers(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "drivers", drivers)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.List(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "users", list)
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "user")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req UpdateRoleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	user, err := h.users.UpdateRole(r.Context(), claims(r).UserID, id, req.Role)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "user", user)
}

func (h *UserHandler) SetDriver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "user")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var req SetDriverRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if req.IsDriver == nil {
		middleware.WriteError(w, r, apperr.Validation("is_driver is required"))
		return
	}

	user, err := h.users.SetDriver(r.Context(), id, *req.IsDriver)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "user", user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "user")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	if err := h.users.Delete(r.Context(), claims(r).UserID, id); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respondMessage(w, r, "User deleted")
}
