package handlers

import (
	"net/http"
	"strconv"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/content"
	"github.com/csl-racing/api/internal/middleware"
)

// ContentHandler serves achievements, events and the gallery
type ContentHandler struct {
	content *content.Service
}

func NewContentHandler(content *content.Service) *ContentHandler {
	return &ContentHandler{content: content}
}

// decodeWithID parses the {id} path value and the JSON body
func decodeWithID(r *http.Request, label string, v any) (int, error) {
	id, err := pathID(r, "id", label)
	if err != nil {
		return 0, err
	}
	return id, middleware.ParseJSONBody(r, v)
}

func (h *ContentHandler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	list, err := h.content.ListAchievements(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "achievements", list)
}

func (h *ContentHandler) GetAchievement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "achievement")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	a, err := h.content.GetAchievement(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "achievement", a)
}

func (h *ContentHandler) CreateAchievement(w http.ResponseWriter, r *http.Request) {
	var req content.AchievementInput
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	a, err := h.content.CreateAchievement(r.Context(), claims(r).UserID, req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "achievement", a)
}

func (h *ContentHandler) UpdateAchievement(w http.ResponseWriter, r *http.Request) {
	var req content.AchievementInput
	id, err := decodeWithID(r, "achievement", &req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	a, err := h.content.UpdateAchievement(r.Context(), id, req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "achievement", a)
}

func (h *ContentHandler) DeleteAchievement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "achievement")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if err := h.content.DeleteAchievement(r.Context(), id); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respondMessage(w, r, "Achievement deleted")
}

// ListEvents returns events ordered by date, ?status= filters
func (h *ContentHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.content.ListEvents(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "events", list)
}

func (h *ContentHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "event")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	e, err := h.content.GetEvent(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "event", e)
}

func (h *ContentHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req content.EventInput
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	e, err := h.content.CreateEvent(r.Context(), claims(r).UserID, req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "event", e)
}

func (h *ContentHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req content.EventInput
	id, err := decodeWithID(r, "event", &req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	e, err := h.content.UpdateEvent(r.Context(), id, req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "event", e)
}

func (h *ContentHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "event")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if err := h.content.DeleteEvent(r.Context(), id); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respondMessage(w, r, "Event deleted")
}

func (h *ContentHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.content.ListCategories(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "categories", list)
}

func (h *ContentHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req content.CategoryInput
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	c, err := h.content.CreateCategory(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "category", c)
}

func (h *ContentHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req content.CategoryInput
	id, err := decodeWithID(r, "category", &req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	c, err := h.content.UpdateCategory(r.Context(), id, req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "category", c)
}

func (h *ContentHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "category")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if err := h.content.DeleteCategory(r.Context(), id); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respondMessage(w, r, "Category deleted")
}

// ListImages returns gallery images, ?category=N filters
func (h *ContentHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	var categoryID *int
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			middleware.WriteError(w, r, apperr.Validation("Invalid category id"))
			return
		}
		categoryID = &id
	}

	list, err := h.content.ListImages(r.Context(), categoryID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "images", list)
}

func (h *ContentHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "image")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	img, err := h.content.GetImage(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "image", img)
}

func (h *ContentHandler) CreateImage(w http.ResponseWriter, r *http.Request) {
	var req content.ImageInput
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	img, err := h.content.CreateImage(r.Context(), claims(r).UserID, req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "image", img)
}

func (h *ContentHandler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	var req content.ImageInput
	id, err := decodeWithID(r, "image", &req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	img, err := h.content.UpdateImage(r.Context(), id, req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "image", img)
}

func (h *ContentHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "image")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if err := h.content.DeleteImage(r.Context(), id); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respondMessage(w, r, "Image deleted")
}
