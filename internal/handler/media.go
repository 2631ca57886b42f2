package handler

import (
	"log/slog"
	"net/http"

	"github.com/adampos/medialender/internal/model"
	"github.com/adampos/medialender/internal/service"
)

// MediaHandler serves the media catalog, including the category links and
// the filter views.
type MediaHandler struct {
	media  *service.MediaService
	logger *slog.Logger
}

func NewMediaHandler(media *service.MediaService, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{media: media, logger: logger}
}

type mediaRequest struct {
	Title       string   `json:"title"`
	Producer    string   `json:"producer"`
	Type        string   `json:"type"`
	State       string   `json:"mediaState"`
	ReleaseYear *int     `json:"releaseYear"`
	Notes       string   `json:"notes"`
	ISBN        string   `json:"isbn"`
	Favorite    bool     `json:"isFavorite"`
	CategoryIDs []string `json:"categoryIds"`
}

func (req mediaRequest) toInput() service.MediaInput {
	return service.MediaInput{
		Title:       req.Title,
		Producer:    req.Producer,
		Type:        model.MediaType(req.Type),
		State:       model.MediaState(req.State),
		ReleaseYear: req.ReleaseYear,
		Notes:       req.Notes,
		ISBN:        req.ISBN,
		Favorite:    req.Favorite,
		CategoryIDs: req.CategoryIDs,
	}
}

// HandleCreate adds a media item, optionally linked to categories.
//
// HTTP: POST /api/media
func (h *MediaHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var req mediaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.media.Create(r.Context(), userID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleList returns the account's media. Query parameters narrow the view:
//
//	GET /api/media                     → everything, with categories
//	GET /api/media?state=AVAILABLE     → by lifecycle state
//	GET /api/media?type=BOOK           → by media type
//	GET /api/media?favorite=true       → favorites only
//	GET /api/media?isbn=978-...        → single lookup by ISBN
func (h *MediaHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	ctx := r.Context()

	switch {
	case query.Get("isbn") != "":
		media, err := h.media.GetByISBN(ctx, userID, query.Get("isbn"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, media)

	case query.Get("state") != "":
		items, err := h.media.ListByState(ctx, userID, model.MediaState(query.Get("state")))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)

	case query.Get("type") != "":
		items, err := h.media.ListByType(ctx, userID, model.MediaType(query.Get("type")))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)

	case query.Get("favorite") == "true":
		items, err := h.media.ListFavorites(ctx, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)

	default:
		views, err := h.media.List(ctx, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

// HandleGet returns one media item with its categories.
//
// HTTP: GET /api/media/{id}
func (h *MediaHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	view, err := h.media.GetByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleUpdate rewrites a media item and replaces its category set.
//
// HTTP: PUT /api/media/{id}
func (h *MediaHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var req mediaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.media.Update(r.Context(), userID, r.PathValue("id"), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDelete removes a media item that is not currently on loan.
//
// HTTP: DELETE /api/media/{id}
func (h *MediaHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.media.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAssignCategory links one more category to a media item.
//
// HTTP: POST /api/media/{id}/categories/{categoryId}
func (h *MediaHandler) HandleAssignCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	err := h.media.AssignCategory(r.Context(), userID, r.PathValue("id"), r.PathValue("categoryId"))
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.media.GetByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleRemoveCategory unlinks a category from a media item.
//
// HTTP: DELETE /api/media/{id}/categories/{categoryId}
func (h *MediaHandler) HandleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	err := h.media.RemoveCategory(r.Context(), userID, r.PathValue("id"), r.PathValue("categoryId"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleToggleFavorite flips the favorite flag.
//
// HTTP: PUT /api/media/{id}/favorite
func (h *MediaHandler) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	if _, err := h.media.ToggleFavorite(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.media.GetByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
