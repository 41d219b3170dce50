package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/socio/socio-go/internal/middleware"
	"github.com/socio/socio-go/internal/model"
	"github.com/socio/socio-go/internal/service"
)

// FeedHandler handles HTTP requests for the public feed.
type FeedHandler struct {
	service *service.FeedService
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(svc *service.FeedService) *FeedHandler {
	return &FeedHandler{service: svc}
}

// HandleCreate handles POST /api/v1/feeds requests.
func (h *FeedHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	var req model.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, service.ErrContentRequired) {
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		internalError(w, r, "create post", err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// HandleList handles GET /api/v1/feeds?limit=&offset= requests.
func (h *FeedHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid limit"))
		return
	}
	offset, ok := queryInt(r, "offset")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid offset"))
		return
	}

	resp, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		internalError(w, r, "list feed", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// queryInt parses an optional integer query parameter; absent means zero.
func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
