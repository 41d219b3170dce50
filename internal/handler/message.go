package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/socio/socio-go/internal/middleware"
	"github.com/socio/socio-go/internal/model"
	"github.com/socio/socio-go/internal/service"
)

// MessageHandler handles HTTP requests for direct messages.
type MessageHandler struct {
	messages      *service.MessageService
	conversations *service.ConversationService
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messages *service.MessageService, conversations *service.ConversationService) *MessageHandler {
	return &MessageHandler{messages: messages, conversations: conversations}
}

// HandleSend handles POST /api/v1/messages requests.
func (h *MessageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	var req model.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messages.Send(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBodyRequired), errors.Is(err, service.ErrBodyTooLong),
			errors.Is(err, service.ErrReceiverRequired):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrReceiverNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		default:
			internalError(w, r, "send message", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// HandleChat handles GET /api/v1/messages/chat?user={id} requests.
func (h *MessageHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	var peerID int64
	if raw := r.URL.Query().Get("user"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse("invalid user id"))
			return
		}
		peerID = id
	}

	resp, err := h.messages.Chat(r.Context(), userID, peerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPeerRequired):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrPeerNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		default:
			internalError(w, r, "get chat", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleConversations handles GET /api/v1/messages/conversations requests.
func (h *MessageHandler) HandleConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	conversations, err := h.conversations.List(r.Context(), userID)
	if err != nil {
		internalError(w, r, "list conversations", err)
		return
	}

	writeJSON(w, http.StatusOK, model.ConversationsResponse{Conversations: conversations})
}
