package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/socio/socio-go/internal/model"
	"github.com/socio/socio-go/internal/repository"
)

var (
	ErrBodyRequired     = errors.New("message body is required")
	ErrBodyTooLong      = errors.New("message body is too long")
	ErrReceiverRequired = errors.New("receiver_id is required")
	ErrReceiverNotFound = errors.New("receiver not found")
	ErrPeerRequired     = errors.New("user query parameter is required")
	ErrPeerNotFound     = errors.New("user not found")
)

// MessageService handles direct messages between users.
type MessageService struct {
	messages *repository.MessageRepository
	users    *repository.UserRepository
	maxLen   int
	now      func() time.Time
}

// NewMessageService creates a new MessageService. A maxLen of zero or less disables the length check.
func NewMessageService(messages *repository.MessageRepository, users *repository.UserRepository, maxLen int) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		maxLen:   maxLen,
		now:      time.Now,
	}
}

// Send stores a message from senderID. Nothing is written unless every check passes.
func (s *MessageService) Send(ctx context.Context, senderID int64, req model.SendMessageRequest) (model.Message, error) {
	if req.ReceiverID <= 0 {
		return model.Message{}, ErrReceiverRequired
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		return model.Message{}, ErrBodyRequired
	}
	if s.maxLen > 0 && utf8.RuneCountInString(body) > s.maxLen {
		return model.Message{}, ErrBodyTooLong
	}

	if _, err := s.users.GetByID(ctx, req.ReceiverID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.Message{}, ErrReceiverNotFound
		}
		return model.Message{}, err
	}

	msg := model.Message{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Body:       body,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.messages.Create(ctx, &msg); err != nil {
		return model.Message{}, err
	}

	return msg, nil
}

// History returns all messages between a and b in either direction, oldest first.
func (s *MessageService) History(ctx context.Context, a, b int64) ([]model.Message, error) {
	return s.messages.ListBetween(ctx, a, b)
}

// Chat returns the peer's public profile together with the full history with viewerID.
func (s *MessageService) Chat(ctx context.Context, viewerID, peerID int64) (model.ChatResponse, error) {
	if peerID <= 0 {
		return model.ChatResponse{}, ErrPeerRequired
	}

	peer, err := s.users.GetByID(ctx, peerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.ChatResponse{}, ErrPeerNotFound
		}
		return model.ChatResponse{}, err
	}

	messages, err := s.History(ctx, viewerID, peerID)
	if err != nil {
		return model.ChatResponse{}, err
	}

	return model.ChatResponse{
		Peer:     peer.ToResponse(),
		Messages: messages,
	}, nil
}
