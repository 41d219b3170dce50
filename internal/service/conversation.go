package service

import (
	"context"

	"github.com/socio/socio-go/internal/model"
	"github.com/socio/socio-go/internal/repository"
)

// ConversationService builds the inbox view of a user.
type ConversationService struct {
	messages *repository.MessageRepository
}

// NewConversationService creates a new ConversationService.
func NewConversationService(messages *repository.MessageRepository) *ConversationService {
	return &ConversationService{messages: messages}
}

// List returns one conversation per peer of viewerID, most recently active first.
func (s *ConversationService) List(ctx context.Context, viewerID int64) ([]model.Conversation, error) {
	return s.messages.LatestPerPeer(ctx, viewerID)
}
