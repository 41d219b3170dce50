package model

import "time"

// Conversation summarizes the exchange between a viewer and one peer
// by the most recent message in either direction.
type Conversation struct {
	PeerID                int64     `json:"peer_id"`
	PeerEmail             *string   `json:"peer_email"`
	LastMessageID         int64     `json:"last_message_id"`
	LastMessageBody       string    `json:"last_message_body"`
	LastMessageSenderID   int64     `json:"last_message_sender_id"`
	LastMessageReceiverID int64     `json:"last_message_receiver_id"`
	LastMessageAt         time.Time `json:"last_message_at"`
}

// ConversationsResponse wraps the conversation list, newest first.
type ConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}
