package model

import "time"

// Message is a direct message between two users. Messages are never mutated after insert.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// SendMessageRequest represents a POST /api/v1/messages body.
type SendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id"`
	Body       string `json:"body"`
}

// ChatResponse is the full history between the caller and one peer, oldest first.
type ChatResponse struct {
	Peer     UserResponse `json:"peer"`
	Messages []Message    `json:"messages"`
}
