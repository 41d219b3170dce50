package repository

import (
	"context"
	"database/sql"

	"github.com/socio/socio-go/internal/model"
)

// MessageRepository handles direct message persistence. Rows are insert-only.
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a message and sets its generated ID.
func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	query := `INSERT INTO messages (sender_id, receiver_id, body, created_at) VALUES (?, ?, ?, ?)`

	id, err := r.db.insert(ctx, query, msg.SenderID, msg.ReceiverID, msg.Body, toTimestamp(msg.CreatedAt))
	if err != nil {
		return err
	}

	msg.ID = id
	return nil
}

// ListBetween returns every message exchanged between a and b in either direction,
// oldest first, ties broken by insertion id.
func (r *MessageRepository) ListBetween(ctx context.Context, a, b int64) ([]model.Message, error) {
	query := r.db.rebind(`SELECT id, sender_id, receiver_id, body, created_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC, id ASC`)

	rows, err := r.db.QueryContext(ctx, query, a, b, b, a)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = fromTimestamp(createdAt)
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// latestPerPeerQuery keeps, for every unordered pair that includes the viewer,
// the message no other message of the same pair beats on (created_at, id).
const latestPerPeerQuery = `
	SELECT m.id, m.sender_id, m.receiver_id, m.body, m.created_at, u.email
	FROM messages m
	LEFT JOIN users u
		ON u.id = CASE WHEN m.sender_id = ? THEN m.receiver_id ELSE m.sender_id END
	WHERE (m.sender_id = ? OR m.receiver_id = ?)
		AND NOT EXISTS (
			SELECT 1 FROM messages n
			WHERE ((n.sender_id = m.sender_id AND n.receiver_id = m.receiver_id)
				OR (n.sender_id = m.receiver_id AND n.receiver_id = m.sender_id))
				AND (n.created_at > m.created_at OR (n.created_at = m.created_at AND n.id > m.id))
		)
	ORDER BY m.created_at DESC, m.id DESC`

// LatestPerPeer returns one conversation per peer the viewer has exchanged messages with,
// carrying the most recent message of that pair, newest conversation first.
// A peer whose user row is gone is returned with a nil email.
func (r *MessageRepository) LatestPerPeer(ctx context.Context, viewerID int64) ([]model.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, r.db.rebind(latestPerPeerQuery), viewerID, viewerID, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]model.Conversation, 0)
	for rows.Next() {
		var (
			c         model.Conversation
			createdAt int64
			email     sql.NullString
		)
		if err := rows.Scan(&c.LastMessageID, &c.LastMessageSenderID, &c.LastMessageReceiverID,
			&c.LastMessageBody, &createdAt, &email); err != nil {
			return nil, err
		}

		c.LastMessageAt = fromTimestamp(createdAt)
		c.PeerID = c.LastMessageSenderID
		if c.LastMessageSenderID == viewerID {
			c.PeerID = c.LastMessageReceiverID
		}
		if email.Valid {
			c.PeerEmail = &email.String
		}
		conversations = append(conversations, c)
	}

	return conversations, rows.Err()
}
