package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ListForUser returns the user's conversations, most recently active
// first, with the latest message and the unread count.
func (a *Accessor) ListForUser(ctx context.Context, userID int64) ([]Overview, error) {
	query := `SELECT c.id, c.listing_id, c.buyer_id, c.owner_id, c.created_at, c.last_message_at,
		COALESCE(l.title, ''),
		CASE WHEN c.buyer_id = $1 THEN uo.name || ' ' || uo.surname ELSE ub.name || ' ' || ub.surname END,
		COALESCE((SELECT m.body FROM messages m WHERE m.conversation_id = c.id ORDER BY m.sent_at DESC LIMIT 1), ''),
		(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id AND m.sender_id <> $1 AND NOT m.read)
	FROM conversations c
	LEFT JOIN listings l ON c.listing_id = l.id
	JOIN users ub ON c.buyer_id = ub.id
	JOIN users uo ON c.owner_id = uo.id
	WHERE c.buyer_id = $1 OR c.owner_id = $1
	ORDER BY c.last_message_at DESC`

	rows, err := a.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var overviews []Overview
	for rows.Next() {
		var o Overview
		if err := rows.Scan(&o.ID, &o.ListingID, &o.BuyerID, &o.OwnerID, &o.CreatedAt, &o.LastMessageAt,
			&o.ListingTitle, &o.PartnerName, &o.LastMessage, &o.UnreadCount); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		overviews = append(overviews, o)
	}
	return overviews, rows.Err()
}

// Start opens (or reuses) a conversation about a published listing and
// records the first message.
func (a *Accessor) Start(ctx context.Context, senderID, listingID int64, firstMessage string) (int64, error) {
	if strings.TrimSpace(firstMessage) == "" {
		return 0, ErrEmptyMessage
	}

	var ownerID int64
	ownerQuery := `SELECT owner_id FROM listings WHERE id = $1 AND publication_status = 'published'`
	if err := a.db.QueryRowContext(ctx, ownerQuery, listingID).Scan(&ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrListingNotFound
		}
		return 0, fmt.Errorf("get listing owner: %w", err)
	}
	if ownerID == senderID {
		return 0, ErrSelfConversation
	}

	// Reuse an existing conversation between the same pair on the same
	// listing, in either direction.
	var conversationID int64
	existingQuery := `SELECT id FROM conversations
		WHERE listing_id = $1 AND (
			(buyer_id = $2 AND owner_id = $3) OR (buyer_id = $3 AND owner_id = $2)
		)`
	err := a.db.QueryRowContext(ctx, existingQuery, listingID, senderID, ownerID).Scan(&conversationID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		insertQuery := `INSERT INTO conversations (listing_id, buyer_id, owner_id) VALUES ($1, $2, $3) RETURNING id`
		if err := a.db.QueryRowContext(ctx, insertQuery, listingID, senderID, ownerID).Scan(&conversationID); err != nil {
			return 0, fmt.Errorf("insert conversation: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("find conversation: %w", err)
	}

	if _, err := a.insertMessage(ctx, conversationID, senderID, firstMessage); err != nil {
		return 0, err
	}
	return conversationID, nil
}

// StartDirect opens (or reuses) a listing-less conversation with another
// user and records the first message.
func (a *Accessor) StartDirect(ctx context.Context, senderID, recipientID int64, firstMessage string) (int64, error) {
	if strings.TrimSpace(firstMessage) == "" {
		return 0, ErrEmptyMessage
	}
	if recipientID == senderID {
		return 0, ErrSelfConversation
	}

	var exists bool
	if err := a.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, recipientID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check recipient: %w", err)
	}
	if !exists {
		return 0, ErrUserNotFound
	}

	var conversationID int64
	existingQuery := `SELECT id FROM conversations
		WHERE listing_id IS NULL AND (
			(buyer_id = $1 AND owner_id = $2) OR (buyer_id = $2 AND owner_id = $1)
		)`
	err := a.db.QueryRowContext(ctx, existingQuery, senderID, recipientID).Scan(&conversationID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		insertQuery := `INSERT INTO conversations (listing_id, buyer_id, owner_id) VALUES (NULL, $1, $2) RETURNING id`
		if err := a.db.QueryRowContext(ctx, insertQuery, senderID, recipientID).Scan(&conversationID); err != nil {
			return 0, fmt.Errorf("insert conversation: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("find conversation: %w", err)
	}

	if _, err := a.insertMessage(ctx, conversationID, senderID, firstMessage); err != nil {
		return 0, err
	}
	return conversationID, nil
}

// GetMessages returns a conversation's messages oldest first, provided the
// user is a participant, and marks the other party's messages as read.
func (a *Accessor) GetMessages(ctx context.Context, conversationID, userID int64) ([]Message, error) {
	if err := a.checkParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	markQuery := `UPDATE messages SET read = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2 AND NOT read`
	if _, err := a.db.ExecContext(ctx, markQuery, conversationID, userID); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}

	query := `SELECT m.id, m.conversation_id, m.sender_id, u.name || ' ' || u.surname, m.body, m.read, m.sent_at
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.conversation_id = $1
		ORDER BY m.sent_at ASC`
	rows, err := a.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderName, &m.Body, &m.Read, &m.SentAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// SendMessage appends a message to a conversation the user participates in.
func (a *Accessor) SendMessage(ctx context.Context, conversationID, senderID int64, body string) (*Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}
	if err := a.checkParticipant(ctx, conversationID, senderID); err != nil {
		return nil, err
	}
	return a.insertMessage(ctx, conversationID, senderID, body)
}

func (a *Accessor) checkParticipant(ctx context.Context, conversationID, userID int64) error {
	var exists bool
	query := `SELECT EXISTS (
		SELECT 1 FROM conversations WHERE id = $1 AND (buyer_id = $2 OR owner_id = $2)
	)`
	if err := a.db.QueryRowContext(ctx, query, conversationID, userID).Scan(&exists); err != nil {
		return fmt.Errorf("check participant: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func (a *Accessor) insertMessage(ctx context.Context, conversationID, senderID int64, body string) (*Message, error) {
	m := Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
	}
	insertQuery := `INSERT INTO messages (conversation_id, sender_id, body) VALUES ($1, $2, $3)
		RETURNING id, read, sent_at`
	if err := a.db.QueryRowContext(ctx, insertQuery, conversationID, senderID, body).Scan(&m.ID, &m.Read, &m.SentAt); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	touchQuery := `UPDATE conversations SET last_message_at = now() WHERE id = $1`
	if _, err := a.db.ExecContext(ctx, touchQuery, conversationID); err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}
	return &m, nil
}

// Count feeds the admin dashboard.
func (a *Accessor) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count conversations: %w", err)
	}
	return n, nil
}
