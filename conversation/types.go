package conversation

import (
	"errors"
	"time"
)

// Conversation ties a buyer and an owner together, usually about one
// listing. Direct conversations carry no listing.
type Conversation struct {
	ID            int64     `json:"id"`
	ListingID     *int64    `json:"listing_id,omitempty"`
	BuyerID       int64     `json:"buyer_id"`
	OwnerID       int64     `json:"owner_id"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// Overview is a conversation as shown in the inbox: the latest message and
// how many of the other party's messages are still unread.
type Overview struct {
	Conversation
	ListingTitle string `json:"listing_title,omitempty"`
	PartnerName  string `json:"partner_name"`
	LastMessage  string `json:"last_message,omitempty"`
	UnreadCount  int    `json:"unread_count"`
}

type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	SenderName     string    `json:"sender_name,omitempty"`
	Body           string    `json:"body"`
	Read           bool      `json:"read"`
	SentAt         time.Time `json:"sent_at"`
}

var (
	ErrNotFound         = errors.New("conversation not found")
	ErrListingNotFound  = errors.New("listing not found or not published")
	ErrUserNotFound     = errors.New("recipient not found")
	ErrSelfConversation = errors.New("cannot start a conversation with yourself")
	ErrEmptyMessage     = errors.New("message body is required")
)
