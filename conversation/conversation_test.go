package conversation_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-system/conversation"
)

func setup(t *testing.T) (*conversation.Accessor, sqlmock.Sqlmock) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return conversation.NewAccessor(db), dbMock
}

func expectInsertMessage(dbMock sqlmock.Sqlmock, conversationID, senderID int64, body string) {
	dbMock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO messages`)).
		WithArgs(conversationID, senderID, body).
		WillReturnRows(sqlmock.NewRows([]string{"id", "read", "sent_at"}).AddRow(1, false, time.Now()))
	dbMock.ExpectExec(regexp.QuoteMeta(`UPDATE conversations SET last_message_at = now()`)).
		WithArgs(conversationID).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestStart(t *testing.T) {
	const (
		buyerID   int64 = 2
		ownerID   int64 = 1
		listingID int64 = 10
	)

	t.Run("opens a new conversation", func(t *testing.T) {
		a, dbMock := setup(t)

		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT owner_id FROM listings WHERE id = $1 AND publication_status = 'published'`)).
			WithArgs(listingID).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(ownerID))
		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM conversations`)).
			WithArgs(listingID, buyerID, ownerID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		dbMock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO conversations`)).
			WithArgs(listingID, buyerID, ownerID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		expectInsertMessage(dbMock, 7, buyerID, "Is the flat still available?")

		id, err := a.Start(context.Background(), buyerID, listingID, "Is the flat still available?")
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)

		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("reuses the existing conversation", func(t *testing.T) {
		a, dbMock := setup(t)

		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT owner_id FROM listings WHERE id = $1 AND publication_status = 'published'`)).
			WithArgs(listingID).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(ownerID))
		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM conversations`)).
			WithArgs(listingID, buyerID, ownerID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		expectInsertMessage(dbMock, 7, buyerID, "Hello again")

		id, err := a.Start(context.Background(), buyerID, listingID, "Hello again")
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)

		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("unpublished listing", func(t *testing.T) {
		a, dbMock := setup(t)

		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT owner_id FROM listings WHERE id = $1 AND publication_status = 'published'`)).
			WithArgs(listingID).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))

		_, err := a.Start(context.Background(), buyerID, listingID, "Hello")
		require.ErrorIs(t, err, conversation.ErrListingNotFound)

		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("own listing", func(t *testing.T) {
		a, dbMock := setup(t)

		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT owner_id FROM listings WHERE id = $1 AND publication_status = 'published'`)).
			WithArgs(listingID).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(ownerID))

		_, err := a.Start(context.Background(), ownerID, listingID, "Hello me")
		require.ErrorIs(t, err, conversation.ErrSelfConversation)

		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("blank first message", func(t *testing.T) {
		a, _ := setup(t)

		_, err := a.Start(context.Background(), buyerID, listingID, "   ")
		require.ErrorIs(t, err, conversation.ErrEmptyMessage)
	})
}

func TestStartDirect(t *testing.T) {
	t.Run("opens a listing-less conversation", func(t *testing.T) {
		a, dbMock := setup(t)

		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`)).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		dbMock.ExpectQuery(regexp.QuoteMeta(`WHERE listing_id IS NULL`)).
			WithArgs(int64(2), int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		dbMock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO conversations`)).
			WithArgs(int64(2), int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
		expectInsertMessage(dbMock, 8, 2, "Hi there")

		id, err := a.StartDirect(context.Background(), 2, 5, "Hi there")
		require.NoError(t, err)
		assert.Equal(t, int64(8), id)

		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("unknown recipient", func(t *testing.T) {
		a, dbMock := setup(t)

		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`)).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := a.StartDirect(context.Background(), 2, 5, "Hi there")
		require.ErrorIs(t, err, conversation.ErrUserNotFound)

		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("messaging yourself", func(t *testing.T) {
		a, _ := setup(t)

		_, err := a.StartDirect(context.Background(), 2, 2, "Hi me")
		require.ErrorIs(t, err, conversation.ErrSelfConversation)
	})
}

func TestGetMessages(t *testing.T) {
	t.Run("marks unread and returns oldest first", func(t *testing.T) {
		a, dbMock := setup(t)
		now := time.Now()

		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
			WithArgs(int64(7), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		dbMock.ExpectExec(regexp.QuoteMeta(`UPDATE messages SET read = TRUE`)).
			WithArgs(int64(7), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectQuery(regexp.QuoteMeta(`ORDER BY m.sent_at ASC`)).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "sender_id", "sender_name", "body", "read", "sent_at"}).
				AddRow(1, 7, 2, "Bob Buyer", "Is the flat still available?", true, now.Add(-time.Hour)).
				AddRow(2, 7, 1, "Olivia Owner", "It is, come visit", true, now))

		messages, err := a.GetMessages(context.Background(), 7, 2)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.True(t, messages[0].SentAt.Before(messages[1].SentAt))
		assert.Equal(t, "Bob Buyer", messages[0].SenderName)

		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("non-participant", func(t *testing.T) {
		a, dbMock := setup(t)

		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
			WithArgs(int64(7), int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := a.GetMessages(context.Background(), 7, 3)
		require.ErrorIs(t, err, conversation.ErrNotFound)

		require.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestSendMessage(t *testing.T) {
	t.Run("participant sends", func(t *testing.T) {
		a, dbMock := setup(t)

		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
			WithArgs(int64(7), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		expectInsertMessage(dbMock, 7, 2, "See you Saturday")

		m, err := a.SendMessage(context.Background(), 7, 2, "See you Saturday")
		require.NoError(t, err)
		assert.Equal(t, "See you Saturday", m.Body)
		assert.False(t, m.Read)

		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("blank body", func(t *testing.T) {
		a, _ := setup(t)

		_, err := a.SendMessage(context.Background(), 7, 2, "")
		require.ErrorIs(t, err, conversation.ErrEmptyMessage)
	})
}

func TestListForUser(t *testing.T) {
	a, dbMock := setup(t)
	now := time.Now()

	dbMock.ExpectQuery(regexp.QuoteMeta(`ORDER BY c.last_message_at DESC`)).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "listing_id", "buyer_id", "owner_id", "created_at", "last_message_at",
			"listing_title", "partner_name", "last_message", "unread_count",
		}).
			AddRow(7, 10, 2, 1, now.Add(-time.Hour), now, "Sunny flat", "Olivia Owner", "It is, come visit", 1).
			AddRow(8, nil, 2, 5, now.Add(-2*time.Hour), now.Add(-time.Hour), "", "Dana Direct", "Hi there", 0))

	overviews, err := a.ListForUser(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, overviews, 2)
	assert.Equal(t, "Olivia Owner", overviews[0].PartnerName)
	assert.Equal(t, 1, overviews[0].UnreadCount)
	assert.Nil(t, overviews[1].ListingID)

	require.NoError(t, dbMock.ExpectationsWereMet())
}
