package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"realty-system/conversation"
)

func (a *API) conversationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage),
		errors.Is(err, conversation.ErrSelfConversation):
		a.Response(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, conversation.ErrNotFound),
		errors.Is(err, conversation.ErrListingNotFound),
		errors.Is(err, conversation.ErrUserNotFound):
		a.Response(w, http.StatusNotFound, err.Error())
	default:
		a.serverError(w, err)
	}
}

func (a *API) myConversations(w http.ResponseWriter, r *http.Request) {
	conversationAccessor := conversation.NewAccessor(a.db)
	conversations, err := conversationAccessor.ListForUser(r.Context(), a.principal(r).UserID)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, map[string]any{"conversations": conversations})
}

type startConversationRequest struct {
	ListingID    int64  `json:"listing_id"`
	FirstMessage string `json:"first_message"`
}

func (a *API) startConversation(w http.ResponseWriter, r *http.Request) {
	var req startConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ListingID <= 0 {
		a.Response(w, http.StatusBadRequest, "listing_id is required")
		return
	}

	conversationAccessor := conversation.NewAccessor(a.db)
	id, err := conversationAccessor.Start(r.Context(), a.principal(r).UserID, req.ListingID, req.FirstMessage)
	if err != nil {
		a.conversationError(w, err)
		return
	}
	a.Response(w, http.StatusCreated, map[string]any{"conversation_id": id})
}

type startDirectConversationRequest struct {
	RecipientID  int64  `json:"recipient_id"`
	FirstMessage string `json:"first_message"`
}

func (a *API) startDirectConversation(w http.ResponseWriter, r *http.Request) {
	var req startDirectConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RecipientID <= 0 {
		a.Response(w, http.StatusBadRequest, "recipient_id is required")
		return
	}

	conversationAccessor := conversation.NewAccessor(a.db)
	id, err := conversationAccessor.StartDirect(r.Context(), a.principal(r).UserID, req.RecipientID, req.FirstMessage)
	if err != nil {
		a.conversationError(w, err)
		return
	}
	a.Response(w, http.StatusCreated, map[string]any{"conversation_id": id})
}

func (a *API) getMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}

	conversationAccessor := conversation.NewAccessor(a.db)
	messages, err := conversationAccessor.GetMessages(r.Context(), id, a.principal(r).UserID)
	if err != nil {
		a.conversationError(w, err)
		return
	}
	a.Response(w, http.StatusOK, map[string]any{"messages": messages})
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

func (a *API) sendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conversationAccessor := conversation.NewAccessor(a.db)
	m, err := conversationAccessor.SendMessage(r.Context(), id, a.principal(r).UserID, req.Body)
	if err != nil {
		a.conversationError(w, err)
		return
	}
	a.Response(w, http.StatusCreated, m)
}
