package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"realty-system/auth"
	"realty-system/conversation"
	"realty-system/listing"
	"realty-system/user"
)

func (a *API) adminDashboard(w http.ResponseWriter, r *http.Request) {
	userAccessor := user.NewAccessor(a.db)
	usersByRole, err := userAccessor.CountByRole(r.Context())
	if err != nil {
		a.serverError(w, err)
		return
	}

	listingAccessor := listing.NewAccessor(a.db)
	listingsByStatus, err := listingAccessor.CountByStatus(r.Context())
	if err != nil {
		a.serverError(w, err)
		return
	}

	slotsByStatus, err := a.slotAccessor().CountByStatus(r.Context())
	if err != nil {
		a.serverError(w, err)
		return
	}

	conversationAccessor := conversation.NewAccessor(a.db)
	conversations, err := conversationAccessor.Count(r.Context())
	if err != nil {
		a.serverError(w, err)
		return
	}

	a.Response(w, http.StatusOK, map[string]any{
		"users":         usersByRole,
		"listings":      listingsByStatus,
		"slots":         slotsByStatus,
		"conversations": conversations,
	})
}

func (a *API) adminListUsers(w http.ResponseWriter, r *http.Request) {
	userAccessor := user.NewAccessor(a.db)
	users, err := userAccessor.List(r.Context(), auth.Role(r.URL.Query().Get("role")))
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, map[string]any{"users": users})
}

type setUserStatusRequest struct {
	Status string `json:"status"`
}

func (a *API) adminSetUserStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var req setUserStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := user.Status(req.Status)
	if status != user.StatusActive && status != user.StatusSuspended {
		a.Response(w, http.StatusBadRequest, "status must be active or suspended")
		return
	}
	if id == a.principal(r).UserID {
		a.Response(w, http.StatusBadRequest, "cannot change your own status")
		return
	}

	userAccessor := user.NewAccessor(a.db)
	if err := userAccessor.UpdateStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			a.Response(w, http.StatusNotFound, "user not found")
			return
		}
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, "user status updated")
}

func (a *API) adminListListings(w http.ResponseWriter, r *http.Request) {
	listingAccessor := listing.NewAccessor(a.db)
	listings, err := listingAccessor.ListAll(r.Context(), listing.PublicationStatus(r.URL.Query().Get("status")))
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, map[string]any{"listings": listings})
}

type reviewListingRequest struct {
	Status string `json:"status"`
}

func (a *API) adminReviewListing(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var req reviewListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := listing.PublicationStatus(req.Status)
	switch status {
	case listing.PublicationPublished, listing.PublicationRejected, listing.PublicationPending:
	default:
		a.Response(w, http.StatusBadRequest, "status must be published, rejected or pending")
		return
	}

	listingAccessor := listing.NewAccessor(a.db)
	if err := listingAccessor.SetPublicationStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			a.Response(w, http.StatusNotFound, "listing not found")
			return
		}
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, "listing review recorded")
}
