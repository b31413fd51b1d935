package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"realty-system/listing"
	"realty-system/preference"
)

func (a *API) preferenceAccessor() *preference.Accessor {
	return preference.NewAccessor(a.db, listing.NewAccessor(a.db))
}

type preferencesRequest struct {
	SearchType   string   `json:"search_type"`
	BudgetMin    *float64 `json:"budget_min"`
	BudgetMax    *float64 `json:"budget_max"`
	PropertyType *string  `json:"property_type"`
	SurfaceMin   *float64 `json:"surface_min"`
	RoomsMin     *int     `json:"rooms_min"`
	City         *string  `json:"city"`
}

func (a *API) upsertPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload := preference.Preference{
		BuyerID:    a.principal(r).UserID,
		SearchType: listing.SaleType(req.SearchType),
		BudgetMin:  req.BudgetMin,
		BudgetMax:  req.BudgetMax,
		SurfaceMin: req.SurfaceMin,
		RoomsMin:   req.RoomsMin,
		City:       req.City,
	}
	if req.PropertyType != nil {
		t := listing.PropertyType(*req.PropertyType)
		payload.PropertyType = &t
	}

	saved, err := a.preferenceAccessor().Upsert(r.Context(), payload)
	if err != nil {
		a.Response(w, http.StatusBadRequest, fmt.Errorf("validate: %w", err).Error())
		return
	}
	a.Response(w, http.StatusOK, saved)
}

func (a *API) getPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := a.preferenceAccessor().Get(r.Context(), a.principal(r).UserID)
	if err != nil {
		a.serverError(w, err)
		return
	}
	if p == nil {
		a.Response(w, http.StatusOK, map[string]any{"preferences": nil})
		return
	}
	a.Response(w, http.StatusOK, map[string]any{"preferences": p})
}

func (a *API) getSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := a.preferenceAccessor().Suggest(r.Context(), a.principal(r).UserID)
	if err != nil {
		if errors.Is(err, preference.ErrNoPreferences) {
			a.Response(w, http.StatusBadRequest, "define your search preferences first")
			return
		}
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, map[string]any{
		"suggestions": suggestions,
		"total":       len(suggestions),
	})
}

func (a *API) markSuggestionSeen(w http.ResponseWriter, r *http.Request) {
	listingID, ok := a.pathID(w, r, "listingId")
	if !ok {
		return
	}

	if err := a.preferenceAccessor().MarkSeen(r.Context(), a.principal(r).UserID, listingID); err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, "suggestion marked as seen")
}

func (a *API) suggestionHistory(w http.ResponseWriter, r *http.Request) {
	history, err := a.preferenceAccessor().History(r.Context(), a.principal(r).UserID)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, map[string]any{"history": history})
}
