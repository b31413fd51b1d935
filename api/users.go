package api

import (
	"encoding/json"
	"net/http"

	"realty-system/user"
)

func (a *API) getMe(w http.ResponseWriter, r *http.Request) {
	userAccessor := user.NewAccessor(a.db)
	u, err := userAccessor.GetByID(r.Context(), a.principal(r).UserID)
	if err != nil {
		a.serverError(w, err)
		return
	}
	if u == nil {
		a.Response(w, http.StatusNotFound, "user not found")
		return
	}
	a.Response(w, http.StatusOK, u)
}

type updateProfileRequest struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Phone   string `json:"phone"`
}

func (a *API) updateMe(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Name) < 2 || len(req.Surname) < 2 {
		a.Response(w, http.StatusBadRequest, "name and surname must be at least 2 characters")
		return
	}

	userAccessor := user.NewAccessor(a.db)
	u, err := userAccessor.UpdateProfile(r.Context(), a.principal(r).UserID, req.Name, req.Surname, req.Phone)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, u)
}

// getUser exposes a public contact card: no email enumeration beyond what
// listings already reveal.
func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}

	userAccessor := user.NewAccessor(a.db)
	u, err := userAccessor.GetByID(r.Context(), id)
	if err != nil {
		a.serverError(w, err)
		return
	}
	if u == nil {
		a.Response(w, http.StatusNotFound, "user not found")
		return
	}

	a.Response(w, http.StatusOK, map[string]any{
		"id":      u.ID,
		"name":    u.Name,
		"surname": u.Surname,
		"phone":   u.Phone,
		"role":    u.Role,
	})
}
