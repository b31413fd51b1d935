package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"realty-system/auth"
	"realty-system/user"
)

type registerRequest struct {
	Name     string    `json:"name"`
	Surname  string    `json:"surname"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Phone    string    `json:"phone"`
	Role     auth.Role `json:"role"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Password) < 6 {
		a.Response(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		a.serverError(w, err)
		return
	}

	payload := user.User{
		Name:         req.Name,
		Surname:      req.Surname,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Role:         req.Role,
	}
	if err := payload.Validate(); err != nil {
		a.Response(w, http.StatusBadRequest, fmt.Errorf("validate: %w", err).Error())
		return
	}

	userAccessor := user.NewAccessor(a.db)
	created, err := userAccessor.Create(r.Context(), payload)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			a.Response(w, http.StatusConflict, "an account with this email already exists")
			return
		}
		a.serverError(w, err)
		return
	}

	token, err := a.tokens.Sign(auth.Principal{UserID: created.ID, Email: created.Email, Role: created.Role}, a.now())
	if err != nil {
		a.serverError(w, err)
		return
	}

	a.Response(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  created,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		a.Response(w, http.StatusBadRequest, "email and password are required")
		return
	}

	userAccessor := user.NewAccessor(a.db)
	u, err := userAccessor.GetByEmail(r.Context(), req.Email)
	if err != nil {
		a.serverError(w, err)
		return
	}
	// Same rejection whether the email is unknown or the password is
	// wrong, so logins cannot be used to probe for accounts.
	if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		a.Response(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if u.Status != user.StatusActive {
		a.Response(w, http.StatusUnauthorized, "account suspended")
		return
	}

	token, err := a.tokens.Sign(auth.Principal{UserID: u.ID, Email: u.Email, Role: u.Role}, a.now())
	if err != nil {
		a.serverError(w, err)
		return
	}

	a.Response(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  u,
	})
}

func (a *API) verify(w http.ResponseWriter, r *http.Request) {
	a.Response(w, http.StatusOK, a.principal(r))
}

// logout exists for client symmetry; tokens are stateless so there is
// nothing to revoke server-side.
func (a *API) logout(w http.ResponseWriter, _ *http.Request) {
	a.Response(w, http.StatusOK, "logged out")
}
