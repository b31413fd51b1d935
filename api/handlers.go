package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"realty-system/auth"
)

type API struct {
	router    *mux.Router
	db        *sql.DB
	logger    *zap.Logger
	tokens    *auth.Tokens
	uploadDir string
	now       func() time.Time
}

func NewAPI(db *sql.DB, logger *zap.Logger, tokens *auth.Tokens, uploadDir string) *API {
	r := mux.NewRouter()
	r = r.PathPrefix("/api").Subrouter()
	return &API{
		router:    r,
		db:        db,
		logger:    logger,
		tokens:    tokens,
		uploadDir: uploadDir,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (a *API) Handler() http.Handler {
	// Use Gorilla's built-in logging handler
	return handlers.LoggingHandler(os.Stdout, a.router)
}

func (a *API) Router() *mux.Router {
	return a.router
}

type Response struct {
	Status   int `json:"status"`
	Response any `json:"response"`
}

func (a *API) Response(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(Response{
		Status:   status,
		Response: data,
	})
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (a *API) RegisterRoutes() {
	a.router.HandleFunc("/health", a.health).Methods(http.MethodGet)

	a.router.HandleFunc("/auth/register", a.register).Methods(http.MethodPost)
	a.router.HandleFunc("/auth/login", a.login).Methods(http.MethodPost)
	a.router.HandleFunc("/auth/verify", a.authenticated(a.verify)).Methods(http.MethodPost)
	a.router.HandleFunc("/auth/logout", a.logout).Methods(http.MethodPost)

	a.router.HandleFunc("/users/me", a.authenticated(a.getMe)).Methods(http.MethodGet)
	a.router.HandleFunc("/users/me", a.authenticated(a.updateMe)).Methods(http.MethodPut)
	a.router.HandleFunc("/users/{id}", a.getUser).Methods(http.MethodGet)

	a.router.HandleFunc("/listings", a.searchListings).Methods(http.MethodGet)
	a.router.HandleFunc("/listings/mine", a.withRole(auth.RoleOwner, a.myListings)).Methods(http.MethodGet)
	a.router.HandleFunc("/listings", a.withRole(auth.RoleOwner, a.createListing)).Methods(http.MethodPost)
	a.router.HandleFunc("/listings/{id}", a.getListing).Methods(http.MethodGet)
	a.router.HandleFunc("/listings/{id}", a.withRole(auth.RoleOwner, a.updateListing)).Methods(http.MethodPut)
	a.router.HandleFunc("/listings/{id}", a.withRole(auth.RoleOwner, a.deleteListing)).Methods(http.MethodDelete)
	a.router.HandleFunc("/listings/{id}/photos", a.withRole(auth.RoleOwner, a.uploadPhoto)).Methods(http.MethodPost)
	a.router.HandleFunc("/listings/{id}/photos/{photoId}", a.withRole(auth.RoleOwner, a.deletePhoto)).Methods(http.MethodDelete)

	a.router.HandleFunc("/slots", a.withRole(auth.RoleOwner, a.mySlots)).Methods(http.MethodGet)
	a.router.HandleFunc("/slots/requests", a.withRole(auth.RoleOwner, a.slotRequests)).Methods(http.MethodGet)
	a.router.HandleFunc("/slots/mine", a.withRole(auth.RoleBuyer, a.myAppointments)).Methods(http.MethodGet)
	a.router.HandleFunc("/slots/listing/{listingId}", a.freeSlots).Methods(http.MethodGet)
	a.router.HandleFunc("/slots", a.withRole(auth.RoleOwner, a.createSlot)).Methods(http.MethodPost)
	a.router.HandleFunc("/slots/{id}", a.withRole(auth.RoleOwner, a.updateSlot)).Methods(http.MethodPut)
	a.router.HandleFunc("/slots/{id}", a.withRole(auth.RoleOwner, a.deleteSlot)).Methods(http.MethodDelete)
	a.router.HandleFunc("/slots/{id}/request", a.withRole(auth.RoleBuyer, a.requestSlot)).Methods(http.MethodPost)
	a.router.HandleFunc("/slots/{id}/accept", a.withRole(auth.RoleOwner, a.acceptSlot)).Methods(http.MethodPut)
	a.router.HandleFunc("/slots/{id}/refuse", a.withRole(auth.RoleOwner, a.refuseSlot)).Methods(http.MethodPut)
	a.router.HandleFunc("/slots/{id}/cancel", a.authenticated(a.cancelSlot)).Methods(http.MethodPut)

	a.router.HandleFunc("/conversations", a.authenticated(a.myConversations)).Methods(http.MethodGet)
	a.router.HandleFunc("/conversations", a.authenticated(a.startConversation)).Methods(http.MethodPost)
	a.router.HandleFunc("/conversations/direct", a.authenticated(a.startDirectConversation)).Methods(http.MethodPost)
	a.router.HandleFunc("/conversations/{id}/messages", a.authenticated(a.getMessages)).Methods(http.MethodGet)
	a.router.HandleFunc("/conversations/{id}/messages", a.authenticated(a.sendMessage)).Methods(http.MethodPost)

	a.router.HandleFunc("/preferences", a.withRole(auth.RoleBuyer, a.upsertPreferences)).Methods(http.MethodPost)
	a.router.HandleFunc("/preferences", a.withRole(auth.RoleBuyer, a.getPreferences)).Methods(http.MethodGet)
	a.router.HandleFunc("/suggestions", a.withRole(auth.RoleBuyer, a.getSuggestions)).Methods(http.MethodGet)
	a.router.HandleFunc("/suggestions/{listingId}/seen", a.withRole(auth.RoleBuyer, a.markSuggestionSeen)).Methods(http.MethodPut)
	a.router.HandleFunc("/suggestions/history", a.withRole(auth.RoleBuyer, a.suggestionHistory)).Methods(http.MethodGet)

	a.router.HandleFunc("/admin/dashboard", a.withRole(auth.RoleAdmin, a.adminDashboard)).Methods(http.MethodGet)
	a.router.HandleFunc("/admin/users", a.withRole(auth.RoleAdmin, a.adminListUsers)).Methods(http.MethodGet)
	a.router.HandleFunc("/admin/users/{id}/status", a.withRole(auth.RoleAdmin, a.adminSetUserStatus)).Methods(http.MethodPut)
	a.router.HandleFunc("/admin/listings", a.withRole(auth.RoleAdmin, a.adminListListings)).Methods(http.MethodGet)
	a.router.HandleFunc("/admin/listings/{id}/review", a.withRole(auth.RoleAdmin, a.adminReviewListing)).Methods(http.MethodPut)
}

// principal returns the authenticated caller. Handlers behind the auth
// middleware can rely on it being present.
func (a *API) principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

// pathID parses a positive integer path variable, replying 400 itself when
// the value is malformed.
func (a *API) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		a.Response(w, http.StatusBadRequest, "ID must be a positive integer")
		return 0, false
	}
	return id, true
}

func (a *API) serverError(w http.ResponseWriter, err error) {
	a.logger.Error("request failed", zap.Error(err))
	a.Response(w, http.StatusInternalServerError, err.Error())
}
