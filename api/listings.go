package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"realty-system/listing"
)

const maxPhotoSize = 5 << 20 // 5MB

func (a *API) searchListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := listing.Filters{
		City:         q.Get("city"),
		PropertyType: listing.PropertyType(q.Get("property_type")),
		SaleType:     listing.SaleType(q.Get("sale_type")),
	}
	filters.PriceMin, _ = strconv.ParseFloat(q.Get("price_min"), 64)
	filters.PriceMax, _ = strconv.ParseFloat(q.Get("price_max"), 64)
	filters.SurfaceMin, _ = strconv.ParseFloat(q.Get("surface_min"), 64)
	filters.RoomsMin, _ = strconv.Atoi(q.Get("rooms_min"))

	listingAccessor := listing.NewAccessor(a.db)
	listings, err := listingAccessor.Search(r.Context(), filters)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, map[string]any{"listings": listings})
}

func (a *API) myListings(w http.ResponseWriter, r *http.Request) {
	listingAccessor := listing.NewAccessor(a.db)
	listings, err := listingAccessor.ListByOwner(r.Context(), a.principal(r).UserID)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, map[string]any{"listings": listings})
}

func (a *API) getListing(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}

	listingAccessor := listing.NewAccessor(a.db)
	l, err := listingAccessor.GetByID(r.Context(), id)
	if err != nil {
		a.serverError(w, err)
		return
	}
	if l == nil {
		a.Response(w, http.StatusNotFound, "listing not found or not published")
		return
	}
	// Unpublished listings stay visible to their owner and to admins.
	if l.PublicationStatus != listing.PublicationPublished {
		p, ok := a.optionalPrincipal(r)
		if !ok || (l.OwnerID != p.UserID && !p.IsAdmin()) {
			a.Response(w, http.StatusNotFound, "listing not found or not published")
			return
		}
	}

	photos, err := listingAccessor.GetPhotos(r.Context(), l.ID)
	if err != nil {
		a.serverError(w, err)
		return
	}
	l.Photos = photos

	a.Response(w, http.StatusOK, l)
}

type listingRequest struct {
	Title           *string  `json:"title"`
	Description     *string  `json:"description"`
	PropertyType    *string  `json:"property_type"`
	SaleType        *string  `json:"sale_type"`
	Price           *float64 `json:"price"`
	PaymentSchedule *string  `json:"payment_schedule"`
	Surface         *float64 `json:"surface"`
	Rooms           *int     `json:"rooms"`
	Address         *string  `json:"address"`
	City            *string  `json:"city"`
	PostalCode      *string  `json:"postal_code"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

// apply merges the supplied fields onto l.
func (req *listingRequest) apply(l *listing.Listing) {
	if req.Title != nil {
		l.Title = *req.Title
	}
	if req.Description != nil {
		l.Description = *req.Description
	}
	if req.PropertyType != nil {
		l.PropertyType = listing.PropertyType(*req.PropertyType)
	}
	if req.SaleType != nil {
		l.SaleType = listing.SaleType(*req.SaleType)
	}
	if req.Price != nil {
		l.Price = *req.Price
	}
	if req.PaymentSchedule != nil {
		l.PaymentSchedule = listing.PaymentSchedule(*req.PaymentSchedule)
	}
	if req.Surface != nil {
		l.Surface = *req.Surface
	}
	if req.Rooms != nil {
		l.Rooms = *req.Rooms
	}
	if req.Address != nil {
		l.Address = *req.Address
	}
	if req.City != nil {
		l.City = *req.City
	}
	if req.PostalCode != nil {
		l.PostalCode = *req.PostalCode
	}
	if req.Latitude != nil {
		l.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		l.Longitude = *req.Longitude
	}
}

func (a *API) createListing(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var payload listing.Listing
	req.apply(&payload)
	payload.OwnerID = a.principal(r).UserID

	if err := payload.Validate(); err != nil {
		a.Response(w, http.StatusBadRequest, fmt.Errorf("validate: %w", err).Error())
		return
	}

	listingAccessor := listing.NewAccessor(a.db)
	created, err := listingAccessor.Create(r.Context(), payload)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusCreated, created)
}

func (a *API) updateListing(w http.ResponseWriter, r *http.Request) {
	l, ok := a.ownedListing(w, r)
	if !ok {
		return
	}

	var req listingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.apply(l)

	if err := l.Validate(); err != nil {
		a.Response(w, http.StatusBadRequest, fmt.Errorf("validate: %w", err).Error())
		return
	}

	listingAccessor := listing.NewAccessor(a.db)
	updated, err := listingAccessor.Update(r.Context(), *l)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, updated)
}

func (a *API) deleteListing(w http.ResponseWriter, r *http.Request) {
	l, ok := a.ownedListing(w, r)
	if !ok {
		return
	}

	listingAccessor := listing.NewAccessor(a.db)
	if err := listingAccessor.Delete(r.Context(), l.ID); err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusNoContent, nil)
}

func (a *API) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	l, ok := a.ownedListing(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	file, header, err := r.FormFile("image")
	if err != nil {
		a.Response(w, http.StatusBadRequest, "image file is required (max 5MB)")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		a.Response(w, http.StatusBadRequest, "only JPEG, PNG and WebP images are allowed")
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		a.serverError(w, err)
		return
	}
	name := fmt.Sprintf("listing-%s%s", uuid.NewString(), ext)
	dst, err := os.Create(filepath.Join(a.uploadDir, name))
	if err != nil {
		a.serverError(w, err)
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		a.serverError(w, err)
		return
	}

	listingAccessor := listing.NewAccessor(a.db)
	photo, err := listingAccessor.AddPhoto(r.Context(), listing.Photo{
		ListingID: l.ID,
		URL:       "/" + filepath.ToSlash(filepath.Join(a.uploadDir, name)),
	})
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusCreated, photo)
}

func (a *API) deletePhoto(w http.ResponseWriter, r *http.Request) {
	l, ok := a.ownedListing(w, r)
	if !ok {
		return
	}
	photoID, ok := a.pathID(w, r, "photoId")
	if !ok {
		return
	}

	listingAccessor := listing.NewAccessor(a.db)
	if err := listingAccessor.DeletePhoto(r.Context(), l.ID, photoID); err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			a.Response(w, http.StatusNotFound, "photo not found")
			return
		}
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusNoContent, nil)
}

// ownedListing loads the {id} listing and enforces that the caller owns it
// (admins pass). Replies itself on failure.
func (a *API) ownedListing(w http.ResponseWriter, r *http.Request) (*listing.Listing, bool) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return nil, false
	}

	listingAccessor := listing.NewAccessor(a.db)
	l, err := listingAccessor.GetByID(r.Context(), id)
	if err != nil {
		a.serverError(w, err)
		return nil, false
	}
	p := a.principal(r)
	if l == nil || (l.OwnerID != p.UserID && !p.IsAdmin()) {
		a.Response(w, http.StatusNotFound, "listing not found or not yours")
		return nil, false
	}
	return l, true
}
