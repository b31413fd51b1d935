package listing

import (
	"errors"
	"fmt"
	"time"
)

type PropertyType string

const (
	PropertyHouse     PropertyType = "house"
	PropertyBuilding  PropertyType = "building"
	PropertyVilla     PropertyType = "villa"
	PropertyApartment PropertyType = "apartment"
	PropertyLand      PropertyType = "land"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyHouse, PropertyBuilding, PropertyVilla, PropertyApartment, PropertyLand:
		return true
	}
	return false
}

type SaleType string

const (
	SaleTypeRent SaleType = "rent"
	SaleTypeSale SaleType = "sale"
)

type PaymentSchedule string

const (
	PayMonthly   PaymentSchedule = "monthly"
	PayQuarterly PaymentSchedule = "quarterly"
	PayYearly    PaymentSchedule = "yearly"
	PayOnce      PaymentSchedule = "once"
)

type PublicationStatus string

const (
	PublicationPending   PublicationStatus = "pending"
	PublicationPublished PublicationStatus = "published"
	PublicationRejected  PublicationStatus = "rejected"
)

type Listing struct {
	ID                int64             `json:"id"`
	OwnerID           int64             `json:"owner_id"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	PropertyType      PropertyType      `json:"property_type"`
	SaleType          SaleType          `json:"sale_type"`
	Price             float64           `json:"price"`
	PaymentSchedule   PaymentSchedule   `json:"payment_schedule"`
	Surface           float64           `json:"surface"`
	Rooms             int               `json:"rooms"`
	Address           string            `json:"address"`
	City              string            `json:"city"`
	PostalCode        string            `json:"postal_code"`
	Latitude          float64           `json:"latitude"`
	Longitude         float64           `json:"longitude"`
	PublicationStatus PublicationStatus `json:"publication_status"`
	PublishedAt       time.Time         `json:"published_at"`
	Photos            []Photo           `json:"photos,omitempty"`
}

type Photo struct {
	ID        int64  `json:"id"`
	ListingID int64  `json:"listing_id"`
	URL       string `json:"url"`
	IsPrimary bool   `json:"is_primary"`
}

// Filters narrows the public search and the admin review list.
type Filters struct {
	City         string
	PropertyType PropertyType
	SaleType     SaleType
	PriceMin     float64
	PriceMax     float64
	SurfaceMin   float64
	RoomsMin     int
	Status       PublicationStatus
}

var ErrNotFound = errors.New("listing not found")

func (l *Listing) Validate() error {
	if n := len(l.Title); n < 5 || n > 150 {
		return errors.New("title must be between 5 and 150 characters")
	}
	if n := len(l.Description); n < 20 || n > 2000 {
		return errors.New("description must be between 20 and 2000 characters")
	}
	if !l.PropertyType.Valid() {
		return fmt.Errorf("invalid property type %q", l.PropertyType)
	}
	if l.SaleType != SaleTypeRent && l.SaleType != SaleTypeSale {
		return fmt.Errorf("invalid sale type %q", l.SaleType)
	}
	if l.Price <= 0 {
		return errors.New("price must be positive")
	}
	switch l.PaymentSchedule {
	case PayMonthly, PayQuarterly, PayYearly, PayOnce:
	default:
		return fmt.Errorf("invalid payment schedule %q", l.PaymentSchedule)
	}
	if l.Surface <= 0 {
		return errors.New("surface must be positive")
	}
	if l.Rooms < 0 {
		return errors.New("rooms must not be negative")
	}
	if n := len(l.Address); n < 10 || n > 255 {
		return errors.New("address must be between 10 and 255 characters")
	}
	if n := len(l.City); n < 2 || n > 100 {
		return errors.New("city must be between 2 and 100 characters")
	}
	if n := len(l.PostalCode); n < 4 || n > 20 {
		return errors.New("postal code must be between 4 and 20 characters")
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return errors.New("latitude out of range")
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return errors.New("longitude out of range")
	}
	return nil
}
