package preference

import (
	"errors"
	"math"
	"strings"
	"time"

	"realty-system/listing"
)

// Preference is a buyer's saved search profile. Optional criteria are
// pointers; a nil criterion neither filters nor scores.
type Preference struct {
	BuyerID      int64                 `json:"buyer_id"`
	SearchType   listing.SaleType      `json:"search_type"`
	BudgetMin    *float64              `json:"budget_min,omitempty"`
	BudgetMax    *float64              `json:"budget_max,omitempty"`
	PropertyType *listing.PropertyType `json:"property_type,omitempty"`
	SurfaceMin   *float64              `json:"surface_min,omitempty"`
	RoomsMin     *int                  `json:"rooms_min,omitempty"`
	City         *string               `json:"city,omitempty"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// Suggestion is a published listing scored against the buyer's preferences.
type Suggestion struct {
	Listing     listing.Listing `json:"listing"`
	Score       int             `json:"score"`
	Seen        bool            `json:"seen"`
	SuggestedAt time.Time       `json:"suggested_at"`
}

var (
	ErrNoPreferences   = errors.New("no preferences defined")
	ErrBudgetsConflict = errors.New("minimum budget cannot exceed maximum budget")
)

func (p *Preference) Validate() error {
	if p.SearchType != listing.SaleTypeRent && p.SearchType != listing.SaleTypeSale {
		return errors.New(`search type must be "rent" or "sale"`)
	}
	if p.BudgetMin != nil && *p.BudgetMin < 0 {
		return errors.New("minimum budget must not be negative")
	}
	if p.BudgetMax != nil && *p.BudgetMax < 0 {
		return errors.New("maximum budget must not be negative")
	}
	if p.BudgetMin != nil && p.BudgetMax != nil && *p.BudgetMin > *p.BudgetMax {
		return ErrBudgetsConflict
	}
	if p.PropertyType != nil && !p.PropertyType.Valid() {
		return errors.New("invalid property type")
	}
	if p.SurfaceMin != nil && *p.SurfaceMin < 0 {
		return errors.New("minimum surface must not be negative")
	}
	if p.RoomsMin != nil && *p.RoomsMin < 1 {
		return errors.New("minimum rooms must be at least 1")
	}
	if p.City != nil {
		if n := len(strings.TrimSpace(*p.City)); n < 2 || n > 100 {
			return errors.New("preferred city must be between 2 and 100 characters")
		}
	}
	return nil
}

// Fixed criterion weights of the match scorer.
const (
	weightSaleType     = 30
	weightPropertyType = 20
	weightBudget       = 25
	weightSurface      = 15
	weightRooms        = 10
	weightCity         = 20
)

// MatchScore rates a listing against the preferences as a 0-100
// percentage. Only criteria the buyer actually set contribute to the
// possible total.
func MatchScore(l listing.Listing, p Preference) int {
	score, possible := 0, 0

	possible += weightSaleType
	if l.SaleType == p.SearchType {
		score += weightSaleType
	}

	if p.PropertyType != nil {
		possible += weightPropertyType
		if l.PropertyType == *p.PropertyType {
			score += weightPropertyType
		}
	}

	if p.BudgetMin != nil || p.BudgetMax != nil {
		possible += weightBudget
		withinBudget := true
		if p.BudgetMin != nil && l.Price < *p.BudgetMin {
			withinBudget = false
		}
		if p.BudgetMax != nil && l.Price > *p.BudgetMax {
			withinBudget = false
		}
		if withinBudget {
			score += weightBudget
		}
	}

	if p.SurfaceMin != nil {
		possible += weightSurface
		if l.Surface >= *p.SurfaceMin {
			score += weightSurface
		}
	}

	if p.RoomsMin != nil {
		possible += weightRooms
		if l.Rooms >= *p.RoomsMin {
			score += weightRooms
		}
	}

	if p.City != nil {
		possible += weightCity
		if strings.Contains(strings.ToLower(l.City), strings.ToLower(*p.City)) {
			score += weightCity
		}
	}

	if possible == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(possible) * 100))
}
