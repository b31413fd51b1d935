package preference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"realty-system/listing"
)

// Candidate pool size and result cap of the suggestion pass.
const (
	candidateLimit  = 50
	suggestionLimit = 20
)

// Upsert saves or replaces the buyer's preferences.
func (a *Accessor) Upsert(ctx context.Context, p Preference) (*Preference, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	query := `INSERT INTO buyer_preferences
		(buyer_id, search_type, budget_min, budget_max, property_type, surface_min, rooms_min, city, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (buyer_id) DO UPDATE SET
			search_type = EXCLUDED.search_type,
			budget_min = EXCLUDED.budget_min,
			budget_max = EXCLUDED.budget_max,
			property_type = EXCLUDED.property_type,
			surface_min = EXCLUDED.surface_min,
			rooms_min = EXCLUDED.rooms_min,
			city = EXCLUDED.city,
			updated_at = now()
		RETURNING updated_at`
	row := a.db.QueryRowContext(ctx, query,
		p.BuyerID, p.SearchType, p.BudgetMin, p.BudgetMax, p.PropertyType, p.SurfaceMin, p.RoomsMin, p.City)
	if err := row.Scan(&p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert preferences: %w", err)
	}
	return &p, nil
}

func (a *Accessor) Get(ctx context.Context, buyerID int64) (*Preference, error) {
	query := `SELECT buyer_id, search_type, budget_min, budget_max, property_type, surface_min, rooms_min, city, updated_at
		FROM buyer_preferences WHERE buyer_id = $1`
	var p Preference
	err := a.db.QueryRowContext(ctx, query, buyerID).Scan(
		&p.BuyerID, &p.SearchType, &p.BudgetMin, &p.BudgetMax, &p.PropertyType, &p.SurfaceMin, &p.RoomsMin, &p.City, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	return &p, nil
}

// Suggest scores published listings against the buyer's preferences and
// returns the best matches, highest score first. Results are persisted so
// seen-tracking and history survive refreshes.
func (a *Accessor) Suggest(ctx context.Context, buyerID int64) ([]Suggestion, error) {
	p, err := a.Get(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNoPreferences
	}

	filters := listing.Filters{SaleType: p.SearchType}
	if p.BudgetMin != nil {
		filters.PriceMin = *p.BudgetMin
	}
	if p.BudgetMax != nil {
		filters.PriceMax = *p.BudgetMax
	}
	if p.SurfaceMin != nil {
		filters.SurfaceMin = *p.SurfaceMin
	}
	if p.RoomsMin != nil {
		filters.RoomsMin = *p.RoomsMin
	}

	candidates, err := a.listings.Search(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	if len(candidates) > candidateLimit {
		candidates = candidates[:candidateLimit]
	}

	var suggestions []Suggestion
	for _, l := range candidates {
		if score := MatchScore(l, *p); score > 0 {
			suggestions = append(suggestions, Suggestion{Listing: l, Score: score})
		}
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	if len(suggestions) > suggestionLimit {
		suggestions = suggestions[:suggestionLimit]
	}

	saveQuery := `INSERT INTO suggestions (buyer_id, listing_id, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (buyer_id, listing_id) DO UPDATE SET score = EXCLUDED.score, suggested_at = now()`
	for i := range suggestions {
		if _, err := a.db.ExecContext(ctx, saveQuery, buyerID, suggestions[i].Listing.ID, suggestions[i].Score); err != nil {
			return nil, fmt.Errorf("save suggestion: %w", err)
		}
	}
	return suggestions, nil
}

// MarkSeen flags a previously suggested listing as viewed by the buyer.
func (a *Accessor) MarkSeen(ctx context.Context, buyerID, listingID int64) error {
	query := `UPDATE suggestions SET seen = TRUE WHERE buyer_id = $1 AND listing_id = $2`
	if _, err := a.db.ExecContext(ctx, query, buyerID, listingID); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// History returns everything ever suggested to the buyer, newest first.
func (a *Accessor) History(ctx context.Context, buyerID int64) ([]Suggestion, error) {
	query := `SELECT s.listing_id, s.score, s.seen, s.suggested_at,
		l.id, l.owner_id, l.title, l.description, l.property_type, l.sale_type, l.price,
		l.payment_schedule, l.surface, l.rooms, l.address, l.city, l.postal_code,
		l.latitude, l.longitude, l.publication_status, l.published_at
	FROM suggestions s
	JOIN listings l ON s.listing_id = l.id
	WHERE s.buyer_id = $1
	ORDER BY s.suggested_at DESC`

	rows, err := a.db.QueryContext(ctx, query, buyerID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []Suggestion
	for rows.Next() {
		var s Suggestion
		var listingID int64
		if err := rows.Scan(&listingID, &s.Score, &s.Seen, &s.SuggestedAt,
			&s.Listing.ID, &s.Listing.OwnerID, &s.Listing.Title, &s.Listing.Description,
			&s.Listing.PropertyType, &s.Listing.SaleType, &s.Listing.Price,
			&s.Listing.PaymentSchedule, &s.Listing.Surface, &s.Listing.Rooms,
			&s.Listing.Address, &s.Listing.City, &s.Listing.PostalCode,
			&s.Listing.Latitude, &s.Listing.Longitude, &s.Listing.PublicationStatus, &s.Listing.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		history = append(history, s)
	}
	return history, rows.Err()
}
