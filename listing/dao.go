package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const listingColumns = `id, owner_id, title, description, property_type, sale_type, price,
	payment_schedule, surface, rooms, address, city, postal_code, latitude, longitude,
	publication_status, published_at`

func (a *Accessor) Create(ctx context.Context, l Listing) (*Listing, error) {
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	query := `INSERT INTO listings (owner_id, title, description, property_type, sale_type, price,
		payment_schedule, surface, rooms, address, city, postal_code, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, publication_status, published_at`
	row := a.db.QueryRowContext(ctx, query,
		l.OwnerID, l.Title, l.Description, l.PropertyType, l.SaleType, l.Price,
		l.PaymentSchedule, l.Surface, l.Rooms, l.Address, l.City, l.PostalCode,
		l.Latitude, l.Longitude)
	if err := row.Scan(&l.ID, &l.PublicationStatus, &l.PublishedAt); err != nil {
		return nil, fmt.Errorf("insert listing: %w", err)
	}

	return &l, nil
}

func (a *Accessor) GetByID(ctx context.Context, id int64) (*Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	row := a.db.QueryRowContext(ctx, query, id)

	var l Listing
	if err := scanListing(row.Scan, &l); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	return &l, nil
}

// GetOwner is the listing-store contract the slot manager consumes.
func (a *Accessor) GetOwner(ctx context.Context, listingID int64) (int64, bool, error) {
	var ownerID int64
	query := `SELECT owner_id FROM listings WHERE id = $1`
	if err := a.db.QueryRowContext(ctx, query, listingID).Scan(&ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("scan: %w", err)
	}
	return ownerID, true, nil
}

// Search returns published listings matching the filters, newest first.
func (a *Accessor) Search(ctx context.Context, f Filters) ([]Listing, error) {
	conditions := []string{`publication_status = 'published'`}
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.City != "" {
		conditions = append(conditions, `city ILIKE `+arg("%"+f.City+"%"))
	}
	if f.PropertyType != "" {
		conditions = append(conditions, `property_type = `+arg(f.PropertyType))
	}
	if f.SaleType != "" {
		conditions = append(conditions, `sale_type = `+arg(f.SaleType))
	}
	if f.PriceMin > 0 {
		conditions = append(conditions, `price >= `+arg(f.PriceMin))
	}
	if f.PriceMax > 0 {
		conditions = append(conditions, `price <= `+arg(f.PriceMax))
	}
	if f.SurfaceMin > 0 {
		conditions = append(conditions, `surface >= `+arg(f.SurfaceMin))
	}
	if f.RoomsMin > 0 {
		conditions = append(conditions, `rooms >= `+arg(f.RoomsMin))
	}

	query := `SELECT ` + listingColumns + ` FROM listings WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY published_at DESC`

	return a.queryListings(ctx, query, args...)
}

func (a *Accessor) ListByOwner(ctx context.Context, ownerID int64) ([]Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE owner_id = $1 ORDER BY published_at DESC`
	return a.queryListings(ctx, query, ownerID)
}

// ListAll returns listings in any publication status for admin review.
func (a *Accessor) ListAll(ctx context.Context, status PublicationStatus) ([]Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings`
	var args []any
	if status != "" {
		query += ` WHERE publication_status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY published_at DESC`
	return a.queryListings(ctx, query, args...)
}

func (a *Accessor) Update(ctx context.Context, l Listing) (*Listing, error) {
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	query := `UPDATE listings SET title = $1, description = $2, property_type = $3, sale_type = $4,
		price = $5, payment_schedule = $6, surface = $7, rooms = $8, address = $9, city = $10,
		postal_code = $11, latitude = $12, longitude = $13
		WHERE id = $14`
	if _, err := a.db.ExecContext(ctx, query,
		l.Title, l.Description, l.PropertyType, l.SaleType, l.Price, l.PaymentSchedule,
		l.Surface, l.Rooms, l.Address, l.City, l.PostalCode, l.Latitude, l.Longitude, l.ID); err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}

	return a.GetByID(ctx, l.ID)
}

func (a *Accessor) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM listings WHERE id = $1`
	if _, err := a.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	return nil
}

// SetPublicationStatus applies an admin review decision.
func (a *Accessor) SetPublicationStatus(ctx context.Context, id int64, status PublicationStatus) error {
	query := `UPDATE listings SET publication_status = $1 WHERE id = $2`
	res, err := a.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("set publication status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *Accessor) AddPhoto(ctx context.Context, p Photo) (*Photo, error) {
	query := `INSERT INTO listing_photos (listing_id, url, is_primary)
		VALUES ($1, $2, NOT EXISTS (SELECT 1 FROM listing_photos WHERE listing_id = $1))
		RETURNING id, is_primary`
	if err := a.db.QueryRowContext(ctx, query, p.ListingID, p.URL).Scan(&p.ID, &p.IsPrimary); err != nil {
		return nil, fmt.Errorf("insert photo: %w", err)
	}
	return &p, nil
}

func (a *Accessor) DeletePhoto(ctx context.Context, listingID, photoID int64) error {
	query := `DELETE FROM listing_photos WHERE id = $1 AND listing_id = $2`
	res, err := a.db.ExecContext(ctx, query, photoID, listingID)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *Accessor) GetPhotos(ctx context.Context, listingID int64) ([]Photo, error) {
	query := `SELECT id, listing_id, url, is_primary FROM listing_photos
		WHERE listing_id = $1 ORDER BY is_primary DESC, id ASC`
	rows, err := a.db.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.ListingID, &p.URL, &p.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// CountByStatus feeds the admin dashboard.
func (a *Accessor) CountByStatus(ctx context.Context) (map[PublicationStatus]int, error) {
	query := `SELECT publication_status, COUNT(*) FROM listings GROUP BY publication_status`
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}
	defer rows.Close()

	counts := make(map[PublicationStatus]int)
	for rows.Next() {
		var status PublicationStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (a *Accessor) queryListings(ctx context.Context, query string, args ...any) ([]Listing, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var l Listing
		if err := scanListing(rows.Scan, &l); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func scanListing(scan func(...any) error, l *Listing) error {
	return scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.PropertyType, &l.SaleType, &l.Price,
		&l.PaymentSchedule, &l.Surface, &l.Rooms, &l.Address, &l.City, &l.PostalCode,
		&l.Latitude, &l.Longitude, &l.PublicationStatus, &l.PublishedAt,
	)
}
