package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"realty-system/auth"
)

const slotColumns = `id, owner_id, listing_id, starts_at, ends_at, status, requester_id, created_at`

// Create publishes a new open slot on one of the actor's listings. The
// overlap check and the insert run in a single transaction so two
// concurrent creates cannot both pass the check and commit conflicting
// windows.
func (a *Accessor) Create(ctx context.Context, actor auth.Principal, listingID int64, start, end, now time.Time) (*Slot, error) {
	ownerID, found, err := a.listings.GetOwner(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("get listing owner: %w", err)
	}
	if !found {
		return nil, ErrListingNotFound
	}
	if ownerID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrNotListingOwner
	}

	if !start.Before(end) {
		return nil, ErrInvalidWindow
	}
	if !start.After(now) {
		return nil, ErrStartNotFuture
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Two windows conflict iff start_a < end_b AND end_a > start_b.
	checkQuery := `SELECT EXISTS (
		SELECT 1 FROM slots
		WHERE owner_id = $1 AND listing_id = $2 AND status <> 'cancelled'
		AND starts_at < $4 AND ends_at > $3
	)`
	var conflict bool
	if err := tx.QueryRowContext(ctx, checkQuery, ownerID, listingID, start, end).Scan(&conflict); err != nil {
		return nil, fmt.Errorf("overlap check: %w", err)
	}
	if conflict {
		return nil, ErrOverlap
	}

	s := Slot{
		OwnerID:   ownerID,
		ListingID: listingID,
		StartsAt:  start,
		EndsAt:    end,
	}
	insertQuery := `INSERT INTO slots (owner_id, listing_id, starts_at, ends_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at`
	if err := tx.QueryRowContext(ctx, insertQuery, ownerID, listingID, start, end).Scan(&s.ID, &s.Status, &s.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert slot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &s, nil
}

func (a *Accessor) GetByID(ctx context.Context, id int64) (*Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`
	var s Slot
	err := a.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.OwnerID, &s.ListingID, &s.StartsAt, &s.EndsAt, &s.Status, &s.RequesterID, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	return &s, nil
}

// Request reserves an open slot for the actor. Missing and already-taken
// slots are reported with the same rejection.
func (a *Accessor) Request(ctx context.Context, actor auth.Principal, slotID int64) (*Slot, error) {
	s, err := a.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if s == nil || s.Status != StatusOpen {
		return nil, ErrNotAvailable
	}
	if s.OwnerID == actor.UserID {
		return nil, ErrOwnListing
	}

	// The status guard in the WHERE clause keeps two concurrent requests
	// from both taking the slot.
	query := `UPDATE slots SET status = 'pending', requester_id = $1
		WHERE id = $2 AND status = 'open'`
	res, err := a.db.ExecContext(ctx, query, actor.UserID, slotID)
	if err != nil {
		return nil, fmt.Errorf("request slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotAvailable
	}

	s.Status = StatusPending
	s.RequesterID = &actor.UserID
	return s, nil
}

// Accept confirms a pending request on the actor's slot.
func (a *Accessor) Accept(ctx context.Context, actor auth.Principal, slotID int64) (*Slot, error) {
	s, err := a.ownedPending(ctx, actor, slotID)
	if err != nil {
		return nil, err
	}

	query := `UPDATE slots SET status = 'confirmed' WHERE id = $1 AND status = 'pending'`
	if err := a.transition(ctx, query, slotID); err != nil {
		return nil, err
	}
	s.Status = StatusConfirmed
	return s, nil
}

// Refuse rejects a pending request and reopens the slot.
func (a *Accessor) Refuse(ctx context.Context, actor auth.Principal, slotID int64) (*Slot, error) {
	s, err := a.ownedPending(ctx, actor, slotID)
	if err != nil {
		return nil, err
	}

	query := `UPDATE slots SET status = 'open', requester_id = NULL WHERE id = $1 AND status = 'pending'`
	if err := a.transition(ctx, query, slotID); err != nil {
		return nil, err
	}
	s.Status = StatusOpen
	s.RequesterID = nil
	return s, nil
}

func (a *Accessor) ownedPending(ctx context.Context, actor auth.Principal, slotID int64) (*Slot, error) {
	s, err := a.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNotFound
	}
	if s.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrNotOwner
	}
	if s.Status != StatusPending {
		return nil, ErrNotPending
	}
	return s, nil
}

func (a *Accessor) transition(ctx context.Context, query string, slotID int64) error {
	res, err := a.db.ExecContext(ctx, query, slotID)
	if err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotPending
	}
	return nil
}

// Cancel moves a pending or confirmed slot to cancelled. Either party may
// cancel.
func (a *Accessor) Cancel(ctx context.Context, actor auth.Principal, slotID int64) (*Slot, error) {
	s, err := a.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNotFound
	}
	isRequester := s.RequesterID != nil && *s.RequesterID == actor.UserID
	if s.OwnerID != actor.UserID && !isRequester && !actor.IsAdmin() {
		return nil, ErrNotParticipant
	}
	if s.Status == StatusOpen || s.Status == StatusCancelled {
		return nil, ErrNothingToCancel
	}

	query := `UPDATE slots SET status = 'cancelled' WHERE id = $1`
	if _, err := a.db.ExecContext(ctx, query, slotID); err != nil {
		return nil, fmt.Errorf("cancel slot: %w", err)
	}
	s.Status = StatusCancelled
	return s, nil
}

// UpdateWindow changes the start and/or end of a not-yet-confirmed slot.
func (a *Accessor) UpdateWindow(ctx context.Context, actor auth.Principal, slotID int64, newStart, newEnd *time.Time) (*Slot, error) {
	s, err := a.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNotFound
	}
	if s.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrNotOwner
	}
	if s.Status == StatusConfirmed {
		return nil, ErrConfirmedImmutable
	}
	if newStart == nil && newEnd == nil {
		return nil, ErrNoFields
	}

	start, end := s.StartsAt, s.EndsAt
	if newStart != nil {
		start = *newStart
	}
	if newEnd != nil {
		end = *newEnd
	}
	if !start.Before(end) {
		return nil, ErrInvalidWindow
	}

	query := `UPDATE slots SET starts_at = $1, ends_at = $2 WHERE id = $3`
	if _, err := a.db.ExecContext(ctx, query, start, end, slotID); err != nil {
		return nil, fmt.Errorf("update window: %w", err)
	}
	s.StartsAt = start
	s.EndsAt = end
	return s, nil
}

// Delete removes a slot that has not been confirmed.
func (a *Accessor) Delete(ctx context.Context, actor auth.Principal, slotID int64) error {
	s, err := a.GetByID(ctx, slotID)
	if err != nil {
		return err
	}
	if s == nil {
		return ErrNotFound
	}
	if s.OwnerID != actor.UserID && !actor.IsAdmin() {
		return ErrNotOwner
	}
	if s.Status == StatusConfirmed {
		return ErrConfirmedImmutable
	}

	query := `DELETE FROM slots WHERE id = $1`
	if _, err := a.db.ExecContext(ctx, query, slotID); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

// ListFree returns the listing's open slots starting strictly after now,
// soonest first.
func (a *Accessor) ListFree(ctx context.Context, listingID int64, now time.Time) ([]Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots
		WHERE listing_id = $1 AND status = 'open' AND starts_at > $2
		ORDER BY starts_at ASC`
	return a.querySlots(ctx, query, listingID, now)
}

// ListByOwner returns the owner's slots, optionally filtered.
func (a *Accessor) ListByOwner(ctx context.Context, ownerID int64, f Filters) ([]Slot, error) {
	conditions := []string{`owner_id = $1`}
	args := []any{ownerID}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ListingID != 0 {
		conditions = append(conditions, `listing_id = `+arg(f.ListingID))
	}
	if f.Status != "" {
		conditions = append(conditions, `status = `+arg(f.Status))
	}
	if !f.From.IsZero() {
		conditions = append(conditions, `starts_at >= `+arg(f.From))
	}
	if !f.To.IsZero() {
		conditions = append(conditions, `ends_at <= `+arg(f.To))
	}

	query := `SELECT ` + slotColumns + ` FROM slots WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY starts_at ASC`
	return a.querySlots(ctx, query, args...)
}

// ListRequests returns the owner's pending and confirmed slots with
// requester contact details, soonest first.
func (a *Accessor) ListRequests(ctx context.Context, ownerID int64) ([]OwnerRequest, error) {
	query := `SELECT s.id, s.owner_id, s.listing_id, s.starts_at, s.ends_at, s.status, s.requester_id, s.created_at,
		l.title, l.city, l.address,
		u.name, u.surname, u.email, u.phone
	FROM slots s
	JOIN listings l ON s.listing_id = l.id
	JOIN users u ON s.requester_id = u.id
	WHERE s.owner_id = $1 AND s.status IN ('pending', 'confirmed')
	ORDER BY s.starts_at ASC`

	rows, err := a.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var requests []OwnerRequest
	for rows.Next() {
		var r OwnerRequest
		if err := rows.Scan(
			&r.ID, &r.OwnerID, &r.ListingID, &r.StartsAt, &r.EndsAt, &r.Status, &r.RequesterID, &r.CreatedAt,
			&r.ListingTitle, &r.ListingCity, &r.ListingAddress,
			&r.RequesterName, &r.RequesterSurname, &r.RequesterEmail, &r.RequesterPhone,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// ListByRequester returns the requester's pending and confirmed
// appointments with listing and owner details, soonest first.
func (a *Accessor) ListByRequester(ctx context.Context, requesterID int64) ([]Appointment, error) {
	query := `SELECT s.id, s.owner_id, s.listing_id, s.starts_at, s.ends_at, s.status, s.requester_id, s.created_at,
		l.title, l.city, l.address, l.price,
		u.name, u.surname, u.email, u.phone
	FROM slots s
	JOIN listings l ON s.listing_id = l.id
	JOIN users u ON s.owner_id = u.id
	WHERE s.requester_id = $1 AND s.status IN ('pending', 'confirmed')
	ORDER BY s.starts_at ASC`

	rows, err := a.db.QueryContext(ctx, query, requesterID)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []Appointment
	for rows.Next() {
		var ap Appointment
		if err := rows.Scan(
			&ap.ID, &ap.OwnerID, &ap.ListingID, &ap.StartsAt, &ap.EndsAt, &ap.Status, &ap.RequesterID, &ap.CreatedAt,
			&ap.ListingTitle, &ap.ListingCity, &ap.ListingAddress, &ap.ListingPrice,
			&ap.OwnerName, &ap.OwnerSurname, &ap.OwnerEmail, &ap.OwnerPhone,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		appointments = append(appointments, ap)
	}
	return appointments, rows.Err()
}

// CountByStatus feeds the admin dashboard.
func (a *Accessor) CountByStatus(ctx context.Context) (map[Status]int, error) {
	query := `SELECT status, COUNT(*) FROM slots GROUP BY status`
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count slots: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (a *Accessor) querySlots(ctx context.Context, query string, args ...any) ([]Slot, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.ListingID, &s.StartsAt, &s.EndsAt, &s.Status, &s.RequesterID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}
