package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"slotkeeper/internal/availability"
	"slotkeeper/internal/domain"
)

// DayTx is a view of the booking data that the caller holds exclusively for
// one day key, e.g. a transaction after taking the day's lock.
type DayTx interface {
	ListBookings(ctx context.Context, day domain.DayKey) ([]domain.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error)
	CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error)
}

// InsertWithinDay runs the shared insert protocol inside tx. Replaying an id
// with identical content returns the stored booking; replaying it with other
// content fails with ErrIdempotencyConflict; an overlap fails with
// ErrConflict wrapping the *availability.ConflictError.
func InsertWithinDay(ctx context.Context, tx DayTx, b domain.Booking) (domain.Booking, error) {
	if b.ID != uuid.Nil {
		existing, err := tx.GetBooking(ctx, b.ID)
		switch {
		case err == nil:
			if !existing.SameRequest(b) {
				return domain.Booking{}, ErrIdempotencyConflict
			}
			return existing, nil
		case !errors.Is(err, ErrNotFound):
			return domain.Booking{}, err
		}
	} else {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Booking{}, err
		}
		b.ID = id
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	existing, err := tx.ListBookings(ctx, b.Day)
	if err != nil {
		return domain.Booking{}, err
	}
	if err := EnsureDayVacant(existing, b); err != nil {
		return domain.Booking{}, err
	}
	return tx.CreateBooking(ctx, b)
}

// EnsureDayVacant rejects candidate when it overlaps a booking on its day.
func EnsureDayVacant(existing []domain.Booking, candidate domain.Booking) error {
	if err := availability.CheckConflict(candidate.Day, candidate.Interval(), existing); err != nil {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return nil
}
