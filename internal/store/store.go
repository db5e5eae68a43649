package store

import (
	"context"

	"github.com/google/uuid"

	"slotkeeper/internal/domain"
)

// BookingStore persists bookings bucketed by day key.
//
// InsertBooking is the final arbiter of the no-overlap rule: implementations
// re-read the day and reject overlaps with ErrConflict inside a section that
// is exclusive per day key.
type BookingStore interface {
	FetchBookingsForDay(ctx context.Context, day domain.DayKey) ([]domain.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error)
	InsertBooking(ctx context.Context, b domain.Booking) (domain.Booking, error)
	DeleteBooking(ctx context.Context, id uuid.UUID) error
}

// ConfigStore holds the shop configuration singleton. FetchConfig returns
// domain.DefaultShopConfig when nothing has been saved.
type ConfigStore interface {
	FetchConfig(ctx context.Context) (domain.ShopConfig, error)
	UpsertConfig(ctx context.Context, cfg domain.ShopConfig) (domain.ShopConfig, error)
}

type ServiceCatalog interface {
	ListServices(ctx context.Context) ([]domain.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (domain.Service, error)
	UpsertService(ctx context.Context, svc domain.Service) (domain.Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error
}

type Store interface {
	BookingStore
	ConfigStore
	ServiceCatalog
}
