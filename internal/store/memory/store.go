// Package memory is a process-local store.Store used for development and
// tests. One mutex serializes every write, which also makes each day's
// insert section exclusive.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"slotkeeper/internal/domain"
	"slotkeeper/internal/store"
)

type Store struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]domain.Booking
	services map[uuid.UUID]domain.Service
	config   *domain.ShopConfig
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		bookings: make(map[uuid.UUID]domain.Booking),
		services: make(map[uuid.UUID]domain.Service),
	}
}

func (s *Store) FetchBookingsForDay(ctx context.Context, day domain.DayKey) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dayLocked(day), nil
}

func (s *Store) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lockedTx{s: s}.GetBooking(ctx, id)
}

func (s *Store) InsertBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return domain.Booking{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.InsertWithinDay(ctx, lockedTx{s: s}, b)
}

func (s *Store) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

func (s *Store) FetchConfig(ctx context.Context) (domain.ShopConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return domain.DefaultShopConfig(), nil
	}
	return *s.config, nil
}

func (s *Store) UpsertConfig(ctx context.Context, cfg domain.ShopConfig) (domain.ShopConfig, error) {
	cfg.ID = domain.ShopConfigID
	cfg.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = &cfg
	return cfg, nil
}

func (s *Store) ListServices(ctx context.Context) ([]domain.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Service, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, svc)
	}
	sortServices(out)
	return out, nil
}

func (s *Store) GetService(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[id]
	if !ok {
		return domain.Service{}, store.ErrNotFound
	}
	return svc, nil
}

func (s *Store) UpsertService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if svc.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Service{}, err
		}
		svc.ID = id
	}
	if prev, ok := s.services[svc.ID]; ok {
		svc.CreatedAt = prev.CreatedAt
	} else if svc.CreatedAt.IsZero() {
		svc.CreatedAt = now
	}
	svc.UpdatedAt = now
	s.services[svc.ID] = svc
	return svc, nil
}

func (s *Store) DeleteService(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.services, id)
	return nil
}

func (s *Store) dayLocked(day domain.DayKey) []domain.Booking {
	out := make([]domain.Booking, 0)
	for _, b := range s.bookings {
		if b.Day == day {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartMinute < out[j].StartMinute
	})
	return out
}

// lockedTx is only valid while s.mu is held.
type lockedTx struct {
	s *Store
}

func (tx lockedTx) ListBookings(ctx context.Context, day domain.DayKey) ([]domain.Booking, error) {
	return tx.s.dayLocked(day), nil
}

func (tx lockedTx) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	b, ok := tx.s.bookings[id]
	if !ok {
		return domain.Booking{}, store.ErrNotFound
	}
	return b, nil
}

func (tx lockedTx) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	tx.s.bookings[b.ID] = b
	return b, nil
}

func sortServices(svcs []domain.Service) {
	sort.Slice(svcs, func(i, j int) bool {
		if svcs[i].Name != svcs[j].Name {
			return svcs[i].Name < svcs[j].Name
		}
		return svcs[i].ID.String() < svcs[j].ID.String()
	})
}
