package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"slotkeeper/internal/domain"
	"slotkeeper/internal/store"
)

const day = domain.DayKey("2026-01-05")

func newBooking(start, end int) domain.Booking {
	return domain.Booking{
		CustomerName:  "Ana",
		CustomerPhone: "+15550100",
		Day:           day,
		StartMinute:   start,
		EndMinute:     end,
		ServiceID:     uuid.MustParse("00000000-0000-0000-0000-000000000501"),
	}
}

func TestStore_BookingLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	b1, err := s.InsertBooking(ctx, newBooking(600, 630))
	if err != nil {
		t.Fatalf("InsertBooking error: %v", err)
	}
	if _, err := s.InsertBooking(ctx, newBooking(540, 570)); err != nil {
		t.Fatalf("InsertBooking error: %v", err)
	}
	if _, err := s.InsertBooking(ctx, newBooking(615, 645)); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("overlap err = %v, want %v", err, store.ErrConflict)
	}
	other := newBooking(600, 630)
	other.Day = "2026-01-06"
	if _, err := s.InsertBooking(ctx, other); err != nil {
		t.Fatalf("other day InsertBooking error: %v", err)
	}

	rows, err := s.FetchBookingsForDay(ctx, day)
	if err != nil {
		t.Fatalf("FetchBookingsForDay error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].StartMinute != 540 || rows[1].StartMinute != 600 {
		t.Fatalf("rows not ordered by start: %+v", rows)
	}

	got, err := s.GetBooking(ctx, b1.ID)
	if err != nil || got.ID != b1.ID || got.StartMinute != 600 {
		t.Fatalf("GetBooking = %+v, %v", got, err)
	}

	if err := s.DeleteBooking(ctx, b1.ID); err != nil {
		t.Fatalf("DeleteBooking error: %v", err)
	}
	if _, err := s.GetBooking(ctx, b1.ID); err != store.ErrNotFound {
		t.Fatalf("GetBooking after delete err = %v, want %v", err, store.ErrNotFound)
	}
	if err := s.DeleteBooking(ctx, b1.ID); err != store.ErrNotFound {
		t.Fatalf("second delete err = %v, want %v", err, store.ErrNotFound)
	}
	if _, err := s.InsertBooking(ctx, newBooking(615, 645)); err != nil {
		t.Fatalf("insert after cancel error: %v", err)
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.InsertBooking(ctx, newBooking(600, 630)); err != nil {
		t.Fatalf("InsertBooking error: %v", err)
	}

	rows, _ := s.FetchBookingsForDay(ctx, day)
	rows[0].StartMinute = 0

	again, _ := s.FetchBookingsForDay(ctx, day)
	if again[0].StartMinute != 600 {
		t.Fatalf("stored booking was mutated through a returned slice")
	}
}

func TestStore_ConcurrentInsertsAdmitOne(t *testing.T) {
	ctx := context.Background()
	s := New()

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.InsertBooking(ctx, newBooking(600, 630))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, store.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != workers-1 {
		t.Fatalf("successes=%d conflicts=%d, want 1 and %d", successes, conflicts, workers-1)
	}
}

func TestStore_Config(t *testing.T) {
	ctx := context.Background()
	s := New()

	cfg, err := s.FetchConfig(ctx)
	if err != nil {
		t.Fatalf("FetchConfig error: %v", err)
	}
	if cfg.SlotGranularity != domain.DefaultShopConfig().SlotGranularity {
		t.Fatalf("expected default config, got %+v", cfg)
	}

	cfg.SlotGranularity = 30
	if _, err := s.UpsertConfig(ctx, cfg); err != nil {
		t.Fatalf("UpsertConfig error: %v", err)
	}
	got, _ := s.FetchConfig(ctx)
	if got.SlotGranularity != 30 || got.UpdatedAt.IsZero() {
		t.Fatalf("unexpected config after upsert: %+v", got)
	}
}

func TestStore_Services(t *testing.T) {
	ctx := context.Background()
	s := New()

	cut, err := s.UpsertService(ctx, domain.Service{Name: "Cut", DurationMinutes: 30, Price: decimal.RequireFromString("25.00")})
	if err != nil {
		t.Fatalf("UpsertService error: %v", err)
	}
	if cut.ID == uuid.Nil {
		t.Fatalf("expected id to be assigned")
	}
	if _, err := s.UpsertService(ctx, domain.Service{Name: "Beard", DurationMinutes: 15}); err != nil {
		t.Fatalf("UpsertService error: %v", err)
	}

	cut.DurationMinutes = 45
	updated, err := s.UpsertService(ctx, cut)
	if err != nil {
		t.Fatalf("UpsertService update error: %v", err)
	}
	if !updated.CreatedAt.Equal(cut.CreatedAt) {
		t.Fatalf("created_at changed on update")
	}

	list, _ := s.ListServices(ctx)
	if len(list) != 2 || list[0].Name != "Beard" || list[1].DurationMinutes != 45 {
		t.Fatalf("unexpected services: %+v", list)
	}

	if err := s.DeleteService(ctx, cut.ID); err != nil {
		t.Fatalf("DeleteService error: %v", err)
	}
	if _, err := s.GetService(ctx, cut.ID); err != store.ErrNotFound {
		t.Fatalf("GetService err = %v, want %v", err, store.ErrNotFound)
	}
}
