package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"slotkeeper/internal/availability"
	"slotkeeper/internal/domain"
	"slotkeeper/internal/store"
	"slotkeeper/internal/store/memory"
)

// monday is 2026-01-05; the fixed clock sits on the Sunday before it.
const monday = "2026-01-05"

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}

type countingRecorder map[string]int

func (r countingRecorder) ObserveBooking(outcome string) {
	r[outcome]++
}

func newTestService(t *testing.T, opts ...Option) (*Service, *memory.Store, domain.Service) {
	t.Helper()
	st := memory.New()
	svc, err := st.UpsertService(context.Background(), domain.Service{Name: "Cut", DurationMinutes: 30})
	if err != nil {
		t.Fatalf("UpsertService error: %v", err)
	}
	opts = append([]Option{fixedClock(time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC))}, opts...)
	return NewService(st, time.UTC, opts...), st, svc
}

func validInput(serviceID uuid.UUID, start int) BookInput {
	return BookInput{
		ServiceID:     serviceID,
		Day:           monday,
		StartMinute:   start,
		CustomerName:  "Ana",
		CustomerPhone: "+15550100",
	}
}

func TestServiceBook_ValidationErrorType(t *testing.T) {
	s, _, svc := newTestService(t)

	tests := []struct {
		name   string
		mutate func(*BookInput)
		want   string
	}{
		{name: "blank name", mutate: func(in *BookInput) { in.CustomerName = "   " }, want: "customer_name is required"},
		{name: "blank phone", mutate: func(in *BookInput) { in.CustomerPhone = "" }, want: "customer_phone is required"},
		{name: "missing service", mutate: func(in *BookInput) { in.ServiceID = uuid.Nil }, want: "service_id is required"},
		{name: "bad day", mutate: func(in *BookInput) { in.Day = "05/01/2026" }, want: "day must be YYYY-MM-DD"},
		{name: "start out of day", mutate: func(in *BookInput) { in.StartMinute = 1440 }, want: "start must be within the day"},
		{name: "past day", mutate: func(in *BookInput) { in.Day = "2026-01-03" }, want: "start is in the past"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput(svc.ID, 600)
			tt.mutate(&in)
			_, err := s.Book(context.Background(), in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error type = %T (%v), want *ValidationError", err, err)
			}
			if vErr.Error() != tt.want {
				t.Fatalf("error = %q, want %q", vErr.Error(), tt.want)
			}
		})
	}
}

func TestServiceBook_StoresEndAndTrimsInput(t *testing.T) {
	s, st, svc := newTestService(t)

	in := validInput(svc.ID, 600)
	in.CustomerName = "  Ana  "
	in.Notes = " fade "
	b, err := s.Book(context.Background(), in)
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if b.CustomerName != "Ana" || b.Notes != "fade" {
		t.Fatalf("input not trimmed: %+v", b)
	}
	if b.EndMinute != 630 {
		t.Fatalf("end = %d, want 630", b.EndMinute)
	}

	// A later catalog change does not move the stored end.
	svc.DurationMinutes = 60
	if _, err := st.UpsertService(context.Background(), svc); err != nil {
		t.Fatalf("UpsertService error: %v", err)
	}
	rows, _ := st.FetchBookingsForDay(context.Background(), monday)
	if len(rows) != 1 || rows[0].EndMinute != 630 {
		t.Fatalf("stored bookings = %+v", rows)
	}
}

func TestServiceBook_ConflictAndRecovery(t *testing.T) {
	rec := countingRecorder{}
	s, _, svc := newTestService(t, WithBookingRecorder(rec))
	ctx := context.Background()

	if _, err := s.Book(ctx, validInput(svc.ID, 600)); err != nil {
		t.Fatalf("Book error: %v", err)
	}

	_, err := s.Book(ctx, validInput(svc.ID, 615))
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v, want %v", err, store.ErrConflict)
	}
	var cErr *availability.ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected *availability.ConflictError, got %v", err)
	}

	avail, err := s.Availability(ctx, svc.ID, monday)
	if err != nil {
		t.Fatalf("Availability error: %v", err)
	}
	for _, slot := range avail.Slots {
		if slot > 570 && slot < 630 {
			t.Fatalf("slot %d overlaps the booking at 600", slot)
		}
	}
	if _, err := s.Book(ctx, validInput(svc.ID, 630)); err != nil {
		t.Fatalf("touching Book error: %v", err)
	}

	_, err = s.Book(ctx, validInput(svc.ID, 607))
	if !errors.Is(err, availability.ErrOffGrid) {
		t.Fatalf("err = %v, want %v", err, availability.ErrOffGrid)
	}

	if rec[OutcomeCreated] != 2 || rec[OutcomeConflict] != 1 || rec[OutcomeRejected] != 1 {
		t.Fatalf("recorded outcomes = %v", rec)
	}
}

func TestServiceBook_RejectionsFromEngine(t *testing.T) {
	s, _, svc := newTestService(t)
	ctx := context.Background()

	sunday := validInput(svc.ID, 600)
	sunday.Day = "2026-01-11"
	if _, err := s.Book(ctx, sunday); !errors.Is(err, availability.ErrDayClosed) {
		t.Fatalf("sunday err = %v, want %v", err, availability.ErrDayClosed)
	}
	if _, err := s.Book(ctx, validInput(svc.ID, 1125)); !errors.Is(err, availability.ErrOutsideHours) {
		t.Fatalf("late err = %v, want %v", err, availability.ErrOutsideHours)
	}

	unknown := validInput(uuid.MustParse("00000000-0000-0000-0000-00000000dead"), 600)
	if _, err := s.Book(ctx, unknown); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown service err = %v, want %v", err, store.ErrNotFound)
	}
}

func TestServiceBook_IdempotencyKeyDeterministicUUID(t *testing.T) {
	s, _, svc := newTestService(t)
	ctx := context.Background()

	in := validInput(svc.ID, 600)
	in.IdempotencyKey = "req-1"

	first, err := s.Book(ctx, in)
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	want := uuid.NewSHA1(uuid.NameSpaceOID, []byte("slotkeeper:create_booking:req-1"))
	if first.ID != want {
		t.Fatalf("id = %s, want %s", first.ID, want)
	}

	again, err := s.Book(ctx, in)
	if err != nil {
		t.Fatalf("replay error: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("replay id = %s, want %s", again.ID, first.ID)
	}

	in.Notes = "changed"
	if _, err := s.Book(ctx, in); err != store.ErrIdempotencyConflict {
		t.Fatalf("changed replay err = %v, want %v", err, store.ErrIdempotencyConflict)
	}

	rows, _ := s.DayBookings(ctx, true, monday)
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
}

func TestServiceBook_ReplayReturnsStoredBookingAfterChanges(t *testing.T) {
	now := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)
	s, _, svc := newTestService(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	in := validInput(svc.ID, 600)
	in.IdempotencyKey = "req-late"
	first, err := s.Book(ctx, in)
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	if _, err := s.SaveService(ctx, true, SaveServiceInput{ID: svc.ID, Name: svc.Name, DurationMinutes: 45}); err != nil {
		t.Fatalf("SaveService error: %v", err)
	}
	now = time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC)

	again, err := s.Book(ctx, in)
	if err != nil {
		t.Fatalf("replay error: %v", err)
	}
	if again.ID != first.ID || again.EndMinute != 630 {
		t.Fatalf("replay = %+v, want stored %+v", again, first)
	}

	in.Notes = "changed"
	if _, err := s.Book(ctx, in); err != store.ErrIdempotencyConflict {
		t.Fatalf("changed replay err = %v, want %v", err, store.ErrIdempotencyConflict)
	}

	fresh := validInput(svc.ID, 600)
	fresh.IdempotencyKey = "req-new"
	var vErr *ValidationError
	if _, err := s.Book(ctx, fresh); !errors.As(err, &vErr) {
		t.Fatalf("new key for a past start err = %v, want *ValidationError", err)
	}
}

func TestServiceAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("open day", func(t *testing.T) {
		s, _, svc := newTestService(t)
		avail, err := s.Availability(ctx, svc.ID, monday)
		if err != nil {
			t.Fatalf("Availability error: %v", err)
		}
		if !avail.Open || len(avail.Slots) != 39 || avail.Service.ID != svc.ID {
			t.Fatalf("unexpected availability: open=%v slots=%d", avail.Open, len(avail.Slots))
		}
	})

	t.Run("closed day", func(t *testing.T) {
		s, _, svc := newTestService(t)
		avail, err := s.Availability(ctx, svc.ID, "2026-01-11")
		if err != nil {
			t.Fatalf("Availability error: %v", err)
		}
		if avail.Open || len(avail.Slots) != 0 {
			t.Fatalf("expected closed day, got %+v", avail)
		}
	})

	t.Run("drops elapsed slots today", func(t *testing.T) {
		s, _, svc := newTestService(t, fixedClock(time.Date(2026, 1, 5, 12, 7, 0, 0, time.UTC)))
		avail, err := s.Availability(ctx, svc.ID, monday)
		if err != nil {
			t.Fatalf("Availability error: %v", err)
		}
		if len(avail.Slots) == 0 || avail.Slots[0] != 735 {
			t.Fatalf("first slot = %v, want 735", avail.Slots)
		}
	})

	t.Run("past day has no slots", func(t *testing.T) {
		s, _, svc := newTestService(t, fixedClock(time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)))
		avail, err := s.Availability(ctx, svc.ID, monday)
		if err != nil {
			t.Fatalf("Availability error: %v", err)
		}
		if len(avail.Slots) != 0 {
			t.Fatalf("expected no slots, got %v", avail.Slots)
		}
	})

	t.Run("configuration errors propagate", func(t *testing.T) {
		s, st, svc := newTestService(t)
		cfg := domain.DefaultShopConfig()
		cfg.SlotGranularity = 0
		if _, err := st.UpsertConfig(ctx, cfg); err != nil {
			t.Fatalf("UpsertConfig error: %v", err)
		}
		_, err := s.Availability(ctx, svc.ID, monday)
		var cfgErr *availability.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("err = %v, want *availability.ConfigurationError", err)
		}
	})
}

func TestServiceAdminOperationsRequireAuthorization(t *testing.T) {
	s, _, svc := newTestService(t)
	ctx := context.Background()

	if err := s.Cancel(ctx, false, uuid.New()); err != ErrUnauthorized {
		t.Fatalf("Cancel err = %v, want %v", err, ErrUnauthorized)
	}
	if _, err := s.DayBookings(ctx, false, monday); err != ErrUnauthorized {
		t.Fatalf("DayBookings err = %v, want %v", err, ErrUnauthorized)
	}
	if _, err := s.UpdateShopConfig(ctx, false, domain.DefaultShopConfig()); err != ErrUnauthorized {
		t.Fatalf("UpdateShopConfig err = %v, want %v", err, ErrUnauthorized)
	}
	if _, err := s.SaveService(ctx, false, SaveServiceInput{Name: "x", DurationMinutes: 10}); err != ErrUnauthorized {
		t.Fatalf("SaveService err = %v, want %v", err, ErrUnauthorized)
	}
	if err := s.RemoveService(ctx, false, svc.ID); err != ErrUnauthorized {
		t.Fatalf("RemoveService err = %v, want %v", err, ErrUnauthorized)
	}
}

func TestServiceCancelFreesTheSlot(t *testing.T) {
	s, _, svc := newTestService(t)
	ctx := context.Background()

	b, err := s.Book(ctx, validInput(svc.ID, 600))
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if err := s.Cancel(ctx, true, b.ID); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if err := s.Cancel(ctx, true, b.ID); err != store.ErrNotFound {
		t.Fatalf("second Cancel err = %v, want %v", err, store.ErrNotFound)
	}
	rows, err := s.DayBookings(ctx, true, monday)
	if err != nil || len(rows) != 0 {
		t.Fatalf("DayBookings = %v, %v", rows, err)
	}
	if _, err := s.Book(ctx, validInput(svc.ID, 600)); err != nil {
		t.Fatalf("rebook error: %v", err)
	}
}

func TestServiceUpdateShopConfig(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	bad := domain.DefaultShopConfig()
	bad.OpeningMinute, bad.ClosingMinute = 1200, 1140
	_, err := s.UpdateShopConfig(ctx, true, bad)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}

	huge := domain.DefaultShopConfig()
	huge.SlotGranularity = domain.MinutesPerDay * 1000
	if _, err := s.UpdateShopConfig(ctx, true, huge); !errors.As(err, &vErr) {
		t.Fatalf("huge granularity err = %v, want *ValidationError", err)
	}

	good := domain.DefaultShopConfig()
	good.Name = "  Corner Shop "
	good.SlotGranularity = 30
	saved, err := s.UpdateShopConfig(ctx, true, good)
	if err != nil {
		t.Fatalf("UpdateShopConfig error: %v", err)
	}
	if saved.Name != "Corner Shop" {
		t.Fatalf("name = %q, want trimmed", saved.Name)
	}
	got, _ := s.ShopConfig(ctx)
	if got.SlotGranularity != 30 {
		t.Fatalf("granularity = %d, want 30", got.SlotGranularity)
	}
}

func TestServiceSaveService(t *testing.T) {
	s, _, svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   SaveServiceInput
	}{
		{name: "blank name", in: SaveServiceInput{Name: " ", DurationMinutes: 30}},
		{name: "zero duration", in: SaveServiceInput{Name: "x", DurationMinutes: 0}},
		{name: "full day", in: SaveServiceInput{Name: "x", DurationMinutes: 1440}},
		{name: "negative price", in: SaveServiceInput{Name: "x", DurationMinutes: 30, Price: "-5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SaveService(ctx, true, tt.in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
		})
	}

	updated, err := s.SaveService(ctx, true, SaveServiceInput{ID: svc.ID, Name: "Long cut", DurationMinutes: 45, Price: "30.00"})
	if err != nil {
		t.Fatalf("SaveService error: %v", err)
	}
	if updated.ID != svc.ID || updated.DurationMinutes != 45 || updated.Price.String() != "30" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	if _, err := s.SaveService(ctx, true, SaveServiceInput{ID: uuid.New(), Name: "ghost", DurationMinutes: 10}); err != store.ErrNotFound {
		t.Fatalf("unknown id err = %v, want %v", err, store.ErrNotFound)
	}

	list, err := s.Services(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("Services = %v, %v", list, err)
	}
	if err := s.RemoveService(ctx, true, svc.ID); err != nil {
		t.Fatalf("RemoveService error: %v", err)
	}
}
