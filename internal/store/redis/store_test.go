package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotkeeper/internal/availability"
	"slotkeeper/internal/domain"
	"slotkeeper/internal/store"
)

const day = domain.DayKey("2026-01-05")

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, ""), mr
}

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

func TestStore_InsertFetchDelete(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	b1, err := s.InsertBooking(ctx, newBooking(600, 630))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, b1.ID)

	_, err = s.InsertBooking(ctx, newBooking(540, 600))
	require.NoError(t, err)

	_, err = s.InsertBooking(ctx, newBooking(615, 645))
	require.ErrorIs(t, err, store.ErrConflict)
	var cErr *availability.ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, b1.ID, cErr.BookingID)

	rows, err := s.FetchBookingsForDay(ctx, day)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 540, rows[0].StartMinute)
	assert.Equal(t, 600, rows[1].StartMinute)

	assert.True(t, mr.Exists("slotkeeper:booking_day:"+b1.ID.String()))

	got, err := s.GetBooking(ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, b1.ID, got.ID)
	assert.Equal(t, 630, got.EndMinute)

	require.NoError(t, s.DeleteBooking(ctx, b1.ID))
	_, err = s.GetBooking(ctx, b1.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, mr.Exists("slotkeeper:booking_day:"+b1.ID.String()))
	assert.Equal(t, store.ErrNotFound, s.DeleteBooking(ctx, b1.ID))

	rows, err = s.FetchBookingsForDay(ctx, day)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestStore_IdempotentReplay(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	b := newBooking(600, 630)
	b.ID = uuid.MustParse("00000000-0000-0000-0000-000000000901")

	first, err := s.InsertBooking(ctx, b)
	require.NoError(t, err)

	again, err := s.InsertBooking(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, first.CreatedAt.Equal(again.CreatedAt))

	b.CustomerName = "Someone Else"
	_, err = s.InsertBooking(ctx, b)
	assert.Equal(t, store.ErrIdempotencyConflict, err)

	rows, err := s.FetchBookingsForDay(ctx, day)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestStore_ConcurrentInsertsAdmitOne(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	const workers = 8
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

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
}

func TestStore_Config(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	cfg, err := s.FetchConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultShopConfig().ActiveWeekdays, cfg.ActiveWeekdays)

	cfg.Name = "Corner Shop"
	cfg.ActiveWeekdays = domain.NewWeekdaySet(time.Monday, time.Friday)
	_, err = s.UpsertConfig(ctx, cfg)
	require.NoError(t, err)

	got, err := s.FetchConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", got.Name)
	assert.Equal(t, cfg.ActiveWeekdays, got.ActiveWeekdays)
	assert.Equal(t, domain.ShopConfigID, got.ID)
}

func TestStore_Services(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	cut, err := s.UpsertService(ctx, domain.Service{Name: "Cut", DurationMinutes: 30, Price: decimal.RequireFromString("25.50")})
	require.NoError(t, err)

	cut.DurationMinutes = 45
	updated, err := s.UpsertService(ctx, cut)
	require.NoError(t, err)
	assert.True(t, updated.CreatedAt.Equal(cut.CreatedAt))

	got, err := s.GetService(ctx, cut.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, got.DurationMinutes)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("25.5")))

	list, err := s.ListServices(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteService(ctx, cut.ID))
	assert.Equal(t, store.ErrNotFound, s.DeleteService(ctx, cut.ID))
	_, err = s.GetService(ctx, cut.ID)
	assert.Equal(t, store.ErrNotFound, err)
}

func TestStore_ConnectionFailureIsStoreError(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.FetchBookingsForDay(context.Background(), day)
	var sErr *store.Error
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "fetch bookings", sErr.Op)
}
