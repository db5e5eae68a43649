package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"slotkeeper/internal/domain"
	"slotkeeper/internal/store"
)

const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"

	bookingsNoOverlap = "bookings_no_overlap"
)

type Repo struct {
	db *bun.DB
}

var _ store.Store = (*Repo)(nil)

func NewRepo(db *bun.DB) *Repo {
	return &Repo{db: db}
}

type dayTx struct {
	tx bun.Tx
}

func (r *Repo) FetchBookingsForDay(ctx context.Context, day domain.DayKey) ([]domain.Booking, error) {
	rows, err := listBookings(ctx, r.db, day)
	return rows, store.Wrap("fetch bookings", err)
}

func (r *Repo) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	b, err := getBooking(ctx, r.db, id)
	return b, store.Wrap("get booking", err)
}

func (r *Repo) InsertBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	var out domain.Booking
	err := r.InDayTransaction(ctx, b.Day, func(ctx context.Context, tx store.DayTx) error {
		created, err := store.InsertWithinDay(ctx, tx, b)
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return domain.Booking{}, store.Wrap("insert booking", err)
	}
	return out, nil
}

func (r *Repo) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.Booking)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return store.Wrap("delete booking", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return store.Wrap("delete booking", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repo) FetchConfig(ctx context.Context) (domain.ShopConfig, error) {
	var cfg domain.ShopConfig
	err := r.db.NewSelect().
		Model(&cfg).
		Where("id = ?", domain.ShopConfigID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultShopConfig(), nil
	}
	if err != nil {
		return domain.ShopConfig{}, store.Wrap("fetch config", err)
	}
	return cfg, nil
}

func (r *Repo) UpsertConfig(ctx context.Context, cfg domain.ShopConfig) (domain.ShopConfig, error) {
	m := cfg
	_, err := r.db.NewInsert().
		Model(&m).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("slot_granularity = EXCLUDED.slot_granularity").
		Set("active_weekdays = EXCLUDED.active_weekdays").
		Set("opening_minute = EXCLUDED.opening_minute").
		Set("closing_minute = EXCLUDED.closing_minute").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return domain.ShopConfig{}, store.Wrap("upsert config", err)
	}
	return m, nil
}

func (r *Repo) ListServices(ctx context.Context) ([]domain.Service, error) {
	var rows []domain.Service
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("name ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, store.Wrap("list services", err)
	}
	return rows, nil
}

func (r *Repo) GetService(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	var svc domain.Service
	err := r.db.NewSelect().
		Model(&svc).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Service{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Service{}, store.Wrap("get service", err)
	}
	return svc, nil
}

func (r *Repo) UpsertService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	m := svc
	m.UpdatedAt = time.Now().UTC()
	_, err := r.db.NewInsert().
		Model(&m).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("duration_minutes = EXCLUDED.duration_minutes").
		Set("price = EXCLUDED.price").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.Service{}, store.Wrap("upsert service", err)
	}
	return m, nil
}

func (r *Repo) DeleteService(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.Service)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return store.Wrap("delete service", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return store.Wrap("delete service", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// InDayTransaction runs fn in a transaction holding the advisory lock for
// day, so concurrent inserts for one day are serialized.
func (r *Repo) InDayTransaction(ctx context.Context, day domain.DayKey, fn func(ctx context.Context, tx store.DayTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockDay(ctx, tx, day); err != nil {
			return err
		}
		return fn(ctx, dayTx{tx: tx})
	})
}

func lockDay(ctx context.Context, tx bun.Tx, day domain.DayKey) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", "day:"+string(day)).Exec(ctx)
	return err
}

func listBookings(ctx context.Context, db bun.IDB, day domain.DayKey) ([]domain.Booking, error) {
	rows := []domain.Booking{}
	err := db.NewSelect().
		Model(&rows).
		Where("day = ?", day).
		OrderExpr("start_minute ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r dayTx) ListBookings(ctx context.Context, day domain.DayKey) ([]domain.Booking, error) {
	return listBookings(ctx, r.tx, day)
}

func (r dayTx) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	return getBooking(ctx, r.tx, id)
}

func getBooking(ctx context.Context, db bun.IDB, id uuid.UUID) (domain.Booking, error) {
	var b domain.Booking
	err := db.NewSelect().
		Model(&b).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

func (r dayTx) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	m := b
	if _, err := r.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Booking{}, mapInsertError(err)
	}
	return m, nil
}

// mapInsertError translates constraint violations that can only fire when a
// writer bypassed the day lock.
func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == pgExclusionViolation && pgErr.ConstraintName == bookingsNoOverlap:
		return store.ErrConflict
	case pgErr.Code == pgUniqueViolation:
		return store.ErrIdempotencyConflict
	}
	return err
}
