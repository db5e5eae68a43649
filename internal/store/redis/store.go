// Package redis keeps bookings, the service catalog and the shop
// configuration in Redis. Each day is one hash; inserts run under WATCH on
// the day's key and are retried when another writer touched it.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"slotkeeper/internal/domain"
	"slotkeeper/internal/store"
)

const (
	DefaultPrefix = "slotkeeper:"

	maxTxAttempts = 16
)

var errTooMuchContention = errors.New("day was modified concurrently too many times")

type Store struct {
	rdb    *redis.Client
	prefix string
}

var _ store.Store = (*Store)(nil)

func NewStore(rdb *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) configKey() string {
	return s.prefix + "config"
}

func (s *Store) servicesKey() string {
	return s.prefix + "services"
}

func (s *Store) dayKey(day domain.DayKey) string {
	return s.prefix + "bookings:" + string(day)
}

// indexKey maps a booking id to the day it is filed under.
func (s *Store) indexKey(id uuid.UUID) string {
	return s.prefix + "booking_day:" + id.String()
}

func (s *Store) FetchBookingsForDay(ctx context.Context, day domain.DayKey) ([]domain.Booking, error) {
	rows, err := readDay(ctx, s.rdb, s.dayKey(day))
	return rows, store.Wrap("fetch bookings", err)
}

func (s *Store) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	b, err := s.getBooking(ctx, s.rdb, id)
	return b, store.Wrap("get booking", err)
}

func (s *Store) InsertBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	if b.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Booking{}, err
		}
		b.ID = id
	}

	var out domain.Booking
	txf := func(tx *redis.Tx) error {
		created, err := store.InsertWithinDay(ctx, dayTx{s: s, tx: tx}, b)
		if err != nil {
			return err
		}
		out = created
		return nil
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.rdb.Watch(ctx, txf, s.dayKey(b.Day), s.indexKey(b.ID))
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.Booking{}, store.Wrap("insert booking", err)
		}
		return out, nil
	}
	return domain.Booking{}, store.Wrap("insert booking", errTooMuchContention)
}

func (s *Store) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	idx := s.indexKey(id)
	txf := func(tx *redis.Tx) error {
		day, err := tx.Get(ctx, idx).Result()
		if errors.Is(err, redis.Nil) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, s.dayKey(domain.DayKey(day)), id.String())
			pipe.Del(ctx, idx)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.rdb.Watch(ctx, txf, idx)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return store.Wrap("delete booking", err)
	}
	return store.Wrap("delete booking", errTooMuchContention)
}

func (s *Store) FetchConfig(ctx context.Context) (domain.ShopConfig, error) {
	data, err := s.rdb.Get(ctx, s.configKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.DefaultShopConfig(), nil
	}
	if err != nil {
		return domain.ShopConfig{}, store.Wrap("fetch config", err)
	}

	var cfg domain.ShopConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.ShopConfig{}, store.Wrap("fetch config", fmt.Errorf("unmarshal config: %w", err))
	}
	cfg.ID = domain.ShopConfigID
	return cfg, nil
}

func (s *Store) UpsertConfig(ctx context.Context, cfg domain.ShopConfig) (domain.ShopConfig, error) {
	cfg.ID = domain.ShopConfigID
	cfg.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(cfg)
	if err != nil {
		return domain.ShopConfig{}, fmt.Errorf("marshal config: %w", err)
	}
	if err := s.rdb.Set(ctx, s.configKey(), data, 0).Err(); err != nil {
		return domain.ShopConfig{}, store.Wrap("upsert config", err)
	}
	return cfg, nil
}

func (s *Store) ListServices(ctx context.Context) ([]domain.Service, error) {
	vals, err := s.rdb.HVals(ctx, s.servicesKey()).Result()
	if err != nil {
		return nil, store.Wrap("list services", err)
	}
	out := make([]domain.Service, 0, len(vals))
	for _, v := range vals {
		var svc domain.Service
		if err := json.Unmarshal([]byte(v), &svc); err != nil {
			return nil, store.Wrap("list services", fmt.Errorf("unmarshal service: %w", err))
		}
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) GetService(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	data, err := s.rdb.HGet(ctx, s.servicesKey(), id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Service{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Service{}, store.Wrap("get service", err)
	}
	var svc domain.Service
	if err := json.Unmarshal(data, &svc); err != nil {
		return domain.Service{}, store.Wrap("get service", fmt.Errorf("unmarshal service: %w", err))
	}
	return svc, nil
}

func (s *Store) UpsertService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	now := time.Now().UTC()
	if svc.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Service{}, err
		}
		svc.ID = id
	} else {
		prev, err := s.GetService(ctx, svc.ID)
		switch {
		case err == nil:
			svc.CreatedAt = prev.CreatedAt
		case !errors.Is(err, store.ErrNotFound):
			return domain.Service{}, err
		}
	}
	if svc.CreatedAt.IsZero() {
		svc.CreatedAt = now
	}
	svc.UpdatedAt = now

	data, err := json.Marshal(svc)
	if err != nil {
		return domain.Service{}, fmt.Errorf("marshal service: %w", err)
	}
	if err := s.rdb.HSet(ctx, s.servicesKey(), svc.ID.String(), data).Err(); err != nil {
		return domain.Service{}, store.Wrap("upsert service", err)
	}
	return svc, nil
}

func (s *Store) DeleteService(ctx context.Context, id uuid.UUID) error {
	n, err := s.rdb.HDel(ctx, s.servicesKey(), id.String()).Result()
	if err != nil {
		return store.Wrap("delete service", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type hashReader interface {
	HVals(ctx context.Context, key string) *redis.StringSliceCmd
}

func readDay(ctx context.Context, c hashReader, key string) ([]domain.Booking, error) {
	vals, err := c.HVals(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0, len(vals))
	for _, v := range vals {
		var b domain.Booking
		if err := json.Unmarshal([]byte(v), &b); err != nil {
			return nil, fmt.Errorf("unmarshal booking: %w", err)
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartMinute < out[j].StartMinute
	})
	return out, nil
}

// dayTx reads through a watched connection and commits with MULTI/EXEC, so
// the commit fails with redis.TxFailedErr if the day changed since the read.
type dayTx struct {
	s  *Store
	tx *redis.Tx
}

func (d dayTx) ListBookings(ctx context.Context, day domain.DayKey) ([]domain.Booking, error) {
	return readDay(ctx, d.tx, d.s.dayKey(day))
}

func (d dayTx) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	return d.s.getBooking(ctx, d.tx, id)
}

type keyReader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

func (s *Store) getBooking(ctx context.Context, c keyReader, id uuid.UUID) (domain.Booking, error) {
	day, err := c.Get(ctx, s.indexKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Booking{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Booking{}, err
	}
	data, err := c.HGet(ctx, s.dayKey(domain.DayKey(day)), id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Booking{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Booking{}, err
	}
	var b domain.Booking
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.Booking{}, fmt.Errorf("unmarshal booking: %w", err)
	}
	return b, nil
}

func (d dayTx) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("marshal booking: %w", err)
	}
	_, err = d.tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, d.s.dayKey(b.Day), b.ID.String(), data)
		pipe.Set(ctx, d.s.indexKey(b.ID), string(b.Day), 0)
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}
