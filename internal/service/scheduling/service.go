// Package scheduling is the application layer between the transports and the
// availability engine. It validates caller input, reads fresh state from the
// store, runs the engine and writes through the store.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"slotkeeper/internal/availability"
	"slotkeeper/internal/domain"
	"slotkeeper/internal/store"
)

const (
	maxNameLen           = 120
	maxPhoneLen          = 32
	maxNotesLen          = 1000
	maxIdempotencyKeyLen = 256
)

// ErrUnauthorized is returned by privileged operations when the caller did
// not pass the access gate.
var ErrUnauthorized = errors.New("unauthorized")

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Booking outcomes reported to a BookingRecorder.
const (
	OutcomeCreated  = "created"
	OutcomeConflict = "conflict"
	OutcomeRejected = "rejected"
)

type BookingRecorder interface {
	ObserveBooking(outcome string)
}

type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithBookingRecorder(r BookingRecorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

type Service struct {
	store    store.Store
	loc      *time.Location
	now      func() time.Time
	recorder BookingRecorder
}

// NewService builds a Service whose day keys are taken in loc. A nil loc
// means UTC.
func NewService(st store.Store, loc *time.Location, opts ...Option) *Service {
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{store: st, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the shop's reference time zone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today is the current day key in the shop's time zone.
func (s *Service) Today() domain.DayKey {
	return domain.DayKeyOf(s.now(), s.loc)
}

// Availability is the answer to "when can I book svc on day". Open is false
// when the shop does not trade on that weekday, which is different from a
// day with no free slots.
type Availability struct {
	Day     domain.DayKey
	Service domain.Service
	Open    bool
	Slots   []int
}

func (s *Service) Availability(ctx context.Context, serviceID uuid.UUID, day domain.DayKey) (Availability, error) {
	if serviceID == uuid.Nil {
		return Availability{}, validationError("service_id is required")
	}
	if !day.Valid() {
		return Availability{}, validationError("day must be YYYY-MM-DD")
	}

	cfg, err := s.store.FetchConfig(ctx)
	if err != nil {
		return Availability{}, err
	}
	svc, err := s.store.GetService(ctx, serviceID)
	if err != nil {
		return Availability{}, err
	}
	bookings, err := s.store.FetchBookingsForDay(ctx, day)
	if err != nil {
		return Availability{}, err
	}

	slots, err := availability.ComputeAvailableSlots(cfg, svc, day, bookings)
	if err != nil {
		return Availability{}, err
	}
	weekday, err := day.Weekday()
	if err != nil {
		return Availability{}, err
	}

	return Availability{
		Day:     day,
		Service: svc,
		Open:    cfg.ActiveWeekdays.Contains(weekday),
		Slots:   s.dropPast(day, slots),
	}, nil
}

// dropPast removes starts that have already gone by in the shop's time zone.
func (s *Service) dropPast(day domain.DayKey, slots []int) []int {
	now := s.now().In(s.loc)
	today := domain.DayKeyOf(now, s.loc)
	switch {
	case day.Before(today):
		return []int{}
	case day != today:
		return slots
	}
	cutoff := now.Hour()*60 + now.Minute()
	out := make([]int, 0, len(slots))
	for _, start := range slots {
		if start > cutoff {
			out = append(out, start)
		}
	}
	return out
}

type BookInput struct {
	ServiceID      uuid.UUID
	Day            string
	StartMinute    int
	CustomerName   string
	CustomerPhone  string
	Notes          string
	IdempotencyKey string
}

// Book re-validates the chosen start against fresh state and inserts the
// booking. The store repeats the overlap check atomically, so a booking that
// slipped in after the read still yields a conflict.
func (s *Service) Book(ctx context.Context, in BookInput) (domain.Booking, error) {
	b, err := s.book(ctx, in)
	switch {
	case err == nil:
		s.observe(OutcomeCreated)
	case errors.Is(err, store.ErrConflict):
		s.observe(OutcomeConflict)
	case isRejection(err):
		s.observe(OutcomeRejected)
	}
	return b, err
}

func (s *Service) book(ctx context.Context, in BookInput) (domain.Booking, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return domain.Booking{}, validationError("customer_name is required")
	}
	if len(name) > maxNameLen {
		return domain.Booking{}, validationError("customer_name too long")
	}
	phone := strings.TrimSpace(in.CustomerPhone)
	if phone == "" {
		return domain.Booking{}, validationError("customer_phone is required")
	}
	if len(phone) > maxPhoneLen {
		return domain.Booking{}, validationError("customer_phone too long")
	}
	notes := strings.TrimSpace(in.Notes)
	if len(notes) > maxNotesLen {
		return domain.Booking{}, validationError("notes too long")
	}
	if in.ServiceID == uuid.Nil {
		return domain.Booking{}, validationError("service_id is required")
	}
	day, err := domain.ParseDayKey(in.Day)
	if err != nil {
		return domain.Booking{}, validationError("day must be YYYY-MM-DD")
	}
	if in.StartMinute < 0 || in.StartMinute >= domain.MinutesPerDay {
		return domain.Booking{}, validationError("start must be within the day")
	}
	var id uuid.UUID
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		if len(key) > maxIdempotencyKeyLen {
			return domain.Booking{}, validationError("idempotency_key too long")
		}
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte("slotkeeper:create_booking:"+key))

		// A replay answers with what was stored, even if the catalog or the
		// clock has moved on since.
		prior, err := s.store.GetBooking(ctx, id)
		switch {
		case err == nil:
			submitted := domain.Booking{
				Day:           day,
				StartMinute:   in.StartMinute,
				ServiceID:     in.ServiceID,
				CustomerName:  name,
				CustomerPhone: phone,
				Notes:         notes,
			}
			if !prior.SameSubmission(submitted) {
				return domain.Booking{}, store.ErrIdempotencyConflict
			}
			return prior, nil
		case !errors.Is(err, store.ErrNotFound):
			return domain.Booking{}, err
		}
	}
	if s.inPast(day, in.StartMinute) {
		return domain.Booking{}, validationError("start is in the past")
	}

	cfg, err := s.store.FetchConfig(ctx)
	if err != nil {
		return domain.Booking{}, err
	}
	svc, err := s.store.GetService(ctx, in.ServiceID)
	if err != nil {
		return domain.Booking{}, err
	}
	existing, err := s.store.FetchBookingsForDay(ctx, day)
	if err != nil {
		return domain.Booking{}, err
	}

	// A replayed request must not conflict with its own earlier insert; the
	// store decides whether the replay matches.
	interval, err := availability.ValidateProposedBooking(cfg, svc, day, in.StartMinute, withoutID(existing, id))
	if err != nil {
		var cErr *availability.ConflictError
		if errors.As(err, &cErr) {
			return domain.Booking{}, fmt.Errorf("%w: %w", store.ErrConflict, err)
		}
		return domain.Booking{}, err
	}

	b := domain.Booking{
		ID:            id,
		CustomerName:  name,
		CustomerPhone: phone,
		Day:           day,
		StartMinute:   interval.Start,
		EndMinute:     interval.End,
		ServiceID:     svc.ID,
		Notes:         notes,
	}

	return s.store.InsertBooking(ctx, b)
}

func withoutID(bookings []domain.Booking, id uuid.UUID) []domain.Booking {
	if id == uuid.Nil {
		return bookings
	}
	out := make([]domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

func (s *Service) inPast(day domain.DayKey, start int) bool {
	now := s.now().In(s.loc)
	today := domain.DayKeyOf(now, s.loc)
	if day.Before(today) {
		return true
	}
	return day == today && start <= now.Hour()*60+now.Minute()
}

func (s *Service) observe(outcome string) {
	if s.recorder != nil {
		s.recorder.ObserveBooking(outcome)
	}
}

func isRejection(err error) bool {
	var vErr *ValidationError
	var cfgErr *availability.ConfigurationError
	return errors.As(err, &vErr) ||
		errors.As(err, &cfgErr) ||
		errors.Is(err, availability.ErrDayClosed) ||
		errors.Is(err, availability.ErrOutsideHours) ||
		errors.Is(err, availability.ErrOffGrid) ||
		errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrIdempotencyConflict)
}

// Cancel deletes a booking. Freed time shows up in the next availability
// query.
func (s *Service) Cancel(ctx context.Context, authorized bool, id uuid.UUID) error {
	if !authorized {
		return ErrUnauthorized
	}
	if id == uuid.Nil {
		return validationError("booking_id is required")
	}
	return s.store.DeleteBooking(ctx, id)
}

func (s *Service) DayBookings(ctx context.Context, authorized bool, day domain.DayKey) ([]domain.Booking, error) {
	if !authorized {
		return nil, ErrUnauthorized
	}
	if !day.Valid() {
		return nil, validationError("day must be YYYY-MM-DD")
	}
	return s.store.FetchBookingsForDay(ctx, day)
}

func (s *Service) ShopConfig(ctx context.Context) (domain.ShopConfig, error) {
	return s.store.FetchConfig(ctx)
}

// UpdateShopConfig replaces the shop configuration. Existing bookings are
// left alone even if they fall outside the new hours.
func (s *Service) UpdateShopConfig(ctx context.Context, authorized bool, cfg domain.ShopConfig) (domain.ShopConfig, error) {
	if !authorized {
		return domain.ShopConfig{}, ErrUnauthorized
	}
	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.Name == "" {
		return domain.ShopConfig{}, validationError("name is required")
	}
	if len(cfg.Name) > maxNameLen {
		return domain.ShopConfig{}, validationError("name too long")
	}
	if cfg.ActiveWeekdays > domain.AllWeekdays {
		return domain.ShopConfig{}, validationError("active_weekdays has unknown days")
	}
	if err := availability.CheckConfig(cfg); err != nil {
		return domain.ShopConfig{}, validationError(err.Error())
	}
	return s.store.UpsertConfig(ctx, cfg)
}

func (s *Service) Services(ctx context.Context) ([]domain.Service, error) {
	return s.store.ListServices(ctx)
}

type SaveServiceInput struct {
	ID              uuid.UUID
	Name            string
	DurationMinutes int
	Price           string
}

// SaveService creates a catalog entry when in.ID is nil and updates it
// otherwise. Changing a duration never touches stored bookings.
func (s *Service) SaveService(ctx context.Context, authorized bool, in SaveServiceInput) (domain.Service, error) {
	if !authorized {
		return domain.Service{}, ErrUnauthorized
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Service{}, validationError("name is required")
	}
	if len(name) > maxNameLen {
		return domain.Service{}, validationError("name too long")
	}
	if in.DurationMinutes <= 0 || in.DurationMinutes >= domain.MinutesPerDay {
		return domain.Service{}, validationError("duration_minutes must be between 1 and 1439")
	}
	price, err := domain.ParsePrice(in.Price)
	if err != nil {
		return domain.Service{}, validationError(err.Error())
	}

	svc := domain.Service{ID: in.ID, Name: name, DurationMinutes: in.DurationMinutes, Price: price}
	if in.ID != uuid.Nil {
		prev, err := s.store.GetService(ctx, in.ID)
		if err != nil {
			return domain.Service{}, err
		}
		svc.CreatedAt = prev.CreatedAt
	}
	return s.store.UpsertService(ctx, svc)
}

func (s *Service) RemoveService(ctx context.Context, authorized bool, id uuid.UUID) error {
	if !authorized {
		return ErrUnauthorized
	}
	if id == uuid.Nil {
		return validationError("service_id is required")
	}
	return s.store.DeleteService(ctx, id)
}
