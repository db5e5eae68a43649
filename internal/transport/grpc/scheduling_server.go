package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"slotkeeper/internal/availability"
	"slotkeeper/internal/domain"
	"slotkeeper/internal/service/scheduling"
	"slotkeeper/internal/store"
)

// AdminPINHeader carries the PIN for cancellation and admin RPCs.
const AdminPINHeader = "x-admin-pin"

type SchedulingServer struct {
	svc  schedulingService
	gate pinAuthorizer
	log  *slog.Logger
}

var _ SchedulingServiceServer = (*SchedulingServer)(nil)

type schedulingService interface {
	Availability(ctx context.Context, serviceID uuid.UUID, day domain.DayKey) (scheduling.Availability, error)
	Book(ctx context.Context, in scheduling.BookInput) (domain.Booking, error)
	Cancel(ctx context.Context, authorized bool, id uuid.UUID) error
	DayBookings(ctx context.Context, authorized bool, day domain.DayKey) ([]domain.Booking, error)
	Services(ctx context.Context) ([]domain.Service, error)
	SaveService(ctx context.Context, authorized bool, in scheduling.SaveServiceInput) (domain.Service, error)
	RemoveService(ctx context.Context, authorized bool, id uuid.UUID) error
	ShopConfig(ctx context.Context) (domain.ShopConfig, error)
	UpdateShopConfig(ctx context.Context, authorized bool, cfg domain.ShopConfig) (domain.ShopConfig, error)
}

type pinAuthorizer interface {
	Authorized(pin string) bool
}

func NewSchedulingServer(svc schedulingService, gate pinAuthorizer, log *slog.Logger) *SchedulingServer {
	if log == nil {
		log = slog.Default()
	}
	return &SchedulingServer{
		svc:  svc,
		gate: gate,
		log:  log.With(slog.String("component", "grpc.scheduling")),
	}
}

func (s *SchedulingServer) GetAvailability(ctx context.Context, req *GetAvailabilityRequest) (*GetAvailabilityResponse, error) {
	log := s.log.With(slog.String("rpc", MethodGetAvailability))

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, status.Error(codes.InvalidArgument, "service_id must be a UUID")
	}
	day, err := domain.ParseDayKey(req.Day)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_day"), slog.String("day", req.Day))
		return nil, status.Error(codes.InvalidArgument, "day must be YYYY-MM-DD")
	}

	avail, err := s.svc.Availability(ctx, serviceID, day)
	if err != nil {
		return nil, s.toStatus(log, "availability failed", err, slog.String("day", day.String()))
	}

	slots := make([]string, 0, len(avail.Slots))
	for _, start := range avail.Slots {
		slots = append(slots, boundary(start))
	}

	log.Debug(
		"availability computed",
		slog.String("day", day.String()),
		slog.String("service_id", serviceID.String()),
		slog.Bool("open", avail.Open),
		slog.Int("count", len(slots)),
	)

	return &GetAvailabilityResponse{
		Day:       day.String(),
		ServiceID: serviceID.String(),
		Open:      avail.Open,
		Slots:     slots,
	}, nil
}

func (s *SchedulingServer) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*CreateBookingResponse, error) {
	log := s.log.With(slog.String("rpc", MethodCreateBooking))

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, status.Error(codes.InvalidArgument, "service_id must be a UUID")
	}
	start, err := domain.ClockToMinutes(req.Start)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_start"), slog.String("start", req.Start))
		return nil, status.Error(codes.InvalidArgument, "start must be HH:MM")
	}

	b, err := s.svc.Book(ctx, scheduling.BookInput{
		ServiceID:      serviceID,
		Day:            req.Day,
		StartMinute:    start,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		Notes:          req.Notes,
		IdempotencyKey: idempotencyKey(ctx),
	})
	if err != nil {
		return nil, s.toStatus(log, "booking create failed", err,
			slog.String("day", req.Day),
			slog.String("start", req.Start),
			slog.String("service_id", serviceID.String()),
		)
	}

	log.Info(
		"booking created",
		slog.String("booking_id", b.ID.String()),
		slog.String("day", b.Day.String()),
		slog.Int("start_minute", b.StartMinute),
		slog.Int("end_minute", b.EndMinute),
	)

	return &CreateBookingResponse{Booking: toBookingMessage(b)}, nil
}

func (s *SchedulingServer) CancelBooking(ctx context.Context, req *CancelBookingRequest) (*CancelBookingResponse, error) {
	log := s.log.With(slog.String("rpc", MethodCancelBooking))

	id, err := uuid.Parse(req.BookingID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, status.Error(codes.InvalidArgument, "booking_id must be a UUID")
	}

	if err := s.svc.Cancel(ctx, s.authorized(ctx), id); err != nil {
		return nil, s.toStatus(log, "booking cancel failed", err, slog.String("booking_id", id.String()))
	}

	log.Info("booking cancelled", slog.String("booking_id", id.String()))
	return &CancelBookingResponse{}, nil
}

func (s *SchedulingServer) ListBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error) {
	log := s.log.With(slog.String("rpc", MethodListBookings))

	day, err := domain.ParseDayKey(req.Day)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_day"), slog.String("day", req.Day))
		return nil, status.Error(codes.InvalidArgument, "day must be YYYY-MM-DD")
	}

	rows, err := s.svc.DayBookings(ctx, s.authorized(ctx), day)
	if err != nil {
		return nil, s.toStatus(log, "bookings list failed", err, slog.String("day", day.String()))
	}

	out := make([]Booking, 0, len(rows))
	for _, b := range rows {
		out = append(out, toBookingMessage(b))
	}

	log.Debug("bookings listed", slog.String("day", day.String()), slog.Int("count", len(out)))
	return &ListBookingsResponse{Bookings: out}, nil
}

func (s *SchedulingServer) ListServices(ctx context.Context, req *ListServicesRequest) (*ListServicesResponse, error) {
	log := s.log.With(slog.String("rpc", MethodListServices))

	svcs, err := s.svc.Services(ctx)
	if err != nil {
		return nil, s.toStatus(log, "services list failed", err)
	}

	out := make([]Service, 0, len(svcs))
	for _, svc := range svcs {
		out = append(out, toServiceMessage(svc))
	}
	return &ListServicesResponse{Services: out}, nil
}

func (s *SchedulingServer) SaveService(ctx context.Context, req *SaveServiceRequest) (*SaveServiceResponse, error) {
	log := s.log.With(slog.String("rpc", MethodSaveService))

	var id uuid.UUID
	if raw := strings.TrimSpace(req.Service.ID); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
			return nil, status.Error(codes.InvalidArgument, "service id must be a UUID")
		}
		id = parsed
	}

	svc, err := s.svc.SaveService(ctx, s.authorized(ctx), scheduling.SaveServiceInput{
		ID:              id,
		Name:            req.Service.Name,
		DurationMinutes: req.Service.DurationMinutes,
		Price:           req.Service.Price,
	})
	if err != nil {
		return nil, s.toStatus(log, "service save failed", err)
	}

	log.Info("service saved", slog.String("service_id", svc.ID.String()), slog.Int("duration_minutes", svc.DurationMinutes))
	return &SaveServiceResponse{Service: toServiceMessage(svc)}, nil
}

func (s *SchedulingServer) DeleteService(ctx context.Context, req *DeleteServiceRequest) (*DeleteServiceResponse, error) {
	log := s.log.With(slog.String("rpc", MethodDeleteService))

	id, err := uuid.Parse(req.ServiceID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, status.Error(codes.InvalidArgument, "service_id must be a UUID")
	}

	if err := s.svc.RemoveService(ctx, s.authorized(ctx), id); err != nil {
		return nil, s.toStatus(log, "service delete failed", err, slog.String("service_id", id.String()))
	}

	log.Info("service deleted", slog.String("service_id", id.String()))
	return &DeleteServiceResponse{}, nil
}

func (s *SchedulingServer) GetShopConfig(ctx context.Context, req *GetShopConfigRequest) (*GetShopConfigResponse, error) {
	log := s.log.With(slog.String("rpc", MethodGetShopConfig))

	cfg, err := s.svc.ShopConfig(ctx)
	if err != nil {
		return nil, s.toStatus(log, "config read failed", err)
	}
	return &GetShopConfigResponse{Config: toShopConfigMessage(cfg)}, nil
}

func (s *SchedulingServer) UpdateShopConfig(ctx context.Context, req *UpdateShopConfigRequest) (*UpdateShopConfigResponse, error) {
	log := s.log.With(slog.String("rpc", MethodUpdateShopConfig))

	cfg, err := fromShopConfigMessage(req.Config)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_config"), slog.Any("err", err))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	saved, err := s.svc.UpdateShopConfig(ctx, s.authorized(ctx), cfg)
	if err != nil {
		return nil, s.toStatus(log, "config update failed", err)
	}

	log.Info(
		"config updated",
		slog.Int("slot_granularity", saved.SlotGranularity),
		slog.Int("opening_minute", saved.OpeningMinute),
		slog.Int("closing_minute", saved.ClosingMinute),
	)
	return &UpdateShopConfigResponse{Config: toShopConfigMessage(saved)}, nil
}

func (s *SchedulingServer) authorized(ctx context.Context) bool {
	if s.gate == nil {
		return false
	}
	return s.gate.Authorized(metadataValue(ctx, AdminPINHeader))
}

func idempotencyKey(ctx context.Context) string {
	if key := metadataValue(ctx, "idempotency-key"); key != "" {
		return key
	}
	return metadataValue(ctx, "x-idempotency-key")
}

func metadataValue(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// toStatus logs err at a level matching its class and converts it to a gRPC
// status. Conflicts are expected traffic and log at Info.
func (s *SchedulingServer) toStatus(log *slog.Logger, msg string, err error, attrs ...any) error {
	attrs = append(attrs, slog.Any("err", err))

	var (
		vErr   *scheduling.ValidationError
		cfgErr *availability.ConfigurationError
		sErr   *store.Error
	)
	switch {
	case errors.Is(err, store.ErrConflict):
		log.Info(msg, attrs...)
		return status.Error(codes.Aborted, "That time was just taken. Pick a different slot.")
	case errors.Is(err, store.ErrIdempotencyConflict):
		log.Info(msg, attrs...)
		return status.Error(codes.FailedPrecondition, "This request key was already used for a different booking. Try again.")
	case errors.As(err, &vErr):
		log.Warn(msg, attrs...)
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.Is(err, availability.ErrDayClosed),
		errors.Is(err, availability.ErrOutsideHours),
		errors.Is(err, availability.ErrOffGrid),
		errors.Is(err, domain.ErrInvalidDayKey):
		log.Warn(msg, attrs...)
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &cfgErr):
		log.Error(msg, attrs...)
		return status.Error(codes.FailedPrecondition, cfgErr.Error())
	case errors.Is(err, store.ErrNotFound):
		log.Info(msg, attrs...)
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, scheduling.ErrUnauthorized):
		log.Warn(msg, attrs...)
		return status.Error(codes.PermissionDenied, "a valid admin PIN is required")
	case errors.Is(err, context.DeadlineExceeded):
		log.Error(msg, attrs...)
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, context.Canceled):
		log.Info(msg, attrs...)
		return status.Error(codes.Canceled, "request canceled")
	case errors.As(err, &sErr):
		log.Error(msg, attrs...)
		return status.Error(codes.Unavailable, "storage unavailable, try again")
	}
	log.Error(msg, attrs...)
	return status.Error(codes.Internal, "internal error")
}
