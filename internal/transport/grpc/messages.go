package grpc

import (
	"time"

	"slotkeeper/internal/domain"
)

// Clock values travel as "HH:MM"; closing times and booking ends may be
// "24:00". Days travel as "YYYY-MM-DD".

type Booking struct {
	ID            string    `json:"id"`
	Day           string    `json:"day"`
	Start         string    `json:"start"`
	End           string    `json:"end"`
	ServiceID     string    `json:"service_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Service struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           string `json:"price"`
}

type ShopConfig struct {
	Name            string   `json:"name"`
	SlotGranularity int      `json:"slot_granularity"`
	ActiveWeekdays  []string `json:"active_weekdays"`
	Opening         string   `json:"opening"`
	Closing         string   `json:"closing"`
}

type GetAvailabilityRequest struct {
	ServiceID string `json:"service_id"`
	Day       string `json:"day"`
}

type GetAvailabilityResponse struct {
	Day       string   `json:"day"`
	ServiceID string   `json:"service_id"`
	Open      bool     `json:"open"`
	Slots     []string `json:"slots"`
}

type CreateBookingRequest struct {
	ServiceID     string `json:"service_id"`
	Day           string `json:"day"`
	Start         string `json:"start"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Notes         string `json:"notes,omitempty"`
}

type CreateBookingResponse struct {
	Booking Booking `json:"booking"`
}

type CancelBookingRequest struct {
	BookingID string `json:"booking_id"`
}

type CancelBookingResponse struct{}

type ListBookingsRequest struct {
	Day string `json:"day"`
}

type ListBookingsResponse struct {
	Bookings []Booking `json:"bookings"`
}

type ListServicesRequest struct{}

type ListServicesResponse struct {
	Services []Service `json:"services"`
}

type SaveServiceRequest struct {
	Service Service `json:"service"`
}

type SaveServiceResponse struct {
	Service Service `json:"service"`
}

type DeleteServiceRequest struct {
	ServiceID string `json:"service_id"`
}

type DeleteServiceResponse struct{}

type GetShopConfigRequest struct{}

type GetShopConfigResponse struct {
	Config ShopConfig `json:"config"`
}

type UpdateShopConfigRequest struct {
	Config ShopConfig `json:"config"`
}

type UpdateShopConfigResponse struct {
	Config ShopConfig `json:"config"`
}

func toBookingMessage(b domain.Booking) Booking {
	return Booking{
		ID:            b.ID.String(),
		Day:           b.Day.String(),
		Start:         boundary(b.StartMinute),
		End:           boundary(b.EndMinute),
		ServiceID:     b.ServiceID.String(),
		CustomerName:  b.CustomerName,
		CustomerPhone: b.CustomerPhone,
		Notes:         b.Notes,
		CreatedAt:     b.CreatedAt,
	}
}

func toServiceMessage(s domain.Service) Service {
	return Service{
		ID:              s.ID.String(),
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price.StringFixed(2),
	}
}

func toShopConfigMessage(c domain.ShopConfig) ShopConfig {
	return ShopConfig{
		Name:            c.Name,
		SlotGranularity: c.SlotGranularity,
		ActiveWeekdays:  c.ActiveWeekdays.Names(),
		Opening:         boundary(c.OpeningMinute),
		Closing:         boundary(c.ClosingMinute),
	}
}

// fromShopConfigMessage leaves range checks to the service layer; only the
// encodings are validated here.
func fromShopConfigMessage(m ShopConfig) (domain.ShopConfig, error) {
	days, err := domain.ParseWeekdaySet(m.ActiveWeekdays)
	if err != nil {
		return domain.ShopConfig{}, err
	}
	opening, err := domain.ClockToMinutes(m.Opening)
	if err != nil {
		return domain.ShopConfig{}, err
	}
	closing, err := domain.ParseBoundary(m.Closing)
	if err != nil {
		return domain.ShopConfig{}, err
	}
	return domain.ShopConfig{
		Name:            m.Name,
		SlotGranularity: m.SlotGranularity,
		ActiveWeekdays:  days,
		OpeningMinute:   opening,
		ClosingMinute:   closing,
	}, nil
}

// boundary formats stored offsets, which are always within [0, 1440].
func boundary(min int) string {
	s, err := domain.FormatBoundary(min)
	if err != nil {
		return ""
	}
	return s
}
