package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Booking is an appointment on one day. EndMinute is fixed when the booking
// is created and never recomputed from the service catalog.
type Booking struct {
	bun.BaseModel `bun:"table:bookings" json:"-"`

	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	CustomerName  string    `bun:"customer_name,notnull" json:"customer_name"`
	CustomerPhone string    `bun:"customer_phone,notnull" json:"customer_phone"`
	Day           DayKey    `bun:"day,notnull" json:"day"`
	StartMinute   int       `bun:"start_minute,notnull" json:"start_minute"`
	EndMinute     int       `bun:"end_minute,notnull" json:"end_minute"`
	ServiceID     uuid.UUID `bun:"service_id,notnull,type:uuid" json:"service_id"`
	Notes         string    `bun:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

func (b Booking) Interval() Interval {
	return Interval{Start: b.StartMinute, End: b.EndMinute}
}

// SameRequest reports whether other describes the same booking request,
// ignoring server-assigned fields.
func (b Booking) SameRequest(other Booking) bool {
	return b.EndMinute == other.EndMinute && b.SameSubmission(other)
}

// SameSubmission is SameRequest without EndMinute, which depends on the
// service duration at the time the booking was first stored.
func (b Booking) SameSubmission(other Booking) bool {
	return b.Day == other.Day &&
		b.StartMinute == other.StartMinute &&
		b.ServiceID == other.ServiceID &&
		b.CustomerName == other.CustomerName &&
		b.CustomerPhone == other.CustomerPhone &&
		b.Notes == other.Notes
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}
	if b.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		b.ID = id
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return nil
}
