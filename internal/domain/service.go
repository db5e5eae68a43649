package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Service is an entry in the shop's catalog.
type Service struct {
	bun.BaseModel `bun:"table:services" json:"-"`

	ID              uuid.UUID       `bun:"id,pk,type:uuid" json:"id"`
	Name            string          `bun:"name,notnull" json:"name"`
	DurationMinutes int             `bun:"duration_minutes,notnull" json:"duration_minutes"`
	Price           decimal.Decimal `bun:"price,notnull,type:numeric(10,2)" json:"price"`
	CreatedAt       time.Time       `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt       time.Time       `bun:"updated_at,notnull" json:"updated_at"`
}

var ErrInvalidPrice = errors.New("price must be a non-negative amount with at most two decimals")

// ParsePrice parses a catalog price such as "25" or "25.50". An empty string
// is zero.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || !d.Equal(d.Round(2)) {
		return decimal.Decimal{}, ErrInvalidPrice
	}
	return d, nil
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			s.ID = id
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		s.UpdatedAt = now
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}
