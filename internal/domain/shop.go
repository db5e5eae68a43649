package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// ShopConfigID is the primary key of the single shop configuration row.
const ShopConfigID = 1

// ShopConfig holds the shop-wide operating hours. OpeningMinute and
// ClosingMinute are minutes since local midnight.
type ShopConfig struct {
	bun.BaseModel `bun:"table:shop_config" json:"-"`

	ID              int        `bun:"id,pk" json:"-"`
	Name            string     `bun:"name,notnull" json:"name"`
	SlotGranularity int        `bun:"slot_granularity,notnull" json:"slot_granularity"`
	ActiveWeekdays  WeekdaySet `bun:"active_weekdays,notnull,type:smallint" json:"active_weekdays"`
	OpeningMinute   int        `bun:"opening_minute,notnull" json:"opening_minute"`
	ClosingMinute   int        `bun:"closing_minute,notnull" json:"closing_minute"`
	UpdatedAt       time.Time  `bun:"updated_at,notnull" json:"updated_at"`
}

// DefaultShopConfig is served until an administrator saves a configuration:
// 09:00-19:00, 15 minute slots, Monday to Saturday.
func DefaultShopConfig() ShopConfig {
	return ShopConfig{
		ID:              ShopConfigID,
		Name:            "Slotkeeper",
		SlotGranularity: 15,
		ActiveWeekdays: NewWeekdaySet(
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
		),
		OpeningMinute: 9 * 60,
		ClosingMinute: 19 * 60,
	}
}

func (c *ShopConfig) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		c.ID = ShopConfigID
		c.UpdatedAt = time.Now().UTC()
	}
	return nil
}
