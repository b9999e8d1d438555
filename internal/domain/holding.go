package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Holding is a position in one symbol within one portfolio. PortfolioID is a
// lookup key only; the portfolio owns the row.
type Holding struct {
	HoldingID    uuid.UUID  `gorm:"column:holding_id;type:uuid;primaryKey" json:"holding_id"`
	PortfolioID  uuid.UUID  `gorm:"column:portfolio_id;type:uuid;not null;uniqueIndex:idx_holdings_portfolio_symbol" json:"portfolio_id"`
	Symbol       string     `gorm:"column:symbol;type:varchar(16);not null;uniqueIndex:idx_holdings_portfolio_symbol" json:"symbol"`
	Quantity     int64      `gorm:"column:quantity;not null" json:"quantity"`
	AveragePrice float64    `gorm:"column:average_price;not null" json:"average_price"`
	CurrentValue float64    `gorm:"column:current_value;not null;default:0" json:"current_value"`
	LastPrice    float64    `gorm:"column:last_price;not null;default:0" json:"last_price"`
	PricedAt     *time.Time `gorm:"column:priced_at" json:"priced_at"`
	Position     int        `gorm:"column:position;not null;default:0" json:"-"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Holding) TableName() string {
	return "holdings"
}

// BeforeCreate: never insert zero UUID for primary key; generate random when not set.
func (h *Holding) BeforeCreate(tx *gorm.DB) error {
	if h.HoldingID == uuid.Nil {
		h.HoldingID = uuid.New()
	}
	return nil
}
