package domain

import (
	"time"

	"gorm.io/datatypes"
)

// PriceQuote is the last price observed for a symbol, kept for display and
// health reporting. Meta carries provider specific details.
type PriceQuote struct {
	Symbol    string         `gorm:"column:symbol;type:varchar(16);primaryKey" json:"symbol"`
	Price     float64        `gorm:"column:price;not null" json:"price"`
	Source    string         `gorm:"column:source;type:varchar(20);not null" json:"source"`
	FetchedAt time.Time      `gorm:"column:fetched_at;not null" json:"fetched_at"`
	Meta      datatypes.JSON `gorm:"column:meta" json:"meta,omitempty"`
}

func (PriceQuote) TableName() string {
	return "price_quotes"
}
