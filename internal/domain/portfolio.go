package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultUserID owns portfolios created without an explicit user.
const DefaultUserID = "default-user"

// Portfolio is a named collection of holdings. TotalValue is derived from
// the holdings and only written by the ledger.
type Portfolio struct {
	PortfolioID uuid.UUID `gorm:"column:portfolio_id;type:uuid;primaryKey" json:"portfolio_id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	UserID      string    `gorm:"column:user_id;not null;index" json:"user_id"`
	TotalValue  float64   `gorm:"column:total_value;not null;default:0" json:"total_value"`
	Holdings    []Holding `gorm:"foreignKey:PortfolioID;references:PortfolioID;constraint:OnDelete:CASCADE" json:"holdings"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}

// BeforeCreate ensures portfolio_id is set for DBs without default uuid.
func (p *Portfolio) BeforeCreate(tx *gorm.DB) error {
	if p.PortfolioID == uuid.Nil {
		p.PortfolioID = uuid.New()
	}
	return nil
}

// Holding returns the holding for an already canonical symbol, or nil.
func (p *Portfolio) Holding(symbol string) *Holding {
	for i := range p.Holdings {
		if p.Holdings[i].Symbol == symbol {
			return &p.Holdings[i]
		}
	}
	return nil
}
