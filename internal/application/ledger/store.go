package ledger

import (
	"context"
	"errors"

	"stockfolio-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists portfolios, holdings and quotes. Bind it to a transaction
// handle to make a sequence of calls atomic. Lookups return nil, nil for
// absent records.
type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func orderedHoldings(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("created_at ASC")
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	var p domain.Portfolio
	err := s.DB.WithContext(ctx).
		Preload("Holdings", orderedHoldings).
		Where("portfolio_id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) FindByUserID(ctx context.Context, userID string) ([]domain.Portfolio, error) {
	var out []domain.Portfolio
	if err := s.DB.WithContext(ctx).
		Preload("Holdings", orderedHoldings).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListPortfolioIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := s.DB.WithContext(ctx).
		Model(&domain.Portfolio{}).
		Order("created_at ASC").
		Pluck("portfolio_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) FindHolding(ctx context.Context, portfolioID uuid.UUID, symbol string) (*domain.Holding, error) {
	var h domain.Holding
	err := s.DB.WithContext(ctx).
		Where("portfolio_id = ? AND symbol = ?", portfolioID, symbol).
		First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Store) ListHoldings(ctx context.Context, portfolioID uuid.UUID) ([]domain.Holding, error) {
	var out []domain.Holding
	if err := orderedHoldings(s.DB.WithContext(ctx)).
		Where("portfolio_id = ?", portfolioID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SavePortfolio inserts or updates the portfolio row. Holdings are saved
// individually through SaveHolding.
func (s *Store) SavePortfolio(ctx context.Context, p *domain.Portfolio) error {
	return s.DB.WithContext(ctx).Omit("Holdings").Save(p).Error
}

// SaveHolding inserts a new holding at the end of its portfolio or updates
// an existing one.
func (s *Store) SaveHolding(ctx context.Context, h *domain.Holding) error {
	db := s.DB.WithContext(ctx)
	if h.HoldingID != uuid.Nil {
		return db.Save(h).Error
	}
	var last int
	if err := db.Model(&domain.Holding{}).
		Where("portfolio_id = ?", h.PortfolioID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&last).Error; err != nil {
		return err
	}
	h.Position = last + 1
	return db.Create(h).Error
}

func (s *Store) DeleteHolding(ctx context.Context, h *domain.Holding) error {
	return s.DB.WithContext(ctx).
		Where("holding_id = ?", h.HoldingID).
		Delete(&domain.Holding{}).Error
}

// DeletePortfolio removes a portfolio and all of its holdings.
func (s *Store) DeletePortfolio(ctx context.Context, id uuid.UUID) error {
	db := s.DB.WithContext(ctx)
	if err := db.Where("portfolio_id = ?", id).Delete(&domain.Holding{}).Error; err != nil {
		return err
	}
	return db.Where("portfolio_id = ?", id).Delete(&domain.Portfolio{}).Error
}

// SaveQuote upserts the last observed quote for a symbol.
func (s *Store) SaveQuote(ctx context.Context, q *domain.PriceQuote) error {
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			UpdateAll: true,
		}).
		Create(q).Error
}

func (s *Store) FindQuote(ctx context.Context, symbol string) (*domain.PriceQuote, error) {
	var q domain.PriceQuote
	err := s.DB.WithContext(ctx).Where("symbol = ?", symbol).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// CountQuotes returns how many symbols have a stored quote.
func (s *Store) CountQuotes(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&domain.PriceQuote{}).Count(&n).Error
	return n, err
}
