// Package ledger owns the accounting of portfolio holdings. It is the only
// writer of quantities, average prices, current values and portfolio totals.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"stockfolio-backend/internal/application/pricing"
	"stockfolio-backend/internal/domain"
	"stockfolio-backend/internal/infrastructure/lock"
	"stockfolio-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service applies buys, reductions and revaluations to portfolios. Every
// operation on one portfolio holds that portfolio's lock and commits in a
// single transaction.
type Service struct {
	DB     *gorm.DB
	Oracle pricing.Oracle
	Locker lock.Locker
}

// Purchase is one buy applied when a portfolio is created.
type Purchase struct {
	Symbol   string  `json:"symbol"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
}

// NewService wires a ledger. A nil locker serializes within this process only.
func NewService(db *gorm.DB, oracle pricing.Oracle, locker lock.Locker) *Service {
	if locker == nil {
		locker = lock.NewLocalLocker(lock.DefaultWait)
	}
	return &Service{DB: db, Oracle: oracle, Locker: locker}
}

// BuyStock adds quantity shares of symbol bought at price, merging into an
// existing holding at the weighted average cost.
func (s *Service) BuyStock(ctx context.Context, portfolioID uuid.UUID, symbol string, quantity int64, price float64) (*domain.Holding, error) {
	symbol = CanonicalSymbol(symbol)
	if err := validatePurchase(symbol, quantity, price); err != nil {
		return nil, err
	}

	var result domain.Holding
	err := s.withPortfolio(ctx, portfolioID, func(store *Store, p *domain.Portfolio) error {
		h, err := s.applyBuy(ctx, store, p, symbol, quantity, price)
		if err != nil {
			return err
		}
		if err := s.settle(ctx, store, p); err != nil {
			return err
		}
		result = *h
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Str("portfolio_id", portfolioID.String()).
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Float64("price", price).
		Int64("held", result.Quantity).
		Float64("average_price", result.AveragePrice).
		Msg("Stock bought")
	return &result, nil
}

// ReduceStock sells quantity shares of symbol. The average price is left
// as is. Selling the whole position deletes the holding and returns nil.
func (s *Service) ReduceStock(ctx context.Context, portfolioID uuid.UUID, symbol string, quantity int64) (*domain.Holding, error) {
	symbol = CanonicalSymbol(symbol)
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	var result *domain.Holding
	err := s.withPortfolio(ctx, portfolioID, func(store *Store, p *domain.Portfolio) error {
		h := p.Holding(symbol)
		if h == nil {
			return ErrHoldingNotFound
		}
		if quantity > h.Quantity {
			return ErrOverReduce
		}

		remaining := h.Quantity - quantity
		if remaining == 0 {
			if err := store.DeleteHolding(ctx, h); err != nil {
				return err
			}
			p.Holdings = withoutHolding(p.Holdings, symbol)
			return s.settle(ctx, store, p)
		}

		q, err := s.quote(ctx, symbol)
		if err != nil {
			return err
		}
		h.Quantity = remaining
		revalue(h, q)
		if err := store.SaveHolding(ctx, h); err != nil {
			return err
		}
		if err := store.SaveQuote(ctx, quoteRecord(q)); err != nil {
			return err
		}
		if err := s.settle(ctx, store, p); err != nil {
			return err
		}
		held := *h
		result = &held
		return nil
	})
	if err != nil {
		return nil, err
	}

	ev := log.Ctx(ctx).Info().
		Str("portfolio_id", portfolioID.String()).
		Str("symbol", symbol).
		Int64("quantity", quantity)
	if result == nil {
		ev.Msg("Holding liquidated")
	} else {
		ev.Int64("held", result.Quantity).Msg("Stock reduced")
	}
	return result, nil
}

// RemoveStock deletes the holding for symbol whatever its quantity and
// returns the portfolio without it.
func (s *Service) RemoveStock(ctx context.Context, portfolioID uuid.UUID, symbol string) (*domain.Portfolio, error) {
	symbol = CanonicalSymbol(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	var result *domain.Portfolio
	err := s.withPortfolio(ctx, portfolioID, func(store *Store, p *domain.Portfolio) error {
		h := p.Holding(symbol)
		if h == nil {
			return ErrHoldingNotFound
		}
		if err := store.DeleteHolding(ctx, h); err != nil {
			return err
		}
		p.Holdings = withoutHolding(p.Holdings, symbol)
		if err := s.settle(ctx, store, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Str("portfolio_id", portfolioID.String()).
		Str("symbol", symbol).
		Msg("Stock removed")
	return result, nil
}

// Refresh revalues every holding of a portfolio at current prices and
// persists the new values and total.
func (s *Service) Refresh(ctx context.Context, portfolioID uuid.UUID) (*domain.Portfolio, error) {
	var result *domain.Portfolio
	err := s.withPortfolio(ctx, portfolioID, func(store *Store, p *domain.Portfolio) error {
		if err := s.revalueAll(ctx, store, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetPortfolio returns the portfolio as of now. It writes the refreshed
// values through before returning.
func (s *Service) GetPortfolio(ctx context.Context, portfolioID uuid.UUID) (*domain.Portfolio, error) {
	return s.Refresh(ctx, portfolioID)
}

// GetHoldings returns the refreshed holdings of a portfolio in insertion order.
func (s *Service) GetHoldings(ctx context.Context, portfolioID uuid.UUID) ([]domain.Holding, error) {
	p, err := s.Refresh(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	return p.Holdings, nil
}

// CreatePortfolio creates an empty portfolio for userID and applies the
// initial purchases to it in the same transaction.
func (s *Service) CreatePortfolio(ctx context.Context, name, userID string, initial []Purchase) (*domain.Portfolio, error) {
	name = strings.TrimSpace(name)
	if !validation.IsValidPortfolioName(name) {
		return nil, ErrInvalidName
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = domain.DefaultUserID
	}
	buys := make([]Purchase, len(initial))
	for i, buy := range initial {
		buy.Symbol = CanonicalSymbol(buy.Symbol)
		if err := validatePurchase(buy.Symbol, buy.Quantity, buy.Price); err != nil {
			return nil, err
		}
		buys[i] = buy
	}

	p := &domain.Portfolio{Name: name, UserID: userID}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := NewStore(tx)
		if err := store.SavePortfolio(ctx, p); err != nil {
			return err
		}
		for _, buy := range buys {
			if _, err := s.applyBuy(ctx, store, p, buy.Symbol, buy.Quantity, buy.Price); err != nil {
				return err
			}
		}
		return s.settle(ctx, store, p)
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Str("portfolio_id", p.PortfolioID.String()).
		Str("user_id", userID).
		Int("holdings", len(p.Holdings)).
		Msg("Portfolio created")
	return p, nil
}

// ListPortfolios returns the refreshed portfolios of a user, oldest first.
func (s *Service) ListPortfolios(ctx context.Context, userID string) ([]domain.Portfolio, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = domain.DefaultUserID
	}
	found, err := NewStore(s.DB).FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Portfolio, 0, len(found))
	for _, f := range found {
		p, err := s.Refresh(ctx, f.PortfolioID)
		if errors.Is(err, ErrPortfolioNotFound) {
			continue // deleted since listed
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// DeletePortfolio removes a portfolio and its holdings.
func (s *Service) DeletePortfolio(ctx context.Context, portfolioID uuid.UUID) error {
	err := s.withPortfolio(ctx, portfolioID, func(store *Store, p *domain.Portfolio) error {
		return store.DeletePortfolio(ctx, p.PortfolioID)
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("portfolio_id", portfolioID.String()).Msg("Portfolio deleted")
	return nil
}

// RefreshAll refreshes every portfolio and returns how many were refreshed.
// A failing portfolio does not stop the others; their errors are joined.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	ids, err := NewStore(s.DB).ListPortfolioIDs(ctx)
	if err != nil {
		return 0, err
	}

	var (
		refreshed int
		errs      []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		_, err := s.Refresh(ctx, id)
		switch {
		case err == nil:
			refreshed++
		case errors.Is(err, ErrPortfolioNotFound):
		default:
			errs = append(errs, fmt.Errorf("portfolio %s: %w", id, err))
		}
	}
	return refreshed, errors.Join(errs...)
}

// LatestQuote returns the last stored quote for a symbol, or nil.
func (s *Service) LatestQuote(ctx context.Context, symbol string) (*domain.PriceQuote, error) {
	return NewStore(s.DB).FindQuote(ctx, CanonicalSymbol(symbol))
}

// withPortfolio runs fn under the portfolio lock inside one transaction,
// with the portfolio and its holdings loaded.
func (s *Service) withPortfolio(ctx context.Context, id uuid.UUID, fn func(store *Store, p *domain.Portfolio) error) error {
	if id == uuid.Nil {
		return ErrPortfolioNotFound
	}
	unlock, err := s.Locker.Lock(ctx, id.String())
	if err != nil {
		return err
	}
	defer unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := NewStore(tx)
		p, err := store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrPortfolioNotFound
		}
		return fn(store, p)
	})
}

// applyBuy merges a validated purchase into p and saves the holding. The
// portfolio total is left to the caller.
func (s *Service) applyBuy(ctx context.Context, store *Store, p *domain.Portfolio, symbol string, quantity int64, price float64) (*domain.Holding, error) {
	h := p.Holding(symbol)
	if h != nil && quantity > math.MaxInt64-h.Quantity {
		return nil, ErrInvalidQuantity
	}

	q, err := s.quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if h == nil {
		h = &domain.Holding{
			PortfolioID:  p.PortfolioID,
			Symbol:       symbol,
			Quantity:     quantity,
			AveragePrice: price,
		}
		revalue(h, q)
		if err := store.SaveHolding(ctx, h); err != nil {
			return nil, err
		}
		p.Holdings = append(p.Holdings, *h)
		h = &p.Holdings[len(p.Holdings)-1]
	} else {
		h.AveragePrice = WeightedAverage(h.Quantity, h.AveragePrice, quantity, price)
		h.Quantity += quantity
		revalue(h, q)
		if err := store.SaveHolding(ctx, h); err != nil {
			return nil, err
		}
	}

	if err := store.SaveQuote(ctx, quoteRecord(q)); err != nil {
		return nil, err
	}
	return h, nil
}

// revalueAll prices every holding first so a failing symbol leaves nothing
// written, then persists holdings, quotes and the total.
func (s *Service) revalueAll(ctx context.Context, store *Store, p *domain.Portfolio) error {
	quotes := make(map[string]pricing.Quote, len(p.Holdings))
	for i := range p.Holdings {
		symbol := p.Holdings[i].Symbol
		if _, ok := quotes[symbol]; ok {
			continue
		}
		q, err := s.quote(ctx, symbol)
		if err != nil {
			return err
		}
		quotes[symbol] = q
	}

	for i := range p.Holdings {
		h := &p.Holdings[i]
		revalue(h, quotes[h.Symbol])
		if err := store.SaveHolding(ctx, h); err != nil {
			return err
		}
	}
	for _, q := range quotes {
		if err := store.SaveQuote(ctx, quoteRecord(q)); err != nil {
			return err
		}
	}
	return s.settle(ctx, store, p)
}

// settle recomputes and persists the portfolio total.
func (s *Service) settle(ctx context.Context, store *Store, p *domain.Portfolio) error {
	if p.Holdings == nil {
		p.Holdings = []domain.Holding{}
	}
	p.TotalValue = TotalValue(p.Holdings)
	return store.SavePortfolio(ctx, p)
}

func (s *Service) quote(ctx context.Context, symbol string) (pricing.Quote, error) {
	q, err := s.Oracle.CurrentPrice(ctx, symbol)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("symbol", symbol).Msg("Price lookup failed")
		return pricing.Quote{}, fmt.Errorf("%w for %s: %w", ErrPriceUnavailable, symbol, err)
	}
	if !(q.Price > 0) || math.IsInf(q.Price, 0) {
		return pricing.Quote{}, fmt.Errorf("%w for %s: unusable price %v", ErrPriceUnavailable, symbol, q.Price)
	}
	q.Symbol = symbol
	if q.AsOf.IsZero() {
		q.AsOf = time.Now().UTC()
	}
	return q, nil
}

func validatePurchase(symbol string, quantity int64, price float64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !(price > 0) || math.IsInf(price, 0) {
		return ErrInvalidPrice
	}
	if !validation.IsValidSymbol(symbol) {
		return ErrInvalidSymbol
	}
	return nil
}

func revalue(h *domain.Holding, q pricing.Quote) {
	h.CurrentValue = MarketValue(h.Quantity, q.Price)
	h.LastPrice = q.Price
	asOf := q.AsOf
	h.PricedAt = &asOf
}

func withoutHolding(holdings []domain.Holding, symbol string) []domain.Holding {
	out := holdings[:0]
	for _, h := range holdings {
		if h.Symbol != symbol {
			out = append(out, h)
		}
	}
	return out
}

func quoteRecord(q pricing.Quote) *domain.PriceQuote {
	rec := &domain.PriceQuote{
		Symbol:    q.Symbol,
		Price:     q.Price,
		Source:    q.Source,
		FetchedAt: q.AsOf,
	}
	if len(q.Meta) > 0 {
		if raw, err := json.Marshal(q.Meta); err == nil {
			rec.Meta = datatypes.JSON(raw)
		}
	}
	return rec
}
