package ledger

import (
	"context"

	"stockfolio-backend/internal/domain"

	"github.com/rs/zerolog/log"
)

// SeedPortfolioName is the portfolio created for a user with none.
const SeedPortfolioName = "My First Portfolio"

// SeedPurchases are bought into the seed portfolio.
func SeedPurchases() []Purchase {
	return []Purchase{
		{Symbol: "AAPL", Quantity: 10, Price: 150.00},
		{Symbol: "GOOGL", Quantity: 5, Price: 2800.00},
	}
}

// Seed creates the starter portfolio for userID unless the user already
// owns one. It reports whether a portfolio was created.
func (s *Service) Seed(ctx context.Context, userID string) (*domain.Portfolio, bool, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	existing, err := NewStore(s.DB).FindByUserID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		log.Ctx(ctx).Debug().Str("user_id", userID).Msg("Seed skipped, user has portfolios")
		return &existing[0], false, nil
	}

	p, err := s.CreatePortfolio(ctx, SeedPortfolioName, userID, SeedPurchases())
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}
