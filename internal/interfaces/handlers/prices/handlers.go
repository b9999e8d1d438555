package prices

import (
	"errors"

	"stockfolio-backend/internal/application/ledger"
	"stockfolio-backend/internal/application/pricing"
	"stockfolio-backend/internal/pkg/response"
	"stockfolio-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Oracle pricing.Oracle
	Ledger *ledger.Service
}

// Quote GET /api/v1/prices/:symbol returns the oracle's current price.
func (h *Handlers) Quote(c *fiber.Ctx) error {
	symbol := ledger.CanonicalSymbol(c.Params("symbol"))
	if !validation.IsValidSymbol(symbol) {
		return response.BadRequest(c, ledger.ErrInvalidSymbol.Error())
	}
	q, err := h.Oracle.CurrentPrice(c.UserContext(), symbol)
	if errors.Is(err, pricing.ErrUnknownSymbol) {
		return response.Error(c, "No price available for "+symbol, fiber.StatusNotFound, nil)
	}
	if err != nil {
		log.Ctx(c.UserContext()).Warn().Err(err).Str("symbol", symbol).Msg("Price lookup failed")
		return response.Error(c, ledger.ErrPriceUnavailable.Error(), fiber.StatusBadGateway, nil)
	}
	return response.Success(c, "Price retrieved", q, nil)
}

// Last GET /api/v1/prices/:symbol/last returns the last price the ledger
// valued a holding at.
func (h *Handlers) Last(c *fiber.Ctx) error {
	symbol := ledger.CanonicalSymbol(c.Params("symbol"))
	if !validation.IsValidSymbol(symbol) {
		return response.BadRequest(c, ledger.ErrInvalidSymbol.Error())
	}
	q, err := h.Ledger.LatestQuote(c.UserContext(), symbol)
	if err != nil {
		return err
	}
	if q == nil {
		return response.Error(c, "No stored quote for "+symbol, fiber.StatusNotFound, nil)
	}
	return response.Success(c, "Stored quote retrieved", q, nil)
}
