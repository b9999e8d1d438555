package portfolios

import (
	"errors"
	"strconv"

	"stockfolio-backend/internal/application/ledger"
	"stockfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *ledger.Service
}

type createRequest struct {
	Name     string            `json:"name"`
	UserID   string            `json:"user_id"`
	Holdings []ledger.Purchase `json:"holdings"`
}

type buyRequest struct {
	Symbol   string  `json:"symbol"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
}

// fail maps ledger errors to the standard error response. Anything it does
// not recognize goes to the global error handler as a 500.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case ledger.IsNotFound(err):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case ledger.IsInvalidArgument(err):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, ledger.ErrLockTimeout):
		return response.Error(c, err.Error(), fiber.StatusServiceUnavailable, nil)
	case errors.Is(err, ledger.ErrPriceUnavailable):
		return response.Error(c, ledger.ErrPriceUnavailable.Error(), fiber.StatusBadGateway, fiber.Map{"reason": err.Error()})
	}
	return err
}

const msgInvalidID = "Invalid UUID format for portfolio id"

func portfolioID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func positiveQuery(c *fiber.Ctx, key string) (int64, bool) {
	n, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// List GET /api/v1/portfolios?user_id=
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.Service.ListPortfolios(c.UserContext(), c.Query("user_id"))
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Portfolios retrieved", list, fiber.Map{"count": len(list)})
}

// Create POST /api/v1/portfolios
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body createRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	p, err := h.Service.CreatePortfolio(c.UserContext(), body.Name, body.UserID, body.Holdings)
	if err != nil {
		return fail(c, err)
	}
	return response.SuccessCreated(c, "Portfolio created", p, nil)
}

// Get GET /api/v1/portfolios/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := portfolioID(c)
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	p, err := h.Service.GetPortfolio(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Portfolio retrieved", p, nil)
}

// Delete DELETE /api/v1/portfolios/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, ok := portfolioID(c)
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	if err := h.Service.DeletePortfolio(c.UserContext(), id); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Portfolio deleted", fiber.Map{"portfolio_id": id}, nil)
}

// Holdings GET /api/v1/portfolios/:id/holdings
func (h *Handlers) Holdings(c *fiber.Ctx) error {
	id, ok := portfolioID(c)
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	holdings, err := h.Service.GetHoldings(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Holdings retrieved", holdings, fiber.Map{"count": len(holdings)})
}

// Refresh POST /api/v1/portfolios/:id/refresh
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	id, ok := portfolioID(c)
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	p, err := h.Service.Refresh(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Portfolio revalued", p, nil)
}

// Buy POST /api/v1/portfolios/:id/stocks
func (h *Handlers) Buy(c *fiber.Ctx) error {
	id, ok := portfolioID(c)
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	var body buyRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	holding, err := h.Service.BuyStock(c.UserContext(), id, body.Symbol, body.Quantity, body.Price)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Stock bought", holding, nil)
}

// Remove DELETE /api/v1/portfolios/:id/stocks/:symbol[?reduce=n]
// Without reduce the whole holding is removed. Both forms return the portfolio.
func (h *Handlers) Remove(c *fiber.Ctx) error {
	id, ok := portfolioID(c)
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	ctx := c.UserContext()
	symbol := c.Params("symbol")

	if c.Query("reduce") == "" {
		p, err := h.Service.RemoveStock(ctx, id, symbol)
		if err != nil {
			return fail(c, err)
		}
		return response.Success(c, "Stock removed", p, nil)
	}

	n, ok := positiveQuery(c, "reduce")
	if !ok {
		return response.BadRequest(c, "reduce must be a positive integer")
	}
	if _, err := h.Service.ReduceStock(ctx, id, symbol, n); err != nil {
		return fail(c, err)
	}
	p, err := h.Service.GetPortfolio(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Stock reduced", p, nil)
}

// Reduce PUT /api/v1/portfolios/:id/stocks/:symbol/reduce?quantity=n
// A fully liquidated holding comes back as null data.
func (h *Handlers) Reduce(c *fiber.Ctx) error {
	id, ok := portfolioID(c)
	if !ok {
		return response.BadRequest(c, msgInvalidID)
	}
	n, ok := positiveQuery(c, "quantity")
	if !ok {
		return response.BadRequest(c, "quantity must be a positive integer")
	}
	holding, err := h.Service.ReduceStock(c.UserContext(), id, c.Params("symbol"), n)
	if err != nil {
		return fail(c, err)
	}
	if holding == nil {
		return response.Success(c, "Holding liquidated", nil, fiber.Map{"liquidated": true})
	}
	return response.Success(c, "Stock reduced", holding, fiber.Map{"liquidated": false})
}
