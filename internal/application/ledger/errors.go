package ledger

import (
	"errors"

	"stockfolio-backend/internal/infrastructure/lock"
)

// Error kinds. Every error the ledger rejects a request with matches one of
// these through errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

var (
	// ErrPriceUnavailable wraps oracle failures and unusable prices. The
	// operation that hit it changed nothing.
	ErrPriceUnavailable = errors.New("Price unavailable")

	// ErrLockTimeout is returned when another operation held the portfolio
	// for longer than the lock wait budget.
	ErrLockTimeout = lock.ErrTimeout
)

var (
	ErrPortfolioNotFound = kindError(ErrNotFound, "Portfolio not found")
	ErrHoldingNotFound   = kindError(ErrNotFound, "Holding not found")

	ErrInvalidQuantity = kindError(ErrInvalidArgument, "Quantity must be positive")
	ErrInvalidPrice    = kindError(ErrInvalidArgument, "Price must be positive")
	ErrInvalidSymbol   = kindError(ErrInvalidArgument, "Invalid stock symbol")
	ErrInvalidName     = kindError(ErrInvalidArgument, "Portfolio name is required")
	ErrOverReduce      = kindError(ErrInvalidArgument, "Cannot reduce more than held")
)

type ledgerError struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &ledgerError{kind: kind, msg: msg}
}

func (e *ledgerError) Error() string { return e.msg }

func (e *ledgerError) Unwrap() error { return e.kind }

// IsNotFound reports whether err is a missing portfolio or holding.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalidArgument reports whether err rejects caller input.
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }
