package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity   = errors.New("please enter a valid quantity greater than 0")
	ErrInvalidPrice      = errors.New("prices must be zero or greater")
	ErrInvalidInput      = errors.New("invalid stock input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNoValidBatches    = errors.New("no valid unexpired batches found")
	ErrConcurrentUpdate  = errors.New("stock was changed by another request, retry")
)

// InsufficientStockError reports how much stock the medicine holds.
type InsufficientStockError struct {
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Only %s units left!", e.Available.String())
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
