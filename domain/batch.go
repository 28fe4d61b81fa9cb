package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch is a received lot of a medicine with its own cost and expiry.
// A batch whose quantity reaches zero is kept as history.
type Batch struct {
	ID           string          `db:"id" json:"id"`
	MedicineID   string          `db:"medicine_id" json:"medicineId"`
	BatchNumber  string          `db:"batch_number" json:"batchNumber"`
	ExpiryDate   time.Time       `db:"expiry_date" json:"expiryDate"`
	Quantity     decimal.Decimal `db:"quantity" json:"quantity"`
	BuyingPrice  decimal.Decimal `db:"buying_price" json:"buyingPrice"`
	DateReceived time.Time       `db:"date_received" json:"dateReceived"`
}

// UnitCost resolves the cost of one unit from this batch. A zero batch
// price falls back to the medicine's master price, then to zero.
func (b Batch) UnitCost(master *Medicine) decimal.Decimal {
	if !b.BuyingPrice.IsZero() {
		return b.BuyingPrice
	}
	if master != nil {
		return master.BuyingPrice
	}
	return decimal.Zero
}

// Sellable reports whether the batch can be drawn from at the given time.
func (b Batch) Sellable(now time.Time) bool {
	return b.Quantity.IsPositive() && b.ExpiryDate.After(now)
}
