package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"polycare/m/domain"
	"polycare/m/internal/store"
)

type CheckoutInput struct {
	MedicineID   string
	QuantitySold decimal.Decimal
	// PharmacistName is used for attribution only when no verified actor
	// is attached to the context.
	PharmacistName string
}

// Allocation is the quantity taken from one batch.
type Allocation struct {
	BatchID     string          `json:"batchId"`
	BatchNumber string          `json:"batchNumber"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unitCost"`
}

type CheckoutResult struct {
	Sale        *domain.Sale
	SoldQty     decimal.Decimal
	TotalPrice  decimal.Decimal
	Allocations []Allocation
}

const (
	outcomeOK           = "ok"
	outcomeNotFound     = "not_found"
	outcomeInsufficient = "insufficient_stock"
	outcomeNoBatches    = "no_valid_batches"
	outcomeConflict     = "conflict"
	outcomeError        = "error"
)

// Checkout sells stock first-expiry-first-out. Only unexpired batches with
// stock are drawn from, so the sale may deduct less than requested when
// part of the stock has expired; the sale records what was deducted.
func (l *Ledger) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	in.QuantitySold = domain.Round2(in.QuantitySold)
	if !in.QuantitySold.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	var result *CheckoutResult
	err := l.run(ctx, in.MedicineID, func(s *store.Store) error {
		var err error
		result, err = l.checkout(ctx, s, in)
		return err
	})
	if err != nil {
		l.recorder.CheckoutRecorded(checkoutOutcome(err), 0)
		return nil, err
	}

	l.recorder.CheckoutRecorded(outcomeOK, result.SoldQty.InexactFloat64())
	l.changed(ctx)
	l.log.Info("sale recorded",
		zap.String("sale_id", result.Sale.ID),
		zap.String("medicine_id", in.MedicineID),
		zap.String("requested", in.QuantitySold.String()),
		zap.String("sold", result.SoldQty.String()),
		zap.Int("batches", len(result.Allocations)),
	)
	return result, nil
}

func (l *Ledger) checkout(ctx context.Context, s *store.Store, in CheckoutInput) (*CheckoutResult, error) {
	now := l.timestamp()

	medicine, err := s.GetMedicine(ctx, in.MedicineID)
	if err != nil {
		return nil, err
	}
	if medicine.TotalStock.LessThan(in.QuantitySold) {
		return nil, &InsufficientStockError{Available: medicine.TotalStock}
	}

	batches, err := s.ListSellableBatches(ctx, in.MedicineID, now)
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, ErrNoValidBatches
	}

	actorID, actorName := attribution(ctx, in.PharmacistName)
	remaining := in.QuantitySold
	deducted := decimal.Zero
	buyingCost := decimal.Zero
	allocations := make([]Allocation, 0, len(batches))

	for _, batch := range batches {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(batch.Quantity, remaining)
		unitCost := batch.UnitCost(medicine)
		buyingCost = buyingCost.Add(take.Mul(unitCost))

		if err := s.UpdateBatchQuantity(ctx, batch.ID, domain.Round2(batch.Quantity.Sub(take))); err != nil {
			return nil, err
		}
		if err := s.AppendAudit(ctx, &domain.AuditLogEntry{
			ID:              l.newID(),
			PharmacistName:  actorName,
			Action:          domain.AuditActionSale,
			MedicineName:    medicine.Name,
			BatchNumber:     batch.BatchNumber,
			QuantityChanged: take.Neg(),
			Details:         fmt.Sprintf("Sold from batch %s", batch.BatchNumber),
			Timestamp:       now,
		}); err != nil {
			return nil, err
		}

		remaining = remaining.Sub(take)
		deducted = deducted.Add(take)
		allocations = append(allocations, Allocation{
			BatchID:     batch.ID,
			BatchNumber: batch.BatchNumber,
			Quantity:    take,
			UnitCost:    unitCost,
		})
	}

	medicine.TotalStock = domain.Round2(medicine.TotalStock.Sub(deducted))
	if l.mode == ModeLegacy {
		err = s.UpdateMedicine(ctx, medicine)
	} else {
		err = s.UpdateMedicineVersioned(ctx, medicine)
	}
	if err != nil {
		return nil, err
	}

	sellingPrice := medicine.SellingPrice.Mul(deducted)
	sale := &domain.Sale{
		ID:                l.newID(),
		MedicineID:        medicine.MedicineID,
		Name:              medicine.Name,
		QuantitySold:      domain.Round2(deducted),
		TotalBuyingCost:   domain.Round2(buyingCost),
		TotalSellingPrice: domain.Round2(sellingPrice),
		Profit:            domain.Round2(sellingPrice.Sub(buyingCost)),
		PharmacistID:      actorID,
		PharmacistName:    actorName,
		Date:              now,
	}
	if err := s.InsertSale(ctx, sale); err != nil {
		return nil, err
	}

	return &CheckoutResult{
		Sale:        sale,
		SoldQty:     sale.QuantitySold,
		TotalPrice:  sale.TotalSellingPrice,
		Allocations: allocations,
	}, nil
}

func checkoutOutcome(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrInsufficientStock):
		return outcomeInsufficient
	case errors.Is(err, ErrNoValidBatches):
		return outcomeNoBatches
	case errors.Is(err, ErrConcurrentUpdate):
		return outcomeConflict
	default:
		return outcomeError
	}
}
