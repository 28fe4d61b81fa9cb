package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"polycare/m/domain"
	"polycare/m/internal/store"
)

type ReversalResult struct {
	Sale *domain.Sale
	// TotalStock is the medicine's stock after the reversal. It is nil
	// when the medicine no longer exists.
	TotalStock *decimal.Decimal
}

// ReverseSale deletes a sale and adds its quantity back to the medicine's
// total stock. The batches the sale drew from keep their reduced
// quantities.
func (l *Ledger) ReverseSale(ctx context.Context, saleID string) (*ReversalResult, error) {
	sale, err := l.store.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	var result *ReversalResult
	err = l.run(ctx, sale.MedicineID, func(s *store.Store) error {
		var err error
		result, err = l.reverse(ctx, s, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.recorder.ReversalRecorded()
	l.changed(ctx)
	l.log.Info("sale reversed",
		zap.String("sale_id", saleID),
		zap.String("medicine_id", sale.MedicineID),
		zap.String("quantity", sale.QuantitySold.String()),
	)
	return result, nil
}

func (l *Ledger) reverse(ctx context.Context, s *store.Store, saleID string) (*ReversalResult, error) {
	// Read again so the transaction sees the sale it deletes.
	sale, err := s.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	result := &ReversalResult{Sale: sale}

	medicine, err := s.GetMedicine(ctx, sale.MedicineID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		medicine.TotalStock = domain.Round2(medicine.TotalStock.Add(sale.QuantitySold))
		if l.mode == ModeLegacy {
			err = s.UpdateMedicine(ctx, medicine)
		} else {
			err = s.UpdateMedicineVersioned(ctx, medicine)
		}
		if err != nil {
			return nil, err
		}
		stock := medicine.TotalStock
		result.TotalStock = &stock
	}

	if err := s.DeleteSale(ctx, saleID); err != nil {
		return nil, err
	}
	return result, nil
}
