package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"polycare/m/domain"
)

const batchColumns = `id, medicine_id, batch_number, expiry_date, quantity, buying_price, date_received`

func (s *Store) InsertBatch(ctx context.Context, b *domain.Batch) error {
	_, err := s.exec(ctx, `INSERT INTO batches (`+batchColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.MedicineID, b.BatchNumber, b.ExpiryDate.UTC(), b.Quantity, b.BuyingPrice, b.DateReceived.UTC())
	if err != nil {
		return fmt.Errorf("insert batch %s: %w", b.BatchNumber, err)
	}
	return nil
}

func (s *Store) UpdateBatchQuantity(ctx context.Context, batchID string, quantity decimal.Decimal) error {
	if err := s.execOne(ctx, `UPDATE batches SET quantity = ? WHERE id = ?`, quantity, batchID); err != nil {
		return fmt.Errorf("update batch %s: %w", batchID, err)
	}
	return nil
}

// ListSellableBatches returns the medicine's unexpired batches that still
// hold stock, soonest expiry first.
func (s *Store) ListSellableBatches(ctx context.Context, medicineID string, now time.Time) ([]domain.Batch, error) {
	batches := []domain.Batch{}
	err := s.selectAll(ctx, &batches, `SELECT `+batchColumns+` FROM batches
                WHERE medicine_id = ? AND quantity > 0 AND expiry_date > ?
                ORDER BY expiry_date ASC, date_received ASC, id ASC`, medicineID, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("list sellable batches for %s: %w", medicineID, err)
	}
	return batches, nil
}

// ListBatches returns every batch of a medicine, including empty and
// expired ones.
func (s *Store) ListBatches(ctx context.Context, medicineID string) ([]domain.Batch, error) {
	batches := []domain.Batch{}
	if err := s.selectAll(ctx, &batches, `SELECT `+batchColumns+` FROM batches WHERE medicine_id = ? ORDER BY expiry_date ASC, date_received ASC, id ASC`, medicineID); err != nil {
		return nil, fmt.Errorf("list batches for %s: %w", medicineID, err)
	}
	return batches, nil
}

// ListStockedBatches returns all batches with quantity left, expired or not.
func (s *Store) ListStockedBatches(ctx context.Context) ([]domain.Batch, error) {
	batches := []domain.Batch{}
	if err := s.selectAll(ctx, &batches, `SELECT `+batchColumns+` FROM batches WHERE quantity > 0 ORDER BY medicine_id, expiry_date`); err != nil {
		return nil, fmt.Errorf("list stocked batches: %w", err)
	}
	return batches, nil
}

// ListExpiringBatches returns stocked batches expiring on or before until,
// including those already expired.
func (s *Store) ListExpiringBatches(ctx context.Context, until time.Time) ([]domain.Batch, error) {
	batches := []domain.Batch{}
	if err := s.selectAll(ctx, &batches, `SELECT `+batchColumns+` FROM batches WHERE quantity > 0 AND expiry_date <= ? ORDER BY expiry_date ASC`, until.UTC()); err != nil {
		return nil, fmt.Errorf("list expiring batches: %w", err)
	}
	return batches, nil
}
