package store

import (
	"context"
	"fmt"
	"time"

	"polycare/m/domain"
)

const saleColumns = `id, medicine_id, name, quantity_sold, total_buying_cost, total_selling_price, profit, pharmacist_id, pharmacist_name, date`

func (s *Store) InsertSale(ctx context.Context, sale *domain.Sale) error {
	_, err := s.exec(ctx, `INSERT INTO sales (`+saleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.MedicineID, sale.Name, sale.QuantitySold, sale.TotalBuyingCost, sale.TotalSellingPrice,
		sale.Profit, sale.PharmacistID, sale.PharmacistName, sale.Date.UTC())
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	var sale domain.Sale
	if err := s.get(ctx, &sale, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("get sale %s: %w", id, err)
	}
	return &sale, nil
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	if err := s.execOne(ctx, `DELETE FROM sales WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete sale %s: %w", id, err)
	}
	return nil
}

// ListSales returns sales dated within [from, to], newest first.
func (s *Store) ListSales(ctx context.Context, from, to time.Time) ([]domain.Sale, error) {
	sales := []domain.Sale{}
	err := s.selectAll(ctx, &sales, `SELECT `+saleColumns+` FROM sales WHERE date >= ? AND date <= ? ORDER BY date DESC, id DESC`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}
