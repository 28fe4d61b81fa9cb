package store

import (
	"context"
	"errors"
	"fmt"

	"polycare/m/domain"
)

const medicineColumns = `medicine_id, name, company, formulation, category, total_stock, reorder_level, buying_price, selling_price, version, date_added`

func (s *Store) GetMedicine(ctx context.Context, medicineID string) (*domain.Medicine, error) {
	var m domain.Medicine
	if err := s.get(ctx, &m, `SELECT `+medicineColumns+` FROM medicines WHERE medicine_id = ?`, medicineID); err != nil {
		return nil, fmt.Errorf("get medicine %s: %w", medicineID, err)
	}
	return &m, nil
}

func (s *Store) ListMedicines(ctx context.Context) ([]domain.Medicine, error) {
	medicines := []domain.Medicine{}
	if err := s.selectAll(ctx, &medicines, `SELECT `+medicineColumns+` FROM medicines ORDER BY name, medicine_id`); err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	return medicines, nil
}

// ListLowStock returns medicines at or below their reorder level.
func (s *Store) ListLowStock(ctx context.Context) ([]domain.Medicine, error) {
	medicines := []domain.Medicine{}
	if err := s.selectAll(ctx, &medicines, `SELECT `+medicineColumns+` FROM medicines WHERE total_stock <= reorder_level ORDER BY total_stock, name`); err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return medicines, nil
}

func (s *Store) InsertMedicine(ctx context.Context, m *domain.Medicine) error {
	_, err := s.exec(ctx, `INSERT INTO medicines (`+medicineColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.MedicineID, m.Name, m.Company, string(m.Formulation), m.Category, m.TotalStock, m.ReorderLevel,
		m.BuyingPrice, m.SellingPrice, m.Version, m.DateAdded.UTC())
	if err != nil {
		return fmt.Errorf("insert medicine %s: %w", m.MedicineID, err)
	}
	return nil
}

// UpdateMedicine overwrites the record unconditionally.
func (s *Store) UpdateMedicine(ctx context.Context, m *domain.Medicine) error {
	err := s.execOne(ctx, `UPDATE medicines SET name = ?, company = ?, formulation = ?, category = ?, total_stock = ?, reorder_level = ?, buying_price = ?, selling_price = ?, version = version + 1 WHERE medicine_id = ?`,
		m.Name, m.Company, string(m.Formulation), m.Category, m.TotalStock, m.ReorderLevel, m.BuyingPrice, m.SellingPrice, m.MedicineID)
	if err != nil {
		return fmt.Errorf("update medicine %s: %w", m.MedicineID, err)
	}
	m.Version++
	return nil
}

// UpdateMedicineVersioned writes the record only if nobody else has
// written it since m was read. It returns ErrConflict otherwise.
func (s *Store) UpdateMedicineVersioned(ctx context.Context, m *domain.Medicine) error {
	err := s.execOne(ctx, `UPDATE medicines SET name = ?, company = ?, formulation = ?, category = ?, total_stock = ?, reorder_level = ?, buying_price = ?, selling_price = ?, version = version + 1 WHERE medicine_id = ? AND version = ?`,
		m.Name, m.Company, string(m.Formulation), m.Category, m.TotalStock, m.ReorderLevel, m.BuyingPrice, m.SellingPrice, m.MedicineID, m.Version)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("update medicine %s at version %d: %w", m.MedicineID, m.Version, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("update medicine %s: %w", m.MedicineID, err)
	}
	m.Version++
	return nil
}
