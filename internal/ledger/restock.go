package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"polycare/m/domain"
	"polycare/m/internal/store"
)

type RestockInput struct {
	MedicineID   string
	Name         string
	Company      string
	Formulation  domain.Formulation
	Category     string
	ReorderLevel *decimal.Decimal
	Quantity     decimal.Decimal
	BuyingPrice  decimal.Decimal
	SellingPrice decimal.Decimal
	BatchNumber  string
	ExpiryDate   time.Time
	ReceiptNo    string
	// PharmacistName is used for attribution only when no verified actor
	// is attached to the context.
	PharmacistName string
}

type RestockResult struct {
	Medicine   *domain.Medicine
	Batch      *domain.Batch
	TotalStock decimal.Decimal
	Message    string
}

func (in RestockInput) validate() error {
	if !in.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if in.BuyingPrice.IsNegative() || in.SellingPrice.IsNegative() {
		return ErrInvalidPrice
	}
	if in.ReorderLevel != nil && in.ReorderLevel.IsNegative() {
		return fmt.Errorf("%w: reorder level must be zero or greater", ErrInvalidInput)
	}
	if strings.TrimSpace(in.MedicineID) == "" {
		return fmt.Errorf("%w: medicine id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.BatchNumber) == "" {
		return fmt.Errorf("%w: batch number is required", ErrInvalidInput)
	}
	if in.ExpiryDate.IsZero() {
		return fmt.Errorf("%w: expiry date is required", ErrInvalidInput)
	}
	return nil
}

// Restock receives a batch: the medicine is created or its master prices
// and running total updated, a batch row is added and a RESTOCK entry is
// appended to the audit trail.
func (l *Ledger) Restock(ctx context.Context, in RestockInput) (*RestockResult, error) {
	in.Quantity = domain.Round2(in.Quantity)
	in.BuyingPrice = domain.Round2(in.BuyingPrice)
	in.SellingPrice = domain.Round2(in.SellingPrice)
	if err := in.validate(); err != nil {
		return nil, err
	}

	var result *RestockResult
	err := l.run(ctx, in.MedicineID, func(s *store.Store) error {
		var err error
		if l.mode == ModeLegacy {
			result, err = l.restockConcurrently(ctx, s, in)
		} else {
			result, err = l.restockSequentially(ctx, s, in)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	l.recorder.RestockRecorded()
	l.changed(ctx)
	l.log.Info("stock received",
		zap.String("medicine_id", in.MedicineID),
		zap.String("batch", in.BatchNumber),
		zap.String("quantity", in.Quantity.String()),
		zap.String("total_stock", result.TotalStock.String()),
	)
	return result, nil
}

// prepareRestock reads the medicine and builds the three records to write.
func (l *Ledger) prepareRestock(ctx context.Context, s *store.Store, in RestockInput) (medicine *domain.Medicine, isNew bool, batch *domain.Batch, entry *domain.AuditLogEntry, err error) {
	now := l.timestamp()

	medicine, err = s.GetMedicine(ctx, in.MedicineID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		isNew = true
		formulation := in.Formulation
		if formulation == "" {
			formulation = domain.FormulationTablet
		}
		category := in.Category
		if category == "" {
			category = domain.DefaultCategory
		}
		reorder := domain.DefaultReorderLevel
		if in.ReorderLevel != nil {
			reorder = domain.Round2(*in.ReorderLevel)
		}
		medicine = &domain.Medicine{
			MedicineID:   in.MedicineID,
			Name:         in.Name,
			Company:      in.Company,
			Formulation:  formulation,
			Category:     category,
			TotalStock:   in.Quantity,
			ReorderLevel: reorder,
			BuyingPrice:  in.BuyingPrice,
			SellingPrice: in.SellingPrice,
			DateAdded:    now,
		}
	case err != nil:
		return nil, false, nil, nil, err
	default:
		medicine.BuyingPrice = in.BuyingPrice
		medicine.SellingPrice = in.SellingPrice
		medicine.TotalStock = domain.Round2(medicine.TotalStock.Add(in.Quantity))
	}

	batch = &domain.Batch{
		ID:           l.newID(),
		MedicineID:   in.MedicineID,
		BatchNumber:  in.BatchNumber,
		ExpiryDate:   in.ExpiryDate.UTC(),
		Quantity:     in.Quantity,
		BuyingPrice:  in.BuyingPrice,
		DateReceived: now,
	}

	receipt := in.ReceiptNo
	if receipt == "" {
		receipt = "N/A"
	}
	medicineName := in.Name
	if medicineName == "" {
		medicineName = medicine.Name
	}
	_, actorName := attribution(ctx, in.PharmacistName)
	entry = &domain.AuditLogEntry{
		ID:              l.newID(),
		PharmacistName:  actorName,
		Action:          domain.AuditActionRestock,
		MedicineName:    medicineName,
		BatchNumber:     in.BatchNumber,
		QuantityChanged: in.Quantity,
		Details:         fmt.Sprintf("Received %s units at %s. Batch: %s. Receipt: %s", in.Quantity.String(), in.BuyingPrice.String(), in.BatchNumber, receipt),
		Timestamp:       now,
	}
	return medicine, isNew, batch, entry, nil
}

func (l *Ledger) restockSequentially(ctx context.Context, s *store.Store, in RestockInput) (*RestockResult, error) {
	medicine, isNew, batch, entry, err := l.prepareRestock(ctx, s, in)
	if err != nil {
		return nil, err
	}
	if isNew {
		err = s.InsertMedicine(ctx, medicine)
	} else {
		err = s.UpdateMedicineVersioned(ctx, medicine)
	}
	if err != nil {
		return nil, err
	}
	if err := s.InsertBatch(ctx, batch); err != nil {
		return nil, err
	}
	if err := s.AppendAudit(ctx, entry); err != nil {
		return nil, err
	}
	return restockResult(in, medicine, batch), nil
}

// restockConcurrently issues the medicine, batch and audit writes at once.
// A failed write does not undo the others.
func (l *Ledger) restockConcurrently(ctx context.Context, s *store.Store, in RestockInput) (*RestockResult, error) {
	medicine, isNew, batch, entry, err := l.prepareRestock(ctx, s, in)
	if err != nil {
		return nil, err
	}
	var g errgroup.Group
	g.Go(func() error {
		if isNew {
			return s.InsertMedicine(ctx, medicine)
		}
		return s.UpdateMedicine(ctx, medicine)
	})
	g.Go(func() error { return s.InsertBatch(ctx, batch) })
	g.Go(func() error { return s.AppendAudit(ctx, entry) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return restockResult(in, medicine, batch), nil
}

func restockResult(in RestockInput, medicine *domain.Medicine, batch *domain.Batch) *RestockResult {
	name := in.Name
	if name == "" {
		name = medicine.Name
	}
	return &RestockResult{
		Medicine:   medicine,
		Batch:      batch,
		TotalStock: medicine.TotalStock,
		Message:    fmt.Sprintf("Stock updated: %s (Batch %s)", name, in.BatchNumber),
	}
}
