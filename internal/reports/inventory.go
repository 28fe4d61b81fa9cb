package reports

import (
	"context"
	"math"
	"time"

	"polycare/m/domain"
)

func (s *Service) Medicines(ctx context.Context) ([]domain.MedicineView, error) {
	medicines, err := s.store.ListMedicines(ctx)
	if err != nil {
		return nil, err
	}
	return views(medicines), nil
}

// LowStock lists medicines at or below their reorder level.
func (s *Service) LowStock(ctx context.Context) ([]domain.MedicineView, error) {
	medicines, err := s.store.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return views(medicines), nil
}

// SellableBatches lists the batches checkout would draw from, in the
// order it would draw from them.
func (s *Service) SellableBatches(ctx context.Context, medicineID string) ([]domain.Batch, error) {
	return s.store.ListSellableBatches(ctx, medicineID, s.now())
}

type ExpiryAlert struct {
	domain.Batch
	Name     string `json:"name"`
	DaysLeft int    `json:"daysLeft"`
	Expired  bool   `json:"expired"`
}

// ExpiryAlerts lists stocked batches that expire within days, including
// those already expired, soonest first.
func (s *Service) ExpiryAlerts(ctx context.Context, days int) ([]ExpiryAlert, error) {
	if days <= 0 {
		days = DefaultExpiryDays
	}
	now := s.now()
	batches, err := s.store.ListExpiringBatches(ctx, now.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	masters, err := s.medicineIndex(ctx)
	if err != nil {
		return nil, err
	}

	alerts := make([]ExpiryAlert, 0, len(batches))
	for _, b := range batches {
		name := unknownProductName
		if m := masters[b.MedicineID]; m != nil {
			name = m.Name
		}
		alerts = append(alerts, ExpiryAlert{
			Batch:    b,
			Name:     name,
			DaysLeft: int(math.Ceil(b.ExpiryDate.Sub(now).Hours() / 24)),
			Expired:  !b.ExpiryDate.After(now),
		})
	}
	return alerts, nil
}

// AuditLogs returns the latest audit entries, newest first.
func (s *Service) AuditLogs(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	return s.store.ListAudit(ctx, limit)
}

func views(medicines []domain.Medicine) []domain.MedicineView {
	out := make([]domain.MedicineView, 0, len(medicines))
	for _, m := range medicines {
		out = append(out, domain.NewMedicineView(m))
	}
	return out
}

// ParseDay reads a YYYY-MM-DD date in the service's location. An empty
// value means today.
func (s *Service) ParseDay(value string) (time.Time, error) {
	if value == "" {
		return s.now().In(s.loc), nil
	}
	return time.ParseInLocation("2006-01-02", value, s.loc)
}
