package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AuditAction string

const (
	AuditActionSale    AuditAction = "SALE"
	AuditActionRestock AuditAction = "RESTOCK"
)

// AuditLogEntry records one stock-affecting action. Entries are never
// updated or removed.
type AuditLogEntry struct {
	ID              string          `db:"id" json:"id"`
	PharmacistName  string          `db:"pharmacist_name" json:"pharmacistName"`
	Action          AuditAction     `db:"action" json:"action"`
	MedicineName    string          `db:"medicine_name" json:"medicineName"`
	BatchNumber     string          `db:"batch_number" json:"batchNumber"`
	QuantityChanged decimal.Decimal `db:"quantity_changed" json:"quantityChanged"`
	Details         string          `db:"details" json:"details"`
	Timestamp       time.Time       `db:"timestamp" json:"timestamp"`
}
