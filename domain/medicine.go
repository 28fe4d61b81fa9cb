package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Formulation is the dosage form a medicine is dispensed in.
type Formulation string

const (
	FormulationTablet    Formulation = "Tablet"
	FormulationCapsule   Formulation = "Capsule"
	FormulationSyrup     Formulation = "Syrup"
	FormulationInjection Formulation = "Injection"
	FormulationOintment  Formulation = "Ointment"
	FormulationDrops     Formulation = "Drops"
	FormulationInhaler   Formulation = "Inhaler"
	FormulationOther     Formulation = "Other"
)

const (
	DefaultCategory = "General"
)

// DefaultReorderLevel is applied to medicines created without one.
var DefaultReorderLevel = decimal.NewFromInt(10)

// ParseFormulation maps free text onto a known formulation. Empty input
// yields Tablet, matching the catalog default.
func ParseFormulation(v string) (Formulation, bool) {
	if v == "" {
		return FormulationTablet, true
	}
	switch f := Formulation(v); f {
	case FormulationTablet, FormulationCapsule, FormulationSyrup, FormulationInjection,
		FormulationOintment, FormulationDrops, FormulationInhaler, FormulationOther:
		return f, true
	}
	return "", false
}

// Medicine is the master record for a product. TotalStock is a
// denormalized running total of its batch quantities.
type Medicine struct {
	MedicineID   string          `db:"medicine_id" json:"medicineId"`
	Name         string          `db:"name" json:"name"`
	Company      string          `db:"company" json:"company"`
	Formulation  Formulation     `db:"formulation" json:"formulation"`
	Category     string          `db:"category" json:"category"`
	TotalStock   decimal.Decimal `db:"total_stock" json:"totalStock"`
	ReorderLevel decimal.Decimal `db:"reorder_level" json:"reorderLevel"`
	BuyingPrice  decimal.Decimal `db:"buying_price" json:"buyingPrice"`
	SellingPrice decimal.Decimal `db:"selling_price" json:"sellingPrice"`
	Version      int64           `db:"version" json:"-"`
	DateAdded    time.Time       `db:"date_added" json:"dateAdded"`
}

func (m Medicine) NeedsRestock() bool {
	return m.TotalStock.LessThanOrEqual(m.ReorderLevel)
}

// MedicineView is the listing shape, carrying the derived restock flag.
type MedicineView struct {
	Medicine
	NeedsRestock bool `json:"needsRestock"`
}

func NewMedicineView(m Medicine) MedicineView {
	return MedicineView{Medicine: m, NeedsRestock: m.NeedsRestock()}
}
