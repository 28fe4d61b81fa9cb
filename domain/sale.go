package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sale struct {
	ID                string          `db:"id" json:"id"`
	MedicineID        string          `db:"medicine_id" json:"medicineId"`
	Name              string          `db:"name" json:"name"`
	QuantitySold      decimal.Decimal `db:"quantity_sold" json:"quantitySold"`
	TotalBuyingCost   decimal.Decimal `db:"total_buying_cost" json:"totalBuyingCost"`
	TotalSellingPrice decimal.Decimal `db:"total_selling_price" json:"totalSellingPrice"`
	Profit            decimal.Decimal `db:"profit" json:"profit"`
	PharmacistID      string          `db:"pharmacist_id" json:"pharmacistId,omitempty"`
	PharmacistName    string          `db:"pharmacist_name" json:"pharmacistName"`
	Date              time.Time       `db:"date" json:"date"`
}
