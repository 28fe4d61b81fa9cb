package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBatchUnitCost(t *testing.T) {
	master := &Medicine{BuyingPrice: decimal.NewFromInt(8)}

	tests := []struct {
		name   string
		batch  Batch
		master *Medicine
		want   string
	}{
		{"batch price wins", Batch{BuyingPrice: decimal.NewFromInt(5)}, master, "5"},
		{"zero batch price falls back", Batch{}, master, "8"},
		{"no master", Batch{}, nil, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.batch.UnitCost(tt.master).String())
		})
	}
}

func TestBatchSellable(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, Batch{Quantity: decimal.NewFromInt(1), ExpiryDate: now.Add(time.Hour)}.Sellable(now))
	assert.False(t, Batch{Quantity: decimal.NewFromInt(1), ExpiryDate: now}.Sellable(now))
	assert.False(t, Batch{Quantity: decimal.Zero, ExpiryDate: now.Add(time.Hour)}.Sellable(now))
}

func TestParseFormulation(t *testing.T) {
	f, ok := ParseFormulation("")
	assert.True(t, ok)
	assert.Equal(t, FormulationTablet, f)

	f, ok = ParseFormulation("Syrup")
	assert.True(t, ok)
	assert.Equal(t, FormulationSyrup, f)

	_, ok = ParseFormulation("Powder")
	assert.False(t, ok)
}

func TestNeedsRestock(t *testing.T) {
	m := Medicine{TotalStock: decimal.NewFromInt(10), ReorderLevel: DefaultReorderLevel}
	assert.True(t, m.NeedsRestock())
	assert.True(t, NewMedicineView(m).NeedsRestock)

	m.TotalStock = decimal.NewFromInt(11)
	assert.False(t, NewMedicineView(m).NeedsRestock)
}

func TestRound2AndDisplayName(t *testing.T) {
	assert.Equal(t, "1.24", Round2(decimal.RequireFromString("1.235")).String())
	assert.Equal(t, "rafi", User{Username: "rafi"}.DisplayName())
	assert.Equal(t, "Rafi Ahmed", User{Username: "rafi", FullName: "Rafi Ahmed"}.DisplayName())
}
