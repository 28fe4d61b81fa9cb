package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polycare/m/domain"
	"polycare/m/internal/database"
	"polycare/m/internal/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := database.Connect(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(ctx, db))
	return New(db)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func sampleMedicine(id string) *domain.Medicine {
	return &domain.Medicine{
		MedicineID:   id,
		Name:         "Paracetamol 500mg",
		Company:      "Square",
		Formulation:  domain.FormulationTablet,
		Category:     domain.DefaultCategory,
		TotalStock:   dec("100"),
		ReorderLevel: domain.DefaultReorderLevel,
		BuyingPrice:  dec("10"),
		SellingPrice: dec("15"),
		DateAdded:    time.Now().UTC(),
	}
}

func TestMedicineRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := sampleMedicine("MED001")
	require.NoError(t, s.InsertMedicine(ctx, m))

	got, err := s.GetMedicine(ctx, "MED001")
	require.NoError(t, err)
	assert.Equal(t, "Paracetamol 500mg", got.Name)
	assert.True(t, got.TotalStock.Equal(dec("100")))
	assert.True(t, got.SellingPrice.Equal(dec("15")))
	assert.Equal(t, domain.FormulationTablet, got.Formulation)

	_, err = s.GetMedicine(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertMedicineDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertMedicine(ctx, sampleMedicine("MED001")))
	err := s.InsertMedicine(ctx, sampleMedicine("MED001"))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUpdateMedicineVersioned(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertMedicine(ctx, sampleMedicine("MED001")))

	first, err := s.GetMedicine(ctx, "MED001")
	require.NoError(t, err)
	stale, err := s.GetMedicine(ctx, "MED001")
	require.NoError(t, err)

	first.TotalStock = dec("90")
	require.NoError(t, s.UpdateMedicineVersioned(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	stale.TotalStock = dec("80")
	err = s.UpdateMedicineVersioned(ctx, stale)
	assert.ErrorIs(t, err, ErrConflict)

	got, err := s.GetMedicine(ctx, "MED001")
	require.NoError(t, err)
	assert.True(t, got.TotalStock.Equal(dec("90")))
}

func TestListLowStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	low := sampleMedicine("LOW")
	low.TotalStock = dec("10")
	require.NoError(t, s.InsertMedicine(ctx, low))
	require.NoError(t, s.InsertMedicine(ctx, sampleMedicine("OK")))

	got, err := s.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "LOW", got[0].MedicineID)
}

func TestListSellableBatchesOrdersByExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insert := func(number string, expiry time.Time, qty string) {
		require.NoError(t, s.InsertBatch(ctx, &domain.Batch{
			ID:           uuid.NewString(),
			MedicineID:   "MED001",
			BatchNumber:  number,
			ExpiryDate:   expiry,
			Quantity:     dec(qty),
			BuyingPrice:  dec("10"),
			DateReceived: now,
		}))
	}
	insert("LATE", now.AddDate(1, 0, 0), "5")
	insert("SOON", now.AddDate(0, 1, 0), "5")
	insert("EXPIRED", now.AddDate(0, 0, -1), "5")
	insert("EMPTY", now.AddDate(0, 2, 0), "0")

	got, err := s.ListSellableBatches(ctx, "MED001", now)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SOON", got[0].BatchNumber)
	assert.Equal(t, "LATE", got[1].BatchNumber)

	all, err := s.ListBatches(ctx, "MED001")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	expiring, err := s.ListExpiringBatches(ctx, now.AddDate(0, 1, 1))
	require.NoError(t, err)
	require.Len(t, expiring, 2)
	assert.Equal(t, "EXPIRED", expiring[0].BatchNumber)

	require.NoError(t, s.UpdateBatchQuantity(ctx, got[0].ID, dec("2")))
	after, err := s.ListSellableBatches(ctx, "MED001", now)
	require.NoError(t, err)
	assert.True(t, after[0].Quantity.Equal(dec("2")))
}

func TestSalesRangeAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i, day := range []int{0, 1, 2} {
		require.NoError(t, s.InsertSale(ctx, &domain.Sale{
			ID:                uuid.NewString(),
			MedicineID:        "MED001",
			Name:              "Paracetamol",
			QuantitySold:      dec("1"),
			TotalBuyingCost:   dec("10"),
			TotalSellingPrice: dec("15"),
			Profit:            dec("5"),
			PharmacistName:    "staff",
			Date:              base.AddDate(0, 0, day).Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := s.ListSales(ctx, base, base.AddDate(0, 0, 1).Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.After(got[1].Date))

	require.NoError(t, s.DeleteSale(ctx, got[0].ID))
	_, err = s.GetSale(ctx, got[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteSale(ctx, got[0].ID), ErrNotFound)
}

func TestAuditLatestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.AppendAudit(ctx, &domain.AuditLogEntry{
			ID:              uuid.NewString(),
			PharmacistName:  "staff",
			Action:          domain.AuditActionRestock,
			MedicineName:    "Paracetamol",
			BatchNumber:     "B1",
			QuantityChanged: decimal.NewFromInt(int64(i + 1)),
			Timestamp:       base.Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := s.ListAudit(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].QuantityChanged.Equal(dec("3")))
	assert.Equal(t, domain.AuditActionRestock, got[0].Action)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := &domain.User{ID: uuid.NewString(), Username: "rafi", Password: "hash", Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.ErrorIs(t, s.CreateUser(ctx, &domain.User{ID: uuid.NewString(), Username: "rafi", Password: "x", Role: domain.RolePharmacist, CreatedAt: now, UpdatedAt: now}), ErrDuplicate)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	u.FullName = "Rafi Ahmed"
	u.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, s.UpdateUser(ctx, u))

	got, err := s.GetUserByUsername(ctx, "rafi")
	require.NoError(t, err)
	assert.Equal(t, "Rafi Ahmed", got.FullName)

	byID, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "rafi", byID.Username)
}

func TestWithinTxRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx *Store) error {
		require.NoError(t, tx.InsertMedicine(ctx, sampleMedicine("MED001")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetMedicine(ctx, "MED001")
	assert.ErrorIs(t, err, ErrNotFound)
}
