package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"polycare/m/domain"
	"polycare/m/internal/database"
	"polycare/m/internal/ledger"
	"polycare/m/internal/migrations"
	"polycare/m/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	db, err := database.Connect(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(ctx, db))
	return store.New(db)
}

const openingCSV = `medicineId,name,company,formulation,category,quantity,buyingPrice,sellingPrice,batchNumber,expiryDate,receiptNo
MED001,Paracetamol 500mg,Square,Tablet,Analgesic,100,10,15,B1,2030-01-31,R-1
MED001,Paracetamol 500mg,Square,Tablet,Analgesic,50,11,16,B2,2030-06-30,
MED002,Amoxicillin 250mg,Beximco,Capsule,,abc,2,5,A1,2030-01-31,
MED003,Cough Syrup,Acme,Powder,,10,2,5,C1,2030-01-31,
MED004,ORS,Acme,Other,,0,1,2,O1,2030-01-31,
`

func TestLoadOpeningStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	l := ledger.New(s)

	rows, err := LoadOpeningStock(ctx, l, zap.NewNop(), strings.NewReader(openingCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	med, err := s.GetMedicine(ctx, "MED001")
	require.NoError(t, err)
	assert.Equal(t, "150", med.TotalStock.String())
	assert.Equal(t, "Analgesic", med.Category)

	_, err = s.GetMedicine(ctx, "MED002")
	assert.ErrorIs(t, err, store.ErrNotFound)

	entries, err := s.ListAudit(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, openingStockActor, entries[0].PharmacistName)
}

func TestLoadOpeningStockRejectsBadHeader(t *testing.T) {
	s := newTestStore(t)
	_, err := LoadOpeningStock(context.Background(), ledger.New(s), zap.NewNop(), strings.NewReader("id,title\n1,x\n"))
	assert.Error(t, err)
}

func TestLoadOpeningStockFileSkipsPopulatedCatalog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	l := ledger.New(s)
	path := filepath.Join(t.TempDir(), "stock.csv")
	require.NoError(t, os.WriteFile(path, []byte(openingCSV), 0o600))

	rows, err := LoadOpeningStockFile(ctx, s, l, zap.NewNop(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	rows, err = LoadOpeningStockFile(ctx, s, l, zap.NewNop(), path)
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestEnsureAdmin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, EnsureAdmin(ctx, s, zap.NewNop(), "", ""))
	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, EnsureAdmin(ctx, s, zap.NewNop(), "polly", "secret123"))
	require.NoError(t, EnsureAdmin(ctx, s, zap.NewNop(), "polly", "other"))

	u, err := s.GetUserByUsername(ctx, "polly")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secret123")))
}
