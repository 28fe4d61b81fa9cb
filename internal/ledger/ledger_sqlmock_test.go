package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polycare/m/internal/store"
)

var medicineCols = []string{
	"medicine_id", "name", "company", "formulation", "category", "total_stock",
	"reorder_level", "buying_price", "selling_price", "version", "date_added",
}

func newMockLedger(t *testing.T, opts ...Option) (*Ledger, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	clock := &testClock{now: baseTime}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(store.New(sqlx.NewDb(db, "sqlmock")), opts...), mock
}

func medicineRow(stock string) *sqlmock.Rows {
	return sqlmock.NewRows(medicineCols).
		AddRow("MED001", "Paracetamol 500mg", "Square", "Tablet", "General", stock, "10", "10", "15", int64(3), baseTime)
}

func TestLegacyInsufficientStockOnlyReads(t *testing.T) {
	l, mock := newMockLedger(t, WithMode(ModeLegacy))

	mock.ExpectQuery(`SELECT .+ FROM medicines WHERE medicine_id = \?`).
		WithArgs("MED001").
		WillReturnRows(medicineRow("5"))

	_, err := l.Checkout(context.Background(), CheckoutInput{MedicineID: "MED001", QuantitySold: dec("6")})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAtomicInsufficientStockRollsBackEmptyTransaction(t *testing.T) {
	l, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM medicines WHERE medicine_id = \?`).
		WithArgs("MED001").
		WillReturnRows(medicineRow("5"))
	mock.ExpectRollback()

	_, err := l.Checkout(context.Background(), CheckoutInput{MedicineID: "MED001", QuantitySold: dec("6")})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAtomicCheckoutReportsVersionConflict(t *testing.T) {
	l, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM medicines WHERE medicine_id = \?`).
		WithArgs("MED001").
		WillReturnRows(medicineRow("5"))
	mock.ExpectQuery(`SELECT .+ FROM batches WHERE medicine_id = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "medicine_id", "batch_number", "expiry_date", "quantity", "buying_price", "date_received"}).
			AddRow("b-1", "MED001", "B1", baseTime.AddDate(1, 0, 0), "5", "10", baseTime))
	mock.ExpectExec(`UPDATE batches SET quantity = \? WHERE id = \?`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE medicines SET .+ WHERE medicine_id = \? AND version = \?`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := l.Checkout(context.Background(), CheckoutInput{MedicineID: "MED001", QuantitySold: dec("2")})
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLegacyRestockIssuesAllWritesDespiteAuditFailure(t *testing.T) {
	l, mock := newMockLedger(t, WithMode(ModeLegacy))
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`SELECT .+ FROM medicines WHERE medicine_id = \?`).
		WithArgs("MED001").
		WillReturnRows(sqlmock.NewRows(medicineCols))
	mock.ExpectExec(`INSERT INTO medicines`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO batches`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).WillReturnError(errors.New("disk full"))

	_, err := l.Restock(context.Background(), restockInput("MED001", "B1", "10", "10", "15", baseTime.AddDate(1, 0, 0)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}
