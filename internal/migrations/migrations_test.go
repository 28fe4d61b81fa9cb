package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polycare/m/internal/database"
)

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := database.Connect(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Run(ctx, db))
	require.NoError(t, Run(ctx, db))

	var tables []string
	require.NoError(t, db.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`))
	assert.Equal(t, []string{"audit_logs", "batches", "medicines", "sales", "users"}, tables)
}
