package database

import (
	"path/filepath"
	"testing"

	"stockfolio-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MemoryMigratesAndPings(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	require.NoError(t, Ping(db))

	assert.True(t, db.Migrator().HasTable(&domain.Portfolio{}))
	assert.True(t, db.Migrator().HasTable(&domain.Holding{}))
	assert.True(t, db.Migrator().HasTable(&domain.PriceQuote{}))
	assert.True(t, db.Migrator().HasIndex(&domain.Holding{}, "idx_holdings_portfolio_symbol"))
}

func TestOpen_SQLiteURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := Open("sqlite://" + path)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	p := domain.Portfolio{Name: "Growth", UserID: "u1"}
	require.NoError(t, db.Omit("Holdings").Create(&p).Error)

	var got domain.Portfolio
	require.NoError(t, db.First(&got, "portfolio_id = ?", p.PortfolioID).Error)
	assert.Equal(t, "Growth", got.Name)
}

func TestIsPostgres(t *testing.T) {
	assert.True(t, isPostgres("postgres://u:p@localhost/db"))
	assert.True(t, isPostgres("postgresql://u:p@localhost/db"))
	assert.False(t, isPostgres("stockfolio.db"))
	assert.False(t, isPostgres(":memory:"))
}
