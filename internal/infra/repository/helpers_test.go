package repository

import (
	"context"
	"testing"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
	"github.com/henriquelv/pharma-well-care/internal/infra/db"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(context.Background(), sqlite.Open(":memory:"), true)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedProduct(t *testing.T, gdb *gorm.DB, p model.Product) model.Product {
	t.Helper()
	if p.Category == "" {
		p.Category = "Analgésicos"
	}
	p.IsActive = true
	require.NoError(t, gdb.Create(&p).Error)
	return p
}
