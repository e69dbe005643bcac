package model_test

import (
	"testing"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProduct_DiscountPercent(t *testing.T) {
	p := model.Product{
		Price:         dec("8.90"),
		OriginalPrice: decimal.NewNullDecimal(dec("12.50")),
	}
	assert.Equal(t, int64(29), p.DiscountPercent())

	p.OriginalPrice = decimal.NewNullDecimal(dec("52.90"))
	p.Price = dec("45.90")
	assert.Equal(t, int64(13), p.DiscountPercent())

	//元価格なし・元価格の方が安い
	p.OriginalPrice = decimal.NullDecimal{}
	assert.Equal(t, int64(0), p.DiscountPercent())
	p.OriginalPrice = decimal.NewNullDecimal(dec("40.00"))
	assert.Equal(t, int64(0), p.DiscountPercent())
}

func TestProduct_LowStockAndValue(t *testing.T) {
	p := model.Product{Price: dec("15.50"), Stock: 9}
	assert.True(t, p.IsLowStock(model.DefaultLowStockThreshold))
	assert.Equal(t, "139.50", p.StockValue().StringFixed(2))

	p.Stock = 10
	assert.False(t, p.IsLowStock(model.DefaultLowStockThreshold))
}
