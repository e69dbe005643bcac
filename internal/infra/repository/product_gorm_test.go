package repository

import (
	"context"
	"testing"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
	repo "github.com/henriquelv/pharma-well-care/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductGorm_ListPublic_Filters(t *testing.T) {
	gdb := newTestDB(t)
	r := NewProductGormRepository(gdb)
	ctx := context.Background()

	dip := seedProduct(t, gdb, model.Product{Name: "Dipirona Sódica 500mg", ActiveIngredient: "Dipirona", Price: price("8.90"), Stock: 150, InStock: true})
	seedProduct(t, gdb, model.Product{Name: "Vitamina D3 2000UI", Category: "Vitaminas", Price: price("24.90"), Stock: 0, InStock: false})
	seedProduct(t, gdb, model.Product{Name: "Protetor Solar FPS 60", Category: "Dermocosméticos", Price: price("45.90"), Stock: 8, InStock: true})

	hidden := seedProduct(t, gdb, model.Product{Name: "Produto Oculto", Price: price("1.00"), InStock: true})
	require.NoError(t, gdb.Model(&model.Product{}).Where("id = ?", hidden.ID).Update("is_active", false).Error)

	base := repo.ProductListQuery{Page: 1, Limit: 20}

	items, total, err := r.ListPublic(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 3)

	q := base
	q.Q = "DIPIRONA"
	items, total, err = r.ListPublic(ctx, q)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, dip.ID, items[0].ID)

	q = base
	q.Category = "Vitaminas"
	_, total, err = r.ListPublic(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	inStock := true
	q = base
	q.InStock = &inStock
	_, total, err = r.ListPublic(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	min, max := price("10"), price("30")
	q = base
	q.MinPrice, q.MaxPrice = &min, &max
	items, _, err = r.ListPublic(ctx, q)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Vitamina D3 2000UI", items[0].Name)

	q = base
	q.Sort = "price_desc"
	items, _, err = r.ListPublic(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "Protetor Solar FPS 60", items[0].Name)

	q = base
	q.Sort = "name"
	items, _, err = r.ListPublic(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "Dipirona Sódica 500mg", items[0].Name)
}

func TestProductGorm_ListPublic_ByIDs(t *testing.T) {
	gdb := newTestDB(t)
	r := NewProductGormRepository(gdb)
	ctx := context.Background()

	a := seedProduct(t, gdb, model.Product{Name: "A", Price: price("1.00"), InStock: true})
	seedProduct(t, gdb, model.Product{Name: "B", Price: price("2.00"), InStock: true})

	items, total, err := r.ListPublic(ctx, repo.ProductListQuery{Page: 1, Limit: 10, IDs: []int64{a.ID}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, a.ID, items[0].ID)

	items, total, err = r.ListPublic(ctx, repo.ProductListQuery{Page: 1, Limit: 10, IDs: []int64{}})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestProductGorm_CRUD(t *testing.T) {
	gdb := newTestDB(t)
	r := NewProductGormRepository(gdb)
	ctx := context.Background()

	p, err := r.Create(ctx, model.Product{
		Name:          "Ibuprofeno 600mg",
		Price:         price("15.50"),
		OriginalPrice: decimal.NewNullDecimal(price("18.90")),
		Stock:         5,
		InStock:       true,
		IsActive:      true,
	})
	require.NoError(t, err)
	require.NotZero(t, p.ID)

	got, err := r.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(price("15.50")))
	assert.True(t, got.OriginalPrice.Valid)

	got.Name = "Ibuprofeno 400mg"
	got.InStock = false
	require.NoError(t, r.Update(ctx, got))

	got, err = r.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ibuprofeno 400mg", got.Name)
	assert.False(t, got.InStock)

	require.NoError(t, r.SoftDelete(ctx, p.ID))
	_, err = r.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	assert.ErrorIs(t, r.SoftDelete(ctx, p.ID), repo.ErrNotFound)
	assert.ErrorIs(t, r.Update(ctx, model.Product{ID: 999, Name: "x"}), repo.ErrNotFound)

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestInventoryGorm_SetStockFollowsInStock(t *testing.T) {
	gdb := newTestDB(t)
	inv := NewInventoryGormRepository(gdb)
	products := NewProductGormRepository(gdb)
	ctx := context.Background()

	p := seedProduct(t, gdb, model.Product{Name: "Omeprazol 20mg", Price: price("12.90"), Stock: 3, InStock: true})

	require.NoError(t, inv.SetStock(ctx, p.ID, 0))
	got, err := products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Stock)
	assert.False(t, got.InStock)

	require.NoError(t, inv.SetStock(ctx, p.ID, 40))
	got, _ = products.FindByID(ctx, p.ID)
	assert.True(t, got.InStock)

	assert.ErrorIs(t, inv.SetStock(ctx, 999, 1), repo.ErrNotFound)

	require.NoError(t, inv.CreateAdjustment(ctx, model.InventoryAdjustment{ProductID: p.ID, StaffUserID: 1, StockBefore: 3, StockAfter: 0, Reason: "quebra"}))
	require.NoError(t, inv.CreateAdjustment(ctx, model.InventoryAdjustment{ProductID: p.ID, StaffUserID: 1, StockBefore: 0, StockAfter: 40, Reason: "reposição"}))

	adjs, err := inv.ListAdjustments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, adjs, 2)
	assert.Equal(t, int64(40), adjs[0].Delta())
}

func TestCategoryGorm_CRUD(t *testing.T) {
	gdb := newTestDB(t)
	r := NewCategoryGormRepository(gdb)
	ctx := context.Background()

	v, err := r.Create(ctx, model.Category{Name: "Vitaminas", Icon: "💊", Color: "bg-green-500"})
	require.NoError(t, err)
	_, err = r.Create(ctx, model.Category{Name: "Analgésicos"})
	require.NoError(t, err)

	_, err = r.Create(ctx, model.Category{Name: "Vitaminas"})
	assert.Error(t, err, "name is unique")

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Analgésicos", list[0].Name)

	v.Description = "Suplementos"
	require.NoError(t, r.Update(ctx, v))
	got, err := r.FindByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Suplementos", got.Description)

	require.NoError(t, r.Delete(ctx, v.ID))
	_, err = r.FindByID(ctx, v.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
