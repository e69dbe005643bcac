package usecase

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
	repo "github.com/henriquelv/pharma-well-care/internal/repository"

	"github.com/shopspring/decimal"
)

// 在庫少なめの一覧に載せる件数
const lowStockListSize = 5

type CategoryStats struct {
	Name       string          `json:"name"`
	Products   int64           `json:"products"`
	StockValue decimal.Decimal `json:"stock_value"`
}

type LowStockProduct struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Stock    int64  `json:"stock"`
}

// 管理画面ダッシュボードの集計値
type DashboardStats struct {
	TotalProducts     int64             `json:"total_products"`
	AvailableProducts int64             `json:"available_products"`
	TodayOrders       int64             `json:"today_orders"`
	TotalOrders       int64             `json:"total_orders"`
	TotalRevenue      decimal.Decimal   `json:"total_revenue"`
	AverageOrderValue decimal.Decimal   `json:"average_order_value"`
	LowStock          int64             `json:"low_stock"`
	TotalStockValue   decimal.Decimal   `json:"total_stock_value"`
	Categories        []CategoryStats   `json:"categories"`
	LowStockProducts  []LowStockProduct `json:"low_stock_products"`
}

// ComputeDashboardStats は商品と注文の一覧から集計する（I/Oなし）。
// 「今日」はnowのロケーションの暦日で判定する。
// 売上はステータスに関係なく全注文の合計。
func ComputeDashboardStats(products []model.Product, orders []model.Order, now time.Time, lowStockThreshold int64) DashboardStats {
	st := DashboardStats{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		TotalStockValue:   decimal.Zero,
		Categories:        []CategoryStats{},
		LowStockProducts:  []LowStockProduct{},
	}

	byCategory := map[string]*CategoryStats{}
	for _, p := range products {
		st.TotalProducts++
		if p.Stock > 0 {
			st.AvailableProducts++
		}
		if p.IsLowStock(lowStockThreshold) {
			st.LowStock++
			if len(st.LowStockProducts) < lowStockListSize {
				st.LowStockProducts = append(st.LowStockProducts, LowStockProduct{
					ID: p.ID, Name: p.Name, Category: p.Category, Stock: p.Stock,
				})
			}
		}

		value := p.StockValue()
		st.TotalStockValue = st.TotalStockValue.Add(value)

		cs, ok := byCategory[p.Category]
		if !ok {
			cs = &CategoryStats{Name: p.Category, StockValue: decimal.Zero}
			byCategory[p.Category] = cs
		}
		cs.Products++
		cs.StockValue = cs.StockValue.Add(value)
	}

	for _, cs := range byCategory {
		st.Categories = append(st.Categories, *cs)
	}
	sort.Slice(st.Categories, func(i, j int) bool {
		return st.Categories[i].Name < st.Categories[j].Name
	})

	y, m, d := now.Date()
	for _, o := range orders {
		st.TotalOrders++
		st.TotalRevenue = st.TotalRevenue.Add(o.TotalPrice)

		oy, om, od := o.CreatedAt.In(now.Location()).Date()
		if oy == y && om == m && od == d {
			st.TodayOrders++
		}
	}
	if st.TotalOrders > 0 {
		st.AverageOrderValue = st.TotalRevenue.Div(decimal.NewFromInt(st.TotalOrders)).Round(2)
	}

	return st
}

type DashboardUsecase struct {
	productRepo repo.ProductRepository
	orderRepo   repo.OrderRepository
	clock       Clock
	loc         *time.Location
	threshold   int64
}

func NewDashboardUsecase(
	productRepo repo.ProductRepository,
	orderRepo repo.OrderRepository,
	clock Clock,
	loc *time.Location,
	lowStockThreshold int64,
) *DashboardUsecase {
	if loc == nil {
		loc = time.UTC
	}
	if lowStockThreshold < 1 {
		lowStockThreshold = model.DefaultLowStockThreshold
	}
	return &DashboardUsecase{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		clock:       clock,
		loc:         loc,
		threshold:   lowStockThreshold,
	}
}

// 毎回全件を読む
func (u *DashboardUsecase) Stats(ctx context.Context) (DashboardStats, error) {
	products, err := u.productRepo.ListAll(ctx)
	if err != nil {
		return DashboardStats{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	orders, err := u.orderRepo.ListAll(ctx)
	if err != nil {
		return DashboardStats{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return ComputeDashboardStats(products, orders, u.clock.Now().In(u.loc), u.threshold), nil
}
