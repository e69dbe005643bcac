package repository

import (
	"context"
	"time"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	Email  string
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	//明細（Items）込みで返す
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	//Itemsは保存しない（OrderItemRepositoryで作る）
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, sessionID, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	//集計用（明細なし）
	ListAll(ctx context.Context) ([]model.Order, error)
}
