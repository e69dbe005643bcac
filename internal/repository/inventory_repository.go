package repository

import (
	"context"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫の現在値を設定（in_stockも追従）
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error

	ListAdjustments(ctx context.Context, productID int64) ([]model.InventoryAdjustment, error)
}
