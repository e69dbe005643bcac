package usecase

import (
	"context"
	"time"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
)

// コミット後の注文イベント送信先（Kafkaなど）
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, evt model.OrderEvent) error
}

// 商品の全文検索インデックス（Elasticsearchなど）
// DBが正、インデックスはベストエフォートで追従する。
type ProductSearchIndex interface {
	IndexProduct(ctx context.Context, p model.Product) error
	DeleteProduct(ctx context.Context, productID int64) error
	SearchProductIDs(ctx context.Context, query string, size int) ([]int64, error)
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
