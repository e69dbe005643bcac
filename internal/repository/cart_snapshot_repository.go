package repository

import (
	"context"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
)

// メモリ上のカートを外部に退避する先（Redisなど）
// 明示的なSave/Loadでだけ同期する。
type CartSnapshotRepository interface {
	Save(ctx context.Context, cart model.Cart) error
	// 無ければfound=false
	Load(ctx context.Context, sessionID string) (cart model.Cart, found bool, err error)
	Delete(ctx context.Context, sessionID string) error
}
