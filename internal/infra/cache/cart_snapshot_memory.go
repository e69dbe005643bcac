package cache

import (
	"context"
	"sync"
	"time"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
)

type memoryEntry struct {
	cart      model.Cart
	expiresAt time.Time // ゼロなら期限なし
}

// Redisが無い環境用。プロセスが落ちれば消える。
// ttlはRedis側のCART_SNAPSHOT_TTLと同じ意味で、期限切れはSave/Loadのたびに掃除する。
type CartSnapshotMemory struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	carts map[string]memoryEntry
}

func NewCartSnapshotMemory(ttl time.Duration) *CartSnapshotMemory {
	return &CartSnapshotMemory{
		ttl:   ttl,
		now:   time.Now,
		carts: map[string]memoryEntry{},
	}
}

func (m *CartSnapshotMemory) Save(_ context.Context, cart model.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.pruneLocked(now)

	e := memoryEntry{cart: cart.Snapshot()}
	if m.ttl > 0 {
		e.expiresAt = now.Add(m.ttl)
	}
	m.carts[cart.SessionID] = e
	return nil
}

func (m *CartSnapshotMemory) Load(_ context.Context, sessionID string) (model.Cart, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pruneLocked(m.now())
	e, ok := m.carts[sessionID]
	if !ok {
		return model.Cart{}, false, nil
	}
	return e.cart.Snapshot(), true, nil
}

func (m *CartSnapshotMemory) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

// 保持中の件数
func (m *CartSnapshotMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.carts)
}

func (m *CartSnapshotMemory) pruneLocked(now time.Time) {
	for id, e := range m.carts {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(m.carts, id)
		}
	}
}
