package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
	"github.com/henriquelv/pharma-well-care/internal/logging"
	repo "github.com/henriquelv/pharma-well-care/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 1セッション分のカートと、その唯一の更新者を保証するロック
type cartSession struct {
	mu       sync.Mutex
	cart     *model.Cart
	lastSeen time.Time
	evicted  bool
}

// CartUsecase は /cart の業務ロジックです。
// カートはセッションごとにメモリ上に持ち、Save/Loadのときだけ外部ストアと同期する。
type CartUsecase struct {
	productRepo repo.ProductRepository
	snapshots   repo.CartSnapshotRepository
	clock       Clock

	// janitorが退避したセッション。次のアクセスでスナップショットから戻す。
	parkedFor time.Duration

	mu       sync.Mutex
	sessions map[string]*cartSession
	parked   map[string]time.Time
}

func NewCartUsecase(
	productRepo repo.ProductRepository,
	snapshots repo.CartSnapshotRepository,
	clock Clock,
	snapshotTTL time.Duration,
) *CartUsecase {
	return &CartUsecase{
		productRepo: productRepo,
		snapshots:   snapshots,
		clock:       clock,
		parkedFor:   snapshotTTL,
		sessions:    map[string]*cartSession{},
		parked:      map[string]time.Time{},
	}
}

type CartItemResponse struct {
	ProductID            int64               `json:"product_id"`
	Name                 string              `json:"name"`
	Price                decimal.Decimal     `json:"price"`
	OriginalPrice        decimal.NullDecimal `json:"original_price"`
	ImageURL             string              `json:"image_url"`
	PrescriptionRequired bool                `json:"prescription_required"`
	Quantity             int64               `json:"quantity"`
	Subtotal             decimal.Decimal     `json:"subtotal"`
}

type CartResponse struct {
	SessionID  string             `json:"session_id"`
	Items      []CartItemResponse `json:"items"`
	TotalItems int64              `json:"total_items"`
	TotalPrice decimal.Decimal    `json:"total_price"`
	Notice     *model.CartNotice  `json:"notice,omitempty"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

// セッションを取り出してロックする。
// janitorに退避されたセッションなら、作り直すときにスナップショットから中身を戻す。
func (u *CartUsecase) acquire(ctx context.Context, sessionID string) (*cartSession, error) {
	for {
		u.mu.Lock()
		s, ok := u.sessions[sessionID]
		if !ok {
			s = &cartSession{cart: model.NewCart(sessionID)}
			_, wasParked := u.parked[sessionID]
			//他のリクエストは復元が終わるまでs.muで待つ
			s.mu.Lock()
			u.sessions[sessionID] = s
			u.mu.Unlock()

			if wasParked {
				if err := u.unpark(ctx, s); err != nil {
					s.evicted = true
					s.mu.Unlock()
					u.mu.Lock()
					if u.sessions[sessionID] == s {
						delete(u.sessions, sessionID)
					}
					u.mu.Unlock()
					return nil, err
				}
			}
			s.lastSeen = u.clock.Now()
			return s, nil
		}
		u.mu.Unlock()

		s.mu.Lock()
		if s.evicted {
			s.mu.Unlock()
			continue
		}
		s.lastSeen = u.clock.Now()
		return s, nil
	}
}

// s.muを持った状態で呼ぶ
func (u *CartUsecase) unpark(ctx context.Context, s *cartSession) error {
	sessionID := s.cart.SessionID
	snap, found, err := u.snapshots.Load(ctx, sessionID)
	if err != nil {
		logging.FromContext(ctx).Error("parked cart load failed", zap.String("session_id", sessionID), zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "snapshot store error")
	}
	if found {
		s.cart.Lines = append(s.cart.Lines, snap.Lines...)
		s.cart.UpdatedAt = snap.UpdatedAt
	}

	u.mu.Lock()
	delete(u.parked, sessionID)
	u.mu.Unlock()
	return nil
}

// WithCart はセッションのカートをロックしたままfnを実行する。
// チェックアウトのように「読む→永続化→クリア」を一続きにしたいときに使う。
func (u *CartUsecase) WithCart(ctx context.Context, sessionID string, fn func(c *model.Cart) error) error {
	if sessionID == "" {
		return NewHTTPError(http.StatusBadRequest, "cart session required")
	}
	s, err := u.acquire(ctx, sessionID)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()
	return fn(s.cart)
}

func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (CartResponse, error) {
	var out CartResponse
	err := u.WithCart(ctx, sessionID, func(c *model.Cart) error {
		out = toCartResponse(c, nil)
		return nil
	})
	return out, err
}

// AddToCart はカートに追加（同一商品は数量加算）。在庫なしは警告だけ返す。
func (u *CartUsecase) AddToCart(ctx context.Context, sessionID string, in AddCartInput) (CartResponse, error) {
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// 商品チェック（公開のみ）
	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}

	var out CartResponse
	err = u.WithCart(ctx, sessionID, func(c *model.Cart) error {
		notice, err := c.AddToCart(p, in.Quantity)
		if err != nil {
			return NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
		out = toCartResponse(c, &notice)
		return nil
	})
	return out, err
}

// 無い商品の削除は何もしない
func (u *CartUsecase) RemoveFromCart(ctx context.Context, sessionID string, productID int64) (CartResponse, error) {
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	var out CartResponse
	err := u.WithCart(ctx, sessionID, func(c *model.Cart) error {
		notice, ok := c.RemoveFromCart(productID)
		if ok {
			out = toCartResponse(c, &notice)
			return nil
		}
		out = toCartResponse(c, nil)
		return nil
	})
	return out, err
}

// 数量は絶対値。0以下は削除。
func (u *CartUsecase) UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int64) (CartResponse, error) {
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	var out CartResponse
	err := u.WithCart(ctx, sessionID, func(c *model.Cart) error {
		notice, ok := c.UpdateQuantity(productID, quantity)
		if ok && notice.Kind != "" {
			out = toCartResponse(c, &notice)
			return nil
		}
		out = toCartResponse(c, nil)
		return nil
	})
	return out, err
}

func (u *CartUsecase) ClearCart(ctx context.Context, sessionID string) (CartResponse, error) {
	var out CartResponse
	err := u.WithCart(ctx, sessionID, func(c *model.Cart) error {
		notice := c.ClearCart()
		out = toCartResponse(c, &notice)
		return nil
	})
	return out, err
}

// SaveCart は現在のカートを退避ストアに書く
func (u *CartUsecase) SaveCart(ctx context.Context, sessionID string) (CartResponse, error) {
	var out CartResponse
	err := u.WithCart(ctx, sessionID, func(c *model.Cart) error {
		if err := u.snapshots.Save(ctx, c.Snapshot()); err != nil {
			logging.FromContext(ctx).Error("cart snapshot save failed", zap.String("session_id", sessionID), zap.Error(err))
			return NewHTTPError(http.StatusInternalServerError, "snapshot store error")
		}
		out = toCartResponse(c, nil)
		return nil
	})
	return out, err
}

// LoadCart は退避ストアからカートを読み、メモリ上のカートを置き換える。
// スナップショットが無ければ空のカートになる。
func (u *CartUsecase) LoadCart(ctx context.Context, sessionID string) (CartResponse, error) {
	var out CartResponse
	err := u.WithCart(ctx, sessionID, func(c *model.Cart) error {
		snap, found, err := u.snapshots.Load(ctx, sessionID)
		if err != nil {
			logging.FromContext(ctx).Error("cart snapshot load failed", zap.String("session_id", sessionID), zap.Error(err))
			return NewHTTPError(http.StatusInternalServerError, "snapshot store error")
		}

		c.Lines = []model.CartLine{}
		if found {
			c.Lines = append(c.Lines, snap.Lines...)
			c.UpdatedAt = snap.UpdatedAt
		}
		out = toCartResponse(c, nil)
		return nil
	})
	return out, err
}

// FlushAll は停止時に空でないカートを全部退避する
func (u *CartUsecase) FlushAll(ctx context.Context) error {
	u.mu.Lock()
	sessions := make([]*cartSession, 0, len(u.sessions))
	for _, s := range u.sessions {
		sessions = append(sessions, s)
	}
	u.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		s.mu.Lock()
		if !s.evicted && !s.cart.IsEmpty() {
			if err := u.snapshots.Save(ctx, s.cart.Snapshot()); err != nil {
				errs = append(errs, err)
			}
		}
		s.mu.Unlock()
	}
	return errors.Join(errs...)
}

// EvictIdle はidle以上触られていないセッションを退避してメモリから外す。
// 空でないカートは次のアクセスで戻る。退避に失敗したセッションは残す。
func (u *CartUsecase) EvictIdle(ctx context.Context, idle time.Duration) int {
	now := u.clock.Now()

	u.mu.Lock()
	candidates := make(map[string]*cartSession)
	for id, s := range u.sessions {
		candidates[id] = s
	}
	//スナップショットが期限切れなら戻す物も無い
	if u.parkedFor > 0 {
		for id, at := range u.parked {
			if now.Sub(at) >= u.parkedFor {
				delete(u.parked, id)
			}
		}
	}
	u.mu.Unlock()

	evicted := 0
	for id, s := range candidates {
		s.mu.Lock()
		if s.evicted || now.Sub(s.lastSeen) < idle {
			s.mu.Unlock()
			continue
		}
		keep := !s.cart.IsEmpty()
		if keep {
			if err := u.snapshots.Save(ctx, s.cart.Snapshot()); err != nil {
				logging.FromContext(ctx).Warn("cart eviction skipped", zap.String("session_id", id), zap.Error(err))
				s.mu.Unlock()
				continue
			}
		}
		s.evicted = true

		//s.muを持ったまま入れ替えるので、同じidの次のacquireは必ずparkedを見る
		u.mu.Lock()
		if u.sessions[id] == s {
			delete(u.sessions, id)
		}
		if keep {
			u.parked[id] = now
		}
		u.mu.Unlock()
		s.mu.Unlock()
		evicted++
	}
	return evicted
}

// RunJanitor はctxが終わるまでinterval毎にEvictIdleを回す
func (u *CartUsecase) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := u.EvictIdle(ctx, idle); n > 0 {
				logging.FromContext(ctx).Info("idle carts evicted", zap.Int("count", n))
			}
		}
	}
}

// メモリ上のセッション数
func (u *CartUsecase) SessionCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.sessions)
}

func toCartResponse(c *model.Cart, notice *model.CartNotice) CartResponse {
	items := make([]CartItemResponse, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, CartItemResponse{
			ProductID:            l.ProductID,
			Name:                 l.Name,
			Price:                l.Price,
			OriginalPrice:        l.OriginalPrice,
			ImageURL:             l.ImageURL,
			PrescriptionRequired: l.PrescriptionRequired,
			Quantity:             l.Quantity,
			Subtotal:             l.Subtotal(),
		})
	}

	return CartResponse{
		SessionID:  c.SessionID,
		Items:      items,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
		Notice:     notice,
	}
}
