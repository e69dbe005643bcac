package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidQuantity = errors.New("invalid quantity")

type NoticeKind string

const (
	NoticeAdded           NoticeKind = "added"
	NoticeQuantityUpdated NoticeKind = "quantity_updated"
	NoticeOutOfStock      NoticeKind = "out_of_stock"
	NoticeRemoved         NoticeKind = "removed"
	NoticeCleared         NoticeKind = "cleared"
)

type NoticeLevel string

const (
	NoticeLevelInfo    NoticeLevel = "info"
	NoticeLevelWarning NoticeLevel = "warning"
)

// 画面に出すトースト相当の通知
type CartNotice struct {
	Kind    NoticeKind  `json:"kind"`
	Level   NoticeLevel `json:"level"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

// カートの明細
// 名前・価格・画像などは追加時点の値を保存する。
type CartLine struct {
	ProductID            int64               `json:"product_id"`
	Name                 string              `json:"name"`
	Price                decimal.Decimal     `json:"price"`
	OriginalPrice        decimal.NullDecimal `json:"original_price"`
	ImageURL             string              `json:"image_url"`
	PrescriptionRequired bool                `json:"prescription_required"`
	InStock              bool                `json:"in_stock"`
	Quantity             int64               `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(l.Quantity))
}

// 1セッション分のカート（メモリ上）
// 同じ商品の明細は1行だけ、数量は常に1以上。
type Cart struct {
	SessionID string     `json:"session_id"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewCart(sessionID string) *Cart {
	return &Cart{SessionID: sessionID, Lines: []CartLine{}}
}

// AddToCart は商品を追加する（同一商品は数量加算）。
// 在庫なしの商品は何もせず警告を返す。
func (c *Cart) AddToCart(p Product, quantity int64) (CartNotice, error) {
	if quantity < 1 {
		return CartNotice{}, ErrInvalidQuantity
	}

	if !p.InStock {
		return CartNotice{
			Kind:    NoticeOutOfStock,
			Level:   NoticeLevelWarning,
			Title:   "Produto Indisponível",
			Message: "Este produto não está em estoque no momento.",
		}, nil
	}

	if i := c.indexOf(p.ID); i >= 0 {
		c.Lines[i].Quantity += quantity
		c.touch()
		return CartNotice{
			Kind:    NoticeQuantityUpdated,
			Level:   NoticeLevelInfo,
			Title:   "Quantidade Atualizada",
			Message: fmt.Sprintf("%s - quantidade atualizada no carrinho.", p.Name),
		}, nil
	}

	//スナップショットとして保存
	c.Lines = append(c.Lines, CartLine{
		ProductID:            p.ID,
		Name:                 p.Name,
		Price:                p.Price,
		OriginalPrice:        p.OriginalPrice,
		ImageURL:             p.ImageURL,
		PrescriptionRequired: p.PrescriptionRequired,
		InStock:              p.InStock,
		Quantity:             quantity,
	})
	c.touch()

	return CartNotice{
		Kind:    NoticeAdded,
		Level:   NoticeLevelInfo,
		Title:   "Produto Adicionado",
		Message: fmt.Sprintf("%s foi adicionado ao carrinho.", p.Name),
	}, nil
}

// 明細を削除。無ければ何もしない（false）。
func (c *Cart) RemoveFromCart(productID int64) (CartNotice, bool) {
	i := c.indexOf(productID)
	if i < 0 {
		return CartNotice{}, false
	}

	name := c.Lines[i].Name
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	c.touch()

	return CartNotice{
		Kind:    NoticeRemoved,
		Level:   NoticeLevelInfo,
		Title:   "Produto Removido",
		Message: fmt.Sprintf("%s foi removido do carrinho.", name),
	}, true
}

// 数量を絶対値で設定。0以下なら削除と同じ。
func (c *Cart) UpdateQuantity(productID int64, quantity int64) (CartNotice, bool) {
	if quantity <= 0 {
		return c.RemoveFromCart(productID)
	}

	i := c.indexOf(productID)
	if i < 0 {
		return CartNotice{}, false
	}
	c.Lines[i].Quantity = quantity
	c.touch()
	return CartNotice{}, true
}

func (c *Cart) ClearCart() CartNotice {
	c.Lines = []CartLine{}
	c.touch()
	return CartNotice{
		Kind:    NoticeCleared,
		Level:   NoticeLevelInfo,
		Title:   "Carrinho Limpo",
		Message: "Todos os produtos foram removidos do carrinho.",
	}
}

// 数量の合計（行数ではない）
func (c *Cart) TotalItems() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// 追加時点の価格×数量の合計
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) Line(productID int64) (CartLine, bool) {
	i := c.indexOf(productID)
	if i < 0 {
		return CartLine{}, false
	}
	return c.Lines[i], true
}

// 外に渡すためのコピー
func (c *Cart) Snapshot() Cart {
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{SessionID: c.SessionID, Lines: lines, UpdatedAt: c.UpdatedAt}
}

func (c *Cart) indexOf(productID int64) int {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}
