package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 在庫少なめとみなすデフォルトのしきい値
const DefaultLowStockThreshold int64 = 10

type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`

	//値引き表示用の元価格（無ければnull）
	OriginalPrice decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"original_price"`

	Stock                int64  `gorm:"not null;default:0" json:"stock"`
	InStock              bool   `gorm:"not null;default:true" json:"in_stock"`
	PrescriptionRequired bool   `gorm:"not null;default:false" json:"prescription_required"`
	Category             string `gorm:"type:varchar(100);index" json:"category"`
	ImageURL             string `gorm:"type:varchar(500)" json:"image_url"`

	Manufacturer     string `gorm:"type:varchar(255)" json:"manufacturer"`
	ActiveIngredient string `gorm:"type:varchar(255)" json:"active_ingredient"`
	Dosage           string `gorm:"type:varchar(100)" json:"dosage"`
	Form             string `gorm:"type:varchar(100)" json:"form"`
	SKU              string `gorm:"type:varchar(100)" json:"sku"`
	EAN              string `gorm:"type:varchar(20)" json:"ean"`

	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// DiscountPercent は元価格からの値引き率（%、四捨五入）。
// 元価格が無い・現在価格以下なら0。
func (p Product) DiscountPercent() int64 {
	if !p.OriginalPrice.Valid {
		return 0
	}
	orig := p.OriginalPrice.Decimal
	if !orig.IsPositive() || orig.LessThanOrEqual(p.Price) {
		return 0
	}
	pct := orig.Sub(p.Price).Div(orig).Mul(decimal.NewFromInt(100)).Round(0)
	return pct.IntPart()
}

func (p Product) IsLowStock(threshold int64) bool {
	return p.Stock < threshold
}

// 在庫金額（価格×在庫数）
func (p Product) StockValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(p.Stock))
}
