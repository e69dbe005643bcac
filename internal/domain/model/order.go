package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文時点の購入者情報
type CustomerInfo struct {
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Email   string `gorm:"type:varchar(255);not null;index" json:"email"`
	Phone   string `gorm:"type:varchar(30);not null" json:"phone"`
	Address string `gorm:"type:varchar(500);not null" json:"address"`
}

// 注文（販売記録）。作成後はStatus以外変更しない。
type Order struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID      string          `gorm:"type:varchar(128);not null;uniqueIndex:idx_orders_session_idem,priority:1" json:"-"`
	Customer       CustomerInfo    `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	PaymentMethod  string          `gorm:"type:varchar(50);not null" json:"payment_method"`
	Status         OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	IdempotencyKey string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_orders_session_idem,priority:2" json:"-"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt      time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 明細から合計を計算（保存済みのTotalPriceと一致するはず）
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}
