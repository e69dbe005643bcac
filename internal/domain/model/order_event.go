package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "order_created"
	OrderEventStatusChanged OrderEventType = "order_status_changed"
)

// コミット後に外部へ流す注文イベント
type OrderEvent struct {
	Type           OrderEventType  `json:"type"`
	OrderID        int64           `json:"order_id"`
	Status         OrderStatus     `json:"status"`
	PreviousStatus OrderStatus     `json:"previous_status,omitempty"`
	Forced         bool            `json:"forced,omitempty"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	ItemCount      int64           `json:"item_count"`
	CustomerEmail  string          `json:"customer_email"`
	OccurredAt     time.Time       `json:"occurred_at"`
}
