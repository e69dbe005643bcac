package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
	"github.com/henriquelv/pharma-well-care/internal/logging"
	repo "github.com/henriquelv/pharma-well-care/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/henriquelv/pharma-well-care/internal/usecase")

// フォームの値 → 注文に保存するラベル
var paymentMethodLabels = map[string]string{
	"pix":            "PIX",
	"cartao-credito": "Cartão de Crédito",
	"cartao-debito":  "Cartão de Débito",
	"dinheiro":       "Dinheiro",
}

type OrderUsecase struct {
	tx        repo.TransactionManager
	carts     *CartUsecase
	snapshots repo.CartSnapshotRepository
	events    OrderEventPublisher
	clock     Clock
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	carts *CartUsecase,
	snapshots repo.CartSnapshotRepository,
	events OrderEventPublisher,
	clock Clock,
) *OrderUsecase {
	return &OrderUsecase{
		tx:        tx,
		carts:     carts,
		snapshots: snapshots,
		events:    events,
		clock:     clock,
	}
}

type PlaceOrderInput struct {
	SessionID      string
	Name           string
	Email          string
	Phone          string
	Address        string
	PaymentMethod  string
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderOutput struct {
	ID            int64              `json:"id"`
	Customer      model.CustomerInfo `json:"customer"`
	PaymentMethod string             `json:"payment_method"`
	Status        string             `json:"status"`
	TotalPrice    decimal.Decimal    `json:"total_price"`
	CreatedAt     time.Time          `json:"created_at"`
	Items         []OrderItemOutput  `json:"items"`
}

type PlaceOrderOutput struct {
	Order OrderOutput `json:"order"`
	// 同じ冪等キーで既存注文を返したとき
	Replayed bool `json:"replayed"`
}

// PlaceOrder はカートを注文に確定する。
// セッションのカートをロックしたまま、冪等チェック→Tx(注文+明細)→コミット後にカートを空にする。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, in PlaceOrderInput) (PlaceOrderOutput, error) {
	ctx, span := tracer.Start(ctx, "OrderUsecase.PlaceOrder", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	customer, payment, err := validatePlaceOrder(in)
	if err != nil {
		return PlaceOrderOutput{}, err
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}
	if key == "" {
		key = uuid.NewString()
	}

	var out PlaceOrderOutput
	var created model.Order

	err = u.carts.WithCart(ctx, in.SessionID, func(c *model.Cart) error {
		err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			// 同じセッション・同じキーなら同じ結果
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, c.SessionID, key)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if found {
				out = PlaceOrderOutput{Order: toOrderOutput(existing, existing.Items), Replayed: true}
				return nil
			}

			if c.IsEmpty() {
				return NewHTTPError(http.StatusBadRequest, "cart empty")
			}

			//カートのスナップショットから明細を作る
			now := u.clock.Now()
			items := make([]model.OrderItem, 0, len(c.Lines))
			for _, l := range c.Lines {
				items = append(items, model.OrderItem{
					ProductID:           l.ProductID,
					ProductNameSnapshot: l.Name,
					UnitPriceSnapshot:   l.Price,
					Quantity:            l.Quantity,
					CreatedAt:           now,
				})
			}

			order := model.Order{
				SessionID:      c.SessionID,
				Customer:       customer,
				PaymentMethod:  payment,
				Status:         model.OrderStatusPending,
				TotalPrice:     c.TotalPrice(),
				IdempotencyKey: key,
				CreatedAt:      now,
				UpdatedAt:      now,
			}

			// 注文作成
			orderID, err := r.Orders().Create(ctx, order)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			//注文明細一括作成
			if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			order.ID = orderID
			order.Items = items
			created = order
			out = PlaceOrderOutput{Order: toOrderOutput(order, items)}
			return nil
		})
		if err != nil {
			//コミットできなければカートはそのまま
			if _, ok := AsHTTPError(err); !ok {
				logging.FromContext(ctx).Error("order commit failed", zap.Error(err))
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			return err
		}

		if !out.Replayed {
			c.ClearCart()
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PlaceOrderOutput{}, err
	}

	span.SetAttributes(
		attribute.Int64("order.id", out.Order.ID),
		attribute.Bool("order.replayed", out.Replayed),
	)

	if !out.Replayed {
		u.afterCommit(ctx, in.SessionID, created)
	}
	return out, nil
}

// コミット後の外部反映。失敗しても注文は成立しているのでログだけ残す。
func (u *OrderUsecase) afterCommit(ctx context.Context, sessionID string, o model.Order) {
	log := logging.FromContext(ctx)

	var itemCount int64
	for _, it := range o.Items {
		itemCount += it.Quantity
	}

	if err := u.events.PublishOrderEvent(ctx, model.OrderEvent{
		Type:          model.OrderEventCreated,
		OrderID:       o.ID,
		Status:        o.Status,
		TotalPrice:    o.TotalPrice,
		ItemCount:     itemCount,
		CustomerEmail: o.Customer.Email,
		OccurredAt:    o.CreatedAt,
	}); err != nil {
		log.Warn("order event publish failed", zap.Int64("order_id", o.ID), zap.Error(err))
	}

	if err := u.snapshots.Delete(ctx, sessionID); err != nil {
		log.Warn("cart snapshot delete failed", zap.String("session_id", sessionID), zap.Error(err))
	}

	log.Info("order placed",
		zap.Int64("order_id", o.ID),
		zap.String("total_price", o.TotalPrice.StringFixed(2)),
		zap.Int64("item_count", itemCount),
	)
}

// GetOrderForCustomer は注文追跡。メールが一致しないものは存在しない扱い。
func (u *OrderUsecase) GetOrderForCustomer(ctx context.Context, orderID int64, email string) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "email required")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !strings.EqualFold(o.Customer.Email, email) {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		out = toOrderOutput(o, o.Items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 必須項目をまとめてチェックし、足りない項目名を返す
func validatePlaceOrder(in PlaceOrderInput) (model.CustomerInfo, string, error) {
	customer := model.CustomerInfo{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
	}
	payment := strings.ToLower(strings.TrimSpace(in.PaymentMethod))

	var missing []string
	if customer.Name == "" {
		missing = append(missing, "name")
	}
	if customer.Email == "" {
		missing = append(missing, "email")
	}
	if customer.Phone == "" {
		missing = append(missing, "phone")
	}
	if customer.Address == "" {
		missing = append(missing, "address")
	}
	if payment == "" {
		missing = append(missing, "payment_method")
	}
	if len(missing) > 0 {
		return model.CustomerInfo{}, "", NewHTTPError(http.StatusBadRequest,
			"Preencha todos os campos obrigatórios: "+strings.Join(missing, ", "))
	}

	if _, err := mail.ParseAddress(customer.Email); err != nil {
		return model.CustomerInfo{}, "", NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	label, ok := paymentMethodLabels[payment]
	if !ok {
		return model.CustomerInfo{}, "", NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}
	return customer, label, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal(),
		})
	}

	return OrderOutput{
		ID:            o.ID,
		Customer:      o.Customer,
		PaymentMethod: o.PaymentMethod,
		Status:        string(o.Status),
		TotalPrice:    o.TotalPrice,
		CreatedAt:     o.CreatedAt,
		Items:         outItems,
	}
}
