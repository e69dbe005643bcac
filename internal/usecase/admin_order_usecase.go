package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
	"github.com/henriquelv/pharma-well-care/internal/logging"
	repo "github.com/henriquelv/pharma-well-care/internal/repository"

	"go.uber.org/zap"
)

type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	events OrderEventPublisher
	clock  Clock
}

func NewAdminOrderUsecase(tx repo.TransactionManager, events OrderEventPublisher, clock Clock) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, events: events, clock: clock}
}

type AdminUpdateOrderStatusInput struct {
	Status string
	// 遷移表を無視して上書きする（理由必須・監査ログはFORCE_ORDER_STATUS）
	Force  bool
	Reason string
}

type AdminOrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" {
		st, err := model.ParseOrderStatus(f.Status)
		if err != nil {
			return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Status = string(st)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be <= to")
	}

	var out AdminOrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items := make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items = append(items, toOrderOutput(o, o.Items))
		}
		out = AdminOrderListOutput{Items: items, Total: total, Page: f.Page, Limit: f.Limit}
		return nil
	})

	if err != nil {
		return AdminOrderListOutput{}, err
	}
	return out, nil
}

func (u *AdminOrderUsecase) Get(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
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
		out = toOrderOutput(o, o.Items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// UpdateStatus は遷移表に沿ってステータスを変える。
// 同じステータスなら何もしない。明細・合計には触らない。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorUserID int64, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus, err := model.ParseOrderStatus(in.Status)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	reason := strings.TrimSpace(in.Reason)
	if in.Force && reason == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "reason required")
	}

	var out OrderOutput
	var evt *model.OrderEvent

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文取得
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			out = toOrderOutput(o, o.Items)
			return nil
		}

		action := model.AuditActionUpdateOrderStatus
		if err := o.Status.ValidateTransition(newStatus); err != nil {
			if !in.Force {
				return NewHTTPError(http.StatusConflict, err.Error())
			}
			action = model.AuditActionForceOrderStatus
		}

		// ステータス更新
		before := o.Status
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//監査ログ（同じTx）
		now := u.clock.Now()
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       action,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   `{"status":"` + string(before) + `"}`,
			AfterJSON:    `{"status":"` + string(newStatus) + `"}`,
			Reason:       reason,
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = newStatus
		out = toOrderOutput(o, o.Items)

		var itemCount int64
		for _, it := range o.Items {
			itemCount += it.Quantity
		}
		evt = &model.OrderEvent{
			Type:           model.OrderEventStatusChanged,
			OrderID:        orderID,
			Status:         newStatus,
			PreviousStatus: before,
			Forced:         action == model.AuditActionForceOrderStatus,
			TotalPrice:     o.TotalPrice,
			ItemCount:      itemCount,
			CustomerEmail:  o.Customer.Email,
			OccurredAt:     now,
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	//コミット後に通知
	if evt != nil {
		if err := u.events.PublishOrderEvent(ctx, *evt); err != nil {
			logging.FromContext(ctx).Warn("order event publish failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
	}
	return out, nil
}

// 期間パラメータ（RFC3339 か YYYY-MM-DD）。空ならnil。
func ParseDateParam(s string, loc *time.Location) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, true
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return &t, true
	}
	return nil, false
}
