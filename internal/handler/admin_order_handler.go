package handler

import (
	"net/http"
	"time"

	"github.com/henriquelv/pharma-well-care/internal/middleware"
	"github.com/henriquelv/pharma-well-care/internal/repository"
	"github.com/henriquelv/pharma-well-care/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc  *usecase.AdminOrderUsecase
	loc *time.Location // 日付だけの期間指定は店舗の暦で解釈する
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase, loc *time.Location) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc, loc: loc}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
	Force  bool   `json:"force"`
	Reason string `json:"reason"`
}

// 注文の運用はSTAFFも可
func (h *AdminOrderHandler) RegisterRoutes(admin *echo.Group) {
	staff := middleware.StaffOrAdmin()

	admin.GET("/orders", h.list, staff)
	admin.GET("/orders/:id", h.detail, staff)
	admin.PUT("/orders/:id/status", h.updateStatus, staff)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
	}

	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	from, ok := usecase.ParseDateParam(c.QueryParam("from"), h.loc)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
	}

	toRaw := c.QueryParam("to")
	to, ok := usecase.ParseDateParam(toRaw, h.loc)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
	}
	//日付だけならその日の終わりまで含める
	if to != nil && len(toRaw) == len("2006-01-02") {
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}

	out, err := h.uc.List(c.Request().Context(), repository.AdminOrderListFilter{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		Email:  c.QueryParam("email"),
		From:   from,
		To:     to,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) detail(c echo.Context) error {
	orderID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.Get(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//操作したユーザーIDは監査ログに残す
	out, err := h.uc.UpdateStatus(
		c.Request().Context(),
		middleware.ActorID(c),
		orderID,
		usecase.AdminUpdateOrderStatusInput{Status: req.Status, Force: req.Force, Reason: req.Reason},
	)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
