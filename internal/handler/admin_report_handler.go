package handler

import (
	"net/http"

	"github.com/henriquelv/pharma-well-care/internal/middleware"
	"github.com/henriquelv/pharma-well-care/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ダッシュボードと監査ログの参照
type AdminReportHandler struct {
	dashboard *usecase.DashboardUsecase
	audit     *usecase.AuditLogUsecase
}

func NewAdminReportHandler(dashboard *usecase.DashboardUsecase, audit *usecase.AuditLogUsecase) *AdminReportHandler {
	return &AdminReportHandler{dashboard: dashboard, audit: audit}
}

func (h *AdminReportHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/dashboard/stats", h.stats, middleware.StaffOrAdmin())
	admin.GET("/audit-logs", h.auditLogs, middleware.AdminOnly())
}

func (h *AdminReportHandler) stats(c echo.Context) error {
	out, err := h.dashboard.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminReportHandler) auditLogs(c echo.Context) error {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
	}
	resourceID, ok := queryInt64Ptr(c, "resource_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid resource_id"})
	}
	actorID, ok := queryInt64Ptr(c, "actor_user_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid actor_user_id"})
	}

	out, err := h.audit.List(c.Request().Context(), usecase.AuditLogListInput{
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		ResourceID:   resourceID,
		ActorUserID:  actorID,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
