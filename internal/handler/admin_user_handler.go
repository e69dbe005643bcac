package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
	"github.com/henriquelv/pharma-well-care/internal/middleware"
	"github.com/henriquelv/pharma-well-care/internal/repository"
	auth "github.com/henriquelv/pharma-well-care/internal/usecase/auth_usecase"
	"github.com/henriquelv/pharma-well-care/internal/validator"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	registerUC    *auth.RegisterStaffUsecase
	staffUC       *auth.StaffAccountsUsecase
	forceLogoutUC *auth.ForceLogoutUsecase
}

func NewAdminUserHandler(registerUC *auth.RegisterStaffUsecase, staffUC *auth.StaffAccountsUsecase, forceLogoutUC *auth.ForceLogoutUsecase) *AdminUserHandler {
	return &AdminUserHandler{registerUC: registerUC, staffUC: staffUC, forceLogoutUC: forceLogoutUC}
}

type createStaffRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// adminはAuthJWT+TokenVersionGuard済みのグループ
func (h *AdminUserHandler) RegisterRoutes(admin *echo.Group) {
	adminOnly := middleware.AdminOnly()

	admin.GET("/users", h.ListStaff, adminOnly)
	admin.POST("/users", h.CreateStaff, adminOnly)
	admin.PATCH("/users/:id", h.SetActive, adminOnly)
	admin.POST("/users/:id/force-logout", h.ForceLogout, adminOnly)
}

func (h *AdminUserHandler) CreateStaff(c echo.Context) error {
	var req createStaffRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	user, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterStaffInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmailFormat),
			errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrWeakPassword),
			errors.Is(err, auth.ErrInvalidRole):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		default:
			return writeError(c, err)
		}
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *AdminUserHandler) ForceLogout(c echo.Context) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}

	actorID := middleware.ActorID(c)
	if err := validator.ValidateForceLogout(actorID, userID); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}

	res, err := h.forceLogoutUC.Execute(c.Request().Context(), actorID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		}
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

// GET /admin/users?role=&active=&limit=&offset=
func (h *AdminUserHandler) ListStaff(c echo.Context) error {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
	}
	in := auth.StaffListInput{Role: c.QueryParam("role"), Limit: limit, Offset: offset}
	if v := c.QueryParam("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid active"})
		}
		in.Active = &active
	}

	out, err := h.staffUC.List(c.Request().Context(), in)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRole) || errors.Is(err, auth.ErrInvalidPaging) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

// PATCH /admin/users/:id {"is_active": false}
func (h *AdminUserHandler) SetActive(c echo.Context) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}
	var req setActiveRequest
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "is_active required"})
	}

	user, err := h.staffUC.SetActive(c.Request().Context(), middleware.ActorID(c), userID, *req.IsActive)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrSelfTarget):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, auth.ErrLastAdmin):
			return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		default:
			return writeError(c, err)
		}
	}
	return c.JSON(http.StatusOK, user)
}
