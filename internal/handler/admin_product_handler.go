package handler

import (
	"net/http"

	"github.com/henriquelv/pharma-well-care/internal/middleware"
	"github.com/henriquelv/pharma-well-care/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// ProductRequest は管理画面の商品作成・更新の入力です。
type ProductRequest struct {
	Name                 string              `json:"name"`
	Description          string              `json:"description"`
	Price                decimal.Decimal     `json:"price"`
	OriginalPrice        decimal.NullDecimal `json:"original_price"`
	Stock                int64               `json:"stock"`
	PrescriptionRequired bool                `json:"prescription_required"`
	Category             string              `json:"category"`
	ImageURL             string              `json:"image_url"`
	Manufacturer         string              `json:"manufacturer"`
	ActiveIngredient     string              `json:"active_ingredient"`
	Dosage               string              `json:"dosage"`
	Form                 string              `json:"form"`
	SKU                  string              `json:"sku"`
	EAN                  string              `json:"ean"`
	IsActive             *bool               `json:"is_active"`
}

func (r ProductRequest) toInput() usecase.AdminProductInput {
	//省略時は公開
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return usecase.AdminProductInput{
		Name:                 r.Name,
		Description:          r.Description,
		Price:                r.Price,
		OriginalPrice:        r.OriginalPrice,
		Stock:                r.Stock,
		PrescriptionRequired: r.PrescriptionRequired,
		Category:             r.Category,
		ImageURL:             r.ImageURL,
		Manufacturer:         r.Manufacturer,
		ActiveIngredient:     r.ActiveIngredient,
		Dosage:               r.Dosage,
		Form:                 r.Form,
		SKU:                  r.SKU,
		EAN:                  r.EAN,
		IsActive:             active,
	}
}

// InventoryUpdateRequest は在庫更新の入力です。
type InventoryUpdateRequest struct {
	Stock  *int64 `json:"stock"`
	Reason string `json:"reason"`
}

// /admin/products と /admin/inventory をまとめる
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// adminを登録
func (h *AdminProductHandler) RegisterRoutes(admin *echo.Group) {
	adminOnly := middleware.AdminOnly()

	admin.GET("/products", h.listProducts, middleware.StaffOrAdmin())
	admin.POST("/products", h.createProduct, adminOnly)
	admin.PUT("/products/:id", h.updateProduct, adminOnly)
	admin.DELETE("/products/:id", h.deleteProduct, adminOnly)
	admin.PUT("/inventory/:product_id", h.updateInventory, adminOnly)
	admin.GET("/inventory/:product_id/adjustments", h.listAdjustments, middleware.StaffOrAdmin())
	admin.POST("/search/reindex", h.reindex, adminOnly)
}

func (h *AdminProductHandler) listProducts(c echo.Context) error {
	out, err := h.uc.AdminListProducts(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AdminCreateProduct(c.Request().Context(), middleware.ActorID(c), req.toInput())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AdminUpdateProduct(c.Request().Context(), middleware.ActorID(c), id, req.toInput())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), middleware.ActorID(c), id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	var req InventoryUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Stock == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid stock"})
	}

	out, err := h.uc.AdminUpdateInventory(
		c.Request().Context(),
		middleware.ActorID(c),
		productID,
		*req.Stock,
		req.Reason,
	)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) listAdjustments(c echo.Context) error {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	out, err := h.uc.ListInventoryAdjustments(c.Request().Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) reindex(c echo.Context) error {
	n, err := h.uc.Reindex(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"indexed": n})
}
