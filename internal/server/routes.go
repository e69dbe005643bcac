package server

import (
	"net/http"
	"time"

	"github.com/henriquelv/pharma-well-care/internal/handler"
	"github.com/henriquelv/pharma-well-care/internal/middleware"
	"github.com/henriquelv/pharma-well-care/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	AdminUser    *handler.AdminUserHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Product      *handler.ProductHandler
	Category     *handler.CategoryHandler
	AdminProduct *handler.AdminProductHandler
	AdminOrder   *handler.AdminOrderHandler
	AdminReport  *handler.AdminReportHandler
}

type RouteConfig struct {
	JWTSecret        string
	UserRepo         repository.UserRepository
	CartCookieMaxAge time.Duration
}

func RegisterRoutes(e *echo.Echo, rc RouteConfig, h Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// 公開
	h.Auth.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)

	// カートとチェックアウトはセッション単位
	session := middleware.CartSession(rc.CartCookieMaxAge)
	h.Cart.RegisterRoutes(e.Group("/cart", session))
	h.Order.RegisterRoutes(e, e.Group("/checkout", session))

	// /admin 配下は全部「JWT必須 + token_version一致」、ロールはルートごと
	admin := e.Group(
		"/admin",
		middleware.AuthJWT(rc.JWTSecret),
		middleware.TokenVersionGuard(rc.UserRepo),
	)
	h.Category.RegisterRoutes(e, admin)
	h.AdminProduct.RegisterRoutes(admin)
	h.AdminOrder.RegisterRoutes(admin)
	h.AdminReport.RegisterRoutes(admin)
	h.AdminUser.RegisterRoutes(admin)
}
