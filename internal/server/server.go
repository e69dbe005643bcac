package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/henriquelv/pharma-well-care/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Server struct {
	Echo *echo.Echo
	srv  *http.Server
}

// New はecho本体を組み立てる。ルートはRegisterRoutesで載せる。
func New(addr string, logger *zap.Logger, rc RouteConfig, h Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, middleware.CartSessionHeader, "X-Idempotency-Key"},
		ExposeHeaders: []string{middleware.CartSessionHeader, echo.HeaderXRequestID},
	}))

	RegisterRoutes(e, rc, h)

	return &Server{
		Echo: e,
		srv: &http.Server{
			Addr:              addr,
			Handler:           otelhttp.NewHandler(e, "http.server"),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start はブロックする。Shutdownで止めたときはnilを返す。
func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
