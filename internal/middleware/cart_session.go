package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CtxCartSessionKey = "cart_session" // string

	CartSessionHeader = "X-Cart-Session"
	CartSessionCookie = "cart_session"
)

const cartSessionMaxLen = 128

// CartSession はカートのセッションIDを決める。
// ヘッダ → Cookie の順に見て、無ければ新しく発行してレスポンスで返す。
func CartSession(cookieMaxAge time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := strings.TrimSpace(c.Request().Header.Get(CartSessionHeader))
			if sid == "" {
				if ck, err := c.Cookie(CartSessionCookie); err == nil {
					sid = strings.TrimSpace(ck.Value)
				}
			}
			if sid == "" || len(sid) > cartSessionMaxLen {
				sid = uuid.NewString()
			}

			c.Set(CtxCartSessionKey, sid)
			c.Response().Header().Set(CartSessionHeader, sid)
			c.SetCookie(&http.Cookie{
				Name:     CartSessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(cookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})

			return next(c)
		}
	}
}

func CartSessionID(c echo.Context) string {
	sid, _ := c.Get(CtxCartSessionKey).(string)
	return sid
}
