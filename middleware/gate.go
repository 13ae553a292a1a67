package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/wedding-rsvp/auth"
)

const (
	AdminLoginPath = "/admin/login"
	ErrorPath      = "/error"
)

var (
	publicPaths = map[string]bool{
		"/":            true, // tự verify trong handler
		ErrorPath:      true,
		AdminLoginPath: true,
		"/health":      true,
		"/ping":        true,
		"/favicon.ico": true,
	}
	publicPrefixes = []string{"/r/", "/static/"}
)

// ErrorRedirect trả URL trang lỗi cho một reason code.
func ErrorRedirect(code string) string {
	return ErrorPath + "?message=" + url.QueryEscape(code)
}

func isPublic(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func isAdminArea(path string) bool {
	return path == "/admin" || strings.HasPrefix(path, "/admin/")
}

// Gate quyết định cho qua hay redirect, chạy trước mọi handler.
type Gate struct {
	verifier *auth.Verifier
	cookies  CookieJar
	logger   *slog.Logger
}

func NewGate(verifier *auth.Verifier, cookies CookieJar, logger *slog.Logger) *Gate {
	return &Gate{verifier: verifier, cookies: cookies, logger: logger.With("component", "gate")}
}

func (g *Gate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		switch {
		case isPublic(path):
			c.Next()
		case isAdminArea(path):
			g.require(c, AdminCookie, CtxAdmin, g.verifyAdmin, AdminLoginPath)
		default:
			g.require(c, GuestCookie, CtxGuest, g.verifyGuest, ErrorRedirect(auth.CodeNeedsInvitation))
		}
	}
}

func (g *Gate) verifyAdmin(ctx context.Context, raw string) (any, error) {
	return g.verifier.VerifyAdmin(ctx, raw)
}

func (g *Gate) verifyGuest(ctx context.Context, raw string) (any, error) {
	return g.verifier.VerifyGuest(ctx, raw)
}

func (g *Gate) require(c *gin.Context, cookie, key string, verify func(context.Context, string) (any, error), denied string) {
	raw := g.cookies.Read(c, cookie)
	if raw == "" {
		c.Redirect(http.StatusFound, denied)
		c.Abort()
		return
	}

	session, err := verify(c.Request.Context(), raw)
	if err != nil {
		if reason, ok := auth.ReasonOf(err); ok {
			g.logger.Info("session rejected", "path", c.Request.URL.Path, "cookie", cookie, "reason", reason)
			g.cookies.Clear(c, cookie)
			c.Redirect(http.StatusFound, denied)
		} else {
			// lỗi hạ tầng: giữ cookie, có thể vẫn hợp lệ
			g.logger.Error("verify session", "path", c.Request.URL.Path, "err", err)
			c.Redirect(http.StatusFound, ErrorRedirect(auth.CodeAuthCheckFailed))
		}
		c.Abort()
		return
	}

	c.Set(key, session)
	c.Next()
}
