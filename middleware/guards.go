package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/wedding-rsvp/auth"
)

// WithGuestAuth chặn handler nếu không có guest session hợp lệ.
// Nếu Gate đã verify trong request này thì dùng lại kết quả.
func WithGuestAuth(verifier *auth.Verifier, cookies CookieJar, logger *slog.Logger) gin.HandlerFunc {
	return withSession(CtxGuest, GuestCookie, verifier.VerifyGuest, cookies, logger)
}

// WithAdminAuth là bản admin của WithGuestAuth.
func WithAdminAuth(verifier *auth.Verifier, cookies CookieJar, logger *slog.Logger) gin.HandlerFunc {
	return withSession(CtxAdmin, AdminCookie, verifier.VerifyAdmin, cookies, logger)
}

func withSession[S any](key, cookie string, verify func(context.Context, string) (S, error), cookies CookieJar, logger *slog.Logger) gin.HandlerFunc {
	logger = logger.With("component", "guard")
	return func(c *gin.Context) {
		if v, ok := c.Get(key); ok {
			if _, ok := v.(S); ok {
				c.Next()
				return
			}
		}

		raw := cookies.Read(c, cookie)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized", "code": auth.CodeNeedsInvitation})
			return
		}

		session, err := verify(c.Request.Context(), raw)
		if err != nil {
			if reason, ok := auth.ReasonOf(err); ok {
				logger.Info("session rejected", "path", c.Request.URL.Path, "reason", reason)
				cookies.Clear(c, cookie)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized", "code": auth.CodeNeedsInvitation})
				return
			}
			logger.Error("verify session", "path", c.Request.URL.Path, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Lỗi máy chủ", "code": auth.CodeAuthCheckFailed})
			return
		}

		c.Set(key, session)
		c.Next()
	}
}
