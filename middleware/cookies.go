package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	GuestCookie = "session"
	AdminCookie = "admin-session"
)

// CookieJar đặt cookie session: HttpOnly, SameSite=Lax, Secure khi production.
type CookieJar struct {
	Secure bool
}

func (j CookieJar) Set(c *gin.Context, name, value string, expires time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   j.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (j CookieJar) Clear(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read trả giá trị cookie, rỗng nếu không có.
func (j CookieJar) Read(c *gin.Context, name string) string {
	v, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return v
}
