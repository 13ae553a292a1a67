package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/wedding-rsvp/auth"
	"github.com/vnkhanh/wedding-rsvp/middleware"
)

// GET /r/:token
func (h *Handler) Redeem(c *gin.Context) {
	res := h.redeemer.Redeem(c.Request.Context(), auth.RedeemRequest{
		TokenID:         c.Param("token"),
		UserAgent:       c.Request.UserAgent(),
		ExistingSession: h.cookies.Read(c, middleware.GuestCookie),
	})

	c.Header("Cache-Control", "no-store")
	if res.ClearSession {
		h.cookies.Clear(c, middleware.GuestCookie)
	}

	switch res.Action {
	case auth.ActionAuthenticated:
		h.cookies.Set(c, middleware.GuestCookie, res.Session, res.ExpiresAt)
		c.Redirect(http.StatusFound, "/")
	case auth.ActionRedirect:
		c.Redirect(http.StatusFound, "/")
	default:
		c.Redirect(http.StatusFound, middleware.ErrorRedirect(res.Code))
	}
}
