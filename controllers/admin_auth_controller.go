package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/wedding-rsvp/auth"
	"github.com/vnkhanh/wedding-rsvp/middleware"
	"github.com/vnkhanh/wedding-rsvp/models"
	"github.com/vnkhanh/wedding-rsvp/store"
	"github.com/vnkhanh/wedding-rsvp/utils"
)

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func adminJSON(u *models.AdminUser) gin.H {
	return gin.H{
		"id":           u.ID,
		"username":     u.Username,
		"display_name": u.DisplayName,
		"created_at":   u.CreatedAt,
	}
}

// GET /admin/login: cho frontend biết đã đăng nhập chưa.
func (h *Handler) AdminLoginStatus(c *gin.Context) {
	raw := h.cookies.Read(c, middleware.AdminCookie)
	if raw == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	s, err := h.verifier.VerifyAdmin(c.Request.Context(), raw)
	if err != nil {
		if _, ok := auth.ReasonOf(err); ok {
			h.cookies.Clear(c, middleware.AdminCookie)
			c.JSON(http.StatusOK, gin.H{"authenticated": false})
			return
		}
		h.internalError(c, "verify admin session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": adminJSON(s.Admin)})
}

// POST /admin/login
func (h *Handler) AdminLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	user, err := h.store.GetAdminUserByUsername(c.Request.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		utils.BurnPasswordCheck(req.Password)
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Sai tên đăng nhập hoặc mật khẩu"})
		return
	}
	if err != nil {
		h.internalError(c, "get admin user", err)
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		h.logger.Warn("admin login failed", "username", req.Username, "ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Sai tên đăng nhập hoặc mật khẩu"})
		return
	}

	signed, claims, err := h.sessions.Issue(auth.Subject{ID: user.ID, Username: user.Username},
		auth.AudienceAdmin, auth.SessionTypeAdmin, h.adminTTL)
	if err != nil {
		h.internalError(c, "issue admin session", err)
		return
	}

	h.cookies.Set(c, middleware.AdminCookie, signed, claims.ExpiresAt.Time)
	h.logger.Info("admin logged in", "admin_id", user.ID, "ip", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"user": adminJSON(user), "expires_at": claims.ExpiresAt.Time})
}

// POST /admin/logout: thu hồi jti để cookie bị copy cũng hết dùng được.
func (h *Handler) AdminLogout(c *gin.Context) {
	s := middleware.AdminFrom(c)
	if err := h.store.RevokeSession(c.Request.Context(), s.Claims.ID, s.Claims.ExpiresAt.Time); err != nil {
		h.internalError(c, "revoke admin session", err)
		return
	}
	h.cookies.Clear(c, middleware.AdminCookie)
	c.JSON(http.StatusOK, gin.H{"message": "Đã đăng xuất"})
}

// GET /admin/me
func (h *Handler) AdminMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": adminJSON(middleware.AdminFrom(c).Admin)})
}
