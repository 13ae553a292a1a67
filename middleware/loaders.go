package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/wedding-rsvp/auth"
	"github.com/vnkhanh/wedding-rsvp/store"
)

// LoadInvitation nạp invitation theo :id vào context để controller dùng tiếp.
func LoadInvitation(invitations store.InvitationStore, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if id == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "ID không hợp lệ"})
			return
		}

		inv, err := invitations.GetInvitation(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Invitation không tồn tại"})
			return
		}
		if err != nil {
			logger.Error("load invitation", "id", id, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Lỗi máy chủ"})
			return
		}

		c.Set(CtxInvitation, inv)
		c.Next()
	}
}

// LoadToken nạp invitation token theo :id.
func LoadToken(tokens store.TokenStore, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if !auth.ValidTokenID(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Token ID không hợp lệ"})
			return
		}

		tok, err := tokens.GetToken(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Token không tồn tại"})
			return
		}
		if err != nil {
			logger.Error("load token", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Lỗi máy chủ"})
			return
		}

		c.Set(CtxToken, tok)
		c.Next()
	}
}
