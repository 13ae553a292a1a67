package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/wedding-rsvp/middleware"
	"github.com/vnkhanh/wedding-rsvp/models"
	"github.com/vnkhanh/wedding-rsvp/store"
	"github.com/vnkhanh/wedding-rsvp/utils"
)

const tokenIssueAttempts = 3

func tokenResp(c *gin.Context, t *models.InvitationToken) gin.H {
	return gin.H{
		"id":              t.ID,
		"invitation_id":   t.InvitationID,
		"url":             distributionURL(c, t.ID),
		"is_active":       t.IsActive,
		"is_used":         t.IsUsed,
		"access_count":    t.AccessCount,
		"first_access_at": t.FirstAccessAt,
		"last_access_at":  t.LastAccessAt,
		"user_agent":      t.UserAgent,
		"created_at":      t.CreatedAt,
	}
}

// issueToken tạo token mới; thử lại nếu trùng id.
func (h *Handler) issueToken(c *gin.Context, invitationID string) (*models.InvitationToken, error) {
	for i := 0; i < tokenIssueAttempts; i++ {
		id, err := utils.GenerateInvitationToken()
		if err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}
		tok := models.NewInvitationToken(id, invitationID)
		err = h.store.CreateToken(c.Request.Context(), tok)
		if errors.Is(err, store.ErrDuplicateToken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return tok, nil
	}
	return nil, store.ErrDuplicateToken
}

// GET /admin/invitations/:id/tokens
func (h *Handler) ListTokens(c *gin.Context) {
	inv := middleware.InvitationFrom(c)
	tokens, err := h.store.ListTokens(c.Request.Context(), inv.ID)
	if err != nil {
		h.internalError(c, "list tokens", err)
		return
	}
	out := make([]gin.H, 0, len(tokens))
	for i := range tokens {
		out = append(out, tokenResp(c, &tokens[i]))
	}
	c.JSON(http.StatusOK, gin.H{"tokens": out})
}

// POST /admin/invitations/:id/tokens
func (h *Handler) IssueToken(c *gin.Context) {
	inv := middleware.InvitationFrom(c)
	tok, err := h.issueToken(c, inv.ID)
	if err != nil {
		h.internalError(c, "issue token", err)
		return
	}
	h.logger.Info("token issued", "invitation_id", inv.ID, "admin_id", middleware.AdminFrom(c).Admin.ID)
	c.JSON(http.StatusCreated, gin.H{"token": tokenResp(c, tok)})
}

// PUT /admin/tokens/:id/activate
func (h *Handler) ActivateToken(c *gin.Context) {
	h.setTokenActive(c, true)
}

// PUT /admin/tokens/:id/deactivate
func (h *Handler) DeactivateToken(c *gin.Context) {
	h.setTokenActive(c, false)
}

func (h *Handler) setTokenActive(c *gin.Context, active bool) {
	tok := middleware.TokenFrom(c)
	err := h.store.SetTokenActive(c.Request.Context(), tok.ID, active)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Token không tồn tại"})
		return
	}
	if err != nil {
		h.internalError(c, "set token active", err)
		return
	}
	tok.IsActive = active
	h.logger.Info("token active changed", "invitation_id", tok.InvitationID, "active", active,
		"admin_id", middleware.AdminFrom(c).Admin.ID)
	c.JSON(http.StatusOK, gin.H{"token": tokenResp(c, tok)})
}

// DELETE /admin/tokens/:id
func (h *Handler) DeleteToken(c *gin.Context) {
	tok := middleware.TokenFrom(c)
	if err := h.store.DeleteToken(c.Request.Context(), tok.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.internalError(c, "delete token", err)
		return
	}
	c.Status(http.StatusNoContent)
}
