package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/wedding-rsvp/auth"
	"github.com/vnkhanh/wedding-rsvp/middleware"
	"github.com/vnkhanh/wedding-rsvp/models"
	"github.com/vnkhanh/wedding-rsvp/store"
)

// guestInvitation là phần invitation khách được thấy (không có token, số điện thoại).
type guestInvitation struct {
	ID          string               `json:"id"`
	GuestName   string               `json:"guest_name"`
	Nickname    *string              `json:"nickname"`
	MaxGuests   int                  `json:"max_guests"`
	State       models.ResponseState `json:"state"`
	IsAttending *bool                `json:"is_attending"`
	GuestCount  *int                 `json:"guest_count"`
	RespondedAt *time.Time           `json:"responded_at"`
}

func toGuestInvitation(inv *models.Invitation) guestInvitation {
	return guestInvitation{
		ID:          inv.ID,
		GuestName:   inv.GuestName,
		Nickname:    inv.Nickname,
		MaxGuests:   inv.MaxGuests,
		State:       inv.State(),
		IsAttending: inv.IsAttending,
		GuestCount:  inv.GuestCount,
		RespondedAt: inv.RespondedAt,
	}
}

// GET /: public route, tự verify session rồi đếm một lượt truy cập.
func (h *Handler) Home(c *gin.Context) {
	raw := h.cookies.Read(c, middleware.GuestCookie)
	if raw == "" {
		c.Redirect(http.StatusFound, middleware.ErrorRedirect(auth.CodeNeedsInvitation))
		return
	}

	s, err := h.verifier.VerifyGuest(c.Request.Context(), raw)
	if err != nil {
		if _, ok := auth.ReasonOf(err); ok {
			h.cookies.Clear(c, middleware.GuestCookie)
			c.Redirect(http.StatusFound, middleware.ErrorRedirect(auth.CodeNeedsInvitation))
			return
		}
		h.logger.Error("verify guest session", "err", err)
		c.Redirect(http.StatusFound, middleware.ErrorRedirect(auth.CodeAuthCheckFailed))
		return
	}

	if err := h.store.RecordTokenAccess(c.Request.Context(), s.Token.ID, h.sessions.Now()); err != nil {
		// không chặn khách chỉ vì không đếm được lượt xem
		h.logger.Warn("record token access", "invitation_id", s.Invitation.ID, "err", err)
	}

	c.JSON(http.StatusOK, gin.H{"invitation": toGuestInvitation(s.Invitation)})
}

// GET /invitation
func (h *Handler) GuestInvitation(c *gin.Context) {
	s := middleware.GuestFrom(c)
	c.JSON(http.StatusOK, gin.H{"invitation": toGuestInvitation(s.Invitation)})
}

type rsvpReq struct {
	IsAttending *bool `json:"is_attending" binding:"required"`
	GuestCount  *int  `json:"guest_count"`
}

// POST /rsvp
func (h *Handler) SubmitRSVP(c *gin.Context) {
	var req rsvpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	inv := *middleware.GuestFrom(c).Invitation
	if err := inv.ApplyRSVP(*req.IsAttending, req.GuestCount, h.sessions.Now()); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error(), "max_guests": inv.MaxGuests})
		return
	}

	err := h.store.SaveRSVP(c.Request.Context(), &inv)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Invitation không tồn tại"})
		return
	}
	if err != nil {
		h.internalError(c, "save rsvp", err)
		return
	}

	h.logger.Info("rsvp submitted", "invitation_id", inv.ID, "state", inv.State())
	c.JSON(http.StatusOK, gin.H{"invitation": toGuestInvitation(&inv)})
}

// POST /logout
func (h *Handler) GuestLogout(c *gin.Context) {
	s := middleware.GuestFrom(c)
	if err := h.store.RevokeSession(c.Request.Context(), s.Claims.ID, s.Claims.ExpiresAt.Time); err != nil {
		h.internalError(c, "revoke guest session", err)
		return
	}
	h.cookies.Clear(c, middleware.GuestCookie)
	c.JSON(http.StatusOK, gin.H{"message": "Đã đăng xuất"})
}
