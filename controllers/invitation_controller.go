package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/wedding-rsvp/middleware"
	"github.com/vnkhanh/wedding-rsvp/models"
	"github.com/vnkhanh/wedding-rsvp/store"
	"github.com/vnkhanh/wedding-rsvp/utils"
)

type invitationResp struct {
	models.Invitation
	State models.ResponseState `json:"state"`
}

func toInvitationResp(inv *models.Invitation) invitationResp {
	return invitationResp{Invitation: *inv, State: inv.State()}
}

func parseState(s string) (models.ResponseState, bool) {
	switch st := models.ResponseState(s); st {
	case "", models.ResponsePending, models.ResponseAttending, models.ResponseDeclining:
		return st, true
	}
	return "", false
}

// GET /admin/invitations?state=&q=&limit=
func (h *Handler) ListInvitations(c *gin.Context) {
	state, ok := parseState(c.Query("state"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "state không hợp lệ"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "limit không hợp lệ"})
		return
	}

	list, err := h.store.ListInvitations(c.Request.Context(), store.InvitationFilter{
		State:  state,
		Search: c.Query("q"),
		Limit:  limit,
	})
	if err != nil {
		h.internalError(c, "list invitations", err)
		return
	}

	out := make([]invitationResp, 0, len(list))
	for i := range list {
		out = append(out, toInvitationResp(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"invitations": out, "total": len(out)})
}

type createInvitationReq struct {
	GuestName  string  `json:"guest_name" binding:"required,min=1,max=255"`
	Nickname   *string `json:"nickname"`
	Phone      *string `json:"phone"`
	MaxGuests  int     `json:"max_guests" binding:"required,min=1"`
	IssueToken bool    `json:"issue_token"`
}

// POST /admin/invitations
func (h *Handler) CreateInvitation(c *gin.Context) {
	var req createInvitationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	inv := &models.Invitation{
		GuestName: strings.TrimSpace(req.GuestName),
		Nickname:  req.Nickname,
		Phone:     req.Phone,
		MaxGuests: req.MaxGuests,
	}
	if err := h.store.CreateInvitation(c.Request.Context(), inv); err != nil {
		h.internalError(c, "create invitation", err)
		return
	}

	resp := gin.H{"invitation": toInvitationResp(inv)}
	if req.IssueToken {
		tok, err := h.issueToken(c, inv.ID)
		if err != nil {
			h.internalError(c, "issue token", err)
			return
		}
		resp["token"] = tokenResp(c, tok)
	}
	c.JSON(http.StatusCreated, resp)
}

// GET /admin/invitations/:id
func (h *Handler) GetInvitation(c *gin.Context) {
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
	c.JSON(http.StatusOK, gin.H{"invitation": toInvitationResp(inv), "tokens": out})
}

type updateInvitationReq struct {
	GuestName   *string              `json:"guest_name"`
	Nickname    utils.NullableString `json:"nickname"`
	Phone       utils.NullableString `json:"phone"`
	MaxGuests   *int                 `json:"max_guests"`
	IsAttending utils.NullableBool   `json:"is_attending"` // null = xoá câu trả lời
	GuestCount  utils.NullableInt    `json:"guest_count"`
}

// PATCH /admin/invitations/:id
func (h *Handler) UpdateInvitation(c *gin.Context) {
	var req updateInvitationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	inv := *middleware.InvitationFrom(c)
	if req.GuestName != nil {
		name := strings.TrimSpace(*req.GuestName)
		if name == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "guest_name không được rỗng"})
			return
		}
		inv.GuestName = name
	}
	if req.Nickname.Set {
		inv.Nickname = req.Nickname.Value
	}
	if req.Phone.Set {
		inv.Phone = req.Phone.Value
	}

	// admin sửa RSVP trước rồi mới đổi max, để kiểm tra theo số khách mới
	switch {
	case req.IsAttending.Set && req.IsAttending.Value == nil:
		inv.ClearRSVP()
	case req.IsAttending.Set:
		prevMax := inv.MaxGuests
		if req.MaxGuests != nil {
			inv.MaxGuests = *req.MaxGuests
		}
		err := inv.ApplyRSVP(*req.IsAttending.Value, req.GuestCount.Value, h.sessions.Now())
		inv.MaxGuests = prevMax
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
	}
	if req.MaxGuests != nil {
		if err := inv.SetMaxGuests(*req.MaxGuests); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
	}

	err := h.store.UpdateInvitation(c.Request.Context(), &inv)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Invitation không tồn tại"})
		return
	}
	if err != nil {
		h.internalError(c, "update invitation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitation": toInvitationResp(&inv)})
}

// DELETE /admin/invitations/:id
func (h *Handler) DeleteInvitation(c *gin.Context) {
	inv := middleware.InvitationFrom(c)
	if err := h.store.DeleteInvitation(c.Request.Context(), inv.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.internalError(c, "delete invitation", err)
		return
	}
	h.logger.Info("invitation deleted", "invitation_id", inv.ID, "admin_id", middleware.AdminFrom(c).Admin.ID)
	c.Status(http.StatusNoContent)
}

// GET /admin/stats
func (h *Handler) Stats(c *gin.Context) {
	list, err := h.store.ListInvitations(c.Request.Context(), store.InvitationFilter{})
	if err != nil {
		h.internalError(c, "list invitations", err)
		return
	}

	var pending, attending, declining, confirmedGuests, invitedGuests, used int
	for i := range list {
		inv := &list[i]
		invitedGuests += inv.MaxGuests
		switch inv.State() {
		case models.ResponsePending:
			pending++
		case models.ResponseAttending:
			attending++
			if inv.GuestCount != nil {
				confirmedGuests += *inv.GuestCount
			}
		case models.ResponseDeclining:
			declining++
		}
		for _, t := range inv.Tokens {
			if t.IsUsed {
				used++
				break
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"invitations":      len(list),
		"pending":          pending,
		"attending":        attending,
		"declining":        declining,
		"confirmed_guests": confirmedGuests,
		"invited_guests":   invitedGuests,
		"opened":           used,
	})
}
