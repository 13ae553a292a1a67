package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/wedding-rsvp/auth"
	"github.com/vnkhanh/wedding-rsvp/models"
)

// Key trong gin.Context.
const (
	CtxGuest      = "guestSession" // *auth.GuestSession
	CtxAdmin      = "adminSession" // *auth.AdminSession
	CtxInvitation = "invitationObj"
	CtxToken      = "tokenObj"
)

func GuestFrom(c *gin.Context) *auth.GuestSession {
	return c.MustGet(CtxGuest).(*auth.GuestSession)
}

func AdminFrom(c *gin.Context) *auth.AdminSession {
	return c.MustGet(CtxAdmin).(*auth.AdminSession)
}

func InvitationFrom(c *gin.Context) *models.Invitation {
	return c.MustGet(CtxInvitation).(*models.Invitation)
}

func TokenFrom(c *gin.Context) *models.InvitationToken {
	return c.MustGet(CtxToken).(*models.InvitationToken)
}
