package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/wedding-rsvp/auth"
)

const genericErrorMessage = "Ha ocurrido un error. Por favor, inténtalo de nuevo."

var errorMessages = map[string]string{
	auth.CodeTokenInvalid:    "El enlace de invitación no es válido o ha sido desactivado.",
	auth.CodeTokenUsed:       "Este enlace de invitación ya fue utilizado. Si eres el invitado, contacta a los novios para recibir uno nuevo.",
	auth.CodeTokenProcessing: "No pudimos procesar tu invitación. Inténtalo de nuevo en unos minutos.",
	auth.CodeNeedsInvitation: "Necesitas abrir tu enlace de invitación para acceder.",
	auth.CodeAuthCheckFailed: "No pudimos verificar tu sesión. Inténtalo de nuevo en unos minutos.",
	auth.CodeTooManyAttempts: "Demasiados intentos. Espera un momento antes de volver a intentarlo.",
}

// GET /error?message=<code>
func (h *Handler) ErrorPage(c *gin.Context) {
	code := c.Query("message")
	msg, ok := errorMessages[code]
	if !ok {
		code, msg = "error", genericErrorMessage
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "message": msg})
}
