// Package controllers chứa các gin handler của site RSVP và backoffice.
package controllers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/wedding-rsvp/auth"
	"github.com/vnkhanh/wedding-rsvp/middleware"
	"github.com/vnkhanh/wedding-rsvp/store"
)

type Options struct {
	Store     store.Store
	Sessions  *auth.Sessions
	Verifier  *auth.Verifier
	Redeemer  *auth.Redeemer
	Cookies   middleware.CookieJar
	AdminTTL  time.Duration
	ExportDir string
	Logger    *slog.Logger
}

// Handler giữ các dependency dùng chung; mỗi route là một method.
type Handler struct {
	store     store.Store
	sessions  *auth.Sessions
	verifier  *auth.Verifier
	redeemer  *auth.Redeemer
	cookies   middleware.CookieJar
	adminTTL  time.Duration
	exportDir string
	logger    *slog.Logger

	exports sync.WaitGroup
}

func New(opts Options) *Handler {
	return &Handler{
		store:     opts.Store,
		sessions:  opts.Sessions,
		verifier:  opts.Verifier,
		redeemer:  opts.Redeemer,
		cookies:   opts.Cookies,
		adminTTL:  opts.AdminTTL,
		exportDir: opts.ExportDir,
		logger:    opts.Logger.With("component", "controllers"),
	}
}

// WaitExports chờ các job export đang chạy xong (shutdown, test).
func (h *Handler) WaitExports() {
	h.exports.Wait()
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "path", c.FullPath(), "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi máy chủ"})
}

// distributionURL dựng link /r/{token} theo host của request hiện tại.
func distributionURL(c *gin.Context, tokenID string) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/r/" + tokenID
}
