package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/wedding-rsvp/auth"
	"github.com/vnkhanh/wedding-rsvp/controllers"
	"github.com/vnkhanh/wedding-rsvp/middleware"
	"github.com/vnkhanh/wedding-rsvp/store"
)

type Deps struct {
	Handler       *controllers.Handler
	Verifier      *auth.Verifier
	Store         store.Store
	Cookies       middleware.CookieJar
	RedeemLimiter *middleware.IPRateLimiter
	LoginLimiter  *middleware.IPRateLimiter
	Logger        *slog.Logger
}

func SetupRoutes(r *gin.Engine, d Deps) {
	h := d.Handler

	// Gate phải đăng ký trước mọi route
	r.Use(middleware.NewGate(d.Verifier, d.Cookies, d.Logger).Handler())

	r.GET("/ping", h.Ping)
	r.GET("/health", h.Health)
	r.GET("/error", h.ErrorPage)

	// Khách
	r.GET("/r/:token", middleware.RateLimitRedirect(d.RedeemLimiter), h.Redeem)
	r.GET("/", h.Home)
	guest := r.Group("/")
	guest.Use(middleware.WithGuestAuth(d.Verifier, d.Cookies, d.Logger))
	{
		guest.GET("/invitation", h.GuestInvitation)
		guest.POST("/rsvp", h.SubmitRSVP)
		guest.POST("/logout", h.GuestLogout)
	}

	// Khu admin
	r.GET("/admin/login", h.AdminLoginStatus)
	r.POST("/admin/login", middleware.RateLimitByIP(d.LoginLimiter), h.AdminLogin)

	admin := r.Group("/admin")
	admin.Use(middleware.WithAdminAuth(d.Verifier, d.Cookies, d.Logger))
	{
		admin.POST("/logout", h.AdminLogout)
		admin.GET("/me", h.AdminMe)
		admin.GET("/stats", h.Stats)

		loadInv := middleware.LoadInvitation(d.Store, d.Logger)
		admin.GET("/invitations", h.ListInvitations)
		admin.POST("/invitations", h.CreateInvitation)
		admin.GET("/invitations/:id", loadInv, h.GetInvitation)
		admin.PATCH("/invitations/:id", loadInv, h.UpdateInvitation)
		admin.DELETE("/invitations/:id", loadInv, h.DeleteInvitation)
		admin.GET("/invitations/:id/tokens", loadInv, h.ListTokens)
		admin.POST("/invitations/:id/tokens", loadInv, h.IssueToken)

		loadTok := middleware.LoadToken(d.Store, d.Logger)
		admin.PUT("/tokens/:id/activate", loadTok, h.ActivateToken)
		admin.PUT("/tokens/:id/deactivate", loadTok, h.DeactivateToken)
		admin.DELETE("/tokens/:id", loadTok, h.DeleteToken)

		admin.POST("/exports", h.CreateExport)
		admin.GET("/exports/:job_id", h.GetExport)
	}
}
