package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/wedding-rsvp/auth"
	"github.com/vnkhanh/wedding-rsvp/config"
	"github.com/vnkhanh/wedding-rsvp/controllers"
	"github.com/vnkhanh/wedding-rsvp/middleware"
	"github.com/vnkhanh/wedding-rsvp/routes"
	"github.com/vnkhanh/wedding-rsvp/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Kết nối DB + AutoMigrate
	db, err := config.ConnectDB(cfg.DB, logger)
	if err != nil {
		return err
	}
	st := store.NewGormStore(db, logger)
	defer st.Close()

	sessions := auth.NewSessions(cfg.Secret())
	validator := auth.NewTokenValidator(st)
	verifier := auth.NewVerifier(sessions, validator, st, st)
	redeemer := auth.NewRedeemer(sessions, validator, st, cfg.Secret(), cfg.GuestSessionTTL, logger)
	cookies := middleware.CookieJar{Secure: cfg.IsProduction()}

	h := controllers.New(controllers.Options{
		Store:     st,
		Sessions:  sessions,
		Verifier:  verifier,
		Redeemer:  redeemer,
		Cookies:   cookies,
		AdminTTL:  cfg.AdminSessionTTL,
		ExportDir: cfg.ExportDir,
		Logger:    logger,
	})

	// 10 lần redeem/phút/IP, burst 5; login 5/phút
	redeemLimiter := middleware.NewIPRateLimiter(10, 5, 5*time.Minute)
	loginLimiter := middleware.NewIPRateLimiter(5, 5, 15*time.Minute)
	defer redeemLimiter.Stop()
	defer loginLimiter.Stop()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}

	routes.SetupRoutes(r, routes.Deps{
		Handler:       h,
		Verifier:      verifier,
		Store:         st,
		Cookies:       cookies,
		RedeemLimiter: redeemLimiter,
		LoginLimiter:  loginLimiter,
		Logger:        logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go purgeRevocations(ctx, st, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	h.WaitExports()
	return nil
}

// purgeRevocations dọn các jti đã hết hạn mỗi giờ.
func purgeRevocations(ctx context.Context, st store.RevocationStore, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := st.PurgeExpiredRevocations(ctx, now)
			if err != nil {
				logger.Warn("purge revoked sessions", "err", err)
				continue
			}
			if n > 0 {
				logger.Info("purged revoked sessions", "count", n)
			}
		}
	}
}
