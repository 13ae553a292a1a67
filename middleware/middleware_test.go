package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/wedding-rsvp/auth"
	"github.com/vnkhanh/wedding-rsvp/models"
	"github.com/vnkhanh/wedding-rsvp/store"
)

var testSecret = []byte("middleware-test-secret-0123456789abcdef")

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	store    *store.MemoryStore
	sessions *auth.Sessions
	verifier *auth.Verifier
	logger   *slog.Logger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := store.NewMemoryStore()
	sessions := auth.NewSessions(testSecret)
	return &harness{
		store:    s,
		sessions: sessions,
		verifier: auth.NewVerifier(sessions, auth.NewTokenValidator(s), s, s),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (h *harness) guestCookie(t *testing.T, tokenID string) string {
	t.Helper()
	ctx := context.Background()
	inv := &models.Invitation{GuestName: "Familia Ortega", MaxGuests: 4}
	require.NoError(t, h.store.CreateInvitation(ctx, inv))
	require.NoError(t, h.store.CreateToken(ctx, models.NewInvitationToken(tokenID, inv.ID)))

	raw, _, err := h.sessions.Issue(auth.Subject{ID: inv.ID, InvitationID: inv.ID, TokenID: tokenID},
		auth.AudienceGuest, auth.SessionTypeGuest, time.Hour)
	require.NoError(t, err)
	return raw
}

func (h *harness) adminCookie(t *testing.T) string {
	t.Helper()
	u := &models.AdminUser{Username: "admin", PasswordHash: "x"}
	require.NoError(t, h.store.CreateAdminUser(context.Background(), u))
	raw, _, err := h.sessions.Issue(auth.Subject{ID: u.ID, Username: u.Username},
		auth.AudienceAdmin, auth.SessionTypeAdmin, time.Hour)
	require.NoError(t, err)
	return raw
}

func (h *harness) gatedEngine() *gin.Engine {
	r := gin.New()
	r.Use(NewGate(h.verifier, CookieJar{}, h.logger).Handler())
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	for _, p := range []string{"/", "/error", "/admin/login", "/health", "/r/:token", "/static/app.css", "/invitation", "/admin/me"} {
		r.GET(p, ok)
	}
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, GuestFrom(c).Invitation.GuestName)
	})
	return r
}

func do(r http.Handler, method, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func clearedCookie(rec *httptest.ResponseRecorder, name string) bool {
	for _, sc := range rec.Header().Values("Set-Cookie") {
		if strings.HasPrefix(sc, name+"=;") && strings.Contains(sc, "Max-Age=0") {
			return true
		}
	}
	return false
}

func TestGate_PublicPathsPassWithoutSession(t *testing.T) {
	r := newHarness(t).gatedEngine()
	for _, p := range []string{"/", "/error", "/admin/login", "/health", "/r/tok-abcdefgh", "/static/app.css"} {
		rec := do(r, http.MethodGet, p)
		assert.Equal(t, http.StatusOK, rec.Code, p)
	}
}

func TestGate_GuestArea(t *testing.T) {
	h := newHarness(t)
	r := h.gatedEngine()

	rec := do(r, http.MethodGet, "/invitation")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/error?message=necesita-invitacion", rec.Header().Get("Location"))
	assert.False(t, clearedCookie(rec, GuestCookie))

	raw := h.guestCookie(t, "tok-gate-00001")
	rec = do(r, http.MethodGet, "/whoami", &http.Cookie{Name: GuestCookie, Value: raw})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Familia Ortega", rec.Body.String())
}

func TestGate_StaleGuestCookieIsCleared(t *testing.T) {
	h := newHarness(t)
	r := h.gatedEngine()
	raw := h.guestCookie(t, "tok-gate-00001")
	require.NoError(t, h.store.SetTokenActive(context.Background(), "tok-gate-00001", false))

	rec := do(r, http.MethodGet, "/invitation", &http.Cookie{Name: GuestCookie, Value: raw})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/error?message=necesita-invitacion", rec.Header().Get("Location"))
	assert.True(t, clearedCookie(rec, GuestCookie))
}

func TestGate_AdminArea(t *testing.T) {
	h := newHarness(t)
	r := h.gatedEngine()

	rec := do(r, http.MethodGet, "/admin/me")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, AdminLoginPath, rec.Header().Get("Location"))

	rec = do(r, http.MethodGet, "/admin/me", &http.Cookie{Name: AdminCookie, Value: h.adminCookie(t)})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGate_GuestCredentialNeverOpensAdminArea(t *testing.T) {
	h := newHarness(t)
	r := h.gatedEngine()
	guest := h.guestCookie(t, "tok-gate-00001")

	// guest cookie đúng tên của nó: admin area không đọc tới
	rec := do(r, http.MethodGet, "/admin/me", &http.Cookie{Name: GuestCookie, Value: guest})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, AdminLoginPath, rec.Header().Get("Location"))

	// guest credential nhét vào admin cookie
	rec = do(r, http.MethodGet, "/admin/me", &http.Cookie{Name: AdminCookie, Value: guest})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, AdminLoginPath, rec.Header().Get("Location"))
	assert.True(t, clearedCookie(rec, AdminCookie))

	// và ngược lại
	rec = do(r, http.MethodGet, "/invitation", &http.Cookie{Name: GuestCookie, Value: h.adminCookie(t)})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, clearedCookie(rec, GuestCookie))
}

func TestGate_InfrastructureErrorKeepsCookie(t *testing.T) {
	h := newHarness(t)
	r := h.gatedEngine()
	raw := h.guestCookie(t, "tok-gate-00001")
	h.store.FailWith(errors.New("db down"))

	rec := do(r, http.MethodGet, "/invitation", &http.Cookie{Name: GuestCookie, Value: raw})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/error?message=error-verificando-autenticacion", rec.Header().Get("Location"))
	assert.False(t, clearedCookie(rec, GuestCookie))
}

func TestWithGuestAuth(t *testing.T) {
	h := newHarness(t)
	r := gin.New()
	r.POST("/rsvp", WithGuestAuth(h.verifier, CookieJar{}, h.logger), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"invitation_id": GuestFrom(c).Invitation.ID})
	})

	rec := do(r, http.MethodPost, "/rsvp")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), auth.CodeNeedsInvitation)

	rec = do(r, http.MethodPost, "/rsvp", &http.Cookie{Name: GuestCookie, Value: "forged.jwt.value"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, clearedCookie(rec, GuestCookie))

	raw := h.guestCookie(t, "tok-guard-0001")
	rec = do(r, http.MethodPost, "/rsvp", &http.Cookie{Name: GuestCookie, Value: raw})
	assert.Equal(t, http.StatusOK, rec.Code)

	h.store.FailWith(errors.New("db down"))
	rec = do(r, http.MethodPost, "/rsvp", &http.Cookie{Name: GuestCookie, Value: raw})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), auth.CodeAuthCheckFailed)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestWithAdminAuth_ReusesGateResult(t *testing.T) {
	h := newHarness(t)
	raw := h.adminCookie(t)

	r := gin.New()
	r.Use(NewGate(h.verifier, CookieJar{}, h.logger).Handler())
	calls := 0
	r.GET("/admin/me", func(c *gin.Context) {
		calls++
		c.Next()
	}, WithAdminAuth(h.verifier, CookieJar{}, h.logger), func(c *gin.Context) {
		c.String(http.StatusOK, AdminFrom(c).Admin.Username)
	})

	rec := do(r, http.MethodGet, "/admin/me", &http.Cookie{Name: AdminCookie, Value: raw})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", rec.Body.String())
	assert.Equal(t, 1, calls)
}

func TestCookieJar(t *testing.T) {
	r := gin.New()
	r.GET("/set", func(c *gin.Context) {
		CookieJar{Secure: true}.Set(c, GuestCookie, "v", time.Now().Add(time.Hour))
	})
	rec := do(r, http.MethodGet, "/set")

	sc := rec.Header().Get("Set-Cookie")
	assert.Contains(t, sc, "session=v")
	assert.Contains(t, sc, "HttpOnly")
	assert.Contains(t, sc, "Secure")
	assert.Contains(t, sc, "SameSite=Lax")
	assert.Contains(t, sc, "Path=/")
}

func TestRateLimit(t *testing.T) {
	rl := NewIPRateLimiter(1, 2, time.Minute)
	defer rl.Stop()

	r := gin.New()
	r.GET("/r/:token", RateLimitRedirect(rl), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/admin/login", RateLimitByIP(rl), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/r/tok-abcdefgh").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/r/tok-abcdefgh").Code)

	rec := do(r, http.MethodGet, "/r/tok-abcdefgh")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/error?message=demasiados-intentos", rec.Header().Get("Location"))

	// cùng limiter nên login cũng bị chặn
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/admin/login").Code)
}

func TestRateLimit_EvictIdle(t *testing.T) {
	rl := NewIPRateLimiter(10, 5, time.Minute)
	defer rl.Stop()

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	require.Equal(t, 2, rl.size())

	rl.evictIdle(time.Now().Add(30 * time.Second))
	assert.Equal(t, 2, rl.size())
	rl.evictIdle(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, rl.size())
}

func TestLoaders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := &models.Invitation{GuestName: "Abuela Carmen", MaxGuests: 1}
	require.NoError(t, h.store.CreateInvitation(ctx, inv))
	require.NoError(t, h.store.CreateToken(ctx, models.NewInvitationToken("tok-load-00001", inv.ID)))

	r := gin.New()
	r.GET("/invitations/:id", LoadInvitation(h.store, h.logger), func(c *gin.Context) {
		c.String(http.StatusOK, InvitationFrom(c).GuestName)
	})
	r.GET("/tokens/:id", LoadToken(h.store, h.logger), func(c *gin.Context) {
		c.String(http.StatusOK, TokenFrom(c).InvitationID)
	})

	rec := do(r, http.MethodGet, "/invitations/"+inv.ID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Abuela Carmen", rec.Body.String())
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/invitations/nope").Code)

	rec = do(r, http.MethodGet, "/tokens/tok-load-00001")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, inv.ID, rec.Body.String())
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/tokens/bad").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/tokens/tok-missing-01").Code)
}

func TestRedactPath(t *testing.T) {
	assert.Equal(t, "/r/q7V2mJ…", redactPath("/r/q7V2mJ0xLcR9tWk4yNpE8hU1sDf6gA5b"))
	assert.Equal(t, "/admin/me", redactPath("/admin/me"))
}
