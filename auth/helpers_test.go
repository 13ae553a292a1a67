package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/wedding-rsvp/models"
	"github.com/vnkhanh/wedding-rsvp/store"
)

var testSecret = []byte("test-secret-0123456789abcdef0123456789")

const (
	guestTTL = 4320 * time.Hour
	adminTTL = 8 * time.Hour
)

type fixture struct {
	store    *store.MemoryStore
	now      time.Time
	sessions *Sessions
	verifier *Verifier
	redeemer *Redeemer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: store.NewMemoryStore(),
		now:   time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.sessions = NewSessions(testSecret).WithClock(func() time.Time { return f.now })
	validator := NewTokenValidator(f.store)
	f.verifier = NewVerifier(f.sessions, validator, f.store, f.store)
	f.redeemer = NewRedeemer(f.sessions, validator, f.store, testSecret, guestTTL, discardLogger())
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

// seed tạo một invitation với một token theo id cho trước.
func (f *fixture) seed(t *testing.T, tokenID string, active bool) *models.Invitation {
	t.Helper()
	ctx := context.Background()
	inv := &models.Invitation{GuestName: "Ana & Luis", MaxGuests: 3}
	require.NoError(t, f.store.CreateInvitation(ctx, inv))
	tok := models.NewInvitationToken(tokenID, inv.ID)
	tok.IsActive = active
	require.NoError(t, f.store.CreateToken(ctx, tok))
	return inv
}

func (f *fixture) seedAdmin(t *testing.T) *models.AdminUser {
	t.Helper()
	u := &models.AdminUser{Username: "novia", PasswordHash: "x", DisplayName: "Novia"}
	require.NoError(t, f.store.CreateAdminUser(context.Background(), u))
	return u
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTokenFor(id, invitationID string) *models.InvitationToken {
	return models.NewInvitationToken(id, invitationID)
}
