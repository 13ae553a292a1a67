package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guestClaims(now time.Time) *SessionClaims {
	return &SessionClaims{
		InvitationID: "inv-1",
		TokenID:      "tok-aaaaaaaa01",
		DeviceFP:     "fp",
		CreatedAt:    now.UnixMilli(),
		SessionType:  SessionTypeGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   "inv-1",
			Audience:  jwt.ClaimStrings{AudienceGuest},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        "jti-1",
		},
	}
}

func assertReason(t *testing.T, want Reason, err error) {
	t.Helper()
	require.Error(t, err)
	got, ok := ReasonOf(err)
	require.True(t, ok, "expected auth failure, got %v", err)
	assert.Equal(t, want, got)
}

func TestIssue_RoundTrip(t *testing.T) {
	f := newFixture(t)

	raw, issued, err := f.sessions.Issue(Subject{
		ID: "inv-1", InvitationID: "inv-1", TokenID: "tok-aaaaaaaa01", DeviceFP: "fp",
	}, AudienceGuest, SessionTypeGuest, guestTTL)
	require.NoError(t, err)

	claims, err := f.sessions.Parse(raw, AudienceGuest)
	require.NoError(t, err)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.Equal(t, "inv-1", claims.Subject)
	assert.Equal(t, "tok-aaaaaaaa01", claims.TokenID)
	assert.Equal(t, "fp", claims.DeviceFP)
	assert.Equal(t, SessionTypeGuest, claims.SessionType)
	assert.Equal(t, issued.ID, claims.ID)
	assert.True(t, claims.ExpiresAt.Time.Equal(f.now.Add(guestTTL)))
	assert.True(t, claims.NotBefore.Time.Equal(f.now))
	assert.Equal(t, f.now.UnixMilli(), claims.CreatedAt)
}

func TestIssue_UniqueIDAndPositiveTTL(t *testing.T) {
	f := newFixture(t)
	sub := Subject{ID: "admin-1", Username: "novia"}

	_, a, err := f.sessions.Issue(sub, AudienceAdmin, SessionTypeAdmin, adminTTL)
	require.NoError(t, err)
	_, b, err := f.sessions.Issue(sub, AudienceAdmin, SessionTypeAdmin, adminTTL)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	_, _, err = f.sessions.Issue(sub, AudienceAdmin, SessionTypeAdmin, 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)
}

func TestParse_AudienceIsolation(t *testing.T) {
	f := newFixture(t)

	guest, _, err := f.sessions.Issue(Subject{ID: "inv-1", TokenID: "tok-aaaaaaaa01"}, AudienceGuest, SessionTypeGuest, guestTTL)
	require.NoError(t, err)
	admin, _, err := f.sessions.Issue(Subject{ID: "admin-1"}, AudienceAdmin, SessionTypeAdmin, adminTTL)
	require.NoError(t, err)

	_, err = f.sessions.Parse(guest, AudienceAdmin)
	assertReason(t, ReasonWrongAudience, err)

	_, err = f.sessions.Parse(admin, AudienceGuest)
	assertReason(t, ReasonWrongAudience, err)
}

func TestParse_SessionTypeMustMatchAudience(t *testing.T) {
	f := newFixture(t)

	// audience đúng nhưng sessionType sai
	c := guestClaims(f.now)
	c.SessionType = SessionTypeAdmin
	raw, err := f.sessions.sign(c)
	require.NoError(t, err)
	_, err = f.sessions.Parse(raw, AudienceGuest)
	assertReason(t, ReasonWrongSessionType, err)

	c = guestClaims(f.now)
	c.Audience = jwt.ClaimStrings{AudienceAdmin}
	raw, err = f.sessions.sign(c)
	require.NoError(t, err)
	_, err = f.sessions.Parse(raw, AudienceAdmin)
	assertReason(t, ReasonWrongSessionType, err)
}

func TestParse_WrongIssuer(t *testing.T) {
	f := newFixture(t)
	c := guestClaims(f.now)
	c.Issuer = "someone-else"
	raw, err := f.sessions.sign(c)
	require.NoError(t, err)

	_, err = f.sessions.Parse(raw, AudienceGuest)
	assertReason(t, ReasonWrongIssuer, err)
}

func TestParse_ValidityWindow(t *testing.T) {
	f := newFixture(t)
	raw, err := f.sessions.sign(guestClaims(f.now))
	require.NoError(t, err)

	_, err = f.sessions.Parse(raw, AudienceGuest)
	require.NoError(t, err)

	f.advance(time.Hour + time.Second)
	_, err = f.sessions.Parse(raw, AudienceGuest)
	assertReason(t, ReasonMalformedOrForged, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	// nbf ở tương lai
	c := guestClaims(f.now)
	c.NotBefore = jwt.NewNumericDate(f.now.Add(time.Minute))
	raw, err = f.sessions.sign(c)
	require.NoError(t, err)
	_, err = f.sessions.Parse(raw, AudienceGuest)
	assertReason(t, ReasonMalformedOrForged, err)
	assert.ErrorIs(t, err, jwt.ErrTokenNotValidYet)

	c = guestClaims(f.now)
	c.ExpiresAt = nil
	raw, err = f.sessions.sign(c)
	require.NoError(t, err)
	_, err = f.sessions.Parse(raw, AudienceGuest)
	assertReason(t, ReasonMalformedOrForged, err)
}

func TestParse_RejectsForgedCredentials(t *testing.T) {
	f := newFixture(t)
	c := guestClaims(f.now)

	other := NewSessions([]byte("not-the-server-secret-0123456789abcdef"))
	raw, err := other.sign(c)
	require.NoError(t, err)
	_, err = f.sessions.Parse(raw, AudienceGuest)
	assertReason(t, ReasonMalformedOrForged, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = f.sessions.Parse(none, AudienceGuest)
	assertReason(t, ReasonMalformedOrForged, err)

	hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(testSecret)
	require.NoError(t, err)
	_, err = f.sessions.Parse(hs256, AudienceGuest)
	assertReason(t, ReasonMalformedOrForged, err)

	_, err = f.sessions.Parse("not.a.jwt", AudienceGuest)
	assertReason(t, ReasonMalformedOrForged, err)
}
