package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	Issuer = "wedding-rsvp"

	AudienceGuest = "wedding-rsvp:guest"
	AudienceAdmin = "wedding-rsvp:admin"

	SessionTypeGuest = "guest"
	SessionTypeAdmin = "admin"
)

var ErrInvalidTTL = errors.New("session ttl must be positive")

// SessionClaims là payload của session credential (guest và admin dùng chung).
type SessionClaims struct {
	InvitationID string `json:"invitationId,omitempty"`
	TokenID      string `json:"tokenId,omitempty"`
	Username     string `json:"username,omitempty"`
	DeviceFP     string `json:"deviceFp,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
	SessionType  string `json:"sessionType"`
	jwt.RegisteredClaims
}

// Subject là chủ thể được ký vào credential.
// ID là invitation id (guest) hoặc admin user id (admin).
type Subject struct {
	ID           string
	InvitationID string
	TokenID      string
	Username     string
	DeviceFP     string
}

// Sessions ký và kiểm tra session credential bằng HS512.
type Sessions struct {
	secret []byte
	now    func() time.Time
}

func NewSessions(secret []byte) *Sessions {
	return &Sessions{secret: secret, now: time.Now}
}

// WithClock thay đồng hồ, dùng trong test.
func (s *Sessions) WithClock(now func() time.Time) *Sessions {
	s.now = now
	return s
}

func (s *Sessions) Now() time.Time { return s.now() }

// Issue ký credential cho sub, hết hạn sau ttl tính từ bây giờ.
func (s *Sessions) Issue(sub Subject, audience, sessionType string, ttl time.Duration) (string, *SessionClaims, error) {
	if ttl <= 0 {
		return "", nil, ErrInvalidTTL
	}
	now := s.now()
	claims := &SessionClaims{
		InvitationID: sub.InvitationID,
		TokenID:      sub.TokenID,
		Username:     sub.Username,
		DeviceFP:     sub.DeviceFP,
		CreatedAt:    now.UnixMilli(),
		SessionType:  sessionType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   sub.ID,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := s.sign(claims)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func (s *Sessions) sign(claims *SessionClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.secret)
}

// Parse kiểm tra lần lượt chữ ký, thời hạn, issuer, audience rồi session type.
// Mọi lần từ chối đều trả về *Failure.
func (s *Sessions) Parse(raw, audience string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fail(ReasonMalformedOrForged, err)
	}
	if !token.Valid {
		return nil, fail(ReasonMalformedOrForged, nil)
	}

	if claims.Issuer != Issuer {
		return nil, fail(ReasonWrongIssuer, nil)
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != audience {
		return nil, fail(ReasonWrongAudience, nil)
	}

	// admin credential phải mang sessionType=admin; guest credential thì không được
	if audience == AudienceAdmin {
		if claims.SessionType != SessionTypeAdmin {
			return nil, fail(ReasonWrongSessionType, nil)
		}
	} else if claims.SessionType == SessionTypeAdmin {
		return nil, fail(ReasonWrongSessionType, nil)
	}
	return claims, nil
}
