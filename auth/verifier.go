package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/vnkhanh/wedding-rsvp/models"
	"github.com/vnkhanh/wedding-rsvp/store"
)

// GuestSession là kết quả verify credential của khách.
type GuestSession struct {
	Claims     *SessionClaims
	Token      *models.InvitationToken
	Invitation *models.Invitation
}

// AdminSession là kết quả verify credential của admin.
type AdminSession struct {
	Claims *SessionClaims
	Admin  *models.AdminUser
}

// Verifier chạy toàn bộ chuỗi kiểm tra cho mỗi request cần quyền:
// credential, danh sách thu hồi, rồi đọc lại subject từ DB.
type Verifier struct {
	sessions    *Sessions
	validator   *TokenValidator
	admins      store.AdminStore
	revocations store.RevocationStore
}

func NewVerifier(sessions *Sessions, validator *TokenValidator, admins store.AdminStore, revocations store.RevocationStore) *Verifier {
	return &Verifier{sessions: sessions, validator: validator, admins: admins, revocations: revocations}
}

func (v *Verifier) VerifyGuest(ctx context.Context, raw string) (*GuestSession, error) {
	claims, err := v.sessions.Parse(raw, AudienceGuest)
	if err != nil {
		return nil, err
	}
	if err := v.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	tok, inv, err := v.validator.Validate(ctx, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if inv.ID != claims.Subject || (claims.InvitationID != "" && claims.InvitationID != inv.ID) {
		return nil, fail(ReasonSubjectMismatch, nil)
	}
	return &GuestSession{Claims: claims, Token: tok, Invitation: inv}, nil
}

func (v *Verifier) VerifyAdmin(ctx context.Context, raw string) (*AdminSession, error) {
	claims, err := v.sessions.Parse(raw, AudienceAdmin)
	if err != nil {
		return nil, err
	}
	if err := v.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	admin, err := v.admins.GetAdminUser(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fail(ReasonAccountNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get admin user: %w", err)
	}
	return &AdminSession{Claims: claims, Admin: admin}, nil
}

func (v *Verifier) checkRevoked(ctx context.Context, claims *SessionClaims) error {
	if v.revocations == nil || claims.ID == "" {
		return nil
	}
	revoked, err := v.revocations.IsSessionRevoked(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return fail(ReasonRevoked, nil)
	}
	return nil
}
