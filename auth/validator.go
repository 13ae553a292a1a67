package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/vnkhanh/wedding-rsvp/models"
	"github.com/vnkhanh/wedding-rsvp/store"
)

var tokenIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// ValidTokenID kiểm tra định dạng token trước khi chạm tới store.
func ValidTokenID(id string) bool {
	return tokenIDPattern.MatchString(id)
}

// TokenValidator tìm token và lời mời sở hữu nó.
type TokenValidator struct {
	tokens store.TokenStore
}

func NewTokenValidator(tokens store.TokenStore) *TokenValidator {
	return &TokenValidator{tokens: tokens}
}

// Validate trả token và invitation nếu token tồn tại, đang active và có chủ.
// Token đã dùng vẫn hợp lệ ở đây; việc chặn dùng lại là của Redeemer.
func (v *TokenValidator) Validate(ctx context.Context, id string) (*models.InvitationToken, *models.Invitation, error) {
	if !ValidTokenID(id) {
		return nil, nil, fail(ReasonMalformedToken, nil)
	}

	tok, err := v.tokens.GetToken(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, fail(ReasonNotFound, err)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get token: %w", err)
	}
	if !tok.IsActive {
		return nil, nil, fail(ReasonInactive, nil)
	}
	if tok.Invitation == nil {
		return nil, nil, fail(ReasonNoOwningInvitation, nil)
	}
	return tok, tok.Invitation, nil
}
