package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/vnkhanh/wedding-rsvp/store"
)

// RedeemAction là kết quả cuối cùng của một lần redeem.
type RedeemAction string

const (
	ActionRedirect      RedeemAction = "redirect"
	ActionAuthenticated RedeemAction = "authenticated"
	ActionError         RedeemAction = "error"
)

type RedeemRequest struct {
	TokenID         string
	UserAgent       string
	ExistingSession string // cookie session hiện có, rỗng nếu không có
}

type RedeemResult struct {
	Action       RedeemAction
	Code         string // chỉ có khi Action == ActionError
	InvitationID string

	// Session là credential mới cần set cookie, rỗng nếu không cấp mới.
	Session   string
	ExpiresAt time.Time

	// ClearSession: cookie cũ không còn tin được, cần xoá.
	ClearSession bool
}

// Redeemer đổi token lời mời lấy session của khách.
type Redeemer struct {
	sessions  *Sessions
	validator *TokenValidator
	tokens    store.TokenStore
	secret    []byte
	ttl       time.Duration
	logger    *slog.Logger
}

func NewRedeemer(sessions *Sessions, validator *TokenValidator, tokens store.TokenStore, secret []byte, ttl time.Duration, logger *slog.Logger) *Redeemer {
	return &Redeemer{
		sessions:  sessions,
		validator: validator,
		tokens:    tokens,
		secret:    secret,
		ttl:       ttl,
		logger:    logger.With("component", "redeemer"),
	}
}

// Redeem luôn kết thúc bằng một trong các Action ở trên, không retry.
func (r *Redeemer) Redeem(ctx context.Context, req RedeemRequest) RedeemResult {
	fp := Fingerprint(req.UserAgent, r.secret)

	discard := false
	if req.ExistingSession != "" {
		claims, err := r.sessions.Parse(req.ExistingSession, AudienceGuest)
		switch {
		case err != nil:
			discard = true
		case subtle.ConstantTimeCompare([]byte(claims.DeviceFP), []byte(fp)) != 1:
			// UA đổi (update trình duyệt...): bỏ session cũ, redeem lại
			r.logger.Warn("session fingerprint mismatch, discarding session",
				"token", tokenPrefix(req.TokenID), "jti", claims.ID)
			discard = true
		case claims.TokenID == req.TokenID:
			return RedeemResult{Action: ActionRedirect, InvitationID: claims.Subject}
		}
	}

	res := r.redeemFresh(ctx, req, fp)
	if res.Session == "" {
		res.ClearSession = discard
	}
	return res
}

func (r *Redeemer) redeemFresh(ctx context.Context, req RedeemRequest, fp string) RedeemResult {
	tok, inv, err := r.validator.Validate(ctx, req.TokenID)
	if err != nil {
		if reason, ok := ReasonOf(err); ok {
			r.logger.Info("token rejected", "token", tokenPrefix(req.TokenID), "reason", reason)
			return errorResult(CodeTokenInvalid)
		}
		r.logger.Error("validate token", "token", tokenPrefix(req.TokenID), "err", err)
		return errorResult(CodeTokenProcessing)
	}
	if tok.IsUsed {
		return errorResult(CodeTokenUsed)
	}

	// ký trước khi ghi: lỗi ký không được làm cháy token
	signed, claims, err := r.sessions.Issue(Subject{
		ID:           inv.ID,
		InvitationID: inv.ID,
		TokenID:      tok.ID,
		DeviceFP:     fp,
	}, AudienceGuest, SessionTypeGuest, r.ttl)
	if err != nil {
		r.logger.Error("issue guest session", "token", tokenPrefix(tok.ID), "err", err)
		return errorResult(CodeTokenProcessing)
	}

	err = r.tokens.RedeemToken(ctx, tok.ID, store.Redemption{
		UserAgent:   req.UserAgent,
		Fingerprint: fp,
		At:          r.sessions.Now(),
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrTokenAlreadyUsed):
		return errorResult(CodeTokenUsed)
	case errors.Is(err, store.ErrTokenInactive), errors.Is(err, store.ErrNotFound):
		return errorResult(CodeTokenInvalid)
	default:
		r.logger.Error("redeem token", "token", tokenPrefix(tok.ID), "err", err)
		return errorResult(CodeTokenProcessing)
	}

	r.logger.Info("token redeemed", "token", tokenPrefix(tok.ID), "invitation_id", inv.ID)
	return RedeemResult{
		Action:       ActionAuthenticated,
		InvitationID: inv.ID,
		Session:      signed,
		ExpiresAt:    claims.ExpiresAt.Time,
	}
}

func errorResult(code string) RedeemResult {
	return RedeemResult{Action: ActionError, Code: code}
}

// tokenPrefix giữ token đầy đủ ra khỏi log.
func tokenPrefix(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[:6] + "…"
}
