// Package store lưu lời mời, token truy cập, tài khoản admin, session bị thu hồi
// và job export.
//
// GormStore chạy trên postgres (production) hoặc sqlite (local, test).
// MemoryStore giữ mọi thứ trong map, dùng cho unit test.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/vnkhanh/wedding-rsvp/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrTokenAlreadyUsed = errors.New("invitation token already used")
	ErrTokenInactive    = errors.New("invitation token inactive")
	ErrUsernameExists   = errors.New("username already exists")
	ErrDuplicateToken   = errors.New("invitation token already exists")
)

// Redemption mô tả lần dùng token đầu tiên.
type Redemption struct {
	UserAgent   string
	Fingerprint string
	At          time.Time
}

// InvitationFilter lọc danh sách lời mời cho backoffice.
type InvitationFilter struct {
	State  models.ResponseState // rỗng = tất cả
	Search string               // theo tên / nickname
	Limit  int
}

type InvitationStore interface {
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitation(ctx context.Context, id string) (*models.Invitation, error)
	ListInvitations(ctx context.Context, filter InvitationFilter) ([]models.Invitation, error)
	UpdateInvitation(ctx context.Context, inv *models.Invitation) error
	SaveRSVP(ctx context.Context, inv *models.Invitation) error
	DeleteInvitation(ctx context.Context, id string) error
}

type TokenStore interface {
	CreateToken(ctx context.Context, token *models.InvitationToken) error
	// GetToken trả token kèm Invitation sở hữu (nil nếu quan hệ bị hỏng).
	GetToken(ctx context.Context, id string) (*models.InvitationToken, error)
	ListTokens(ctx context.Context, invitationID string) ([]models.InvitationToken, error)
	// RedeemToken flips used=false→true in a single conditional write.
	// Chỉ một caller đồng thời thắng; các caller còn lại nhận ErrTokenAlreadyUsed.
	RedeemToken(ctx context.Context, id string, r Redemption) error
	RecordTokenAccess(ctx context.Context, id string, at time.Time) error
	SetTokenActive(ctx context.Context, id string, active bool) error
	DeleteToken(ctx context.Context, id string) error
}

type AdminStore interface {
	CreateAdminUser(ctx context.Context, user *models.AdminUser) error
	GetAdminUser(ctx context.Context, id string) (*models.AdminUser, error)
	GetAdminUserByUsername(ctx context.Context, username string) (*models.AdminUser, error)
}

type RevocationStore interface {
	RevokeSession(ctx context.Context, jti string, expiresAt time.Time) error
	IsSessionRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpiredRevocations(ctx context.Context, now time.Time) (int64, error)
}

type ExportStore interface {
	CreateExportJob(ctx context.Context, job *models.ExportJob) error
	GetExportJob(ctx context.Context, jobID string) (*models.ExportJob, error)
	UpdateExportJob(ctx context.Context, job *models.ExportJob) error
}

// Store gom tất cả các interface, GormStore và MemoryStore đều implement.
type Store interface {
	InvitationStore
	TokenStore
	AdminStore
	RevocationStore
	ExportStore

	Ping(ctx context.Context) error
	Close() error
}
