package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/wedding-rsvp/models"
)

// GormStore implement Store trên gorm (postgres hoặc sqlite).
type GormStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB, logger *slog.Logger) *GormStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormStore{db: db, logger: logger.With("component", "store")}
}

// AutoMigrate tạo/cập nhật các bảng.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Invitation{},
		&models.InvitationToken{},
		&models.AdminUser{},
		&models.RevokedSession{},
		&models.ExportJob{},
	)
}

/* ========== Invitations ========== */

func (s *GormStore) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	if err := s.db.WithContext(ctx).Create(inv).Error; err != nil {
		return fmt.Errorf("inserting invitation: %w", err)
	}
	s.logger.Info("created invitation", "id", inv.ID, "max_guests", inv.MaxGuests)
	return nil
}

func (s *GormStore) GetInvitation(ctx context.Context, id string) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.db.WithContext(ctx).First(&inv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying invitation: %w", err)
	}
	return &inv, nil
}

func (s *GormStore) ListInvitations(ctx context.Context, filter InvitationFilter) ([]models.Invitation, error) {
	q := s.db.WithContext(ctx).
		Preload("Tokens", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Order("created_at ASC, id ASC")

	switch filter.State {
	case models.ResponsePending:
		q = q.Where("has_responded = ?", false)
	case models.ResponseAttending:
		q = q.Where("has_responded = ? AND is_attending = ?", true, true)
	case models.ResponseDeclining:
		q = q.Where("has_responded = ? AND is_attending = ?", true, false)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(guest_name) LIKE ? OR LOWER(COALESCE(nickname, '')) LIKE ?", like, like)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var out []models.Invitation
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	return out, nil
}

func (s *GormStore) UpdateInvitation(ctx context.Context, inv *models.Invitation) error {
	res := s.db.WithContext(ctx).Model(inv).
		Select("guest_name", "nickname", "phone", "max_guests",
			"has_responded", "is_attending", "guest_count", "responded_at", "updated_at").
		Updates(inv)
	if res.Error != nil {
		return fmt.Errorf("updating invitation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) SaveRSVP(ctx context.Context, inv *models.Invitation) error {
	res := s.db.WithContext(ctx).Model(inv).
		Select("has_responded", "is_attending", "guest_count", "responded_at", "updated_at").
		Updates(inv)
	if res.Error != nil {
		return fmt.Errorf("saving rsvp: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.logger.Info("rsvp saved", "invitation_id", inv.ID, "state", inv.State())
	return nil
}

// DeleteInvitation xoá lời mời và toàn bộ token của nó.
func (s *GormStore) DeleteInvitation(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invitation_id = ?", id).Delete(&models.InvitationToken{}).Error; err != nil {
			return fmt.Errorf("deleting invitation tokens: %w", err)
		}
		res := tx.Delete(&models.Invitation{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("deleting invitation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

/* ========== Tokens ========== */

func (s *GormStore) CreateToken(ctx context.Context, token *models.InvitationToken) error {
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateToken
		}
		return fmt.Errorf("inserting invitation token: %w", err)
	}
	s.logger.Info("created invitation token", "invitation_id", token.InvitationID)
	return nil
}

func (s *GormStore) GetToken(ctx context.Context, id string) (*models.InvitationToken, error) {
	var t models.InvitationToken
	err := s.db.WithContext(ctx).Preload("Invitation").First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying invitation token: %w", err)
	}
	return &t, nil
}

func (s *GormStore) ListTokens(ctx context.Context, invitationID string) ([]models.InvitationToken, error) {
	var out []models.InvitationToken
	err := s.db.WithContext(ctx).
		Where("invitation_id = ?", invitationID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing invitation tokens: %w", err)
	}
	return out, nil
}

// RedeemToken chỉ thành công khi token còn active và chưa dùng, trong một câu UPDATE.
func (s *GormStore) RedeemToken(ctx context.Context, id string, r Redemption) error {
	at := r.At.UTC()
	res := s.db.WithContext(ctx).Model(&models.InvitationToken{}).
		Where("id = ? AND is_used = ? AND is_active = ?", id, false, true).
		Updates(map[string]any{
			"is_used":            true,
			"user_agent":         r.UserAgent,
			"device_fingerprint": r.Fingerprint,
			"first_access_at":    gorm.Expr("COALESCE(first_access_at, ?)", at),
			"last_access_at":     at,
		})
	if res.Error != nil {
		return fmt.Errorf("redeeming invitation token: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// 0 dòng bị đổi: xác định lý do
	var t models.InvitationToken
	err := s.db.WithContext(ctx).Select("id", "is_active", "is_used").First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("querying invitation token: %w", err)
	}
	if !t.IsActive {
		return ErrTokenInactive
	}
	return ErrTokenAlreadyUsed
}

func (s *GormStore) RecordTokenAccess(ctx context.Context, id string, at time.Time) error {
	at = at.UTC()
	res := s.db.WithContext(ctx).Model(&models.InvitationToken{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"first_access_at": gorm.Expr("COALESCE(first_access_at, ?)", at),
			"last_access_at":  at,
			"access_count":    gorm.Expr("access_count + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("recording token access: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) SetTokenActive(ctx context.Context, id string, active bool) error {
	res := s.db.WithContext(ctx).Model(&models.InvitationToken{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("updating token status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.logger.Info("invitation token status changed", "active", active)
	return nil
}

func (s *GormStore) DeleteToken(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.InvitationToken{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting invitation token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

/* ========== Admin users ========== */

func (s *GormStore) CreateAdminUser(ctx context.Context, user *models.AdminUser) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("inserting admin user: %w", err)
	}
	s.logger.Info("created admin user", "id", user.ID, "username", user.Username)
	return nil
}

func (s *GormStore) GetAdminUser(ctx context.Context, id string) (*models.AdminUser, error) {
	var u models.AdminUser
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying admin user: %w", err)
	}
	return &u, nil
}

func (s *GormStore) GetAdminUserByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var u models.AdminUser
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying admin user by username: %w", err)
	}
	return &u, nil
}

/* ========== Revoked sessions ========== */

func (s *GormStore) RevokeSession(ctx context.Context, jti string, expiresAt time.Time) error {
	row := models.RevokedSession{JTI: jti, ExpiresAt: expiresAt.UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

func (s *GormStore) IsSessionRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.RevokedSession{}).
		Where("jti = ?", jti).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking revoked session: %w", err)
	}
	return count > 0, nil
}

func (s *GormStore) PurgeExpiredRevocations(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.RevokedSession{})
	if res.Error != nil {
		return 0, fmt.Errorf("purging revoked sessions: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.logger.Debug("purged expired revocations", "count", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

/* ========== Export jobs ========== */

func (s *GormStore) CreateExportJob(ctx context.Context, job *models.ExportJob) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("inserting export job: %w", err)
	}
	return nil
}

func (s *GormStore) GetExportJob(ctx context.Context, jobID string) (*models.ExportJob, error) {
	var job models.ExportJob
	err := s.db.WithContext(ctx).First(&job, "job_id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying export job: %w", err)
	}
	return &job, nil
}

func (s *GormStore) UpdateExportJob(ctx context.Context, job *models.ExportJob) error {
	res := s.db.WithContext(ctx).Model(job).
		Select("status", "file_path", "error_msg", "updated_at").
		Updates(job)
	if res.Error != nil {
		return fmt.Errorf("updating export job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

/* ========== Lifecycle ========== */

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// isUniqueConstraintError nhận diện lỗi trùng khoá của cả postgres và sqlite.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "unique constraint")
}
