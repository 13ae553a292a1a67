package models

import "time"

// RevokedSession lưu jti của session đã bị thu hồi cho tới khi nó tự hết hạn.
type RevokedSession struct {
	JTI       string    `gorm:"column:jti;primaryKey;size:36" json:"jti"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index" json:"expires_at"`
	RevokedAt time.Time `gorm:"column:revoked_at;autoCreateTime" json:"revoked_at"`
}

func (RevokedSession) TableName() string {
	return "revoked_sessions"
}
