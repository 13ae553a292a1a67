package models

import "time"

// InvitationToken là một link mời có thể phân phát; ID chính là giá trị nằm trong URL.
type InvitationToken struct {
	ID                string     `gorm:"column:id;primaryKey;size:64" json:"id"`
	InvitationID      string     `gorm:"column:invitation_id;size:36;not null;index" json:"invitation_id"`
	IsActive          bool       `gorm:"column:is_active;not null" json:"is_active"`
	IsUsed            bool       `gorm:"column:is_used;not null" json:"is_used"`
	FirstAccessAt     *time.Time `gorm:"column:first_access_at" json:"first_access_at"`
	LastAccessAt      *time.Time `gorm:"column:last_access_at" json:"last_access_at"`
	AccessCount       int        `gorm:"column:access_count;not null;default:0" json:"access_count"`
	DeviceFingerprint *string    `gorm:"column:device_fingerprint;size:64" json:"-"`
	UserAgent         *string    `gorm:"column:user_agent;type:text" json:"user_agent"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Invitation *Invitation `gorm:"foreignKey:InvitationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (InvitationToken) TableName() string {
	return "invitation_tokens"
}

// NewInvitationToken tạo token mới ở trạng thái active, chưa dùng.
func NewInvitationToken(id, invitationID string) *InvitationToken {
	return &InvitationToken{
		ID:           id,
		InvitationID: invitationID,
		IsActive:     true,
	}
}
