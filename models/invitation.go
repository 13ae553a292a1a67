package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrGuestCountRequired   = errors.New("cần nhập số khách khi xác nhận tham dự")
	ErrGuestCountOutOfRange = errors.New("số khách phải từ 1 đến số tối đa của lời mời")
	ErrInvalidMaxGuests     = errors.New("số khách tối đa phải lớn hơn 0")
)

// ResponseState là trạng thái trả lời của một lời mời.
type ResponseState string

const (
	ResponsePending   ResponseState = "pending"
	ResponseAttending ResponseState = "attending"
	ResponseDeclining ResponseState = "declining"
)

type Invitation struct {
	ID           string     `gorm:"column:id;primaryKey;size:36" json:"id"`
	GuestName    string     `gorm:"column:guest_name;size:255;not null" json:"guest_name"`
	Nickname     *string    `gorm:"column:nickname;size:100" json:"nickname"`
	Phone        *string    `gorm:"column:phone;size:30" json:"phone"`
	MaxGuests    int        `gorm:"column:max_guests;not null;default:1" json:"max_guests"`
	HasResponded bool       `gorm:"column:has_responded;not null;default:false" json:"has_responded"`
	IsAttending  *bool      `gorm:"column:is_attending" json:"is_attending"`
	GuestCount   *int       `gorm:"column:guest_count" json:"guest_count"`
	RespondedAt  *time.Time `gorm:"column:responded_at" json:"responded_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Tokens []InvitationToken `gorm:"foreignKey:InvitationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"tokens,omitempty"`
}

func (Invitation) TableName() string {
	return "invitations"
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// State trả về trạng thái trả lời hiện tại.
func (i *Invitation) State() ResponseState {
	if !i.HasResponded || i.IsAttending == nil {
		return ResponsePending
	}
	if *i.IsAttending {
		return ResponseAttending
	}
	return ResponseDeclining
}

// ApplyRSVP kiểm tra câu trả lời, chỉ ghi vào lời mời khi hợp lệ.
// Từ chối tham dự thì luôn xoá số khách.
func (i *Invitation) ApplyRSVP(attending bool, guestCount *int, at time.Time) error {
	var count *int
	if attending {
		if guestCount == nil {
			return ErrGuestCountRequired
		}
		if *guestCount < 1 || *guestCount > i.MaxGuests {
			return ErrGuestCountOutOfRange
		}
		v := *guestCount
		count = &v
	}

	a := attending
	ts := at.UTC()
	i.HasResponded = true
	i.IsAttending = &a
	i.GuestCount = count
	i.RespondedAt = &ts
	return nil
}

// ClearRSVP đưa lời mời về trạng thái chưa trả lời.
func (i *Invitation) ClearRSVP() {
	i.HasResponded = false
	i.IsAttending = nil
	i.GuestCount = nil
	i.RespondedAt = nil
}

// SetMaxGuests đổi số khách tối đa; không cho hạ thấp hơn số khách đã xác nhận.
func (i *Invitation) SetMaxGuests(n int) error {
	if n < 1 {
		return ErrInvalidMaxGuests
	}
	if i.GuestCount != nil && *i.GuestCount > n {
		return ErrGuestCountOutOfRange
	}
	i.MaxGuests = n
	return nil
}
