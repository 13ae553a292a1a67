package utils

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 10

var ErrPasswordTooShort = errors.New("mật khẩu phải có ít nhất 10 ký tự")

func HashPassword(raw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

func ValidatePassword(raw string) error {
	if len(raw) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// BurnPasswordCheck chạy một lần bcrypt vô ích khi username không tồn tại,
// để thời gian phản hồi không lộ username nào có thật.
func BurnPasswordCheck(raw string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(raw))
}
