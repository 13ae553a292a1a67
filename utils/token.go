package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// tokenBytes = 24 → 32 ký tự base64url, không padding.
const tokenBytes = 24

// GenerateInvitationToken tạo giá trị token dùng thẳng trong URL /r/{token}.
func GenerateInvitationToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
