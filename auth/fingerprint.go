package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint tính mã thiết bị ổn định từ User-Agent và secret của server.
//
// Đây chỉ là ràng buộc mềm: ai copy được User-Agent của khách thì tạo lại được
// fingerprint. Nó chỉ chặn việc dùng lại credential bị lộ từ một trình duyệt
// khác hẳn, không phải xác thực thiết bị.
func Fingerprint(userAgent string, secret []byte) string {
	h := sha256.New()
	h.Write([]byte(userAgent))
	h.Write(secret)
	return hex.EncodeToString(h.Sum(nil))
}
