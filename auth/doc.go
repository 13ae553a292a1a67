// Package auth xử lý token lời mời và session của khách/admin.
//
// Khách nhận một link chứa token dùng một lần. Redeem đổi token đó lấy session
// ký sẵn, sống lâu, gắn với fingerprint thiết bị, và đánh dấu token đã dùng đúng
// một lần. Admin có credential riêng, hạn ngắn, khác audience và session type.
//
// Lỗi xác thực luôn là *Failure kèm Reason cố định. Mọi lỗi khác là lỗi hạ tầng,
// chỉ được báo cho client bằng mã chung.
package auth
