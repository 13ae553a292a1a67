package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/wedding-rsvp/models"
)

// MemoryStore là Store trong bộ nhớ, dùng cho test và chạy thử.
// Giá trị vào/ra đều được deep copy (kể cả các field con trỏ) nên caller không
// sửa được dữ liệu đang lưu.
type MemoryStore struct {
	mu          sync.Mutex
	invitations map[string]models.Invitation
	tokens      map[string]models.InvitationToken
	admins      map[string]models.AdminUser
	revoked     map[string]time.Time
	exports     map[string]models.ExportJob

	// failWith, nếu khác nil, được trả về từ mọi thao tác (giả lập DB sập).
	failWith error
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invitations: make(map[string]models.Invitation),
		tokens:      make(map[string]models.InvitationToken),
		admins:      make(map[string]models.AdminUser),
		revoked:     make(map[string]time.Time),
		exports:     make(map[string]models.ExportJob),
	}
}

// FailWith khiến mọi lời gọi sau trả về err; truyền nil để chạy lại bình thường.
func (m *MemoryStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *MemoryStore) CreateInvitation(_ context.Context, inv *models.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inv.CreatedAt, inv.UpdatedAt = now, now
	m.invitations[inv.ID] = cloneInvitation(*inv)
	return nil
}

func (m *MemoryStore) GetInvitation(_ context.Context, id string) (*models.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	inv, ok := m.invitations[id]
	if !ok {
		return nil, ErrNotFound
	}
	inv = cloneInvitation(inv)
	return &inv, nil
}

func (m *MemoryStore) ListInvitations(_ context.Context, filter InvitationFilter) ([]models.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}

	term := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []models.Invitation
	for _, inv := range m.invitations {
		if filter.State != "" && inv.State() != filter.State {
			continue
		}
		if term != "" {
			nick := ""
			if inv.Nickname != nil {
				nick = *inv.Nickname
			}
			if !strings.Contains(strings.ToLower(inv.GuestName), term) &&
				!strings.Contains(strings.ToLower(nick), term) {
				continue
			}
		}
		inv = cloneInvitation(inv)
		inv.Tokens = m.tokensOfLocked(inv.ID)
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryStore) UpdateInvitation(_ context.Context, inv *models.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	cur, ok := m.invitations[inv.ID]
	if !ok {
		return ErrNotFound
	}
	cur.GuestName = inv.GuestName
	cur.Nickname = clonePtr(inv.Nickname)
	cur.Phone = clonePtr(inv.Phone)
	cur.MaxGuests = inv.MaxGuests
	copyRSVP(&cur, inv)
	m.invitations[inv.ID] = cur
	return nil
}

func (m *MemoryStore) SaveRSVP(_ context.Context, inv *models.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	cur, ok := m.invitations[inv.ID]
	if !ok {
		return ErrNotFound
	}
	copyRSVP(&cur, inv)
	m.invitations[inv.ID] = cur
	return nil
}

func copyRSVP(dst, src *models.Invitation) {
	dst.HasResponded = src.HasResponded
	dst.IsAttending = clonePtr(src.IsAttending)
	dst.GuestCount = clonePtr(src.GuestCount)
	dst.RespondedAt = clonePtr(src.RespondedAt)
	dst.UpdatedAt = time.Now().UTC()
}

func (m *MemoryStore) DeleteInvitation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.invitations[id]; !ok {
		return ErrNotFound
	}
	for tid, t := range m.tokens {
		if t.InvitationID == id {
			delete(m.tokens, tid)
		}
	}
	delete(m.invitations, id)
	return nil
}

func (m *MemoryStore) CreateToken(_ context.Context, token *models.InvitationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.tokens[token.ID]; ok {
		return ErrDuplicateToken
	}
	token.CreatedAt = time.Now().UTC()
	m.tokens[token.ID] = cloneToken(*token)
	return nil
}

func (m *MemoryStore) GetToken(_ context.Context, id string) (*models.InvitationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	t, ok := m.tokens[id]
	if !ok {
		return nil, ErrNotFound
	}
	t = cloneToken(t)
	if inv, ok := m.invitations[t.InvitationID]; ok {
		inv = cloneInvitation(inv)
		t.Invitation = &inv
	}
	return &t, nil
}

func (m *MemoryStore) ListTokens(_ context.Context, invitationID string) ([]models.InvitationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.tokensOfLocked(invitationID), nil
}

func (m *MemoryStore) tokensOfLocked(invitationID string) []models.InvitationToken {
	var out []models.InvitationToken
	for _, t := range m.tokens {
		if t.InvitationID == invitationID {
			out = append(out, cloneToken(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *MemoryStore) RedeemToken(_ context.Context, id string, r Redemption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	t, ok := m.tokens[id]
	if !ok {
		return ErrNotFound
	}
	if !t.IsActive {
		return ErrTokenInactive
	}
	if t.IsUsed {
		return ErrTokenAlreadyUsed
	}
	at := r.At.UTC()
	ua, fp := r.UserAgent, r.Fingerprint
	t.IsUsed = true
	t.UserAgent = &ua
	t.DeviceFingerprint = &fp
	stamp(&t, at)
	m.tokens[id] = t
	return nil
}

func (m *MemoryStore) RecordTokenAccess(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	t, ok := m.tokens[id]
	if !ok {
		return ErrNotFound
	}
	touch(&t, at.UTC())
	m.tokens[id] = t
	return nil
}

// stamp cập nhật mốc thời gian; lượt truy cập chỉ do touch đếm.
func stamp(t *models.InvitationToken, at time.Time) {
	if t.FirstAccessAt == nil {
		first := at
		t.FirstAccessAt = &first
	}
	t.LastAccessAt = &at
}

func touch(t *models.InvitationToken, at time.Time) {
	stamp(t, at)
	t.AccessCount++
}

func (m *MemoryStore) SetTokenActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	t, ok := m.tokens[id]
	if !ok {
		return ErrNotFound
	}
	t.IsActive = active
	m.tokens[id] = t
	return nil
}

func (m *MemoryStore) DeleteToken(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.tokens[id]; !ok {
		return ErrNotFound
	}
	delete(m.tokens, id)
	return nil
}

func (m *MemoryStore) CreateAdminUser(_ context.Context, user *models.AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, u := range m.admins {
		if u.Username == user.Username {
			return ErrUsernameExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()
	m.admins[user.ID] = *user
	return nil
}

func (m *MemoryStore) GetAdminUser(_ context.Context, id string) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.admins[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetAdminUserByUsername(_ context.Context, username string) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.admins {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// DeleteAdminUser không có trong AdminStore; chỉ để test kịch bản tài khoản bị xoá.
func (m *MemoryStore) DeleteAdminUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.admins, id)
}

func (m *MemoryStore) RevokeSession(_ context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.revoked[jti]; !ok {
		m.revoked[jti] = expiresAt.UTC()
	}
	return nil
}

func (m *MemoryStore) IsSessionRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	_, ok := m.revoked[jti]
	return ok, nil
}

func (m *MemoryStore) PurgeExpiredRevocations(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	var n int64
	for jti, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, jti)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CreateExportJob(_ context.Context, job *models.ExportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now
	m.exports[job.JobID] = cloneExportJob(*job)
	return nil
}

func (m *MemoryStore) GetExportJob(_ context.Context, jobID string) (*models.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	job, ok := m.exports[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	job = cloneExportJob(job)
	return &job, nil
}

func (m *MemoryStore) UpdateExportJob(_ context.Context, job *models.ExportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	cur, ok := m.exports[job.JobID]
	if !ok {
		return ErrNotFound
	}
	cur.Status = job.Status
	cur.FilePath = clonePtr(job.FilePath)
	cur.ErrorMsg = clonePtr(job.ErrorMsg)
	cur.UpdatedAt = time.Now().UTC()
	m.exports[job.JobID] = cur
	return nil
}

func (m *MemoryStore) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failWith
}

func (m *MemoryStore) Close() error { return nil }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInvitation(inv models.Invitation) models.Invitation {
	inv.Nickname = clonePtr(inv.Nickname)
	inv.Phone = clonePtr(inv.Phone)
	inv.IsAttending = clonePtr(inv.IsAttending)
	inv.GuestCount = clonePtr(inv.GuestCount)
	inv.RespondedAt = clonePtr(inv.RespondedAt)
	inv.Tokens = nil
	return inv
}

func cloneToken(t models.InvitationToken) models.InvitationToken {
	t.FirstAccessAt = clonePtr(t.FirstAccessAt)
	t.LastAccessAt = clonePtr(t.LastAccessAt)
	t.DeviceFingerprint = clonePtr(t.DeviceFingerprint)
	t.UserAgent = clonePtr(t.UserAgent)
	t.Invitation = nil
	return t
}

func cloneExportJob(job models.ExportJob) models.ExportJob {
	job.FilePath = clonePtr(job.FilePath)
	job.ErrorMsg = clonePtr(job.ErrorMsg)
	return job
}
