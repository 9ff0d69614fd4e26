package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JangWoody/woody-service-back/internal/model"
	"github.com/JangWoody/woody-service-back/internal/repository"
)

func slot(s string) model.SlotTime { return model.SlotTime(s) }

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	mu       sync.Mutex
	students map[string]*model.Student
	seq      int
	getErr   error
	gets     int
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.Name == student.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if student.ID == "" {
		student.ID = uuid.New().String()
	}
	m.seq++
	student.CreatedAt = time.Unix(int64(m.seq), 0)
	cp := *student
	m.students[student.ID] = &cp
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if s, ok := m.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) findByName(name string) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.Name == name {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	_, err := m.findByName(name)
	return err == nil, nil
}

func (m *mockStudentRepo) List(_ context.Context) ([]model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.Student, 0, len(m.students))
	for _, s := range m.students {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.students, id)
	return nil
}

// ── Mock ReservationRepository ──
// 模拟数据库的两条唯一约束：(date, time, student) 与每槽位一条 confirmed

type mockReservationRepo struct {
	mu   sync.Mutex
	rows map[string]*model.Reservation
	seq  int
}

func newMockReservationRepo() *mockReservationRepo {
	return &mockReservationRepo{rows: make(map[string]*model.Reservation)}
}

// seed 直接写入一条记录，绕过业务校验
func (m *mockReservationRepo) seed(name, date, t string, status model.ReservationStatus) *model.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	r := &model.Reservation{
		ID:          uuid.New().String(),
		StudentName: name,
		Date:        date,
		Time:        model.SlotTime(t),
		Status:      status,
	}
	r.CreatedAt = time.Unix(int64(m.seq), 0)
	m.rows[r.ID] = r
	cp := *r
	return &cp
}

func (m *mockReservationRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *mockReservationRepo) Insert(_ context.Context, r *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Date == r.Date && row.Time == r.Time && row.StudentName == r.StudentName {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	r.ID = uuid.New().String()
	r.Status = model.StatusPending
	r.CreatedAt = time.Unix(int64(m.seq), 0)
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

func (m *mockReservationRepo) FindByID(_ context.Context, id string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepo) FindByKey(_ context.Context, date string, t model.SlotTime, name string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Date == date && r.Time == t && r.StudentName == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepo) FindBySlot(_ context.Context, date string, t model.SlotTime) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Reservation
	for _, r := range m.rows {
		if r.Date == date && r.Time == t {
			result = append(result, *r)
		}
	}
	sortReservations(result)
	return result, nil
}

func (m *mockReservationRepo) ConfirmByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, other := range m.rows {
		if other.ID != id && other.Date == r.Date && other.Time == r.Time && other.IsConfirmed() {
			return gorm.ErrDuplicatedKey
		}
	}
	r.Status = model.StatusConfirmed
	return nil
}

func (m *mockReservationRepo) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *mockReservationRepo) DeleteSiblings(_ context.Context, date string, t model.SlotTime, keepID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, r := range m.rows {
		if r.Date == date && r.Time == t && id != keepID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *mockReservationRepo) List(_ context.Context, f repository.ReservationFilter) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Reservation
	for _, r := range m.rows {
		if f.StudentName != "" && r.StudentName != f.StudentName {
			continue
		}
		if f.From != "" && r.Date < f.From {
			continue
		}
		if f.To != "" && r.Date > f.To {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		result = append(result, *r)
	}
	sortReservations(result)
	return result, nil
}

func (m *mockReservationRepo) ListPendingBefore(ctx context.Context, date string) ([]model.Reservation, error) {
	all, _ := m.List(ctx, repository.ReservationFilter{Status: model.StatusPending})
	var result []model.Reservation
	for _, r := range all {
		if r.Date < date {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockReservationRepo) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.rows[id]; ok {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func sortReservations(list []model.Reservation) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// ── Mock AdminCredentialRepository ──

type mockAdminCredentialRepo struct {
	mu   sync.Mutex
	cred *model.AdminCredential
}

func (m *mockAdminCredentialRepo) Get(_ context.Context) (*model.AdminCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.cred
	return &cp, nil
}

func (m *mockAdminCredentialRepo) CreateIfAbsent(_ context.Context, cred *model.AdminCredential) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred != nil {
		return false, nil
	}
	cred.ID = model.AdminCredentialID
	cp := *cred
	m.cred = &cp
	return true, nil
}

func (m *mockAdminCredentialRepo) UpdatePasswordHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return gorm.ErrRecordNotFound
	}
	m.cred.PasswordHash = hash
	return nil
}

// ── Mock TokenStore ──

type mockTokenStore struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{revoked: make(map[string]time.Duration)}
}

func (m *mockTokenStore) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl > 0 {
		m.revoked[jti] = ttl
	}
	return nil
}

func (m *mockTokenStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

// newMockRepository 组装不绑定数据库的 Repository 聚合
func newMockRepository() (*repository.Repository, *mockStudentRepo, *mockReservationRepo, *mockAdminCredentialRepo) {
	students := newMockStudentRepo()
	reservations := newMockReservationRepo()
	creds := &mockAdminCredentialRepo{}
	return &repository.Repository{
		Student:         students,
		Reservation:     reservations,
		AdminCredential: creds,
	}, students, reservations, creds
}
