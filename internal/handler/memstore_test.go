package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/empdesk/internal/model"
	"github.com/hitoshi/empdesk/internal/repository"
)

// --- 統合テスト用のインメモリリポジトリ ---

type memUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*model.User
	nextID int64
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (m *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) FindByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUserRepo) Create(_ context.Context, user *model.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return 0, model.NewEmailTakenError()
		}
	}
	cp := *user
	cp.ID = m.nextID
	cp.CreatedAt = time.Now()
	m.users[cp.ID] = &cp
	m.nextID++
	return cp.ID, nil
}

func (m *memUserRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

type memEmployeeRepo struct {
	mu        sync.Mutex
	employees map[int64]*model.Employee
	nextID    int64
}

func newMemEmployeeRepo() *memEmployeeRepo {
	return &memEmployeeRepo{employees: make(map[int64]*model.Employee), nextID: 1}
}

func (m *memEmployeeRepo) List(_ context.Context) ([]*model.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memEmployeeRepo) FindByID(_ context.Context, id int64) (*model.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.employees[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (m *memEmployeeRepo) Create(_ context.Context, emp *model.Employee) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *emp
	cp.ID = m.nextID
	m.employees[cp.ID] = &cp
	m.nextID++
	return cp.ID, nil
}

func (m *memEmployeeRepo) Update(_ context.Context, emp *model.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[emp.ID]; ok {
		cp := *emp
		m.employees[emp.ID] = &cp
	}
	return nil
}

func (m *memEmployeeRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.employees, id)
	return nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*model.Session)}
}

func (m *memSessionRepo) Create(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessionRepo) FindByID(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	cp := *s
	cp.Flashes = append([]model.Flash(nil), s.Flashes...)
	return &cp, nil
}

func (m *memSessionRepo) Update(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		cp := *s
		cp.Flashes = append([]model.Flash(nil), s.Flashes...)
		m.sessions[s.ID] = &cp
	}
	return nil
}

func (m *memSessionRepo) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if !s.ExpiresAt.After(time.Now()) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// authenticatedCount はユーザーに紐付いたセッション数を返す。
func (m *memSessionRepo) authenticatedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.UserID != nil {
			n++
		}
	}
	return n
}

var (
	_ repository.UserRepository     = (*memUserRepo)(nil)
	_ repository.EmployeeRepository = (*memEmployeeRepo)(nil)
	_ repository.SessionRepository  = (*memSessionRepo)(nil)
)
