package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/taskboard-server/internal/model"
)

var (
	_ model.UserStore    = (*MemoryUserStore)(nil)
	_ model.SessionStore = (*MemorySessionStore)(nil)
)

// MemoryUserStore is an in-memory model.UserStore for scenario tests.
// Sessions created together with a user go to sessions.
type MemoryUserStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]model.User
	sessions *MemorySessionStore
}

func NewMemoryUserStore(sessions *MemorySessionStore) *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]model.User), sessions: sessions}
}

func (s *MemoryUserStore) Create(_ context.Context, user model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(user)
}

func (s *MemoryUserStore) CreateWithSession(ctx context.Context, user model.User, session model.RefreshToken) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if s.taken(user.Email) {
		return model.User{}, model.ErrAlreadyExists
	}
	session.UserID = user.ID
	if err := s.sessions.Create(ctx, session); err != nil {
		return model.User{}, err
	}
	return s.insert(user)
}

func (s *MemoryUserStore) taken(email string) bool {
	for _, u := range s.users {
		if u.Email == email {
			return true
		}
	}
	return false
}

func (s *MemoryUserStore) insert(user model.User) (model.User, error) {
	if s.taken(user.Email) {
		return model.User{}, model.ErrAlreadyExists
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (s *MemoryUserStore) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.Deleted() {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (s *MemoryUserStore) ListByRole(_ context.Context, role model.Role) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]model.User, 0)
	for _, u := range s.users {
		if u.Role == role && !u.Deleted() {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (s *MemoryUserStore) ToggleBlocked(_ context.Context, id uuid.UUID) (model.User, error) {
	return s.update(id, func(u *model.User) { u.Blocked = !u.Blocked })
}

func (s *MemoryUserStore) ToggleActive(_ context.Context, id uuid.UUID) (model.User, error) {
	return s.update(id, func(u *model.User) { u.Active = !u.Active })
}

func (s *MemoryUserStore) SoftDelete(_ context.Context, id uuid.UUID, at time.Time) (model.User, error) {
	return s.update(id, func(u *model.User) { u.DeletedAt = &at })
}

// Put stores user as is, replacing any user with the same id.
func (s *MemoryUserStore) Put(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *MemoryUserStore) update(id uuid.UUID, fn func(*model.User)) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.Deleted() {
		return model.User{}, model.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return u, nil
}

// MemorySessionStore is an in-memory model.SessionStore for scenario tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]model.RefreshToken
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[uuid.UUID]model.RefreshToken)}
}

func (s *MemorySessionStore) Create(_ context.Context, session model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *MemorySessionStore) FindActive(_ context.Context, tokenHash string, userID uuid.UUID, now time.Time) (model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rt := range s.sessions {
		if rt.TokenHash == tokenHash && rt.UserID == userID && rt.Active(now) {
			return rt, nil
		}
	}
	return model.RefreshToken{}, model.ErrNotFound
}

func (s *MemorySessionStore) Rotate(_ context.Context, oldID uuid.UUID, next model.RefreshToken, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.sessions[oldID]
	if !ok || !old.Active(now) {
		return model.ErrSessionNotActive
	}
	old.Revoked = true
	s.sessions[oldID] = old
	if next.ID == uuid.Nil {
		next.ID = uuid.New()
	}
	s.sessions[next.ID] = next
	return nil
}

func (s *MemorySessionStore) RevokeAll(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rt := range s.sessions {
		if rt.UserID == userID {
			rt.Revoked = true
			s.sessions[id] = rt
		}
	}
	return nil
}

func (s *MemorySessionStore) RevokeOne(_ context.Context, sessionID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.sessions[sessionID]
	if !ok || rt.UserID != userID || rt.Revoked {
		return false, nil
	}
	rt.Revoked = true
	s.sessions[sessionID] = rt
	return true, nil
}

func (s *MemorySessionStore) ListActive(_ context.Context, userID uuid.UUID, now time.Time) ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]model.Session, 0)
	for _, rt := range s.sessions {
		if rt.UserID == userID && rt.Active(now) {
			sessions = append(sessions, rt.Session())
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })
	return sessions, nil
}

func (s *MemorySessionStore) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, rt := range s.sessions {
		if !rt.Active(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

// Get returns the stored session with id.
func (s *MemorySessionStore) Get(id uuid.UUID) (model.RefreshToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.sessions[id]
	return rt, ok
}

// Len returns the number of stored sessions, revoked ones included.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
