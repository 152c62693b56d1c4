// Package memstore holds in-memory implementations of the repository
// interfaces. They back handler and service tests and mirror the MongoDB
// repositories' semantics, including ErrNotFound and ErrDuplicate.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/repositories"
)

// Users is an in-memory credential store.
type Users struct {
	mu    sync.RWMutex
	byID  map[primitive.ObjectID]models.User
	order []primitive.ObjectID
	// Err, when set, is returned by every call.
	Err error
}

func NewUsers() *Users {
	return &Users{byID: map[primitive.ObjectID]models.User{}}
}

func (s *Users) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	user.Normalize()
	for _, u := range s.byID {
		if models.NormalizeEmail(u.Email) == user.Email {
			return repositories.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.byID[user.ID] = *user
	s.order = append(s.order, user.ID)
	return nil
}

// Put stores a record as-is, without normalizing. Tests use it to seed
// legacy mixed-case data.
func (s *Users) Put(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, ok := s.byID[user.ID]; !ok {
		s.order = append(s.order, user.ID)
	}
	s.byID[user.ID] = user
}

func (s *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	u.Normalize()
	return &u, nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	email = models.NormalizeEmail(email)
	for _, u := range s.byID {
		if models.NormalizeEmail(u.Email) == email {
			u.Normalize()
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *Users) update(id primitive.ObjectID, fn func(u *models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	s.byID[id] = u
	return nil
}

func (s *Users) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	return s.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (s *Users) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.Status) error {
	return s.update(id, func(u *models.User) { u.Status = models.NormalizeStatus(string(status)) })
}

func (s *Users) UpdateRole(_ context.Context, id primitive.ObjectID, role models.Role) error {
	return s.update(id, func(u *models.User) { u.Role = models.NormalizeRole(string(role)) })
}

func (s *Users) TouchLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	return s.update(id, func(u *models.User) { u.LastLoginAt = &at })
}

func (s *Users) UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.ProfileUpdate) (*models.User, error) {
	err := s.update(id, func(u *models.User) {
		if p.FirstName != nil {
			u.FirstName = *p.FirstName
		}
		if p.LastName != nil {
			u.LastName = *p.LastName
		}
		if p.Phone != nil {
			u.Phone = *p.Phone
		}
		if p.AvatarURL != nil {
			u.AvatarURL = *p.AvatarURL
		}
	})
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

func (s *Users) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.byID[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Users) List(_ context.Context, f models.UserFilter) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	q := strings.ToLower(f.Query)
	users := []models.User{}
	for i := len(s.order) - 1; i >= 0; i-- {
		u := s.byID[s.order[i]]
		u.Normalize()
		if f.Role != "" && u.Role != models.NormalizeRole(string(f.Role)) {
			continue
		}
		if f.Status != "" && u.Status != models.NormalizeStatus(string(f.Status)) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.Email+" "+u.FirstName+" "+u.LastName), q) {
			continue
		}
		users = append(users, u)
		if f.Limit > 0 && int64(len(users)) == f.Limit {
			break
		}
	}
	return users, nil
}

// Sessions is an in-memory session store. Unlike MongoDB there is no TTL
// sweep, so expired records stay until deleted.
type Sessions struct {
	mu     sync.RWMutex
	byHash map[string]models.Session
	// Err, when set, is returned by every call.
	Err error
}

func NewSessions() *Sessions {
	return &Sessions{byHash: map[string]models.Session{}}
}

func (s *Sessions) Create(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.byHash[sess.TokenHash]; ok {
		return repositories.ErrDuplicate
	}
	if sess.ID.IsZero() {
		sess.ID = primitive.NewObjectID()
	}
	s.byHash[sess.TokenHash] = *sess
	return nil
}

func (s *Sessions) FindByTokenHash(_ context.Context, hash string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	sess, ok := s.byHash[hash]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &sess, nil
}

func (s *Sessions) DeleteByTokenHash(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.byHash, hash)
	return nil
}

func (s *Sessions) DeleteByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for hash, sess := range s.byHash {
		if sess.UserID == userID {
			delete(s.byHash, hash)
			n++
		}
	}
	return n, nil
}

func (s *Sessions) ListByUser(_ context.Context, userID primitive.ObjectID, now time.Time) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	sessions := []models.Session{}
	for _, sess := range s.byHash {
		if sess.UserID == userID && sess.Valid(now) {
			sessions = append(sessions, sess)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })
	return sessions, nil
}

// Count returns the number of stored sessions, expired ones included.
func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byHash)
}
