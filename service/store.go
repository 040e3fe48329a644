package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AnTengye/jobtracker/model"
	"github.com/AnTengye/jobtracker/pkg/apperr"
)

const (
	msgApplicationNotFound = "Application not found"
	msgUsernameTaken       = "Username already exists"
	msgEmailTaken          = "Email already exists"
)

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// ApplicationRepository persists applications. Every lookup is scoped to the
// owning user; a record owned by someone else is reported as not found.
type ApplicationRepository interface {
	CreateApplication(ctx context.Context, app *model.Application) (*model.Application, error)
	UpdateApplication(ctx context.Context, app *model.Application) (*model.Application, error)
	UpdateStage(ctx context.Context, userID, id int64, stage model.Stage) (*model.Application, error)
	DeleteApplication(ctx context.Context, userID, id int64) error
	GetApplication(ctx context.Context, userID, id int64) (*model.Application, error)
	ListApplications(ctx context.Context, userID int64) ([]model.Application, error)
	OwnsCV(ctx context.Context, userID int64, filename string) (bool, error)
}

// Store is the full persistence surface used by the services.
type Store interface {
	UserRepository
	ApplicationRepository
	Close()
}

// MemoryStore keeps users and applications in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[int64]*model.User
	apps    map[int64]*model.Application
	nextUID int64
	nextAID int64
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	slog.Info("application store initialized", "driver", "memory")
	return &MemoryStore{
		users: make(map[int64]*model.User),
		apps:  make(map[int64]*model.Application),
		now:   time.Now,
	}
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return nil, apperr.Conflict(msgUsernameTaken)
		}
		if strings.EqualFold(u.Email, user.Email) {
			return nil, apperr.Conflict(msgEmailTaken)
		}
	}

	s.nextUID++
	stored := *user
	stored.ID = s.nextUID
	stored.CreatedAt = s.now().UTC()
	s.users[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (s *MemoryStore) CreateApplication(_ context.Context, app *model.Application) (*model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAID++
	stored := *app
	stored.ID = s.nextAID
	stored.CreatedAt = s.now().UTC()
	s.apps[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *MemoryStore) UpdateApplication(_ context.Context, app *model.Application) (*model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.owned(app.UserID, app.ID)
	if !ok {
		return nil, apperr.NotFound(msgApplicationNotFound)
	}

	existing.Company = app.Company
	existing.ApplicationDate = app.ApplicationDate
	existing.Stage = app.Stage
	existing.CoverLetter = app.CoverLetter
	existing.CVFilename = app.CVFilename

	out := *existing
	return &out, nil
}

func (s *MemoryStore) UpdateStage(_ context.Context, userID, id int64, stage model.Stage) (*model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.owned(userID, id)
	if !ok {
		return nil, apperr.NotFound(msgApplicationNotFound)
	}
	existing.Stage = stage

	out := *existing
	return &out, nil
}

func (s *MemoryStore) DeleteApplication(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.owned(userID, id); !ok {
		return apperr.NotFound(msgApplicationNotFound)
	}
	delete(s.apps, id)
	return nil
}

func (s *MemoryStore) GetApplication(_ context.Context, userID, id int64) (*model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing, ok := s.owned(userID, id)
	if !ok {
		return nil, apperr.NotFound(msgApplicationNotFound)
	}
	out := *existing
	return &out, nil
}

// ListApplications returns the user's applications, latest application date first.
func (s *MemoryStore) ListApplications(_ context.Context, userID int64) ([]model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Application, 0)
	for _, a := range s.apps {
		if a.UserID == userID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ApplicationDate.Equal(result[j].ApplicationDate) {
			return result[i].ID > result[j].ID
		}
		return result[j].ApplicationDate.Before(result[i].ApplicationDate)
	})
	return result, nil
}

func (s *MemoryStore) OwnsCV(_ context.Context, userID int64, filename string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.apps {
		if a.UserID == userID && a.CVFilename != "" && a.CVFilename == filename {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of applications across all users.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.apps)
}

// owned must be called with the lock held.
func (s *MemoryStore) owned(userID, id int64) (*model.Application, bool) {
	a, ok := s.apps[id]
	if !ok || a.UserID != userID {
		return nil, false
	}
	return a, true
}
