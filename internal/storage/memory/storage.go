package memorystorage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Neamul01/breeze-time-server/internal/storage"
	"github.com/google/uuid"
)

type notificationKey struct {
	eventID string
	fireAt  int64
}

type Storage struct {
	mu            sync.RWMutex
	events        map[string]storage.Event
	users         map[string]storage.User
	notifications []storage.Notification
	notified      map[notificationKey]struct{}
	professionals map[string]storage.Professional
	packages      []storage.Package
	now           func() time.Time
}

func New() *Storage {
	return &Storage{
		events:        make(map[string]storage.Event),
		users:         make(map[string]storage.User),
		notified:      make(map[notificationKey]struct{}),
		professionals: make(map[string]storage.Professional),
		now:           time.Now,
	}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) AddEvent(_ context.Context, e *storage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = nextID()
	}
	s.events[e.ID] = *e
	return nil
}

func (s *Storage) UpdateEvent(_ context.Context, id string, e storage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("failed to update event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	e.ID = id
	s.events[id] = e
	return nil
}

func (s *Storage) RemoveEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("failed to remove event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	delete(s.events, id)
	return nil
}

func (s *Storage) GetEvent(_ context.Context, id string) (storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return storage.Event{}, fmt.Errorf("failed to get event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return e, nil
}

func (s *Storage) ListEvents(_ context.Context) ([]storage.Event, error) {
	return s.selectEvents(func(storage.Event) bool { return true }), nil
}

func (s *Storage) ListEventsByHost(_ context.Context, hostID string) ([]storage.Event, error) {
	return s.selectEvents(func(e storage.Event) bool { return e.HostID == hostID }), nil
}

func (s *Storage) selectEvents(match func(storage.Event) bool) []storage.Event {
	events := make([]storage.Event, 0)
	s.mu.RLock()
	for _, event := range s.events {
		if match(event) {
			events = append(events, event)
		}
	}
	s.mu.RUnlock()

	storage.SortByStart(events)
	return events
}

func (s *Storage) AddNotification(_ context.Context, n *storage.Notification) error {
	key := notificationKey{eventID: n.EventID, fireAt: n.FireAt.Unix()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notified[key]; ok {
		return fmt.Errorf("event %q at %s: %w", n.EventID, n.FireAt, storage.ErrDuplicateNotification)
	}
	if n.ID == "" {
		n.ID = nextID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	s.notified[key] = struct{}{}
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *Storage) ListNotifications(_ context.Context) ([]storage.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out, nil
}

func (s *Storage) AddUser(_ context.Context, u *storage.User) error {
	email := normalizeEmail(u.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; ok {
		return fmt.Errorf("duplicate email %q: %w", u.Email, storage.ErrDuplicateUser)
	}
	if u.ID == "" {
		u.ID = nextID()
	}
	if u.Role == "" {
		u.Role = storage.RoleUser
	}
	s.users[email] = *u
	return nil
}

func (s *Storage) ListUsers(_ context.Context) ([]storage.User, error) {
	s.mu.RLock()
	users := make([]storage.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (s *Storage) GetUserByEmail(_ context.Context, email string) (storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[normalizeEmail(email)]
	if !ok {
		return storage.User{}, fmt.Errorf("failed to get user %q: %w", email, storage.ErrNotFoundUser)
	}
	return u, nil
}

func (s *Storage) UpsertUser(_ context.Context, email string, patch storage.UserPatch) (storage.User, error) {
	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[key]
	if !ok {
		u = storage.User{ID: nextID(), Email: email, Role: storage.RoleUser}
	}
	patch.Apply(&u)
	s.users[key] = u
	return u, nil
}

func (s *Storage) SetUserRole(_ context.Context, email, role string) error {
	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[key]
	if !ok {
		return fmt.Errorf("failed to set role of %q: %w", email, storage.ErrNotFoundUser)
	}
	u.Role = role
	s.users[key] = u
	return nil
}

func (s *Storage) AddProfessional(_ context.Context, p *storage.Professional) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = nextID()
	}
	s.professionals[p.ID] = *p
	return nil
}

func (s *Storage) GetProfessional(_ context.Context, id string) (storage.Professional, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.professionals[id]
	if !ok {
		return storage.Professional{}, fmt.Errorf("professional %q: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Storage) ListProfessionals(_ context.Context) ([]storage.Professional, error) {
	s.mu.RLock()
	out := make([]storage.Professional, 0, len(s.professionals))
	for _, p := range s.professionals {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Storage) AddPackage(_ context.Context, p *storage.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = nextID()
	}
	s.packages = append(s.packages, *p)
	return nil
}

func (s *Storage) ListPackages(_ context.Context) ([]storage.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.Package, len(s.packages))
	copy(out, s.packages)
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nextID() string {
	return uuid.NewString()
}
