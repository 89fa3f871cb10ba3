package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFoundEvent         = errors.New("event not found")
	ErrNotFoundUser          = errors.New("user not found")
	ErrNotFound              = errors.New("record not found")
	ErrDuplicateUser         = errors.New("user with same email exists")
	ErrDuplicateNotification = errors.New("notification for this event and fire time exists")
)

type EventStorage interface {
	AddEvent(ctx context.Context, e *Event) error
	UpdateEvent(ctx context.Context, id string, e Event) error
	RemoveEvent(ctx context.Context, id string) error
	GetEvent(ctx context.Context, id string) (Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	ListEventsByHost(ctx context.Context, hostID string) ([]Event, error)
}

type NotificationStorage interface {
	// AddNotification is idempotent on (EventID, FireAt): a second insert for the
	// same pair fails with ErrDuplicateNotification.
	AddNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context) ([]Notification, error)
}

type UserStorage interface {
	AddUser(ctx context.Context, u *User) error
	ListUsers(ctx context.Context) ([]User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpsertUser(ctx context.Context, email string, patch UserPatch) (User, error)
	SetUserRole(ctx context.Context, email, role string) error
}

type CatalogStorage interface {
	AddProfessional(ctx context.Context, p *Professional) error
	GetProfessional(ctx context.Context, id string) (Professional, error)
	ListProfessionals(ctx context.Context) ([]Professional, error)
	AddPackage(ctx context.Context, p *Package) error
	ListPackages(ctx context.Context) ([]Package, error)
}

type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	EventStorage
	NotificationStorage
	UserStorage
	CatalogStorage
}
