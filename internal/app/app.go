package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Neamul01/breeze-time-server/internal/storage"
	log "github.com/sirupsen/logrus"
)

var ErrForbidden = errors.New("forbidden")

// Reminders is the part of the reminder scheduler the use cases drive.
type Reminders interface {
	Sync(events []storage.Event)
	Reschedule(e storage.Event) error
	Cancel(eventID string)
}

type Tokens interface {
	Issue(email string) (string, error)
}

type App struct {
	Storage   storage.Storage
	Reminders Reminders
	Tokens    Tokens
}

func New(storage storage.Storage, reminders Reminders, tokens Tokens) *App {
	return &App{Storage: storage, Reminders: reminders, Tokens: tokens}
}

func (a *App) CreateUser(ctx context.Context, u storage.User) (storage.User, error) {
	u.ID = ""
	u.Role = storage.RoleUser
	if err := a.Storage.AddUser(ctx, &u); err != nil {
		return storage.User{}, err
	}
	return u, nil
}

func (a *App) ListUsers(ctx context.Context) ([]storage.User, error) {
	return a.Storage.ListUsers(ctx)
}

// UpsertUser stores the profile fields of email and issues a fresh token for it.
func (a *App) UpsertUser(ctx context.Context, email string, patch storage.UserPatch) (storage.User, string, error) {
	u, err := a.Storage.UpsertUser(ctx, email, patch)
	if err != nil {
		return storage.User{}, "", err
	}
	token, err := a.Tokens.Issue(u.Email)
	if err != nil {
		return storage.User{}, "", fmt.Errorf("failed to issue token for %s: %w", u.Email, err)
	}
	return u, token, nil
}

// MakeAdmin grants the admin role to email. Only admins may do that.
func (a *App) MakeAdmin(ctx context.Context, requester, email string) error {
	admin, err := a.IsAdmin(ctx, requester)
	if err != nil {
		return err
	}
	if !admin {
		return fmt.Errorf("%s is not an admin: %w", requester, ErrForbidden)
	}
	return a.Storage.SetUserRole(ctx, email, storage.RoleAdmin)
}

// IsAdmin reports false for unknown users.
func (a *App) IsAdmin(ctx context.Context, email string) (bool, error) {
	u, err := a.Storage.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFoundUser) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsAdmin(), nil
}

func (a *App) CreateEvent(ctx context.Context, e storage.Event) (storage.Event, error) {
	e.ID = ""
	if err := a.Storage.AddEvent(ctx, &e); err != nil {
		return storage.Event{}, err
	}
	return e, nil
}

func (a *App) GetEvent(ctx context.Context, id string) (storage.Event, error) {
	return a.Storage.GetEvent(ctx, id)
}

func (a *App) UpdateEvent(ctx context.Context, id string, e storage.Event) (storage.Event, error) {
	if err := a.Storage.UpdateEvent(ctx, id, e); err != nil {
		return storage.Event{}, err
	}
	e.ID = id
	if err := a.Reminders.Reschedule(e); err != nil {
		log.WithField("event", id).Debugf("reminder not rescheduled: %v", err)
	}
	return e, nil
}

func (a *App) RemoveEvent(ctx context.Context, id string) error {
	if err := a.Storage.RemoveEvent(ctx, id); err != nil {
		return err
	}
	a.Reminders.Cancel(id)
	return nil
}

// ListEvents returns all events, or the events of hostID when it is set, and
// registers reminders for them.
func (a *App) ListEvents(ctx context.Context, hostID string) ([]storage.Event, error) {
	var events []storage.Event
	var err error
	if hostID == "" {
		events, err = a.Storage.ListEvents(ctx)
	} else {
		events, err = a.Storage.ListEventsByHost(ctx, hostID)
	}
	if err != nil {
		return nil, err
	}
	a.Reminders.Sync(events)
	return events, nil
}

func (a *App) ListNotifications(ctx context.Context) ([]storage.Notification, error) {
	return a.Storage.ListNotifications(ctx)
}

func (a *App) CreateProfessional(ctx context.Context, p storage.Professional) (storage.Professional, error) {
	p.ID = ""
	if err := a.Storage.AddProfessional(ctx, &p); err != nil {
		return storage.Professional{}, err
	}
	return p, nil
}

func (a *App) GetProfessional(ctx context.Context, id string) (storage.Professional, error) {
	return a.Storage.GetProfessional(ctx, id)
}

func (a *App) ListProfessionals(ctx context.Context) ([]storage.Professional, error) {
	return a.Storage.ListProfessionals(ctx)
}

func (a *App) CreatePackage(ctx context.Context, p storage.Package) (storage.Package, error) {
	p.ID = ""
	if err := a.Storage.AddPackage(ctx, &p); err != nil {
		return storage.Package{}, err
	}
	return p, nil
}

func (a *App) ListPackages(ctx context.Context) ([]storage.Package, error) {
	return a.Storage.ListPackages(ctx)
}
