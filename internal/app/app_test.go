package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Neamul01/breeze-time-server/internal/auth"
	"github.com/Neamul01/breeze-time-server/internal/storage"
	memorystorage "github.com/Neamul01/breeze-time-server/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

type fakeReminders struct {
	mu          sync.Mutex
	synced      [][]storage.Event
	rescheduled []storage.Event
	cancelled   []string
}

func (f *fakeReminders) Sync(events []storage.Event) {
	f.mu.Lock()
	f.synced = append(f.synced, events)
	f.mu.Unlock()
}

func (f *fakeReminders) Reschedule(e storage.Event) error {
	f.mu.Lock()
	f.rescheduled = append(f.rescheduled, e)
	f.mu.Unlock()
	return nil
}

func (f *fakeReminders) Cancel(eventID string) {
	f.mu.Lock()
	f.cancelled = append(f.cancelled, eventID)
	f.mu.Unlock()
}

func newApp() (*App, *fakeReminders, *auth.Tokens) {
	reminders := &fakeReminders{}
	tokens := auth.New(auth.Config{Secret: "secret"})
	return New(memorystorage.New(), reminders, tokens), reminders, tokens
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	start := time.Now().Add(time.Hour).UTC()

	t.Run("list syncs reminders", func(t *testing.T) {
		a, reminders, _ := newApp()
		first, err := a.CreateEvent(ctx, storage.Event{Name: "Standup", DateTime: start, HostID: "h1"})
		require.NoError(t, err)
		require.NotEmpty(t, first.ID)
		_, err = a.CreateEvent(ctx, storage.Event{Name: "Retro", DateTime: start.Add(time.Hour), HostID: "h2"})
		require.NoError(t, err)

		all, err := a.ListEvents(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 2)
		require.Equal(t, "Standup", all[0].Name)

		byHost, err := a.ListEvents(ctx, "h1")
		require.NoError(t, err)
		require.Equal(t, []storage.Event{first}, byHost)

		require.Len(t, reminders.synced, 2)
		require.Len(t, reminders.synced[0], 2)
		require.Equal(t, byHost, reminders.synced[1])
	})

	t.Run("update reschedules", func(t *testing.T) {
		a, reminders, _ := newApp()
		e, err := a.CreateEvent(ctx, storage.Event{Name: "Standup", DateTime: start})
		require.NoError(t, err)

		e.DateTime = start.Add(time.Hour)
		updated, err := a.UpdateEvent(ctx, e.ID, storage.Event{Name: "Standup", DateTime: e.DateTime})
		require.NoError(t, err)
		require.Equal(t, e.ID, updated.ID)
		require.Equal(t, []storage.Event{updated}, reminders.rescheduled)

		_, err = a.UpdateEvent(ctx, "missing", e)
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)
		require.Len(t, reminders.rescheduled, 1)
	})

	t.Run("remove cancels", func(t *testing.T) {
		a, reminders, _ := newApp()
		e, err := a.CreateEvent(ctx, storage.Event{Name: "Standup", DateTime: start})
		require.NoError(t, err)

		require.NoError(t, a.RemoveEvent(ctx, e.ID))
		require.Equal(t, []string{e.ID}, reminders.cancelled)
		require.ErrorIs(t, a.RemoveEvent(ctx, e.ID), storage.ErrNotFoundEvent)
		require.Len(t, reminders.cancelled, 1)

		_, err = a.GetEvent(ctx, e.ID)
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)
	})
}

func TestUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("create ignores client role", func(t *testing.T) {
		a, _, _ := newApp()
		u, err := a.CreateUser(ctx, storage.User{Name: "Ann", Email: "ann@example.com", Role: storage.RoleAdmin})
		require.NoError(t, err)
		require.Equal(t, storage.RoleUser, u.Role)

		_, err = a.CreateUser(ctx, storage.User{Email: "ann@example.com"})
		require.ErrorIs(t, err, storage.ErrDuplicateUser)
	})

	t.Run("upsert issues a token", func(t *testing.T) {
		a, _, tokens := newApp()
		name := "Bob"
		u, token, err := a.UpsertUser(ctx, "bob@example.com", storage.UserPatch{Name: &name})
		require.NoError(t, err)
		require.Equal(t, "Bob", u.Name)

		email, err := tokens.Verify(token)
		require.NoError(t, err)
		require.Equal(t, "bob@example.com", email)

		users, err := a.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
	})

	t.Run("only admins make admins", func(t *testing.T) {
		a, _, _ := newApp()
		_, err := a.CreateUser(ctx, storage.User{Email: "root@example.com"})
		require.NoError(t, err)
		_, err = a.CreateUser(ctx, storage.User{Email: "ann@example.com"})
		require.NoError(t, err)

		require.ErrorIs(t, a.MakeAdmin(ctx, "ann@example.com", "ann@example.com"), ErrForbidden)
		require.ErrorIs(t, a.MakeAdmin(ctx, "ghost@example.com", "ann@example.com"), ErrForbidden)

		require.NoError(t, a.Storage.SetUserRole(ctx, "root@example.com", storage.RoleAdmin))
		require.NoError(t, a.MakeAdmin(ctx, "root@example.com", "ann@example.com"))
		require.ErrorIs(t, a.MakeAdmin(ctx, "root@example.com", "ghost@example.com"), storage.ErrNotFoundUser)

		admin, err := a.IsAdmin(ctx, "ann@example.com")
		require.NoError(t, err)
		require.True(t, admin)

		admin, err = a.IsAdmin(ctx, "ghost@example.com")
		require.NoError(t, err)
		require.False(t, admin)
	})
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newApp()

	p, err := a.CreateProfessional(ctx, storage.Professional{ID: "client-id", Name: "Dr. Rahman", HourlyRate: 5000})
	require.NoError(t, err)
	require.NotEqual(t, "client-id", p.ID)

	got, err := a.GetProfessional(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p, got)

	_, err = a.GetProfessional(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	list, err := a.ListProfessionals(ctx)
	require.NoError(t, err)
	require.Equal(t, []storage.Professional{p}, list)

	pkg, err := a.CreatePackage(ctx, storage.Package{Name: "Gold", Tier: storage.TierPremium, Price: 9900})
	require.NoError(t, err)
	pkgs, err := a.ListPackages(ctx)
	require.NoError(t, err)
	require.Equal(t, []storage.Package{pkg}, pkgs)
}
