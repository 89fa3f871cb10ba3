//go:build mongo

package mongostorage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Neamul01/breeze-time-server/internal/storage"
	mongostorage "github.com/Neamul01/breeze-time-server/internal/storage/mongo"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	uri      = "mongodb://127.0.0.1:27017"
	database = "breeze_testing"
)

func TestMain(m *testing.M) {
	if v := os.Getenv("MONGO_URI"); v != "" {
		uri = v
	}
	os.Exit(m.Run())
}

func TestStorage(t *testing.T) {
	ctx := context.Background()
	initDate := time.Date(2300, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("events", func(t *testing.T) {
		s := createStorage(t)
		e := storage.Event{Name: "Standup", Type: "meeting", DateTime: initDate, HostID: "h1"}
		require.NoError(t, s.AddEvent(ctx, &e))
		require.NotEmpty(t, e.ID)

		got, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		require.Equal(t, e.Name, got.Name)
		require.True(t, e.DateTime.Equal(got.DateTime))

		e.Name = "Retro"
		require.NoError(t, s.UpdateEvent(ctx, e.ID, e))
		hosted, err := s.ListEventsByHost(ctx, "h1")
		require.NoError(t, err)
		require.Len(t, hosted, 1)
		require.Equal(t, "Retro", hosted[0].Name)

		require.NoError(t, s.RemoveEvent(ctx, e.ID))
		_, err = s.GetEvent(ctx, e.ID)
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)
		_, err = s.GetEvent(ctx, "bad-id")
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)
	})

	t.Run("notifications are unique per event and fire time", func(t *testing.T) {
		s := createStorage(t)
		n := storage.Notification{EventID: "e1", Message: "Your Standup is after 30 min.", FireAt: initDate}
		require.NoError(t, s.AddNotification(ctx, &n))
		dup := storage.Notification{EventID: "e1", Message: "dup", FireAt: initDate}
		require.ErrorIs(t, s.AddNotification(ctx, &dup), storage.ErrDuplicateNotification)

		list, err := s.ListNotifications(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("users", func(t *testing.T) {
		s := createStorage(t)
		name := "Ann"
		u, err := s.UpsertUser(ctx, "Ann@example.com", storage.UserPatch{Name: &name})
		require.NoError(t, err)
		require.Equal(t, storage.RoleUser, u.Role)
		require.ErrorIs(t, s.AddUser(ctx, &storage.User{Email: "ann@example.com"}), storage.ErrDuplicateUser)

		require.NoError(t, s.SetUserRole(ctx, "ann@example.com", storage.RoleAdmin))
		got, err := s.GetUserByEmail(ctx, "ann@example.com")
		require.NoError(t, err)
		require.True(t, got.IsAdmin())
		require.Equal(t, "Ann", got.Name)
	})
}

func createStorage(t *testing.T) *mongostorage.Storage {
	t.Helper()
	ctx := context.Background()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Database(database).Drop(ctx))
	require.NoError(t, client.Disconnect(ctx))

	s := mongostorage.New(mongostorage.Config{URI: uri, Database: database})
	require.NoError(t, s.Connect(ctx))
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}
