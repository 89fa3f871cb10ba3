package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/Neamul01/breeze-time-server/internal/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMarkers(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	markers := map[string]Marker{
		"memory": NewMemoryMarker(time.Hour),
		"redis":  NewRedisMarker(client, time.Hour),
	}
	for name, m := range markers {
		m := m
		t.Run(name, func(t *testing.T) {
			claimed, err := m.Claim(ctx, "reminder:a:1")
			require.NoError(t, err)
			require.True(t, claimed)

			claimed, err = m.Claim(ctx, "reminder:a:1")
			require.NoError(t, err)
			require.False(t, claimed)

			claimed, err = m.Claim(ctx, "reminder:a:2")
			require.NoError(t, err)
			require.True(t, claimed)

			require.NoError(t, m.Release(ctx, "reminder:a:1"))
			claimed, err = m.Claim(ctx, "reminder:a:1")
			require.NoError(t, err)
			require.True(t, claimed)
		})
	}
}

func TestRedisMarkerExpires(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	m := NewRedisMarker(client, time.Minute)
	claimed, err := m.Claim(ctx, "reminder:b:1")
	require.NoError(t, err)
	require.True(t, claimed)
	require.True(t, mr.Exists("breeze:reminder:b:1"))

	mr.FastForward(2 * time.Minute)
	claimed, err = m.Claim(ctx, "reminder:b:1")
	require.NoError(t, err)
	require.True(t, claimed)
}

func TestMemoryMarkerExpires(t *testing.T) {
	ctx := context.Background()
	now := base
	m := NewMemoryMarker(time.Minute)
	m.now = func() time.Time { return now }

	claimed, err := m.Claim(ctx, "k")
	require.NoError(t, err)
	require.True(t, claimed)

	now = now.Add(2 * time.Minute)
	claimed, err = m.Claim(ctx, "k")
	require.NoError(t, err)
	require.True(t, claimed)
}

func TestSchedulerWithRedisMarker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	e := newEnv(t, WithMarker(NewRedisMarker(client, time.Hour)))
	ev := e.addEvent(t, "Standup", base.Add(45*time.Minute))
	e.sched.Sync([]storage.Event{ev})
	e.runner.advance(base.Add(15 * time.Minute))

	require.Len(t, e.notifications(t), 1)
	key := Registration{EventID: ev.ID, FireAt: base.Add(15 * time.Minute)}.Key()
	require.True(t, mr.Exists("breeze:"+key))
}
