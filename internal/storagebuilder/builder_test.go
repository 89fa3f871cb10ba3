package storagebuilder

import (
	"testing"

	memorystorage "github.com/Neamul01/breeze-time-server/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s, err := New(Config{StorageType: "memory"})
	require.NoError(t, err)
	require.IsType(t, &memorystorage.Storage{}, s)

	_, err = New(Config{StorageType: "redis"})
	require.EqualError(t, err, "unknown storage type redis")
}
