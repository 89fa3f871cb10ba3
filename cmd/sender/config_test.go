package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Setenv("BREEZE_TEST_SMTP_HOST", "smtp.example.com")
	path := filepath.Join(t.TempDir(), "sender_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rabbit:
  queue: reminders
mail:
  host: $env:BREEZE_TEST_SMTP_HOST
  username: $env:BREEZE_TEST_SMTP_UNSET
`), 0o600))

	config, err := NewConfig(path)
	require.NoError(t, err)
	require.Equal(t, "reminders", config.Rabbit.Queue)
	require.Equal(t, 5672, config.Rabbit.Port)
	require.Equal(t, "smtp.example.com", config.Mail.Host)
	require.Equal(t, 587, config.Mail.Port)
	require.Empty(t, config.Mail.Username)
}
