package logger

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestPrepareLogger(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)
	defer log.SetFormatter(&log.TextFormatter{})

	require.NoError(t, PrepareLogger(Config{Level: "DEBUG"}))
	require.Equal(t, log.DebugLevel, log.GetLevel())

	require.NoError(t, PrepareLogger(Config{Level: "warn", Format: "json"}))
	require.Equal(t, log.WarnLevel, log.GetLevel())
	require.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	require.Error(t, PrepareLogger(Config{Level: "LOUD"}))
	require.Error(t, PrepareLogger(Config{Level: "INFO", Format: "xml"}))
}
