package gateway_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.HTTPAddr)
	require.Equal(t, "vigil.messages", cfg.Out.Topic)
	require.Equal(t, 8, cfg.Out.Partitions)
	require.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	require.Equal(t, 5*time.Second, cfg.Ingest.PublishTimeout)
	require.Equal(t, "info", cfg.Log.Level)
	require.False(t, cfg.OTEL.Enable)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_addr: ":9090"
kafka_out:
  topic: "custom.topic"
auth:
  session_ttl: "1h"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.Server.HTTPAddr)
	require.Equal(t, "custom.topic", cfg.Out.Topic)
	require.Equal(t, time.Hour, cfg.Auth.SessionTTL)
	require.Equal(t, ":8081", cfg.Server.MetricsAddr, "untouched keys keep defaults")
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/gateway.yaml")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.HTTPAddr)
}
