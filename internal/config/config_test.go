package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "k")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, GraphNeo4j, cfg.GraphBackend)
	assert.Equal(t, 24*time.Hour, cfg.InviteCodeTTL)
	assert.Equal(t, 5*time.Second, cfg.ClassifierTimeout)
	assert.Equal(t, 10*time.Second, cfg.UploadTimeout)
	assert.Equal(t, 5*time.Second, cfg.RoleStoreTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.NatsURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "k")
	t.Setenv("GRAPH_BACKEND", "memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("INVITE_CODE_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, GraphMemory, cfg.GraphBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Hour, cfg.InviteCodeTTL)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}
