package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	keys := []string{
		"RPC_ENDPOINT", "SIGNER_PRIVATE_KEY", "CHAIN_ID", "CONFIRMATIONS",
		"POLL_FREQUENCY_MS", "CONNECTOR_URL", "LISTEN_ADDR",
		"ADDRESS_STORE_BACKEND", "IDEMPOTENCY_STORE_BACKEND", "REDIS_ADDR",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	})
}

func TestLoadRequiresSignerKey(t *testing.T) {
	clearEnv(t)
	os.Setenv("CONNECTOR_URL", "http://localhost:9000")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	os.Setenv("SIGNER_PRIVATE_KEY", "acb8f4184aaf6490b6e6aea7b474225be0d965eed75f4b91183eff6032c299f8")
	os.Setenv("CONNECTOR_URL", "http://localhost:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8545", cfg.RPCEndpoint)
	assert.Equal(t, int64(1), cfg.ChainID)
	assert.Equal(t, "memory", cfg.AddressStoreBackend)
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestLoadRejectsBadBackend(t *testing.T) {
	clearEnv(t)
	os.Setenv("SIGNER_PRIVATE_KEY", "acb8f4184aaf6490b6e6aea7b474225be0d965eed75f4b91183eff6032c299f8")
	os.Setenv("CONNECTOR_URL", "http://localhost:9000")
	os.Setenv("ADDRESS_STORE_BACKEND", "postgres")

	_, err := Load()
	require.Error(t, err)
}
