// Package config loads the settlement engine's construction parameters
// (spec.md §6's "Engine configuration") from the environment, grounded
// directly on kshinn-umbra-gateway/gateway/config/config.go's Load/getEnv
// pattern.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the engine's construction parameters.
type Config struct {
	// RPCEndpoint is the Ethereum JSON-RPC node URL (spec.md §4.3).
	RPCEndpoint string

	// SignerPrivateKey is the hex-encoded secret key for the engine's one
	// signing key (spec.md §1 Non-goals: one signing key per instance).
	SignerPrivateKey string

	// ChainID binds signatures to a specific chain per EIP-155.
	ChainID int64

	// Confirmations is the number of blocks built on top of a
	// transaction's inclusion block before it is considered final.
	Confirmations uint64

	// PollFrequency is the interval at which the chain client polls for a
	// transaction receipt.
	PollFrequency time.Duration

	// ConnectorURL is the accounting system's base URL (spec.md §4.8).
	ConnectorURL string

	// ListenAddr is the HTTP surface's bind address.
	ListenAddr string

	// AddressStoreBackend selects "memory" or "redis" (SPEC_FULL §4.9).
	AddressStoreBackend string

	// IdempotencyStoreBackend selects "memory" or "redis".
	IdempotencyStoreBackend string

	// RedisAddr is used when either backend above is "redis".
	RedisAddr string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first if present (dev convenience), matching
// the teacher pack's Load().
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		RPCEndpoint:             getEnv("RPC_ENDPOINT", "http://localhost:8545"),
		SignerPrivateKey:        getEnv("SIGNER_PRIVATE_KEY", ""),
		ChainID:                 int64(getEnvInt("CHAIN_ID", 1)),
		Confirmations:           uint64(getEnvInt("CONFIRMATIONS", 1)),
		PollFrequency:           time.Duration(getEnvInt("POLL_FREQUENCY_MS", 2000)) * time.Millisecond,
		ConnectorURL:            getEnv("CONNECTOR_URL", ""),
		ListenAddr:              getEnv("LISTEN_ADDR", ":8080"),
		AddressStoreBackend:     getEnv("ADDRESS_STORE_BACKEND", "memory"),
		IdempotencyStoreBackend: getEnv("IDEMPOTENCY_STORE_BACKEND", "memory"),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
	}

	if cfg.SignerPrivateKey == "" {
		return nil, fmt.Errorf("SIGNER_PRIVATE_KEY env var is required")
	}
	if cfg.ConnectorURL == "" {
		return nil, fmt.Errorf("CONNECTOR_URL env var is required")
	}
	if cfg.AddressStoreBackend != "memory" && cfg.AddressStoreBackend != "redis" {
		return nil, fmt.Errorf("ADDRESS_STORE_BACKEND must be \"memory\" or \"redis\"")
	}
	if cfg.IdempotencyStoreBackend != "memory" && cfg.IdempotencyStoreBackend != "redis" {
		return nil, fmt.Errorf("IDEMPOTENCY_STORE_BACKEND must be \"memory\" or \"redis\"")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
