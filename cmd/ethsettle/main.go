package main

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/ethsettle/internal/config"
	"github.com/yourusername/ethsettle/internal/engine"
	"github.com/yourusername/ethsettle/internal/httpapi"
	"github.com/yourusername/ethsettle/internal/notifier"
	"github.com/yourusername/ethsettle/internal/store"
	"github.com/yourusername/ethsettle/internal/store/memstore"
	"github.com/yourusername/ethsettle/internal/store/redisstore"
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	signer, err := engine.NewLocalSignerFromHex(cfg.SignerPrivateKey)
	if err != nil {
		slog.Error("invalid signer key", "err", err)
		os.Exit(1)
	}

	chain, err := engine.NewEthClient(ctx, cfg.RPCEndpoint)
	if err != nil {
		slog.Error("failed to connect to ethereum node", "err", err)
		os.Exit(1)
	}

	var rdb *redis.Client
	if cfg.AddressStoreBackend == "redis" || cfg.IdempotencyStoreBackend == "redis" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	addressStore := wireAddressStore(cfg, rdb)
	idempotencyStore := wireIdempotencyStore(cfg, rdb)

	orch := &engine.Orchestrator{
		Addresses:   addressStore,
		Idempotency: idempotencyStore,
		Builder:     engine.NewBuilder(),
		Signer:      signer,
		Chain:       chain,
		Notify:      notifier.NewClient(cfg.ConnectorURL),
		Config: engine.Config{
			ChainID:       big.NewInt(cfg.ChainID),
			Confirmations: cfg.Confirmations,
			PollFrequency: cfg.PollFrequency,
		},
		Log:     logger,
		Metrics: &engine.Metrics{},
	}

	server := httpapi.NewServer(orch, logger)

	slog.Info("settlement engine listening", "addr", cfg.ListenAddr, "signer", signer.Address().Hex())
	if err := http.ListenAndServe(cfg.ListenAddr, server); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func wireAddressStore(cfg *config.Config, rdb *redis.Client) store.AddressStore {
	if cfg.AddressStoreBackend == "redis" {
		return redisstore.NewAddressStore(rdb)
	}
	return memstore.NewAddressStore()
}

func wireIdempotencyStore(cfg *config.Config, rdb *redis.Client) store.IdempotencyStore {
	if cfg.IdempotencyStoreBackend == "redis" {
		return redisstore.NewIdempotencyStore(rdb)
	}
	return memstore.NewIdempotencyStore()
}
