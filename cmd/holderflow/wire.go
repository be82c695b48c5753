package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"solana-holder-flow/internal/classify"
	"solana-holder-flow/internal/config"
	"solana-holder-flow/internal/gateway"
	"solana-holder-flow/internal/holders"
	"solana-holder-flow/internal/ingestion"
	"solana-holder-flow/internal/observability"
	"solana-holder-flow/internal/solana"
	"solana-holder-flow/internal/storage"
	chstore "solana-holder-flow/internal/storage/clickhouse"
	"solana-holder-flow/internal/storage/memory"
	pgstore "solana-holder-flow/internal/storage/postgres"
	"solana-holder-flow/internal/walletset"
)

type stores struct {
	holders   storage.HolderStore
	transfers storage.TransferStore
}

// createStores opens PostgreSQL (with an optional ClickHouse mirror) or
// in-memory stores.
func createStores(ctx context.Context, cfg config.Config, logger *log.Logger) (*stores, func(), error) {
	if cfg.UseMemory {
		logger.Println("Using in-memory storage")
		return &stores{
			holders:   memory.NewHolderStore(),
			transfers: memory.NewTransferStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	s := &stores{
		holders:   pgstore.NewHolderStore(pool),
		transfers: pgstore.NewTransferStore(pool),
	}
	if cfg.ClickhouseDSN == "" {
		return s, pool.Close, nil
	}

	chConn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	s.transfers = storage.NewMirrorTransferStore(s.transfers, chstore.NewTransferStore(chConn), logger)
	logger.Println("Mirroring transfers to ClickHouse")

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return s, cleanup, nil
}

// pipeline holds the wired chain-facing components.
type pipeline struct {
	rpc        solana.RPCClient
	resolver   *classify.CachedResolver
	wallets    *walletset.Registry
	snapshot   *holders.Builder
	processor  *ingestion.Processor
	backfiller *ingestion.Backfiller
}

func buildPipeline(cfg config.Config, st *stores, logger *log.Logger) (*pipeline, error) {
	protocols, err := cfg.Protocols()
	if err != nil {
		return nil, err
	}
	logger.Printf("Protocol registry: %d entries", protocols.Len())

	client := solana.NewHTTPClient(cfg.RPCEndpoint, solana.WithTimeout(cfg.RequestTimeout))
	rpc := gateway.New(client, gateway.Options{Logger: logger})

	resolver, err := classify.NewCachedResolver(classify.NewRPCResolver(rpc), 0, 0)
	if err != nil {
		return nil, fmt.Errorf("create owner cache: %w", err)
	}

	wallets := walletset.NewRegistry()
	classifier := classify.New(resolver, classify.Options{
		Mint:     cfg.Mint,
		Decimals: cfg.Decimals,
		Logger:   logger,
	})

	processor := ingestion.NewProcessor(ingestion.ProcessorOptions{
		RPC:        rpc,
		Protocols:  protocols,
		Classifier: classifier,
		Wallets:    wallets,
		Transfers:  st.transfers,
		Logger:     logger,
	})

	return &pipeline{
		rpc:      rpc,
		resolver: resolver,
		wallets:  wallets,
		snapshot: holders.NewBuilder(rpc, resolver, st.holders, wallets, holders.Options{
			Mint:     cfg.Mint,
			Decimals: cfg.Decimals,
			TopN:     cfg.TopHolders,
			Logger:   logger,
		}),
		processor: processor,
		backfiller: ingestion.NewBackfiller(ingestion.BackfillOptions{
			RPC:       rpc,
			Processor: processor,
			Mint:      cfg.Mint,
			Logger:    logger,
		}),
	}, nil
}

// startMetricsServer serves /health and /metrics until the process exits.
func startMetricsServer(addr string, logger *log.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	go func() {
		logger.Printf("Metrics listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Printf("Metrics server error: %v", err)
		}
	}()
}
