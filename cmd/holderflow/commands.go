package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"solana-holder-flow/internal/api"
	"solana-holder-flow/internal/config"
	"solana-holder-flow/internal/ingestion"
	"solana-holder-flow/internal/solana"
	"solana-holder-flow/internal/storage/migrations"
	pgstore "solana-holder-flow/internal/storage/postgres"
)

func runPipeline(c *cli.Context, logger *log.Logger) error {
	ctx := c.Context
	cfg, err := config.LoadConfig(c, true)
	if err != nil {
		return err
	}

	st, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := buildPipeline(cfg, st, logger)
	if err != nil {
		return err
	}
	defer p.resolver.Close()

	var ws solana.WSClient
	if cfg.WSEndpoint != "" {
		wsCfg := solana.DefaultWSConfig()
		wsCfg.Logger = logger
		client, err := solana.NewWSClient(ctx, cfg.WSEndpoint, &wsCfg)
		if err != nil {
			return fmt.Errorf("connect websocket: %w", err)
		}
		defer client.Close()
		ws = client
	} else {
		logger.Println("No --ws-endpoint, live classification disabled")
	}

	var backfiller *ingestion.Backfiller
	if cfg.Backfill {
		backfiller = p.backfiller
	}

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Snapshot: p.snapshot,
		Backfill: backfiller,
		Queue: ingestion.NewQueue(ingestion.QueueOptions{
			Processor: p.processor,
			Logger:    logger,
		}),
		WS:               ws,
		Holders:          st.holders,
		Wallets:          p.wallets,
		Mint:             cfg.Mint,
		SnapshotInterval: cfg.SnapshotInterval,
		Logger:           logger,
	})

	startMetricsServer(cfg.MetricsAddr, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(gctx) })
	if cfg.APIAddr != "" {
		server := api.NewServer(st.holders, st.transfers, logger)
		g.Go(func() error { return server.Run(gctx, cfg.APIAddr) })
	}
	return g.Wait()
}

func runSnapshot(c *cli.Context, logger *log.Logger) error {
	ctx := c.Context
	cfg, err := config.LoadConfig(c, true)
	if err != nil {
		return err
	}

	st, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := buildPipeline(cfg, st, logger)
	if err != nil {
		return err
	}
	defer p.resolver.Close()

	wallets, err := p.snapshot.Build(ctx)
	if err != nil {
		return err
	}
	for _, w := range wallets {
		fmt.Fprintf(c.App.Writer, "%3d  %-44s  %s  %s%%\n", w.Rank, w.Address, w.Balance.StringFixed(int32(cfg.Decimals)), w.SharePct.StringFixed(2))
	}
	return nil
}

func runBackfill(c *cli.Context, logger *log.Logger) error {
	ctx := c.Context
	cfg, err := config.LoadConfig(c, true)
	if err != nil {
		return err
	}

	st, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := buildPipeline(cfg, st, logger)
	if err != nil {
		return err
	}
	defer p.resolver.Close()

	addresses, err := st.holders.ListHolderAddresses(ctx)
	if err != nil {
		return fmt.Errorf("load holders: %w", err)
	}
	if len(addresses) == 0 {
		logger.Println("No stored holders, building snapshot first")
		if _, err := p.snapshot.Build(ctx); err != nil {
			return err
		}
	} else {
		p.wallets.Publish(addresses)
	}

	result, err := p.backfiller.Run(ctx, p.wallets.Current().Addresses())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wallets=%d accounts=%d signatures=%d transactions=%d inserted=%d duplicates=%d failed=%d duration=%s\n",
		result.Wallets, result.Accounts, result.Signatures, result.Transactions,
		result.Inserted, result.Duplicates, result.Failed, result.Duration)
	return nil
}

func runServe(c *cli.Context, logger *log.Logger) error {
	ctx := c.Context
	cfg, err := config.LoadConfig(c, false)
	if err != nil {
		return err
	}
	if cfg.APIAddr == "" {
		return errors.New("--api-addr is required for serve")
	}

	st, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return api.NewServer(st.holders, st.transfers, logger).Run(ctx, cfg.APIAddr)
}

func runMigrate(c *cli.Context, logger *log.Logger) error {
	ctx := c.Context
	cfg, err := config.LoadConfig(c, false)
	if err != nil {
		return err
	}
	if cfg.UseMemory {
		return errors.New("migrate needs --postgres-dsn, not --use-memory")
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		return err
	}
	logger.Printf("PostgreSQL: applied %d migrations %v", len(applied), applied)

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return err
		}
		conn.Close()
		logger.Println("ClickHouse: migrations applied")
	}
	return nil
}
