package config

import (
	"time"

	"github.com/urfave/cli/v2"
)

func prefixEnvVars(name string) []string {
	return []string{name}
}

var (
	RPCEndpointFlag = &cli.StringFlag{
		Name:    "rpc-endpoint",
		Usage:   "Solana JSON-RPC HTTP endpoint",
		EnvVars: prefixEnvVars("SOLANA_RPC_ENDPOINT"),
	}
	WSEndpointFlag = &cli.StringFlag{
		Name:    "ws-endpoint",
		Usage:   "Solana WebSocket endpoint for logsSubscribe",
		EnvVars: prefixEnvVars("SOLANA_WS_ENDPOINT"),
	}
	MintFlag = &cli.StringFlag{
		Name:    "mint",
		Usage:   "Tracked token mint address",
		EnvVars: prefixEnvVars("TOKEN_MINT"),
	}
	DecimalsFlag = &cli.IntFlag{
		Name:    "decimals",
		Usage:   "Token decimals",
		Value:   DefaultDecimals,
		EnvVars: prefixEnvVars("TOKEN_DECIMALS"),
	}
	TopHoldersFlag = &cli.IntFlag{
		Name:    "top-holders",
		Usage:   "Number of token accounts ranked into the snapshot",
		Value:   DefaultTopHolders,
		EnvVars: prefixEnvVars("TOP_HOLDERS"),
	}
	SnapshotIntervalFlag = &cli.DurationFlag{
		Name:    "snapshot-interval",
		Usage:   "Snapshot refresh interval (0 disables refresh)",
		Value:   DefaultSnapshotInterval,
		EnvVars: prefixEnvVars("SNAPSHOT_INTERVAL"),
	}
	PostgresDSNFlag = &cli.StringFlag{
		Name:    "postgres-dsn",
		Usage:   "PostgreSQL connection string",
		EnvVars: prefixEnvVars("POSTGRES_DSN"),
	}
	ClickhouseDSNFlag = &cli.StringFlag{
		Name:    "clickhouse-dsn",
		Usage:   "Optional ClickHouse connection string for the transfer mirror",
		EnvVars: prefixEnvVars("CLICKHOUSE_DSN"),
	}
	UseMemoryFlag = &cli.BoolFlag{
		Name:    "use-memory",
		Usage:   "Use in-memory storage instead of PostgreSQL",
		EnvVars: prefixEnvVars("USE_MEMORY"),
	}
	APIAddrFlag = &cli.StringFlag{
		Name:    "api-addr",
		Usage:   "Read API listen address (empty disables the API in run)",
		Value:   DefaultAPIAddr,
		EnvVars: prefixEnvVars("API_ADDR"),
	}
	MetricsAddrFlag = &cli.StringFlag{
		Name:    "metrics-addr",
		Usage:   "Prometheus metrics listen address (empty disables)",
		Value:   DefaultMetricsAddr,
		EnvVars: prefixEnvVars("METRICS_ADDR"),
	}
	ProtocolsFileFlag = &cli.StringFlag{
		Name:    "protocols-file",
		Usage:   "YAML file replacing the built-in protocol registry",
		EnvVars: prefixEnvVars("PROTOCOLS_FILE"),
	}
	BackfillFlag = &cli.BoolFlag{
		Name:    "backfill",
		Usage:   "Scan recent history of the monitored wallets at startup",
		Value:   true,
		EnvVars: prefixEnvVars("BACKFILL"),
	}
	RequestTimeoutFlag = &cli.DurationFlag{
		Name:    "request-timeout",
		Usage:   "Per-request HTTP timeout for JSON-RPC calls",
		Value:   30 * time.Second,
		EnvVars: prefixEnvVars("RPC_REQUEST_TIMEOUT"),
	}
)

// Flags is the flag set shared by every command.
var Flags = []cli.Flag{
	RPCEndpointFlag,
	WSEndpointFlag,
	MintFlag,
	DecimalsFlag,
	TopHoldersFlag,
	SnapshotIntervalFlag,
	PostgresDSNFlag,
	ClickhouseDSNFlag,
	UseMemoryFlag,
	APIAddrFlag,
	MetricsAddrFlag,
	ProtocolsFileFlag,
	BackfillFlag,
	RequestTimeoutFlag,
}
