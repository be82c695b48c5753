// Package config loads process settings from flags, environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"solana-holder-flow/internal/protocol"
)

const (
	DefaultDecimals         = 6
	DefaultTopHolders       = 60
	DefaultSnapshotInterval = time.Hour
	DefaultAPIAddr          = ":3000"
	DefaultMetricsAddr      = ":9090"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the settings of one holderflow invocation.
type Config struct {
	RPCEndpoint      string
	WSEndpoint       string
	Mint             string
	Decimals         int
	TopHolders       int
	SnapshotInterval time.Duration
	PostgresDSN      string
	ClickhouseDSN    string
	UseMemory        bool
	APIAddr          string
	MetricsAddr      string
	ProtocolsFile    string
	Backfill         bool
	RequestTimeout   time.Duration
}

// NewConfig reads every flag from the cli context.
func NewConfig(ctx *cli.Context) Config {
	return Config{
		RPCEndpoint:      ctx.String(RPCEndpointFlag.Name),
		WSEndpoint:       ctx.String(WSEndpointFlag.Name),
		Mint:             ctx.String(MintFlag.Name),
		Decimals:         ctx.Int(DecimalsFlag.Name),
		TopHolders:       ctx.Int(TopHoldersFlag.Name),
		SnapshotInterval: ctx.Duration(SnapshotIntervalFlag.Name),
		PostgresDSN:      ctx.String(PostgresDSNFlag.Name),
		ClickhouseDSN:    ctx.String(ClickhouseDSNFlag.Name),
		UseMemory:        ctx.Bool(UseMemoryFlag.Name),
		APIAddr:          ctx.String(APIAddrFlag.Name),
		MetricsAddr:      ctx.String(MetricsAddrFlag.Name),
		ProtocolsFile:    ctx.String(ProtocolsFileFlag.Name),
		Backfill:         ctx.Bool(BackfillFlag.Name),
		RequestTimeout:   ctx.Duration(RequestTimeoutFlag.Name),
	}
}

// LoadConfig builds and validates the config for a command.
// needRPC is false for commands that never touch the chain (serve, migrate).
func LoadConfig(ctx *cli.Context, needRPC bool) (Config, error) {
	cfg := NewConfig(ctx)
	if err := cfg.Validate(needRPC); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required settings and value ranges.
func (c Config) Validate(needRPC bool) error {
	var errs []error
	if needRPC {
		if c.RPCEndpoint == "" {
			errs = append(errs, errors.New("--rpc-endpoint is required"))
		}
		if c.Mint == "" {
			errs = append(errs, errors.New("--mint is required"))
		}
	}
	if !c.UseMemory && c.PostgresDSN == "" {
		errs = append(errs, errors.New("--postgres-dsn is required (use --use-memory for in-memory storage)"))
	}
	if c.Decimals < 0 || c.Decimals > 18 {
		errs = append(errs, fmt.Errorf("--decimals %d out of range [0, 18]", c.Decimals))
	}
	if c.TopHolders <= 0 {
		errs = append(errs, fmt.Errorf("--top-holders must be positive, got %d", c.TopHolders))
	}
	if c.SnapshotInterval < 0 {
		errs = append(errs, fmt.Errorf("--snapshot-interval must not be negative, got %s", c.SnapshotInterval))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Protocols returns the registry from ProtocolsFile, or the built-in one.
func (c Config) Protocols() (*protocol.Registry, error) {
	if c.ProtocolsFile == "" {
		return protocol.DefaultRegistry(), nil
	}
	return protocol.LoadRegistryFile(c.ProtocolsFile)
}

// LoadEnvFile sets variables from a KEY=VALUE file without overriding the
// existing environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read env file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("set %s: %w", key, err)
			}
		}
	}
	return nil
}
