package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func parse(t *testing.T, args ...string) Config {
	t.Helper()

	var cfg Config
	app := &cli.App{
		Flags: Flags,
		Action: func(ctx *cli.Context) error {
			cfg = NewConfig(ctx)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"holderflow"}, args...)))
	return cfg
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := parse(t)

	assert.Equal(t, DefaultDecimals, cfg.Decimals)
	assert.Equal(t, DefaultTopHolders, cfg.TopHolders)
	assert.Equal(t, time.Hour, cfg.SnapshotInterval)
	assert.Equal(t, DefaultAPIAddr, cfg.APIAddr)
	assert.True(t, cfg.Backfill)
	assert.False(t, cfg.UseMemory)
}

func TestNewConfig_EnvAndFlags(t *testing.T) {
	t.Setenv("SOLANA_RPC_ENDPOINT", "https://rpc.example")
	t.Setenv("TOKEN_MINT", "Mint111")
	t.Setenv("TOP_HOLDERS", "20")
	t.Setenv("SNAPSHOT_INTERVAL", "0s")

	cfg := parse(t, "--top-holders", "10", "--use-memory")

	assert.Equal(t, "https://rpc.example", cfg.RPCEndpoint)
	assert.Equal(t, "Mint111", cfg.Mint)
	assert.Equal(t, 10, cfg.TopHolders, "flag wins over env")
	assert.Equal(t, time.Duration(0), cfg.SnapshotInterval)
	assert.True(t, cfg.UseMemory)
	assert.NoError(t, cfg.Validate(true))
}

func TestValidate(t *testing.T) {
	valid := Config{
		RPCEndpoint: "https://rpc.example",
		Mint:        "Mint111",
		PostgresDSN: "postgres://localhost/holders",
		Decimals:    6,
		TopHolders:  60,
	}
	require.NoError(t, valid.Validate(true))

	tests := []struct {
		name   string
		mutate func(*Config)
		rpc    bool
	}{
		{"missing rpc", func(c *Config) { c.RPCEndpoint = "" }, true},
		{"missing mint", func(c *Config) { c.Mint = "" }, true},
		{"missing dsn", func(c *Config) { c.PostgresDSN = "" }, false},
		{"decimals", func(c *Config) { c.Decimals = 19 }, false},
		{"top holders", func(c *Config) { c.TopHolders = 0 }, false},
		{"interval", func(c *Config) { c.SnapshotInterval = -time.Second }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(tt.rpc), ErrInvalidConfig)
		})
	}

	noChain := valid
	noChain.RPCEndpoint, noChain.Mint = "", ""
	assert.NoError(t, noChain.Validate(false), "serve does not need the chain")
}

func TestProtocols(t *testing.T) {
	reg, err := Config{}.Protocols()
	require.NoError(t, err)
	assert.Equal(t, 4, reg.Len())

	path := filepath.Join(t.TempDir(), "protocols.yaml")
	require.NoError(t, os.WriteFile(path, []byte("protocols:\n  - name: meteora\n    programs: [LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo]\n"), 0o600))

	reg, err = Config{ProtocolsFile: path}.Protocols()
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, "meteora", reg.Entries()[0].Name)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nHF_TEST_A=one\nexport HF_TEST_B=\"two\"\nHF_TEST_KEEP=file\nbroken line\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("HF_TEST_KEEP", "env")
	t.Setenv("HF_TEST_A", "")
	os.Unsetenv("HF_TEST_A")
	t.Setenv("HF_TEST_B", "")
	os.Unsetenv("HF_TEST_B")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "one", os.Getenv("HF_TEST_A"))
	assert.Equal(t, "two", os.Getenv("HF_TEST_B"))
	assert.Equal(t, "env", os.Getenv("HF_TEST_KEEP"))

	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}
