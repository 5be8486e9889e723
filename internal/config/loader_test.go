package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goran-ethernal/ProposalIndexor/pkg/config"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
downloader:
  rpc_url: ${TEST_RPC_URL}
  chunk_size: 2000
  db:
    path: /tmp/downloader.db
store:
  backend: memory
indexers:
  - name: funding
    type: funding
    start_block: 100
    addresses:
      - "0x5E4e65926BA27467555EB562121fac00D24E9dD2"
  - name: voting
    type: proposal-voting
    on_decode_error: halt
    addresses:
      - "0x323A76393544d5ecca80cd6ef2A560C6a395b7E3"
`

const jsonConfig = `{
  "downloader": {"rpc_url": "http://localhost:8545", "db": {"path": "/tmp/downloader.db"}},
  "store": {"backend": "memory"},
  "indexers": [{"name": "funding", "type": "funding", "addresses": ["0x5E4e65926BA27467555EB562121fac00D24E9dD2"]}]
}`

const tomlConfig = `
[downloader]
rpc_url = "http://localhost:8545"
poll_interval = "3s"

[downloader.db]
path = "/tmp/downloader.db"

[store]
backend = "memory"

[[indexers]]
name = "funding"
type = "funding"
addresses = ["0x5E4e65926BA27467555EB562121fac00D24E9dD2"]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFileFormats(t *testing.T) {
	t.Setenv("TEST_RPC_URL", "http://localhost:8545")

	tests := []struct {
		name    string
		file    string
		content string
		check   func(t *testing.T, cfg *config.Config)
	}{
		{
			name:    "yaml",
			file:    "config.yaml",
			content: yamlConfig,
			check: func(t *testing.T, cfg *config.Config) {
				require.Equal(t, uint64(2000), cfg.Downloader.ChunkSize)
				require.Len(t, cfg.Indexers, 2)
				require.Equal(t, uint64(100), cfg.Indexers[0].StartBlock)
				require.Equal(t, config.OnDecodeErrorSkip, cfg.Indexers[0].OnDecodeError)
				require.Equal(t, config.OnDecodeErrorHalt, cfg.Indexers[1].OnDecodeError)
			},
		},
		{
			name:    "yml extension",
			file:    "config.yml",
			content: yamlConfig,
			check: func(t *testing.T, cfg *config.Config) {
				require.Len(t, cfg.Indexers, 2)
			},
		},
		{
			name:    "json",
			file:    "config.json",
			content: jsonConfig,
			check: func(t *testing.T, cfg *config.Config) {
				require.Equal(t, uint64(5000), cfg.Downloader.ChunkSize)
				require.Equal(t, config.FinalityFinalized, cfg.Downloader.Finality)
			},
		},
		{
			name:    "toml",
			file:    "config.toml",
			content: tomlConfig,
			check: func(t *testing.T, cfg *config.Config) {
				require.Equal(t, 3*time.Second, cfg.Downloader.PollInterval.Duration)
				require.Equal(t, "WAL", cfg.Downloader.DB.JournalMode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)

			cfg, err := LoadFromFile(path)
			require.NoError(t, err)
			require.Equal(t, "http://localhost:8545", cfg.Downloader.RPCURL)
			require.Equal(t, config.StoreBackendMemory, cfg.Store.Backend)
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromFileUnsupportedFormat(t *testing.T) {
	_, err := LoadFromFile("config.txt")
	require.ErrorContains(t, err, "unsupported config file format")
}

func TestLoadFromFileMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to read config file")
}

func TestLoadFromFileMissingEnv(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", yamlConfig)

	_, err := LoadFromFile(path)
	require.ErrorContains(t, err, "missing environment variables: TEST_RPC_URL")
}

func TestLoadFromFileDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "TEST_DOTENV_RPC_URL=http://dotenv:8545\n")
	path := writeFile(t, dir, "config.yaml",
		`downloader: {rpc_url: "${TEST_DOTENV_RPC_URL}", db: {path: /tmp/d.db}}
store: {backend: memory}
indexers: [{name: f, type: funding, addresses: ["0x5E4e65926BA27467555EB562121fac00D24E9dD2"]}]
`)
	t.Cleanup(func() { os.Unsetenv("TEST_DOTENV_RPC_URL") })

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "http://dotenv:8545", cfg.Downloader.RPCURL)
}

func TestLoadFromFileInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml",
		`downloader: {rpc_url: "http://localhost:8545", db: {path: /tmp/d.db}}
store: {backend: memory}
indexers: [{name: f, type: erc20, addresses: ["0x5E4e65926BA27467555EB562121fac00D24E9dD2"]}]
`)

	_, err := LoadFromFile(path)
	require.ErrorContains(t, err, "invalid configuration")
	require.ErrorContains(t, err, "type must be one of")
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_EXPAND_A", "a")

	out, err := expandEnv("x=${TEST_EXPAND_A} y=$TEST_EXPAND_A")
	require.NoError(t, err)
	require.Equal(t, "x=a y=$TEST_EXPAND_A", out)

	_, err = expandEnv("${TEST_EXPAND_MISSING} ${TEST_EXPAND_MISSING}")
	require.EqualError(t, err, "missing environment variables: TEST_EXPAND_MISSING")
}
