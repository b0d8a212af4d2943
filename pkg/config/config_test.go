package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
graphdb:
  endpoints: ["http://localhost:8529"]
storage:
  type: local
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, 8, cfg.Ingest.Parallelism)
	assert.Equal(t, 100000, cfg.Ingest.BatchSize)
	assert.Equal(t, "sqlite", cfg.Ledger.Type)
	assert.Equal(t, "basic", cfg.GraphDB.AuthMode)
}

func TestLoad_CustomValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
graphdb:
  endpoints: ["https://coordinator.example.com:8529"]
  database: mygraph
  auth_mode: jwt
  jwt_token: abc123
ingest:
  parallelism: 5
  batch_size: 400000
  prefetch_count: 2
ledger:
  type: postgres
  host: db.example.com
  port: 5432
  database: ingest_runs
  user: admin
  password: secret
storage:
  type: local
  local_path: /tmp/storage
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, "mygraph", cfg.GraphDB.Database)
	assert.Equal(t, "jwt", cfg.GraphDB.AuthMode)
	assert.Equal(t, 5, cfg.Ingest.Parallelism)
	assert.Equal(t, 400000, cfg.Ingest.BatchSize)
	assert.Equal(t, "db.example.com", cfg.Ledger.Host)
	assert.Equal(t, 5432, cfg.Ledger.Port)
	assert.Equal(t, "ingest_runs", cfg.Ledger.Database)
}

func TestLoad_InvalidLedgerType(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
graphdb:
  endpoints: ["http://localhost:8529"]
ledger:
  type: oracle
storage:
  type: local
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	_, err = Load(configFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported ledger type")
}

func TestLoad_COSWithCredentials(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
graphdb:
  endpoints: ["http://localhost:8529"]
storage:
  type: cos
  bucket: test-bucket
  region: ap-guangzhou
  secret_id: test-id
  secret_key: test-key
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, "cos", cfg.Storage.Type)
	assert.Equal(t, "test-bucket", cfg.Storage.Bucket)
}

func TestValidate_EmptyEndpoints(t *testing.T) {
	cfg := &Config{
		GraphDB: GraphDBConfig{AuthMode: "basic"},
		Ingest:  IngestConfig{Parallelism: 1, BatchSize: 1},
		Ledger:  LedgerConfig{Type: "sqlite"},
		Storage: StorageConfig{Type: "local"},
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "graphdb endpoints is required")
}

func TestValidate_InvalidParallelism(t *testing.T) {
	cfg := &Config{
		GraphDB: GraphDBConfig{Endpoints: []string{"http://localhost:8529"}, AuthMode: "basic"},
		Ingest:  IngestConfig{Parallelism: 0, BatchSize: 1},
		Ledger:  LedgerConfig{Type: "sqlite"},
		Storage: StorageConfig{Type: "local"},
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parallelism must be at least 1")
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoadFromReader(t *testing.T) {
	content := []byte(`
graphdb:
  endpoints: ["http://localhost:8529"]
  database: mygraph
storage:
  type: local
`)
	cfg, err := LoadFromReader("yaml", content)
	require.NoError(t, err)
	assert.Equal(t, "mygraph", cfg.GraphDB.Database)
}
