package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
database:
  host: db
  user: app
  password: secret
  dbname: photos
aws:
  s3_bucket: posts
jwt:
  secret: s3cr3t
`

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, 5*time.Minute, cfg.Media.PresignExpiry)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "posts:changes", cfg.Redis.Channel)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=photos sslmode=disable", cfg.Database.DSN())
}

func TestParse_Overrides(t *testing.T) {
	data := minimalYAML + `
server:
  port: 9000
media:
  presign_expiry: 90s
redis:
  enabled: true
  addr: cache:6380
openai:
  api_key: sk-test
  timeout: 5
`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Media.PresignExpiry)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, 5, cfg.OpenAI.Timeout)
}

func TestParse_MissingRequired(t *testing.T) {
	_, err := Parse([]byte("server:\n  port: 8080\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret is required")
	assert.Contains(t, err.Error(), "database.host is required")
	assert.Contains(t, err.Error(), "database.dbname is required")
}

func TestParse_PostgresWithoutBucket(t *testing.T) {
	// no bucket: posts are served the fallback image
	cfg, err := Parse([]byte("database:\n  host: db\n  dbname: photos\njwt:\n  secret: s3cr3t\n"))
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Empty(t, cfg.AWS.S3Bucket)
}

func TestParse_MemoryDriver(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  driver: memory\njwt:\n  secret: s3cr3t\n"))
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Empty(t, cfg.AWS.S3Bucket)

	_, err = Parse([]byte("database:\n  driver: sqlite\njwt:\n  secret: s3cr3t\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `database.driver "sqlite" is not supported`)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("server: [unclosed"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "photos", cfg.Database.DBName)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
