package config

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendMemory, cfg.Registry.Backend)

	program, err := cfg.Registry.Program()
	require.NoError(t, err)
	assert.Equal(t, DefaultProgramID, program)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idattest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
registry:
  backend: redis
  txTimeout: 2s
redis:
  url: redis://localhost:6379/0
kafka:
  brokers: ["k1:9092"]
`), 0o600))

	t.Setenv("IDATTEST_ADDR", ":9100")
	t.Setenv("IDATTEST_KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, BackendRedis, cfg.Registry.Backend)
	assert.Equal(t, 2*time.Second, cfg.Registry.TxTimeout)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10, cfg.Redis.PoolSize, "unset keys keep defaults")
	assert.True(t, cfg.Kafka.Enabled())
}

func TestValidate(t *testing.T) {
	t.Run("postgres needs a url", func(t *testing.T) {
		t.Setenv("IDATTEST_LEDGER_BACKEND", BackendPostgres)
		_, err := Load("")
		assert.ErrorContains(t, err, "IDATTEST_DATABASE_URL")
	})
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("IDATTEST_LEDGER_BACKEND", "etcd")
		_, err := Load("")
		assert.ErrorContains(t, err, "unknown ledger backend")
	})
	t.Run("bad program id", func(t *testing.T) {
		t.Setenv("IDATTEST_PROGRAM_ID", "not-base58-0OIl")
		_, err := Load("")
		assert.ErrorContains(t, err, "program id")
	})
	t.Run("bad trusted proxy", func(t *testing.T) {
		t.Setenv("IDATTEST_TRUSTED_PROXIES", "10.0.0.0/8, proxy.internal")
		_, err := Load("")
		assert.ErrorContains(t, err, "proxy.internal")
	})
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("IDATTEST_TX_TIMEOUT", "soon")
		_, err := Load("")
		assert.ErrorContains(t, err, "IDATTEST_TX_TIMEOUT")
	})
}

func TestTrustedProxyPrefixes(t *testing.T) {
	t.Setenv("IDATTEST_TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.7, 10.0.0.0/8")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.7"}, cfg.Server.TrustedProxies)

	prefixes, err := cfg.Server.TrustedProxyPrefixes()
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.7/32"),
	}, prefixes)
}
