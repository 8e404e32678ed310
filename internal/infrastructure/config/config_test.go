package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks the variables a test may have inherited; viper ignores
// empty values.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

var knownEnv = []string{
	"O2C_APP_NAME", "O2C_APP_ENV", "O2C_APP_PORT",
	"O2C_DATABASE_DRIVER", "O2C_DATABASE_HOST", "O2C_DATABASE_PORT", "O2C_DATABASE_PASSWORD",
	"O2C_DATABASE_SSLMODE", "O2C_DATABASE_MAX_OPEN_CONNS", "O2C_DATABASE_MAX_IDLE_CONNS",
	"O2C_REDIS_ENABLED", "O2C_LOCK_BACKEND", "O2C_JWT_SECRET", "O2C_JWT_ALLOW_USER_HEADER",
	"O2C_SWAGGER_ENABLED", "O2C_SWAGGER_ALLOWED_IPS", "O2C_AUDIT_S3_ENABLED", "O2C_AUDIT_S3_BUCKET",
	"O2C_ACCOUNTING_REVENUE", "O2C_SCHEDULER_EXPIRY_INTERVAL",
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t, knownEnv...)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "order-to-cash", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "ordertocash", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, "memory", cfg.Lock.Backend)
		assert.Equal(t, 15*time.Minute, cfg.Scheduler.ExpiryInterval)
		assert.Equal(t, 100, cfg.Scheduler.ExpiryBatch)
		assert.Equal(t, "1200", cfg.Accounting.Receivable)
		assert.Equal(t, "4000", cfg.Accounting.Revenue)
		assert.Equal(t, 2*time.Minute, cfg.Idempotency.TTL)
		assert.Equal(t, "order-to-cash", cfg.Telemetry.ServiceName)
	})

	t.Run("loads values from environment variables with O2C prefix", func(t *testing.T) {
		clearEnv(t, knownEnv...)
		t.Setenv("O2C_APP_NAME", "o2c-test")
		t.Setenv("O2C_DATABASE_DRIVER", "sqlite")
		t.Setenv("O2C_DATABASE_PORT", "5433")
		t.Setenv("O2C_ACCOUNTING_REVENUE", "4100")
		t.Setenv("O2C_SCHEDULER_EXPIRY_INTERVAL", "1m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "o2c-test", cfg.App.Name)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "4100", cfg.Accounting.Revenue)
		assert.Equal(t, time.Minute, cfg.Scheduler.ExpiryInterval)
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv(t, knownEnv...)
		t.Setenv("O2C_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t, knownEnv...)
		t.Setenv("O2C_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("O2C_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("redis lock backend requires redis", func(t *testing.T) {
		clearEnv(t, knownEnv...)
		t.Setenv("O2C_LOCK_BACKEND", "redis")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis.enabled")

		t.Setenv("O2C_REDIS_ENABLED", "true")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "redis", cfg.Lock.Backend)
	})

	t.Run("s3 audit sink requires a bucket", func(t *testing.T) {
		clearEnv(t, knownEnv...)
		t.Setenv("O2C_AUDIT_S3_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "audit.s3_bucket")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t, knownEnv...)
		t.Setenv("O2C_APP_ENV", "production")
		t.Setenv("O2C_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("O2C_DATABASE_SSLMODE", "require")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("O2C_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("rejects the user header shortcut in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("O2C_JWT_ALLOW_USER_HEADER", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "allow_user_header")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("O2C_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("fails if swagger enabled without IP restriction in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("O2C_SWAGGER_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger endpoint must be disabled or IP restricted")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid postgres DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: "postgres", Host: "localhost", Port: 5432, User: "user", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("sqlite DSN is the file path", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: "sqlite", SQLitePath: "/tmp/o2c.db"}
		assert.Equal(t, "/tmp/o2c.db", cfg.DSN())
	})
}
