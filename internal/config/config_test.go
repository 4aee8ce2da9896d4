package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("IMAGE_MAX_DIMENSION", "")
	t.Setenv("IMAGE_MAX_PIXELS", "")

	cfg := Load()

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 300, cfg.ImageMaxDimension)
	assert.Equal(t, 89478485, cfg.ImageMaxPixels)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.False(t, cfg.StorageUseSSL)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("IMAGE_MAX_DIMENSION", "big")
	t.Setenv("STORAGE_USE_SSL", "maybe")

	cfg := Load()

	assert.Equal(t, 300, cfg.ImageMaxDimension)
	assert.False(t, cfg.StorageUseSSL)
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "1", DBName: "chat", DBSSLMode: "disable",
		SQLitePath: "/tmp/chat.db",
	}

	cfg.DBDriver = "mysql"
	require.Equal(t, "u:p@tcp(db:1)/chat?charset=utf8mb4&parseTime=True&loc=Local", cfg.DSN())

	cfg.DBDriver = "postgres"
	require.Equal(t, "host=db port=1 user=u password=p dbname=chat sslmode=disable", cfg.DSN())

	cfg.DBDriver = "sqlite"
	require.Equal(t, "/tmp/chat.db", cfg.DSN())
}

func TestConfig_CORSOrigins(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: " http://a.test, ,http://b.test"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
}
