package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────────────────────────────────────
// Carga desde variables de entorno
// ─────────────────────────────────────────────────────────────────────────────

func TestLoad_DefaultsDelPool(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.Equal(t, 2, cfg.DB.MinConns)
	assert.Equal(t, 60, cfg.DB.ConnLifetimeMin)
	assert.Equal(t, 30, cfg.DB.ConnIdleMin)
	assert.Equal(t, "info", cfg.App.LogLevel)
}

func TestLoad_PoolYNivelDesdeEntorno(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "50")
	t.Setenv("DB_MIN_CONNS", "5")
	t.Setenv("DB_CONN_LIFETIME_MINUTES", "15")
	t.Setenv("DB_CONN_IDLE_MINUTES", "5")
	t.Setenv("APP_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.DB.MaxConns)
	assert.Equal(t, 5, cfg.DB.MinConns)
	assert.Equal(t, 15, cfg.DB.ConnLifetimeMin)
	assert.Equal(t, 5, cfg.DB.ConnIdleMin)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}

func TestDSN_CodificaCredenciales(t *testing.T) {
	db := DBConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "farmacore",
		Password: "p@ss:word/1",
		DBName:   "farmacore",
		SSLMode:  "disable",
	}

	dsn := db.DSN()
	assert.Contains(t, dsn, "p%40ss%3Aword%2F1")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestConnectionString_PrefiereDatabaseURL(t *testing.T) {
	db := DBConfig{
		DatabaseURL: "postgresql://u:p@db.example.com:5432/farmacore?sslmode=require",
		Host:        "ignorado",
	}
	assert.Equal(t, db.DatabaseURL, db.ConnectionString())
}
