package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", Username: "zones", Password: "secret", Database: "delivery"}
	assert.Equal(t, "host=db port=5432 user=zones password=secret dbname=delivery sslmode=disable", cfg.DSN())
}

func TestConnectSqlite_InMemory(t *testing.T) {
	m := NewManager(Config{}, zerolog.Nop())
	require.NoError(t, m.ConnectSqlite())
	defer m.Close()

	assert.True(t, m.IsValid)
	assert.True(t, m.ShouldSaveLocal)
	assert.Equal(t, 1, m.SqlDB.Stats().MaxOpenConnections)

	require.NoError(t, m.DB.Exec("CREATE TABLE t (v INTEGER)").Error)
	require.NoError(t, m.DB.Exec("INSERT INTO t VALUES (1)").Error)
	var n int64
	require.NoError(t, m.DB.Raw("SELECT COUNT(*) FROM t").Scan(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestDumpToDisk(t *testing.T) {
	m := NewManager(Config{}, zerolog.Nop())
	require.NoError(t, m.ConnectSqlite())
	defer m.Close()
	require.NoError(t, m.DB.Exec("CREATE TABLE t (v INTEGER)").Error)

	path := filepath.Join(t.TempDir(), "zones.db")
	require.NoError(t, m.DumpToDisk(path))
	_, err := os.Stat(path)
	assert.NoError(t, err)

	// a second dump replaces the file
	require.NoError(t, m.DumpToDisk(path))

	assert.Error(t, m.DumpToDisk(""))
}

func TestClose_WithoutConnection(t *testing.T) {
	m := NewManager(Config{}, zerolog.Nop())
	assert.NoError(t, m.Close())
}
