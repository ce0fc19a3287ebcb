package configlibsql

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenDB(t *testing.T) {
	require.False(t, Struct{}.Enabled())
	_, err := Struct{}.OpenDB()
	require.Error(t, err)

	config := Struct{File: filepath.Join(t.TempDir(), "scoreboard.db")}
	require.True(t, config.Enabled())

	db, err := config.OpenDB()
	require.NoError(t, err)
	defer db.Close()

	var mode string
	err = db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	require.NoError(t, err)
	require.Equal(t, "wal", mode)
}
