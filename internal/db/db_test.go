package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opticart/internal/model"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "dsn")
	assert.Error(t, err)
}

func TestNewTestDB_MigratesAllTables(t *testing.T) {
	gdb, err := NewTestDB()
	require.NoError(t, err)

	for _, m := range model.All() {
		assert.True(t, gdb.Migrator().HasTable(m), "missing table for %T", m)
	}
}

func TestReset(t *testing.T) {
	gdb, err := NewTestDB()
	require.NoError(t, err)

	require.NoError(t, Reset(gdb))
	assert.False(t, gdb.Migrator().HasTable(&model.User{}))
	assert.False(t, gdb.Migrator().HasTable(&model.OTP{}))
}
