package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	appdb "pantry/internal/db"
)

func withDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := appdb.OpenMemory(uuid.NewString())
	require.NoError(t, err)

	original := openDatabase
	openDatabase = func(context.Context, string) (*gorm.DB, error) { return database, nil }
	t.Cleanup(func() {
		openDatabase = original
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return database
}

func execute(args ...string) (string, string, error) {
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func decodeData[T any](t *testing.T, stdout string) T {
	t.Helper()

	var resp struct {
		Status string `json:"status"`
		Data   T      `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "pantryctl", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"import", "inventory", "restock", "cookable", "missing", "cook", "shopping-list", "expiring"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	userFlag := cmd.PersistentFlags().Lookup("user")
	require.NotNil(t, userFlag)
	assert.Equal(t, "u", userFlag.Shorthand)

	require.NotNil(t, cmd.PersistentFlags().Lookup("database"))
}

func TestInvalidFormat(t *testing.T) {
	withDatabase(t)

	_, _, err := execute("inventory", "--user", "1", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestCommandsRequireUser(t *testing.T) {
	withDatabase(t)

	for _, args := range [][]string{
		{"inventory"},
		{"shopping-list"},
		{"expiring"},
		{"cookable"},
		{"restock", "rice", "100"},
	} {
		_, stderr, err := execute(args...)
		require.Error(t, err, args)
		assert.Equal(t, ExitCommandError, GetExitCode(err), args)
		assert.True(t, IsReported(err))
		assert.Contains(t, stderr, "--user is required")
	}
}
