package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"StoryVault/snapshot"
	"StoryVault/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSnapshot(t *testing.T, snap *snapshot.Snapshot) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backup.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, snap.Encode(f))
	require.NoError(t, f.Close())
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVerifyCommand(t *testing.T) {
	snap := &snapshot.Snapshot{
		Version:   snapshot.Version,
		Type:      snapshot.KindChat,
		Timestamp: 1,
		Data: snapshot.Data{
			Chat:     &snapshot.SessionHeader{Name: "魔法学习"},
			Messages: []snapshot.MessageRecord{{ID: 1, Content: "hi"}},
			Swipes:   []snapshot.SwipeRecord{},
		},
	}
	require.NoError(t, snap.Seal())

	out, err := run(t, "verify", writeSnapshot(t, snap))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "OK "), out)

	snap.Data.Messages[0].Content = "bye"
	out, err = run(t, "verify", writeSnapshot(t, snap))
	assert.ErrorIs(t, err, errInvalidSnapshot)
	assert.Contains(t, out, "INVALID")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	out, err := run(t, "token", "5")
	require.NoError(t, err)

	claims, err := utils.ValidateToken([]byte("cli-secret"), strings.TrimSpace(out))
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(5), id)

	_, err = run(t, "token", "zero")
	assert.Error(t, err)
}
