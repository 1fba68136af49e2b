package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyushLimaye7/login-registration-dashboard/pkg/config"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path, "access_token")

	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token, "missing file reads as empty")

	require.NoError(t, store.Save(ctx, "tok-1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"tok-1"}`, string(data))

	token, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx), "clearing twice is fine")

	token, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path, "access_token").Load(context.Background())
	assert.Error(t, err)
}

func TestNewTokenStore(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		wantErr bool
	}{
		{"file", config.TokenStoreFile, false},
		{"memory", config.TokenStoreMemory, false},
		{"redis without client", config.TokenStoreRedis, true},
		{"unknown", "etcd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Session: config.SessionConfig{
				TokenStore: tt.kind,
				TokenFile:  filepath.Join(t.TempDir(), "s.json"),
				TokenKey:   "access_token",
			}}
			store, err := NewTokenStore(cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, store)
		})
	}
}
