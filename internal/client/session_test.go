package client_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmr/account-service/internal/client"
)

func TestSessionStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := client.NewSessionStore(path)

	session := &client.Session{
		Token: "some.jwt.token",
		User: client.User{
			ID:         "b2f6f9a0-0000-0000-0000-000000000001",
			Name:       "Ada",
			Email:      "ada@example.com",
			SignupDate: time.Now().UTC().Truncate(time.Second),
		},
	}

	require.NoError(t, store.Save(session))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, session.Token, loaded.Token)
	assert.Equal(t, session.User, loaded.User)
}

func TestSessionStore_LoadMissingFile(t *testing.T) {
	store := client.NewSessionStore(filepath.Join(t.TempDir(), "absent.json"))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSessionStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := client.NewSessionStore(path)
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSessionStore_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := client.NewSessionStore(path)

	require.NoError(t, store.Save(&client.Session{Token: "tok"}))
	require.NoError(t, store.Clear())
	// Clearing an already-missing file is fine.
	require.NoError(t, store.Clear())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
