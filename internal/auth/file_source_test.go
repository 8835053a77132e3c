package auth_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theplebdev/tmichat/internal/auth"
)

func writeSecrets(t *testing.T, path, token, username string) {
	t.Helper()
	data := `{"access_token":"` + token + `","username":"` + username + `"}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
}

func TestFileSourceEmitsCurrentToken(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "secrets.json")
	writeSecrets(t, path, "tok-1", "bob")

	src := auth.NewFileSourceInterval(path, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tokens := src.Tokens(ctx)
	select {
	case tok := <-tokens:
		assert.Equal(t, "tok-1", tok)
	case <-time.After(time.Second):
		t.Fatal("no initial token emitted")
	}
}

func TestFileSourceEmitsOnChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "secrets.json")
	writeSecrets(t, path, "tok-1", "bob")

	src := auth.NewFileSourceInterval(path, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tokens := src.Tokens(ctx)
	require.Equal(t, "tok-1", <-tokens)

	// Rewritten out of band; subscription should pick it up. The explicit
	// mtime bump avoids depending on filesystem timestamp granularity.
	writeSecrets(t, path, "tok-2", "bob")
	future := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case tok := <-tokens:
		assert.Equal(t, "tok-2", tok)
	case <-time.After(2 * time.Second):
		t.Fatal("refreshed token never emitted")
	}
}

func TestFileSourceChannelClosesOnCancel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "secrets.json")
	writeSecrets(t, path, "tok-1", "bob")

	ctx, cancel := context.WithCancel(context.Background())
	src := auth.NewFileSourceInterval(path, 10*time.Millisecond)
	tokens := src.Tokens(ctx)

	require.Equal(t, "tok-1", <-tokens)
	cancel()

	select {
	case _, open := <-tokens:
		assert.False(t, open, "channel should close after cancellation")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancellation")
	}
}

func TestFileSourceUsername(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "secrets.json")
	writeSecrets(t, path, "tok-1", "bob")

	src := auth.NewFileSource(path)
	name, err := src.Username(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bob", name)
}

func TestFileSourceMissingFile(t *testing.T) {
	t.Parallel()

	src := auth.NewFileSource(filepath.Join(t.TempDir(), "nope.json"))
	_, err := src.Username(context.Background())
	require.Error(t, err)
}

func TestStaticSource(t *testing.T) {
	t.Parallel()

	src := &auth.StaticSource{Token: "tok", User: "bob"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Equal(t, "tok", <-src.Tokens(ctx))

	name, err := src.Username(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", name)
}
