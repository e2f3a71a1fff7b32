package serverselect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e9g9o9r9/chitai-admin/internal/cli/config"
	"github.com/e9g9o9r9/chitai-admin/internal/cli/userconfig"
)

func twoServers() *config.Config {
	return &config.Config{Servers: []config.Server{
		{Alias: "production", URL: "https://admin.example.com"},
		{Alias: "staging", URL: "https://staging.example.com"},
	}}
}

func TestResolveServer_AliasWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, userconfig.SetSelectedServer("https://admin.example.com"))

	server, err := ResolveServer(twoServers(), "staging")
	require.NoError(t, err)
	assert.Equal(t, "staging", server.Alias)
}

func TestResolveServer_UsesSelected(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, userconfig.SetSelectedServer("https://staging.example.com"))

	server, err := ResolveServer(twoServers(), "")
	require.NoError(t, err)
	assert.Equal(t, "staging", server.Alias)
}

func TestResolveServer_SingleServerIsSelected(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, userconfig.SetSelectedServer("https://gone.example.com"))

	cfg := &config.Config{Servers: []config.Server{{Alias: "only", URL: "https://only.example.com"}}}
	server, err := ResolveServer(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "only", server.Alias)

	selected, err := userconfig.GetSelectedServer()
	require.NoError(t, err)
	assert.Equal(t, "https://only.example.com", selected)
}

func TestGetServerByURLOrAlias(t *testing.T) {
	cfg := twoServers()

	byURL, err := GetServerByURLOrAlias(cfg, "https://staging.example.com")
	require.NoError(t, err)
	assert.Equal(t, "staging", byURL.Alias)

	byAlias, err := GetServerByURLOrAlias(cfg, "production")
	require.NoError(t, err)
	assert.Equal(t, "https://admin.example.com", byAlias.URL)

	_, err = GetServerByURLOrAlias(cfg, "nope")
	assert.Error(t, err)
}
