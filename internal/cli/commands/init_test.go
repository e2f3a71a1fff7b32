package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e9g9o9r9/chitai-admin/internal/cli/config"
)

func TestRunInit(t *testing.T) {
	chdir(t, t.TempDir())

	var out bytes.Buffer
	require.NoError(t, runInit("https://admin.example.com/", &out))
	assert.Contains(t, out.String(), "Created ./chitai.json")

	require.NoError(t, runInit("https://staging.example.com", &out))
	require.NoError(t, runInit("https://admin.example.com", &out))
	assert.Contains(t, out.String(), "already exists")

	cfg, err := config.Load(config.ConfigFileName)
	require.NoError(t, err)
	require.Len(t, cfg.Servers, 2)
	assert.Equal(t, config.Server{URL: "https://admin.example.com", Alias: "production"}, cfg.Servers[0])
	assert.Equal(t, config.Server{URL: "https://staging.example.com", Alias: "server-2"}, cfg.Servers[1])
}

func TestRunInit_InvalidURL(t *testing.T) {
	chdir(t, t.TempDir())

	err := runInit("admin.example.com", &bytes.Buffer{})
	assert.Error(t, err)
}
