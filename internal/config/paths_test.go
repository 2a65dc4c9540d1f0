package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"section", "api", []string{"api"}, false},
		{"leaf", "web.sessionIdle", []string{"web", "sessionIdle"}, false},
		{"empty", "", nil, true},
		{"empty segment", "server..port", nil, true},
		{"trailing dot", "server.", nil, true},
		{"blocked key", "api.__proto__", nil, true},
		{"blocked constructor", "constructor", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				var ce *ConfigError
				assert.ErrorAs(t, err, &ce)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetValueAtPath(t *testing.T) {
	root := map[string]any{
		"api": map[string]any{
			"baseUrl": "https://creator.bid/api",
		},
		"profile": "flat",
	}

	v, ok := GetValueAtPath(root, []string{"api", "baseUrl"})
	require.True(t, ok)
	assert.Equal(t, "https://creator.bid/api", v)

	_, ok = GetValueAtPath(root, []string{"api", "missing"})
	assert.False(t, ok)

	_, ok = GetValueAtPath(root, []string{"profile", "agentId"})
	assert.False(t, ok, "cannot descend into a scalar")
}

func TestSetValueAtPath(t *testing.T) {
	root := map[string]any{"server": "scalar"}

	SetValueAtPath(root, []string{"web", "maxSessions"}, 50)
	SetValueAtPath(root, []string{"server", "port"}, 9000)

	v, ok := GetValueAtPath(root, []string{"web", "maxSessions"})
	require.True(t, ok)
	assert.Equal(t, 50, v)

	v, ok = GetValueAtPath(root, []string{"server", "port"})
	require.True(t, ok)
	assert.Equal(t, 9000, v)
}

func TestUnsetValueAtPath(t *testing.T) {
	root := map[string]any{
		"api": map[string]any{"timeout": "5s", "pageSize": 16},
	}

	assert.True(t, UnsetValueAtPath(root, []string{"api", "timeout"}))
	assert.False(t, UnsetValueAtPath(root, []string{"api", "timeout"}))
	assert.False(t, UnsetValueAtPath(root, []string{"gallery", "enrichConcurrency"}))

	_, ok := GetValueAtPath(root, []string{"api", "pageSize"})
	assert.True(t, ok, "siblings survive")
}

func TestResolvePathsDefault(t *testing.T) {
	t.Setenv("AGENTGALLERY_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".agentgallery"), paths.Base)
	assert.Equal(t, filepath.Join(home, ".agentgallery", "config.yaml"), paths.Config)
	assert.Equal(t, filepath.Join(home, ".agentgallery", ".env"), paths.Env)
}

func TestResolvePathsCustomHome(t *testing.T) {
	t.Setenv("AGENTGALLERY_HOME", "/tmp/ag-home")

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ag-home", paths.Base)
	assert.Equal(t, "/tmp/ag-home/config.yaml", paths.Config)
}

func TestEnsureDirs(t *testing.T) {
	base := filepath.Join(t.TempDir(), "a", "b")
	paths := Paths{Base: base}

	require.NoError(t, paths.EnsureDirs())
	require.NoError(t, paths.EnsureDirs())

	info, err := os.Stat(base)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
