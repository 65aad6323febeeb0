package clientcli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sagarc03/duplo/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_WithDefaults(t *testing.T) {
	t.Run("empty config gets defaults", func(t *testing.T) {
		cfg := (&clientcli.Config{}).WithDefaults()
		assert.Equal(t, clientcli.DefaultEndpoint, cfg.Endpoint)
		assert.Equal(t, clientcli.DefaultPool, cfg.Pool)
	})

	t.Run("set values are kept", func(t *testing.T) {
		orig := &clientcli.Config{Endpoint: "http://files.lan:8080", Pool: "permanent"}
		cfg := orig.WithDefaults()
		assert.Equal(t, orig, cfg)
		assert.NotSame(t, orig, cfg)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		pool    string
		wantErr bool
	}{
		{name: "transient", pool: "transient"},
		{name: "permanent", pool: "permanent"},
		{name: "empty", pool: "", wantErr: true},
		{name: "dot", pool: ".", wantErr: true},
		{name: "dotdot", pool: "..", wantErr: true},
		{name: "nested", pool: "a/b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&clientcli.Config{Pool: tt.pool}).Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, clientcli.ErrInvalidPool)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigFile_Profiles(t *testing.T) {
	cf := &clientcli.ConfigFile{}

	_, err := cf.GetProfile("")
	assert.ErrorIs(t, err, clientcli.ErrNoProfiles)

	require.NoError(t, cf.AddProfile(clientcli.Profile{Name: "local", Endpoint: "http://localhost:5708"}))
	require.NoError(t, cf.AddProfile(clientcli.Profile{Name: "office", Endpoint: "http://files.lan", Pool: "permanent"}))
	assert.ErrorIs(t, cf.AddProfile(clientcli.Profile{Name: "local"}), clientcli.ErrProfileExists)

	p, err := cf.GetProfile("")
	require.NoError(t, err)
	assert.Equal(t, "local", p.Name, "first profile is the default when none is marked")

	require.NoError(t, cf.SetDefault("office"))
	p, err = cf.GetDefaultProfile()
	require.NoError(t, err)
	assert.Equal(t, "office", p.Name)
	assert.Equal(t, "permanent", p.Pool)

	require.NoError(t, cf.UpdateProfile(clientcli.Profile{Name: "local", Endpoint: "http://127.0.0.1:9000"}))
	p, err = cf.GetProfile("local")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", p.Endpoint)

	assert.ErrorIs(t, cf.UpdateProfile(clientcli.Profile{Name: "missing"}), clientcli.ErrProfileNotFound)
	assert.ErrorIs(t, cf.SetDefault("missing"), clientcli.ErrProfileNotFound)

	_, err = cf.GetProfile("missing")
	assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)

	assert.Equal(t, []string{"local", "office"}, cf.ProfileNames())

	require.NoError(t, cf.RemoveProfile("local"))
	assert.Equal(t, []string{"office"}, cf.ProfileNames())
	assert.ErrorIs(t, cf.RemoveProfile("local"), clientcli.ErrProfileNotFound)
}

func TestConfigFile_SaveAndLoad(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")

		cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "local", Endpoint: "http://localhost:5708", Default: true},
			{Name: "office", Endpoint: "http://files.lan", Pool: "permanent"},
		}}
		require.NoError(t, cf.Save(path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		loaded, err := clientcli.LoadConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, cf, loaded)
	})

	t.Run("hand written file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `profiles:
  - name: office
    endpoint: http://files.lan
    pool: permanent
    default: true
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		loaded, err := clientcli.LoadConfigFile(path)
		require.NoError(t, err)

		p, err := loaded.GetProfile("")
		require.NoError(t, err)
		assert.Equal(t, "office", p.Name)
		assert.Equal(t, "http://files.lan", p.Endpoint)
		assert.Equal(t, "permanent", p.Pool)
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := clientcli.LoadConfigFile("/nonexistent/path/config.yaml")
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`invalid: [yaml: content`), 0o600))

		_, err := clientcli.LoadConfigFile(path)
		assert.Error(t, err)
	})
}

func TestMergeConfig(t *testing.T) {
	tests := []struct {
		name     string
		configs  []*clientcli.Config
		expected *clientcli.Config
	}{
		{
			name:     "empty configs",
			configs:  []*clientcli.Config{},
			expected: &clientcli.Config{},
		},
		{
			name: "later config overrides",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", Pool: "transient"},
				{Endpoint: "http://b.com"},
			},
			expected: &clientcli.Config{Endpoint: "http://b.com", Pool: "transient"},
		},
		{
			name: "nil config is skipped",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com"},
				nil,
				{Pool: "permanent"},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", Pool: "permanent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clientcli.MergeConfig(tt.configs...))
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DUPLO_ENDPOINT", "http://test.example.com")
	t.Setenv("DUPLO_POOL", "permanent")
	t.Setenv("DUPLO_PROFILE", "office")
	t.Setenv("DUPLO_CLIENT_CONFIG", "/tmp/duplo.yaml")

	cfg := clientcli.ConfigFromEnv()

	assert.Equal(t, "http://test.example.com", cfg.Endpoint)
	assert.Equal(t, "permanent", cfg.Pool)
	assert.Equal(t, "office", clientcli.ProfileFromEnv())
	assert.Equal(t, "/tmp/duplo.yaml", clientcli.ConfigPathFromEnv())
}
