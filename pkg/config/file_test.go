package config

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHCL = `
host "*" {
  headers = { "X-Client" = "hyperctl" }
}

host "*.example.com" {
  namespace = "Shop"
  adapter   = "hal_json"

  auth {
    username = "user"
    password = "pass"
  }

  request_options {
    timeout     = "10s"
    max_retries = 2
  }

  default_attributes = { "locale" = "en" }
}
`

const testYAML = `
hosts:
  "*":
    headers:
      X-Client: hyperctl
      X-Version: 2
  "api.example.com:8443":
    namespace: Billing
    request_options:
      timeout: 5s
`

func TestLoadFile_HCL(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/hyper/config.hcl", []byte(testHCL), 0o644))

	cfg, err := LoadFile(fs, "/etc/hyper/config.hcl")
	require.NoError(t, err)

	ns, err := cfg.GetForURL("https://api.example.com/", KeyNamespace)
	require.NoError(t, err)
	assert.Equal(t, "Shop", ns)

	headers, err := cfg.GetForURL("https://api.example.com/", KeyHeaders)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X-Client": "hyperctl"}, headers)

	auth, _ := cfg.Get("*.example.com", KeyAuth)
	assert.Equal(t, "user", auth.(map[string]any)["username"])

	opts, _ := cfg.Get("*.example.com", KeyRequestOptions)
	assert.Equal(t, "10s", opts.(map[string]any)["timeout"])
	assert.Equal(t, 2, opts.(map[string]any)["max_retries"])

	attrs, _ := cfg.Get("*.example.com", KeyDefaultAttributes)
	assert.Equal(t, map[string]any{"locale": "en"}, attrs)
}

func TestLoadFile_YAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "config.yaml", []byte(testYAML), 0o644))

	cfg, err := LoadFile(fs, "config.yaml")
	require.NoError(t, err)

	ns, err := cfg.GetForURL("https://api.example.com:8443/v1", KeyNamespace)
	require.NoError(t, err)
	assert.Equal(t, "Billing", ns)

	ns, err = cfg.GetForURL("https://api.example.com/v1", KeyNamespace)
	require.NoError(t, err)
	assert.Nil(t, ns)

	headers, _ := cfg.Get(Wildcard, KeyHeaders)
	assert.Equal(t, map[string]string{"X-Client": "hyperctl", "X-Version": "2"}, headers)
}

func TestLoadFile_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := LoadFile(fs, "")
	require.Error(t, err)

	_, err = LoadFile(fs, "missing.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read configuration file")

	require.NoError(t, afero.WriteFile(fs, "config.toml", []byte(""), 0o644))
	_, err = LoadFile(fs, "config.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported configuration file type")
}

func TestParseYAML_ReportsAllProblems(t *testing.T) {
	_, err := ParseYAML([]byte(`
hosts:
  "bad mask!":
    namespace: A
  example.com:
    colour: blue
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad mask!")
	assert.Contains(t, err.Error(), `unknown key "colour"`)

	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestValidateMask(t *testing.T) {
	valid := []string{"*", "*.example.com", "example.com", "api.example.com:8443", "localhost", "127.0.0.1:8080"}
	for _, m := range valid {
		assert.NoError(t, ValidateMask(m), m)
	}

	invalid := []string{"", "*.example.com:80", "api.example.com:0", "api.example.com:http", "exa mple.com", "a..b", "-a.com"}
	for _, m := range invalid {
		assert.Error(t, ValidateMask(m), m)
	}
}
