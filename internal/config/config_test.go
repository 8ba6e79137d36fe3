package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isometry/terraform-provider-ldapresolve/internal/resolve"
)

const sampleConfig = `
uid_number: "%{[process][uid]}"
host: ldap.example.com
use_ssl: true
username: cn=reader,dc=example,dc=com
password: secret
user_dn: ou=People,dc=example,dc=com
group_dn: ou=Groups,dc=example,dc=com
use_cache: false
cache_interval: 60
connect_timeout: 5s
fields:
  login: "[identity][login]"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ldapresolve.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 389, cfg.LDAPPort)
	assert.Equal(t, 636, cfg.LDAPSPort)
	assert.False(t, cfg.UseSSL)
	assert.True(t, cfg.UseCache)
	assert.Equal(t, 300, cfg.CacheInterval)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"uid", "gidNumber", "givenName", "sn"}, cfg.UserAttributes)
	assert.Equal(t, []string{"dn"}, cfg.GroupAttributes)
	assert.Equal(t, "posixAccount", cfg.UserObjectClass)
	assert.Equal(t, "posixGroup", cfg.GroupObjectClass)
	assert.Equal(t, "uidNumber", cfg.UIDAttribute)
	assert.Equal(t, "gidNumber", cfg.GIDAttribute)
	assert.Equal(t, Fields{Login: "login", User: "user", Group: "group", Tags: "tags"}, cfg.Fields)
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "%{[process][uid]}", cfg.UIDNumber)
	assert.Equal(t, "ldap.example.com", cfg.Host)
	assert.True(t, cfg.UseSSL)
	assert.False(t, cfg.UseCache, "explicit false must survive defaults")
	assert.Equal(t, 60, cfg.CacheInterval)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "[identity][login]", cfg.Fields.Login)
	assert.Equal(t, "user", cfg.Fields.User, "unset nested fields keep defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, "hostname: ldap.example.com\n"))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = Load(writeConfig(t, "ldap_port: [389]\n"))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 389, cfg.LDAPPort)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvHost, "ldap2.example.com")
	t.Setenv(EnvUsername, "cn=admin,dc=example,dc=com")
	t.Setenv(EnvPassword, "from-env")
	t.Setenv(EnvUseSSL, "true")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "ldap2.example.com", cfg.Host)
	assert.Equal(t, "cn=admin,dc=example,dc=com", cfg.Username)
	assert.Equal(t, "from-env", cfg.Password)
	assert.True(t, cfg.UseSSL)
}

func TestApplyEnvOverrides_InvalidBool(t *testing.T) {
	t.Setenv(EnvUseSSL, "sometimes")

	_, err := Load("")
	assert.ErrorContains(t, err, EnvUseSSL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(writeConfig(t, sampleConfig))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing uid_number", func(c *Config) { c.UIDNumber = "" }, "uid_number"},
		{"missing host", func(c *Config) { c.Host = "" }, "host"},
		{"bad ldap port", func(c *Config) { c.LDAPPort = 0 }, "ldap_port"},
		{"bad ldaps port", func(c *Config) { c.LDAPSPort = 65536 }, "ldaps_port"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "connect_timeout"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "max_retries"},
		{"bad user dn", func(c *Config) { c.UserDN = "People" }, "user_dn"},
		{"missing group dn", func(c *Config) { c.GroupDN = "" }, "group_dn"},
		{"negative interval", func(c *Config) { c.CacheInterval = -1 }, "cache_interval"},
		{"negative max entries", func(c *Config) { c.CacheMaxEntries = -5 }, "cache_max_entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q should mention %q", err, tt.wantErr)
		})
	}
}

func TestConversions(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	conn := cfg.ConnectionConfig()
	assert.Equal(t, "ldap.example.com", conn.Host)
	assert.Equal(t, 636, conn.Port())
	assert.Equal(t, 5*time.Second, conn.Timeout)
	assert.Equal(t, "ldap.example.com", conn.TLSConfig.ServerName)
	assert.False(t, conn.TLSConfig.InsecureSkipVerify)

	query := cfg.QueryConfig()
	assert.Equal(t, "ou=People,dc=example,dc=com", query.UserDN)
	assert.Equal(t, "ou=Groups,dc=example,dc=com", query.GroupDN)
	assert.Equal(t, "secret", query.Password)

	filter := cfg.FilterConfig()
	assert.Equal(t, "%{[process][uid]}", filter.UIDNumber)
	assert.Equal(t, "[identity][login]", filter.LoginField)

	assert.Equal(t, time.Minute, cfg.CacheTTL())
}

func TestNewStore(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	store, err := cfg.NewStore(nil)
	require.NoError(t, err)
	assert.IsType(t, &resolve.MapStore{}, store)

	cfg.CacheMaxEntries = 100
	store, err = cfg.NewStore(nil)
	require.NoError(t, err)
	assert.IsType(t, &resolve.LRUStore{}, store)
}
