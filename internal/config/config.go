// Package config loads the configuration of the ldapresolve command.
package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	ldapclient "github.com/isometry/terraform-provider-ldapresolve/internal/ldap"
	"github.com/isometry/terraform-provider-ldapresolve/internal/pipeline"
	"github.com/isometry/terraform-provider-ldapresolve/internal/resolve"
)

// Environment variables overriding file values.
const (
	EnvHost     = "LDAPRESOLVE_HOST"
	EnvUsername = "LDAPRESOLVE_USERNAME"
	EnvPassword = "LDAPRESOLVE_PASSWORD"
	EnvUseSSL   = "LDAPRESOLVE_USE_SSL"
)

// Config is the configuration file of the ldapresolve command.
type Config struct {
	// UIDNumber is the identifier template, e.g. "%{[process][uid]}".
	UIDNumber string `yaml:"uid_number"`

	Host          string        `yaml:"host"`
	LDAPPort      int           `yaml:"ldap_port" default:"389"`
	LDAPSPort     int           `yaml:"ldaps_port" default:"636"`
	UseSSL        bool          `yaml:"use_ssl"`
	SkipTLSVerify bool          `yaml:"skip_tls_verify"`
	Timeout       time.Duration `yaml:"connect_timeout" default:"30s"`
	MaxRetries    int           `yaml:"max_retries" default:"2"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	UserDN          string   `yaml:"user_dn"`
	GroupDN         string   `yaml:"group_dn"`
	UserAttributes  []string `yaml:"user_attributes" default:"[\"uid\",\"gidNumber\",\"givenName\",\"sn\"]"`
	GroupAttributes []string `yaml:"group_attributes" default:"[\"dn\"]"`

	UserObjectClass  string `yaml:"user_object_class" default:"posixAccount"`
	GroupObjectClass string `yaml:"group_object_class" default:"posixGroup"`
	UIDAttribute     string `yaml:"uid_attribute" default:"uidNumber"`
	GIDAttribute     string `yaml:"gid_attribute" default:"gidNumber"`

	UseCache        bool `yaml:"use_cache" default:"true"`
	CacheInterval   int  `yaml:"cache_interval" default:"300"`
	CacheMaxEntries int  `yaml:"cache_max_entries"`

	Fields Fields `yaml:"fields"`
}

// Fields names the record fields written by the filter.
type Fields struct {
	Login string `yaml:"login" default:"login"`
	User  string `yaml:"user" default:"user"`
	Group string `yaml:"group" default:"group"`
	Tags  string `yaml:"tags" default:"tags"`
}

// Default returns the configuration used when no file is given.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// Load reads the configuration file at path, applies environment overrides
// and validates the result. An empty path loads defaults and environment
// only.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		defer f.Close()

		if err := Decode(f, cfg); err != nil {
			return nil, err
		}
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Decode decodes YAML from r into cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyEnvOverrides overrides config values with environment variables if set.
func ApplyEnvOverrides(cfg *Config) error {
	if host := os.Getenv(EnvHost); host != "" {
		cfg.Host = host
	}
	if username := os.Getenv(EnvUsername); username != "" {
		cfg.Username = username
	}
	if password := os.Getenv(EnvPassword); password != "" {
		cfg.Password = password
	}
	if useSSL := os.Getenv(EnvUseSSL); useSSL != "" {
		v, err := strconv.ParseBool(useSSL)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvUseSSL, useSSL, err)
		}
		cfg.UseSSL = v
	}
	return nil
}

// Validate checks that cfg can be used to resolve identities.
func (c *Config) Validate() error {
	if c.UIDNumber == "" {
		return errors.New("uid_number must be set")
	}
	if c.Host == "" {
		return errors.New("host must be set")
	}
	if err := validatePort("ldap_port", c.LDAPPort); err != nil {
		return err
	}
	if err := validatePort("ldaps_port", c.LDAPSPort); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return errors.New("connect_timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("max_retries cannot be negative")
	}
	if err := ldapclient.ValidateDNSyntax(c.UserDN); err != nil {
		return fmt.Errorf("invalid user_dn: %w", err)
	}
	if err := ldapclient.ValidateDNSyntax(c.GroupDN); err != nil {
		return fmt.Errorf("invalid group_dn: %w", err)
	}
	if c.CacheInterval < 0 {
		return errors.New("cache_interval cannot be negative")
	}
	if c.CacheMaxEntries < 0 {
		return errors.New("cache_max_entries cannot be negative")
	}
	return nil
}

func validatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

// ConnectionConfig returns the directory connection settings.
func (c *Config) ConnectionConfig() *ldapclient.ConnectionConfig {
	conn := ldapclient.DefaultConfig()
	conn.Host = c.Host
	conn.LDAPPort = c.LDAPPort
	conn.LDAPSPort = c.LDAPSPort
	conn.UseSSL = c.UseSSL
	conn.Timeout = c.Timeout
	conn.MaxRetries = c.MaxRetries
	conn.TLSConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         c.Host,
		InsecureSkipVerify: c.SkipTLSVerify, // #nosec G402 - opt-in for test directories
	}
	return conn
}

// QueryConfig returns the directory layout used by the executor.
func (c *Config) QueryConfig() resolve.QueryConfig {
	return resolve.QueryConfig{
		Username:         c.Username,
		Password:         c.Password,
		UserDN:           c.UserDN,
		GroupDN:          c.GroupDN,
		UserAttributes:   c.UserAttributes,
		GroupAttributes:  c.GroupAttributes,
		UserObjectClass:  c.UserObjectClass,
		GroupObjectClass: c.GroupObjectClass,
		UIDAttribute:     c.UIDAttribute,
		GIDAttribute:     c.GIDAttribute,
		SearchTimeLimit:  c.Timeout,
	}
}

// FilterConfig returns the record fields used by the pipeline filter.
func (c *Config) FilterConfig() pipeline.FilterConfig {
	return pipeline.FilterConfig{
		UIDNumber:  c.UIDNumber,
		LoginField: c.Fields.Login,
		UserField:  c.Fields.User,
		GroupField: c.Fields.Group,
		TagsField:  c.Fields.Tags,
	}
}

// CacheTTL returns the cache validity period.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheInterval) * time.Second
}

// NewStore returns the cache store described by cfg: a bounded LRU store
// when cache_max_entries is set, an unbounded one otherwise.
func (c *Config) NewStore(clock resolve.Clock) (resolve.Store, error) {
	if c.CacheMaxEntries > 0 {
		store, err := resolve.NewLRUStore(c.CacheMaxEntries, c.CacheTTL(), clock)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return resolve.NewMapStore(c.CacheTTL(), clock), nil
}

// NewResolver builds a resolver over client.
func (c *Config) NewResolver(client ldapclient.DirectoryClient) (*resolve.Resolver, error) {
	store, err := c.NewStore(time.Now)
	if err != nil {
		return nil, err
	}
	executor := resolve.NewExecutor(client, c.QueryConfig())
	return resolve.New(executor, resolve.WithStore(store), resolve.WithCache(c.UseCache)), nil
}
