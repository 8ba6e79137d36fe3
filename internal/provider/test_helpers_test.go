package provider

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// Test environment configuration constants.
const (
	EnvTestHost     = "LDAPRESOLVE_TEST_HOST"
	EnvTestUsername = "LDAPRESOLVE_TEST_USERNAME"
	EnvTestPassword = "LDAPRESOLVE_TEST_PASSWORD"
	EnvTestUserDN   = "LDAPRESOLVE_TEST_USER_DN"
	EnvTestGroupDN  = "LDAPRESOLVE_TEST_GROUP_DN"
	EnvTestUID      = "LDAPRESOLVE_TEST_UID"
	EnvTestUseSSL   = "LDAPRESOLVE_TEST_USE_SSL"

	DefaultTestUserDN  = "ou=People,dc=example,dc=com"
	DefaultTestGroupDN = "ou=groups,dc=example,dc=com"
)

// TestConfig holds common test configuration.
type TestConfig struct {
	Host     string
	Username string
	Password string
	UserDN   string
	GroupDN  string
	UID      string
	UseSSL   bool
}

// GetTestConfig returns the test configuration from environment variables.
func GetTestConfig() *TestConfig {
	return &TestConfig{
		Host:     os.Getenv(EnvTestHost),
		Username: os.Getenv(EnvTestUsername),
		Password: os.Getenv(EnvTestPassword),
		UserDN:   getEnvWithDefault(EnvTestUserDN, DefaultTestUserDN),
		GroupDN:  getEnvWithDefault(EnvTestGroupDN, DefaultTestGroupDN),
		UID:      os.Getenv(EnvTestUID),
		UseSSL:   os.Getenv(EnvTestUseSSL) == "true",
	}
}

// IsAccTest returns true if acceptance tests should run.
func IsAccTest() bool {
	return os.Getenv("TF_ACC") != ""
}

// SkipIfNotAccTest skips the test if TF_ACC is not set.
func SkipIfNotAccTest(t *testing.T) {
	if !IsAccTest() {
		t.Skip("Skipping acceptance test - set TF_ACC=1 to run")
	}
}

// testAccPreCheckWithConfig validates the acceptance test environment.
func testAccPreCheckWithConfig(t *testing.T) *TestConfig {
	SkipIfNotAccTest(t)

	config := GetTestConfig()

	if config.Host == "" {
		t.Skipf("Skipping test: %s must be set to a real directory", EnvTestHost)
	}

	if config.UID == "" {
		t.Skipf("Skipping test: %s must be set to the uidNumber of an existing account", EnvTestUID)
	}

	return config
}

// testAccProviderConfig generates provider configuration for tests.
func testAccProviderConfig() string {
	config := GetTestConfig()

	var providerConfig strings.Builder
	providerConfig.WriteString("provider \"ldapresolve\" {\n")
	providerConfig.WriteString(fmt.Sprintf("  host     = %q\n", config.Host))
	providerConfig.WriteString(fmt.Sprintf("  user_dn  = %q\n", config.UserDN))
	providerConfig.WriteString(fmt.Sprintf("  group_dn = %q\n", config.GroupDN))

	if config.Username != "" {
		providerConfig.WriteString(fmt.Sprintf("  username = %q\n", config.Username))
		providerConfig.WriteString(fmt.Sprintf("  password = %q\n", config.Password))
	}

	if config.UseSSL {
		providerConfig.WriteString("  use_ssl  = true\n")
	}

	providerConfig.WriteString("}\n")
	return providerConfig.String()
}

// GenerateUnknownUID returns a uidNumber that no test directory assigns.
func GenerateUnknownUID() string {
	return fmt.Sprintf("%d", 3000000000+uint64(uuid.New().ID()%1000000000))
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
