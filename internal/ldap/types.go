package ldap

import (
	"context"
	"crypto/tls"
	"iter"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Default ports of the directory service.
const (
	DefaultLDAPPort  = 389
	DefaultLDAPSPort = 636
)

// ConnectionConfig holds configuration for directory connections.
type ConnectionConfig struct {
	// Connection settings
	Host      string        // Directory host name
	LDAPPort  int           // Plain LDAP port
	LDAPSPort int           // LDAPS port, used when UseSSL is set
	UseSSL    bool          // Connect with LDAPS instead of plain LDAP
	Timeout   time.Duration // Connection and request timeout

	// TLS settings
	TLSConfig *tls.Config // TLS configuration for LDAPS

	// Retry settings
	MaxRetries     int           // Maximum dial retry attempts
	InitialBackoff time.Duration // Initial backoff duration
	MaxBackoff     time.Duration // Maximum backoff duration
	BackoffFactor  float64       // Backoff multiplication factor
}

// DefaultConfig returns the default connection configuration.
func DefaultConfig() *ConnectionConfig {
	return &ConnectionConfig{
		LDAPPort:       DefaultLDAPPort,
		LDAPSPort:      DefaultLDAPSPort,
		UseSSL:         false,
		Timeout:        30 * time.Second,
		MaxRetries:     2,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// Port returns the port matching the configured transport.
func (c *ConnectionConfig) Port() int {
	if c.UseSSL {
		return c.LDAPSPort
	}
	return c.LDAPPort
}

// Entries is a lazy, finite sequence of search results. Errors raised while
// the directory streams results are yielded with a nil entry and end the
// sequence.
type Entries = iter.Seq2[*ldap.Entry, error]

// DirectoryClient is the directory capability consumed by the resolver.
type DirectoryClient interface {
	// Bind authenticates the underlying connection. An empty password
	// performs an unauthenticated bind.
	Bind(ctx context.Context, username, password string) error

	// Search runs a search and returns its entries lazily.
	Search(ctx context.Context, req *SearchRequest) (Entries, error)

	// Close releases the underlying connection.
	Close() error
}

// SearchRequest encapsulates LDAP search parameters.
type SearchRequest struct {
	BaseDN       string
	Scope        SearchScope
	Filter       string
	Attributes   []string
	SizeLimit    int
	TimeLimit    time.Duration
	DerefAliases DerefAliases
}

// SearchScope defines LDAP search scope.
type SearchScope int

const (
	ScopeBaseObject SearchScope = iota
	ScopeSingleLevel
	ScopeWholeSubtree
)

// String returns string representation of the search scope.
func (s SearchScope) String() string {
	switch s {
	case ScopeBaseObject:
		return "base"
	case ScopeSingleLevel:
		return "one"
	case ScopeWholeSubtree:
		return "sub"
	default:
		return "unknown"
	}
}

// DerefAliases defines alias dereferencing behavior.
type DerefAliases int

const (
	NeverDerefAliases DerefAliases = iota
	DerefInSearching
	DerefFindingBaseObj
	DerefAlways
)

// RetryableError indicates an error that can be retried.
type RetryableError interface {
	error
	IsRetryable() bool
}

// ConnectionError represents dial, bind and search failures.
type ConnectionError struct {
	message   string
	retryable bool
	cause     error
}

func (e *ConnectionError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *ConnectionError) IsRetryable() bool {
	return e.retryable
}

func (e *ConnectionError) Unwrap() error {
	return e.cause
}

// NewConnectionError creates a new connection error.
func NewConnectionError(message string, retryable bool, cause error) *ConnectionError {
	return &ConnectionError{
		message:   message,
		retryable: retryable,
		cause:     cause,
	}
}
