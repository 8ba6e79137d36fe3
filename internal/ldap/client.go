package ldap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// dialFunc opens a connection to the configured server.
type dialFunc func(config *ConnectionConfig) (*ldap.Conn, error)

// client implements the DirectoryClient interface on top of a single,
// lazily dialed go-ldap connection.
type client struct {
	config *ConnectionConfig
	dial   dialFunc

	mu   sync.Mutex
	conn *ldap.Conn
}

// NewClient creates a new directory client. No connection is opened until
// the first Bind.
func NewClient(ctx context.Context, config *ConnectionConfig) (DirectoryClient, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := validateConfig(config); err != nil {
		tflog.SubsystemError(ctx, "ldap", "Invalid directory configuration", map[string]any{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tflog.SubsystemDebug(ctx, "ldap", "Creating new directory client", map[string]any{
		"host":    config.Host,
		"port":    config.Port(),
		"use_ssl": config.UseSSL,
		"timeout": config.Timeout.String(),
	})

	return &client{
		config: config,
		dial:   dialServer,
	}, nil
}

// ServerURL returns the LDAP URL of the configured server.
func ServerURL(config *ConnectionConfig) string {
	scheme := "ldap"
	if config.UseSSL {
		scheme = "ldaps"
	}
	return scheme + "://" + net.JoinHostPort(config.Host, strconv.Itoa(config.Port()))
}

// dialServer creates a connection to the configured server.
func dialServer(config *ConnectionConfig) (*ldap.Conn, error) {
	url := ServerURL(config)
	opts := []ldap.DialOpt{
		ldap.DialWithDialer(&net.Dialer{Timeout: config.Timeout}),
	}
	if config.UseSSL {
		opts = append(opts, ldap.DialWithTLSConfig(config.TLSConfig))
	}

	conn, err := ldap.DialURL(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	conn.SetTimeout(config.Timeout)
	return conn, nil
}

// Bind authenticates with the directory, dialing first when no usable
// connection is held.
func (c *client) Bind(ctx context.Context, username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields := map[string]any{
		"username":       username,
		"anonymous_bind": username == "",
	}

	return LogOperation(ctx, "ldap", "bind", fields, func() error {
		conn, err := c.connection(ctx)
		if err != nil {
			return err
		}

		if password == "" {
			tflog.SubsystemDebug(ctx, "ldap", "Performing unauthenticated bind", fields)
			err = conn.UnauthenticatedBind(username)
		} else {
			tflog.SubsystemDebug(ctx, "ldap", "Performing simple bind", fields)
			err = conn.Bind(username, password)
		}

		if err != nil {
			LogLDAPError(ctx, "ldap", "bind", err, fields)
			if isConnectionLost(err) {
				c.dropConnection()
			}
			return c.operationError("bind", err)
		}

		return nil
	})
}

// Search performs a subtree or scoped search. Results are streamed from the
// server as the returned sequence is consumed.
func (c *client) Search(ctx context.Context, req *SearchRequest) (Entries, error) {
	if req == nil {
		tflog.SubsystemError(ctx, "ldap", "Search request cannot be nil")
		return nil, fmt.Errorf("search request cannot be nil")
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil || conn.IsClosing() {
		return nil, NewConnectionError("search failed", true, errors.New("connection is not bound"))
	}

	searchFields := map[string]any{
		"base_dn":    req.BaseDN,
		"scope":      req.Scope.String(),
		"filter":     req.Filter,
		"attributes": req.Attributes,
		"size_limit": req.SizeLimit,
		"time_limit": req.TimeLimit.String(),
	}

	ldapReq := ldap.NewSearchRequest(
		req.BaseDN,
		int(req.Scope),
		int(req.DerefAliases),
		req.SizeLimit,
		int(req.TimeLimit.Seconds()),
		false, // TypesOnly
		req.Filter,
		req.Attributes,
		nil, // Controls
	)

	return func(yield func(*ldap.Entry, error) bool) {
		searchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		start := time.Now()
		tflog.SubsystemDebug(ctx, "ldap", "Starting search operation", searchFields)

		found := 0
		resp := conn.SearchAsync(searchCtx, ldapReq, 0)
		for resp.Next() {
			entry := resp.Entry()
			if entry == nil {
				// referral or trailing controls
				continue
			}
			found++
			if !yield(entry, nil) {
				return
			}
		}

		searchFields["duration_ms"] = time.Since(start).Milliseconds()
		if err := resp.Err(); err != nil {
			LogLDAPError(ctx, "ldap", "search", err, searchFields)
			yield(nil, c.operationError("search", err))
			return
		}

		searchFields["entries_found"] = found
		tflog.SubsystemDebug(ctx, "ldap", "Search operation completed successfully", searchFields)
	}, nil
}

// Close closes the held connection, if any.
func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dropConnection()
	return nil
}

// connection returns the held connection, dialing a new one with retry when
// none is held or the held one is closing. Callers hold c.mu.
func (c *client) connection(ctx context.Context) (*ldap.Conn, error) {
	if c.conn != nil && !c.conn.IsClosing() {
		LogConnectionEvent(ctx, "connection_reused", map[string]any{"host": c.config.Host})
		return c.conn, nil
	}

	c.dropConnection()

	var conn *ldap.Conn
	err := c.withRetry(ctx, func() error {
		LogConnectionEvent(ctx, "connection_attempt", map[string]any{"url": ServerURL(c.config)})
		var dialErr error
		conn, dialErr = c.dial(c.config)
		return dialErr
	})
	if err != nil {
		LogConnectionEvent(ctx, "connection_failed", map[string]any{
			"url":   ServerURL(c.config),
			"error": err.Error(),
		})
		return nil, NewConnectionError("failed to connect", true, err)
	}

	LogConnectionEvent(ctx, "connection_established", map[string]any{"url": ServerURL(c.config)})
	c.conn = conn
	return conn, nil
}

// dropConnection closes and forgets the held connection. Callers hold c.mu.
func (c *client) dropConnection() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// withRetry executes an operation with retry logic.
func (c *client) withRetry(ctx context.Context, operation func() error) error {
	var lastErr error
	backoff := c.config.InitialBackoff

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if attempt > 0 {
			tflog.SubsystemDebug(ctx, "ldap", "Retrying operation", map[string]any{
				"attempt":    attempt,
				"max_retry":  c.config.MaxRetries,
				"backoff_ms": backoff.Milliseconds(),
				"last_error": lastErr.Error(),
			})
		}

		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		if !c.isRetryableError(err) {
			tflog.SubsystemDebug(ctx, "ldap", "Non-retryable error encountered", map[string]any{
				"error":   err.Error(),
				"attempt": attempt + 1,
			})
			return err
		}

		// Don't wait after the last attempt
		if attempt == c.config.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			tflog.SubsystemWarn(ctx, "ldap", "Operation cancelled during retry", map[string]any{
				"context_error": ctx.Err().Error(),
				"attempt":       attempt + 1,
			})
			return ctx.Err()
		case <-time.After(backoff):
			backoff = min(time.Duration(float64(backoff)*c.config.BackoffFactor), c.config.MaxBackoff)
		}
	}

	tflog.SubsystemError(ctx, "ldap", "Operation failed after all retries exhausted", map[string]any{
		"total_attempts": c.config.MaxRetries + 1,
		"final_error":    lastErr.Error(),
	})

	return lastErr
}

// operationError wraps a failed bind or search so that both the result code
// category and the retry decision survive errors.As.
func (c *client) operationError(operation string, err error) error {
	return NewConnectionError(operation+" failed", c.isRetryableError(err), NewLDAPError(operation, err))
}

// isRetryableError determines if an error should be retried.
func (c *client) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var retryable RetryableError
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	if ldap.IsErrorWithCode(err, ldap.LDAPResultBusy) ||
		ldap.IsErrorWithCode(err, ldap.LDAPResultUnavailable) ||
		ldap.IsErrorWithCode(err, ldap.LDAPResultServerDown) ||
		ldap.IsErrorWithCode(err, ldap.ErrorNetwork) {
		return true
	}

	return isConnectionLost(err)
}

// isConnectionLost reports whether err means the connection is unusable.
func isConnectionLost(err error) bool {
	if ldap.IsErrorWithCode(err, ldap.ErrorNetwork) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "broken pipe")
}

// validateConfig validates the connection configuration.
func validateConfig(config *ConnectionConfig) error {
	if config.Host == "" {
		return errors.New("host must be specified")
	}

	if config.Port() <= 0 || config.Port() > 65535 {
		return fmt.Errorf("port %d out of range", config.Port())
	}

	if config.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	if config.MaxRetries < 0 {
		return errors.New("MaxRetries cannot be negative")
	}

	if config.MaxRetries > 0 && config.BackoffFactor <= 1.0 {
		return errors.New("BackoffFactor must be greater than 1.0")
	}

	return nil
}
