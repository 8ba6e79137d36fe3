package resolve

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/mock"

	ldapclient "github.com/isometry/terraform-provider-ldapresolve/internal/ldap"
)

// MockDirectoryClient implements the DirectoryClient interface for testing.
type MockDirectoryClient struct {
	mock.Mock
}

func (m *MockDirectoryClient) Bind(ctx context.Context, username, password string) error {
	args := m.Called(ctx, username, password)
	return args.Error(0)
}

func (m *MockDirectoryClient) Search(ctx context.Context, req *ldapclient.SearchRequest) (ldapclient.Entries, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	entries, ok := args.Get(0).(ldapclient.Entries)
	if !ok {
		return nil, args.Error(1)
	}
	return entries, args.Error(1)
}

func (m *MockDirectoryClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

// countingQuerier records the identifiers it is asked about.
type countingQuerier struct {
	mu     sync.Mutex
	calls  []string
	result func(identifier string) Result
}

func (q *countingQuerier) Query(_ context.Context, identifier string) Result {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, identifier)
	return q.result(identifier)
}

func (q *countingQuerier) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.calls)
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// entriesOf returns a sequence yielding the given entries.
func entriesOf(entries ...*ldap.Entry) ldapclient.Entries {
	return func(yield func(*ldap.Entry, error) bool) {
		for _, entry := range entries {
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// failingEntries yields the given entries and then err.
func failingEntries(err error, entries ...*ldap.Entry) ldapclient.Entries {
	return func(yield func(*ldap.Entry, error) bool) {
		for _, entry := range entries {
			if !yield(entry, nil) {
				return
			}
		}
		yield(nil, err)
	}
}

func accountEntry(dn string, attrs map[string][]string) *ldap.Entry {
	return ldap.NewEntry(dn, attrs)
}

func groupEntry(dn string) *ldap.Entry {
	return ldap.NewEntry(dn, nil)
}

func userSearch(req *ldapclient.SearchRequest) bool {
	return req != nil && strings.Contains(req.Filter, "objectClass=posixAccount")
}

func groupSearch(req *ldapclient.SearchRequest) bool {
	return req != nil && strings.Contains(req.Filter, "objectClass=posixGroup")
}

var errDirectoryDown = errors.New("LDAP Result Code 52 \"Unavailable\"")
