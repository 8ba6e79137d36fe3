package resolve

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-ldapresolve/internal/ldap"
)

// Result is the outcome of resolving one identifier.
type Result struct {
	Login  string
	User   string
	Group  string
	Status Status
	Err    error
}

// QueryConfig describes the directory layout and credentials used by the
// Executor. Empty attribute and object class names fall back to the POSIX
// defaults.
type QueryConfig struct {
	Username string
	Password string

	UserDN          string
	GroupDN         string
	UserAttributes  []string
	GroupAttributes []string

	UserObjectClass  string
	GroupObjectClass string
	UIDAttribute     string
	GIDAttribute     string

	SearchTimeLimit time.Duration
}

// DefaultUserAttributes and DefaultGroupAttributes are requested when no
// attribute list is configured.
var (
	DefaultUserAttributes  = []string{AttrUID, AttrGIDNumber, AttrGivenName, AttrSurname}
	DefaultGroupAttributes = []string{"dn"}
)

// Querier resolves an identifier against the directory.
type Querier interface {
	Query(ctx context.Context, identifier string) Result
}

// Executor runs the bind, user search and group search of one resolution.
type Executor struct {
	client ldapclient.DirectoryClient
	config QueryConfig
}

var _ Querier = (*Executor)(nil)

// NewExecutor creates an Executor over client.
func NewExecutor(client ldapclient.DirectoryClient, config QueryConfig) *Executor {
	if config.UserObjectClass == "" {
		config.UserObjectClass = ldapclient.DefaultUserObjectClass
	}
	if config.GroupObjectClass == "" {
		config.GroupObjectClass = ldapclient.DefaultGroupObjectClass
	}
	if config.UIDAttribute == "" {
		config.UIDAttribute = ldapclient.DefaultUIDAttribute
	}
	if config.GIDAttribute == "" {
		config.GIDAttribute = ldapclient.DefaultGIDAttribute
	}
	if len(config.UserAttributes) == 0 {
		config.UserAttributes = DefaultUserAttributes
	}
	if len(config.GroupAttributes) == 0 {
		config.GroupAttributes = DefaultGroupAttributes
	}

	return &Executor{
		client: client,
		config: config,
	}
}

// Query binds, looks up the account matching identifier and then its
// primary group. Fields the directory does not supply keep the Unknown
// placeholder. Any bind or search failure stops the query with StatusError.
func (e *Executor) Query(ctx context.Context, identifier string) Result {
	res := Result{Login: Unknown, User: Unknown, Group: Unknown}

	if err := e.client.Bind(ctx, e.config.Username, e.config.Password); err != nil {
		return e.finish(ctx, identifier, res, pathBindFailed, fmt.Errorf("bind failed: %w", err))
	}

	gid := defaultGID

	users, err := e.client.Search(ctx, e.userSearch(identifier))
	if err != nil {
		return e.finish(ctx, identifier, res, pathSearchFailed, fmt.Errorf("user search failed: %w", err))
	}
	for entry, err := range users {
		if err != nil {
			return e.finish(ctx, identifier, res, pathSearchFailed, fmt.Errorf("user search failed: %w", err))
		}

		fields, err := MapUser(EntryAttributes(entry))
		if err != nil {
			return e.finish(ctx, identifier, res, pathMissingLogin, fmt.Errorf("account %q: %w", entry.DN, err))
		}

		tflog.SubsystemTrace(ctx, Subsystem, "Matched account entry", map[string]any{
			"dn":    entry.DN,
			"login": fields.Login,
			"gid":   fields.GID,
		})

		res.User = fields.User
		res.Login = fields.Login
		gid = fields.GID
	}

	if res.User == Unknown {
		return e.finish(ctx, identifier, res, pathNoUser, nil)
	}

	groups, err := e.client.Search(ctx, e.groupSearch(gid))
	if err != nil {
		return e.finish(ctx, identifier, res, pathSearchFailed, fmt.Errorf("group search failed: %w", err))
	}
	for entry, err := range groups {
		if err != nil {
			return e.finish(ctx, identifier, res, pathSearchFailed, fmt.Errorf("group search failed: %w", err))
		}
		res.Group = GroupName(entry.DN)
	}

	if res.Group == Unknown {
		res.Group = res.User
		return e.finish(ctx, identifier, res, pathNoGroup, nil)
	}

	return e.finish(ctx, identifier, res, pathResolved, nil)
}

func (e *Executor) userSearch(identifier string) *ldapclient.SearchRequest {
	return &ldapclient.SearchRequest{
		BaseDN:     e.config.UserDN,
		Scope:      ldapclient.ScopeWholeSubtree,
		Filter:     ldapclient.EqualityFilter(e.config.UserObjectClass, e.config.UIDAttribute, identifier),
		Attributes: e.config.UserAttributes,
		TimeLimit:  e.config.SearchTimeLimit,
	}
}

func (e *Executor) groupSearch(gid string) *ldapclient.SearchRequest {
	return &ldapclient.SearchRequest{
		BaseDN:     e.config.GroupDN,
		Scope:      ldapclient.ScopeWholeSubtree,
		Filter:     ldapclient.EqualityFilter(e.config.GroupObjectClass, e.config.GIDAttribute, gid),
		Attributes: e.config.GroupAttributes,
		TimeLimit:  e.config.SearchTimeLimit,
	}
}

// finish classifies the path, records err and logs the outcome.
func (e *Executor) finish(ctx context.Context, identifier string, res Result, p path, err error) Result {
	res.Status = classify(p)
	res.Err = err

	fields := map[string]any{
		"identifier": identifier,
		"path":       p.String(),
		"status":     res.Status.String(),
		"login":      res.Login,
		"group":      res.Group,
	}

	if err != nil {
		fields["error"] = err.Error()
		fields["error_category"] = string(ldapclient.GetErrorCategory(err))
		fields["connection_error"] = ldapclient.IsConnectionError(err)
		tflog.SubsystemError(ctx, Subsystem, "Directory query failed", fields)
		return res
	}

	tflog.SubsystemDebug(ctx, Subsystem, "Directory query completed", fields)
	return res
}
