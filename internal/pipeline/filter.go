package pipeline

import (
	"context"
	"errors"

	"github.com/isometry/terraform-provider-ldapresolve/internal/resolve"
)

// Default target fields.
const (
	DefaultLoginField = "login"
	DefaultUserField  = "user"
	DefaultGroupField = "group"
)

// Resolver resolves an identifier to an identity.
type Resolver interface {
	Resolve(ctx context.Context, identifier string) resolve.Result
}

// FilterConfig configures where a Filter reads the identifier and writes
// the identity.
type FilterConfig struct {
	// UIDNumber is the identifier template, e.g. "%{[process][uid]}".
	UIDNumber string

	LoginField string
	UserField  string
	GroupField string
	TagsField  string
}

// Filter enriches records with the identity of their uid.
type Filter struct {
	resolver Resolver
	template Template
	config   FilterConfig
}

// NewFilter creates a Filter. Empty target fields use the defaults.
func NewFilter(resolver Resolver, config FilterConfig) (*Filter, error) {
	if resolver == nil {
		return nil, errors.New("resolver must be provided")
	}
	if config.UIDNumber == "" {
		return nil, errors.New("uid_number must be specified")
	}

	if config.LoginField == "" {
		config.LoginField = DefaultLoginField
	}
	if config.UserField == "" {
		config.UserField = DefaultUserField
	}
	if config.GroupField == "" {
		config.GroupField = DefaultGroupField
	}
	if config.TagsField == "" {
		config.TagsField = DefaultTagsField
	}

	return &Filter{
		resolver: resolver,
		template: NewTemplate(config.UIDNumber),
		config:   config,
	}, nil
}

// Identifier renders the identifier of rec.
func (f *Filter) Identifier(rec Record) string {
	return f.template.Render(rec)
}

// Apply resolves the identifier of rec and writes the login, user and group
// fields and the status tag.
func (f *Filter) Apply(ctx context.Context, rec Record) resolve.Result {
	res := f.resolver.Resolve(ctx, f.Identifier(rec))

	rec.Set(f.config.UserField, res.User)
	rec.Set(f.config.GroupField, res.Group)
	rec.Set(f.config.LoginField, res.Login)
	rec.AppendTag(f.config.TagsField, res.Status.Tag())

	return res
}
