package provider

import (
	"context"
	"fmt"

	ldapclient "github.com/isometry/terraform-provider-ldapresolve/internal/ldap"
	"github.com/isometry/terraform-provider-ldapresolve/internal/resolve"
)

// IdentityResolver resolves a uid number to an identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, identifier string) resolve.Result
}

// ProviderData wraps the directory client and the resolver built on it for use by data sources.
type ProviderData struct {
	Client   ldapclient.DirectoryClient
	Resolver IdentityResolver
}

// NewProviderData creates a new provider data wrapper.
func NewProviderData(client ldapclient.DirectoryClient, resolver IdentityResolver) *ProviderData {
	return &ProviderData{
		Client:   client,
		Resolver: resolver,
	}
}

// Validate ensures the resolver is available.
func (pd *ProviderData) Validate() error {
	if pd == nil || pd.Resolver == nil {
		return fmt.Errorf("resolver is not initialized")
	}
	return nil
}
