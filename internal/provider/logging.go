package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-ldapresolve/internal/ldap"
	"github.com/isometry/terraform-provider-ldapresolve/internal/resolve"
)

// initializeLogging initializes the provider, ldap and resolver subsystems.
// This should be called at the beginning of each data source Read method.
func initializeLogging(ctx context.Context) context.Context {
	// Pattern: TF_LOG_PROVIDER_LDAPRESOLVE_<SUBSYSTEM>
	ctx = tflog.NewSubsystem(ctx, "provider",
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_LDAPRESOLVE_PROVIDER"))
	ctx = tflog.NewSubsystem(ctx, ldapclient.Subsystem,
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_LDAPRESOLVE_LDAP"))
	ctx = tflog.SubsystemMaskFieldValuesWithFieldKeys(ctx, ldapclient.Subsystem, "password")
	return tflog.NewSubsystem(ctx, resolve.Subsystem,
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_LDAPRESOLVE_RESOLVER"))
}
