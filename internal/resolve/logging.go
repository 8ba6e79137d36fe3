package resolve

import (
	"context"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Subsystem is the tflog subsystem used for lookups and cache traffic.
const Subsystem = "resolver"

// LogLevelEnvVar controls the level of the resolver subsystem.
const LogLevelEnvVar = "LDAPRESOLVE_LOG_RESOLVER"

// WithLogging registers the resolver subsystem on ctx.
func WithLogging(ctx context.Context) context.Context {
	return tflog.NewSubsystem(ctx, Subsystem, tflog.WithLevelFromEnv(LogLevelEnvVar))
}
