package pipeline

import (
	"context"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Subsystem is the tflog subsystem used for record processing.
const Subsystem = "pipeline"

// LogLevelEnvVar controls the level of the pipeline subsystem.
const LogLevelEnvVar = "LDAPRESOLVE_LOG_PIPELINE"

// WithLogging registers the pipeline subsystem on ctx.
func WithLogging(ctx context.Context) context.Context {
	return tflog.NewSubsystem(ctx, Subsystem, tflog.WithLevelFromEnv(LogLevelEnvVar))
}
