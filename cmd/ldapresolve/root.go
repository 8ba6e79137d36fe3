package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/hashicorp/terraform-plugin-log/tfsdklog"
	"github.com/spf13/cobra"

	"github.com/isometry/terraform-provider-ldapresolve/internal/config"
	ldapclient "github.com/isometry/terraform-provider-ldapresolve/internal/ldap"
	"github.com/isometry/terraform-provider-ldapresolve/internal/pipeline"
	"github.com/isometry/terraform-provider-ldapresolve/internal/resolve"
)

// EnvLogLevel sets the log level when --log-level is not given.
const EnvLogLevel = "LDAPRESOLVE_LOG"

type options struct {
	configPath string
	input      string
	output     string
	logLevel   string
	uidNumber  string
}

func newRootCommand(version string) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "ldapresolve",
		Short: "Resolve POSIX uid numbers in JSON records through LDAP",
		Long: `ldapresolve reads one JSON object per line, resolves the uid number
named by uid_number against an LDAP directory and writes each record back
with login, user and group fields and an LDAP_OK, LDAP_ERR, LDAP_UNK_USER
or LDAP_UNK_GROUP tag.

Example:
  ldapresolve --config ldapresolve.yaml --uid-number '%{[process][uid]}' < events.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "configuration file (YAML)")
	flags.StringVarP(&opts.input, "input", "i", "", "input file (default stdin)")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error or off (default $"+EnvLogLevel+" or info)")
	flags.StringVar(&opts.uidNumber, "uid-number", "", "identifier template, overrides uid_number from the configuration")

	cmd.AddCommand(newVersionCommand(version))

	return cmd
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ldapresolve %s\n", version)
		},
	}
}

func run(ctx context.Context, opts *options, stdin io.Reader, stdout io.Writer) error {
	ctx, err := newLogger(ctx, opts.logLevel)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.uidNumber != "" {
		cfg.UIDNumber = opts.uidNumber
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	client, err := ldapclient.NewClient(ctx, cfg.ConnectionConfig())
	if err != nil {
		return err
	}
	defer client.Close()

	resolver, err := cfg.NewResolver(client)
	if err != nil {
		return err
	}

	filter, err := pipeline.NewFilter(resolver, cfg.FilterConfig())
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(opts.input, stdin)
	if err != nil {
		return err
	}
	defer closeIn()

	out, closeOut, err := openOutput(opts.output, stdout)
	if err != nil {
		return err
	}

	enriched, runErr := pipeline.NewStream(filter).Run(ctx, in, out)
	if err := closeOut(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to close output: %w", err)
	}

	stats := resolver.Stats()
	tflog.Info(ctx, "Resolution finished", map[string]any{
		"records":        enriched,
		"cache_hits":     stats.Hits,
		"cache_misses":   stats.Misses,
		"cache_stale":    stats.Stale,
		"cache_entries":  stats.Entries,
		"cache_hit_rate": stats.HitRate(),
	})

	return runErr
}

// newLogger installs a stderr root logger and the subsystems of every
// package on ctx.
func newLogger(ctx context.Context, level string) (context.Context, error) {
	if level == "" {
		level = os.Getenv(EnvLogLevel)
	}
	if level == "" {
		level = "info"
	}

	hclogLevel := hclog.LevelFromString(level)
	if hclogLevel == hclog.NoLevel {
		return ctx, fmt.Errorf("invalid log level %q", level)
	}

	ctx = tfsdklog.NewRootProviderLogger(ctx,
		tfsdklog.WithLogName("ldapresolve"),
		tfsdklog.WithLevel(hclogLevel),
		tfsdklog.WithStderrFromInit(),
		tfsdklog.WithoutLocation(),
	)
	ctx = tflog.MaskFieldValuesWithFieldKeys(ctx, "password")
	ctx = ldapclient.WithLogging(ctx)
	ctx = resolve.WithLogging(ctx)
	return pipeline.WithLogging(ctx), nil
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, f.Close, nil
}
