package provider

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework-validators/listvalidator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-ldapresolve/internal/config"
	ldapclient "github.com/isometry/terraform-provider-ldapresolve/internal/ldap"
	"github.com/isometry/terraform-provider-ldapresolve/internal/provider/validators"
)

// Ensure LDAPResolveProvider satisfies various provider interfaces.
var _ provider.Provider = &LDAPResolveProvider{}

// LDAPResolveProvider defines the provider implementation.
type LDAPResolveProvider struct {
	// version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	version string
}

// LDAPResolveProviderModel describes the provider data model.
type LDAPResolveProviderModel struct {
	// Connection settings
	Host           types.String `tfsdk:"host"`
	LDAPPort       types.Int64  `tfsdk:"ldap_port"`
	LDAPSPort      types.Int64  `tfsdk:"ldaps_port"`
	UseSSL         types.Bool   `tfsdk:"use_ssl"`
	SkipTLSVerify  types.Bool   `tfsdk:"skip_tls_verify"`
	ConnectTimeout types.Int64  `tfsdk:"connect_timeout"`
	MaxRetries     types.Int64  `tfsdk:"max_retries"`

	// Authentication settings
	Username types.String `tfsdk:"username"`
	Password types.String `tfsdk:"password"`

	// Directory layout
	UserDN          types.String `tfsdk:"user_dn"`
	GroupDN         types.String `tfsdk:"group_dn"`
	UserAttributes  types.List   `tfsdk:"user_attributes"`
	GroupAttributes types.List   `tfsdk:"group_attributes"`

	// Cache settings
	UseCache        types.Bool  `tfsdk:"use_cache"`
	CacheInterval   types.Int64 `tfsdk:"cache_interval"`
	CacheMaxEntries types.Int64 `tfsdk:"cache_max_entries"`
}

func (p *LDAPResolveProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "ldapresolve"
	resp.Version = p.version
}

func (p *LDAPResolveProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "The ldapresolve provider resolves numeric POSIX user identifiers to a login, a display name " +
			"and a primary group name by querying an LDAP directory. Results are cached per provider configuration.",
		Attributes: map[string]schema.Attribute{
			// Connection settings
			"host": schema.StringAttribute{
				MarkdownDescription: "LDAP server host name or address. " +
					"Can be set via the `LDAPRESOLVE_HOST` environment variable.",
				Optional: true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"ldap_port": schema.Int64Attribute{
				MarkdownDescription: "Port used for plain LDAP connections. Defaults to `389`. " +
					"Can be set via the `LDAPRESOLVE_LDAP_PORT` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.Between(1, 65535),
				},
			},
			"ldaps_port": schema.Int64Attribute{
				MarkdownDescription: "Port used for LDAPS connections. Defaults to `636`. " +
					"Can be set via the `LDAPRESOLVE_LDAPS_PORT` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.Between(1, 65535),
				},
			},
			"use_ssl": schema.BoolAttribute{
				MarkdownDescription: "Connect with LDAPS on `ldaps_port` instead of plain LDAP. Defaults to `false`. " +
					"Can be set via the `LDAPRESOLVE_USE_SSL` environment variable.",
				Optional: true,
			},
			"skip_tls_verify": schema.BoolAttribute{
				MarkdownDescription: "Skip TLS certificate verification. Not recommended for production. Defaults to `false`. " +
					"Can be set via the `LDAPRESOLVE_SKIP_TLS_VERIFY` environment variable.",
				Optional: true,
			},
			"connect_timeout": schema.Int64Attribute{
				MarkdownDescription: "Connection and search timeout in seconds. Defaults to `30`. " +
					"Can be set via the `LDAPRESOLVE_CONNECT_TIMEOUT` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.AtLeast(1),
				},
			},
			"max_retries": schema.Int64Attribute{
				MarkdownDescription: "Maximum number of retries when dialing the server. Defaults to `2`. " +
					"Can be set via the `LDAPRESOLVE_MAX_RETRIES` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.Between(0, 10),
				},
			},

			// Authentication settings
			"username": schema.StringAttribute{
				MarkdownDescription: "Bind DN. An empty value binds anonymously. " +
					"Can be set via the `LDAPRESOLVE_USERNAME` environment variable.",
				Optional: true,
			},
			"password": schema.StringAttribute{
				MarkdownDescription: "Bind password. " +
					"Can be set via the `LDAPRESOLVE_PASSWORD` environment variable.",
				Optional:  true,
				Sensitive: true,
			},

			// Directory layout
			"user_dn": schema.StringAttribute{
				MarkdownDescription: "Search base for `posixAccount` entries (e.g., `ou=People,dc=example,dc=com`). " +
					"Can be set via the `LDAPRESOLVE_USER_DN` environment variable.",
				Optional: true,
				Validators: []validator.String{
					validators.IsValidDN(),
				},
			},
			"group_dn": schema.StringAttribute{
				MarkdownDescription: "Search base for `posixGroup` entries (e.g., `ou=groups,dc=example,dc=com`). " +
					"Can be set via the `LDAPRESOLVE_GROUP_DN` environment variable.",
				Optional: true,
				Validators: []validator.String{
					validators.IsValidDN(),
				},
			},
			"user_attributes": schema.ListAttribute{
				MarkdownDescription: "Attributes requested for account entries. " +
					"Defaults to `[\"uid\", \"gidNumber\", \"givenName\", \"sn\"]`.",
				ElementType: types.StringType,
				Optional:    true,
				Validators: []validator.List{
					listvalidator.SizeAtLeast(1),
					listvalidator.ValueStringsAre(stringvalidator.LengthAtLeast(1)),
				},
			},
			"group_attributes": schema.ListAttribute{
				MarkdownDescription: "Attributes requested for group entries. Defaults to `[\"dn\"]`.",
				ElementType:         types.StringType,
				Optional:            true,
				Validators: []validator.List{
					listvalidator.SizeAtLeast(1),
					listvalidator.ValueStringsAre(stringvalidator.LengthAtLeast(1)),
				},
			},

			// Cache settings
			"use_cache": schema.BoolAttribute{
				MarkdownDescription: "Serve repeated identifiers from the cache while entries are fresh. Defaults to `true`. " +
					"Can be set via the `LDAPRESOLVE_USE_CACHE` environment variable.",
				Optional: true,
			},
			"cache_interval": schema.Int64Attribute{
				MarkdownDescription: "Cache entry validity in seconds. Defaults to `300`. " +
					"Can be set via the `LDAPRESOLVE_CACHE_INTERVAL` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.AtLeast(0),
				},
			},
			"cache_max_entries": schema.Int64Attribute{
				MarkdownDescription: "Upper bound on cached identifiers, evicting the least recently used. " +
					"`0` keeps every identifier. Defaults to `0`. " +
					"Can be set via the `LDAPRESOLVE_CACHE_MAX_ENTRIES` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.AtLeast(0),
				},
			},
		},
	}
}

func (p *LDAPResolveProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var data LDAPResolveProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	ctx = p.configureLogging(ctx)

	tflog.Info(ctx, "Configuring ldapresolve provider", map[string]any{
		"version": p.version,
	})

	cfg := p.buildConfig(ctx, &data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	// The client dials on first use, so an unreachable server surfaces as
	// LDAP_ERR data rather than a provider error.
	start := time.Now()
	client, err := ldapclient.NewClient(ctx, cfg.ConnectionConfig())
	if err != nil {
		tflog.Error(ctx, "Failed to create LDAP client", map[string]any{
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		resp.Diagnostics.AddError(
			"Unable to Create LDAP Client",
			"An unexpected error occurred when creating the LDAP client. "+
				"If the error is not clear, please contact the provider developers.\n\n"+
				"LDAP Client Error: "+err.Error(),
		)
		return
	}

	resolver, err := cfg.NewResolver(client)
	if err != nil {
		_ = client.Close()
		resp.Diagnostics.AddError(
			"Unable to Create Resolver",
			"The provider could not create the identity cache.\n\n"+
				"Resolver Error: "+err.Error(),
		)
		return
	}

	tflog.Info(ctx, "ldapresolve provider configured successfully", map[string]any{
		"server":            ldapclient.ServerURL(cfg.ConnectionConfig()),
		"use_cache":         cfg.UseCache,
		"cache_interval":    cfg.CacheInterval,
		"cache_max_entries": cfg.CacheMaxEntries,
	})

	providerData := NewProviderData(client, resolver)

	resp.DataSourceData = providerData
}

// configureLogging sets up logging configuration based on environment variables.
func (p *LDAPResolveProvider) configureLogging(ctx context.Context) context.Context {
	ctx = tflog.SetField(ctx, "provider", "ldapresolve")
	ctx = tflog.SetField(ctx, "provider_version", p.version)
	ctx = tflog.MaskFieldValuesWithFieldKeys(ctx, "password")

	tflog.Debug(ctx, "ldapresolve provider logging configured")

	return ctx
}

// buildConfig constructs the resolver configuration from provider config and environment variables.
func (p *LDAPResolveProvider) buildConfig(ctx context.Context, data *LDAPResolveProviderModel, diags *diag.Diagnostics) *config.Config {
	cfg, err := config.Default()
	if err != nil {
		diags.AddError("Unable to Apply Defaults", err.Error())
		return nil
	}

	// Connection settings
	cfg.Host = p.getStringValue(data.Host, "LDAPRESOLVE_HOST")
	if cfg.Host == "" {
		diags.AddAttributeError(
			path.Root("host"),
			"Missing LDAP Host",
			"The provider cannot resolve identities without a directory server. "+
				"Set the 'host' attribute or the LDAPRESOLVE_HOST environment variable.",
		)
	}

	cfg.LDAPPort = int(p.getInt64Value(data.LDAPPort, "LDAPRESOLVE_LDAP_PORT", int64(ldapclient.DefaultLDAPPort)))
	cfg.LDAPSPort = int(p.getInt64Value(data.LDAPSPort, "LDAPRESOLVE_LDAPS_PORT", int64(ldapclient.DefaultLDAPSPort)))
	cfg.UseSSL = p.getBoolValue(data.UseSSL, "LDAPRESOLVE_USE_SSL", false)
	cfg.SkipTLSVerify = p.getBoolValue(data.SkipTLSVerify, "LDAPRESOLVE_SKIP_TLS_VERIFY", false)
	cfg.Timeout = time.Duration(p.getInt64Value(data.ConnectTimeout, "LDAPRESOLVE_CONNECT_TIMEOUT", 30)) * time.Second
	cfg.MaxRetries = int(p.getInt64Value(data.MaxRetries, "LDAPRESOLVE_MAX_RETRIES", 2))

	// Authentication settings
	cfg.Username = p.getStringValue(data.Username, "LDAPRESOLVE_USERNAME")
	cfg.Password = p.getStringValue(data.Password, "LDAPRESOLVE_PASSWORD")

	// Directory layout
	cfg.UserDN = p.getStringValue(data.UserDN, "LDAPRESOLVE_USER_DN")
	cfg.GroupDN = p.getStringValue(data.GroupDN, "LDAPRESOLVE_GROUP_DN")
	p.requireDN(cfg.UserDN, "user_dn", "LDAPRESOLVE_USER_DN", diags)
	p.requireDN(cfg.GroupDN, "group_dn", "LDAPRESOLVE_GROUP_DN", diags)

	if attrs := p.getStringList(ctx, data.UserAttributes, diags); len(attrs) > 0 {
		cfg.UserAttributes = attrs
	}
	if attrs := p.getStringList(ctx, data.GroupAttributes, diags); len(attrs) > 0 {
		cfg.GroupAttributes = attrs
	}

	// Cache settings
	cfg.UseCache = p.getBoolValue(data.UseCache, "LDAPRESOLVE_USE_CACHE", true)
	cfg.CacheInterval = int(p.getInt64Value(data.CacheInterval, "LDAPRESOLVE_CACHE_INTERVAL", 300))
	cfg.CacheMaxEntries = int(p.getInt64Value(data.CacheMaxEntries, "LDAPRESOLVE_CACHE_MAX_ENTRIES", 0))

	return cfg
}

func (p *LDAPResolveProvider) requireDN(dn, attribute, envVar string, diags *diag.Diagnostics) {
	if err := ldapclient.ValidateDNSyntax(dn); err != nil {
		diags.AddAttributeError(
			path.Root(attribute),
			"Invalid Search Base",
			"Set the '"+attribute+"' attribute or the "+envVar+" environment variable to a valid DN: "+err.Error(),
		)
	}
}

// Helper functions for configuration value resolution

func (p *LDAPResolveProvider) getStringValue(configValue types.String, envVar string) string {
	if !configValue.IsNull() && configValue.ValueString() != "" {
		return configValue.ValueString()
	}
	return os.Getenv(envVar)
}

func (p *LDAPResolveProvider) getBoolValue(configValue types.Bool, envVar string, defaultValue bool) bool {
	if !configValue.IsNull() {
		return configValue.ValueBool()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseBool(envValue); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (p *LDAPResolveProvider) getInt64Value(configValue types.Int64, envVar string, defaultValue int64) int64 {
	if !configValue.IsNull() {
		return configValue.ValueInt64()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseInt(envValue, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (p *LDAPResolveProvider) getStringList(ctx context.Context, configValue types.List, diags *diag.Diagnostics) []string {
	if configValue.IsNull() || configValue.IsUnknown() {
		return nil
	}
	var values []string
	diags.Append(configValue.ElementsAs(ctx, &values, false)...)
	return values
}

func (p *LDAPResolveProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{}
}

func (p *LDAPResolveProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewIdentityDataSource,
	}
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &LDAPResolveProvider{
			version: version,
		}
	}
}
