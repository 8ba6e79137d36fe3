package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-ldapresolve/internal/ldap"
	"github.com/isometry/terraform-provider-ldapresolve/internal/resolve"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &IdentityDataSource{}
var _ datasource.DataSourceWithConfigure = &IdentityDataSource{}

func NewIdentityDataSource() datasource.DataSource {
	return &IdentityDataSource{}
}

// IdentityDataSource defines the data source implementation.
type IdentityDataSource struct {
	resolver IdentityResolver
}

// IdentityDataSourceModel describes the data source data model.
type IdentityDataSourceModel struct {
	ID        types.String `tfsdk:"id"`         // Set to uid_number
	UIDNumber types.String `tfsdk:"uid_number"` // Identifier to resolve
	InputTags types.List   `tfsdk:"input_tags"` // Tags carried over into tags
	Login     types.String `tfsdk:"login"`
	User      types.String `tfsdk:"user"`
	Group     types.String `tfsdk:"group"`
	Status    types.String `tfsdk:"status"` // LDAP_OK, LDAP_ERR, LDAP_UNK_USER or LDAP_UNK_GROUP
	Error     types.String `tfsdk:"error"`
	Tags      types.List   `tfsdk:"tags"` // input_tags followed by status
}

func (d *IdentityDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_identity"
}

func (d *IdentityDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Resolves a numeric POSIX user identifier to the account login, the display name and the " +
			"name of the primary group. Lookup failures do not fail the read: they are reported through `status` and `error`.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Unique identifier for this data source (same as uid_number).",
				Computed:            true,
			},
			"uid_number": schema.StringAttribute{
				MarkdownDescription: "The `uidNumber` to resolve (e.g., `25377`).",
				Required:            true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"input_tags": schema.ListAttribute{
				MarkdownDescription: "Tags to which the status tag is appended.",
				ElementType:         types.StringType,
				Optional:            true,
			},
			"login": schema.StringAttribute{
				MarkdownDescription: "The `uid` of the matching account, or `Unknown` when no account matched.",
				Computed:            true,
			},
			"user": schema.StringAttribute{
				MarkdownDescription: "The display name built from `givenName` and `sn`, or `Unknown` when no account matched.",
				Computed:            true,
			},
			"group": schema.StringAttribute{
				MarkdownDescription: "The name of the primary group. Falls back to `user` when no group matched.",
				Computed:            true,
			},
			"status": schema.StringAttribute{
				MarkdownDescription: "The lookup status tag: `LDAP_OK`, `LDAP_ERR`, `LDAP_UNK_USER` or `LDAP_UNK_GROUP`.",
				Computed:            true,
			},
			"error": schema.StringAttribute{
				MarkdownDescription: "The directory error when `status` is `LDAP_ERR`.",
				Computed:            true,
			},
			"tags": schema.ListAttribute{
				MarkdownDescription: "`input_tags` followed by `status`.",
				ElementType:         types.StringType,
				Computed:            true,
			},
		},
	}
}

func (d *IdentityDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	// Prevent panic if the provider has not been configured.
	if req.ProviderData == nil {
		return
	}

	providerData, ok := req.ProviderData.(*ProviderData)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Data Source Configure Type",
			fmt.Sprintf("Expected *provider.ProviderData, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)
		return
	}

	if err := providerData.Validate(); err != nil {
		resp.Diagnostics.AddError(
			"Provider Not Configured",
			"The ldapresolve provider has no resolver: "+err.Error(),
		)
		return
	}

	d.resolver = providerData.Resolver
}

func (d *IdentityDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	ctx = initializeLogging(ctx)

	var data IdentityDataSourceModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	if d.resolver == nil {
		resp.Diagnostics.AddError(
			"Provider Not Configured",
			"The ldapresolve_identity data source requires a configured provider.",
		)
		return
	}

	identifier := data.UIDNumber.ValueString()

	start := time.Now()
	tflog.SubsystemDebug(ctx, "provider", "Starting data source read", map[string]any{
		"data_source": "ldapresolve_identity",
		"uid_number":  identifier,
	})

	result := d.resolver.Resolve(ctx, identifier)
	if ldapclient.IsAuthenticationError(result.Err) {
		resp.Diagnostics.AddWarning(
			"Directory Authentication Failed",
			"The provider could not bind to the directory, so the identity is reported as LDAP_ERR. "+
				"Please verify the 'username' and 'password' settings.\n\n"+
				"Bind Error: "+result.Err.Error(),
		)
	}

	var inputTags []string
	if !data.InputTags.IsNull() && !data.InputTags.IsUnknown() {
		resp.Diagnostics.Append(data.InputTags.ElementsAs(ctx, &inputTags, false)...)
		if resp.Diagnostics.HasError() {
			return
		}
	}

	d.mapResultToModel(ctx, identifier, result, inputTags, &data, resp)
	if resp.Diagnostics.HasError() {
		return
	}

	tflog.SubsystemDebug(ctx, "provider", "Data source read completed", map[string]any{
		"data_source": "ldapresolve_identity",
		"uid_number":  identifier,
		"status":      result.Status.Tag(),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// mapResultToModel maps the resolver result to the Terraform model.
func (d *IdentityDataSource) mapResultToModel(ctx context.Context, identifier string, result resolve.Result, inputTags []string, data *IdentityDataSourceModel, resp *datasource.ReadResponse) {
	data.ID = types.StringValue(identifier)
	data.Login = types.StringValue(result.Login)
	data.User = types.StringValue(result.User)
	data.Group = types.StringValue(result.Group)
	data.Status = types.StringValue(result.Status.Tag())

	if result.Err != nil {
		data.Error = types.StringValue(result.Err.Error())
	} else {
		data.Error = types.StringNull()
	}

	tags := make([]string, 0, len(inputTags)+1)
	tags = append(tags, inputTags...)
	tags = append(tags, result.Status.Tag())

	tagList, diags := types.ListValueFrom(ctx, types.StringType, tags)
	resp.Diagnostics.Append(diags...)
	data.Tags = tagList
}
