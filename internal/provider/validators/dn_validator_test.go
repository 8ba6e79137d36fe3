package validators_test

import (
	"strings"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/isometry/terraform-provider-ldapresolve/internal/provider/validators"
)

func TestDNValidator(t *testing.T) {
	t.Parallel()

	type testCase struct {
		val         types.String
		expectError bool
		detail      string
	}

	testCases := map[string]testCase{
		"people base": {
			val: types.StringValue("ou=People,dc=example,dc=com"),
		},
		"groups base": {
			val: types.StringValue("ou=groups,dc=example,dc=com"),
		},
		"escaped comma": {
			val: types.StringValue("ou=Unix\\, Linux,dc=example,dc=com"),
		},
		"empty": {
			val:         types.StringValue(""),
			expectError: true,
			detail:      "The value \"\" is not a valid Distinguished Name format:",
		},
		"no attribute type": {
			val:         types.StringValue("people"),
			expectError: true,
			detail:      "The value \"people\" is not a valid Distinguished Name format:",
		},
		"missing attribute type": {
			val:         types.StringValue("=People,dc=example,dc=com"),
			expectError: true,
			detail:      "The value \"=People,dc=example,dc=com\" is not a valid Distinguished Name format:",
		},
		"null value": {
			val: types.StringNull(),
		},
		"unknown value": {
			val: types.StringUnknown(),
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			request := validator.StringRequest{
				Path:        path.Root("user_dn"),
				ConfigValue: test.val,
			}
			response := validator.StringResponse{}

			validators.IsValidDN().ValidateString(t.Context(), request, &response)

			if !response.Diagnostics.HasError() && test.expectError {
				t.Fatal("expected error, got no error")
			}

			if response.Diagnostics.HasError() && !test.expectError {
				t.Fatalf("got unexpected error: %s", response.Diagnostics)
			}

			if test.expectError {
				if len(response.Diagnostics) != 1 {
					t.Fatalf("expected exactly 1 error, got %d", len(response.Diagnostics))
				}

				err := response.Diagnostics[0]
				if err.Summary() != "Invalid Distinguished Name" {
					t.Errorf("unexpected summary %q", err.Summary())
				}
				if !strings.HasPrefix(err.Detail(), test.detail) {
					t.Errorf("expected detail to start with %q, got %q", test.detail, err.Detail())
				}
			}
		})
	}
}

func TestDNValidatorDescription(t *testing.T) {
	v := validators.IsValidDN()

	expected := "value must be a valid Distinguished Name (DN)"
	if v.Description(t.Context()) != expected {
		t.Errorf("expected description %q, got %q", expected, v.Description(t.Context()))
	}
	if v.MarkdownDescription(t.Context()) != expected {
		t.Errorf("expected markdown description %q, got %q", expected, v.MarkdownDescription(t.Context()))
	}
}
