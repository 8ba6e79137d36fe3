package ldap

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ValidateDNSyntax validates that a string is a properly formatted Distinguished Name.
func ValidateDNSyntax(dn string) error {
	if dn == "" {
		return fmt.Errorf("DN cannot be empty")
	}

	_, err := ldap.ParseDN(dn)
	if err != nil {
		return fmt.Errorf("invalid DN syntax: %w", err)
	}

	return nil
}

// FirstRDNValue returns the value of the first attribute of the first RDN.
// For example, "cn=nobody,ou=groups,dc=example,dc=com" returns "nobody".
// Escapes are decoded and only the first attribute of a multi-valued RDN is
// used, so `cn=Doe\, John,...` gives "Doe, John" and "cn=ops+gidNumber=500,..."
// gives "ops".
//
// DNs that go-ldap cannot parse fall back to a literal split: the text before
// the first comma, then the text between the first and second equals sign.
// A component without an equals sign yields the empty string.
func FirstRDNValue(dn string) string {
	if dn == "" {
		return ""
	}

	parsedDN, err := ldap.ParseDN(dn)
	if err == nil {
		if len(parsedDN.RDNs) == 0 || len(parsedDN.RDNs[0].Attributes) == 0 {
			return ""
		}
		return parsedDN.RDNs[0].Attributes[0].Value
	}

	first, _, _ := strings.Cut(dn, ",")
	parts := strings.Split(first, "=")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
