package resolve

import (
	"errors"
	"strings"

	"github.com/go-ldap/ldap/v3"

	ldapclient "github.com/isometry/terraform-provider-ldapresolve/internal/ldap"
)

// Unknown is the placeholder for identity fields the directory did not supply.
const Unknown = "Unknown"

// defaultGID is searched for when an account carries no gidNumber.
const defaultGID = "0"

// Attribute names read from POSIX account entries.
const (
	AttrUID       = "uid"
	AttrGIDNumber = "gidNumber"
	AttrGivenName = "givenName"
	AttrSurname   = "sn"
)

// ErrMissingLogin is returned when an account entry has no uid attribute.
var ErrMissingLogin = errors.New("account entry has no uid attribute")

// UserFields are the identity fields derived from one account entry.
type UserFields struct {
	Login string
	User  string
	GID   string
}

// MapUser derives identity fields from the attributes of an account entry.
// Multi-valued attributes are joined with a single space.
func MapUser(attrs map[string][]string) (UserFields, error) {
	givenName, _ := attributeValue(attrs, AttrGivenName)
	surname, ok := attributeValue(attrs, AttrSurname)
	if !ok {
		surname = Unknown
	}

	login, ok := attributeValue(attrs, AttrUID)
	if !ok {
		return UserFields{}, ErrMissingLogin
	}

	gid, ok := attributeValue(attrs, AttrGIDNumber)
	if !ok {
		gid = defaultGID
	}

	return UserFields{
		Login: login,
		User:  strings.TrimSpace(givenName + " " + surname),
		GID:   gid,
	}, nil
}

// GroupName returns the display name of a group entry: the value of the
// first RDN of its DN.
func GroupName(dn string) string {
	return ldapclient.FirstRDNValue(dn)
}

// EntryAttributes flattens a directory entry into a name to values map.
func EntryAttributes(entry *ldap.Entry) map[string][]string {
	attrs := make(map[string][]string, len(entry.Attributes))
	for _, attr := range entry.Attributes {
		attrs[attr.Name] = append(attrs[attr.Name], attr.Values...)
	}
	return attrs
}

// attributeValue returns the joined values of the named attribute. Names
// match exactly first, then case-insensitively.
func attributeValue(attrs map[string][]string, name string) (string, bool) {
	if values, ok := attrs[name]; ok {
		return strings.Join(values, " "), true
	}
	for k, values := range attrs {
		if strings.EqualFold(k, name) {
			return strings.Join(values, " "), true
		}
	}
	return "", false
}
