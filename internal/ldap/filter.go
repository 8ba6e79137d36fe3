package ldap

import (
	"fmt"

	"github.com/go-ldap/ldap/v3"
)

// Default object classes and filter attributes of POSIX directory entries.
const (
	DefaultUserObjectClass  = "posixAccount"
	DefaultGroupObjectClass = "posixGroup"
	DefaultUIDAttribute     = "uidNumber"
	DefaultGIDAttribute     = "gidNumber"
)

// EqualityFilter builds (&(objectClass=<objectClass>)(<attribute>=<value>)).
// The value is escaped; objectClass and attribute are taken as configured.
func EqualityFilter(objectClass, attribute, value string) string {
	return fmt.Sprintf("(&(objectClass=%s)(%s=%s))", objectClass, attribute, ldap.EscapeFilter(value))
}
