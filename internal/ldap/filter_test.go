package ldap

import "testing"

func TestEqualityFilter(t *testing.T) {
	tests := []struct {
		name        string
		objectClass string
		attribute   string
		value       string
		want        string
	}{
		{
			name:        "posix account",
			objectClass: DefaultUserObjectClass,
			attribute:   DefaultUIDAttribute,
			value:       "25377",
			want:        "(&(objectClass=posixAccount)(uidNumber=25377))",
		},
		{
			name:        "custom schema",
			objectClass: "inetOrgPerson",
			attribute:   "employeeNumber",
			value:       "42",
			want:        "(&(objectClass=inetOrgPerson)(employeeNumber=42))",
		},
		{
			name:        "posix group",
			objectClass: DefaultGroupObjectClass,
			attribute:   DefaultGIDAttribute,
			value:       "0",
			want:        "(&(objectClass=posixGroup)(gidNumber=0))",
		},
		{
			name:        "value is escaped",
			objectClass: DefaultUserObjectClass,
			attribute:   DefaultUIDAttribute,
			value:       "*)(uid=*",
			want:        `(&(objectClass=posixAccount)(uidNumber=\2a\29\28uid=\2a))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EqualityFilter(tt.objectClass, tt.attribute, tt.value); got != tt.want {
				t.Errorf("EqualityFilter() = %q, want %q", got, tt.want)
			}
		})
	}
}
