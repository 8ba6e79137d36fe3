package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path path
		want Status
	}{
		{pathBindFailed, StatusError},
		{pathSearchFailed, StatusError},
		{pathMissingLogin, StatusError},
		{pathNoUser, StatusUnknownUser},
		{pathNoGroup, StatusUnknownGroup},
		{pathResolved, StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.path))
		})
	}
}

func TestStatus_Tag(t *testing.T) {
	tests := []struct {
		status Status
		tag    string
		name   string
	}{
		{StatusOK, "LDAP_OK", "OK"},
		{StatusError, "LDAP_ERR", "ERROR"},
		{StatusUnknownUser, "LDAP_UNK_USER", "UNKNOWN_USER"},
		{StatusUnknownGroup, "LDAP_UNK_GROUP", "UNKNOWN_GROUP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.tag, tt.status.Tag())
			assert.Equal(t, tt.name, tt.status.String())
		})
	}

	assert.Equal(t, TagError, Status(99).Tag())
	assert.Equal(t, "INVALID", Status(99).String())
}
