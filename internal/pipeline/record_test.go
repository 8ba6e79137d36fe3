package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParseFieldRef(t *testing.T) {
	tests := []struct {
		ref  string
		want []string
	}{
		{"user", []string{"user"}},
		{"[user]", []string{"user"}},
		{"[process][uid]", []string{"process", "uid"}},
		{" [a][b][c] ", []string{"a", "b", "c"}},
		{"[unterminated", []string{"[unterminated"}},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseFieldRef(tt.ref)); diff != "" {
				t.Errorf("ParseFieldRef() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecord_GetSet(t *testing.T) {
	rec := Record{
		"message": "login",
		"process": map[string]any{"uid": "25377"},
	}

	v, ok := rec.Get("[process][uid]")
	assert.True(t, ok)
	assert.Equal(t, "25377", v)

	_, ok = rec.Get("[process][gid]")
	assert.False(t, ok)

	_, ok = rec.Get("[message][uid]")
	assert.False(t, ok, "scalar values have no children")

	rec.Set("[identity][user]", "John DOE")
	rec.Set("group", "nobody")
	rec.Set("[message][text]", "replaced")

	want := Record{
		"message":  map[string]any{"text": "replaced"},
		"process":  map[string]any{"uid": "25377"},
		"identity": map[string]any{"user": "John DOE"},
		"group":    "nobody",
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestRecord_AppendTag(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want any
	}{
		{
			name: "creates tags",
			rec:  Record{},
			want: []any{"LDAP_OK"},
		},
		{
			name: "appends to existing list",
			rec:  Record{"tags": []any{"syslog"}},
			want: []any{"syslog", "LDAP_OK"},
		},
		{
			name: "appends to string list",
			rec:  Record{"tags": []string{"syslog"}},
			want: []any{"syslog", "LDAP_OK"},
		},
		{
			name: "promotes scalar",
			rec:  Record{"tags": "syslog"},
			want: []any{"syslog", "LDAP_OK"},
		},
		{
			name: "replaces null",
			rec:  Record{"tags": nil},
			want: []any{"LDAP_OK"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.rec.AppendTag(DefaultTagsField, "LDAP_OK")
			if diff := cmp.Diff(tt.want, tt.rec[DefaultTagsField]); diff != "" {
				t.Errorf("tags mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
