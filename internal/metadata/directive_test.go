package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBase(t *testing.T) {
	tests := []struct {
		name    string
		content string
		path    string
		module  string
		found   bool
	}{
		{"simple", "/my/app=myModule", "/my/app", "myModule", true},
		{"last equals wins", "/a=b/c=mod", "/a=b/c", "mod", true},
		{"empty path", "=mod", "", "mod", true},
		{"no equals", "/my/app", "", "", false},
		{"empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, module, found := ParseBase(tt.content)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.module, module)
		})
	}
}

func TestParseProperty(t *testing.T) {
	name, value := ParseProperty("locale=fr")
	assert.Equal(t, "locale", name)
	assert.Equal(t, "fr", value)

	name, value = ParseProperty("expr=a=b")
	assert.Equal(t, "expr", name)
	assert.Equal(t, "a=b", value, "split on first '='")

	name, value = ParseProperty("locale")
	assert.Equal(t, "locale", name)
	assert.Empty(t, value)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  Directive
		ok    bool
	}{
		{
			name:  "property",
			entry: Entry{NameProperty, "locale=fr"},
			want:  Directive{Kind: KindProperty, Key: "locale", Value: "fr"},
			ok:    true,
		},
		{
			name:  "property empty content skipped",
			entry: Entry{NameProperty, ""},
		},
		{
			name:  "base",
			entry: Entry{NameBase, "/static=app"},
			want:  Directive{Kind: KindBase, Key: "app", Value: "/static"},
			ok:    true,
		},
		{
			name:  "base without equals skipped",
			entry: Entry{NameBase, "/static"},
		},
		{
			name:  "property error handler",
			entry: Entry{NamePropertyErrorFn, " app.onBadProperty "},
			want:  Directive{Kind: KindPropertyErrorFn, Value: "app.onBadProperty"},
			ok:    true,
		},
		{
			name:  "load error handler",
			entry: Entry{NameLoadErrorFn, "onLoadError"},
			want:  Directive{Kind: KindLoadErrorFn, Value: "onLoadError"},
			ok:    true,
		},
		{
			name:  "unrelated meta",
			entry: Entry{"viewport", "width=device-width"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok, err := Parse(tt.entry)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestParse_MalformedHandler(t *testing.T) {
	for _, content := range []string{"function() {}", "1abc", "a..b", "alert('x')"} {
		_, ok, err := Parse(Entry{NameLoadErrorFn, content})
		assert.False(t, ok)
		require.Error(t, err, content)
		assert.ErrorIs(t, err, ErrHandlerSyntax)

		var de *DirectiveError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, content, de.Content)
		assert.Equal(t, NameLoadErrorFn, de.Name)
	}
}
