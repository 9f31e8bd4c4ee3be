package picker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/joshp123/pinentry-picker/internal/session"
)

func TestEncodeRON(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		want  string
	}{
		{name: "empty", state: session.State{}, want: `(title:None,description:None)`},
		{name: "title", state: session.State{Title: text("x")}, want: `(title:Some("x"),description:None)`},
		{name: "set but empty", state: session.State{Description: text("")}, want: `(title:None,description:Some(""))`},
		{
			name:  "escapes",
			state: session.State{Title: text("a\"b\\c"), Description: text("line1\nline2\tend's")},
			want:  `(title:Some("a\"b\\c"),description:Some("line1\nline2\tend\'s"))`,
		},
		{name: "control", state: session.State{Title: text("bell\x07")}, want: `(title:Some("bell\u{7}"),description:None)`},
		{name: "unicode", state: session.State{Title: text("Schlüssel 🔑")}, want: `(title:Some("Schlüssel 🔑"),description:None)`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			line, err := EncodeState(FormatRON, test.state)
			require.NoError(t, err)
			assert.Equal(t, test.want, line)
		})
	}
}

func TestEncodeJSON(t *testing.T) {
	line, err := EncodeState(FormatJSON, session.State{Title: text("<Key & co>"), Description: text("a\nb")})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"<Key & co>","description":"a\nb"}`, line)

	line, err = EncodeState(FormatJSON, session.State{})
	require.NoError(t, err)
	assert.Equal(t, `{"title":null,"description":null}`, line)
}

func TestEncodeYAML(t *testing.T) {
	line, err := EncodeState(FormatYAML, session.State{Title: text("Unlock: key"), Description: text("two\nlines")})
	require.NoError(t, err)
	assert.NotContains(t, line, "\n")
	assert.True(t, strings.HasPrefix(line, "{"), line)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(line), &decoded))
	assert.Equal(t, map[string]any{"title": "Unlock: key", "description": "two\nlines"}, decoded)
}

func TestEncodeYAMLNullFields(t *testing.T) {
	line, err := EncodeState(FormatYAML, session.State{Title: text("")})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(line), &decoded))
	assert.Equal(t, map[string]any{"title": "", "description": nil}, decoded)
}

func TestEncodeStateRejectsUnknownFormat(t *testing.T) {
	_, err := EncodeState(Format("toml"), session.State{})
	assert.ErrorContains(t, err, "unsupported picker format")
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]Format{"ron": FormatRON, " JSON ": FormatJSON, "yaml": FormatYAML} {
		format, err := ParseFormat(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, format)
	}

	_, err := ParseFormat("")
	assert.Error(t, err)
}
