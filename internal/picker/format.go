package picker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/joshp123/pinentry-picker/internal/session"
)

// Format selects how the session state is written to the picker.
type Format string

const (
	// FormatRON is the Rusty Object Notation line anyrun's pinentry plugin reads.
	FormatRON  Format = "ron"
	FormatJSON Format = "json"
	// FormatYAML writes a single flow-style mapping.
	FormatYAML Format = "yaml"
)

var errMultiLine = errors.New("picker config does not fit on one line")

func ParseFormat(value string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(value)))
	switch format {
	case FormatRON, FormatJSON, FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported picker format %q (want ron, json or yaml)", value)
	}
}

// EncodeState renders title and description as one configuration line,
// without its terminator. Unset fields become None/null; set but empty
// fields become empty strings.
func EncodeState(format Format, state session.State) (string, error) {
	var (
		line string
		err  error
	)
	switch format {
	case FormatRON:
		line = encodeRON(state)
	case FormatJSON:
		line, err = encodeJSON(state)
	case FormatYAML:
		line, err = encodeYAML(state)
	default:
		return "", fmt.Errorf("unsupported picker format %q", format)
	}
	if err != nil {
		return "", err
	}
	if strings.ContainsAny(line, "\r\n") {
		return "", errMultiLine
	}
	return line, nil
}

func encodeRON(state session.State) string {
	var builder strings.Builder
	builder.WriteString("(title:")
	writeRONOption(&builder, state.Title)
	builder.WriteString(",description:")
	writeRONOption(&builder, state.Description)
	builder.WriteByte(')')
	return builder.String()
}

func writeRONOption(builder *strings.Builder, value *string) {
	if value == nil {
		builder.WriteString("None")
		return
	}
	builder.WriteString("Some(")
	writeRONString(builder, *value)
	builder.WriteByte(')')
}

func writeRONString(builder *strings.Builder, value string) {
	builder.WriteByte('"')
	for _, r := range value {
		switch r {
		case '"':
			builder.WriteString(`\"`)
		case '\'':
			builder.WriteString(`\'`)
		case '\\':
			builder.WriteString(`\\`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\t':
			builder.WriteString(`\t`)
		case 0:
			builder.WriteString(`\0`)
		default:
			if unicode.IsPrint(r) {
				builder.WriteRune(r)
				continue
			}
			fmt.Fprintf(builder, `\u{%x}`, r)
		}
	}
	builder.WriteByte('"')
}

type jsonConfig struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func encodeJSON(state session.State) (string, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(jsonConfig{Title: state.Title, Description: state.Description}); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buffer.String(), "\n"), nil
}

func encodeYAML(state session.State) (string, error) {
	node := &yaml.Node{
		Kind:  yaml.MappingNode,
		Style: yaml.FlowStyle,
		Content: []*yaml.Node{
			yamlKey("title"), yamlValue(state.Title),
			yamlKey("description"), yamlValue(state.Description),
		},
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

func yamlKey(name string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
}

func yamlValue(value *string) *yaml.Node {
	if value == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: *value}
}
