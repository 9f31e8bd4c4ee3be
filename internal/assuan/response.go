package assuan

import (
	"bufio"
	"io"
	"strings"
)

// ResponseKind tags the closed set of lines a pinentry writes.
type ResponseKind int

const (
	ResponseAcknowledged ResponseKind = iota
	ResponseError
	ResponseComment
	ResponseFarewell
	ResponseData
	ResponseOption
)

// Response is one server line. Text left empty means the optional
// argument is absent, so "OK" never carries a trailing space.
type Response struct {
	Kind     ResponseKind
	Code     ErrorCode
	Text     string
	Name     string
	Value    string
	HasValue bool
}

func Acknowledged(text string) Response {
	return Response{Kind: ResponseAcknowledged, Text: text}
}

func Failure(code ErrorCode, message string) Response {
	return Response{Kind: ResponseError, Code: code, Text: message}
}

func CommentLine(text string) Response {
	return Response{Kind: ResponseComment, Text: text}
}

func Farewell(text string) Response {
	return Response{Kind: ResponseFarewell, Text: text}
}

func DataLine(text string) Response {
	return Response{Kind: ResponseData, Text: text}
}

func OptionEcho(name string, value string, hasValue bool) Response {
	return Response{Kind: ResponseOption, Name: name, Value: value, HasValue: hasValue}
}

// Encode renders the response without its line terminator.
func (response Response) Encode() string {
	switch response.Kind {
	case ResponseAcknowledged:
		return withArgument("OK", singleLine(response.Text))
	case ResponseError:
		return "ERR " + response.Code.String() + " " + singleLine(response.Text)
	case ResponseComment:
		return withArgument("#", singleLine(response.Text))
	case ResponseFarewell:
		return withArgument("BYE", singleLine(response.Text))
	case ResponseData:
		// Escaped so a secret holding %, CR or LF still decodes to itself.
		return "D " + EscapeData(response.Text)
	case ResponseOption:
		if response.HasValue {
			return "OPTION " + singleLine(response.Name) + "=" + singleLine(response.Value)
		}
		return "OPTION " + singleLine(response.Name)
	default:
		return "ERR " + CodeUnexpected.String() + " invalid response"
	}
}

func withArgument(keyword string, text string) string {
	if text == "" {
		return keyword
	}
	return keyword + " " + text
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func singleLine(text string) string {
	if !strings.ContainsAny(text, "\r\n") {
		return text
	}
	return lineBreaks.Replace(text)
}

// Writer emits responses one per line and flushes after every batch.
type Writer struct {
	out *bufio.Writer
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: bufio.NewWriter(out)}
}

// Write encodes each response followed by a newline. The first write or
// flush error is returned; callers treat output as best effort.
func (writer *Writer) Write(responses ...Response) error {
	for _, response := range responses {
		if _, err := writer.out.WriteString(response.Encode()); err != nil {
			return err
		}
		if err := writer.out.WriteByte('\n'); err != nil {
			return err
		}
	}
	return writer.out.Flush()
}
