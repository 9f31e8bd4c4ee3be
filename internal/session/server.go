package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/joshp123/pinentry-picker/internal/assuan"
)

var errInvalidUTF8 = errors.New("stream did not contain valid UTF-8")

// Server runs one pinentry session over a request/response stream pair.
type Server struct {
	dispatcher *Dispatcher
	options    Options
}

func NewServer(gateway Gateway, options Options) *Server {
	options = options.withDefaults()
	return &Server{dispatcher: NewDispatcher(gateway, options), options: options}
}

// Serve greets the client and processes commands until BYE, end of input,
// a failed secret request, or an input error. It returns nil for the
// first two, the gateway error for a failed request, and an error
// wrapping ErrInput when reading fails.
func (server *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	logger := server.options.Logger
	writer := assuan.NewWriter(out)
	lines := newLineReader(in)

	server.emit(writer, assuan.Acknowledged(greeting))
	logger.Debug("session started")

	state := State{}
	for {
		if err := ctx.Err(); err != nil {
			server.emit(writer, assuan.Failure(assuan.CodeUnexpected, "session interrupted"))
			return err
		}

		line, err := lines.next()
		if errors.Is(err, io.EOF) {
			logger.Debug("input closed")
			return nil
		}
		if err != nil {
			logger.Error("reading request failed", "error", err)
			server.emit(writer, assuan.Failure(assuan.CodeUnknownCommand, err.Error()))
			return fmt.Errorf("%w: %v", ErrInput, err)
		}

		command := assuan.Parse(line)
		logger.Debug("command", "kind", command.Kind.String(), "verb", command.Verb)

		outcome := server.dispatcher.Step(ctx, state, command)
		state = outcome.State
		server.emit(writer, outcome.Responses...)
		if outcome.Terminal {
			logger.Debug("session terminated", "kind", command.Kind.String())
			return outcome.Err
		}
	}
}

func (server *Server) emit(writer *assuan.Writer, responses ...assuan.Response) {
	if len(responses) == 0 {
		return
	}
	if err := writer.Write(responses...); err != nil {
		server.options.Logger.Warn("writing response failed", "error", err)
	}
}

// lineReader frames the request stream into lines without their
// terminators. A final line lacking a newline is still delivered.
type lineReader struct {
	reader *bufio.Reader
}

func newLineReader(in io.Reader) *lineReader {
	return &lineReader{reader: bufio.NewReader(in)}
}

func (lines *lineReader) next() (string, error) {
	line, err := lines.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if !utf8.ValidString(line) {
		return "", errInvalidUTF8
	}
	return line, nil
}
