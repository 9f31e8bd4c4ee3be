package picker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"slices"
	"time"

	"github.com/joshp123/pinentry-picker/internal/session"
)

const (
	DefaultCommand     = "anyrun"
	DefaultStderrLimit = 4096
	// waitDelay bounds how long Wait keeps draining pipes after the picker
	// was killed, in case a grandchild still holds them open.
	waitDelay = 2 * time.Second
)

// DefaultArgs select anyrun's embedded pinentry mode.
var DefaultArgs = []string{"--plugins", "libpinentry.so", "--show-results-immediately", "true"}

type Options struct {
	Command string
	Args    []string
	Format  Format
	// Timeout bounds one picker run. Zero waits indefinitely.
	Timeout time.Duration
	// CancelExitCodes lists exit statuses that count as a cancellation when
	// the picker printed nothing.
	CancelExitCodes    []int
	InheritEnvironment bool
	EnvAllowlist       []string
	EnvAllowPrefixes   []string
	Environment        map[string]string
	// StderrLimit caps how many trailing stderr bytes are kept for logging.
	StderrLimit int
	Logger      *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Command:            DefaultCommand,
		Args:               append([]string{}, DefaultArgs...),
		Format:             FormatRON,
		InheritEnvironment: true,
	}
}

func (options Options) withDefaults() Options {
	if options.Command == "" {
		options.Command = DefaultCommand
		if options.Args == nil {
			options.Args = append([]string{}, DefaultArgs...)
		}
	}
	if options.Format == "" {
		options.Format = FormatRON
	}
	if options.StderrLimit <= 0 {
		options.StderrLimit = DefaultStderrLimit
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return options
}

func (options Options) validate() error {
	if _, err := ParseFormat(string(options.Format)); err != nil {
		return err
	}
	if options.Timeout < 0 {
		return fmt.Errorf("picker timeout must not be negative, got %s", options.Timeout)
	}
	return nil
}

// Gateway runs a fresh picker process for every secret request.
type Gateway struct {
	options Options
}

var _ session.Gateway = (*Gateway)(nil)

func NewGateway(options Options) (*Gateway, error) {
	options = options.withDefaults()
	if err := options.validate(); err != nil {
		return nil, err
	}
	return &Gateway{options: options}, nil
}

// RequestSecret writes the state to a new picker and returns the first
// line it prints. A picker that prints nothing has been cancelled by the
// user. The process is reaped and its pipes closed before returning.
func (gateway *Gateway) RequestSecret(ctx context.Context, state session.State) (string, error) {
	options := gateway.options
	logger := options.Logger

	config, err := EncodeState(options.Format, state)
	if err != nil {
		return "", session.Unexpected(fmt.Sprintf("encoding picker config failed: %v", err), err)
	}

	command, err := ResolveCommand(options)
	if err != nil {
		logger.Error("picker unavailable", "error", err)
		return "", session.Unexpected(err.Error(), err)
	}

	runCtx := ctx
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	var stdout bytes.Buffer
	defer func() { clear(stdout.Bytes()) }()
	stderr := newTailBuffer(options.StderrLimit)

	process := exec.CommandContext(runCtx, command.Executable, command.Args...)
	process.Env = buildEnv(options)
	process.Stdout = &stdout
	process.Stderr = stderr
	process.WaitDelay = waitDelay

	stdin, err := process.StdinPipe()
	if err != nil {
		return "", session.Unexpected(fmt.Sprintf("starting picker failed: %v", err), err)
	}
	if err := process.Start(); err != nil {
		logger.Error("picker spawn failed", "executable", command.Executable, "error", err)
		return "", session.Unexpected(fmt.Sprintf("starting picker failed: %v", err), err)
	}
	logger.Debug("picker started", "executable", command.Executable, "pid", process.Process.Pid, "format", string(options.Format))

	if err := writeConfig(stdin, config); err != nil {
		// A picker may exit without reading its input; its output decides.
		logger.Debug("writing picker config failed", "error", err)
	}

	waitErr := process.Wait()
	output := stdout.Bytes()
	logger.Debug("picker exited",
		"exit_code", process.ProcessState.ExitCode(),
		"produced_output", len(output) > 0,
	)

	if runCtx.Err() != nil {
		logStderr(logger, stderr)
		if ctx.Err() != nil {
			return "", session.Unexpected("picker interrupted", ctx.Err())
		}
		return "", session.Unexpected("picker timed out", runCtx.Err())
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && len(output) == 0 && slices.Contains(options.CancelExitCodes, exitErr.ExitCode()) {
			logger.Info("picker cancelled", "exit_code", exitErr.ExitCode())
			return "", session.Cancelled()
		}
		logStderr(logger, stderr)
		return "", session.Unexpected(fmt.Sprintf("picker exited: %v", waitErr), waitErr)
	}

	secret, ok := firstLine(output)
	if !ok {
		logger.Info("picker cancelled")
		return "", session.Cancelled()
	}
	return secret, nil
}

func writeConfig(stdin io.WriteCloser, config string) error {
	_, writeErr := io.WriteString(stdin, config+"\n")
	closeErr := stdin.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

// firstLine returns the output up to the first line terminator. A final
// line without terminator still counts; a trailing CR belongs to the
// terminator.
func firstLine(output []byte) (string, bool) {
	if len(output) == 0 {
		return "", false
	}
	line, _, _ := bytes.Cut(output, []byte{'\n'})
	line = bytes.TrimSuffix(line, []byte{'\r'})
	return string(line), true
}

func logStderr(logger *slog.Logger, stderr *tailBuffer) {
	if tail := stderr.String(); tail != "" {
		logger.Debug("picker stderr", "tail", tail)
	}
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	data  []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (buffer *tailBuffer) Write(p []byte) (int, error) {
	buffer.data = append(buffer.data, p...)
	if overflow := len(buffer.data) - buffer.limit; overflow > 0 {
		buffer.data = append(buffer.data[:0], buffer.data[overflow:]...)
	}
	return len(p), nil
}

func (buffer *tailBuffer) String() string {
	return string(buffer.data)
}
