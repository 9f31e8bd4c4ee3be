// Package pinentry serves the pinentry side of the Assuan protocol and
// delegates the actual prompt to an external picker program.
package pinentry

import (
	"context"
	"io"

	"github.com/joshp123/pinentry-picker/internal/assuan"
	"github.com/joshp123/pinentry-picker/internal/picker"
	"github.com/joshp123/pinentry-picker/internal/session"
)

type (
	// State is what a Gateway learns about the prompt: the title and
	// description set by SETTITLE and SETDESC. Nil means never set.
	State        = session.State
	Gateway      = session.Gateway
	GatewayError = session.GatewayError
	Options      = session.Options
	Info         = session.Info
	ErrorCode    = assuan.ErrorCode

	PickerOptions = picker.Options
	PickerFormat  = picker.Format
	PickerGateway = picker.Gateway
)

const (
	CodeUnexpected     = assuan.CodeUnexpected
	CodeUnknownCommand = assuan.CodeUnknownCommand
	CodeCancelled      = assuan.CodeCancelled

	FormatRON  = picker.FormatRON
	FormatJSON = picker.FormatJSON
	FormatYAML = picker.FormatYAML
)

var (
	ErrInput     = session.ErrInput
	ErrCancelled = session.ErrCancelled
)

// Serve runs one session: it greets the client on out, then answers the
// commands read from in until BYE, end of input or a terminal failure.
// Cancellation by the user is returned as an error matching ErrCancelled.
func Serve(ctx context.Context, in io.Reader, out io.Writer, gateway Gateway, options Options) error {
	return session.NewServer(gateway, options).Serve(ctx, in, out)
}

func DefaultPickerOptions() PickerOptions {
	return picker.DefaultOptions()
}

// NewPickerGateway returns a Gateway that starts the configured picker for
// every GETPIN.
func NewPickerGateway(options PickerOptions) (*PickerGateway, error) {
	return picker.NewGateway(options)
}

// Cancelled and Unexpected build the errors a custom Gateway returns.
func Cancelled() *GatewayError {
	return session.Cancelled()
}

func Unexpected(message string, cause error) *GatewayError {
	return session.Unexpected(message, cause)
}
