package session

import (
	"context"
	"errors"
	"strings"

	"github.com/joshp123/pinentry-picker/internal/assuan"
)

var (
	// ErrInput indicates the request stream failed or carried invalid UTF-8.
	ErrInput = errors.New("assuan input failed")
	// ErrCancelled matches a GatewayError carrying the cancelled code.
	ErrCancelled = errors.New("operation cancelled")
)

// Gateway obtains a secret for the current session state.
//
//go:generate mockgen -package=session -destination=mock_gateway_test.go github.com/joshp123/pinentry-picker/internal/session Gateway
type Gateway interface {
	RequestSecret(ctx context.Context, state State) (string, error)
}

// GatewayError is a failed secret request mapped to its wire code. Message
// goes out on the ERR line and must never contain the secret.
type GatewayError struct {
	Code    assuan.ErrorCode
	Message string
	Err     error
}

func (err *GatewayError) Error() string {
	if err == nil {
		return ""
	}
	message := strings.TrimSpace(err.Message)
	if message == "" {
		message = "secret request failed"
	}
	return message
}

func (err *GatewayError) Unwrap() error {
	if err == nil {
		return nil
	}
	return err.Err
}

func (err *GatewayError) Is(target error) bool {
	return err != nil && target == ErrCancelled && err.Code == assuan.CodeCancelled
}

// Cancelled is the error a gateway returns when the user backed out.
func Cancelled() *GatewayError {
	return &GatewayError{Code: assuan.CodeCancelled, Message: "operation cancelled"}
}

// Unexpected wraps cause under the generic failure code.
func Unexpected(message string, cause error) *GatewayError {
	return &GatewayError{Code: assuan.CodeUnexpected, Message: message, Err: cause}
}

func asGatewayError(err error) *GatewayError {
	var gatewayErr *GatewayError
	if errors.As(err, &gatewayErr) {
		return gatewayErr
	}
	return Unexpected(err.Error(), err)
}
