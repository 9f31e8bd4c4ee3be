package picker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshp123/pinentry-picker/internal/assuan"
	"github.com/joshp123/pinentry-picker/internal/session"
	"github.com/joshp123/pinentry-picker/internal/testsupport"
)

func text(value string) *string {
	return &value
}

func newFakeGateway(t *testing.T, scenario string, configure ...func(*Options)) *Gateway {
	t.Helper()
	options := Options{
		Command:            testsupport.SetupFakePicker(t, scenario),
		Args:               []string{},
		InheritEnvironment: true,
	}
	for _, apply := range configure {
		apply(&options)
	}
	gateway, err := NewGateway(options)
	require.NoError(t, err)
	return gateway
}

func requireGatewayError(t *testing.T, err error, code assuan.ErrorCode) *session.GatewayError {
	t.Helper()
	var gatewayErr *session.GatewayError
	require.True(t, errors.As(err, &gatewayErr), "expected GatewayError, got %v", err)
	assert.Equal(t, code, gatewayErr.Code)
	return gatewayErr
}

func TestRequestSecretReturnsFirstLine(t *testing.T) {
	gateway := newFakeGateway(t, testsupport.ScenarioHappy)

	secret, err := gateway.RequestSecret(context.Background(), session.State{Title: text("Unlock")})
	require.NoError(t, err)
	assert.Equal(t, testsupport.HappySecret, secret)
}

func TestRequestSecretSendsEncodedConfig(t *testing.T) {
	state := session.State{Title: text("Unlock key"), Description: text(`say "hi"`)}

	tests := []struct {
		format Format
		want   string
	}{
		{format: FormatRON, want: `(title:Some("Unlock key"),description:Some("say \"hi\""))`},
		{format: FormatJSON, want: `{"title":"Unlock key","description":"say \"hi\""}`},
	}
	for _, test := range tests {
		t.Run(string(test.format), func(t *testing.T) {
			gateway := newFakeGateway(t, testsupport.ScenarioEchoConfig, func(options *Options) {
				options.Format = test.format
			})

			config, err := gateway.RequestSecret(context.Background(), state)
			require.NoError(t, err)
			assert.Equal(t, test.want, config)
		})
	}
}

func TestRequestSecretSilentPickerIsCancelled(t *testing.T) {
	gateway := newFakeGateway(t, testsupport.ScenarioCancel)

	_, err := gateway.RequestSecret(context.Background(), session.State{})
	requireGatewayError(t, err, assuan.CodeCancelled)
	assert.ErrorIs(t, err, session.ErrCancelled)
	assert.Equal(t, "operation cancelled", err.Error())
}

func TestRequestSecretCrashIsUnexpected(t *testing.T) {
	gateway := newFakeGateway(t, testsupport.ScenarioCrash)

	_, err := gateway.RequestSecret(context.Background(), session.State{})
	gatewayErr := requireGatewayError(t, err, assuan.CodeUnexpected)
	assert.Equal(t, "picker exited: exit status 2", gatewayErr.Error())
	assert.NotErrorIs(t, err, session.ErrCancelled)
}

func TestRequestSecretOutputBeforeFailedExitIsUnexpected(t *testing.T) {
	gateway := newFakeGateway(t, testsupport.ScenarioCrashAfterOutput, func(options *Options) {
		options.CancelExitCodes = []int{3}
	})

	_, err := gateway.RequestSecret(context.Background(), session.State{})
	requireGatewayError(t, err, assuan.CodeUnexpected)
}

func TestRequestSecretCancelExitCodes(t *testing.T) {
	t.Run("listed", func(t *testing.T) {
		gateway := newFakeGateway(t, testsupport.ScenarioCancelExit, func(options *Options) {
			options.CancelExitCodes = []int{1, testsupport.CancelExitCode}
		})
		_, err := gateway.RequestSecret(context.Background(), session.State{})
		requireGatewayError(t, err, assuan.CodeCancelled)
	})

	t.Run("unlisted", func(t *testing.T) {
		gateway := newFakeGateway(t, testsupport.ScenarioCancelExit)
		_, err := gateway.RequestSecret(context.Background(), session.State{})
		requireGatewayError(t, err, assuan.CodeUnexpected)
	})
}

func TestRequestSecretLineHandling(t *testing.T) {
	tests := map[string]string{
		testsupport.ScenarioNoNewline:   "s3cret",
		testsupport.ScenarioCRLF:        "pass word",
		testsupport.ScenarioMultiLine:   "first",
		testsupport.ScenarioEmptyLine:   "",
		testsupport.ScenarioIgnoreStdin: "early",
	}
	for scenario, want := range tests {
		t.Run(scenario, func(t *testing.T) {
			gateway := newFakeGateway(t, scenario)
			secret, err := gateway.RequestSecret(context.Background(), session.State{})
			require.NoError(t, err)
			assert.Equal(t, want, secret)
		})
	}
}

func TestRequestSecretTimeout(t *testing.T) {
	gateway := newFakeGateway(t, testsupport.ScenarioHang, func(options *Options) {
		options.Timeout = 200 * time.Millisecond
	})

	started := time.Now()
	_, err := gateway.RequestSecret(context.Background(), session.State{})
	gatewayErr := requireGatewayError(t, err, assuan.CodeUnexpected)
	assert.Equal(t, "picker timed out", gatewayErr.Error())
	assert.Less(t, time.Since(started), 10*time.Second)
}

func TestRequestSecretInterrupted(t *testing.T) {
	gateway := newFakeGateway(t, testsupport.ScenarioHang)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := gateway.RequestSecret(ctx, session.State{})
	gatewayErr := requireGatewayError(t, err, assuan.CodeUnexpected)
	assert.Equal(t, "picker interrupted", gatewayErr.Error())
}

func TestRequestSecretPassesArgs(t *testing.T) {
	gateway := newFakeGateway(t, testsupport.ScenarioArgs, func(options *Options) {
		options.Args = []string{"--plugins", "libpinentry.so"}
	})

	output, err := gateway.RequestSecret(context.Background(), session.State{})
	require.NoError(t, err)
	assert.Equal(t, "--plugins libpinentry.so", output)
}

func TestRequestSecretEnvironment(t *testing.T) {
	t.Setenv("PINENTRY_PICKER_UNLISTED", "1")

	for _, inherit := range []bool{true, false} {
		gateway := newFakeGateway(t, testsupport.ScenarioEnv, func(options *Options) {
			options.Args = []string{"PINENTRY_PICKER_PROBE", "PINENTRY_PICKER_UNLISTED"}
			options.InheritEnvironment = inherit
			options.Environment = map[string]string{"PINENTRY_PICKER_PROBE": "probe"}
		})
		output, err := gateway.RequestSecret(context.Background(), session.State{})
		require.NoError(t, err)
		assert.Equal(t, "PINENTRY_PICKER_PROBE=probe PINENTRY_PICKER_UNLISTED!", output)
	}
}

func TestRequestSecretSpawnsFreshProcessEachCall(t *testing.T) {
	gateway := newFakeGateway(t, testsupport.ScenarioEchoConfig)

	first, err := gateway.RequestSecret(context.Background(), session.State{Title: text("one")})
	require.NoError(t, err)
	second, err := gateway.RequestSecret(context.Background(), session.State{Title: text("two")})
	require.NoError(t, err)

	assert.Equal(t, `(title:Some("one"),description:None)`, first)
	assert.Equal(t, `(title:Some("two"),description:None)`, second)
}

func TestRequestSecretMissingPicker(t *testing.T) {
	gateway, err := NewGateway(Options{Command: filepath.Join(t.TempDir(), "missing-picker")})
	require.NoError(t, err)

	_, err = gateway.RequestSecret(context.Background(), session.State{})
	gatewayErr := requireGatewayError(t, err, assuan.CodeUnexpected)
	assert.Contains(t, gatewayErr.Error(), "not found")
}

func TestNewGatewayValidates(t *testing.T) {
	_, err := NewGateway(Options{Format: "toml"})
	assert.ErrorContains(t, err, "unsupported picker format")

	_, err = NewGateway(Options{Timeout: -time.Second})
	assert.ErrorContains(t, err, "must not be negative")
}

func TestDefaultOptions(t *testing.T) {
	options := DefaultOptions()
	assert.Equal(t, "anyrun", options.Command)
	assert.Equal(t, []string{"--plugins", "libpinentry.so", "--show-results-immediately", "true"}, options.Args)
	assert.Equal(t, FormatRON, options.Format)
	assert.True(t, options.InheritEnvironment)
}

func TestTailBufferKeepsLastBytes(t *testing.T) {
	buffer := newTailBuffer(4)
	_, _ = buffer.Write([]byte("abc"))
	_, _ = buffer.Write([]byte("defg"))
	assert.Equal(t, "defg", buffer.String())
}
