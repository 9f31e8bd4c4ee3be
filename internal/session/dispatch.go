package session

import (
	"context"
	"io"
	"log/slog"
	"strconv"

	"github.com/joshp123/pinentry-picker/internal/assuan"
)

const (
	greeting        = "Pleased to meet you"
	farewell        = "closing connection"
	notImplemented  = "not implemented"
	unknownCommand  = "unknown command"
	defaultFlavor   = "picker"
	unknownTTYField = "-"
)

// Info answers GETINFO queries.
type Info struct {
	Flavor  string
	Version string
	PID     int
	TTYName string
	TTYType string
	Display string
}

// Options tune a Dispatcher.
type Options struct {
	// LenientUnknown acknowledges unrecognised commands with OK instead
	// of an unknown-command error. The comment echo is sent either way.
	LenientUnknown bool
	Info           Info
	Logger         *slog.Logger
}

func (options Options) withDefaults() Options {
	if options.Info.Flavor == "" {
		options.Info.Flavor = defaultFlavor
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return options
}

// Outcome is the result of applying one command.
type Outcome struct {
	State     State
	Responses []assuan.Response
	// Terminal reports that the session must end after Responses are sent.
	Terminal bool
	// Err is set when the session ends because a secret request failed.
	Err error
}

// Dispatcher is the pinentry state machine. Apart from GETPIN, which asks
// the gateway, Step is a pure function of its inputs.
type Dispatcher struct {
	gateway Gateway
	options Options
}

func NewDispatcher(gateway Gateway, options Options) *Dispatcher {
	return &Dispatcher{gateway: gateway, options: options.withDefaults()}
}

func (dispatcher *Dispatcher) Step(ctx context.Context, state State, command assuan.Command) Outcome {
	switch command.Kind {
	case assuan.KindComment:
		return Outcome{State: state}
	case assuan.KindBye:
		return Outcome{State: state, Responses: []assuan.Response{assuan.Farewell(farewell)}, Terminal: true}
	case assuan.KindReset:
		return Outcome{State: State{}, Responses: ok()}
	case assuan.KindEnd, assuan.KindHelp:
		return Outcome{State: state, Responses: []assuan.Response{assuan.Failure(assuan.CodeUnexpected, notImplemented)}}
	case assuan.KindSetOption, assuan.KindNop, assuan.KindSetPrompt, assuan.KindSetCosmetic:
		return Outcome{State: state, Responses: ok()}
	case assuan.KindSetDescription:
		description := assuan.Decode(command.Text)
		state.Description = &description
		return Outcome{State: state, Responses: ok()}
	case assuan.KindSetTitle:
		title := assuan.Decode(command.Text)
		state.Title = &title
		return Outcome{State: state, Responses: ok()}
	case assuan.KindGetSecret:
		return dispatcher.getSecret(ctx, state)
	case assuan.KindGetInfo:
		return Outcome{State: state, Responses: dispatcher.getInfo(command.Text)}
	default:
		return Outcome{State: state, Responses: dispatcher.unknown(command.Text)}
	}
}

func (dispatcher *Dispatcher) getSecret(ctx context.Context, state State) Outcome {
	logger := dispatcher.options.Logger
	if dispatcher.gateway == nil {
		logger.Error("secret requested without a gateway")
		return failed(state, Unexpected("no picker configured", nil))
	}

	secret, err := dispatcher.gateway.RequestSecret(ctx, state.snapshot())
	if err != nil {
		gatewayErr := asGatewayError(err)
		logger.Warn("secret request failed", "code", gatewayErr.Code.String(), "error", gatewayErr.Error())
		return failed(state, gatewayErr)
	}
	logger.Debug("secret request succeeded")
	return Outcome{State: state, Responses: []assuan.Response{assuan.DataLine(secret), assuan.Acknowledged("")}}
}

func failed(state State, err *GatewayError) Outcome {
	return Outcome{
		State:     state,
		Responses: []assuan.Response{assuan.Failure(err.Code, err.Error())},
		Terminal:  true,
		Err:       err,
	}
}

func (dispatcher *Dispatcher) getInfo(topic string) []assuan.Response {
	info := dispatcher.options.Info
	var value string
	switch topic {
	case "flavor":
		value = info.Flavor
	case "version":
		value = info.Version
	case "pid":
		value = strconv.Itoa(info.PID)
	case "ttyinfo":
		value = ttyField(info.TTYName) + " " + ttyField(info.TTYType) + " " + ttyField(info.Display)
	default:
		return []assuan.Response{assuan.Failure(assuan.CodeUnknownCommand, unknownCommand)}
	}
	return []assuan.Response{assuan.DataLine(value), assuan.Acknowledged("")}
}

func ttyField(value string) string {
	if value == "" {
		return unknownTTYField
	}
	return value
}

func (dispatcher *Dispatcher) unknown(line string) []assuan.Response {
	dispatcher.options.Logger.Debug("unknown command", "line", line)
	if dispatcher.options.LenientUnknown {
		return []assuan.Response{assuan.CommentLine(line), assuan.Acknowledged("")}
	}
	return []assuan.Response{assuan.CommentLine(line), assuan.Failure(assuan.CodeUnknownCommand, unknownCommand)}
}

func ok() []assuan.Response {
	return []assuan.Response{assuan.Acknowledged("")}
}
