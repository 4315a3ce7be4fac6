package projector

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/projctl/internal/logging"
	"github.com/muurk/projctl/internal/protocol"
	"github.com/muurk/projctl/internal/sources"
)

// readChunkSize is the buffer handed to each ReadWithin call.
const readChunkSize = 64

// State is the lifecycle state of a Session.
type State int

const (
	// StateUnverified is a session whose liveness probe has not completed.
	StateUnverified State = iota
	// StateVerified is a session that answered the probe and accepts commands.
	StateVerified
	// StateFailed is a session that hit a transport or protocol fault.
	StateFailed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateUnverified:
		return "unverified"
	case StateVerified:
		return "verified"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is a command session with one projector over one transport.
//
// Session is not safe for concurrent use.
type Session struct {
	model     string
	transport Transport
	port      string
	config    Config
	state     State
}

// New binds a session to model and t and runs the liveness probe.
//
// The model must exist in the source table; an unknown model is rejected
// before any I/O. The probe is a power query: any reply other than "F"
// verifies the session. On failure no Session is returned and the error has
// type ErrTypeVerification wrapping the cause.
func New(model string, t Transport, opts ...Option) (*Session, error) {
	if t == nil {
		return nil, newError(ErrTypeInvalidArgument, 0, "transport cannot be nil", nil)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Table == nil {
		cfg.Table = sources.Default()
	}

	if !cfg.Table.HasModel(model) {
		return nil, newError(ErrTypeInvalidArgument, 0, fmt.Sprintf("unknown projector model %q", model), nil)
	}

	s := &Session{
		model:     model,
		transport: t,
		port:      transportName(t),
		config:    cfg,
		state:     StateUnverified,
	}

	result, err := s.Send(protocol.PowerQuery, "")
	if err != nil {
		logging.Warn("Liveness probe failed",
			zap.String("port", s.port),
			zap.String("model", model),
			zap.Error(err),
		)
		return nil, newError(ErrTypeVerification, protocol.PowerQuery, "could not verify ready state of projector", err)
	}
	if result.IsAbsent() {
		return nil, newError(ErrTypeVerification, protocol.PowerQuery, "projector rejected the power query", nil)
	}

	s.state = StateVerified
	logging.Info("Projector session verified",
		zap.String("port", s.port),
		zap.String("model", model),
		zap.Bool("powered", result.True()),
	)
	return s, nil
}

// Model returns the model the session is bound to.
func (s *Session) Model() string {
	return s.model
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Timeout returns the reply timeout.
func (s *Session) Timeout() time.Duration {
	return s.config.Timeout
}

// Sources returns the source names valid for the bound model.
func (s *Session) Sources() []string {
	names, _ := s.config.Table.Sources(s.model)
	return names
}

// Send performs one command round trip and decodes the reply.
//
// source is only used by protocol.SourceSet and names the input to switch
// to. A rejected command ("F") yields an absent result and a nil error.
func (s *Session) Send(cmd protocol.Command, source string) (Result, error) {
	if s.state == StateFailed {
		return Result{}, newError(ErrTypeSessionFailed, cmd, "session is no longer usable", nil)
	}
	if !cmd.Valid() {
		return Result{}, newError(ErrTypeInvalidCommand, cmd, fmt.Sprintf("unsupported command %s", cmd), protocol.ErrUnknownCommand)
	}

	var code string
	if cmd == protocol.SourceSet {
		c, ok := s.config.Table.SetCode(s.model, source)
		if !ok {
			return Result{}, newError(ErrTypeInvalidArgument, cmd, fmt.Sprintf("unknown source %q for model %s", source, s.model), nil)
		}
		code = c
	}

	raw, err := cmd.Raw(code)
	if err != nil {
		if errors.Is(err, protocol.ErrInvalidSourceCode) {
			return Result{}, newError(ErrTypeInvalidArgument, cmd, "source table holds a non-numeric code", err)
		}
		return Result{}, newError(ErrTypeInvalidCommand, cmd, "could not build command", err)
	}

	resp, err := s.roundTrip(cmd, raw)
	if err != nil {
		return Result{}, err
	}

	result := s.decode(cmd, resp)
	logging.LogResult(s.port, cmd.String(), result.String())
	return result, nil
}

// roundTrip writes one command frame and reads a single reply frame.
func (s *Session) roundTrip(cmd protocol.Command, raw string) (protocol.Response, error) {
	frame := protocol.EncodeFrame(raw)
	logging.LogCommand(s.port, cmd.String(), raw)
	logging.LogFrame(s.port, "tx", frame)

	n, err := s.transport.Write(frame)
	if err == nil && n < len(frame) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return protocol.Response{}, s.fail(newError(ErrTypeWrite, cmd, "could not write command", err))
	}

	start := s.config.Clock()
	deadline := start.Add(s.config.Timeout)
	chunk := make([]byte, readChunkSize)
	var buf []byte

	for {
		remaining := deadline.Sub(s.config.Clock())
		if remaining <= 0 {
			return protocol.Response{}, s.fail(newError(ErrTypeTimeout, cmd,
				fmt.Sprintf("no reply within %s", s.config.Timeout), nil))
		}

		n, err := s.transport.ReadWithin(chunk, remaining)
		if err != nil {
			return protocol.Response{}, s.fail(newError(ErrTypeRead, cmd, "could not read reply", err))
		}
		if n == 0 {
			continue
		}

		logging.LogFrame(s.port, "rx", chunk[:n])
		buf = append(buf, chunk[:n]...)

		line, rest, ok := protocol.SplitFrame(buf)
		if !ok {
			continue
		}
		if len(rest) > 0 {
			logging.Debug("Discarding bytes after reply terminator",
				zap.String("port", s.port),
				zap.Int("length", len(rest)),
			)
		}

		resp, err := protocol.ParseResponse(line)
		if err != nil {
			return protocol.Response{}, s.fail(newError(ErrTypeMalformed, cmd, "unrecognized reply", err))
		}
		logging.LogResponse(s.port, cmd.String(), line, s.config.Clock().Sub(start))
		return resp, nil
	}
}

func (s *Session) fail(err *Error) error {
	s.state = StateFailed
	logging.Error("Projector round trip failed",
		zap.String("port", s.port),
		zap.String("command", err.Command.String()),
		zap.String("type", err.Type.String()),
		zap.Error(err.Err),
	)
	return err
}

func (s *Session) decode(cmd protocol.Command, resp protocol.Response) Result {
	switch resp.Kind {
	case protocol.ResponsePass:
		return BoolResult(true)
	case protocol.ResponseOK:
		switch cmd {
		case protocol.PowerQuery:
			return BoolResult(resp.Payload == "1")
		case protocol.SourceQuery:
			if name, ok := s.config.Table.QueryName(s.model, resp.Payload); ok {
				return StringResult(name)
			}
			return StringResult(resp.Payload)
		default:
			return StringResult(resp.Payload)
		}
	default:
		return Absent()
	}
}

// PowerOn turns the projector on. It returns false if the projector
// rejected the command.
func (s *Session) PowerOn() (bool, error) {
	result, err := s.Send(protocol.PowerOn, "")
	return result.True(), err
}

// PowerOff puts the projector into standby. It returns false if the
// projector rejected the command.
func (s *Session) PowerOff() (bool, error) {
	result, err := s.Send(protocol.PowerOff, "")
	return result.True(), err
}

// PowerState reports whether the projector is on.
func (s *Session) PowerState() (bool, error) {
	result, err := s.Send(protocol.PowerQuery, "")
	return result.True(), err
}

// Source returns the active input. ok is false when the projector rejected
// the query.
func (s *Session) Source() (name string, ok bool, err error) {
	result, err := s.Send(protocol.SourceQuery, "")
	if err != nil || result.Kind != ResultString {
		return "", false, err
	}
	return result.Text, true, nil
}

// SetSource switches to the named input. It returns false if the projector
// rejected the command.
func (s *Session) SetSource(name string) (bool, error) {
	result, err := s.Send(protocol.SourceSet, name)
	return result.True(), err
}
