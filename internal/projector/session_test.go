package projector

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/projctl/internal/projector/projectortest"
	"github.com/muurk/projctl/internal/protocol"
)

const testTimeout = time.Second

// openSession builds a verified session and clears the probe traffic.
func openSession(t *testing.T, model string, tr *projectortest.Transport, clock *projectortest.Clock) *Session {
	t.Helper()
	s, err := New(model, tr, WithClock(clock.Now), WithTimeout(testTimeout))
	require.NoError(t, err)
	require.Equal(t, StateVerified, s.State())
	tr.Reset()
	return s
}

func TestNew_PowerState(t *testing.T) {
	tests := []struct {
		name    string
		powered bool
	}{
		{name: "projector on", powered: true},
		{name: "projector in standby", powered: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := projectortest.NewClock()
			tr := projectortest.Projector(clock, tt.powered, "8")

			s, err := New("EH470", tr, WithClock(clock.Now))
			require.NoError(t, err)
			assert.Equal(t, []string{"~00124 1"}, tr.Commands())
			assert.Equal(t, "~00124 1\r", string(tr.Written()))

			on, err := s.PowerState()
			require.NoError(t, err)
			assert.Equal(t, tt.powered, on)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	tr := projectortest.Projector(projectortest.NewClock(), true, "8")
	s, err := New("Generic", tr)
	require.NoError(t, err)
	assert.Equal(t, "Generic", s.Model())
	assert.Equal(t, DefaultTimeout, s.Timeout())
	assert.Contains(t, s.Sources(), "HDMI2")
}

func TestNew_UnknownModel(t *testing.T) {
	tr := projectortest.Projector(nil, true, "8")

	s, err := New("X9000", tr)
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, IsInvalidArgumentError(err))
	assert.Empty(t, tr.Written())
	assert.Zero(t, tr.Reads())
}

func TestNew_NilTransport(t *testing.T) {
	_, err := New("EH470", nil)
	assert.True(t, IsInvalidArgumentError(err))
}

func TestNew_SilentProjector(t *testing.T) {
	clock := projectortest.NewClock()
	tr := projectortest.NewTransport(clock)
	start := clock.Now()

	s, err := New("EH470", tr, WithClock(clock.Now), WithTimeout(testTimeout))
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, IsVerificationError(err))
	assert.Equal(t, testTimeout, clock.Since(start))

	var sessionErr *Error
	require.True(t, errors.As(err, &sessionErr))
	cause, ok := ErrorTypeOf(sessionErr.Err)
	require.True(t, ok)
	assert.Equal(t, ErrTypeTimeout, cause)
}

func TestNew_SilentProjectorRealClock(t *testing.T) {
	tr := projectortest.NewTransport(nil)
	timeout := 50 * time.Millisecond

	start := time.Now()
	_, err := New("EH470", tr, WithTimeout(timeout))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, IsVerificationError(err))
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+time.Second)
}

func TestNew_RejectedProbe(t *testing.T) {
	clock := projectortest.NewClock()
	tr := projectortest.NewTransport(clock).Reply("~00124 1", "F")

	s, err := New("EH470", tr, WithClock(clock.Now))
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, IsVerificationError(err))
}

func TestNew_AnyReplyVerifies(t *testing.T) {
	clock := projectortest.NewClock()
	tr := projectortest.NewTransport(clock).Reply("~00124 1", "P")

	s, err := New("EH470", tr, WithClock(clock.Now))
	require.NoError(t, err)
	assert.Equal(t, StateVerified, s.State())
}

func TestSession_Send(t *testing.T) {
	tests := []struct {
		name      string
		model     string
		cmd       protocol.Command
		source    string
		raw       string
		reply     string
		want      Result
		wantFrame string
	}{
		{name: "power on accepted", model: "EH470", cmd: protocol.PowerOn, raw: "~0000 1", reply: "P", want: BoolResult(true), wantFrame: "~0000 1\r"},
		{name: "power on rejected", model: "EH470", cmd: protocol.PowerOn, raw: "~0000 1", reply: "F", want: Absent(), wantFrame: "~0000 1\r"},
		{name: "power off accepted", model: "EH470", cmd: protocol.PowerOff, raw: "~0000 0", reply: "P", want: BoolResult(true), wantFrame: "~0000 0\r"},
		{name: "power query on", model: "EH470", cmd: protocol.PowerQuery, raw: "~00124 1", reply: "OK1", want: BoolResult(true), wantFrame: "~00124 1\r"},
		{name: "power query off", model: "EH470", cmd: protocol.PowerQuery, raw: "~00124 1", reply: "OK0", want: BoolResult(false), wantFrame: "~00124 1\r"},
		{name: "power query odd payload", model: "EH470", cmd: protocol.PowerQuery, raw: "~00124 1", reply: "OK2", want: BoolResult(false), wantFrame: "~00124 1\r"},
		{name: "source query hdmi2", model: "EH470", cmd: protocol.SourceQuery, raw: "~00121 1", reply: "OK8", want: StringResult("HDMI2"), wantFrame: "~00121 1\r"},
		{name: "source query unknown code", model: "EH470", cmd: protocol.SourceQuery, raw: "~00121 1", reply: "OK99", want: StringResult("99"), wantFrame: "~00121 1\r"},
		{name: "source query rejected", model: "Generic", cmd: protocol.SourceQuery, raw: "~00121 1", reply: "F", want: Absent(), wantFrame: "~00121 1\r"},
		{name: "source set hdmi2", model: "EH470", cmd: protocol.SourceSet, source: "HDMI2", raw: "~0012 15", reply: "P", want: BoolResult(true), wantFrame: "~0012 15\r"},
		{name: "source set vga", model: "EH470", cmd: protocol.SourceSet, source: "VGA", raw: "~0012 5", reply: "P", want: BoolResult(true), wantFrame: "~0012 5\r"},
		{name: "source set ok payload", model: "Generic", cmd: protocol.SourceSet, source: "HDMI1", raw: "~0012 1", reply: "OKx", want: StringResult("x"), wantFrame: "~0012 1\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := projectortest.NewClock()
			tr := projectortest.Projector(clock, true, "8").Reply(tt.raw, tt.reply)
			s := openSession(t, tt.model, tr, clock)

			got, err := s.Send(tt.cmd, tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantFrame, string(tr.Written()))
			assert.Equal(t, StateVerified, s.State())
		})
	}
}

func TestSession_SendRejectsBeforeIO(t *testing.T) {
	tests := []struct {
		name   string
		cmd    protocol.Command
		source string
		check  func(error) bool
	}{
		{name: "unknown source", cmd: protocol.SourceSet, source: "Betamax", check: IsInvalidArgumentError},
		{name: "empty source", cmd: protocol.SourceSet, source: "", check: IsInvalidArgumentError},
		{name: "zero command", cmd: protocol.Command(0), check: IsInvalidCommandError},
		{name: "out of range command", cmd: protocol.Command(99), check: IsInvalidCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := projectortest.NewClock()
			tr := projectortest.Projector(clock, true, "8")
			s := openSession(t, "EH470", tr, clock)

			_, err := s.Send(tt.cmd, tt.source)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type: %v", err)
			assert.False(t, IsTerminal(err))
			assert.Empty(t, tr.Written())
			assert.Zero(t, tr.Reads())
			assert.Equal(t, StateVerified, s.State())
		})
	}
}

func TestSession_SourceNamesAreModelSpecific(t *testing.T) {
	clock := projectortest.NewClock()
	tr := projectortest.Projector(clock, true, "8")
	s := openSession(t, "EH470", tr, clock)

	// DVI-D exists for the generic model only
	_, err := s.SetSource("DVI-D")
	assert.True(t, IsInvalidArgumentError(err))
	assert.Empty(t, tr.Written())
}

func TestSession_VerbHelpers(t *testing.T) {
	clock := projectortest.NewClock()
	tr := projectortest.Projector(clock, true, "8").Reply("~0012 15", "P")
	s := openSession(t, "EH470", tr, clock)

	ok, err := s.PowerOn()
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.PowerOff()
	require.NoError(t, err)
	assert.True(t, ok)

	name, ok, err := s.Source()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "HDMI2", name)

	ok, err = s.SetSource("HDMI2")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []string{"~0000 1", "~0000 0", "~00121 1", "~0012 15"}, tr.Commands())
}

func TestSession_VerbHelpersRejected(t *testing.T) {
	clock := projectortest.NewClock()
	tr := projectortest.Projector(clock, true, "8").
		Reply("~0000 1", "F").
		Reply("~00121 1", "F").
		Reply("~0012 15", "F")
	s := openSession(t, "EH470", tr, clock)

	ok, err := s.PowerOn()
	require.NoError(t, err)
	assert.False(t, ok)

	name, ok, err := s.Source()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, name)

	ok, err = s.SetSource("HDMI2")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, StateVerified, s.State())
}

func TestSession_PartialReads(t *testing.T) {
	clock := projectortest.NewClock()
	tr := projectortest.Projector(clock, true, "8").ReplyChunks("~00121 1",
		projectortest.Chunk{Data: "O"},
		projectortest.Chunk{Data: "K"},
		projectortest.Chunk{Data: "8"},
		projectortest.Chunk{Data: "\r"},
	)
	s := openSession(t, "EH470", tr, clock)

	name, ok, err := s.Source()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "HDMI2", name)
	assert.Equal(t, 4, tr.Reads())
}

func TestSession_DeadlineCoversWholeReply(t *testing.T) {
	t.Run("chunks within deadline", func(t *testing.T) {
		clock := projectortest.NewClock()
		tr := projectortest.Projector(clock, true, "8").ReplyChunks("~00121 1",
			projectortest.Chunk{Data: "OK", Delay: 400 * time.Millisecond},
			projectortest.Chunk{Data: "8\r", Delay: 400 * time.Millisecond},
		)
		s := openSession(t, "EH470", tr, clock)

		start := clock.Now()
		name, _, err := s.Source()
		require.NoError(t, err)
		assert.Equal(t, "HDMI2", name)
		assert.Equal(t, 800*time.Millisecond, clock.Since(start))
	})

	t.Run("chunks past deadline", func(t *testing.T) {
		clock := projectortest.NewClock()
		tr := projectortest.Projector(clock, true, "8").ReplyChunks("~00121 1",
			projectortest.Chunk{Data: "OK", Delay: 600 * time.Millisecond},
			projectortest.Chunk{Data: "8\r", Delay: 600 * time.Millisecond},
		)
		s := openSession(t, "EH470", tr, clock)

		start := clock.Now()
		_, _, err := s.Source()
		require.Error(t, err)
		assert.True(t, IsTimeoutError(err))
		assert.Equal(t, testTimeout, clock.Since(start))
		assert.Equal(t, StateFailed, s.State())
	})
}

func TestSession_TrailingBytesDiscarded(t *testing.T) {
	clock := projectortest.NewClock()
	tr := projectortest.Projector(clock, true, "8").
		ReplyChunks("~0000 1", projectortest.Chunk{Data: "P\rOK1\rjunk"})
	s := openSession(t, "EH470", tr, clock)

	ok, err := s.PowerOn()
	require.NoError(t, err)
	assert.True(t, ok)

	// The next reply is read fresh; leftovers do not leak into it
	name, _, err := s.Source()
	require.NoError(t, err)
	assert.Equal(t, "HDMI2", name)
}

func TestSession_Faults(t *testing.T) {
	ioErr := errors.New("device unplugged")

	tests := []struct {
		name     string
		setup    func(tr *projectortest.Transport)
		wantType ErrorType
	}{
		{
			name:     "write error",
			setup:    func(tr *projectortest.Transport) { tr.FailWrites(ioErr) },
			wantType: ErrTypeWrite,
		},
		{
			name:     "read error",
			setup:    func(tr *projectortest.Transport) { tr.FailReads(ioErr) },
			wantType: ErrTypeRead,
		},
		{
			name:     "timeout",
			setup:    func(tr *projectortest.Transport) { tr.Silence("~0000 1") },
			wantType: ErrTypeTimeout,
		},
		{
			name:     "malformed reply",
			setup:    func(tr *projectortest.Transport) { tr.Reply("~0000 1", "PWR=01") },
			wantType: ErrTypeMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := projectortest.NewClock()
			tr := projectortest.Projector(clock, true, "8")
			s := openSession(t, "EH470", tr, clock)
			tt.setup(tr)

			_, err := s.PowerOn()
			require.Error(t, err)
			errType, ok := ErrorTypeOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, errType)
			assert.True(t, IsTerminal(err))
			assert.Equal(t, StateFailed, s.State())

			if tt.wantType == ErrTypeWrite || tt.wantType == ErrTypeRead {
				assert.ErrorIs(t, err, ioErr)
				assert.True(t, IsTransportError(err))
			}

			// A failed session refuses further commands without I/O
			tr.Reset()
			_, err = s.PowerState()
			require.Error(t, err)
			errType, _ = ErrorTypeOf(err)
			assert.Equal(t, ErrTypeSessionFailed, errType)
			assert.Empty(t, tr.Written())
			assert.Zero(t, tr.Reads())
		})
	}
}

func TestResult_String(t *testing.T) {
	assert.Equal(t, "absent", Absent().String())
	assert.Equal(t, "true", BoolResult(true).String())
	assert.Equal(t, "false", BoolResult(false).String())
	assert.Equal(t, "HDMI2", StringResult("HDMI2").String())

	assert.Nil(t, Absent().Value())
	assert.Equal(t, true, BoolResult(true).Value())
	assert.Equal(t, "HDMI2", StringResult("HDMI2").Value())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unverified", StateUnverified.String())
	assert.Equal(t, "verified", StateVerified.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "State(7)", State(7).String())
}
