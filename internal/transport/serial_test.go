package transport

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// fakePort records calls and replays queued reads.
type fakePort struct {
	written  []byte
	reads    [][]byte
	timeouts []time.Duration
	closed   int
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakePort) Read(p []byte) (int, error) {
	if len(f.reads) == 0 {
		return 0, nil
	}
	n := copy(p, f.reads[0])
	f.reads = f.reads[1:]
	return n, nil
}

func (f *fakePort) SetReadTimeout(t time.Duration) error {
	f.timeouts = append(f.timeouts, t)
	return nil
}

func (f *fakePort) Close() error {
	f.closed++
	return nil
}

func withFakePort(t *testing.T, fp *fakePort, openErr error) {
	t.Helper()
	orig := openPort
	openPort = func(name string, mode *serial.Mode) (port, error) {
		if openErr != nil {
			return nil, openErr
		}
		return fp, nil
	}
	t.Cleanup(func() { openPort = orig })
}

func TestMode(t *testing.T) {
	mode := Mode()
	assert.Equal(t, 9600, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, serial.NoParity, mode.Parity)
	assert.Equal(t, serial.OneStopBit, mode.StopBits)
}

func TestSerial_RoundTrip(t *testing.T) {
	fp := &fakePort{reads: [][]byte{[]byte("OK1\r")}}
	withFakePort(t, fp, nil)

	s, err := Open("/dev/ttyUSB0")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", s.Name())

	n, err := s.Write([]byte("~00124 1\r"))
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, "~00124 1\r", string(fp.written))

	buf := make([]byte, 64)
	n, err = s.ReadWithin(buf, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "OK1\r", string(buf[:n]))

	// Nothing more queued: a timeout is (0, nil)
	n, err = s.ReadWithin(buf, 2*time.Second)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.ReadWithin(buf, time.Second)
	require.NoError(t, err)
	assert.Zero(t, n)

	// The port timeout is only updated when it changes
	assert.Equal(t, []time.Duration{2 * time.Second, time.Second}, fp.timeouts)
}

func TestSerial_OpenError(t *testing.T) {
	withFakePort(t, nil, errors.New("no such file or directory"))

	_, err := Open("/dev/ttyUSB9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/dev/ttyUSB9")
}

func TestSerial_CloseTwice(t *testing.T) {
	fp := &fakePort{}
	withFakePort(t, fp, nil)

	s, err := Open("/dev/ttyUSB0")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, fp.closed)
}
