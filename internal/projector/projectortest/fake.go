// Package projectortest provides a scripted projector transport and a manual
// clock for testing code built on package projector.
package projectortest

import (
	"strings"
	"sync"
	"time"

	"github.com/muurk/projctl/internal/protocol"
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock set to a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Since returns the fake time elapsed since t.
func (c *Clock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Chunk is one piece of a reply, delivered Delay after it was queued.
type Chunk struct {
	Data  string
	Delay time.Duration
}

// Transport is a scripted projector.Transport.
//
// Replies are keyed by raw command text (without terminator). Writing a frame
// whose command has a reply queues that reply's chunks; each ReadWithin call
// returns at most one chunk. With nothing queued the transport stays silent
// for the whole wait. Waiting advances the Clock when one is attached and
// sleeps otherwise.
type Transport struct {
	mu       sync.Mutex
	clock    *Clock
	name     string
	replies  map[string][]Chunk
	queue    []Chunk
	written  []byte
	commands []string
	reads    int
	writeErr error
	readErr  error
}

// NewTransport returns a silent transport. clock may be nil to use real time.
func NewTransport(clock *Clock) *Transport {
	return &Transport{
		clock:   clock,
		name:    "fake",
		replies: make(map[string][]Chunk),
	}
}

// Name returns the port name reported in logs.
func (t *Transport) Name() string {
	return t.name
}

// Reply scripts the frame returned for raw. The reply is delivered in one
// chunk and terminated with a carriage return.
func (t *Transport) Reply(raw string, reply string) *Transport {
	return t.ReplyChunks(raw, Chunk{Data: reply + string(protocol.Terminator)})
}

// ReplyChunks scripts a reply delivered as several chunks. Terminators are
// not added.
func (t *Transport) ReplyChunks(raw string, chunks ...Chunk) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies[raw] = chunks
	return t
}

// Silence removes any reply scripted for raw.
func (t *Transport) Silence(raw string) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.replies, raw)
	return t
}

// FailWrites makes every following Write return err.
func (t *Transport) FailWrites(err error) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeErr = err
	return t
}

// FailReads makes every following ReadWithin return err.
func (t *Transport) FailReads(err error) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readErr = err
	return t
}

// Write records p and queues the scripted reply for each complete command.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.writeErr != nil {
		return 0, t.writeErr
	}
	t.written = append(t.written, p...)

	for _, line := range strings.Split(string(p), string(protocol.Terminator)) {
		if line == "" {
			continue
		}
		t.commands = append(t.commands, line)
		t.queue = append(t.queue, t.replies[line]...)
	}
	return len(p), nil
}

// ReadWithin returns the next queued chunk if it arrives within timeout.
func (t *Transport) ReadWithin(p []byte, timeout time.Duration) (int, error) {
	t.mu.Lock()
	t.reads++
	if t.readErr != nil {
		err := t.readErr
		t.mu.Unlock()
		return 0, err
	}

	if len(t.queue) == 0 {
		t.mu.Unlock()
		t.wait(timeout)
		return 0, nil
	}

	next := &t.queue[0]
	if next.Delay > timeout {
		next.Delay -= timeout
		t.mu.Unlock()
		t.wait(timeout)
		return 0, nil
	}

	delay := next.Delay
	n := copy(p, next.Data)
	if n < len(next.Data) {
		next.Data = next.Data[n:]
		next.Delay = 0
	} else {
		t.queue = t.queue[1:]
	}
	t.mu.Unlock()

	t.wait(delay)
	return n, nil
}

func (t *Transport) wait(d time.Duration) {
	if d <= 0 {
		return
	}
	if t.clock != nil {
		t.clock.Advance(d)
		return
	}
	time.Sleep(d)
}

// Written returns every byte written so far.
func (t *Transport) Written() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.written...)
}

// Commands returns the raw command texts written so far.
func (t *Transport) Commands() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.commands...)
}

// Reads returns how many times ReadWithin was called.
func (t *Transport) Reads() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reads
}

// Reset forgets recorded writes and reads. Scripted replies are kept.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.written = nil
	t.commands = nil
	t.queue = nil
	t.reads = 0
}

// Projector returns a transport scripted like a projector that is powered
// on and showing the input with query code source.
func Projector(clock *Clock, powered bool, source string) *Transport {
	power := "OK0"
	if powered {
		power = "OK1"
	}
	return NewTransport(clock).
		Reply("~00124 1", power).
		Reply("~00121 1", "OK"+source).
		Reply("~0000 1", "P").
		Reply("~0000 0", "P")
}
