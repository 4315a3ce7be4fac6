package projector

import "time"

// Transport is a byte stream to the projector.
//
// ReadWithin waits at most timeout for data to become readable and then reads
// what is available into p. It returns (0, nil) when nothing arrived in time;
// a non-nil error is a transport fault.
type Transport interface {
	Write(p []byte) (int, error)
	ReadWithin(p []byte, timeout time.Duration) (int, error)
}

// namedTransport is implemented by transports that can report a port name
// for log output.
type namedTransport interface {
	Name() string
}

func transportName(t Transport) string {
	if n, ok := t.(namedTransport); ok {
		return n.Name()
	}
	return "transport"
}
