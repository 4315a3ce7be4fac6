// Package protocol implements the Optoma RS232 ASCII command grammar.
//
// This package builds raw command strings, frames them for the serial line,
// and classifies reply frames. It performs no I/O; the projector package owns
// the serial conversation.
//
// # Protocol Overview
//
// Every exchange is one command line followed by one reply line. Both
// directions are terminated by a single carriage return (0x0D):
//
//	host   -> projector: ~00124 1\r
//	projector -> host:   OK1\r
//
// A reply frame takes one of three shapes:
//   - "P": the command was accepted
//   - "F": the command was rejected
//   - "OK<payload>": a query succeeded and carries a value
//
// # Commands
//
// The five supported verbs map to fixed command texts:
//
//	PowerOn      ~0000 1
//	PowerOff     ~0000 0
//	PowerQuery   ~00124 1
//	SourceQuery  ~00121 1
//	SourceSet    ~0012 <set code>
//
// PowerQuery is answered even while the lamp is off, which makes it the
// liveness probe used when a session is opened.
//
// # Usage Example
//
//	raw, err := protocol.SourceSet.Raw("15")
//	if err != nil {
//	    return err
//	}
//	frame := protocol.EncodeFrame(raw) // "~0012 15\r"
//
//	line, _, ok := protocol.SplitFrame(buf)
//	if ok {
//	    resp, err := protocol.ParseResponse(line)
//	    ...
//	}
//
// # Serial Line
//
// The line runs at 9600 baud, 8 data bits, no parity, one stop bit. The
// parameters are fixed by the projector and are not negotiated.
package protocol
