// Package projector implements a command session with a projector on a
// serial line.
//
// A Session is bound to one projector model and one Transport. Construction
// sends a power query as a liveness probe and fails unless the projector
// answers with a usable reply:
//
//	port, err := transport.Open("/dev/ttyUSB0")
//	if err != nil {
//	    return err
//	}
//	defer port.Close()
//
//	session, err := projector.New("EH470", port, projector.WithTimeout(3*time.Second))
//	if err != nil {
//	    fmt.Println(projector.TroubleshootingHint(err))
//	    return err
//	}
//
//	on, err := session.PowerState()
//
// # Round Trips
//
// Every command is one round trip: the command frame is written, then bytes
// are read until the first carriage return or until the session timeout
// elapses. The timeout is a single deadline for the whole reply, however many
// partial reads it takes. Bytes after the first terminator are discarded.
//
// # Results
//
// Replies decode to a Result: "F" (command rejected) is an absent result and
// not an error, "P" is true, and "OK<payload>" depends on the command. A
// power query yields true only for payload "1"; a source query yields the
// source name from the model's query code space.
//
// # Failure
//
// Write, read, timeout and malformed-reply faults leave the session in
// StateFailed. A failed session refuses further commands without touching
// the transport; open a new transport and Session to recover.
//
// # Thread Safety
//
// A Session is not safe for concurrent use. Callers sharing one must
// serialize access.
package projector
