// Package transport connects projector sessions to serial ports.
//
// Serial opens a port with the projector line settings (9600 baud, 8 data
// bits, no parity, 1 stop bit) and implements projector.Transport:
//
//	port, err := transport.Open("/dev/ttyUSB0")
//	if err != nil {
//	    return err
//	}
//	defer port.Close()
//
// ReadWithin maps onto the port read timeout, so a read that sees no data
// returns (0, nil) once the timeout expires. Closing the port is the caller's
// job; sessions never close their transport.
package transport
