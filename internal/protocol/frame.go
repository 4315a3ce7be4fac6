package protocol

import "bytes"

// Terminator ends every command and reply line.
const Terminator byte = '\r'

// EncodeFrame appends the line terminator to a raw command.
func EncodeFrame(raw string) []byte {
	frame := make([]byte, 0, len(raw)+1)
	frame = append(frame, raw...)
	return append(frame, Terminator)
}

// SplitFrame splits buf at the first terminator. It returns the text before
// the terminator and whatever followed it. ok is false until a terminator has
// been received.
func SplitFrame(buf []byte) (frame string, rest []byte, ok bool) {
	i := bytes.IndexByte(buf, Terminator)
	if i < 0 {
		return "", nil, false
	}
	return string(buf[:i]), buf[i+1:], true
}
