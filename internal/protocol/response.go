package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// Reply frame markers.
const (
	ReplyPass     = "P"
	ReplyFail     = "F"
	ReplyOKPrefix = "OK"
)

// ErrMalformedResponse is returned for a frame that matches no reply shape.
var ErrMalformedResponse = errors.New("malformed response")

// ResponseKind classifies a reply frame.
type ResponseKind int

const (
	// ResponsePass is the "P" reply to a set command.
	ResponsePass ResponseKind = iota + 1
	// ResponseFail is the "F" reply; the projector rejected the command.
	ResponseFail
	// ResponseOK is an "OK<payload>" reply to a query.
	ResponseOK
)

// String returns a human-readable name for the kind.
func (k ResponseKind) String() string {
	switch k {
	case ResponsePass:
		return "pass"
	case ResponseFail:
		return "fail"
	case ResponseOK:
		return "ok"
	default:
		return fmt.Sprintf("ResponseKind(%d)", int(k))
	}
}

// Response is a parsed reply frame.
type Response struct {
	Kind    ResponseKind
	Payload string // only set for ResponseOK
}

// ParseResponse classifies a reply frame (without its terminator).
func ParseResponse(frame string) (Response, error) {
	switch {
	case frame == ReplyPass:
		return Response{Kind: ResponsePass}, nil
	case frame == ReplyFail:
		return Response{Kind: ResponseFail}, nil
	case strings.HasPrefix(frame, ReplyOKPrefix):
		return Response{Kind: ResponseOK, Payload: frame[len(ReplyOKPrefix):]}, nil
	default:
		return Response{}, fmt.Errorf("%w: %q", ErrMalformedResponse, frame)
	}
}

// String returns a debug representation of the response.
func (r Response) String() string {
	if r.Kind == ResponseOK {
		return fmt.Sprintf("Response{Kind=%s, Payload=%q}", r.Kind, r.Payload)
	}
	return fmt.Sprintf("Response{Kind=%s}", r.Kind)
}
