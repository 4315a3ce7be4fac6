package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeFrame(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []byte
	}{
		{name: "power query", raw: "~00124 1", want: []byte("~00124 1\r")},
		{name: "source set", raw: "~0012 15", want: []byte("~0012 15\r")},
		{name: "empty", raw: "", want: []byte{'\r'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeFrame(tt.raw))
		})
	}
}

func TestSplitFrame(t *testing.T) {
	tests := []struct {
		name      string
		buf       []byte
		wantFrame string
		wantRest  []byte
		wantOK    bool
	}{
		{name: "single frame", buf: []byte("OK1\r"), wantFrame: "OK1", wantRest: []byte{}, wantOK: true},
		{name: "no terminator yet", buf: []byte("OK"), wantOK: false},
		{name: "empty buffer", buf: nil, wantOK: false},
		{name: "trailing bytes", buf: []byte("P\rF\r"), wantFrame: "P", wantRest: []byte("F\r"), wantOK: true},
		{name: "empty frame", buf: []byte("\r"), wantFrame: "", wantRest: []byte{}, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, rest, ok := SplitFrame(tt.buf)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantFrame, frame)
			if tt.wantOK {
				assert.Equal(t, tt.wantRest, rest)
			}
		})
	}
}
