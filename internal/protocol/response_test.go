package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name        string
		frame       string
		wantKind    ResponseKind
		wantPayload string
		wantErr     bool
	}{
		{name: "pass", frame: "P", wantKind: ResponsePass},
		{name: "fail", frame: "F", wantKind: ResponseFail},
		{name: "ok power on", frame: "OK1", wantKind: ResponseOK, wantPayload: "1"},
		{name: "ok two digit payload", frame: "OK15", wantKind: ResponseOK, wantPayload: "15"},
		{name: "ok empty payload", frame: "OK", wantKind: ResponseOK, wantPayload: ""},
		{name: "lowercase p", frame: "p", wantErr: true},
		{name: "pass with trailing text", frame: "PX", wantErr: true},
		{name: "fail with trailing text", frame: "FAIL", wantErr: true},
		{name: "colon prompt", frame: ":", wantErr: true},
		{name: "equals grammar", frame: "PWR=01", wantErr: true},
		{name: "empty", frame: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseResponse(tt.frame)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, resp.Kind)
			assert.Equal(t, tt.wantPayload, resp.Payload)
		})
	}
}

func TestResponse_String(t *testing.T) {
	assert.Equal(t, `Response{Kind=ok, Payload="8"}`, Response{Kind: ResponseOK, Payload: "8"}.String())
	assert.Equal(t, "Response{Kind=pass}", Response{Kind: ResponsePass}.String())
	assert.Equal(t, "ResponseKind(0)", ResponseKind(0).String())
}
