// Package server exposes projectors over HTTP and WebSocket so several
// clients can share serial lines attached to one machine.
//
// Each configured projector gets a Controller that owns its serial port and
// projector session and serializes commands to it. Sessions open lazily on
// the first command; a session that fails is dropped and reopened on the
// next command.
//
// # Endpoints
//
//	GET  /healthz
//	GET  /metrics
//	GET  /api/v1/projectors
//	GET  /api/v1/projectors/{projector}
//	POST /api/v1/projectors/{projector}/commands
//	GET  /api/v1/projectors/{projector}/ws
//
// Commands are JSON objects:
//
//	{"id": "optional", "command": "source-set", "source": "HDMI2"}
//
// and replies carry either a result or an error:
//
//	{"id": "...", "projector": "hall", "command": "source-set",
//	 "result": {"kind": "bool", "value": true}}
//
// The WebSocket endpoint accepts the same request objects as text messages
// and answers each with one reply.
//
// # Status Codes
//
// Invalid commands and unknown sources are 400, unknown projectors 404,
// reply timeouts 504 and other serial faults 502. A rejected command ("F")
// is a successful request with an absent result.
//
// # Usage
//
//	srv, err := server.New(&server.Config{
//	    Addr: ":8470",
//	    Projectors: map[string]server.ProjectorConfig{
//	        "hall": {Port: "/dev/ttyUSB0", Model: "EH470", Timeout: 5 * time.Second},
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx)
package server
