package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/muurk/projctl/internal/logging"
	"github.com/muurk/projctl/internal/projector"
	"github.com/muurk/projctl/internal/protocol"
)

// CommandRequest asks a projector to run one command.
type CommandRequest struct {
	ID      string `json:"id,omitempty"`
	Command string `json:"command"`
	Source  string `json:"source,omitempty"`
}

// CommandResponse carries the decoded result or the error of a command.
type CommandResponse struct {
	ID        string      `json:"id"`
	Projector string      `json:"projector"`
	Command   string      `json:"command"`
	Result    *ResultBody `json:"result,omitempty"`
	Error     *ErrorBody  `json:"error,omitempty"`

	status int // HTTP status for the REST endpoint
}

// ResultBody is the JSON form of projector.Result.
type ResultBody struct {
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

// ErrorBody describes a failed command.
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

type apiErrorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

type apiProjectorsResponse struct {
	Projectors []Status `json:"projectors"`
}

type apiProjectorResponse struct {
	Projector Status `json:"projector"`
}

func (s *Server) handleAPIProjectors(w http.ResponseWriter, r *http.Request) {
	resp := &apiProjectorsResponse{Projectors: []Status{}}
	for _, name := range s.names {
		resp.Projectors = append(resp.Projectors, s.controllers[name].Status())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPIProjector(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, &apiProjectorResponse{Projector: c.Status()})
}

func (s *Server) handleAPICommand(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}

	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to decode request: %w", err))
		return
	}

	resp := execute(c, req)
	writeJSON(w, resp.status, resp)
}

// controller resolves the {projector} path variable.
func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*Controller, bool) {
	name := mux.Vars(r)["projector"]
	c, ok := s.controllers[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("failed to find projector with name '%s'", name))
		return nil, false
	}
	return c, true
}

// execute runs a request against a controller and builds the response.
func execute(c *Controller, req CommandRequest) *CommandResponse {
	resp := &CommandResponse{
		ID:        req.ID,
		Projector: c.Name(),
		Command:   req.Command,
		status:    http.StatusOK,
	}
	if resp.ID == "" {
		resp.ID = uuid.New().String()
	}

	cmd, err := protocol.ParseCommand(req.Command)
	if err != nil {
		resp.status = http.StatusBadRequest
		resp.Error = &ErrorBody{
			Type:    projector.ErrTypeInvalidCommand.String(),
			Message: err.Error(),
			Hint:    projector.TroubleshootingHint(&projector.Error{Type: projector.ErrTypeInvalidCommand}),
		}
		return resp
	}

	result, err := c.Do(cmd, req.Source)
	if err != nil {
		logging.Warn("Command failed",
			zap.String("id", resp.ID),
			zap.String("projector", c.Name()),
			zap.String("command", req.Command),
			zap.Error(err),
		)
		resp.status = statusFor(err)
		resp.Error = errorBody(err)
		return resp
	}

	resp.Result = &ResultBody{Kind: result.Kind.String(), Value: result.Value()}
	return resp
}

func errorBody(err error) *ErrorBody {
	body := &ErrorBody{Type: "Port Error", Message: err.Error()}
	if t, ok := projector.ErrorTypeOf(err); ok {
		body.Type = t.String()
		body.Hint = projector.TroubleshootingHint(err)
	}
	return body
}

// statusFor maps a command error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case projector.IsInvalidArgumentError(err), projector.IsInvalidCommandError(err):
		return http.StatusBadRequest
	case isTimeout(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// isTimeout reports a reply timeout, including one that failed the
// liveness probe.
func isTimeout(err error) bool {
	if projector.IsTimeoutError(err) {
		return true
	}
	if projector.IsVerificationError(err) {
		return projector.IsTimeoutError(errors.Unwrap(err))
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, &apiErrorResponse{
		Error:  err.Error(),
		Status: "error",
	})
}
