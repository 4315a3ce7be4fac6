package server

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/projctl/internal/logging"
	"github.com/muurk/projctl/internal/projector"
	"github.com/muurk/projctl/internal/protocol"
	"github.com/muurk/projctl/internal/sources"
	"github.com/muurk/projctl/internal/transport"
)

// Port is an open projector connection.
type Port interface {
	projector.Transport
	io.Closer
}

// OpenFunc opens the named serial port.
type OpenFunc func(name string) (Port, error)

// OpenSerial opens a real serial port.
func OpenSerial(name string) (Port, error) {
	port, err := transport.Open(name)
	if err != nil {
		return nil, err
	}
	return port, nil
}

// ProjectorConfig describes one projector served by the control server.
type ProjectorConfig struct {
	Port    string
	Model   string
	Timeout time.Duration
}

// Controller owns the session for one projector and serializes commands to it.
//
// The session is opened on first use. When a command leaves the session
// unusable, the port is closed and the next command opens a fresh one.
type Controller struct {
	name    string
	config  ProjectorConfig
	open    OpenFunc
	table   *sources.Table
	options []projector.Option

	mu      sync.Mutex
	port    Port
	session *projector.Session
	lastErr error
}

// Status is a snapshot of a controller.
type Status struct {
	Name    string   `json:"name"`
	Port    string   `json:"port"`
	Model   string   `json:"model"`
	State   string   `json:"state"`
	Sources []string `json:"sources"`
	Error   string   `json:"last_error,omitempty"`
}

func newController(name string, cfg ProjectorConfig, open OpenFunc, table *sources.Table, opts []projector.Option) *Controller {
	return &Controller{
		name:    name,
		config:  cfg,
		open:    open,
		table:   table,
		options: opts,
	}
}

// Name returns the projector name.
func (c *Controller) Name() string {
	return c.name
}

// Do runs one command and returns its decoded result.
func (c *Controller) Do(cmd protocol.Command, source string) (projector.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	result, err := c.do(cmd, source)

	metricCommandDuration.WithLabelValues(c.name, cmd.String()).Observe(time.Since(start).Seconds())
	metricCommandsTotal.WithLabelValues(c.name, cmd.String(), outcome(result, err)).Inc()
	return result, err
}

func (c *Controller) do(cmd protocol.Command, source string) (projector.Result, error) {
	if err := c.ensureSession(); err != nil {
		return projector.Result{}, err
	}

	result, err := c.session.Send(cmd, source)
	if err != nil {
		c.lastErr = err
		if projector.IsTerminal(err) {
			logging.Warn("Projector session failed, will reopen on next command",
				zap.String("projector", c.name),
				zap.Error(err),
			)
			c.closeLocked()
		}
		return projector.Result{}, err
	}
	c.lastErr = nil
	return result, nil
}

func (c *Controller) ensureSession() error {
	if c.session != nil {
		return nil
	}

	port, err := c.open(c.config.Port)
	if err != nil {
		c.lastErr = err
		return fmt.Errorf("open %s: %w", c.config.Port, err)
	}

	opts := append([]projector.Option{
		projector.WithTimeout(c.config.Timeout),
		projector.WithTable(c.table),
	}, c.options...)

	session, err := projector.New(c.config.Model, port, opts...)
	if err != nil {
		c.lastErr = err
		_ = port.Close()
		return err
	}

	metricSessionsOpened.Inc()
	logging.Info("Projector session opened",
		zap.String("projector", c.name),
		zap.String("port", c.config.Port),
		zap.String("model", c.config.Model),
	)
	c.port = port
	c.session = session
	return nil
}

// Status returns a snapshot without touching the projector.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	names, _ := c.table.Sources(c.config.Model)
	st := Status{
		Name:    c.name,
		Port:    c.config.Port,
		Model:   c.config.Model,
		State:   "closed",
		Sources: names,
	}
	if c.session != nil {
		st.State = c.session.State().String()
	}
	if c.lastErr != nil {
		st.Error = c.lastErr.Error()
	}
	return st
}

// Close releases the port.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Controller) closeLocked() error {
	c.session = nil
	if c.port == nil {
		return nil
	}
	err := c.port.Close()
	c.port = nil
	return err
}

func outcome(result projector.Result, err error) string {
	if err == nil {
		if result.IsAbsent() {
			return "rejected"
		}
		return "ok"
	}
	switch {
	case projector.IsInvalidArgumentError(err), projector.IsInvalidCommandError(err):
		return "invalid"
	case isTimeout(err):
		return "timeout"
	default:
		return "error"
	}
}
