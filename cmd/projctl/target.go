package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/muurk/projctl/internal/config"
	"github.com/muurk/projctl/internal/logging"
	"github.com/muurk/projctl/internal/projector"
	"github.com/muurk/projctl/internal/server"
	"github.com/muurk/projctl/internal/sources"
)

// Replaced in tests.
var (
	loadRegistry                 = config.LoadRegistry
	openPort     server.OpenFunc = server.OpenSerial
)

var (
	errNoPort  = errors.New("no serial port: pass --port, set PROJCTL_PORT or add a profile")
	errNoModel = errors.New("no projector model: pass --model, set PROJCTL_MODEL or add a profile")
)

// target is the resolved projector a command talks to.
type target struct {
	Profile string // Profile name; empty when flags alone describe the projector
	Port    string
	Model   string
	Timeout time.Duration
}

// resolveTarget merges settings with precedence flag > env > profile > default.
// viper already orders flags before the environment.
func resolveTarget(v *viper.Viper, reg *config.Registry) (target, error) {
	t, err := resolveModel(v, reg)
	if err != nil {
		return t, err
	}
	if t.Port == "" {
		return t, errNoPort
	}
	return t, nil
}

// resolveModel is resolveTarget for commands that never open the port.
func resolveModel(v *viper.Viper, reg *config.Registry) (target, error) {
	var (
		name    = v.GetString(keyProjector)
		profile *config.Profile
	)
	if name != "" {
		profile = reg.GetProfile(name)
		if profile == nil {
			return target{}, fmt.Errorf("unknown projector profile %q (see 'projctl profile list')", name)
		}
	} else {
		name, profile = reg.DefaultProfile()
	}

	t := target{
		Profile: name,
		Port:    v.GetString(keyPort),
		Model:   v.GetString(keyModel),
		Timeout: v.GetDuration(keyTimeout),
	}
	if profile != nil {
		if t.Port == "" {
			t.Port = profile.Port
		}
		if t.Model == "" {
			t.Model = profile.Model
		}
	}
	if t.Timeout <= 0 {
		t.Timeout = reg.EffectiveTimeout(profile)
	}

	if t.Model == "" {
		return t, errNoModel
	}
	return t, nil
}

// withSession opens the target's port, verifies the projector and runs fn.
// The port is closed when fn returns.
func withSession(fn func(s *projector.Session, t target) error) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	t, err := resolveTarget(viper.GetViper(), reg)
	if err != nil {
		return err
	}

	port, err := openPort(t.Port)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := port.Close(); closeErr != nil {
			logging.Warn("Error closing serial port", zap.String("port", t.Port), zap.Error(closeErr))
		}
	}()

	s, err := projector.New(t.Model, port, projector.WithTimeout(t.Timeout), projector.WithTable(sources.Default()))
	if err != nil {
		return err
	}

	if t.Profile != "" && reg.GetProfile(t.Profile) != nil {
		reg.TouchProfile(t.Profile)
		if err := reg.Save(); err != nil {
			logging.Warn("Could not record profile use", zap.String("profile", t.Profile), zap.Error(err))
		}
	}

	return fn(s, t)
}
