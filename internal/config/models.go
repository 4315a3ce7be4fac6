package config

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/muurk/projctl/internal/sources"
)

const (
	// DefaultTimeout is the reply timeout used when neither profile nor
	// preferences set one.
	DefaultTimeout = 5 * time.Second

	// DefaultDiscoverTimeout is how long discover browses for servers, in seconds.
	DefaultDiscoverTimeout = 5

	// DefaultServeAddr is the listen address for the control server.
	DefaultServeAddr = ":8470"
)

// ErrInvalidProfile is returned by Validate for an unusable profile.
var ErrInvalidProfile = errors.New("invalid projector profile")

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int                 `yaml:"version"`
	Projectors  map[string]*Profile `yaml:"projectors,omitempty"` // Keyed by profile name
	Preferences *Preferences        `yaml:"preferences,omitempty"`
}

// Profile describes how to reach one projector.
type Profile struct {
	Port     string        `yaml:"port"`                // Serial device, e.g. /dev/ttyUSB0 or COM3
	Model    string        `yaml:"model"`               // Model name from the source catalog
	Timeout  time.Duration `yaml:"timeout,omitempty"`   // Reply timeout; zero uses preferences
	Label    string        `yaml:"label,omitempty"`     // Free text shown in listings
	LastUsed time.Time     `yaml:"last_used,omitempty"` // Last successful session
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultProjector string        `yaml:"default_projector,omitempty"` // Profile used when none is named
	Timeout          time.Duration `yaml:"timeout,omitempty"`           // Default reply timeout
	DiscoverTimeout  int           `yaml:"discover_timeout"`            // mDNS browse time in seconds
	ServeAddr        string        `yaml:"serve_addr,omitempty"`        // Control server listen address
}

func defaultPreferences() *Preferences {
	return &Preferences{
		Timeout:         DefaultTimeout,
		DiscoverTimeout: DefaultDiscoverTimeout,
		ServeAddr:       DefaultServeAddr,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Projectors:  make(map[string]*Profile),
		Preferences: defaultPreferences(),
	}
}

// GetProfile retrieves a profile by name.
// Returns nil if the profile doesn't exist in the registry.
func (r *Registry) GetProfile(name string) *Profile {
	return r.Projectors[name]
}

// SetProfile adds or replaces a profile.
func (r *Registry) SetProfile(name string, p *Profile) {
	if r.Projectors == nil {
		r.Projectors = make(map[string]*Profile)
	}
	r.Projectors[name] = p
}

// RemoveProfile deletes a profile and reports whether it existed. Removing
// the default projector clears the preference.
func (r *Registry) RemoveProfile(name string) bool {
	if _, exists := r.Projectors[name]; !exists {
		return false
	}
	delete(r.Projectors, name)
	if r.Preferences != nil && r.Preferences.DefaultProjector == name {
		r.Preferences.DefaultProjector = ""
	}
	return true
}

// ProfileNames returns the profile names in sorted order.
func (r *Registry) ProfileNames() []string {
	names := make([]string, 0, len(r.Projectors))
	for name := range r.Projectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TouchProfile records a successful session for a profile.
func (r *Registry) TouchProfile(name string) {
	if p := r.Projectors[name]; p != nil {
		p.LastUsed = time.Now()
	}
}

// DefaultProfile returns the preferred profile and its name. When no default
// is set and exactly one profile exists, that profile is used.
func (r *Registry) DefaultProfile() (string, *Profile) {
	if r.Preferences != nil && r.Preferences.DefaultProjector != "" {
		name := r.Preferences.DefaultProjector
		return name, r.Projectors[name]
	}
	if len(r.Projectors) == 1 {
		for name, p := range r.Projectors {
			return name, p
		}
	}
	return "", nil
}

// EffectiveTimeout returns the profile timeout, falling back to the
// preference and then to DefaultTimeout.
func (r *Registry) EffectiveTimeout(p *Profile) time.Duration {
	if p != nil && p.Timeout > 0 {
		return p.Timeout
	}
	if r.Preferences != nil && r.Preferences.Timeout > 0 {
		return r.Preferences.Timeout
	}
	return DefaultTimeout
}

// Validate checks a profile against the source table.
func (p *Profile) Validate(table *sources.Table) error {
	if p.Port == "" {
		return fmt.Errorf("%w: port is required", ErrInvalidProfile)
	}
	if !table.HasModel(p.Model) {
		return fmt.Errorf("%w: unknown model %q", ErrInvalidProfile, p.Model)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidProfile)
	}
	return nil
}

// Validate checks every profile and the default projector reference.
func (r *Registry) Validate(table *sources.Table) error {
	for _, name := range r.ProfileNames() {
		if err := r.Projectors[name].Validate(table); err != nil {
			return fmt.Errorf("projector %q: %w", name, err)
		}
	}
	if r.Preferences != nil && r.Preferences.DefaultProjector != "" {
		if _, ok := r.Projectors[r.Preferences.DefaultProjector]; !ok {
			return fmt.Errorf("%w: default projector %q does not exist", ErrInvalidProfile, r.Preferences.DefaultProjector)
		}
	}
	return nil
}
