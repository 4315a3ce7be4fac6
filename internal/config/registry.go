package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/projctl/internal/logging"
)

const (
	appName    = "projctl"
	configFile = "config.yaml"

	// PathEnvVar overrides the configuration file location.
	PathEnvVar = "PROJCTL_CONFIG"
)

const fileHeader = `# projctl configuration file
# Named projector profiles and preferences.
# Edit with 'projctl profile add|remove|use' or by hand.

`

var (
	// Process-wide registry, read from disk on first use
	loaded     *Registry
	loadedErr  error
	loadedOnce sync.Once

	// Serializes writers within this process
	fileMutex sync.Mutex
)

// GetConfigDir returns the directory holding the configuration file:
//   - Linux: $XDG_CONFIG_HOME/projctl or $HOME/.config/projctl
//   - macOS: $HOME/.config/projctl, matching Linux rather than ~/Library
//   - Windows: %AppData%\projctl
func GetConfigDir() (string, error) {
	if runtime.GOOS == "darwin" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, ".config", appName), nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	return filepath.Join(base, appName), nil
}

// GetConfigPath returns the configuration file path. PathEnvVar wins over
// the platform default.
func GetConfigPath() (string, error) {
	if path := os.Getenv(PathEnvVar); path != "" {
		return path, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// LoadRegistry returns the process-wide registry, reading it from
// GetConfigPath on the first call. A missing file yields an empty registry.
func LoadRegistry() (*Registry, error) {
	loadedOnce.Do(func() {
		var path string
		path, loadedErr = GetConfigPath()
		if loadedErr != nil {
			return
		}
		loaded, loadedErr = LoadRegistryFile(path)
	})
	return loaded, loadedErr
}

// ReloadRegistry drops the cached registry and reads it again, picking up
// changes made by another process.
func ReloadRegistry() (*Registry, error) {
	fileMutex.Lock()
	loadedOnce = sync.Once{}
	fileMutex.Unlock()
	return LoadRegistry()
}

// LoadRegistryFile reads a registry from path. A missing file yields an
// empty registry.
func LoadRegistryFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	reg := &Registry{}
	if err := yaml.Unmarshal(data, reg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if reg.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", reg.Version)
	}

	if reg.Projectors == nil {
		reg.Projectors = make(map[string]*Profile)
	}
	if reg.Preferences == nil {
		reg.Preferences = defaultPreferences()
	}

	logging.Debug("Loaded configuration",
		zap.String("path", path),
		zap.Int("profiles", len(reg.Projectors)),
	)
	return reg, nil
}

// Save writes the registry to GetConfigPath.
func (r *Registry) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return r.SaveFile(path)
}

// SaveFile writes the registry to path through a temporary file in the same
// directory, so readers see either the old or the new file.
func (r *Registry) SaveFile(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	body, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+configFile+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary config file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(append([]byte(fileHeader), body...)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	logging.Debug("Saved configuration", zap.String("path", path))
	return nil
}
