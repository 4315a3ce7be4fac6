// Package config provides user configuration management for projctl.
//
// This package manages a YAML-based configuration file that stores named
// projector profiles (serial port, model and reply timeout) and application
// preferences. The configuration follows OS-specific conventions for storage
// location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/projctl/config.yaml or $HOME/.config/projctl/config.yaml
//   - macOS: $HOME/.config/projctl/config.yaml
//   - Windows: %AppData%\projctl\config.yaml
//
// PROJCTL_CONFIG overrides the location entirely.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.SetProfile("hall", &config.Profile{
//	    Port:  "/dev/ttyUSB0",
//	    Model: "EH470",
//	})
//	registry.Preferences.DefaultProjector = "hall"
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// Flag and environment overrides (PROJCTL_PORT, PROJCTL_MODEL, ...) are
// layered on top of profiles by the command line tool.
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
