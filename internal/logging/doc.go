// Package logging provides structured logging for projctl.
//
// This package wraps a package-global zap logger with convenience functions
// for common logging patterns, plus helpers specific to the serial command
// protocol.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (hex dumps of serial frames, trailing bytes)
//   - Info: Normal operations (commands sent, replies received, connections)
//   - Warn: Non-fatal issues (rejected commands, session reopen)
//   - Error: Failed round trips, startup failures
//
// # Protocol Logging
//
//	logging.LogCommand("/dev/ttyUSB0", "power-on", "~0000 1")
//	logging.LogResponse("/dev/ttyUSB0", "power-on", "P", elapsed)
//	logging.LogFrame("/dev/ttyUSB0", "tx", frame)
//
// # Configuration
//
// Logging is silent until a level is configured, so CLI output stays clean:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// PROJCTL_LOG_LEVEL selects the level. PROJCTL_LOG_FILE additionally writes
// JSON lines to a size-rotated file.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has
// returned.
package logging
