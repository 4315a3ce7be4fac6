// Package ui provides terminal UI components for the projctl CLI.
//
// This package uses Lipgloss to render command output and Bubble Tea for the
// one interactive piece, the source picker. Apart from the picker, components
// follow a "run once and exit" pattern: they render output but don't require
// user interaction.
//
// # Components
//
//   - Header: Banner showing a command name and its parameters
//   - Result: Success, rejected, or failure boxes for a projector reply
//   - Printer: Writes components and aligned tables to an io.Writer
//   - PickerModel: Interactive list for choosing an input source
//
// Example:
//
//	p := ui.NewPrinter(os.Stdout)
//	res, err := session.Send(protocol.PowerQuery, "")
//	if err != nil {
//	    p.PrintError("power-query", err)
//	    return err
//	}
//	p.PrintResult(ui.NewCommandResult(protocol.PowerQuery, res))
//
// # Logging Integration
//
// This package expects logging to be controlled via the PROJCTL_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, allowing
// the UI output to be displayed cleanly.
package ui
