// Projctl controls Optoma projectors over an RS232 serial line.
//
// It switches power and input sources, keeps named projector profiles, and
// can serve one or more projectors to the network over HTTP and WebSocket.
//
// Usage:
//
//	projctl [command] [flags]
//
// See 'projctl --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/muurk/projctl/internal/config"
	"github.com/muurk/projctl/internal/logging"
	"github.com/muurk/projctl/internal/ui"
	"github.com/muurk/projctl/internal/version"
)

// envPrefix is prepended to every setting read from the environment,
// e.g. PROJCTL_PORT or PROJCTL_LOG_LEVEL.
const envPrefix = "PROJCTL"

// Setting keys shared by flags, environment and viper.
const (
	keyPort      = "port"
	keyModel     = "model"
	keyTimeout   = "timeout"
	keyProjector = "projector"
	keyLogLevel  = "log-level"
	keyLogFile   = "log-file"
	keyConfig    = "config"
	keyJSON      = "json"
)

// errRejected marks a command the projector answered with F.
// The result box has already been printed; main only sets the exit code.
var errRejected = errors.New("command rejected by projector")

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err == nil {
		return
	}
	if errors.Is(err, errRejected) {
		os.Exit(2)
	}
	ui.NewPrinter(os.Stderr).PrintError(commandPath(), err)
	os.Exit(1)
}

var rootCmd = &cobra.Command{
	Use:   "projctl",
	Short: "Optoma projector RS232 control",
	Long: `Control Optoma projectors over an RS232 serial line.

Switch power, query and select input sources, manage named projector
profiles, and share projectors on the network with 'projctl serve'.

Settings are taken from flags first, then PROJCTL_* environment variables,
then the selected profile in the configuration file.`,
	Version:       version.Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.String(keyPort, "", "Serial port (e.g. /dev/ttyUSB0, COM3)")
	flags.String(keyModel, "", "Projector model from the source catalog (see 'projctl models')")
	flags.Duration(keyTimeout, 0, "Reply timeout (default from profile, or 5s)")
	flags.StringP(keyProjector, "p", "", "Projector profile name")
	flags.String(keyLogLevel, "", "Log level (debug, info, warn, error); silent when empty")
	flags.String(keyLogFile, "", "Also write JSON logs to this file, rotated by size")
	flags.String(keyConfig, "", "Configuration file (default: user config dir)")
	flags.Bool(keyJSON, false, "Print results as JSON")

	for _, key := range []string{keyPort, keyModel, keyTimeout, keyProjector, keyLogLevel, keyLogFile, keyConfig, keyJSON} {
		_ = viper.BindPFlag(key, flags.Lookup(key))
	}

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(versionCmd)
}

// initConfig wires environment variables into viper.
func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if path := viper.GetString(keyConfig); path != "" {
		_ = os.Setenv(config.PathEnvVar, path)
	}
}

func initLogging() error {
	return logging.InitializeWithOptions(logging.Options{
		Level: viper.GetString(keyLogLevel),
		File:  viper.GetString(keyLogFile),
	})
}

// commandPath names the command being run for error boxes.
func commandPath() string {
	cmd, _, err := rootCmd.Find(os.Args[1:])
	if err != nil || cmd == nil {
		return rootCmd.Name()
	}
	return cmd.CommandPath()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", version.Name, version.Full())
	},
}
