package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/muurk/projctl/internal/config"
	"github.com/muurk/projctl/internal/projector"
	"github.com/muurk/projctl/internal/protocol"
	"github.com/muurk/projctl/internal/sources"
	"github.com/muurk/projctl/internal/transport"
	"github.com/muurk/projctl/internal/ui"
)

func init() {
	powerCmd.AddCommand(powerOnCmd, powerOffCmd, powerStatusCmd)
	sourceCmd.AddCommand(sourceGetCmd, sourceSetCmd, sourceListCmd, sourcePickCmd)

	rootCmd.AddCommand(powerCmd)
	rootCmd.AddCommand(sourceCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(portsCmd)
}

// jsonResult is the --json form of a command result
type jsonResult struct {
	Command string `json:"command"`
	Kind    string `json:"kind"`
	Value   any    `json:"value"`
}

// printResult prints a decoded reply and turns a rejection into errRejected.
func printResult(cmd *cobra.Command, c protocol.Command, r projector.Result) error {
	if viper.GetBool(keyJSON) {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(jsonResult{Command: c.String(), Kind: r.Kind.String(), Value: r.Value()}); err != nil {
			return err
		}
	} else {
		ui.NewPrinter(cmd.OutOrStdout()).PrintResult(ui.NewCommandResult(c, r))
	}

	if r.IsAbsent() {
		return errRejected
	}
	return nil
}

// sendCommand runs one command against the resolved projector.
func sendCommand(c protocol.Command, source string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *projector.Session, t target) error {
			r, err := s.Send(c, source)
			if err != nil {
				return err
			}
			return printResult(cmd, c, r)
		})
	}
}

var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "Switch the projector on or off",
}

var powerOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Power the projector on",
	Example: `  # Power on the default projector
  projctl power on

  # Power on a projector without a profile
  projctl power on --port /dev/ttyUSB0 --model EH470`,
	Args: cobra.NoArgs,
	RunE: sendCommand(protocol.PowerOn, ""),
}

var powerOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Power the projector off",
	Args:  cobra.NoArgs,
	RunE:  sendCommand(protocol.PowerOff, ""),
}

var powerStatusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"query"},
	Short:   "Show whether the projector is on",
	Args:    cobra.NoArgs,
	RunE:    sendCommand(protocol.PowerQuery, ""),
}

var sourceCmd = &cobra.Command{
	Use:     "source",
	Aliases: []string{"input"},
	Short:   "Query or select the input source",
}

var sourceGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the active input source",
	Long: `Show the active input source.

The projector reports a numeric code. Codes the model's catalog names are
shown by name; unknown codes are shown as the raw number.`,
	Args: cobra.NoArgs,
	RunE: sendCommand(protocol.SourceQuery, ""),
}

var sourceSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Switch to an input source",
	Example: `  projctl source set HDMI2
  projctl source set "USB Display"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendCommand(protocol.SourceSet, args[0])(cmd, args)
	},
}

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the source names a model accepts",
	Long: `List the source names a model accepts, with the codes sent to select them.

This reads the built-in catalog and does not open the serial port.`,
	Args: cobra.NoArgs,
	RunE: runSourceList,
}

func runSourceList(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	t, err := resolveModel(viper.GetViper(), reg)
	if err != nil {
		return err
	}

	table := sources.Default()
	names, ok := table.Sources(t.Model)
	if !ok {
		return fmt.Errorf("unknown model %q (see 'projctl models')", t.Model)
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		code, _ := table.SetCode(t.Model, name)
		rows = append(rows, []string{name, code})
	}
	ui.NewPrinter(cmd.OutOrStdout()).PrintTable([]string{"SOURCE", "CODE"}, rows)
	return nil
}

var sourcePickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose an input source interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ui.IsTerminal() {
			return errors.New("source pick needs an interactive terminal; use 'projctl source set <name>'")
		}
		return withSession(func(s *projector.Session, t target) error {
			current, _, err := s.Source()
			if err != nil {
				return err
			}

			choice, ok, err := ui.PickSource(fmt.Sprintf("Sources on %s", t.Model), s.Sources(), current)
			if err != nil {
				return err
			}
			if !ok || choice == current {
				fmt.Fprintln(cmd.OutOrStdout(), "Source unchanged.")
				return nil
			}

			r, err := s.Send(protocol.SourceSet, choice)
			if err != nil {
				return err
			}
			return printResult(cmd, protocol.SourceSet, r)
		})
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the projector models in the source catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table := sources.Default()
		rows := [][]string{}
		for _, model := range table.Models() {
			names, _ := table.Sources(model)
			rows = append(rows, []string{model, strconv.Itoa(len(names))})
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintTable([]string{"MODEL", "SOURCES"}, rows)
		return nil
	},
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports on this machine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := listPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No serial ports found.")
			return nil
		}

		inUse := map[string]string{}
		if reg, err := loadRegistry(); err == nil {
			for _, name := range reg.ProfileNames() {
				inUse[reg.Projectors[name].Port] = name
			}
		}

		rows := make([][]string, 0, len(ports))
		for _, p := range ports {
			rows = append(rows, []string{p, inUse[p]})
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintTable([]string{"PORT", "PROFILE"}, rows)
		return nil
	},
}

// Replaced in tests.
var listPorts = transport.ListPorts

// registryOrDefault loads the registry, falling back to an empty one when the
// file cannot be read.
func registryOrDefault() *config.Registry {
	reg, err := loadRegistry()
	if err != nil || reg == nil {
		return config.NewRegistry()
	}
	return reg
}
