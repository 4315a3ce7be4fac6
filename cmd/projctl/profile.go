package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/muurk/projctl/internal/config"
	"github.com/muurk/projctl/internal/sources"
	"github.com/muurk/projctl/internal/ui"
)

// Profile command flags
var (
	profileLabel      string
	profileSetDefault bool
	profileYes        bool
)

func init() {
	profileAddCmd.Flags().StringVar(&profileLabel, "label", "", "Free text shown in listings")
	profileAddCmd.Flags().BoolVar(&profileSetDefault, "default", false, "Make this the default projector")
	profileRemoveCmd.Flags().BoolVarP(&profileYes, "yes", "y", false, "Do not ask for confirmation")

	profileCmd.AddCommand(profileListCmd, profileAddCmd, profileRemoveCmd, profileUseCmd)
	rootCmd.AddCommand(profileCmd)
}

var profileCmd = &cobra.Command{
	Use:     "profile",
	Aliases: []string{"profiles"},
	Short:   "Manage named projector profiles",
	Long: `Manage named projector profiles.

A profile stores the serial port, model and timeout of one projector so
commands can select it with --projector instead of repeating flags.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		p := ui.NewPrinter(cmd.OutOrStdout())
		names := reg.ProfileNames()
		if len(names) == 0 {
			p.Println("No profiles saved. Add one with: projctl profile add <name> --port <port> --model <model>")
			return nil
		}

		defaultName, _ := reg.DefaultProfile()
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			prof := reg.Projectors[name]
			marker := ""
			if name == defaultName {
				marker = "*"
			}
			rows = append(rows, []string{
				marker + name,
				prof.Port,
				prof.Model,
				reg.EffectiveTimeout(prof).String(),
				lastUsed(prof.LastUsed),
				prof.Label,
			})
		}
		p.PrintTable([]string{"NAME", "PORT", "MODEL", "TIMEOUT", "LAST USED", "LABEL"}, rows)
		return nil
	},
}

func lastUsed(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a profile",
	Example: `  projctl profile add lecture --port /dev/ttyUSB0 --model EH470 --default
  projctl profile add lab --port COM3 --model Generic --timeout 8s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		name := args[0]
		prof := &config.Profile{
			Port:    viper.GetString(keyPort),
			Model:   viper.GetString(keyModel),
			Timeout: viper.GetDuration(keyTimeout),
			Label:   profileLabel,
		}
		if err := prof.Validate(sources.Default()); err != nil {
			return err
		}

		reg.SetProfile(name, prof)
		if profileSetDefault {
			reg.Preferences.DefaultProjector = name
		}
		if err := reg.Save(); err != nil {
			return err
		}

		ui.NewPrinter(cmd.OutOrStdout()).PrintResult(ui.NewSuccessResult("profile saved",
			ui.Detail{Key: "Name", Value: name},
			ui.Detail{Key: "Port", Value: prof.Port},
			ui.Detail{Key: "Model", Value: prof.Model},
			ui.Detail{Key: "Timeout", Value: reg.EffectiveTimeout(prof).String()},
		))
		return nil
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		name := args[0]
		if reg.GetProfile(name) == nil {
			return fmt.Errorf("unknown projector profile %q", name)
		}
		if !profileYes && !ui.Confirm(os.Stdin, cmd.OutOrStdout(), fmt.Sprintf("Remove profile %s?", name)) {
			return nil
		}

		reg.RemoveProfile(name)
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed profile %s.\n", name)
		return nil
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Make a profile the default projector",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		name := args[0]
		if reg.GetProfile(name) == nil {
			return fmt.Errorf("unknown projector profile %q", name)
		}
		reg.Preferences.DefaultProjector = name
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Default projector is now %s.\n", name)
		return nil
	},
}
