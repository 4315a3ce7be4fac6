package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/projctl/internal/discovery"
	"github.com/muurk/projctl/internal/ui"
)

var discoverTimeout int

func init() {
	discoverCmd.Flags().IntVar(&discoverTimeout, "wait", 0, "Scan time in seconds (default from preferences, or 5)")
	rootCmd.AddCommand(discoverCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find projctl control servers on the local network",
	Long: `Find 'projctl serve --advertise' instances using mDNS/DNS-SD.

This looks for control servers, not projectors: projectors on a serial
line cannot announce themselves.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		seconds := discoverTimeout
		if seconds <= 0 {
			seconds = registryOrDefault().Preferences.DiscoverTimeout
		}
		if seconds <= 0 {
			seconds = int(discovery.DefaultScanTimeout / time.Second)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Scanning for control servers (timeout: %ds)...\n\n", seconds)

		scanner := discovery.NewScanner()
		scanner.Timeout = time.Duration(seconds) * time.Second
		endpoints, err := scanner.Scan(cmd.Context())
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if len(endpoints) == 0 {
			fmt.Fprintln(out, "No control servers found.")
			fmt.Fprintln(out, "\nTroubleshooting:")
			fmt.Fprintln(out, "  - Start the server with: projctl serve --advertise")
			fmt.Fprintln(out, "  - Check that multicast traffic is allowed on this network")
			fmt.Fprintln(out, "  - Try a longer scan with --wait")
			return nil
		}

		rows := make([][]string, 0, len(endpoints))
		for _, e := range endpoints {
			rows = append(rows, []string{e.Instance, e.BaseURL(), e.Version, strings.Join(e.Projectors, ", ")})
		}
		ui.NewPrinter(out).PrintTable([]string{"INSTANCE", "URL", "VERSION", "PROJECTORS"}, rows)
		fmt.Fprintln(out, "\nFound "+strconv.Itoa(len(endpoints))+" server(s).")
		return nil
	},
}
