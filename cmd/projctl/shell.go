package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/muurk/projctl/internal/config"
	"github.com/muurk/projctl/internal/projector"
	"github.com/muurk/projctl/internal/protocol"
	"github.com/muurk/projctl/internal/ui"
)

const historyFileName = "shell_history"

func init() {
	rootCmd.AddCommand(shellCmd)
}

// shellCommand is one verb understood by the interactive shell
type shellCommand struct {
	Usage       string
	Description string
	MinArgs     int
	Run         func(s *projector.Session, arg string) (protocol.Command, projector.Result, error)
}

func send(c protocol.Command) func(*projector.Session, string) (protocol.Command, projector.Result, error) {
	return func(s *projector.Session, arg string) (protocol.Command, projector.Result, error) {
		r, err := s.Send(c, arg)
		return c, r, err
	}
}

var shellCommands = map[string]shellCommand{
	"on":     {Usage: "on", Description: "Power on", Run: send(protocol.PowerOn)},
	"off":    {Usage: "off", Description: "Power off", Run: send(protocol.PowerOff)},
	"status": {Usage: "status", Description: "Show power state", Run: send(protocol.PowerQuery)},
	"source": {Usage: "source", Description: "Show the active input", Run: send(protocol.SourceQuery)},
	"set":    {Usage: "set <source>", Description: "Switch input (names may contain spaces)", MinArgs: 1, Run: send(protocol.SourceSet)},
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive session with one projector",
	Long: `Open one session and read commands from the terminal.

The projector is verified once when the shell starts. Type "help" for the
list of commands and Ctrl-D to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *projector.Session, t target) error {
			p := ui.NewPrinter(cmd.OutOrStdout())
			p.PrintHeader(ui.NewHeader("projector shell", "projctl shell",
				ui.Detail{Key: "Port", Value: t.Port},
				ui.Detail{Key: "Model", Value: t.Model},
				ui.Detail{Key: "Timeout", Value: t.Timeout.String()},
			))
			return runShell(s, p)
		})
	},
}

func runShell(s *projector.Session, p *ui.Printer) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true) // ^C cancels current line
	line.SetCompleter(func(input string) []string {
		return completeShell(s, input)
	})

	historyPath := shellHistoryPath()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = line.ReadHistory(f)
			_ = f.Close()
		}
	}

	p.Println(`Interactive mode: type "help" for commands, Ctrl-D to quit.`)
	for {
		input, err := line.Prompt("projctl> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			p.Newline()
			break
		}
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if quit := execShellLine(s, p, input); quit {
			break
		}
	}

	if historyPath != "" {
		if f, err := os.Create(historyPath); err == nil {
			_, _ = line.WriteHistory(f)
			_ = f.Close()
		}
	}
	return nil
}

// execShellLine runs one line of input and reports whether the shell should exit.
func execShellLine(s *projector.Session, p *ui.Printer, input string) bool {
	name, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	name = strings.ToLower(name)
	arg = strings.TrimSpace(arg)

	switch name {
	case "quit", "exit":
		return true
	case "help":
		printShellHelp(p)
		return false
	case "sources":
		for _, src := range s.Sources() {
			p.Println("  " + src)
		}
		return false
	}

	c, ok := shellCommands[name]
	if !ok {
		p.Println(fmt.Sprintf("unknown command %q (type \"help\")", name))
		return false
	}
	if c.MinArgs > 0 && arg == "" {
		p.Println("usage: " + c.Usage)
		return false
	}

	cmd, r, err := c.Run(s, arg)
	if err != nil {
		p.PrintError(cmd.String(), err)
		// A failed session answers nothing but SessionFailed from here on
		return s.State() == projector.StateFailed
	}
	p.PrintResult(ui.NewCommandResult(cmd, r))
	return false
}

func printShellHelp(p *ui.Printer) {
	names := make([]string, 0, len(shellCommands))
	for name := range shellCommands {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names)+3)
	for _, name := range names {
		c := shellCommands[name]
		rows = append(rows, []string{c.Usage, c.Description})
	}
	rows = append(rows,
		[]string{"sources", "List source names for this model"},
		[]string{"help", "Show this help"},
		[]string{"quit", "Leave the shell"},
	)
	p.PrintTable([]string{"COMMAND", "DESCRIPTION"}, rows)
}

// completeShell completes command names, and source names after "set ".
func completeShell(s *projector.Session, input string) []string {
	lower := strings.ToLower(input)
	var out []string

	if strings.HasPrefix(lower, "set ") {
		prefix := strings.TrimLeft(input[len("set "):], " ")
		for _, src := range s.Sources() {
			if strings.HasPrefix(strings.ToLower(src), strings.ToLower(prefix)) {
				out = append(out, "set "+src)
			}
		}
		return out
	}

	for _, name := range []string{"exit", "help", "off", "on", "quit", "set", "source", "sources", "status"} {
		if strings.HasPrefix(name, lower) {
			out = append(out, name)
		}
	}
	return out
}

func shellHistoryPath() string {
	dir, err := config.GetConfigDir()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, historyFileName)
}
