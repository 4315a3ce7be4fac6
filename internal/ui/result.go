package ui

import (
	"fmt"
	"strings"

	"github.com/muurk/projctl/internal/projector"
	"github.com/muurk/projctl/internal/protocol"
)

// ResultType indicates how a command ended
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultRejected
)

// Detail is one key/value row inside a result box. Rows render in order.
type Detail struct {
	Key   string
	Value string
}

// Result represents a result box (success, failure, or rejected)
type Result struct {
	Type            ResultType // Success, failure, or rejected
	Title           string     // e.g., "power-status"
	Details         []Detail   // Rows to display
	Error           error      // Error (for failure results)
	Troubleshooting []string   // Troubleshooting tips (for failure results)
	Width           int        // Terminal width
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details ...Detail) *Result {
	return &Result{
		Type:    ResultSuccess,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, troubleshooting []string) *Result {
	return &Result{
		Type:            ResultFailure,
		Title:           title,
		Error:           err,
		Troubleshooting: troubleshooting,
		Width:           GetTerminalWidth(),
	}
}

// NewRejectedResult creates a box for a command the projector refused
func NewRejectedResult(title string, details ...Detail) *Result {
	return &Result{
		Type:    ResultRejected,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// NewCommandResult builds the box for a decoded projector reply.
// An absent result means the projector answered F.
func NewCommandResult(cmd protocol.Command, r projector.Result) *Result {
	if r.IsAbsent() {
		return NewRejectedResult(cmd.String(), Detail{Key: "Reply", Value: "rejected by projector"})
	}
	return NewSuccessResult(cmd.String(), describe(cmd, r))
}

// NewErrorResult builds a failure box, filling the troubleshooting
// section from the error's type.
func NewErrorResult(title string, err error) *Result {
	return NewFailureResult(title, err, hintLines(projector.TroubleshootingHint(err)))
}

// hintLines splits a multi-line hint into bullet items, dropping the
// hint's own heading since the box renders one.
func hintLines(hint string) []string {
	var tips []string
	for _, line := range strings.Split(hint, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "• ")
		if line == "" || line == "Troubleshooting:" {
			continue
		}
		tips = append(tips, line)
	}
	return tips
}

func describe(cmd protocol.Command, r projector.Result) Detail {
	switch cmd {
	case protocol.PowerQuery:
		if r.True() {
			return Detail{Key: "Power", Value: "on"}
		}
		return Detail{Key: "Power", Value: "off"}
	case protocol.SourceQuery:
		return Detail{Key: "Source", Value: r.String()}
	case protocol.SourceSet, protocol.PowerOn, protocol.PowerOff:
		return Detail{Key: "Reply", Value: "accepted"}
	default:
		return Detail{Key: "Result", Value: r.String()}
	}
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail appends a detail row
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Detail{Key: key, Value: value})
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	width := clampWidth(r.Width)

	switch r.Type {
	case ResultFailure:
		return r.renderFailure(width)
	case ResultRejected:
		title := WarningTitleStyle.Render(fmt.Sprintf("   %s  REJECTED  ─  %s", RejectedMarker, r.Title))
		return boxStyle(width, WarningColor).Render(r.withDetails(title))
	default:
		title := SuccessTitleStyle.Render(fmt.Sprintf("   %s  OK  ─  %s", SuccessMarker, r.Title))
		return boxStyle(width, SuccessColor).Render(r.withDetails(title))
	}
}

func (r *Result) withDetails(title string) string {
	lines := []string{"", title, ""}
	for _, d := range r.Details {
		keyStyled := ResultKeyStyle.Render(fmt.Sprintf("   %s:", d.Key))
		lines = append(lines, keyStyled+" "+ResultValueStyle.Render(d.Value))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// renderFailure renders a failure result box
func (r *Result) renderFailure(width int) string {
	lines := []string{
		"",
		ErrorTitleStyle.Render(fmt.Sprintf("   %s  FAILED  ─  %s", FailureMarker, r.Title)),
		"",
	}

	if r.Error != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+r.Error.Error()), "")
	}

	if len(r.Troubleshooting) > 0 {
		lines = append(lines, r.renderTroubleshootingBox(width), "")
	}

	return boxStyle(width, ErrorColor).Render(strings.Join(lines, "\n"))
}

// renderTroubleshootingBox renders the inner troubleshooting box
func (r *Result) renderTroubleshootingBox(width int) string {
	lines := []string{TroubleshootingTitleStyle.Render("Troubleshooting:"), ""}
	for _, tip := range r.Troubleshooting {
		lines = append(lines, TroubleshootingItemStyle.Render("  • "+tip))
	}
	return TroubleshootingBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}
