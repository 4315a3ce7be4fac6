package protocol

import (
	"errors"
	"fmt"
	"strconv"
)

// Serial line parameters (9600 8N1).
const (
	BaudRate = 9600
	DataBits = 8
	StopBits = 1
)

// Command is one of the generic operations a projector session exposes.
type Command int

const (
	// PowerOn turns the lamp on.
	PowerOn Command = iota + 1
	// PowerOff puts the projector into standby.
	PowerOff
	// PowerQuery reports whether the projector is on.
	PowerQuery
	// SourceQuery reports the active input source.
	SourceQuery
	// SourceSet switches to another input source.
	SourceSet
)

// Raw command texts, without the line terminator.
const (
	rawPowerOn     = "~0000 1"
	rawPowerOff    = "~0000 0"
	rawPowerQuery  = "~00124 1"
	rawSourceQuery = "~00121 1"
	rawSourceSet   = "~0012 "
)

var (
	// ErrUnknownCommand is returned for a value outside the Command enumeration.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidSourceCode is returned when a source-set code is not numeric.
	ErrInvalidSourceCode = errors.New("invalid source code")
)

var commandNames = map[Command]string{
	PowerOn:     "power-on",
	PowerOff:    "power-off",
	PowerQuery:  "power-query",
	SourceQuery: "source-query",
	SourceSet:   "source-set",
}

// Commands returns every valid command in declaration order.
func Commands() []Command {
	return []Command{PowerOn, PowerOff, PowerQuery, SourceQuery, SourceSet}
}

// ParseCommand resolves a command name such as "power-on".
func ParseCommand(name string) (Command, error) {
	for cmd, n := range commandNames {
		if n == name {
			return cmd, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// Valid reports whether c is one of the five recognized verbs.
func (c Command) Valid() bool {
	_, ok := commandNames[c]
	return ok
}

// String returns the command name.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// IsQuery reports whether the projector answers c with an OK payload.
func (c Command) IsQuery() bool {
	return c == PowerQuery || c == SourceQuery
}

// Raw builds the command text for c. The code argument is the set-direction
// source code and is only used by SourceSet.
func (c Command) Raw(code string) (string, error) {
	switch c {
	case PowerOn:
		return rawPowerOn, nil
	case PowerOff:
		return rawPowerOff, nil
	case PowerQuery:
		return rawPowerQuery, nil
	case SourceQuery:
		return rawSourceQuery, nil
	case SourceSet:
		if _, err := strconv.ParseUint(code, 10, 16); err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidSourceCode, code)
		}
		return rawSourceSet + code, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownCommand, int(c))
	}
}
