package ui

import (
	"strconv"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/Angelelz/solarmanv5/internal/discover"
)

// CommandSpec is a CLI invocation derived from a discovered stick.
type CommandSpec struct {
	Args []string
}

// BuildReadCommand builds the read invocation for a discovered stick, so
// a scan result can be turned into a copy-pasteable next step.
func BuildReadCommand(stick discover.Logger, addr, count uint16) CommandSpec {
	args := []string{
		"solarmanv5", "read",
		"--address", stick.IP,
		"--serial", strconv.FormatUint(uint64(stick.Serial), 10),
		"--register", strconv.Itoa(int(addr)),
		"--count", strconv.Itoa(int(count)),
	}
	return CommandSpec{Args: args}
}

// FormatCommand renders the invocation for display or copying.
func FormatCommand(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		if strings.ContainsAny(arg, " \t\"'") {
			quoted[i] = strconv.Quote(arg)
		} else {
			quoted[i] = arg
		}
	}
	return strings.Join(quoted, " ")
}

// CopyCommand puts the rendered invocation on the system clipboard.
func CopyCommand(spec CommandSpec) error {
	return clipboard.WriteAll(FormatCommand(spec.Args))
}
