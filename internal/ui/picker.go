package ui

// Interactive selection of a discovered logging stick. One-shot form, no
// persistent TUI: scan output goes in, a chosen stick comes out.

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/Angelelz/solarmanv5/internal/discover"
)

// PickLogger presents the discovered sticks and returns the chosen one.
func PickLogger(found []discover.Logger) (discover.Logger, error) {
	if len(found) == 0 {
		return discover.Logger{}, fmt.Errorf("no loggers to pick from")
	}
	if len(found) == 1 {
		return found[0], nil
	}

	options := make([]huh.Option[int], len(found))
	for i, stick := range found {
		label := fmt.Sprintf("%-15s  serial %-10d  %s", stick.IP, stick.Serial, stick.MAC)
		options[i] = huh.NewOption(label, i)
	}

	var picked int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Select logging stick").
				Description(fmt.Sprintf("%d sticks answered the discovery probe.", len(found))).
				Options(options...).
				Value(&picked),
		),
	)
	if err := form.Run(); err != nil {
		return discover.Logger{}, fmt.Errorf("selection aborted: %w", err)
	}
	return found[picked], nil
}
