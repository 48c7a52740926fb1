package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Angelelz/solarmanv5/internal/discover"
	"github.com/Angelelz/solarmanv5/internal/logging"
	"github.com/Angelelz/solarmanv5/internal/ui"
)

type scanFlags struct {
	interfaceName string
	target        string
	window        time.Duration
	output        string
	pick          bool
	copyCmd       bool
	verbose       bool
}

func newScanCmd() *cobra.Command {
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Discover logging sticks on the local network",
		Long: `Broadcast the discovery probes on UDP port 48899 and list every
logging stick that answers with its address, MAC, and serial.

With --pick, an interactive selector turns the scan result into a
ready-to-run read command; --copy puts it on the clipboard.`,
		Example: `  # Scan the whole local network
  solarmanv5 scan

  # Scan through one interface with a longer window
  solarmanv5 scan --interface eth0 --window 5s

  # Probe one known address directly
  solarmanv5 scan --target 192.168.1.45:48899

  # Pick a stick and copy the matching read command
  solarmanv5 scan --pick --copy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.interfaceName, "interface", "", "Network interface for the broadcast (default: all)")
	cmd.Flags().StringVar(&flags.target, "target", "", "Probe one host:port directly instead of broadcasting")
	cmd.Flags().DurationVar(&flags.window, "window", discover.DefaultWindow, "How long to collect responses")
	cmd.Flags().StringVar(&flags.output, "output", "text", "Output format: text|json")
	cmd.Flags().BoolVar(&flags.pick, "pick", false, "Interactively pick a stick and print a read command")
	cmd.Flags().BoolVar(&flags.copyCmd, "copy", false, "With --pick, copy the command to the clipboard")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Log discovery traffic")

	return cmd
}

func runScan(cmd *cobra.Command, flags *scanFlags) error {
	if flags.output != "text" && flags.output != "json" {
		return fmt.Errorf("invalid output format %q; must be 'text' or 'json'", flags.output)
	}

	level := logging.LevelError
	if flags.verbose {
		level = logging.LevelDebug
	}
	found, err := discover.Run(cmd.Context(), discover.Options{
		Interface: flags.interfaceName,
		Target:    flags.target,
		Window:    flags.window,
		Log:       logging.NewStd(level),
	})
	if err != nil {
		return fmt.Errorf("discovery: %w", err)
	}

	if flags.output == "json" {
		data, err := json.MarshalIndent(found, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		fmt.Fprintf(os.Stdout, "%s\n", data)
		return nil
	}

	if len(found) == 0 {
		fmt.Fprintf(os.Stdout, "No logging sticks found\n")
		return nil
	}
	fmt.Fprintf(os.Stdout, "Found %d logging stick(s):\n\n", len(found))
	for _, stick := range found {
		fmt.Fprintf(os.Stdout, "  %-15s  serial %-10d  %s\n", stick.IP, stick.Serial, stick.MAC)
	}

	if !flags.pick {
		return nil
	}

	stick, err := ui.PickLogger(found)
	if err != nil {
		return err
	}
	spec := ui.BuildReadCommand(stick, 0, 1)
	rendered := ui.FormatCommand(spec.Args)
	fmt.Fprintf(os.Stdout, "\n%s\n", rendered)

	if flags.copyCmd {
		if err := ui.CopyCommand(spec); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Command copied to clipboard\n")
	}
	return nil
}
