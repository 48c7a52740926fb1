package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Angelelz/solarmanv5/internal/inspect"
)

type decodeFlags struct {
	hexInput string
}

func newDecodeCmd() *cobra.Command {
	flags := &decodeFlags{}

	cmd := &cobra.Command{
		Use:   "decode [hex...]",
		Short: "Decode a captured V5 frame into its fields",
		Long: `Break a raw envelope frame down field by field: markers, length,
control code, sequence, serial, checksum, and the embedded fieldbus
frame. Useful when staring at captures or logger quirks.

The frame comes from the arguments, --hex, or stdin (one frame per
line).`,
		Example: `  # Decode an inline frame
  solarmanv5 decode a5 17 00 10 45 ...

  # Decode frames piped in from a capture
  cat frames.txt | solarmanv5 decode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.hexInput, "hex", "", "Frame as a hex string")

	return cmd
}

func runDecode(flags *decodeFlags, args []string) error {
	if flags.hexInput != "" || len(args) > 0 {
		input := flags.hexInput
		if input == "" {
			input = strings.Join(args, " ")
		}
		frame, err := parseHexString(input)
		if err != nil {
			return fmt.Errorf("parse hex: %w", err)
		}
		fmt.Fprint(os.Stdout, inspect.Describe(frame, inspect.DefaultStyles))
		return nil
	}

	// No inline frame: read one frame per line from stdin.
	scanner := bufio.NewScanner(os.Stdin)
	decoded := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		frame, err := parseHexString(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping line: %v\n", err)
			continue
		}
		if decoded > 0 {
			fmt.Fprintln(os.Stdout)
		}
		fmt.Fprint(os.Stdout, inspect.Describe(frame, inspect.DefaultStyles))
		decoded++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if decoded == 0 {
		return fmt.Errorf("no frame given (arguments, --hex, or stdin)")
	}
	return nil
}
