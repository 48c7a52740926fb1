package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Angelelz/solarmanv5/internal/logging"
)

type rawFlags struct {
	conn  connFlags
	pdu   string
	parse bool
}

func newRawCmd() *cobra.Command {
	flags := &rawFlags{}

	cmd := &cobra.Command{
		Use:   "raw",
		Short: "Send an arbitrary fieldbus PDU through the envelope",
		Long: `Tunnel a hand-built fieldbus PDU to the inverter, for function codes
the structured commands do not cover.

The PDU is the function code plus payload as hex; the unit id and CRC
are added automatically. The response is printed as raw hex, or run
through the standard parser with --parse.`,
		Example: `  # Read holding registers 20-23, spelled out by hand (FC 3)
  solarmanv5 raw --address 192.168.1.45 --serial 2712345678 \
    --pdu "03 00 14 00 04"

  # Same, but decode the response into values
  solarmanv5 raw --profile garage --config solarmanv5.yaml \
    --pdu "03 00 14 00 04" --parse`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRaw(cmd, flags)
		},
	}

	flags.conn.register(cmd)
	cmd.Flags().StringVar(&flags.pdu, "pdu", "", "Fieldbus PDU as hex (function code + payload)")
	cmd.Flags().BoolVar(&flags.parse, "parse", false, "Parse the response instead of printing raw hex")

	return cmd
}

func runRaw(cmd *cobra.Command, flags *rawFlags) error {
	pdu, err := parseHexString(flags.pdu)
	if err != nil {
		return fmt.Errorf("parse --pdu: %w", err)
	}
	if len(pdu) == 0 {
		return fmt.Errorf("--pdu is required")
	}

	s, err := flags.conn.connect(cmd)
	if err != nil {
		return err
	}
	defer s.Disconnect()

	ctx := cmd.Context()

	if flags.parse {
		values, err := s.SendRawParsed(ctx, pdu)
		if err != nil {
			return fmt.Errorf("raw exchange: %w", err)
		}
		for i, v := range values {
			fmt.Fprintf(os.Stdout, "%3d: %6d (0x%04X)\n", i, v, v)
		}
		return nil
	}

	resp, err := s.SendRaw(ctx, pdu)
	if err != nil {
		return fmt.Errorf("raw exchange: %w", err)
	}
	fmt.Fprintf(os.Stdout, "%s\n", logging.Hex(resp))
	return nil
}

// parseHexString decodes hex with optional whitespace, colon, or 0x noise.
func parseHexString(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", "\t", "", "\n", "", ":", "", "0x", "", "0X", "").Replace(s)
	if clean == "" {
		return nil, nil
	}
	return hex.DecodeString(clean)
}
