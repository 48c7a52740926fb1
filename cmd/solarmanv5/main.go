package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "solarmanv5",
		Short: "Client for Solarman V5 solar data logging sticks",
		Long: `solarmanv5 talks Modbus RTU to solar inverters through the Solarman V5
TCP envelope their WiFi logging sticks speak on port 8899.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newReadCmd())
	rootCmd.AddCommand(newWriteCmd())
	rootCmd.AddCommand(newRawCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newPcapDumpCmd())
	rootCmd.AddCommand(newConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
