package main

// Shared connection flags for the commands that open a session. A logger
// is identified either inline (--address/--serial) or via a named profile
// from the config file; inline flags override profile values.

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Angelelz/solarmanv5/internal/config"
	"github.com/Angelelz/solarmanv5/internal/logging"
	"github.com/Angelelz/solarmanv5/internal/session"
)

type connFlags struct {
	address         string
	serial          uint32
	unit            uint8
	timeout         time.Duration
	autoReconnect   bool
	errorCorrection bool

	configPath string
	profile    string
	verbose    bool
}

func (f *connFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.address, "address", "", "Logger address (host or host:port, default port 8899)")
	cmd.Flags().Uint32Var(&f.serial, "serial", 0, "Logger serial number")
	cmd.Flags().Uint8Var(&f.unit, "unit", 1, "Fieldbus unit id of the downstream device (1-247)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Second, "Connect and response timeout")
	cmd.Flags().BoolVar(&f.autoReconnect, "auto-reconnect", false, "Redial and retransmit if the logger drops the connection")
	cmd.Flags().BoolVar(&f.errorCorrection, "error-correction", false, "Tolerate envelope length-field quirks")
	cmd.Flags().StringVar(&f.configPath, "config", "", "Config file with logger profiles")
	cmd.Flags().StringVar(&f.profile, "profile", "", "Named profile from the config file")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "Log frames and session events")
}

// sessionConfig resolves flags (and optionally a profile) into session
// parameters.
func (f *connFlags) sessionConfig(cmd *cobra.Command) (session.Config, error) {
	var sc session.Config

	if f.configPath != "" || f.profile != "" {
		if f.configPath == "" {
			return sc, fmt.Errorf("--profile requires --config")
		}
		cfg, err := config.Load(f.configPath)
		if err != nil {
			return sc, err
		}
		p, err := cfg.Lookup(f.profile)
		if err != nil {
			return sc, err
		}
		sc = p.SessionConfig()
	}

	// Inline flags override profile values.
	if f.address != "" {
		sc.Address = f.address
	}
	if f.serial != 0 {
		sc.Serial = f.serial
	}
	if cmd.Flags().Changed("unit") || sc.UnitID == 0 {
		sc.UnitID = f.unit
	}
	if cmd.Flags().Changed("timeout") || sc.Timeout == 0 {
		sc.Timeout = f.timeout
	}
	if cmd.Flags().Changed("auto-reconnect") {
		sc.AutoReconnect = f.autoReconnect
	}
	if cmd.Flags().Changed("error-correction") {
		sc.ErrorCorrection = f.errorCorrection
	}

	if sc.Address == "" {
		return sc, fmt.Errorf("logger address is required (--address or a profile)")
	}
	if sc.Serial == 0 {
		return sc, fmt.Errorf("logger serial is required (--serial or a profile)")
	}

	level := logging.LevelInfo
	if f.verbose {
		level = logging.LevelDebug
	}
	sc.Log = logging.NewStd(level)
	return sc, nil
}

// connect opens a session from the resolved flags. The caller owns the
// returned session and must Disconnect it.
func (f *connFlags) connect(cmd *cobra.Command) (*session.Session, error) {
	sc, err := f.sessionConfig(cmd)
	if err != nil {
		return nil, err
	}
	s := session.New(sc)
	ctx, cancel := context.WithTimeout(cmd.Context(), sc.Timeout)
	defer cancel()
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
