package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestParseHexString(t *testing.T) {
	cases := []struct {
		in   string
		want []byte
	}{
		{"03 00 14 00 04", []byte{0x03, 0x00, 0x14, 0x00, 0x04}},
		{"a5:17:00", []byte{0xA5, 0x17, 0x00}},
		{"0x03 0x14", []byte{0x03, 0x14}},
		{"", nil},
	}
	for _, tc := range cases {
		got, err := parseHexString(tc.in)
		if err != nil {
			t.Errorf("parseHexString(%q): %v", tc.in, err)
			continue
		}
		if !bytes.Equal(got, tc.want) {
			t.Errorf("parseHexString(%q) = % X, want % X", tc.in, got, tc.want)
		}
	}
	if _, err := parseHexString("zz"); err == nil {
		t.Error("non-hex input should fail")
	}
}

func newTestCmd(flags *connFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	flags.register(cmd)
	return cmd
}

func TestSessionConfigRequiresAddressAndSerial(t *testing.T) {
	flags := &connFlags{}
	cmd := newTestCmd(flags)
	if _, err := flags.sessionConfig(cmd); err == nil {
		t.Error("missing address should fail")
	}

	flags = &connFlags{}
	cmd = newTestCmd(flags)
	cmd.SetArgs([]string{"--address", "10.0.0.1"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := flags.sessionConfig(cmd); err == nil {
		t.Error("missing serial should fail")
	}
}

func TestSessionConfigFlagsOverrideProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := `
default_profile: garage
profiles:
  garage:
    address: 192.168.1.45
    serial: 2712345678
    unit: 3
    timeout_seconds: 30
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flags := &connFlags{}
	cmd := newTestCmd(flags)
	cmd.SetArgs([]string{"--config", path, "--unit", "7", "--timeout", "5s"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	sc, err := flags.sessionConfig(cmd)
	if err != nil {
		t.Fatalf("sessionConfig: %v", err)
	}
	if sc.Address != "192.168.1.45" {
		t.Errorf("address = %q, want profile value", sc.Address)
	}
	if sc.Serial != 2712345678 {
		t.Errorf("serial = %d, want profile value", sc.Serial)
	}
	if sc.UnitID != 7 {
		t.Errorf("unit = %d, want flag override 7", sc.UnitID)
	}
	if sc.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want flag override 5s", sc.Timeout)
	}
}
