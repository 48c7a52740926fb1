package ui

import (
	"strings"
	"testing"

	"github.com/Angelelz/solarmanv5/internal/discover"
)

func TestBuildReadCommand(t *testing.T) {
	stick := discover.Logger{IP: "192.168.1.45", MAC: "E8DB84A0B1C2", Serial: 2712345678}
	spec := BuildReadCommand(stick, 20, 4)

	got := FormatCommand(spec.Args)
	want := "solarmanv5 read --address 192.168.1.45 --serial 2712345678 --register 20 --count 4"
	if got != want {
		t.Errorf("command = %q\nwant      %q", got, want)
	}
}

func TestFormatCommandQuotesSpaces(t *testing.T) {
	got := FormatCommand([]string{"solarmanv5", "--out", "my file.txt"})
	if !strings.Contains(got, `"my file.txt"`) {
		t.Errorf("argument with space should be quoted: %q", got)
	}
}

func TestPickLoggerSingleSkipsPrompt(t *testing.T) {
	stick := discover.Logger{IP: "10.0.0.7", Serial: 99}
	got, err := PickLogger([]discover.Logger{stick})
	if err != nil {
		t.Fatalf("PickLogger: %v", err)
	}
	if got != stick {
		t.Errorf("picked %+v, want %+v", got, stick)
	}
}

func TestPickLoggerEmpty(t *testing.T) {
	if _, err := PickLogger(nil); err == nil {
		t.Error("empty scan result should fail")
	}
}
