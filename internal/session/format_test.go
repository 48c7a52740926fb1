package session

import (
	"math"
	"testing"
)

func TestApplyFormatSignedBoundaries(t *testing.T) {
	cases := []struct {
		name   string
		values []uint16
		want   float64
	}{
		{"minus one", []uint16{0xFFFF}, -1},
		{"most negative", []uint16{0x8000}, -32768},
		{"below threshold", []uint16{0x7FFF}, 32767},
		{"positive small", []uint16{100}, 100},
		{"two registers minus one", []uint16{0xFFFF, 0xFFFF}, -1},
		{"two registers positive", []uint16{0x0001, 0x0000}, 65536},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ApplyFormat(tc.values, FormatOptions{Signed: true})
			if got != tc.want {
				t.Errorf("ApplyFormat(%v, signed) = %v, want %v", tc.values, got, tc.want)
			}
		})
	}
}

func TestApplyFormatScale(t *testing.T) {
	got := ApplyFormat([]uint16{100}, FormatOptions{Scale: 0.1})
	if math.Abs(got-10.0) > 1e-9 {
		t.Errorf("ApplyFormat(100, scale 0.1) = %v, want 10.0", got)
	}
}

func TestApplyFormatDefaultsPassThrough(t *testing.T) {
	if got := ApplyFormat([]uint16{0xFFFF}, FormatOptions{}); got != 65535 {
		t.Errorf("unsigned 0xFFFF = %v, want 65535", got)
	}
}

func TestApplyFormatMaskAndShift(t *testing.T) {
	// Status word: bits 4-7 carry the mode.
	got := ApplyFormat([]uint16{0x00F0}, FormatOptions{Bitmask: 0xF0, Bitshift: 4})
	if got != 15 {
		t.Errorf("mask 0xF0 shift 4 on 0x00F0 = %v, want 15", got)
	}
}

func TestApplyFormatMultiRegisterAssembly(t *testing.T) {
	// 0x0001_86A0 = 100000 across two registers.
	got := ApplyFormat([]uint16{0x0001, 0x86A0}, FormatOptions{})
	if got != 100000 {
		t.Errorf("assembled value = %v, want 100000", got)
	}
}
