package inspect

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/Angelelz/solarmanv5/internal/modbus"
	"github.com/Angelelz/solarmanv5/internal/v5"
)

func sampleResponse(t *testing.T) []byte {
	t.Helper()
	pdu := modbus.AddCRC([]byte{0x01, 0x03, 0x02, 0x00, 0x64})
	body := 14 + len(pdu)
	frame := make([]byte, v5.HeaderSize+body+v5.TrailerSize)
	frame[0] = v5.FrameStart
	binary.LittleEndian.PutUint16(frame[1:3], uint16(body))
	binary.LittleEndian.PutUint16(frame[3:5], uint16(v5.CtlResponse))
	frame[5] = 0x17
	binary.LittleEndian.PutUint32(frame[7:11], 2712345678)
	frame[11] = v5.FrameTypeInverter
	copy(frame[25:], pdu)
	frame[len(frame)-2] = v5.ComputeChecksum(frame)
	frame[len(frame)-1] = v5.FrameEnd
	return frame
}

func TestDescribeWellFormedFrame(t *testing.T) {
	out := Describe(sampleResponse(t), DefaultStyles)

	for _, want := range []string{
		"start", "0xA5",
		"control", "response",
		"serial", "2712345678",
		"read holding registers",
		"end", "0x15",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestDescribeTruncatedFrame(t *testing.T) {
	out := Describe([]byte{0xA5, 0x01, 0x02}, DefaultStyles)
	if !strings.Contains(out, "truncated") {
		t.Errorf("output should flag truncation\n%s", out)
	}
}

func TestDescribeExceptionPDU(t *testing.T) {
	pdu := modbus.AddCRC([]byte{0x01, 0x83, 0x02})
	out := describePDU(pdu, DefaultStyles)
	if !strings.Contains(out, "IllegalDataAddress") {
		t.Errorf("output missing exception name\n%s", out)
	}
}

func TestHexDump(t *testing.T) {
	out := HexDump([]byte("solarman"), 16)
	if !strings.Contains(out, "0000:") {
		t.Errorf("missing offset column: %q", out)
	}
	if !strings.Contains(out, "|solarman|") {
		t.Errorf("missing ASCII column: %q", out)
	}
	if !strings.Contains(out, "73 6f 6c") {
		t.Errorf("missing hex bytes: %q", out)
	}
}

func TestHexDumpNonPrintable(t *testing.T) {
	out := HexDump([]byte{0xA5, 0x00, 0x15}, 8)
	if !strings.Contains(out, "|...|") {
		t.Errorf("non-printable bytes should render as dots: %q", out)
	}
}
