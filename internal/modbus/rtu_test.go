package modbus

import (
	"bytes"
	"testing"
)

func TestCRC16KnownVector(t *testing.T) {
	// Read holding registers, unit 1, address 0, quantity 10.
	data := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A}
	if crc := CRC16(data); crc != 0xCDC5 {
		t.Errorf("CRC16 = 0x%04X, want 0xCDC5", crc)
	}

	frame := AddCRC(append([]byte(nil), data...))
	if !bytes.Equal(frame[len(frame)-2:], []byte{0xC5, 0xCD}) {
		t.Errorf("AddCRC trailer = % X, want C5 CD", frame[len(frame)-2:])
	}
}

func TestBuildersValidateCRC(t *testing.T) {
	frames := map[string][]byte{
		"ReadCoils":              ReadCoilsRequest(1, 0x0010, 8),
		"ReadDiscreteInputs":     ReadDiscreteInputsRequest(1, 0x0010, 8),
		"ReadHoldingRegisters":   ReadHoldingRegistersRequest(1, 0x0000, 10),
		"ReadInputRegisters":     ReadInputRegistersRequest(2, 0x0100, 4),
		"WriteSingleCoil":        WriteSingleCoilRequest(1, 0x0003, true),
		"WriteSingleRegister":    WriteSingleRegisterRequest(1, 0x0020, 0x1234),
		"WriteMultipleCoils":     WriteMultipleCoilsRequest(1, 0x0000, []bool{true, false, true}),
		"WriteMultipleRegisters": WriteMultipleRegistersRequest(1, 0x0040, []uint16{1, 2, 3}),
	}
	for name, frame := range frames {
		if !ValidateCRC(frame) {
			t.Errorf("%s: frame fails CRC validation: % X", name, frame)
		}
	}
}

func TestBuilderLayout(t *testing.T) {
	frame := ReadHoldingRegistersRequest(1, 20, 4)
	want := AddCRC([]byte{0x01, 0x03, 0x00, 0x14, 0x00, 0x04})
	if !bytes.Equal(frame, want) {
		t.Errorf("frame = % X, want % X", frame, want)
	}

	off := WriteSingleCoilRequest(1, 0, false)
	if off[4] != 0x00 || off[5] != 0x00 {
		t.Errorf("off coil value = % X, want 00 00", off[4:6])
	}
	on := WriteSingleCoilRequest(1, 0, true)
	if on[4] != 0xFF || on[5] != 0x00 {
		t.Errorf("on coil value = % X, want FF 00", on[4:6])
	}
}

func TestPackBitsLSBFirst(t *testing.T) {
	values := []bool{true, false, true, true, false, false, true, false}
	packed := PackBits(values)
	if len(packed) != 1 || packed[0] != 0b01001101 {
		t.Fatalf("PackBits = % X, want 4D", packed)
	}

	unpacked := UnpackBits(packed, 8)
	for i, v := range values {
		if unpacked[i] != v {
			t.Errorf("UnpackBits[%d] = %v, want %v", i, unpacked[i], v)
		}
	}
}

func TestPackBitsMultiByte(t *testing.T) {
	values := make([]bool, 11)
	values[0], values[8], values[10] = true, true, true
	packed := PackBits(values)
	if len(packed) != 2 {
		t.Fatalf("len = %d, want 2", len(packed))
	}
	if packed[0] != 0x01 || packed[1] != 0x05 {
		t.Errorf("packed = % X, want 01 05", packed)
	}
}
