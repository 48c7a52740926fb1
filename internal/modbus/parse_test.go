package modbus

import (
	"errors"
	"strings"
	"testing"
)

// respond builds a valid response frame from unit, fc and payload bytes.
func respond(unit uint8, fc byte, payload ...byte) []byte {
	frame := append([]byte{unit, fc}, payload...)
	return AddCRC(frame)
}

func TestParseExceptionResponse(t *testing.T) {
	req := ReadHoldingRegistersRequest(1, 0, 10)
	resp := respond(1, 0x83, 0x02)

	_, err := ParseResponse(resp, req)
	var fbErr *FieldbusError
	if !errors.As(err, &fbErr) {
		t.Fatalf("err = %v, want *FieldbusError", err)
	}
	if fbErr.Code != ExceptionIllegalDataAddress {
		t.Errorf("Code = %d, want %d", fbErr.Code, ExceptionIllegalDataAddress)
	}
	if !strings.Contains(err.Error(), "IllegalDataAddress") {
		t.Errorf("Error() = %q, want it to name IllegalDataAddress", err.Error())
	}
}

func TestParseUnknownExceptionCode(t *testing.T) {
	req := ReadHoldingRegistersRequest(1, 0, 1)
	resp := respond(1, 0x83, 0x0B)

	_, err := ParseResponse(resp, req)
	if err == nil || !strings.Contains(err.Error(), "unknown exception 11") {
		t.Errorf("err = %v, want unknown exception 11", err)
	}
}

func TestParseRegisterRead(t *testing.T) {
	req := ReadHoldingRegistersRequest(1, 20, 4)
	resp := respond(1, 0x03, 0x08, 0x00, 0x64, 0x00, 0x65, 0x00, 0x66, 0x00, 0x67)

	values, err := ParseResponse(resp, req)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	want := []uint16{100, 101, 102, 103}
	if len(values) != len(want) {
		t.Fatalf("len = %d, want %d", len(values), len(want))
	}
	for i, v := range want {
		if values[i] != v {
			t.Errorf("values[%d] = %d, want %d", i, values[i], v)
		}
	}
}

func TestParseCoilRead(t *testing.T) {
	req := ReadCoilsRequest(1, 0, 8)
	resp := respond(1, 0x01, 0x01, 0b01001101)

	values, err := ParseResponse(resp, req)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	want := []uint16{1, 0, 1, 1, 0, 0, 1, 0}
	for i, v := range want {
		if values[i] != v {
			t.Errorf("values[%d] = %d, want %d", i, values[i], v)
		}
	}
}

func TestParseCoilReadPartialQuantity(t *testing.T) {
	// Quantity 3 occupies a single byte; only the low three bits count.
	req := ReadCoilsRequest(1, 0, 3)
	resp := respond(1, 0x01, 0x01, 0b00000101)

	values, err := ParseResponse(resp, req)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("len = %d, want 3", len(values))
	}
	if values[0] != 1 || values[1] != 0 || values[2] != 1 {
		t.Errorf("values = %v, want [1 0 1]", values)
	}
}

func TestParseWriteEchoes(t *testing.T) {
	singleReq := WriteSingleRegisterRequest(1, 0x0020, 0x1234)
	singleResp := respond(1, 0x06, 0x00, 0x20, 0x12, 0x34)
	values, err := ParseResponse(singleResp, singleReq)
	if err != nil {
		t.Fatalf("single write: %v", err)
	}
	if len(values) != 1 || values[0] != 0x1234 {
		t.Errorf("single write echo = %v, want [0x1234]", values)
	}

	multiReq := WriteMultipleRegistersRequest(1, 0x0040, []uint16{1, 2, 3})
	multiResp := respond(1, 0x10, 0x00, 0x40, 0x00, 0x03)
	values, err = ParseResponse(multiResp, multiReq)
	if err != nil {
		t.Fatalf("multi write: %v", err)
	}
	if len(values) != 1 || values[0] != 3 {
		t.Errorf("multi write echo = %v, want [3]", values)
	}
}

func TestParseCRCMismatch(t *testing.T) {
	req := ReadHoldingRegistersRequest(1, 0, 1)
	resp := respond(1, 0x03, 0x02, 0x00, 0x64)
	resp[len(resp)-1] ^= 0xFF

	_, err := ParseResponse(resp, req)
	var crcErr *CRCError
	if !errors.As(err, &crcErr) {
		t.Fatalf("err = %v, want *CRCError", err)
	}
}

func TestParseTooShort(t *testing.T) {
	req := ReadHoldingRegistersRequest(1, 0, 1)
	if _, err := ParseResponse([]byte{0x01, 0x03, 0x00}, req); err == nil {
		t.Fatal("expected error for short response")
	}
}

func TestParseUnsupportedFunction(t *testing.T) {
	req := RawRequest(1, []byte{0x2B, 0x0E, 0x01, 0x00})
	resp := respond(1, 0x2B, 0x0E, 0x01, 0x00)
	if _, err := ParseResponse(resp, req); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("err = %v, want unsupported function error", err)
	}
}
