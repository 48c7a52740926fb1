package modbus

// Response parsing. A response can only be interpreted against the request
// that produced it: bit reads do not carry the requested quantity in a
// directly usable form, so the original request frame is a required input.

import (
	"encoding/binary"
	"fmt"
)

// ParseResponse validates an RTU response frame against its original request
// frame and decodes it into values:
//
//   - coil/discrete reads: one 0/1 value per requested bit, LSB-first
//   - register reads: one value per 16-bit register
//   - single writes: the echoed written value, as a one-element slice
//   - multiple writes: the echoed quantity written, as a one-element slice
//
// Device exceptions surface as *FieldbusError, CRC failures as *CRCError.
func ParseResponse(resp, req []byte) ([]uint16, error) {
	if len(resp) < MinResponseSize {
		return nil, fmt.Errorf("modbus response too short: %d bytes (minimum %d)", len(resp), MinResponseSize)
	}
	if len(req) < 2 {
		return nil, fmt.Errorf("modbus request too short: %d bytes (minimum 2)", len(req))
	}

	reqFC := FunctionCode(req[1])
	if resp[1] == byte(reqFC)|ExceptionBit {
		return nil, &FieldbusError{Function: reqFC, Code: ExceptionCode(resp[2])}
	}

	if !ValidateCRC(resp) {
		got := binary.LittleEndian.Uint16(resp[len(resp)-CRCSize:])
		return nil, &CRCError{Got: got, Want: CRC16(resp[:len(resp)-CRCSize])}
	}

	payload := resp[2 : len(resp)-CRCSize]
	switch FunctionCode(resp[1]) {
	case FcReadCoils, FcReadDiscreteInputs:
		if len(payload) < 1 {
			return nil, fmt.Errorf("modbus bit read response missing byte count")
		}
		byteCount := int(payload[0])
		if len(payload) < 1+byteCount {
			return nil, fmt.Errorf("modbus bit read response truncated: have %d data bytes, want %d", len(payload)-1, byteCount)
		}
		if len(req) < 6 {
			return nil, fmt.Errorf("modbus bit read request too short to carry a quantity")
		}
		quantity := int(binary.BigEndian.Uint16(req[4:6]))
		bits := UnpackBits(payload[1:1+byteCount], quantity)
		values := make([]uint16, quantity)
		for i, b := range bits {
			if b {
				values[i] = 1
			}
		}
		return values, nil

	case FcReadHoldingRegisters, FcReadInputRegisters:
		if len(payload) < 1 {
			return nil, fmt.Errorf("modbus register read response missing byte count")
		}
		byteCount := int(payload[0])
		if len(payload) < 1+byteCount {
			return nil, fmt.Errorf("modbus register read response truncated: have %d data bytes, want %d", len(payload)-1, byteCount)
		}
		values := make([]uint16, byteCount/2)
		for i := range values {
			values[i] = binary.BigEndian.Uint16(payload[1+2*i : 3+2*i])
		}
		return values, nil

	case FcWriteSingleCoil, FcWriteSingleRegister:
		// Payload echoes [BE addr][BE value]; return the written value.
		if len(payload) < 4 {
			return nil, fmt.Errorf("modbus write echo truncated: %d bytes", len(payload))
		}
		return []uint16{binary.BigEndian.Uint16(payload[2:4])}, nil

	case FcWriteMultipleCoils, FcWriteMultipleRegisters:
		// Payload echoes [BE addr][BE quantity]; return the quantity written.
		if len(payload) < 4 {
			return nil, fmt.Errorf("modbus write echo truncated: %d bytes", len(payload))
		}
		return []uint16{binary.BigEndian.Uint16(payload[2:4])}, nil

	default:
		return nil, fmt.Errorf("unsupported modbus function code 0x%02X", resp[1])
	}
}
