package modbus

// Modbus RTU protocol types.
//
// Frames have the shape [UnitID(1)] [FC(1)] [Data(N)] [CRC-16(2, LE)].
// This is the inner fieldbus protocol tunneled by the V5 envelope; only the
// RTU framing is relevant there (no MBAP, no ASCII).

import "fmt"

// FunctionCode represents a Modbus function code.
type FunctionCode uint8

const (
	FcReadCoils              FunctionCode = 0x01
	FcReadDiscreteInputs     FunctionCode = 0x02
	FcReadHoldingRegisters   FunctionCode = 0x03
	FcReadInputRegisters     FunctionCode = 0x04
	FcWriteSingleCoil        FunctionCode = 0x05
	FcWriteSingleRegister    FunctionCode = 0x06
	FcWriteMultipleCoils     FunctionCode = 0x0F
	FcWriteMultipleRegisters FunctionCode = 0x10
)

// ExceptionBit is set in the function code of an exception response.
const ExceptionBit = 0x80

// ExceptionCode represents a device-reported Modbus exception code.
type ExceptionCode uint8

const (
	ExceptionIllegalFunction     ExceptionCode = 0x01
	ExceptionIllegalDataAddress  ExceptionCode = 0x02
	ExceptionIllegalDataValue    ExceptionCode = 0x03
	ExceptionServerDeviceFailure ExceptionCode = 0x04
	ExceptionAcknowledge         ExceptionCode = 0x05
	ExceptionServerDeviceBusy    ExceptionCode = 0x06
)

// String returns the canonical name for the exception code. Codes outside
// the 1-6 range are reported numerically rather than rejected.
func (e ExceptionCode) String() string {
	switch e {
	case ExceptionIllegalFunction:
		return "IllegalFunction"
	case ExceptionIllegalDataAddress:
		return "IllegalDataAddress"
	case ExceptionIllegalDataValue:
		return "IllegalDataValue"
	case ExceptionServerDeviceFailure:
		return "ServerDeviceFailure"
	case ExceptionAcknowledge:
		return "Acknowledge"
	case ExceptionServerDeviceBusy:
		return "ServerDeviceBusy"
	default:
		return fmt.Sprintf("unknown exception %d", uint8(e))
	}
}

// FieldbusError is a device-reported exception response.
type FieldbusError struct {
	Function FunctionCode // original (unflagged) function code
	Code     ExceptionCode
}

func (e *FieldbusError) Error() string {
	return fmt.Sprintf("modbus exception (func %02X): %s", uint8(e.Function), e.Code)
}

// CRCError is a CRC-16 mismatch on a received frame. It is a distinct type
// so the session can attempt the double-CRC correction before giving up.
type CRCError struct {
	Got  uint16
	Want uint16
}

func (e *CRCError) Error() string {
	return fmt.Sprintf("modbus CRC mismatch: got 0x%04X, want 0x%04X", e.Got, e.Want)
}

// MinResponseSize is the smallest valid RTU response:
// unit + fc + one payload byte + crc(2).
const MinResponseSize = 5

// CRCSize is the RTU CRC trailer size.
const CRCSize = 2
