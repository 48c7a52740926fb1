package v5

// V5 control codes. The two-byte control field is a one-byte class suffix
// (0x10) plus a one-byte operation code, stored little-endian on the wire.
// Loggers emit several asynchronous classes on their own schedule; anything
// unrecognized is classified Unknown and tolerated rather than rejected.

import "fmt"

// ControlCode is the full little-endian control field value.
type ControlCode uint16

const (
	CtlResponse  ControlCode = 0x1510 // reply to a client request
	CtlHandshake ControlCode = 0x4110
	CtlData      ControlCode = 0x4210
	CtlInfo      ControlCode = 0x4310
	CtlRequest   ControlCode = 0x4510 // client-originated Modbus request
	CtlHeartbeat ControlCode = 0x4710
	CtlReport    ControlCode = 0x4810
	CtlUnknown   ControlCode = 0x0000
)

// ResponseCodeFor returns the control code a logger uses when replying to
// the given request-class code: the operation byte decremented by 0x30.
func ResponseCodeFor(code ControlCode) ControlCode {
	return code - 0x3000
}

// Classify maps a raw control field value to a known class.
func Classify(raw uint16) ControlCode {
	switch ControlCode(raw) {
	case CtlResponse, CtlHandshake, CtlData, CtlInfo, CtlRequest, CtlHeartbeat, CtlReport:
		return ControlCode(raw)
	default:
		return CtlUnknown
	}
}

// IsAsync reports whether the code is one of the logger-originated classes
// that must be answered with a time response.
func (c ControlCode) IsAsync() bool {
	switch c {
	case CtlHandshake, CtlData, CtlInfo, CtlHeartbeat, CtlReport:
		return true
	}
	return false
}

// String returns a display name for the control code.
func (c ControlCode) String() string {
	switch c {
	case CtlResponse:
		return "response"
	case CtlHandshake:
		return "handshake"
	case CtlData:
		return "data"
	case CtlInfo:
		return "info"
	case CtlRequest:
		return "request"
	case CtlHeartbeat:
		return "heartbeat"
	case CtlReport:
		return "report"
	default:
		return fmt.Sprintf("unknown(0x%04X)", uint16(c))
	}
}
