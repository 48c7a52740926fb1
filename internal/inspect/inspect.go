package inspect

// Human-readable breakdown of V5 envelope frames for diagnostics. This is
// presentation only; it reuses the envelope accessors and never carries
// protocol-correctness logic of its own.

import (
	"fmt"
	"strings"

	"github.com/Angelelz/solarmanv5/internal/modbus"
	"github.com/Angelelz/solarmanv5/internal/v5"
)

// Describe renders a field-by-field breakdown of a raw envelope frame,
// followed by a hex dump. It tolerates malformed frames and flags what it
// finds instead of failing.
func Describe(raw []byte, s Styles) string {
	var sb strings.Builder
	sb.WriteString(s.Header.Render(fmt.Sprintf("V5 frame, %d bytes", len(raw))))
	sb.WriteString("\n")

	f := v5.Frame(raw)
	if !f.Valid() {
		sb.WriteString(s.Error.Render(fmt.Sprintf("truncated: %d bytes, minimum %d", len(raw), v5.MinFrameSize)))
		sb.WriteString("\n")
		sb.WriteString(HexDump(raw, 16))
		return sb.String()
	}

	field := func(label, value string, ok bool) {
		sb.WriteString(s.Label.Render(label))
		if ok {
			sb.WriteString(s.Value.Render(value))
		} else {
			sb.WriteString(s.Error.Render(value))
		}
		sb.WriteString("\n")
	}

	field("start", fmt.Sprintf("0x%02X", f.Start()), f.Start() == v5.FrameStart)
	declared := int(f.DeclaredLength())
	field("length", fmt.Sprintf("%d (frame %d bytes)", declared, len(raw)),
		declared+v5.MinFrameSize == len(raw))
	ctl := f.Control()
	field("control", fmt.Sprintf("0x%04X %s", uint16(ctl), ctl),
		v5.Classify(uint16(ctl)) != v5.CtlUnknown)
	field("sequence", fmt.Sprintf("0x%02X (field 0x%04X)", f.Sequence(), f.SequenceField()), true)
	field("serial", fmt.Sprintf("%d", f.Serial()), true)
	field("frame type", fmt.Sprintf("0x%02X", f.FrameType()), true)

	sum := v5.ComputeChecksum(raw)
	field("checksum", fmt.Sprintf("0x%02X (computed 0x%02X)", f.Checksum(), sum), sum == f.Checksum())
	field("end", fmt.Sprintf("0x%02X", f.End()), f.End() == v5.FrameEnd)

	if pdu := f.PDU(); len(pdu) > 0 {
		sb.WriteString(s.Header.Render("embedded fieldbus frame"))
		sb.WriteString("\n")
		sb.WriteString(describePDU(pdu, s))
	}

	sb.WriteString(s.Dim.Render("raw"))
	sb.WriteString("\n")
	sb.WriteString(HexDump(raw, 16))
	return sb.String()
}

func describePDU(pdu []byte, s Styles) string {
	var sb strings.Builder
	field := func(label, value string, ok bool) {
		sb.WriteString(s.Label.Render(label))
		if ok {
			sb.WriteString(s.Value.Render(value))
		} else {
			sb.WriteString(s.Error.Render(value))
		}
		sb.WriteString("\n")
	}

	if len(pdu) < 2 {
		field("fieldbus", fmt.Sprintf("%d bytes, too short to decode", len(pdu)), false)
		return sb.String()
	}

	field("unit", fmt.Sprintf("%d", pdu[0]), true)
	fc := pdu[1]
	if fc&modbus.ExceptionBit != 0 {
		field("function", fmt.Sprintf("0x%02X (exception to 0x%02X)", fc, fc&^modbus.ExceptionBit), false)
		if len(pdu) >= 3 {
			field("exception", modbus.ExceptionCode(pdu[2]).String(), false)
		}
	} else {
		field("function", fmt.Sprintf("0x%02X %s", fc, functionName(modbus.FunctionCode(fc))), true)
	}
	if len(pdu) >= modbus.MinResponseSize {
		field("crc", fmt.Sprintf("%v", modbus.ValidateCRC(pdu)), modbus.ValidateCRC(pdu))
	}
	return sb.String()
}

func functionName(fc modbus.FunctionCode) string {
	switch fc {
	case modbus.FcReadCoils:
		return "read coils"
	case modbus.FcReadDiscreteInputs:
		return "read discrete inputs"
	case modbus.FcReadHoldingRegisters:
		return "read holding registers"
	case modbus.FcReadInputRegisters:
		return "read input registers"
	case modbus.FcWriteSingleCoil:
		return "write single coil"
	case modbus.FcWriteSingleRegister:
		return "write single register"
	case modbus.FcWriteMultipleCoils:
		return "write multiple coils"
	case modbus.FcWriteMultipleRegisters:
		return "write multiple registers"
	default:
		return "unknown function"
	}
}
