package session

// Caller-facing register and coil operations. Each is a thin composition:
// build the fieldbus frame, run one exchange, parse the response against
// the request.

import (
	"context"
	"errors"
	"fmt"

	"github.com/Angelelz/solarmanv5/internal/modbus"
)

// ReadHoldingRegisters reads count holding registers starting at addr.
func (s *Session) ReadHoldingRegisters(ctx context.Context, addr, count uint16) ([]uint16, error) {
	return s.roundTrip(ctx, modbus.ReadHoldingRegistersRequest(s.cfg.UnitID, addr, count))
}

// ReadInputRegisters reads count input registers starting at addr.
func (s *Session) ReadInputRegisters(ctx context.Context, addr, count uint16) ([]uint16, error) {
	return s.roundTrip(ctx, modbus.ReadInputRegistersRequest(s.cfg.UnitID, addr, count))
}

// ReadCoils reads count coils starting at addr, one 0/1 value per coil.
func (s *Session) ReadCoils(ctx context.Context, addr, count uint16) ([]uint16, error) {
	return s.roundTrip(ctx, modbus.ReadCoilsRequest(s.cfg.UnitID, addr, count))
}

// ReadDiscreteInputs reads count discrete inputs starting at addr.
func (s *Session) ReadDiscreteInputs(ctx context.Context, addr, count uint16) ([]uint16, error) {
	return s.roundTrip(ctx, modbus.ReadDiscreteInputsRequest(s.cfg.UnitID, addr, count))
}

// WriteSingleRegister writes value to addr and returns the echoed value.
func (s *Session) WriteSingleRegister(ctx context.Context, addr, value uint16) (uint16, error) {
	return s.writeTrip(ctx, modbus.WriteSingleRegisterRequest(s.cfg.UnitID, addr, value))
}

// WriteSingleCoil sets the coil at addr and returns the echoed wire value
// (0xFF00 on, 0x0000 off).
func (s *Session) WriteSingleCoil(ctx context.Context, addr uint16, on bool) (uint16, error) {
	return s.writeTrip(ctx, modbus.WriteSingleCoilRequest(s.cfg.UnitID, addr, on))
}

// WriteMultipleRegisters writes values starting at addr and returns the
// quantity the device reports written.
func (s *Session) WriteMultipleRegisters(ctx context.Context, addr uint16, values []uint16) (uint16, error) {
	return s.writeTrip(ctx, modbus.WriteMultipleRegistersRequest(s.cfg.UnitID, addr, values))
}

// WriteMultipleCoils writes coil states starting at addr and returns the
// quantity the device reports written.
func (s *Session) WriteMultipleCoils(ctx context.Context, addr uint16, values []bool) (uint16, error) {
	return s.writeTrip(ctx, modbus.WriteMultipleCoilsRequest(s.cfg.UnitID, addr, values))
}

// ReadFormatted reads count holding registers and applies opts to the
// assembled value.
func (s *Session) ReadFormatted(ctx context.Context, addr, count uint16, opts FormatOptions) (float64, error) {
	values, err := s.ReadHoldingRegisters(ctx, addr, count)
	if err != nil {
		return 0, err
	}
	return ApplyFormat(values, opts), nil
}

// WriteMasked updates the register at addr to (current|orMask)&andMask via
// read-modify-write. The two exchanges are not atomic; a concurrent writer
// can race the update.
func (s *Session) WriteMasked(ctx context.Context, addr, orMask, andMask uint16) (uint16, error) {
	values, err := s.ReadHoldingRegisters(ctx, addr, 1)
	if err != nil {
		return 0, fmt.Errorf("masked write read: %w", err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("masked write read: got %d registers, want 1", len(values))
	}
	return s.WriteSingleRegister(ctx, addr, (values[0]|orMask)&andMask)
}

// SendRaw tunnels an arbitrary fieldbus PDU (function code plus payload,
// without unit id or CRC) and returns the raw response frame. For function
// codes the parser does not know.
func (s *Session) SendRaw(ctx context.Context, pdu []byte) ([]byte, error) {
	if len(pdu) == 0 {
		return nil, fmt.Errorf("empty fieldbus PDU")
	}
	return s.SendReceive(ctx, modbus.RawRequest(s.cfg.UnitID, pdu))
}

// SendRawParsed tunnels an arbitrary fieldbus PDU and runs the response
// through the standard parser.
func (s *Session) SendRawParsed(ctx context.Context, pdu []byte) ([]uint16, error) {
	if len(pdu) == 0 {
		return nil, fmt.Errorf("empty fieldbus PDU")
	}
	return s.roundTrip(ctx, modbus.RawRequest(s.cfg.UnitID, pdu))
}

func (s *Session) roundTrip(ctx context.Context, req []byte) ([]uint16, error) {
	resp, err := s.SendReceive(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.parse(resp, req)
}

func (s *Session) writeTrip(ctx context.Context, req []byte) (uint16, error) {
	values, err := s.roundTrip(ctx, req)
	if err != nil {
		return 0, err
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("write response: got %d values, want 1", len(values))
	}
	return values[0], nil
}

// parse decodes a response against its request, with one corrective
// reinterpretation for a known logger quirk: some sticks append two zero
// bytes after the fieldbus CRC. On a CRC mismatch with a double-zero tail,
// strip the tail and revalidate; if that fails too, surface the original
// error.
func (s *Session) parse(resp, req []byte) ([]uint16, error) {
	values, err := modbus.ParseResponse(resp, req)
	var crcErr *modbus.CRCError
	if !errors.As(err, &crcErr) {
		return values, err
	}
	n := len(resp)
	if n <= modbus.CRCSize+2 || resp[n-1] != 0 || resp[n-2] != 0 {
		return nil, err
	}
	stripped := resp[:n-2]
	if !modbus.ValidateCRC(stripped) {
		return nil, err
	}
	s.log.Infof("session: recovered response with double-zero tail")
	return modbus.ParseResponse(stripped, req)
}
