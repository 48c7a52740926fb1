package v5

// Solarman V5 envelope codec.
//
// Wire layout:
//
//	[0]     start marker 0xA5
//	[1:3]   payload length, LE (bytes between the serial field and the checksum)
//	[3:5]   control code, LE (class suffix 0x10 + operation byte)
//	[5:7]   sequence, LE (only the low byte is significant)
//	[7:11]  logger serial, LE
//	[11:]   metadata block + embedded Modbus RTU frame
//	[-2]    checksum: sum mod 256 of every byte between start and checksum,
//	        both exclusive
//	[-1]    end marker 0x15
//
// Outbound requests carry a 15-byte all-zero metadata block (frame type,
// sensor type, three 4-byte time fields); logger responses carry a 14-byte
// block, placing the embedded fieldbus frame at offset 25.

import (
	"encoding/binary"
	"time"

	"github.com/Angelelz/solarmanv5/internal/logging"
	"github.com/Angelelz/solarmanv5/internal/modbus"
)

const (
	FrameStart byte = 0xA5
	FrameEnd   byte = 0x15

	// FrameTypeInverter marks a data frame originating from the inverter.
	FrameTypeInverter byte = 0x02

	// HeaderSize covers start, length, control, sequence and serial.
	HeaderSize = 11

	// TrailerSize covers checksum and end marker.
	TrailerSize = 2

	// MinFrameSize is a header plus trailer with an empty body.
	MinFrameSize = HeaderSize + TrailerSize

	// requestMetaSize is the zeroed metadata block on outbound requests.
	requestMetaSize = 15

	// responsePDUOffset is where the embedded fieldbus frame starts in
	// logger responses (11-byte header + 14-byte metadata block).
	responsePDUOffset = 25

	// DefaultPort is the TCP port logging sticks listen on.
	DefaultPort = 8899
)

// Frame is a raw V5 envelope with field accessors. Accessors assume the
// frame is at least MinFrameSize bytes; Valid reports that.
type Frame []byte

// Valid reports whether the frame is long enough for the accessors.
func (f Frame) Valid() bool { return len(f) >= MinFrameSize }

// Start returns the start marker byte.
func (f Frame) Start() byte { return f[0] }

// DeclaredLength returns the little-endian length field.
func (f Frame) DeclaredLength() uint16 { return binary.LittleEndian.Uint16(f[1:3]) }

// Control returns the little-endian control field.
func (f Frame) Control() ControlCode { return ControlCode(binary.LittleEndian.Uint16(f[3:5])) }

// Sequence returns the significant (low) sequence byte.
func (f Frame) Sequence() byte { return f[5] }

// SequenceField returns the full little-endian sequence field.
func (f Frame) SequenceField() uint16 { return binary.LittleEndian.Uint16(f[5:7]) }

// Serial returns the little-endian logger serial.
func (f Frame) Serial() uint32 { return binary.LittleEndian.Uint32(f[7:11]) }

// FrameType returns the metadata frame-type byte.
func (f Frame) FrameType() byte { return f[11] }

// PDU returns the embedded fieldbus frame of a logger response.
func (f Frame) PDU() []byte {
	if len(f) < responsePDUOffset+TrailerSize {
		return nil
	}
	return f[responsePDUOffset : len(f)-TrailerSize]
}

// Checksum returns the stored checksum byte.
func (f Frame) Checksum() byte { return f[len(f)-2] }

// End returns the end marker byte.
func (f Frame) End() byte { return f[len(f)-1] }

// ComputeChecksum computes the V5 checksum over a complete frame: the sum
// mod 256 of every byte after the start marker and before the checksum.
func ComputeChecksum(frame []byte) byte {
	var sum byte
	for _, b := range frame[1 : len(frame)-TrailerSize] {
		sum += b
	}
	return sum
}

// Codec encodes and decodes V5 envelopes for one logger.
type Codec struct {
	Serial uint32
	// ErrorCorrection enables truncating frames whose length field
	// disagrees with their actual size. Mismatches are always logged.
	ErrorCorrection bool
	Log             logging.Logger
}

// EncodeRequest wraps a Modbus RTU frame in a V5 request envelope.
func (c *Codec) EncodeRequest(seq uint16, pdu []byte) []byte {
	total := HeaderSize + requestMetaSize + len(pdu) + TrailerSize
	frame := make([]byte, total)
	frame[0] = FrameStart
	binary.LittleEndian.PutUint16(frame[1:3], uint16(requestMetaSize+len(pdu)))
	binary.LittleEndian.PutUint16(frame[3:5], uint16(CtlRequest))
	binary.LittleEndian.PutUint16(frame[5:7], seq)
	binary.LittleEndian.PutUint32(frame[7:11], c.Serial)
	// frame[11:26] stays zero: frame type, sensor type, time fields.
	copy(frame[HeaderSize+requestMetaSize:], pdu)
	frame[total-2] = ComputeChecksum(frame)
	frame[total-1] = FrameEnd
	return frame
}

// DecodeResponse validates a logger response envelope against the pending
// request's sequence number and returns the embedded fieldbus frame.
func (c *Codec) DecodeResponse(raw []byte, seq uint16) ([]byte, error) {
	f := Frame(raw)
	if !f.Valid() {
		return nil, envErr(KindShortFrame, "%d bytes (minimum %d)", len(raw), MinFrameSize)
	}
	if f.Start() != FrameStart {
		return nil, envErr(KindBadStart, "got 0x%02X, want 0x%02X", f.Start(), FrameStart)
	}

	// Reconcile the length field before the trailer checks so that, with
	// error correction on, a frame with trailing garbage can still pass.
	if expected := int(f.DeclaredLength()) + MinFrameSize; expected != len(f) {
		c.log().Infof("v5: length field mismatch: declared %d bytes, frame has %d", expected, len(f))
		if c.ErrorCorrection && len(f) > expected {
			f = f[:expected]
		}
	}

	if f.End() != FrameEnd {
		return nil, envErr(KindBadEnd, "got 0x%02X, want 0x%02X", f.End(), FrameEnd)
	}
	if sum := ComputeChecksum(f); sum != f.Checksum() {
		return nil, envErr(KindBadChecksum, "computed 0x%02X, stored 0x%02X", sum, f.Checksum())
	}
	if f.Sequence() != byte(seq) {
		return nil, envErr(KindSequenceMismatch, "got 0x%02X, want 0x%02X", f.Sequence(), byte(seq))
	}
	if f.Serial() != c.Serial {
		return nil, envErr(KindSerialMismatch, "got %d, want %d", f.Serial(), c.Serial)
	}
	if f.Control() != ResponseCodeFor(CtlRequest) {
		return nil, envErr(KindBadControl, "got %s, want %s", f.Control(), ResponseCodeFor(CtlRequest))
	}
	if f.FrameType() != FrameTypeInverter {
		return nil, envErr(KindBadFrameType, "got 0x%02X, want 0x%02X", f.FrameType(), FrameTypeInverter)
	}

	pdu := f.PDU()
	if len(pdu) < modbus.MinResponseSize {
		// Some loggers answer errors with a bare exception code in
		// place of a full fieldbus frame.
		if len(pdu) > 0 {
			return nil, &modbus.FieldbusError{Code: modbus.ExceptionCode(pdu[0])}
		}
		return nil, envErr(KindShortPayload, "%d bytes (minimum %d)", len(pdu), modbus.MinResponseSize)
	}
	return pdu, nil
}

// TimeResponse builds the reply the client must send for an asynchronous
// logger frame (handshake, data, info, heartbeat, report): the inbound
// control code decremented to its response class, the inbound sequence with
// its low byte incremented, and a 10-byte body carrying the current unix
// time.
func (c *Codec) TimeResponse(inbound Frame, now time.Time) []byte {
	const bodySize = 10
	total := HeaderSize + bodySize + TrailerSize
	frame := make([]byte, total)
	frame[0] = FrameStart
	binary.LittleEndian.PutUint16(frame[1:3], bodySize)
	binary.LittleEndian.PutUint16(frame[3:5], uint16(ResponseCodeFor(inbound.Control())))
	frame[5] = inbound.Sequence() + 1
	frame[6] = inbound[6]
	copy(frame[7:11], inbound[7:11])
	binary.LittleEndian.PutUint16(frame[11:13], 0x0100)
	binary.LittleEndian.PutUint32(frame[13:17], uint32(now.Unix()))
	binary.LittleEndian.PutUint32(frame[17:21], 0)
	frame[total-2] = ComputeChecksum(frame)
	frame[total-1] = FrameEnd
	return frame
}

func (c *Codec) log() logging.Logger { return logging.Or(c.Log) }
