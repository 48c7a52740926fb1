package v5

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/Angelelz/solarmanv5/internal/modbus"
)

const testSerial = 2712345678

// responseFrame builds a well-formed logger response envelope around pdu.
func responseFrame(serial uint32, seq byte, pdu []byte) []byte {
	body := 14 + len(pdu) // response metadata block + fieldbus frame
	frame := make([]byte, HeaderSize+body+TrailerSize)
	frame[0] = FrameStart
	binary.LittleEndian.PutUint16(frame[1:3], uint16(body))
	binary.LittleEndian.PutUint16(frame[3:5], uint16(CtlResponse))
	frame[5] = seq
	binary.LittleEndian.PutUint32(frame[7:11], serial)
	frame[11] = FrameTypeInverter
	copy(frame[responsePDUOffset:], pdu)
	frame[len(frame)-2] = ComputeChecksum(frame)
	frame[len(frame)-1] = FrameEnd
	return frame
}

func TestEncodeRequestLayout(t *testing.T) {
	c := &Codec{Serial: testSerial}
	pdu := modbus.ReadHoldingRegistersRequest(1, 20, 4)
	frame := c.EncodeRequest(0x0042, pdu)

	f := Frame(frame)
	if !f.Valid() {
		t.Fatal("frame too short")
	}
	if f.Start() != FrameStart || f.End() != FrameEnd {
		t.Errorf("markers = %02X/%02X, want %02X/%02X", f.Start(), f.End(), FrameStart, FrameEnd)
	}
	if int(f.DeclaredLength()) != 15+len(pdu) {
		t.Errorf("length = %d, want %d", f.DeclaredLength(), 15+len(pdu))
	}
	if f.Control() != CtlRequest {
		t.Errorf("control = %s, want %s", f.Control(), CtlRequest)
	}
	if f.Sequence() != 0x42 {
		t.Errorf("sequence = 0x%02X, want 0x42", f.Sequence())
	}
	if f.Serial() != testSerial {
		t.Errorf("serial = %d, want %d", f.Serial(), testSerial)
	}
	for i := 11; i < 26; i++ {
		if frame[i] != 0 {
			t.Errorf("metadata byte %d = 0x%02X, want 0x00", i, frame[i])
		}
	}
	if !bytes.Equal(frame[26:len(frame)-TrailerSize], pdu) {
		t.Error("embedded fieldbus frame does not match input")
	}
	if f.Checksum() != ComputeChecksum(frame) {
		t.Errorf("checksum = 0x%02X, want 0x%02X", f.Checksum(), ComputeChecksum(frame))
	}
}

func TestDecodeResponseRoundTrip(t *testing.T) {
	c := &Codec{Serial: testSerial}
	pdu := modbus.AddCRC([]byte{0x01, 0x03, 0x02, 0x00, 0x64})
	frame := responseFrame(testSerial, 0x17, pdu)

	got, err := c.DecodeResponse(frame, 0x0017)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if !bytes.Equal(got, pdu) {
		t.Errorf("pdu = % X, want % X", got, pdu)
	}
}

func TestDecodeResponseValidationOrder(t *testing.T) {
	pdu := modbus.AddCRC([]byte{0x01, 0x03, 0x02, 0x00, 0x64})
	base := func() []byte { return responseFrame(testSerial, 0x17, pdu) }

	cases := []struct {
		name   string
		mutate func([]byte) []byte
		kind   ErrorKind
	}{
		{"short", func(f []byte) []byte { return f[:5] }, KindShortFrame},
		{"start", func(f []byte) []byte { f[0] = 0x00; return f }, KindBadStart},
		{"end", func(f []byte) []byte { f[len(f)-1] = 0x00; return f }, KindBadEnd},
		{"checksum", func(f []byte) []byte { f[len(f)-2] ^= 0xFF; return f }, KindBadChecksum},
		{"sequence", func(f []byte) []byte {
			f[5] = 0x99
			f[len(f)-2] = ComputeChecksum(f)
			return f
		}, KindSequenceMismatch},
		{"serial", func(f []byte) []byte {
			binary.LittleEndian.PutUint32(f[7:11], 1)
			f[len(f)-2] = ComputeChecksum(f)
			return f
		}, KindSerialMismatch},
		{"control", func(f []byte) []byte {
			binary.LittleEndian.PutUint16(f[3:5], uint16(CtlData))
			f[len(f)-2] = ComputeChecksum(f)
			return f
		}, KindBadControl},
		{"frametype", func(f []byte) []byte {
			f[11] = 0x01
			f[len(f)-2] = ComputeChecksum(f)
			return f
		}, KindBadFrameType},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Codec{Serial: testSerial}
			_, err := c.DecodeResponse(tc.mutate(base()), 0x0017)
			var envErr *EnvelopeError
			if !errors.As(err, &envErr) {
				t.Fatalf("err = %v, want *EnvelopeError", err)
			}
			if envErr.Kind != tc.kind {
				t.Errorf("kind = %v, want %v", envErr.Kind, tc.kind)
			}
		})
	}
}

func TestDecodeResponseShortPayloadException(t *testing.T) {
	c := &Codec{Serial: testSerial}
	// A lone exception code in place of a full fieldbus frame.
	frame := responseFrame(testSerial, 0x17, []byte{0x02})

	_, err := c.DecodeResponse(frame, 0x0017)
	var fbErr *modbus.FieldbusError
	if !errors.As(err, &fbErr) {
		t.Fatalf("err = %v, want *FieldbusError", err)
	}
	if fbErr.Code != modbus.ExceptionIllegalDataAddress {
		t.Errorf("code = %d, want %d", fbErr.Code, modbus.ExceptionIllegalDataAddress)
	}
}

func TestDecodeResponseEmptyPayload(t *testing.T) {
	c := &Codec{Serial: testSerial}
	frame := responseFrame(testSerial, 0x17, nil)

	_, err := c.DecodeResponse(frame, 0x0017)
	var envErr *EnvelopeError
	if !errors.As(err, &envErr) || envErr.Kind != KindShortPayload {
		t.Fatalf("err = %v, want short payload envelope error", err)
	}
}

func TestDecodeResponseLengthCorrection(t *testing.T) {
	pdu := modbus.AddCRC([]byte{0x01, 0x03, 0x02, 0x00, 0x64})
	frame := responseFrame(testSerial, 0x17, pdu)
	junked := append(append([]byte(nil), frame...), 0xDE, 0xAD)

	strict := &Codec{Serial: testSerial}
	if _, err := strict.DecodeResponse(junked, 0x0017); err == nil {
		t.Error("expected failure without error correction")
	}

	lenient := &Codec{Serial: testSerial, ErrorCorrection: true}
	got, err := lenient.DecodeResponse(junked, 0x0017)
	if err != nil {
		t.Fatalf("DecodeResponse with correction: %v", err)
	}
	if !bytes.Equal(got, pdu) {
		t.Errorf("pdu = % X, want % X", got, pdu)
	}
}

func TestTimeResponse(t *testing.T) {
	c := &Codec{Serial: testSerial}
	inbound := Frame(make([]byte, MinFrameSize+10))
	inbound[0] = FrameStart
	binary.LittleEndian.PutUint16(inbound[3:5], uint16(CtlHeartbeat))
	inbound[5] = 0x20
	binary.LittleEndian.PutUint32(inbound[7:11], testSerial)

	now := time.Unix(1700000000, 0)
	reply := Frame(c.TimeResponse(inbound, now))

	if int(reply.DeclaredLength()) != 10 {
		t.Errorf("length = %d, want 10", reply.DeclaredLength())
	}
	if reply.Control() != CtlHeartbeat-0x3000 {
		t.Errorf("control = 0x%04X, want 0x%04X", uint16(reply.Control()), uint16(CtlHeartbeat)-0x3000)
	}
	if reply.Sequence() != 0x21 {
		t.Errorf("sequence = 0x%02X, want 0x21", reply.Sequence())
	}
	if reply.Serial() != testSerial {
		t.Errorf("serial = %d, want %d", reply.Serial(), testSerial)
	}
	if ts := binary.LittleEndian.Uint32(reply[13:17]); ts != 1700000000 {
		t.Errorf("timestamp = %d, want 1700000000", ts)
	}
	if reply.Checksum() != ComputeChecksum(reply) {
		t.Errorf("checksum mismatch on time response")
	}
	if reply.End() != FrameEnd {
		t.Errorf("end marker = 0x%02X", reply.End())
	}
}

func TestClassify(t *testing.T) {
	if Classify(0x4710) != CtlHeartbeat {
		t.Error("0x4710 should classify as heartbeat")
	}
	if Classify(0x9999) != CtlUnknown {
		t.Error("0x9999 should classify as unknown")
	}
	if !CtlHeartbeat.IsAsync() || CtlResponse.IsAsync() {
		t.Error("async classification wrong")
	}
}
