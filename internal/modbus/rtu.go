package modbus

// Modbus RTU request builders and CRC-16.
//
// Every builder produces a complete RTU frame:
// [unit] [fc] [BE addr] [BE count-or-value] (+ byte count + packed payload
// for the write-multiple variants) [CRC-16 LE].

import "encoding/binary"

// crcTable is the reflected CRC-16 lookup table for polynomial 0xA001.
var crcTable = makeCRCTable()

func makeCRCTable() [256]uint16 {
	var table [256]uint16
	for i := range table {
		crc := uint16(i)
		for bit := 0; bit < 8; bit++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}
	return table
}

// CRC16 computes the Modbus CRC-16 (poly 0xA001, seed 0xFFFF) over data.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = (crc >> 8) ^ crcTable[byte(crc)^b]
	}
	return crc
}

// AddCRC appends the little-endian CRC-16 of frame to frame.
func AddCRC(frame []byte) []byte {
	crc := CRC16(frame)
	return append(frame, byte(crc), byte(crc>>8))
}

// ValidateCRC checks the trailing CRC-16 of an RTU frame.
func ValidateCRC(frame []byte) bool {
	if len(frame) < CRCSize+1 {
		return false
	}
	got := binary.LittleEndian.Uint16(frame[len(frame)-CRCSize:])
	return got == CRC16(frame[:len(frame)-CRCSize])
}

// --- request builders ---

func addrQtyRequest(unit uint8, fc FunctionCode, addr, qty uint16) []byte {
	frame := make([]byte, 6, 8)
	frame[0] = unit
	frame[1] = byte(fc)
	binary.BigEndian.PutUint16(frame[2:4], addr)
	binary.BigEndian.PutUint16(frame[4:6], qty)
	return AddCRC(frame)
}

// ReadCoilsRequest builds an FC 0x01 frame.
func ReadCoilsRequest(unit uint8, addr, quantity uint16) []byte {
	return addrQtyRequest(unit, FcReadCoils, addr, quantity)
}

// ReadDiscreteInputsRequest builds an FC 0x02 frame.
func ReadDiscreteInputsRequest(unit uint8, addr, quantity uint16) []byte {
	return addrQtyRequest(unit, FcReadDiscreteInputs, addr, quantity)
}

// ReadHoldingRegistersRequest builds an FC 0x03 frame.
func ReadHoldingRegistersRequest(unit uint8, addr, quantity uint16) []byte {
	return addrQtyRequest(unit, FcReadHoldingRegisters, addr, quantity)
}

// ReadInputRegistersRequest builds an FC 0x04 frame.
func ReadInputRegistersRequest(unit uint8, addr, quantity uint16) []byte {
	return addrQtyRequest(unit, FcReadInputRegisters, addr, quantity)
}

// WriteSingleCoilRequest builds an FC 0x05 frame.
// The on state is encoded as 0xFF00, off as 0x0000.
func WriteSingleCoilRequest(unit uint8, addr uint16, on bool) []byte {
	value := uint16(0x0000)
	if on {
		value = 0xFF00
	}
	return addrQtyRequest(unit, FcWriteSingleCoil, addr, value)
}

// WriteSingleRegisterRequest builds an FC 0x06 frame.
func WriteSingleRegisterRequest(unit uint8, addr, value uint16) []byte {
	return addrQtyRequest(unit, FcWriteSingleRegister, addr, value)
}

// WriteMultipleCoilsRequest builds an FC 0x0F frame. Coil states are packed
// LSB-first into the payload bytes.
func WriteMultipleCoilsRequest(unit uint8, addr uint16, values []bool) []byte {
	quantity := uint16(len(values))
	byteCount := (quantity + 7) / 8
	frame := make([]byte, 7+byteCount)
	frame[0] = unit
	frame[1] = byte(FcWriteMultipleCoils)
	binary.BigEndian.PutUint16(frame[2:4], addr)
	binary.BigEndian.PutUint16(frame[4:6], quantity)
	frame[6] = byte(byteCount)
	copy(frame[7:], PackBits(values))
	return AddCRC(frame)
}

// WriteMultipleRegistersRequest builds an FC 0x10 frame.
func WriteMultipleRegistersRequest(unit uint8, addr uint16, values []uint16) []byte {
	quantity := uint16(len(values))
	byteCount := quantity * 2
	frame := make([]byte, 7+byteCount)
	frame[0] = unit
	frame[1] = byte(FcWriteMultipleRegisters)
	binary.BigEndian.PutUint16(frame[2:4], addr)
	binary.BigEndian.PutUint16(frame[4:6], quantity)
	frame[6] = byte(byteCount)
	for i, v := range values {
		binary.BigEndian.PutUint16(frame[7+2*i:9+2*i], v)
	}
	return AddCRC(frame)
}

// RawRequest wraps an arbitrary PDU (function code + data) into an RTU frame
// for unsupported or vendor-specific function codes.
func RawRequest(unit uint8, pdu []byte) []byte {
	frame := make([]byte, 0, 1+len(pdu)+CRCSize)
	frame = append(frame, unit)
	frame = append(frame, pdu...)
	return AddCRC(frame)
}

// --- bit packing ---

// PackBits packs coil states LSB-first into bytes.
func PackBits(values []bool) []byte {
	out := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		if v {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

// UnpackBits unpacks quantity coil states LSB-first from data.
func UnpackBits(data []byte, quantity int) []bool {
	out := make([]bool, quantity)
	for i := range out {
		if i/8 >= len(data) {
			break
		}
		out[i] = data[i/8]&(1<<(i%8)) != 0
	}
	return out
}
