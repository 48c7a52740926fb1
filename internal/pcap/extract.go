package pcap

// V5 PCAP extraction: pull envelope frames out of captured port 8899
// traffic, with TCP stream reassembly. Useful for auditing what a vendor
// app or cloud bridge actually exchanges with a logging stick.

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	gopcap "github.com/google/gopacket/pcap"

	"github.com/Angelelz/solarmanv5/internal/v5"
)

// CapturedFrame is one V5 envelope extracted from a capture.
type CapturedFrame struct {
	Raw       []byte
	Control   v5.ControlCode
	Sequence  byte
	Serial    uint32
	IsRequest bool // direction: true = client -> logger
	Timestamp time.Time
	SrcIP     string
	DstIP     string
	SrcPort   uint16
	DstPort   uint16
}

// maxFrameSize bounds the declared length during resync: anything larger
// is treated as a spurious start marker, not a frame.
const maxFrameSize = 1024

// ExtractFromPCAP extracts V5 frames from a capture file. Only TCP traffic
// touching the logger port is considered; each direction of each
// connection is reassembled independently.
func ExtractFromPCAP(path string) ([]CapturedFrame, error) {
	handle, err := gopcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("open pcap file: %w", err)
	}
	defer handle.Close()

	var frames []CapturedFrame
	source := gopacket.NewPacketSource(handle, handle.LinkType())
	streams := make(map[string][]byte)

	for packet := range source.Packets() {
		tcpLayer := packet.Layer(layers.LayerTypeTCP)
		if tcpLayer == nil {
			continue
		}
		tcp, _ := tcpLayer.(*layers.TCP)
		if !isLoggerPort(uint16(tcp.SrcPort), uint16(tcp.DstPort)) || len(tcp.Payload) == 0 {
			continue
		}

		meta := frameMeta{
			IsRequest: uint16(tcp.DstPort) == v5.DefaultPort,
			SrcPort:   uint16(tcp.SrcPort),
			DstPort:   uint16(tcp.DstPort),
			Timestamp: packet.Metadata().Timestamp,
		}
		if netLayer := packet.NetworkLayer(); netLayer != nil {
			flow := netLayer.NetworkFlow()
			meta.SrcIP = flow.Src().String()
			meta.DstIP = flow.Dst().String()
		}

		key := fmt.Sprintf("%s:%d>%s:%d", meta.SrcIP, meta.SrcPort, meta.DstIP, meta.DstPort)
		buf := append(streams[key], tcp.Payload...)

		parsed, remaining := extractFrames(buf, meta)
		frames = append(frames, parsed...)
		streams[key] = remaining
	}

	return frames, nil
}

type frameMeta struct {
	IsRequest bool
	Timestamp time.Time
	SrcIP     string
	DstIP     string
	SrcPort   uint16
	DstPort   uint16
}

// extractFrames scans a reassembled byte stream for complete envelopes.
// Garbage before a start marker is skipped one byte at a time; an
// incomplete trailing frame is returned as the remainder for the next
// segment to complete.
func extractFrames(payload []byte, meta frameMeta) ([]CapturedFrame, []byte) {
	var frames []CapturedFrame

	for len(payload) >= v5.MinFrameSize {
		if payload[0] != v5.FrameStart {
			payload = payload[1:]
			continue
		}

		declared := int(binary.LittleEndian.Uint16(payload[1:3]))
		frameLen := declared + v5.MinFrameSize
		if frameLen > maxFrameSize {
			// Spurious start marker inside other data.
			payload = payload[1:]
			continue
		}
		if frameLen > len(payload) {
			// Incomplete frame, wait for more data.
			break
		}
		if payload[frameLen-1] != v5.FrameEnd {
			payload = payload[1:]
			continue
		}

		raw := make([]byte, frameLen)
		copy(raw, payload[:frameLen])
		f := v5.Frame(raw)
		frames = append(frames, CapturedFrame{
			Raw:       raw,
			Control:   f.Control(),
			Sequence:  f.Sequence(),
			Serial:    f.Serial(),
			IsRequest: meta.IsRequest,
			Timestamp: meta.Timestamp,
			SrcIP:     meta.SrcIP,
			DstIP:     meta.DstIP,
			SrcPort:   meta.SrcPort,
			DstPort:   meta.DstPort,
		})
		payload = payload[frameLen:]
	}

	if len(payload) == 0 {
		return frames, nil
	}
	remaining := make([]byte, len(payload))
	copy(remaining, payload)
	return frames, remaining
}

func isLoggerPort(src, dst uint16) bool {
	return src == v5.DefaultPort || dst == v5.DefaultPort
}
