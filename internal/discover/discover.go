package discover

// UDP broadcast discovery of logging sticks. Sticks listen on UDP 48899
// for two known ASCII probes and answer with "ip,mac,serial" in plain
// text. Discovery is fire-and-forget: broadcast both probes, then collect
// whatever answers arrive inside the window.

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Angelelz/solarmanv5/internal/logging"
)

// Port is the UDP port logging sticks answer discovery probes on.
const Port = 48899

// DefaultWindow bounds how long Run collects responses.
const DefaultWindow = 2 * time.Second

// probes are the two ASCII payloads sticks respond to. Different firmware
// generations answer different ones, so both are always sent.
var probes = []string{
	"WIFIKIT-214028-READ",
	"HF-A11ASSISTHREAD",
}

// Logger describes one discovered logging stick.
type Logger struct {
	IP     string
	MAC    string
	Serial uint32
}

// Options configures a discovery run.
type Options struct {
	// Interface limits the broadcast to one network interface. Empty
	// means global broadcast.
	Interface string
	// Target overrides the probe destination (host:port). Set for
	// unicast probing of a known stick; empty means broadcast on Port.
	Target string
	// Window bounds the collection time. Zero means DefaultWindow.
	Window time.Duration
	Log    logging.Logger
}

// Run broadcasts the discovery probes and returns every stick that
// answered inside the window. Duplicate serials are suppressed; the first
// answer wins.
func Run(ctx context.Context, opts Options) ([]Logger, error) {
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	log := logging.Or(opts.Log)

	target, err := resolveTarget(opts)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("listen UDP: %w", err)
	}
	defer conn.Close()

	for _, probe := range probes {
		if _, err := conn.WriteToUDP([]byte(probe), target); err != nil {
			return nil, fmt.Errorf("send probe to %s: %w", target, err)
		}
	}

	deadline := time.Now().Add(window)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	var found []Logger
	seen := make(map[uint32]bool)
	buffer := make([]byte, 1500)
	for time.Now().Before(deadline) {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return found, fmt.Errorf("set read deadline: %w", err)
		}
		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				break
			}
			return found, fmt.Errorf("read discovery response: %w", err)
		}

		reply := strings.TrimSpace(string(buffer[:n]))
		if isProbe(reply) {
			// Our own broadcast looping back.
			continue
		}
		stick, err := parseReply(reply)
		if err != nil {
			log.Debugf("discover: ignoring reply from %s: %v", addr, err)
			continue
		}
		if seen[stick.Serial] {
			continue
		}
		seen[stick.Serial] = true
		log.Infof("discover: %s serial %d at %s", stick.MAC, stick.Serial, stick.IP)
		found = append(found, stick)
	}
	return found, nil
}

func resolveTarget(opts Options) (*net.UDPAddr, error) {
	if opts.Target != "" {
		addr, err := net.ResolveUDPAddr("udp4", opts.Target)
		if err != nil {
			return nil, fmt.Errorf("resolve target %s: %w", opts.Target, err)
		}
		return addr, nil
	}
	if opts.Interface != "" {
		return interfaceBroadcast(opts.Interface)
	}
	return &net.UDPAddr{IP: net.IPv4bcast, Port: Port}, nil
}

// interfaceBroadcast computes the directed broadcast address of the
// interface's first IPv4 network.
func interfaceBroadcast(name string) (*net.UDPAddr, error) {
	ief, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("interface %s: %w", name, err)
	}
	addrs, err := ief.Addrs()
	if err != nil {
		return nil, fmt.Errorf("interface %s addresses: %w", name, err)
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() || ipnet.IP.To4() == nil {
			continue
		}
		ip := ipnet.IP.To4()
		broadcast := make(net.IP, 4)
		for i := range ip {
			broadcast[i] = ip[i] | ^ipnet.Mask[i]
		}
		return &net.UDPAddr{IP: broadcast, Port: Port}, nil
	}
	return nil, fmt.Errorf("no IPv4 address on interface %s", name)
}

// parseReply decodes an "ip,mac,serial" discovery response.
func parseReply(reply string) (Logger, error) {
	parts := strings.Split(reply, ",")
	if len(parts) != 3 {
		return Logger{}, fmt.Errorf("want 3 comma-separated fields, got %d", len(parts))
	}
	ip := strings.TrimSpace(parts[0])
	if net.ParseIP(ip) == nil {
		return Logger{}, fmt.Errorf("bad IP %q", ip)
	}
	serial, err := strconv.ParseUint(strings.TrimSpace(parts[2]), 10, 32)
	if err != nil {
		return Logger{}, fmt.Errorf("bad serial %q: %w", parts[2], err)
	}
	return Logger{
		IP:     ip,
		MAC:    strings.TrimSpace(parts[1]),
		Serial: uint32(serial),
	}, nil
}

func isProbe(reply string) bool {
	for _, p := range probes {
		if reply == p {
			return true
		}
	}
	return false
}
