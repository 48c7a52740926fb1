package session

// Session manager for one logging stick: a single TCP connection, a rolling
// sequence counter, and at most one outstanding exchange at a time. A reader
// goroutine owns the socket's inbound side, answers asynchronous logger
// frames (heartbeat, data push, ...) with time responses, and hands the
// matching response frame to whichever caller is suspended in SendReceive.

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/Angelelz/solarmanv5/internal/logging"
	"github.com/Angelelz/solarmanv5/internal/v5"
)

// DefaultTimeout governs both connect and response waits when the caller
// does not configure one.
const DefaultTimeout = 60 * time.Second

var (
	ErrNotConnected = errors.New("session: not connected")
	ErrPending      = errors.New("session: an exchange is already pending")
	ErrTimeout      = errors.New("session: response timeout")
	ErrClosed       = errors.New("session: closed")
)

// Config holds the per-logger session parameters.
type Config struct {
	// Address is the logging stick's host or host:port. A missing port
	// defaults to 8899.
	Address string
	// Serial is the logging stick's serial number.
	Serial uint32
	// UnitID addresses the downstream device on the fieldbus (1-247).
	UnitID uint8
	// Timeout bounds connect and response waits. Zero means DefaultTimeout.
	Timeout time.Duration
	// AutoReconnect redials and retransmits when the logger drops the
	// connection mid-exchange.
	AutoReconnect bool
	// ErrorCorrection enables envelope length truncation.
	ErrorCorrection bool
	Log             logging.Logger
}

// Session is a client connection to one logging stick.
type Session struct {
	cfg   Config
	addr  string
	codec *v5.Codec
	log   logging.Logger

	mu        sync.Mutex
	conn      net.Conn
	pending   *exchange
	seq       uint16
	seqInit   bool
	lastFrame []byte
	closed    bool

	// writeMu serializes caller frames against reader-side auto-replies.
	writeMu sync.Mutex
}

// exchange is the single-slot resolution handle for one outstanding
// request. It is created and destroyed with the request and never exposed
// outside the session.
type exchange struct {
	seq      uint16
	deadline time.Time
	done     chan result
	once     sync.Once
}

type result struct {
	pdu []byte
	err error
}

func (e *exchange) settle(r result) {
	e.once.Do(func() { e.done <- r })
}

// New creates an idle session. No socket is opened until Connect.
func New(cfg Config) *Session {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	addr := cfg.Address
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(v5.DefaultPort))
	}
	log := logging.Or(cfg.Log)
	return &Session{
		cfg:  cfg,
		addr: addr,
		log:  log,
		codec: &v5.Codec{
			Serial:          cfg.Serial,
			ErrorCorrection: cfg.ErrorCorrection,
			Log:             log,
		},
	}
}

// Connect opens the TCP connection and starts the reader.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.conn != nil {
		s.mu.Unlock()
		return fmt.Errorf("session: already connected to %s", s.addr)
	}
	s.closed = false
	s.mu.Unlock()
	return s.dial(ctx)
}

// Disconnect rejects any pending exchange and closes the socket. The
// sequence counter survives; only recreating the session resets it.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	s.closed = true
	conn := s.conn
	s.conn = nil
	ex := s.pending
	s.pending = nil
	s.mu.Unlock()

	if ex != nil {
		ex.settle(result{err: ErrClosed})
	}
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Reconnect forcibly tears down the current socket and dials again.
func (s *Session) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	return s.dial(ctx)
}

// Connected reports whether the session currently holds a socket.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *Session) dial(ctx context.Context) error {
	d := net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.addr, err)
	}
	s.mu.Lock()
	if s.conn != nil {
		s.mu.Unlock()
		conn.Close()
		return fmt.Errorf("session: already connected to %s", s.addr)
	}
	s.conn = conn
	s.closed = false
	s.mu.Unlock()
	go s.readLoop(conn)
	return nil
}

// SendReceive wraps a complete fieldbus frame in a request envelope, writes
// it, and suspends the caller until the matching response arrives, the
// deadline elapses, or the socket dies. At most one exchange may be in
// flight; a second call fails fast with ErrPending rather than queueing.
func (s *Session) SendReceive(ctx context.Context, fieldbus []byte) ([]byte, error) {
	s.mu.Lock()
	conn := s.conn
	if conn == nil {
		s.mu.Unlock()
		return nil, ErrNotConnected
	}
	if s.pending != nil {
		s.mu.Unlock()
		return nil, ErrPending
	}
	seq := s.nextSeqLocked()
	frame := s.codec.EncodeRequest(seq, fieldbus)
	s.lastFrame = frame
	ex := &exchange{
		seq:      seq,
		deadline: time.Now().Add(s.cfg.Timeout),
		done:     make(chan result, 1),
	}
	s.pending = ex
	s.mu.Unlock()

	s.log.Debugf("session: -> seq 0x%02X %s", byte(seq), logging.Hex(frame))
	if err := s.write(conn, frame); err != nil {
		s.clearPending(ex)
		return nil, fmt.Errorf("write request: %w", err)
	}
	return s.wait(ctx, ex)
}

// nextSeqLocked allocates the next sequence number: uniformly random 1-254
// on the first call, then previous+1 modulo 256. Zero is a legal value
// after wrap, not a sentinel.
func (s *Session) nextSeqLocked() uint16 {
	if !s.seqInit {
		s.seq = uint16(rand.IntN(254) + 1)
		s.seqInit = true
	} else {
		s.seq = (s.seq + 1) % 256
	}
	return s.seq
}

func (s *Session) wait(ctx context.Context, ex *exchange) ([]byte, error) {
	timer := time.NewTimer(time.Until(ex.deadline))
	defer timer.Stop()

	select {
	case r := <-ex.done:
		s.clearPending(ex)
		return r.pdu, r.err
	case <-timer.C:
		s.clearPending(ex)
		// A response may have raced the timer.
		select {
		case r := <-ex.done:
			return r.pdu, r.err
		default:
			ex.settle(result{err: ErrTimeout})
			return nil, ErrTimeout
		}
	case <-ctx.Done():
		s.clearPending(ex)
		ex.settle(result{err: ctx.Err()})
		return nil, ctx.Err()
	}
}

func (s *Session) clearPending(ex *exchange) {
	s.mu.Lock()
	if s.pending == ex {
		s.pending = nil
	}
	s.mu.Unlock()
}

func (s *Session) resolve(ex *exchange, pdu []byte, err error) {
	s.clearPending(ex)
	ex.settle(result{pdu: pdu, err: err})
}

func (s *Session) write(conn net.Conn, frame []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.Timeout)); err != nil {
		return err
	}
	_, err := conn.Write(frame)
	return err
}

// readLoop owns the inbound side of one socket. It resynchronizes on the
// start marker, reassembles complete envelopes from the declared length,
// and dispatches them. It exits when the socket dies.
func (s *Session) readLoop(conn net.Conn) {
	br := bufio.NewReader(conn)
	for {
		b, err := br.ReadByte()
		if err != nil {
			s.handleDisconnect(conn, err)
			return
		}
		if b != v5.FrameStart {
			s.log.Debugf("session: discarding stray byte 0x%02X", b)
			continue
		}
		header := make([]byte, v5.HeaderSize)
		header[0] = b
		if _, err := io.ReadFull(br, header[1:]); err != nil {
			s.handleDisconnect(conn, err)
			return
		}
		declared := int(binary.LittleEndian.Uint16(header[1:3]))
		rest := make([]byte, declared+v5.TrailerSize)
		if _, err := io.ReadFull(br, rest); err != nil {
			s.handleDisconnect(conn, err)
			return
		}
		s.dispatch(conn, append(header, rest...))
	}
}

func (s *Session) dispatch(conn net.Conn, raw []byte) {
	f := v5.Frame(raw)
	s.log.Debugf("session: <- %s", logging.Hex(raw))

	if ctl := v5.Classify(uint16(f.Control())); ctl.IsAsync() {
		reply := s.codec.TimeResponse(f, time.Now())
		if err := s.write(conn, reply); err != nil {
			s.log.Errorf("session: answering %s frame: %v", ctl, err)
			return
		}
		s.log.Debugf("session: answered %s frame with time response", ctl)
		return
	}

	s.mu.Lock()
	ex := s.pending
	s.mu.Unlock()
	if ex == nil {
		s.log.Infof("session: discarding unsolicited %s frame", f.Control())
		return
	}
	if f.Sequence() != byte(ex.seq) {
		// Stale or unrelated traffic; the exchange keeps waiting.
		s.log.Infof("session: discarding frame with sequence 0x%02X (want 0x%02X)", f.Sequence(), byte(ex.seq))
		return
	}

	pdu, err := s.codec.DecodeResponse(raw, ex.seq)
	s.resolve(ex, pdu, err)
}

// handleDisconnect runs when a socket's read side dies. If an exchange is
// pending and auto-reconnect is on, it redials and retransmits the last
// frame on the new socket; the original deadline keeps governing the
// outcome, no new exchange is created.
func (s *Session) handleDisconnect(conn net.Conn, cause error) {
	s.mu.Lock()
	if s.conn != conn {
		// Socket already replaced or deliberately closed.
		s.mu.Unlock()
		return
	}
	s.conn = nil
	closed := s.closed
	ex := s.pending
	last := s.lastFrame
	s.mu.Unlock()
	conn.Close()

	if closed {
		return
	}
	s.log.Infof("session: connection lost: %v", cause)

	if ex == nil {
		if s.cfg.AutoReconnect {
			if err := s.dial(context.Background()); err != nil {
				s.log.Errorf("session: reconnect: %v", err)
			}
		}
		return
	}

	if !s.cfg.AutoReconnect {
		s.resolve(ex, nil, fmt.Errorf("connection lost: %w", ErrNotConnected))
		return
	}
	if err := s.dial(context.Background()); err != nil {
		s.resolve(ex, nil, fmt.Errorf("reconnect: %w", ErrNotConnected))
		return
	}
	s.mu.Lock()
	next := s.conn
	s.mu.Unlock()
	if next == nil {
		s.resolve(ex, nil, fmt.Errorf("reconnect: %w", ErrNotConnected))
		return
	}
	if err := s.write(next, last); err != nil {
		s.resolve(ex, nil, fmt.Errorf("resend after reconnect: %w", err))
		return
	}
	s.log.Infof("session: reconnected to %s, retransmitted pending frame", s.addr)
}
