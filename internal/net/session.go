package net

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/stargo/server/internal/net/packet"
)

// ProtocolVersion is bumped on any wire-incompatible change. The init
// packet carries it so a stale client fails fast at handshake.
const ProtocolVersion uint32 = 3

// Session represents a single client connection. Network I/O runs in
// dedicated goroutines; game state is accessed only from the game loop.
type Session struct {
	ID   uint64
	conn net.Conn

	state atomic.Int32 // packet.SessionState stored as int32
	mu    sync.Mutex   // protects conn writes during init

	InQueue  chan []byte // game loop reads packets from here
	OutQueue chan []byte // writer goroutine reads from here

	IP          string
	AccountName string
	Player      int32 // assigned player number, 0 until joined
	VersionOK   bool  // client protocol version checked (game loop only)
	Authority   bool  // trusted origin: commands arrive pre-promoted

	outBuf [][]byte // buffered packets, flushed by OutputSystem (game loop only)

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	startOnce sync.Once

	// Per-second packet rate limiter (readLoop goroutine only, no lock needed)
	pktPerSec  int   // max packets/sec (0 = unlimited)
	pktCount   int   // packets received this second
	pktResetAt int64 // unix second of last counter reset

	readTimeout  time.Duration // per-frame read deadline, 0 disables
	writeTimeout time.Duration // per-frame write deadline, 0 disables

	log *zap.Logger
}

// SessionConfig carries the per-connection tunables resolved from the
// server config.
type SessionConfig struct {
	InQueueSize  int
	OutQueueSize int
	PktPerSec    int // 0 = unlimited
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func NewSession(conn net.Conn, id uint64, cfg SessionConfig, log *zap.Logger) *Session {
	s := &Session{
		ID:           id,
		conn:         conn,
		InQueue:      make(chan []byte, cfg.InQueueSize),
		OutQueue:     make(chan []byte, cfg.OutQueueSize),
		IP:           conn.RemoteAddr().String(),
		closeCh:      make(chan struct{}),
		pktPerSec:    cfg.PktPerSec,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		log:          log.With(zap.Uint64("session", id)),
	}
	s.state.Store(int32(packet.StateHandshake))
	return s
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

// Start sends the plaintext init packet and launches the reader and
// writer goroutines. Idempotent: a second call must never spawn a
// second goroutine pair racing on the same connection.
func (s *Session) Start() {
	s.startOnce.Do(func() {
		// [2B LE length][1B opcode][u32 protocol version][u64 session id]
		w := packet.NewWriterWithOpcode(packet.S_OPCODE_INITPACKET)
		w.WriteUint32(ProtocolVersion)
		w.WriteUint64(s.ID)

		s.mu.Lock()
		err := WriteFrame(s.conn, w.Bytes())
		s.mu.Unlock()
		if err != nil {
			s.log.Error("初始封包發送失敗", zap.Error(err))
			s.Close()
			return
		}

		go s.readLoop()
		go s.writeLoop()
	})
}

// Send buffers a packet for sending. The packet is not written to TCP
// until FlushOutput is called by OutputSystem at the output phase.
// Called only from the game loop goroutine — no lock needed on outBuf.
func (s *Session) Send(data []byte) {
	if s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, data)
}

// FlushOutput drains the output buffer to OutQueue for the writeLoop
// goroutine. Called by OutputSystem once per tick. Non-blocking: if
// OutQueue is full, the session is disconnected (backpressure).
func (s *Session) FlushOutput() {
	for _, data := range s.outBuf {
		select {
		case s.OutQueue <- data:
		default:
			s.log.Warn("輸出佇列已滿，斷開慢速連線")
			s.Close()
			s.outBuf = s.outBuf[:0]
			return
		}
	}
	s.outBuf = s.outBuf[:0]
}

// Close gracefully shuts down the session.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(packet.StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop runs in its own goroutine. It reads frames from the TCP
// connection and pushes them onto InQueue for the game loop to consume.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		if s.readTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		payload, err := ReadFrame(s.conn)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("讀取錯誤", zap.Error(err))
			}
			return
		}

		// Per-second packet rate limiter
		if s.pktPerSec > 0 {
			now := time.Now().Unix()
			if now != s.pktResetAt {
				s.pktCount = 0
				s.pktResetAt = now
			}
			s.pktCount++
			if s.pktCount > s.pktPerSec {
				s.log.Warn("封包速率超限，斷開連線", zap.Int("pps", s.pktCount))
				return
			}
		}

		// Block until InQueue has space or session closes. Dropping a
		// command packet would desync this client permanently — the
		// frame it targets is simulated with or without it. Blocking
		// here is safe: the readLoop goroutine is per-session, so it
		// only stalls this client.
		select {
		case s.InQueue <- payload:
		case <-s.closeCh:
			return
		}
	}
}

// writeLoop runs in its own goroutine. It reads packets from OutQueue
// and writes them as framed data to the TCP connection.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case data := <-s.OutQueue:
			if !s.writeOnePacket(data) {
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

// writeOnePacket 寫入單一封包到 TCP socket。成功回傳 true。
func (s *Session) writeOnePacket(data []byte) bool {
	if len(data) > 0 {
		s.log.Debug("TX",
			zap.String("op", fmt.Sprintf("0x%02X(%d)", data[0], data[0])),
			zap.Int("len", len(data)),
		)
	}

	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if err := WriteFrame(s.conn, data); err != nil {
		if !s.closed.Load() {
			s.log.Debug("寫入錯誤", zap.Error(err))
		}
		return false
	}
	return true
}
