package sim

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	DefaultSocketName = "gatekeeper-sim.sock"

	// PushIntervalMs caps state pushes to about 60 Hz
	PushIntervalMs = 16

	maxCommandLen = 4096
)

// DefaultSocketPath returns the socket path in the temp directory
func DefaultSocketPath() string {
	return filepath.Join(os.TempDir(), DefaultSocketName)
}

// ServerOptions configures the command socket
type ServerOptions struct {
	Path         string
	Logger       *slog.Logger
	WriteTimeout time.Duration
	QueueSize    int
}

// Server accepts one NDJSON client at a time on a unix socket. Received
// lines are queued for the run loop; state frames are pushed back with
// Send. A new client replaces the previous one.
type Server struct {
	ln     net.Listener
	opts   ServerOptions
	logger *slog.Logger

	cmds   chan []byte
	closed chan struct{}
	wg     sync.WaitGroup

	mu   sync.Mutex
	conn net.Conn
}

// Listen removes a stale socket file and starts accepting clients
func Listen(opts ServerOptions) (*Server, error) {
	if opts.Path == "" {
		opts.Path = DefaultSocketPath()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 100 * time.Millisecond
	}
	if opts.QueueSize == 0 {
		opts.QueueSize = 64
	}

	if err := os.Remove(opts.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", opts.Path, err)
	}

	s := &Server{
		ln:     ln,
		opts:   opts,
		logger: opts.Logger.With("component", "socket"),
		cmds:   make(chan []byte, opts.QueueSize),
		closed: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.acceptLoop()

	s.logger.Info("listening", "path", opts.Path)
	return s, nil
}

// Path returns the socket path
func (s *Server) Path() string {
	return s.opts.Path
}

// Commands delivers received lines without the trailing newline
func (s *Server) Commands() <-chan []byte {
	return s.cmds
}

// Connected reports whether a client is attached
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Send writes line plus a newline to the client. Without a client it is a
// no-op. A failed write drops the client.
func (s *Server) Send(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	if _, err := s.conn.Write(append(line, '\n')); err != nil {
		s.logger.Debug("client write failed", "error", err)
		s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// Close stops accepting, drops the client and removes the socket file
func (s *Server) Close() error {
	select {
	case <-s.closed:
		return nil
	default:
	}
	close(s.closed)

	err := s.ln.Close()

	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
	os.Remove(s.opts.Path)
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.closed:
				return
			default:
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}

		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.conn = conn
		s.mu.Unlock()

		s.logger.Info("client connected")
		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 512), maxCommandLen)
	for sc.Scan() {
		line := append([]byte(nil), sc.Bytes()...)
		if len(line) == 0 {
			continue
		}
		select {
		case s.cmds <- line:
		case <-s.closed:
			return
		}
	}

	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	conn.Close()
	s.logger.Info("client disconnected")
}
