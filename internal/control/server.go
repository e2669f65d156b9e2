package control

import (
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"github.com/joyride-robotics/joyride/internal/robot"
	"github.com/joyride-robotics/joyride/internal/timeutil"
)

// StatusReporter contributes a diagnostics map to status replies. The
// watchdog monitor implements it.
type StatusReporter interface {
	Status() map[string]any
}

// Server accepts TCP connections and runs one session goroutine per client.
// All sessions share the robot and a single control token.
type Server struct {
	robot   *robot.Robot
	monitor StatusReporter
	clock   timeutil.Clock
	logf    func(format string, args ...any)
	token   Token

	shutdownOnce sync.Once
	shutdownCh   chan struct{}

	mu          sync.Mutex
	listener    net.Listener
	closing     bool
	lastRequest time.Time

	sessions sync.WaitGroup
}

// NewServer builds a command server over the given robot. monitor may be
// nil; status replies then omit the monitor section. A nil clock selects
// the real clock.
func NewServer(r *robot.Robot, monitor StatusReporter, clock timeutil.Clock) *Server {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Server{
		robot:       r,
		monitor:     monitor,
		clock:       clock,
		logf:        log.Printf,
		shutdownCh:  make(chan struct{}),
		lastRequest: clock.Now(),
	}
}

// SetMonitor attaches the watchdog's status reporter. Call before Serve;
// the monitor needs the server's client ages, so it cannot exist yet when
// the server is constructed.
func (s *Server) SetMonitor(m StatusReporter) {
	s.monitor = m
}

// SetLogf redirects the server's logging, mainly for tests.
func (s *Server) SetLogf(logf func(format string, args ...any)) {
	s.logf = logf
}

// Serve accepts connections until the listener closes. It returns nil when
// the close was a requested shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.shuttingDown() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.sessions.Add(1)
		go newSession(conn, s).run()
	}
}

// Shutdown stops accepting connections and waits for in-flight sessions to
// finish their current command.
func (s *Server) Shutdown() {
	s.requestShutdown()
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		ln.Close()
	}
	s.sessions.Wait()
}

// ShutdownRequested is closed when a client issues the shutdown command or
// Shutdown is called.
func (s *Server) ShutdownRequested() <-chan struct{} {
	return s.shutdownCh
}

func (s *Server) requestShutdown() {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()
		close(s.shutdownCh)
	})
}

func (s *Server) shuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *Server) sessionDone() {
	s.sessions.Done()
}

func (s *Server) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRequest = s.clock.Now()
}

// LastRequest is when any session last completed a command successfully.
func (s *Server) LastRequest() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRequest
}

// ClientAge is how long the server has gone without a successful command.
func (s *Server) ClientAge() time.Duration {
	return s.clock.Since(s.LastRequest())
}
