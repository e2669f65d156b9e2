package control

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/joyride-robotics/joyride/internal/drive"
	"github.com/joyride-robotics/joyride/internal/units"
)

// session serves one TCP connection. Commands execute one at a time in the
// session's own goroutine; the only state shared with other sessions is the
// control token.
type session struct {
	id           string
	conn         net.Conn
	srv          *Server
	isController bool
}

func newSession(conn net.Conn, srv *Server) *session {
	return &session{
		id:   uuid.NewString(),
		conn: conn,
		srv:  srv,
	}
}

func (s *session) run() {
	defer s.teardown()
	s.srv.logf("client %s connected (session %s)", s.conn.RemoteAddr(), s.id)

	scanner := bufio.NewScanner(s.conn)
	writer := bufio.NewWriter(s.conn)
	for !s.srv.shuttingDown() && scanner.Scan() {
		resp, closeAfter := s.handleLine(strings.TrimSpace(scanner.Text()))
		if err := WriteFrame(writer, resp); err != nil {
			s.srv.logf("session %s: write failed: %v", s.id, err)
			return
		}
		if err := writer.Flush(); err != nil {
			s.srv.logf("session %s: flush failed: %v", s.id, err)
			return
		}
		if closeAfter {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.srv.logf("session %s: read failed: %v", s.id, err)
	}
}

// teardown runs on every exit path. A controller releases the token and
// safes the robot before the connection is gone.
func (s *session) teardown() {
	if s.isController {
		s.srv.token.Release(s.id)
		if err := s.srv.robot.Stop(); err != nil {
			s.srv.logf("client %s disconnected; stop after control release failed: %v", s.conn.RemoteAddr(), err)
		} else {
			s.srv.logf("client %s disconnected; robot stopped, no more controlling client", s.conn.RemoteAddr())
		}
	} else {
		s.srv.logf("client %s disconnected; was a viewer", s.conn.RemoteAddr())
	}
	s.conn.Close()
	s.srv.sessionDone()
}

// handleLine dispatches one trimmed command line. The bool result means the
// connection closes after the response is written.
func (s *session) handleLine(line string) (Response, bool) {
	switch line {
	case "":
		return Response{Result: ResultOK, Output: ""}, false
	case "exit":
		return Response{Result: ResultOK, Output: "done"}, true
	case "shutdown":
		s.srv.requestShutdown()
		return Response{Result: ResultOK, Output: "shutdown"}, true
	case "control":
		return s.handleControl(), false
	}

	resp := s.processCommand(line)
	if resp.Result == ResultOK {
		s.srv.touch()
	}
	return resp, false
}

func (s *session) handleControl() Response {
	if s.isController {
		return Response{Result: ResultOK, Output: "was already a controller"}
	}
	if !s.srv.token.TryAcquire(s.id) {
		return Response{Result: ResultError, Output: "cannot acquire control lock"}
	}
	s.isController = true
	return Response{Result: ResultOK, Output: "acquired control lock"}
}

func (s *session) processCommand(line string) Response {
	parts := strings.Fields(line)
	verb := parts[0]

	switch verb {
	case "status":
		snap := s.srv.robot.Status()
		if s.srv.monitor != nil {
			snap.Monitor = s.srv.monitor.Status()
		}
		return Response{Result: ResultOK, Output: snap}
	case "stop":
		return s.withToken(func() (string, error) {
			return "robot stopped", s.srv.robot.Stop()
		})
	case "brake":
		level, err := parseArg(parts)
		if err != nil || level < units.MinBrake || level > units.MaxBrake {
			return Response{Result: ResultInvalid, Output: "brake must be a number from 1 to 100"}
		}
		return s.withToken(func() (string, error) {
			return "braking initiated", s.srv.robot.Brake(level)
		})
	case "reset":
		return s.withToken(func() (string, error) {
			return "robot reset successful", s.srv.robot.Reset()
		})
	case "go":
		return s.withToken(func() (string, error) {
			return "robot ready to run", s.srv.robot.Go()
		})
	case "speed", "left", "right":
		speed, err := parseArg(parts)
		if err != nil || speed < units.MinSpeed || speed > units.MaxSpeed {
			return Response{Result: ResultInvalid, Output: "speed must be a number from -100 to 100"}
		}
		motor := drive.Both
		target := "both motors"
		if verb != "speed" {
			motor = drive.Motor(verb)
			target = verb + " motor"
		}
		return s.withToken(func() (string, error) {
			return fmt.Sprintf("speed on %s set to %d", target, speed), s.srv.robot.SetSpeed(speed, motor)
		})
	}
	return Response{Result: ResultInvalid, Output: fmt.Sprintf("invalid command '%s'", line)}
}

// withToken runs a mutating command under the control token. A controller
// already holds the token; anyone else gets an opportunistic acquisition
// scoped to this one command.
func (s *session) withToken(fn func() (string, error)) Response {
	if !s.isController {
		if !s.srv.token.TryAcquire(s.id) {
			return Response{Result: ResultError, Output: "another connection is controlling the robot"}
		}
		defer s.srv.token.Release(s.id)
	}
	output, err := fn()
	return s.classify(output, err)
}

// classify maps a command's error to a result tag. Unexpected errors are
// logged in full server-side; the client gets the short message.
func (s *session) classify(output string, err error) Response {
	if err == nil {
		return Response{Result: ResultOK, Output: output}
	}
	var rangeErr *units.RangeError
	if errors.As(err, &rangeErr) {
		return Response{Result: ResultInvalid, Output: rangeErr.Error()}
	}
	if drive.IsRejected(err) {
		return Response{Result: ResultRejected, Output: err.Error()}
	}
	s.srv.logf("session %s: command failed: %v", s.id, err)
	return Response{Result: ResultError, Output: err.Error()}
}

func parseArg(parts []string) (int, error) {
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected exactly one argument, got %d", len(parts)-1)
	}
	return strconv.Atoi(parts[1])
}
