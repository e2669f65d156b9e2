package board

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

// NewMockMux creates a Mux fed by the given fixture lines, re-emitted on a
// ticker to simulate board telemetry. Used by the -dev mode of the server.
func NewMockMux(fixture []byte) *Mux[*mockPort] {
	r, w := io.Pipe()

	port := &mockPort{
		Reader:      r,
		WriteCloser: nopWriteCloser{io.Discard},
	}

	go func() {
		defer w.Close()
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := w.Write(fixture); err != nil {
				return
			}
		}
	}()

	return NewMux(port)
}

type mockPort struct {
	io.Reader
	io.WriteCloser
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// TestablePort implements SerialPorter with configurable behaviour for
// tests: scripted reads, captured writes, injectable errors, and optional
// blocking reads.
type TestablePort struct {
	mu sync.Mutex

	readBuffer  bytes.Buffer
	writeBuffer bytes.Buffer

	// ReadError and WriteError are returned (once) by the next call if set.
	ReadError  error
	WriteError error
	CloseError error

	// BlockReads causes Read to block until data is added or Close is called.
	BlockReads bool

	closed     bool
	readCalls  int
	writeCalls int
	readCond   *sync.Cond
}

// NewTestablePort creates a TestablePort ready for use.
func NewTestablePort() *TestablePort {
	p := &TestablePort{}
	p.readCond = sync.NewCond(&p.mu)
	return p
}

func (p *TestablePort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.readCalls++

	if p.closed {
		return 0, io.EOF
	}
	if p.ReadError != nil {
		err := p.ReadError
		p.ReadError = nil
		return 0, err
	}

	if p.BlockReads && p.readBuffer.Len() == 0 {
		for !p.closed && p.readBuffer.Len() == 0 {
			p.readCond.Wait()
		}
		if p.closed {
			return 0, io.EOF
		}
	}

	return p.readBuffer.Read(buf)
}

func (p *TestablePort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.writeCalls++

	if p.closed {
		return 0, errors.New("serial port closed")
	}
	if p.WriteError != nil {
		err := p.WriteError
		p.WriteError = nil
		return 0, err
	}

	return p.writeBuffer.Write(buf)
}

func (p *TestablePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.readCond.Broadcast()
	return p.CloseError
}

// AddReadData queues data for subsequent Read calls, waking any blocked
// reader.
func (p *TestablePort) AddReadData(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.readBuffer.Write(data)
	p.readCond.Signal()
}

// WrittenData returns everything written to the port so far.
func (p *TestablePort) WrittenData() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeBuffer.String()
}

// WriteCalls returns the number of Write calls observed.
func (p *TestablePort) WriteCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeCalls
}

// Closed reports whether Close has been called.
func (p *TestablePort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// MockSerialPortFactory implements SerialPortFactory for tests.
type MockSerialPortFactory struct {
	mu sync.Mutex

	// Port is returned by Open unless Error is set.
	Port  SerialPorter
	Error error

	opens []string
}

// NewMockSerialPortFactory returns a factory handing out the given port.
func NewMockSerialPortFactory(port SerialPorter) *MockSerialPortFactory {
	return &MockSerialPortFactory{Port: port}
}

// Open records the call and returns the configured port or error.
func (f *MockSerialPortFactory) Open(path string, opts PortOptions) (SerialPorter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.opens = append(f.opens, path)
	if f.Error != nil {
		return nil, f.Error
	}
	return f.Port, nil
}

// Opens returns the paths passed to Open, in order.
func (f *MockSerialPortFactory) Opens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.opens))
	copy(out, f.opens)
	return out
}
