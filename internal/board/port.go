package board

import (
	"io"
	"time"
)

// SerialPorter is the minimal interface the mux needs from a serial port.
// The abstraction keeps the package testable without board hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// TimeoutSerialPorter is an optional extension for ports that support read
// timeouts.
type TimeoutSerialPorter interface {
	SerialPorter
	SetReadTimeout(timeout time.Duration) error
}

// SerialPortFactory opens serial ports. Injecting a factory lets the server
// re-open the board port on reset without knowing the transport, and lets
// tests substitute fake ports.
type SerialPortFactory interface {
	Open(path string, opts PortOptions) (SerialPorter, error)
}
