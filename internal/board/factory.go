package board

import (
	"go.bug.st/serial"
)

// NewFactoryMux opens a port through the factory and builds a Mux that can
// Reopen it: the factory is kept so a later reset can close the current
// handle and open a fresh one at the same path.
func NewFactoryMux(factory SerialPortFactory, path string, opts PortOptions) (*Mux[SerialPorter], error) {
	port, err := factory.Open(path, opts)
	if err != nil {
		return nil, err
	}

	m := NewMux[SerialPorter](port)
	m.open = func() (SerialPorter, error) {
		return factory.Open(path, opts)
	}
	return m, nil
}

// NewRealMux creates a reopenable Mux backed by a real serial port at the
// given path using the provided serial options.
func NewRealMux(path string, opts PortOptions) (*Mux[SerialPorter], error) {
	return NewFactoryMux(RealSerialPortFactory{}, path, opts)
}

// RealSerialPortFactory opens ports with go.bug.st/serial.
type RealSerialPortFactory struct{}

// Open opens a serial port at the specified path with the given options.
func (RealSerialPortFactory) Open(path string, opts PortOptions) (SerialPorter, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	return serial.Open(path, mode)
}
