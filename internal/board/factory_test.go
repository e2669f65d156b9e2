package board

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryMuxReopenSwapsPort(t *testing.T) {
	first := NewTestablePort()
	factory := NewMockSerialPortFactory(first)

	m, err := NewFactoryMux(factory, "/dev/ttyACM0", PortOptions{})
	require.NoError(t, err)

	second := NewTestablePort()
	factory.Port = second
	require.NoError(t, m.Reopen())

	assert.True(t, first.Closed())
	require.NoError(t, m.SendCommand("R"))
	assert.Equal(t, "R\n", second.WrittenData())
	assert.Empty(t, first.WrittenData())
	assert.Equal(t, []string{"/dev/ttyACM0", "/dev/ttyACM0"}, factory.Opens())
}

func TestFactoryMuxReopenPropagatesOpenFailure(t *testing.T) {
	port := NewTestablePort()
	factory := NewMockSerialPortFactory(port)

	m, err := NewFactoryMux(factory, "/dev/ttyACM0", PortOptions{})
	require.NoError(t, err)

	factory.Error = errors.New("device vanished")
	assert.Error(t, m.Reopen())
}

func TestFactoryMuxOpenFailure(t *testing.T) {
	factory := NewMockSerialPortFactory(nil)
	factory.Error = errors.New("no such device")

	_, err := NewFactoryMux(factory, "/dev/ttyACM0", PortOptions{})
	assert.Error(t, err)
}

func TestFixedPortMuxReopenIsNoop(t *testing.T) {
	port := NewTestablePort()
	m := NewMux(port)

	require.NoError(t, m.Reopen())
	assert.False(t, port.Closed())
}
