package drive

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyride-robotics/joyride/internal/board"
)

func newSabertooth(t *testing.T) (*SabertoothDriver, *board.TestablePort) {
	t.Helper()
	port := board.NewTestablePort()
	d, err := NewSabertoothDriver(board.NewMux(port))
	require.NoError(t, err)
	return d, port
}

func TestSabertoothRequiresBoard(t *testing.T) {
	_, err := NewSabertoothDriver(nil)
	assert.ErrorIs(t, err, ErrNoBoard)
}

func TestSabertoothResetAndStopCodes(t *testing.T) {
	d, port := newSabertooth(t)

	require.NoError(t, d.Reset())
	require.NoError(t, d.Stop())

	assert.Equal(t, "R\nX\n", port.WrittenData())
}

func TestSabertoothSpeedConversion(t *testing.T) {
	tests := []struct {
		speed int
		motor Motor
		wire  string
	}{
		{100, Both, "MB63\n"},
		{-100, Both, "MB-63\n"},
		{50, Left, "ML31\n"},
		{-50, Right, "MR-31\n"},
		{0, Both, "MB0\n"},
	}

	for _, tt := range tests {
		d, port := newSabertooth(t)
		require.NoError(t, d.SetSpeed(tt.speed, tt.motor))
		assert.Equal(t, tt.wire, port.WrittenData(), "speed %d on %s", tt.speed, tt.motor)
	}
}

func TestSabertoothRejectsOutOfRangeSpeed(t *testing.T) {
	d, port := newSabertooth(t)

	for _, v := range []int{101, -101, 1000} {
		require.Error(t, d.SetSpeed(v, Both), "speed %d must fail validation", v)
	}
	assert.Equal(t, 0, port.WriteCalls(), "invalid speeds must not reach the board")
}

func TestSabertoothBrakeIsZeroSpeed(t *testing.T) {
	d, port := newSabertooth(t)

	require.NoError(t, d.SetSpeed(80, Both))
	require.NoError(t, d.Brake(40))

	assert.Equal(t, "MB50\nMB0\n", port.WrittenData(), "brake relays as zero speed, whatever the level")
	assert.True(t, d.Braking())

	speeds, err := d.Speed(Both)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, speeds)
}

func TestSabertoothBrakeValidatesLevel(t *testing.T) {
	d, port := newSabertooth(t)

	for _, level := range []int{0, 101, -3} {
		require.Error(t, d.Brake(level), "brake level %d must fail validation", level)
	}
	assert.Equal(t, 0, port.WriteCalls())
}

func TestSabertoothSpeedReadBack(t *testing.T) {
	d, _ := newSabertooth(t)

	require.NoError(t, d.SetSpeed(100, Left))

	speeds, err := d.Speed(Left)
	require.NoError(t, err)
	assert.Equal(t, []int{100}, speeds)

	// The sabertooth conversion truncates, so read-back is best effort.
	require.NoError(t, d.SetSpeed(50, Both))
	speeds, err = d.Speed(Both)
	require.NoError(t, err)
	assert.Equal(t, []int{49, 49}, speeds, "31 native maps back to 49 logical")
}

func TestDriverRegistry(t *testing.T) {
	_, err := New("nonesuch", Config{})
	require.Error(t, err)

	d, err := New("smcstub", Config{LeftSerial: "L", RightSerial: "R"})
	require.NoError(t, err)
	require.NoError(t, d.SetSpeed(10, Both))

	_, err = New("smccmd", Config{})
	require.Error(t, err, "smccmd requires the utility path")

	_, err = New("sabertooth", Config{})
	require.Error(t, err, "sabertooth requires a board connection")

	assert.Len(t, List(), 3)
}

func TestSabertoothStatus(t *testing.T) {
	d, _ := newSabertooth(t)

	require.NoError(t, d.SetSpeed(50, Left))
	require.NoError(t, d.Brake(10))

	want := map[string]any{
		"left":  map[string]any{"product": "sabertooth", "speed": 0},
		"right": map[string]any{"product": "sabertooth", "speed": 0},
		"relay": map[string]any{"braking": true, "board": false},
	}
	if diff := cmp.Diff(want, d.Status()); diff != "" {
		t.Errorf("unexpected status (-want +got):\n%s", diff)
	}
}
