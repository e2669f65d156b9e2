package control

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Response{Result: ResultOK, Output: "robot stopped"}))

	// The header is the payload byte length in ASCII decimal.
	header, err := buf.ReadString('\n')
	require.NoError(t, err)
	payload := buf.String()
	assert.Equal(t, "40", strings.TrimSpace(header))
	assert.Len(t, payload, 40)
	assert.JSONEq(t, `{"result":"ok","output":"robot stopped"}`, payload)

	buf.Reset()
	require.NoError(t, WriteFrame(&buf, Response{Result: ResultError, Output: "boom"}))
	resp, err := ReadFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, ResultError, resp.Result)
	assert.Equal(t, "boom", resp.Output)
}

func TestReadFrameMalformedHeader(t *testing.T) {
	_, err := ReadFrame(bufio.NewReader(strings.NewReader("nope\n{}")))
	assert.Error(t, err)
}
