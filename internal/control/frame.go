package control

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Result tags for the response envelope.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Response is the envelope returned for every command. Output is a string
// for most commands and a structured snapshot for status.
type Response struct {
	Result string `json:"result"`
	Output any    `json:"output"`
}

// WriteFrame serialises the envelope and writes it as a decimal byte-length
// line followed by exactly that many payload bytes.
func WriteFrame(w io.Writer, resp Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%d\n", len(payload)); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed envelope. It is the client half of
// WriteFrame, used by tests and command-line clients.
func ReadFrame(r *bufio.Reader) (Response, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return Response{}, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil {
		return Response{}, fmt.Errorf("malformed frame header %q: %w", header, err)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Response{}, err
	}
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}
