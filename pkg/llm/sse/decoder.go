// Package sse decodes server-sent-events style "data:" line framing as used
// by streaming chat-completion endpoints. The decoder only sees a byte
// stream, never the HTTP transport, so it can be exercised with canned
// chunked input.
package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// ErrDone is returned by Next when the stream's terminating "[DONE]"
// sentinel line is read. The sentinel is not valid JSON and must never be
// handed to a payload parser.
var ErrDone = errors.New("sse: stream done")

const doneSentinel = "[DONE]"

// Decoder incrementally reads data payloads off an event stream. Only the
// last unterminated line is buffered between reads.
type Decoder struct {
	scanner *bufio.Scanner
}

func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	// Completion fragments are small, but a single data line can still carry
	// a few hundred KB of JSON.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	return &Decoder{scanner: scanner}
}

// Next returns the next data payload. It skips blank lines and non-data
// fields, returns ErrDone on the terminator, and io.EOF when the underlying
// stream ends without one.
func (d *Decoder) Next() (string, error) {
	for d.scanner.Scan() {
		line := strings.TrimSpace(d.scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == doneSentinel {
			return "", ErrDone
		}
		if payload == "" {
			continue
		}
		return payload, nil
	}

	if err := d.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
