package sse

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderNext(t *testing.T) {
	stream := "data: {\"a\":1}\n\ndata: {\"b\":2}\n\ndata: [DONE]\n\n"
	d := NewDecoder(strings.NewReader(stream))

	payload, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, payload)

	payload, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, payload)

	_, err = d.Next()
	assert.ErrorIs(t, err, ErrDone)
}

func TestDecoderSkipsNonDataLines(t *testing.T) {
	stream := ": comment\nevent: message\n\ndata: {\"x\":true}\n\ndata: [DONE]\n"
	d := NewDecoder(strings.NewReader(stream))

	payload, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"x":true}`, payload)

	_, err = d.Next()
	assert.ErrorIs(t, err, ErrDone)
}

func TestDecoderEOFWithoutDone(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: {\"a\":1}\n"))

	payload, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, payload)

	_, err = d.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoderHandlesChunkedArrival(t *testing.T) {
	// Reader that returns a few bytes at a time, as a network stream would.
	d := NewDecoder(&slowReader{data: "data: {\"delta\":\"hi\"}\n\ndata: [DONE]\n\n"})

	payload, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"delta":"hi"}`, payload)

	_, err = d.Next()
	assert.ErrorIs(t, err, ErrDone)
}

type slowReader struct {
	data string
}

func (r *slowReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	limit := 3
	if len(p) < limit {
		limit = len(p)
	}
	n := copy(p[:limit], r.data)
	r.data = r.data[n:]
	return n, nil
}
