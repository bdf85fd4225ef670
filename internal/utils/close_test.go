package utils

import (
	"io"
	"strings"
	"testing"
)

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestDrainClose(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader(strings.Repeat("x", 10000))}
	DrainClose(body)

	if !body.closed {
		t.Error("body not closed")
	}
	rest, _ := io.ReadAll(body)
	if len(rest) != 10000-maxDrain {
		t.Errorf("remaining = %d, want %d", len(rest), 10000-maxDrain)
	}
}
