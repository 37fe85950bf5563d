package iox

import (
	"io"
	"strings"
	"testing"
)

type trackingCloser struct {
	io.Reader
	closed bool
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return nil
}

func TestDiscardClose(t *testing.T) {
	c := &trackingCloser{Reader: strings.NewReader("")}
	DiscardClose(c)
	if !c.closed {
		t.Error("DiscardClose must close")
	}
}

func TestDrainClose(t *testing.T) {
	r := strings.NewReader("leftover body bytes")
	c := &trackingCloser{Reader: r}

	DrainClose(c)

	if !c.closed {
		t.Error("DrainClose must close")
	}
	if r.Len() != 0 {
		t.Errorf("DrainClose must drain to EOF, %d bytes left", r.Len())
	}
}

func TestCloseFunc(t *testing.T) {
	c := &trackingCloser{Reader: strings.NewReader("")}
	fn := CloseFunc(c)
	if c.closed {
		t.Fatal("CloseFunc must not close eagerly")
	}
	fn()
	if !c.closed {
		t.Error("returned function must close")
	}
}
