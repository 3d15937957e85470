package session

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/breeze-rmm/screenbridge/internal/wire"
)

type fakeWriteCloser struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

func (f *fakeWriteCloser) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.Write(p)
}

func (f *fakeWriteCloser) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeWriteCloser) Bytes() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.buf.Bytes()...)
}

func TestControllerFIFOConcatenation(t *testing.T) {
	conn := &fakeWriteCloser{}
	c := New(conn, 64)
	go c.Run()

	msgs := []wire.ControlMessage{
		wire.Command{Which: wire.CommandPing},
		wire.InjectKeycode{Action: wire.ActionDown, Keycode: 4},
		wire.InjectText{Text: "hello"},
		wire.SetClipboard{Text: "world"},
	}

	var want bytes.Buffer
	for _, m := range msgs {
		raw, err := wire.Serialize(m)
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		want.Write(raw)
	}

	for _, m := range msgs {
		if !c.Push(m) {
			t.Fatal("Push returned false before Stop")
		}
	}

	deadline := time.After(2 * time.Second)
	for {
		if bytes.Equal(conn.Bytes(), want.Bytes()) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("FIFO concatenation mismatch:\ngot  %x\nwant %x", conn.Bytes(), want.Bytes())
		case <-time.After(time.Millisecond):
		}
	}

	c.Stop()
}

func TestControllerPushFalseAfterStop(t *testing.T) {
	conn := &fakeWriteCloser{}
	c := New(conn, 64)
	go c.Run()
	c.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if !c.Push(wire.Command{Which: wire.CommandPing}) {
			return
		}
	}
	t.Fatal("expected Push to eventually return false after Stop")
}
