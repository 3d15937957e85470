package session

import (
	"io"
	"log/slog"
	"sync"

	"github.com/breeze-rmm/screenbridge/internal/logging"
	"github.com/breeze-rmm/screenbridge/internal/wire"
)

// Controller is the background worker that owns the control socket and
// drains a bounded FIFO of outbound control messages. The queue bound
// (config.ControlQueueSize, default 64) follows the re-architecture
// guidance: the original unbounded-queue wording is superseded by a
// moderate bounded channel with blocking-on-full producers.
type Controller struct {
	conn   io.WriteCloser
	queue  chan wire.ControlMessage
	done   chan struct{}
	closeOnce sync.Once
	log    *slog.Logger
}

// New builds a Controller over conn with the given queue capacity.
func New(conn io.WriteCloser, queueSize int) *Controller {
	if queueSize < 1 {
		queueSize = 64
	}
	return &Controller{
		conn:  conn,
		queue: make(chan wire.ControlMessage, queueSize),
		done:  make(chan struct{}),
		log:   logging.L("controller"),
	}
}

// Push enqueues msg for delivery, preserving FIFO order. It blocks only
// while the queue is full — per the concurrency model, producers block
// rather than drop — and returns false without blocking once the queue
// has been closed (session stopping).
func (c *Controller) Push(msg wire.ControlMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.queue <- msg:
		return true
	case <-c.done:
		return false
	}
}

// Run drains the queue onto the socket until Stop is called or a write
// fails. On exit it drains and discards any remaining queued messages and
// closes the socket exactly once.
func (c *Controller) Run() {
	defer c.closeConn()

	for {
		select {
		case msg := <-c.queue:
			if err := c.write(msg); err != nil {
				c.log.Warn("control write failed, stopping controller", logging.KeyError, err)
				c.drain()
				return
			}
		case <-c.done:
			c.drain()
			return
		}
	}
}

func (c *Controller) write(msg wire.ControlMessage) error {
	raw, err := wire.Serialize(msg)
	if err != nil {
		// TranslationError-equivalent for a message that slipped through
		// already-capped construction: log and drop, never fatal.
		c.log.Warn("dropping oversized control message", logging.KeyError, err)
		return nil
	}
	_, err = c.conn.Write(raw)
	return err
}

func (c *Controller) drain() {
	for {
		select {
		case <-c.queue:
		default:
			return
		}
	}
}

func (c *Controller) closeConn() {
	_ = c.conn.Close()
}

// Stop signals the worker to drain and exit. Idempotent.
func (c *Controller) Stop() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
