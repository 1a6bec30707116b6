package transport

import (
	"context"

	"github.com/redbco/openwire-go/command"
	"github.com/redbco/openwire-go/wireerr"
)

// AsyncSend decouples Oneway callers from the socket write: commands are
// queued to a channel drained by a single sender goroutine, so a producer
// blocked waiting for TCP write buffer space never stalls an unrelated
// consumer ack. Optional — the stack builder only inserts it when the
// caller asks for async sends (spec §4.2).
type AsyncSend struct {
	baseFilter
	queue  chan command.Command
	errCh  chan error
	cancel context.CancelFunc
}

func NewAsyncSend(next Filter, queueSize int) *AsyncSend {
	if queueSize <= 0 {
		queueSize = 128
	}
	a := &AsyncSend{
		queue: make(chan command.Command, queueSize),
		errCh: make(chan error, 1),
	}
	a.baseFilter = newBaseFilter(next, a)
	return a
}

func (a *AsyncSend) Start(ctx context.Context) error {
	if err := a.baseFilter.Start(ctx); err != nil {
		return err
	}
	senderCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	go a.sendLoop(senderCtx)
	return nil
}

func (a *AsyncSend) Stop() error {
	if a.cancel != nil {
		a.cancel()
	}
	return a.baseFilter.Stop()
}

func (a *AsyncSend) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-a.queue:
			if err := a.next.Oneway(cmd); err != nil {
				a.OnException(wireerr.Transport(err, "async send: write failed"))
				return
			}
		}
	}
}

// Oneway enqueues cmd for the sender goroutine. A full queue blocks the
// caller, the same bounded-channel backpressure the teacher's lanes use,
// rather than growing an unbounded buffer.
func (a *AsyncSend) Oneway(cmd command.Command) error {
	a.queue <- cmd
	return nil
}

// Request bypasses the async queue: a caller waiting for a correlated
// reply needs the send to happen now, not whenever the sender goroutine
// gets to it.
func (a *AsyncSend) Request(ctx context.Context, cmd command.Command) (command.Command, error) {
	return a.next.Request(ctx, cmd)
}
