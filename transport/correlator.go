package transport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/redbco/openwire-go/command"
	"github.com/redbco/openwire-go/wireerr"
)

type correlatedResult struct {
	cmd command.Command
	err error
}

// ResponseCorrelator is the topmost filter: it assigns each outbound
// command a fresh CommandID and, for Request calls, matches the
// eventual Response/ExceptionResponse back to the caller (spec §4.2).
type ResponseCorrelator struct {
	baseFilter
	nextID  int32
	mu      sync.Mutex
	pending map[int32]chan correlatedResult
}

func NewResponseCorrelator(next Filter) *ResponseCorrelator {
	c := &ResponseCorrelator{
		pending: make(map[int32]chan correlatedResult),
	}
	c.baseFilter = newBaseFilter(next, c)
	return c
}

func (c *ResponseCorrelator) assignID(cmd command.Command) int32 {
	id := atomic.AddInt32(&c.nextID, 1)
	cmd.SetCommandID(id)
	return id
}

func (c *ResponseCorrelator) Oneway(cmd command.Command) error {
	c.assignID(cmd)
	cmd.SetResponseRequired(false)
	return c.next.Oneway(cmd)
}

func (c *ResponseCorrelator) Request(ctx context.Context, cmd command.Command) (command.Command, error) {
	id := c.assignID(cmd)
	cmd.SetResponseRequired(true)

	ch := make(chan correlatedResult, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.next.Oneway(cmd); err != nil {
		return nil, err
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		if exc, ok := res.cmd.(*command.ExceptionResponse); ok {
			return nil, wireerr.Broker(nil, "%s: %s", exc.ExceptionClass, exc.Message)
		}
		return res.cmd, nil
	case <-ctx.Done():
		return nil, wireerr.Timeout("request %d: %v", id, ctx.Err())
	}
}

// OnCommand intercepts Response/ExceptionResponse frames addressed to a
// pending Request and completes it; every other command is forwarded to
// the listener above this filter.
func (c *ResponseCorrelator) OnCommand(cmd command.Command) {
	var correlationID int32
	switch resp := cmd.(type) {
	case *command.ExceptionResponse:
		correlationID = resp.CorrelationId
	case *command.Response:
		correlationID = resp.CorrelationId
	default:
		c.baseFilter.OnCommand(cmd)
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[correlationID]
	c.mu.Unlock()
	if ok {
		ch <- correlatedResult{cmd: cmd}
		return
	}
	c.baseFilter.OnCommand(cmd)
}

// OnException wakes every in-flight Request with the connection failure
// instead of leaving it blocked on a transport that will never reply, then
// forwards the exception to the listener above this filter.
func (c *ResponseCorrelator) OnException(err error) {
	c.mu.Lock()
	pending := make([]chan correlatedResult, 0, len(c.pending))
	for id, ch := range c.pending {
		pending = append(pending, ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()
	for _, ch := range pending {
		ch <- correlatedResult{err: wireerr.Transport(err, "connection closed while awaiting response")}
	}
	c.baseFilter.OnException(err)
}
