package client

import (
	"sync"
	"time"

	"github.com/redbco/openwire-go/command"
)

// Dispatch is one delivery event queued for a consumer: the decoded
// message (nil marks end-of-browse, spec §4.4 QueueBrowser) plus the
// MessageDispatch envelope it arrived in.
type Dispatch struct {
	Envelope *command.MessageDispatch
	Message  command.Command
	Priority byte
}

// PriorityDispatchChannel is the ten-bucket priority FIFO behind every
// consumer kernel (spec §4.5), grounded on the teacher's per-class lane
// queues (ws.VirtualLink.Lanes) generalized from three traffic classes to
// ten message priorities. A plain mutex plus a channel that is closed and
// replaced on every mutation stands in for a condition variable: it lets
// Dequeue lay a single select over "signalled" and "timed out" without
// needing sync.Cond's broadcast-wakes-everyone-then-recheck dance.
type PriorityDispatchChannel struct {
	mu       sync.Mutex
	queues   [10][]*Dispatch
	enqueued int
	running  bool
	closed   bool
	notifyCh chan struct{}
}

// NewPriorityDispatchChannel returns a channel that is not yet running:
// Enqueue/EnqueueFirst work immediately, but Dequeue returns nil until
// Start is called (matching the original's constructor, which leaves the
// channel stopped so a consumer can't receive before its ConsumerInfo is
// registered).
func NewPriorityDispatchChannel() *PriorityDispatchChannel {
	return &PriorityDispatchChannel{notifyCh: make(chan struct{})}
}

func clampPriority(p byte) int {
	if p > 9 {
		return 9
	}
	return int(p)
}

func (c *PriorityDispatchChannel) wakeLocked() {
	close(c.notifyCh)
	c.notifyCh = make(chan struct{})
}

// Enqueue appends d to the tail of its priority's sub-queue.
func (c *PriorityDispatchChannel) Enqueue(d *Dispatch) {
	c.mu.Lock()
	p := clampPriority(d.Priority)
	c.queues[p] = append(c.queues[p], d)
	c.enqueued++
	c.wakeLocked()
	c.mu.Unlock()
}

// EnqueueFirst prepends d to the head of its priority's sub-queue, used for
// redelivery (spec §4.5) so a message goes back to the front of its own
// priority band instead of the back.
func (c *PriorityDispatchChannel) EnqueueFirst(d *Dispatch) {
	c.mu.Lock()
	p := clampPriority(d.Priority)
	c.queues[p] = append([]*Dispatch{d}, c.queues[p]...)
	c.enqueued++
	c.wakeLocked()
	c.mu.Unlock()
}

// popLocked removes and returns the head of the highest non-empty
// sub-queue (9 down to 0), or nil if every sub-queue is empty. Caller must
// hold c.mu.
func (c *PriorityDispatchChannel) popLocked() *Dispatch {
	for p := 9; p >= 0; p-- {
		if len(c.queues[p]) > 0 {
			d := c.queues[p][0]
			c.queues[p][0] = nil
			c.queues[p] = c.queues[p][1:]
			c.enqueued--
			return d
		}
	}
	return nil
}

// Dequeue pops the highest-priority pending dispatch, waiting up to
// timeout for one to arrive if the channel is currently empty. timeout < 0
// waits indefinitely; timeout == 0 returns immediately. Returns nil if the
// channel is stopped, closed, or the wait times out.
func (c *PriorityDispatchChannel) Dequeue(timeout time.Duration) *Dispatch {
	var deadline time.Time
	hasDeadline := timeout >= 0
	if hasDeadline {
		deadline = time.Now().Add(timeout)
	}

	for {
		c.mu.Lock()
		if !c.running || c.closed {
			c.mu.Unlock()
			return nil
		}
		if c.enqueued > 0 {
			d := c.popLocked()
			c.mu.Unlock()
			return d
		}
		ch := c.notifyCh
		c.mu.Unlock()

		if hasDeadline && !deadline.After(time.Now()) {
			return nil
		}

		if !hasDeadline {
			<-ch
			continue
		}

		timer := time.NewTimer(time.Until(deadline))
		select {
		case <-ch:
			timer.Stop()
		case <-timer.C:
			return nil
		}
	}
}

// DequeueNoWait is Dequeue(0): returns immediately, nil if nothing pending.
func (c *PriorityDispatchChannel) DequeueNoWait() *Dispatch {
	return c.Dequeue(0)
}

// Peek returns the dispatch Dequeue would return next, without removing
// it, or nil if the channel is stopped, closed, or empty.
func (c *PriorityDispatchChannel) Peek() *Dispatch {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || c.closed {
		return nil
	}
	for p := 9; p >= 0; p-- {
		if len(c.queues[p]) > 0 {
			return c.queues[p][0]
		}
	}
	return nil
}

// DrainAll removes and returns every pending dispatch in priority order,
// regardless of the running/closed state — used by a consumer's Close to
// recover anything the broker already dispatched but the application never
// consumed (spec §4.4 consumer close sequence).
func (c *PriorityDispatchChannel) DrainAll() []*Dispatch {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*Dispatch
	for {
		d := c.popLocked()
		if d == nil {
			break
		}
		out = append(out, d)
	}
	return out
}

// Clear discards every pending dispatch without delivering it.
func (c *PriorityDispatchChannel) Clear() {
	c.mu.Lock()
	for p := range c.queues {
		c.queues[p] = nil
	}
	c.enqueued = 0
	c.mu.Unlock()
}

// Enqueued returns the total count across every sub-queue (spec §4.5
// invariant: enqueued == sum of sub-queue sizes).
func (c *PriorityDispatchChannel) Enqueued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enqueued
}

// Start resumes delivery after Stop. A no-op once Close has been called:
// a closed channel never runs again.
func (c *PriorityDispatchChannel) Start() {
	c.mu.Lock()
	if !c.closed {
		c.running = true
		c.wakeLocked()
	}
	c.mu.Unlock()
}

// Stop suspends delivery: pending Dequeue calls wake and return nil, and
// new ones return nil immediately, until Start is called again.
func (c *PriorityDispatchChannel) Stop() {
	c.mu.Lock()
	c.running = false
	c.wakeLocked()
	c.mu.Unlock()
}

// Close permanently shuts the channel: every blocked and future Dequeue
// returns nil.
func (c *PriorityDispatchChannel) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.running = false
		c.wakeLocked()
	}
	c.mu.Unlock()
}

// IsClosed reports whether Close has been called.
func (c *PriorityDispatchChannel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// IsRunning reports the running flag (false after Stop, before Start).
func (c *PriorityDispatchChannel) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
