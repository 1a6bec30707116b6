package client

import (
	"context"
	"sync"

	"github.com/redbco/openwire-go/command"
	"github.com/redbco/openwire-go/ids"
	"github.com/redbco/openwire-go/logging"
	"github.com/redbco/openwire-go/transport"
)

// fakeFilter stands in for the transport stack's top Filter so client
// package tests can drive a ConnectionKernel without a real socket,
// matching transport's own recordingFilter test double.
type fakeFilter struct {
	mu          sync.Mutex
	oneways     []command.Command
	requests    []command.Command
	responseFor func(cmd command.Command) (command.Command, error)
}

func (f *fakeFilter) Start(context.Context) error { return nil }
func (f *fakeFilter) Stop() error                 { return nil }
func (f *fakeFilter) Close() error                 { return nil }
func (f *fakeFilter) SetListener(transport.Listener) {}

func (f *fakeFilter) Oneway(cmd command.Command) error {
	f.mu.Lock()
	f.oneways = append(f.oneways, cmd)
	f.mu.Unlock()
	return nil
}

func (f *fakeFilter) Request(ctx context.Context, cmd command.Command) (command.Command, error) {
	f.mu.Lock()
	f.requests = append(f.requests, cmd)
	f.mu.Unlock()
	if f.responseFor != nil {
		return f.responseFor(cmd)
	}
	return &command.Response{}, nil
}

func (f *fakeFilter) onewayCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.oneways)
}

func (f *fakeFilter) lastOneway() command.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.oneways) == 0 {
		return nil
	}
	return f.oneways[len(f.oneways)-1]
}

// newTestConnectionKernel builds a started ConnectionKernel over a
// fakeFilter, bypassing Dial's socket and handshake.
func newTestConnectionKernel() (*ConnectionKernel, *fakeFilter) {
	f := &fakeFilter{}
	k := &ConnectionKernel{
		cfg:       Config{QueueBrowserPrefetch: 100, DefaultPrefetch: 1000},
		id:        ids.NewConnectionId("test-conn"),
		logger:    logging.New(),
		top:       f,
		state:     transport.NewWireFormatState(),
		sessions:  make(map[string]*SessionKernel),
		consumers: make(map[string]*ConsumerKernel),
		producers: make(map[string]*ProducerKernel),
		txns:      make(map[string]*txnEntry),
	}
	k.started.Store(true)
	return k, f
}

func mustCreateSession(k *ConnectionKernel, ackMode AckMode) *SessionKernel {
	s, err := k.CreateSession(context.Background(), ackMode)
	if err != nil {
		panic(err)
	}
	return s
}
