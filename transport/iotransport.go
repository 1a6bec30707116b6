package transport

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/redbco/openwire-go/command"
	"github.com/redbco/openwire-go/wireerr"
	"github.com/redbco/openwire-go/wireformat"
)

// IOTransport is the terminal Filter: it owns the net.Conn (TCP or TLS)
// and translates between Commands and wire frames via the command
// registry and wireformat package (spec §4.1/§4.2).
type IOTransport struct {
	conn     net.Conn
	state    *WireFormatState
	listener Listener

	writeMu sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewIOTransport wraps an already-dialed connection. state is shared with
// the WireFormatNegotiator placed above this filter in the stack.
func NewIOTransport(conn net.Conn, state *WireFormatState) *IOTransport {
	return &IOTransport{conn: conn, state: state, done: make(chan struct{})}
}

func (t *IOTransport) SetListener(l Listener) { t.listener = l }

func (t *IOTransport) Start(ctx context.Context) error {
	readCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	go t.readLoop(readCtx)
	return nil
}

func (t *IOTransport) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}
	return nil
}

func (t *IOTransport) Close() error {
	if t.cancel != nil {
		t.cancel()
	}
	return t.conn.Close()
}

func (t *IOTransport) readLoop(ctx context.Context) {
	defer close(t.done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		dataType, body, err := wireformat.ReadFrame(t.conn)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if err == io.EOF {
				t.notifyException(wireerr.Closed("transport: peer closed the connection"))
			} else {
				t.notifyException(wireerr.Transport(err, "transport: read failed"))
			}
			return
		}
		if body == nil && dataType == 0 {
			continue // wire-level no-op frame
		}
		cmd, err := command.Decode(dataType, body, t.state.TightEncoding())
		if err != nil {
			t.notifyException(err)
			return
		}
		if t.listener != nil {
			t.listener.OnCommand(cmd)
		}
	}
}

func (t *IOTransport) notifyException(err error) {
	if t.listener != nil {
		t.listener.OnException(err)
	}
}

func (t *IOTransport) Oneway(cmd command.Command) error {
	dataType, body, err := command.Encode(cmd, t.state.TightEncoding())
	if err != nil {
		return err
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return wireformat.WriteFrame(t.conn, dataType, body)
}

// Request is never reached on IOTransport in the standard stack: the
// ResponseCorrelator above converts every Request into a correlated
// Oneway plus an async OnCommand wait.
func (t *IOTransport) Request(ctx context.Context, cmd command.Command) (command.Command, error) {
	return nil, wireerr.Unsupported("transport: IOTransport does not support synchronous Request; build the stack with a ResponseCorrelator")
}
