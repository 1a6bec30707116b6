package transport

import (
	"context"
	"sync"

	"github.com/redbco/openwire-go/command"
)

// recordingFilter is a minimal Filter used as the bottom of a chain in
// tests: it records every Oneway/Request call and lets tests push
// OnCommand/OnException upward through SetListener.
type recordingFilter struct {
	mu       sync.Mutex
	oneways  []command.Command
	requests []command.Command
	listener Listener

	onewayErr  error
	requestRet command.Command
	requestErr error
}

func (f *recordingFilter) Start(ctx context.Context) error { return nil }
func (f *recordingFilter) Stop() error                     { return nil }
func (f *recordingFilter) Close() error                     { return nil }
func (f *recordingFilter) SetListener(l Listener)           { f.listener = l }

func (f *recordingFilter) Oneway(cmd command.Command) error {
	f.mu.Lock()
	f.oneways = append(f.oneways, cmd)
	f.mu.Unlock()
	return f.onewayErr
}

func (f *recordingFilter) Request(ctx context.Context, cmd command.Command) (command.Command, error) {
	f.mu.Lock()
	f.requests = append(f.requests, cmd)
	f.mu.Unlock()
	return f.requestRet, f.requestErr
}

func (f *recordingFilter) push(cmd command.Command) {
	if f.listener != nil {
		f.listener.OnCommand(cmd)
	}
}

func (f *recordingFilter) fail(err error) {
	if f.listener != nil {
		f.listener.OnException(err)
	}
}

// recordingListener captures everything delivered to it, for assertions.
type recordingListener struct {
	mu       sync.Mutex
	commands []command.Command
	errs     []error
}

func (l *recordingListener) OnCommand(cmd command.Command) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commands = append(l.commands, cmd)
}

func (l *recordingListener) OnException(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func (l *recordingListener) snapshot() ([]command.Command, []error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cmds := make([]command.Command, len(l.commands))
	copy(cmds, l.commands)
	errs := make([]error, len(l.errs))
	copy(errs, l.errs)
	return cmds, errs
}
