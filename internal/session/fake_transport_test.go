package session

import (
	"errors"
	"sync"
)

// fakeTransport is an in-memory Transport for tests: a queue of inbound
// messages to hand back from ReadMessage, and a recorder of everything
// written via WriteMessage.
type fakeTransport struct {
	mu       sync.Mutex
	inbound  [][]byte
	outbound [][]byte
	closed   bool
	closeMsg string
}

func newFakeTransport(inbound ...[]byte) *fakeTransport {
	return &fakeTransport{inbound: inbound}
}

func (f *fakeTransport) ReadMessage() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inbound) == 0 {
		return nil, errors.New("fakeTransport: no more inbound messages")
	}
	msg := f.inbound[0]
	f.inbound = f.inbound[1:]
	return msg, nil
}

func (f *fakeTransport) WriteMessage(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), p...)
	f.outbound = append(f.outbound, cp)
	return nil
}

func (f *fakeTransport) Close(reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closeMsg = reason
	return nil
}

func (f *fakeTransport) pushInbound(msg []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbound = append(f.inbound, msg)
}
