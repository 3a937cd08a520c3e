package webostv

import (
	"context"
	"io"
	"sync"
)

// fakeTransport is an in-memory frameTransport double standing in for
// a real WebSocket so connection/pairing/subscription logic can be
// exercised without a network, mirroring the teacher's mock-client
// style of test double (server/wsClient.go).
type fakeTransport struct {
	toClient   chan []byte
	fromClient chan []byte

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		toClient:   make(chan []byte, 16),
		fromClient: make(chan []byte, 16),
		done:       make(chan struct{}),
	}
}

func (f *fakeTransport) ReadFrame() ([]byte, error) {
	select {
	case b, ok := <-f.toClient:
		if !ok {
			return nil, io.EOF
		}
		return b, nil
	default:
	}
	select {
	case b, ok := <-f.toClient:
		if !ok {
			return nil, io.EOF
		}
		return b, nil
	case <-f.done:
		return nil, io.EOF
	}
}

func (f *fakeTransport) WriteFrame(data []byte) error {
	select {
	case f.fromClient <- data:
		return nil
	case <-f.done:
		return io.ErrClosedPipe
	}
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.done)
	}
	return nil
}

// serverSend injects a frame as if the TV had sent it.
func (f *fakeTransport) serverSend(data []byte) {
	select {
	case f.toClient <- data:
	case <-f.done:
	}
}

// serverRecv blocks for the next frame the client wrote.
func (f *fakeTransport) serverRecv() []byte {
	select {
	case b := <-f.fromClient:
		return b
	case <-f.done:
		return nil
	}
}

// newTestConnection builds a Connection wired to a fakeTransport,
// already past Connect, ready for state to be set by the caller.
func newTestConnection(opts ...Option) (*Connection, *fakeTransport) {
	ft := newFakeTransport()
	conn := NewConnection(Endpoint{Host: "tv.local"}, opts...)
	conn.dial = func(ctx context.Context) (frameTransport, error) {
		return ft, nil
	}
	if err := conn.Connect(context.Background()); err != nil {
		panic(err)
	}
	return conn, ft
}
