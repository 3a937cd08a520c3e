package webostv

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// ConnectionState tracks the lifecycle described in spec.md §3:
// Disconnected -> Connecting -> OpenUnregistered -> Prompted ->
// OpenRegistered -> Closing -> Closed, with failure transitioning to
// Closed from any state.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateOpenUnregistered
	StatePrompted
	StateOpenRegistered
	StateClosing
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpenUnregistered:
		return "open(unregistered)"
	case StatePrompted:
		return "prompted"
	case StateOpenRegistered:
		return "open(registered)"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const defaultRequestTimeout = 60 * time.Second

type pendingRequest struct {
	ch chan inboundEnvelope
}

// Connection owns one WebSocket to a single TV: outbound framing,
// inbound demultiplexing to pending requests and live subscriptions,
// and the pairing state machine. One reader goroutine consumes the
// socket; writes are serialized by writeMu. See spec.md §4.1 and §5.
type Connection struct {
	endpoint  Endpoint
	tlsConfig *tls.Config
	logger    *slog.Logger
	timeout   time.Duration

	dial func(ctx context.Context) (frameTransport, error)

	mu        sync.Mutex
	state     ConnectionState
	transport frameTransport
	nextID    uint64
	pending   map[string]*pendingRequest
	subs      map[string]*subscription

	writeMu sync.Mutex

	closed     chan struct{}
	closeOnce  sync.Once
	readerDone chan struct{}
}

// Option configures a Connection at construction time.
type Option func(*Connection)

// WithLogger overrides the default slog logger (slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *Connection) { c.logger = l }
}

// WithRequestTimeout overrides the default 60s per-request deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Connection) { c.timeout = d }
}

// WithTLSConfig supplies an explicit *tls.Config for secure endpoints,
// taking precedence over any pinned-certificate or system-default
// policy (see BuildTLSConfig in tls.go).
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Connection) { c.tlsConfig = cfg }
}

// NewConnection builds a Connection for endpoint without dialing yet.
func NewConnection(endpoint Endpoint, opts ...Option) *Connection {
	c := &Connection{
		endpoint: endpoint,
		logger:   slog.Default(),
		timeout:  defaultRequestTimeout,
		state:    StateDisconnected,
		pending:  make(map[string]*pendingRequest),
		subs:     make(map[string]*subscription),
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.dial = func(ctx context.Context) (frameTransport, error) {
		return dialWS(ctx, endpoint.URL(), c.tlsConfig, nil)
	}
	return c
}

// Connect opens the WebSocket and starts the single reader goroutine.
// It does not perform pairing; see Register.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return newError(KindNotConnected, "", fmt.Errorf("connect called in state %s", c.state))
	}
	c.state = StateConnecting
	c.mu.Unlock()

	transport, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()
		return newError(KindNotConnected, c.endpoint.URL(), err)
	}

	c.mu.Lock()
	c.transport = transport
	c.state = StateOpenUnregistered
	c.readerDone = make(chan struct{})
	c.mu.Unlock()

	go c.readLoop()
	return nil
}

// Close is idempotent. It terminates the reader goroutine, fails every
// outstanding request with ErrConnectionClosed, and invalidates every
// live subscription exactly once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if c.state == StateDisconnected {
			c.state = StateClosed
			c.mu.Unlock()
			close(c.closed)
			return
		}
		c.state = StateClosing
		transport := c.transport
		c.mu.Unlock()

		if transport != nil {
			err = transport.Close()
		}
		close(c.closed)
		if c.readerDone != nil {
			<-c.readerDone
		}
	})
	return err
}

func (c *Connection) readLoop() {
	defer close(c.readerDone)
	for {
		data, err := c.transport.ReadFrame()
		if err != nil {
			c.logger.Debug("read loop terminating", "err", err)
			c.teardown()
			return
		}
		var env inboundEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("dropping malformed frame", "err", err)
			continue
		}
		c.dispatch(env)
	}
}

func (c *Connection) dispatch(env inboundEnvelope) {
	if env.ID == "" {
		c.logger.Debug("dropping envelope with no id")
		return
	}

	c.mu.Lock()
	if pr, ok := c.pending[env.ID]; ok {
		delete(c.pending, env.ID)
		c.mu.Unlock()
		pr.ch <- env
		return
	}
	sub, ok := c.subs[env.ID]
	c.mu.Unlock()
	if ok {
		sub.deliver(env)
		return
	}

	c.logger.Debug("dropping envelope matching neither a pending request nor a subscription", "id", env.ID)
}

// teardown fails all pending requests and subscriptions and transitions
// to Closed. Called from the reader goroutine on socket error/EOF, and
// safe to call at most meaningfully once (subsequent calls see empty
// registries).
func (c *Connection) teardown() {
	c.mu.Lock()
	c.state = StateClosed
	pending := c.pending
	c.pending = make(map[string]*pendingRequest)
	subs := c.subs
	c.subs = make(map[string]*subscription)
	c.mu.Unlock()

	closedEnv := inboundEnvelope{Type: typeError, Error: "connection closed"}
	for _, pr := range pending {
		pr.ch <- closedEnv
	}
	for _, sub := range subs {
		sub.deliverClosed()
	}
}

func (c *Connection) nextRequestID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return strconv.FormatUint(c.nextID, 10)
}

// parkPending registers a single-shot waiter for id. Used both by the
// normal request path and, during pairing, re-parked on the same id
// for the protocol's two-stage PROMPTED/REGISTERED exchange.
func (c *Connection) parkPending(id string) (*pendingRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed || c.state == StateClosing {
		return nil, ErrConnectionClosed
	}
	pr := &pendingRequest{ch: make(chan inboundEnvelope, 1)}
	c.pending[id] = pr
	return pr, nil
}

func (c *Connection) dropPending(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Connection) writeEnvelope(env outboundEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	c.mu.Lock()
	transport := c.transport
	state := c.state
	c.mu.Unlock()
	if transport == nil || state == StateClosed || state == StateClosing {
		return ErrConnectionClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return transport.WriteFrame(data)
}

func (c *Connection) waitFor(ctx context.Context, pr *pendingRequest, timeout time.Duration) (inboundEnvelope, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	select {
	case env := <-pr.ch:
		if env.Type == typeError && env.Error == "connection closed" {
			return inboundEnvelope{}, ErrConnectionClosed
		}
		return env, nil
	case <-deadline:
		return inboundEnvelope{}, ErrTimeout
	case <-ctx.Done():
		return inboundEnvelope{}, newError(KindTimeout, "", ctx.Err())
	case <-c.closed:
		return inboundEnvelope{}, ErrConnectionClosed
	}
}

// sendRequest is the connection-core half of spec.md §4.1's
// send_request: allocate id, park a pending future, write, then await
// the matching response bounded by the per-request timeout.
func (c *Connection) sendRequest(ctx context.Context, uri string, payload any) (json.RawMessage, error) {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state != StateOpenRegistered {
		return nil, newError(KindNotConnected, uri, fmt.Errorf("connection is %s", state))
	}

	id := c.nextRequestID()
	pr, err := c.parkPending(id)
	if err != nil {
		return nil, err
	}

	if err := c.writeEnvelope(outboundEnvelope{ID: id, Type: typeRequest, URI: uri, Payload: payload}); err != nil {
		c.dropPending(id)
		return nil, newError(KindNotConnected, uri, err)
	}

	env, err := c.waitFor(ctx, pr, c.timeout)
	if err != nil {
		c.dropPending(id)
		if e, ok := err.(*Error); ok {
			e.URI = uri
			return nil, e
		}
		return nil, err
	}

	if env.Type == typeError {
		return nil, commandFailedError(uri, env.Error, "")
	}
	return env.Payload, nil
}

// subscribeRaw sends a subscribe envelope using subID (a caller-supplied
// UUID string, not a RequestId) as the envelope id, and registers a
// subscription that will receive every future inbound envelope for
// that id until unsubscribeRaw or connection teardown.
func (c *Connection) subscribeRaw(uri, subID string, payload any, sub *subscription) error {
	c.mu.Lock()
	if c.state != StateOpenRegistered {
		state := c.state
		c.mu.Unlock()
		return newError(KindNotConnected, uri, fmt.Errorf("connection is %s", state))
	}
	c.subs[subID] = sub
	c.mu.Unlock()

	if err := c.writeEnvelope(outboundEnvelope{ID: subID, Type: typeSubscribe, URI: uri, Payload: payload}); err != nil {
		c.mu.Lock()
		delete(c.subs, subID)
		c.mu.Unlock()
		return newError(KindNotConnected, uri, err)
	}
	return nil
}

// unsubscribeRaw is fire-and-forget at the protocol level: the
// envelope is written and the registry entry removed without waiting
// for any acknowledgement.
func (c *Connection) unsubscribeRaw(uri, subID string) error {
	c.mu.Lock()
	delete(c.subs, subID)
	c.mu.Unlock()
	return c.writeEnvelope(outboundEnvelope{ID: subID, Type: typeUnsubscribe, URI: uri, Payload: map[string]any{}})
}

func (c *Connection) setState(s ConnectionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Connection) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
