package webostv

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// SubscriptionCallback receives each event delivered to a live
// subscription. ok is false when the TV reported a failure or the
// connection tore down; value is the command's transformed payload
// (see CommandDescriptor.Transform) on success and nil otherwise.
type SubscriptionCallback func(ok bool, value any, err error)

// subscription is the connection-side record of one live subscribe.
// Events are dispatched synchronously from the connection's single
// reader goroutine, in arrival order — mirroring the reference
// client's single-task asyncio dispatch loop, so ordering guarantees
// never exceed what that implementation actually provides.
type subscription struct {
	id       string
	uri      string
	desc     *CommandDescriptor
	callback SubscriptionCallback
	logger   *slog.Logger
}

func newSubscription(id, uri string, desc *CommandDescriptor, cb SubscriptionCallback, logger *slog.Logger) *subscription {
	return &subscription{id: id, uri: uri, desc: desc, callback: cb, logger: logger}
}

func (s *subscription) deliver(env inboundEnvelope) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("subscription callback panicked", "uri", s.uri, "recover", r)
		}
	}()

	if env.Type == typeError {
		s.callback(false, nil, commandFailedError(s.uri, env.Error, ""))
		return
	}

	value, err := s.desc.interpret(env.Payload)
	if err != nil {
		s.callback(false, nil, err)
		return
	}
	s.callback(true, value, nil)
}

func (s *subscription) deliverClosed() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("subscription callback panicked", "uri", s.uri, "recover", r)
		}
	}()
	s.callback(false, nil, ErrConnectionClosed)
}

// subscriptionRegistry tracks the per-control-object command-name to
// subscription-id mapping described in spec.md §6: at most one active
// subscription per (control object, command) pair. mu guards byCommand
// the same way Connection.mu guards Connection.pending/subs — spec.md
// §5 requires both registries to be safe under concurrent access, and
// a control object's Subscribe/Unsubscribe methods are meant to be
// callable from multiple goroutines.
type subscriptionRegistry struct {
	conn *Connection

	mu        sync.Mutex
	byCommand map[string]string
}

func newSubscriptionRegistry(conn *Connection) *subscriptionRegistry {
	return &subscriptionRegistry{conn: conn, byCommand: make(map[string]string)}
}

// subscribe registers a new subscription for desc, or returns
// ErrAlreadySubscribed if commandName already has a live one.
func (r *subscriptionRegistry) subscribe(commandName string, desc *CommandDescriptor, args []any, cb SubscriptionCallback) error {
	if !desc.Subscribable {
		return newError(KindNotSubscribable, desc.URI, fmt.Errorf("%s is not subscribable", commandName))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byCommand[commandName]; ok {
		return newError(KindAlreadySubscribed, desc.URI, fmt.Errorf("already subscribed to %s", commandName))
	}

	payload, err := desc.buildPayload(args)
	if err != nil {
		return err
	}
	// Spec §4.4: a subscribe envelope's payload is the command args
	// plus "subscribe": true, not the bare args (S2: payload=={"subscribe":true}).
	payload["subscribe"] = true

	subID := uuid.NewString()
	sub := newSubscription(subID, desc.URI, desc, cb, r.conn.logger)
	if err := r.conn.subscribeRaw(desc.URI, subID, payload, sub); err != nil {
		return err
	}
	r.byCommand[commandName] = subID
	return nil
}

// unsubscribe tears down the live subscription for commandName, or
// returns ErrNotSubscribed if there is none.
func (r *subscriptionRegistry) unsubscribe(commandName string, desc *CommandDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	subID, ok := r.byCommand[commandName]
	if !ok {
		return newError(KindNotSubscribed, desc.URI, fmt.Errorf("not subscribed to %s", commandName))
	}
	delete(r.byCommand, commandName)
	return r.conn.unsubscribeRaw(desc.URI, subID)
}
