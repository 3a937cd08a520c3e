package webostv

import (
	"context"
	"encoding/json"
	"fmt"
)

// PairingStatus reports where a Register call is in the two-stage
// handshake: the TV first PROMPTS the user on-screen, then, once they
// accept, sends REGISTERED with the client key to use on future
// connections.
type PairingStatus int

const (
	Prompted PairingStatus = iota
	Registered
)

func (s PairingStatus) String() string {
	if s == Registered {
		return "REGISTERED"
	}
	return "PROMPTED"
}

// PairingEvent is one step of the Register stream. Err is non-nil only
// on the final event of a failed handshake, in which case Status is
// meaningless and the channel closes immediately after.
type PairingEvent struct {
	Status    PairingStatus
	ClientKey ClientKey
	Err       error
}

type registerPayload struct {
	ForcePairing    bool              `json:"forcePairing"`
	PairingType     string            `json:"pairingType"`
	ManifestVersion int               `json:"manifestVersion"`
	AppVersion      string            `json:"appVersion"`
	Permissions     []string          `json:"permissions"`
	Signed          ManifestSigned    `json:"signed"`
	Signatures      []ManifestSigning `json:"signatures"`
	ClientKey       ClientKey         `json:"client-key,omitempty"`
}

type registeredPayload struct {
	ClientKey ClientKey `json:"client-key"`
}

// promptPayload is the shape of the TV's first-stage response: it
// asked the viewer to accept or deny the pairing request.
type promptPayload struct {
	PairingType string `json:"pairingType"`
}

// Register runs the pairing handshake described in spec.md §4.2:
// one envelope id is reused across both the PROMPTED and REGISTERED
// responses, since the TV does not send the second until the viewer
// accepts the on-screen prompt (which can take an arbitrary amount of
// time — callers should size ctx's deadline accordingly, or leave it
// unbounded).
//
// If key is non-empty, the TV recognizes the app immediately and the
// handshake completes without a visible PROMPTED stage (the event is
// still observable on the returned channel when the TV does emit it).
// The returned channel always closes after exactly one terminal event:
// a Registered status, or an event with Err set.
func (c *Connection) Register(ctx context.Context, manifest Manifest, key ClientKey) <-chan PairingEvent {
	events := make(chan PairingEvent, 2)
	go c.runRegister(ctx, manifest, key, events)
	return events
}

func (c *Connection) runRegister(ctx context.Context, manifest Manifest, key ClientKey, events chan<- PairingEvent) {
	defer close(events)

	id := c.nextRequestID()
	pr, err := c.parkPending(id)
	if err != nil {
		events <- PairingEvent{Err: err}
		return
	}

	payload := registerPayload{
		ForcePairing:    manifest.ForcePairing,
		PairingType:     manifest.PairingType,
		ManifestVersion: manifest.ManifestVersion,
		AppVersion:      manifest.AppVersion,
		Permissions:     manifest.Permissions,
		Signed:          manifest.Signed,
		Signatures:      manifest.Signatures,
		ClientKey:       key,
	}
	if err := c.writeEnvelope(outboundEnvelope{ID: id, Type: typeRegister, Payload: payload}); err != nil {
		c.dropPending(id)
		events <- PairingEvent{Err: newError(KindRegistrationFailed, "", err)}
		return
	}

	env, err := c.waitFor(ctx, pr, 0)
	if err != nil {
		c.dropPending(id)
		events <- PairingEvent{Err: err}
		return
	}

	if env.Type == typeRegistered {
		c.finishRegistration(env, events)
		return
	}
	if env.Type == typeError {
		events <- PairingEvent{Err: registrationFailedError(env.Error)}
		return
	}

	var pp promptPayload
	if len(env.Payload) > 0 {
		_ = json.Unmarshal(env.Payload, &pp)
	}
	if pp.PairingType != "PROMPT" {
		events <- PairingEvent{Err: registrationFailedError(fmt.Sprintf("unexpected first-stage response (type=%s, pairingType=%q)", env.Type, pp.PairingType))}
		return
	}

	// First stage: the TV is prompting the viewer. Re-park the same id
	// for the second stage before telling the caller, so a fast accept
	// can never race ahead of our own registration.
	c.setState(StatePrompted)
	pr2, err := c.parkPending(id)
	if err != nil {
		events <- PairingEvent{Err: err}
		return
	}
	events <- PairingEvent{Status: Prompted}

	env2, err := c.waitFor(ctx, pr2, 0)
	if err != nil {
		c.dropPending(id)
		events <- PairingEvent{Err: registrationFailedError(err.Error())}
		return
	}
	if env2.Type == typeError {
		events <- PairingEvent{Err: registrationFailedError(env2.Error)}
		return
	}
	if env2.Type != typeRegistered {
		events <- PairingEvent{Err: registrationFailedError("TV did not complete registration after prompt")}
		return
	}
	c.finishRegistration(env2, events)
}

func (c *Connection) finishRegistration(env inboundEnvelope, events chan<- PairingEvent) {
	var rp registeredPayload
	if len(env.Payload) > 0 {
		_ = json.Unmarshal(env.Payload, &rp)
	}
	c.setState(StateOpenRegistered)
	events <- PairingEvent{Status: Registered, ClientKey: rp.ClientKey}
}
