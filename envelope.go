package webostv

import "encoding/json"

// envelopeType is the "type" field of the SSAP wire envelope.
type envelopeType string

const (
	typeRegister    envelopeType = "register"
	typeRequest     envelopeType = "request"
	typeSubscribe   envelopeType = "subscribe"
	typeUnsubscribe envelopeType = "unsubscribe"

	typeResponse   envelopeType = "response"
	typeRegistered envelopeType = "registered"
	typeError      envelopeType = "error"
)

// outboundEnvelope is the frame written to the socket. Envelope shape
// per spec.md §3: id, type, uri (absent for register), payload.
type outboundEnvelope struct {
	ID      string       `json:"id"`
	Type    envelopeType `json:"type"`
	URI     string       `json:"uri,omitempty"`
	Payload any          `json:"payload"`
}

// inboundEnvelope is the frame read from the socket. The TV's payload
// shape varies by command, so it is kept as raw JSON until a command's
// validator/transform interprets it.
type inboundEnvelope struct {
	ID      string          `json:"id"`
	Type    envelopeType    `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Error   string          `json:"error"`
}
