package webostv

import (
	"context"
	"encoding/json"
	"fmt"
)

// ArgSpec describes one positional argument a CommandDescriptor accepts,
// mirroring the reference client's arguments()/process_payload() pair:
// a name used as the payload's JSON key, whether the caller must supply
// it, a default value when they don't, and an optional validator.
type ArgSpec struct {
	Name     string
	Required bool
	Default  any
	Validate func(any) error
}

// CommandDescriptor is the declarative shape of one ssap:// operation:
// its URI, its argument schema, whether the TV allows subscribing to
// it, how to validate the TV's response, and how to turn a raw
// response payload into the value handed to callers. Concrete control
// types (controls.go) are mechanically derived from tables of these.
type CommandDescriptor struct {
	URI          string
	Args         []ArgSpec
	Subscribable bool

	// PayloadBuilder overrides positional Args-based payload assembly
	// for commands whose payload shape doesn't fit name:value pairs.
	PayloadBuilder func(args []any) (map[string]any, error)

	// ResponseValidate checks the raw TV response for success,
	// returning a *Error (usually KindCommandFailed) on failure. Nil
	// means DefaultResponseValidate.
	ResponseValidate func(payload json.RawMessage) error

	// Transform turns a validated raw payload into the value returned
	// to the caller. Nil means "unmarshal into map[string]any".
	Transform func(payload json.RawMessage) (any, error)
}

// buildPayload zips args positionally against Args, applying defaults
// for omitted trailing arguments and running each ArgSpec's validator.
func (d *CommandDescriptor) buildPayload(args []any) (map[string]any, error) {
	if d.PayloadBuilder != nil {
		return d.PayloadBuilder(args)
	}
	if len(args) > len(d.Args) {
		return nil, invalidArgumentError(d.URI, fmt.Errorf("expected at most %d arguments, got %d", len(d.Args), len(args)))
	}

	payload := make(map[string]any, len(d.Args))
	for i, spec := range d.Args {
		var value any
		if i < len(args) {
			value = args[i]
		} else if spec.Required {
			return nil, invalidArgumentError(d.URI, fmt.Errorf("missing required argument %q", spec.Name))
		} else {
			value = spec.Default
		}
		if spec.Validate != nil {
			if err := spec.Validate(value); err != nil {
				return nil, invalidArgumentError(d.URI, fmt.Errorf("argument %q: %w", spec.Name, err))
			}
		}
		if value != nil {
			payload[spec.Name] = value
		}
	}
	return payload, nil
}

// defaultResponseEnvelope is the common shape of an SSAP success/failure
// payload: {"returnValue": bool, "errorText": "...", "errorCode": "..."}.
type defaultResponseEnvelope struct {
	ReturnValue *bool  `json:"returnValue"`
	ErrorText   string `json:"errorText"`
	ErrorCode   string `json:"errorCode"`
}

// DefaultResponseValidate implements the reference client's
// standard_validation: a payload whose "returnValue" is missing or
// false is a CommandFailed error carrying the TV's text. An empty
// payload is accepted as success.
func DefaultResponseValidate(uri string) func(json.RawMessage) error {
	return func(payload json.RawMessage) error {
		if len(payload) == 0 {
			return nil
		}
		var env defaultResponseEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return nil
		}
		if env.ReturnValue == nil || !*env.ReturnValue {
			return commandFailedError(uri, env.ErrorText, env.ErrorCode)
		}
		return nil
	}
}

func (d *CommandDescriptor) validator() func(json.RawMessage) error {
	if d.ResponseValidate != nil {
		return d.ResponseValidate
	}
	return DefaultResponseValidate(d.URI)
}

// interpret runs the response validator then the transform, producing
// the value delivered to a request caller or a subscription callback.
func (d *CommandDescriptor) interpret(payload json.RawMessage) (any, error) {
	if err := d.validator()(payload); err != nil {
		return nil, err
	}
	if d.Transform != nil {
		return d.Transform(payload)
	}
	if len(payload) == 0 {
		return map[string]any{}, nil
	}
	var value map[string]any
	if err := json.Unmarshal(payload, &value); err != nil {
		return nil, newError(KindCommandFailed, d.URI, fmt.Errorf("decoding response: %w", err))
	}
	return value, nil
}

// execCommand runs desc against conn: build the payload, send the
// request, validate and transform the response. This is the common
// path every typed control method funnels through.
func execCommand(ctx context.Context, conn *Connection, desc *CommandDescriptor, args []any) (any, error) {
	payload, err := desc.buildPayload(args)
	if err != nil {
		return nil, err
	}
	raw, err := conn.sendRequest(ctx, desc.URI, payload)
	if err != nil {
		return nil, err
	}
	return desc.interpret(raw)
}
