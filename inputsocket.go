package webostv

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// InputSocket is the secondary WebSocket opened against the URL
// returned by ssap://com.webos.service.networkinput/getPointerInputSocket.
// Unlike the SSAP control channel, this socket uses a line-oriented
// key:value wire format terminated by a blank line, not JSON — ported
// from the reference client's INPUT_COMMANDS/exec_mouse_command.
type InputSocket struct {
	mu        sync.Mutex
	transport frameTransport
}

var (
	cmdGetPointerInputSocket = &CommandDescriptor{URI: "ssap://com.webos.service.networkinput/getPointerInputSocket"}
	cmdInsertText = &CommandDescriptor{
		URI: "ssap://com.webos.service.ime/insertText",
		Args: []ArgSpec{
			{Name: "text", Required: true},
			{Name: "replace", Default: 0},
		},
	}
	cmdDeleteCharacters = &CommandDescriptor{
		URI:  "ssap://com.webos.service.ime/deleteCharacters",
		Args: []ArgSpec{{Name: "count", Required: true, Validate: positiveInt}},
	}
	cmdSendEnterKey = &CommandDescriptor{URI: "ssap://com.webos.service.ime/sendEnterKey"}
)

// InputControl sends text/enter-key traffic over the main SSAP
// connection and obtains an InputSocket for pointer/button input.
type InputControl struct {
	controlBase
}

func newInputControl(conn *Connection) *InputControl {
	return &InputControl{controlBase: newControlBase(conn)}
}

// InsertText types text into whatever field currently has focus on the
// TV. replace, when true, clears the field's existing contents first.
func (in *InputControl) InsertText(ctx context.Context, text string, replace bool) error {
	replaceArg := 0
	if replace {
		replaceArg = 1
	}
	_, err := in.run(ctx, cmdInsertText, text, replaceArg)
	return err
}

// DeleteCharacters removes count characters before the cursor in the
// currently focused field.
func (in *InputControl) DeleteCharacters(ctx context.Context, count int) error {
	_, err := in.run(ctx, cmdDeleteCharacters, count)
	return err
}

// SendEnterKey submits the currently focused field.
func (in *InputControl) SendEnterKey(ctx context.Context) error {
	_, err := in.run(ctx, cmdSendEnterKey)
	return err
}

// Connect fetches the pointer socket URL from the TV and dials it,
// reusing the same TLS configuration as the owning Connection.
func (in *InputControl) Connect(ctx context.Context) (*InputSocket, error) {
	v, err := in.run(ctx, cmdGetPointerInputSocket)
	if err != nil {
		return nil, err
	}
	body, _ := v.(map[string]any)
	socketPath, _ := body["socketPath"].(string)
	if socketPath == "" {
		return nil, newError(KindCommandFailed, cmdGetPointerInputSocket.URI, fmt.Errorf("TV did not return a socketPath"))
	}
	transport, err := dialWS(ctx, socketPath, in.conn.tlsConfig, nil)
	if err != nil {
		return nil, newError(KindNotConnected, socketPath, err)
	}
	return &InputSocket{transport: transport}, nil
}

func (s *InputSocket) send(fields [][2]string) error {
	var b strings.Builder
	for _, kv := range fields {
		b.WriteString(kv[0])
		b.WriteByte(':')
		b.WriteString(kv[1])
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport.WriteFrame([]byte(b.String()))
}

func (s *InputSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport.Close()
}

// Click sends a pointer click at the cursor's current position.
func (s *InputSocket) Click() error {
	return s.send([][2]string{{"type", "click"}})
}

// Move relays a relative pointer movement. When drag is true the TV
// treats it as a drag rather than a hover move.
func (s *InputSocket) Move(dx, dy float64, drag bool) error {
	fields := [][2]string{
		{"type", "move"},
		{"dx", fmt.Sprintf("%v", dx)},
		{"dy", fmt.Sprintf("%v", dy)},
	}
	if drag {
		fields = append(fields, [2]string{"down", "1"})
	}
	return s.send(fields)
}

// Scroll relays a relative wheel scroll.
func (s *InputSocket) Scroll(dx, dy float64) error {
	return s.send([][2]string{
		{"type", "scroll"},
		{"dx", fmt.Sprintf("%v", dx)},
		{"dy", fmt.Sprintf("%v", dy)},
	})
}

// Button sends a named remote button press, e.g. "HOME", "ENTER",
// "CHANNELUP". See the Home/Back/Ok/... helpers for the common ones.
func (s *InputSocket) Button(name string) error {
	return s.send([][2]string{{"type", "button"}, {"name", name}})
}

func (s *InputSocket) Home() error       { return s.Button("HOME") }
func (s *InputSocket) Back() error       { return s.Button("BACK") }
func (s *InputSocket) Ok() error         { return s.Button("ENTER") }
func (s *InputSocket) Up() error         { return s.Button("UP") }
func (s *InputSocket) Down() error       { return s.Button("DOWN") }
func (s *InputSocket) Left() error       { return s.Button("LEFT") }
func (s *InputSocket) Right() error      { return s.Button("RIGHT") }
func (s *InputSocket) Menu() error       { return s.Button("MENU") }
func (s *InputSocket) Exit() error       { return s.Button("EXIT") }
func (s *InputSocket) VolumeUp() error   { return s.Button("VOLUMEUP") }
func (s *InputSocket) VolumeDown() error { return s.Button("VOLUMEDOWN") }
func (s *InputSocket) ChannelUp() error  { return s.Button("CHANNELUP") }
func (s *InputSocket) ChannelDown() error {
	return s.Button("CHANNELDOWN")
}
func (s *InputSocket) Red() error    { return s.Button("RED") }
func (s *InputSocket) Green() error  { return s.Button("GREEN") }
func (s *InputSocket) Yellow() error { return s.Button("YELLOW") }
func (s *InputSocket) Blue() error   { return s.Button("BLUE") }

// Digit sends one of the numeric remote buttons 0-9.
func (s *InputSocket) Digit(n int) error {
	if n < 0 || n > 9 {
		return fmt.Errorf("digit must be between 0 and 9, got %d", n)
	}
	return s.Button(fmt.Sprintf("%d", n))
}
