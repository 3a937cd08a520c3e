package webostv

import "context"

// TV is the high-level entry point: one Connection plus one instance
// of each control surface, wired together the way a caller actually
// wants to use them (tv.Media.VolumeUp(ctx) rather than juggling a
// bare Connection and command tables directly).
type TV struct {
	conn *Connection

	Media       *MediaControl
	Channel     *TvControl
	Source      *SourceControl
	System      *SystemControl
	Application *ApplicationControl
	Input       *InputControl
}

// Open dials endpoint and wires up every control surface. It does not
// pair — call Register before issuing any command.
func Open(ctx context.Context, endpoint Endpoint, opts ...Option) (*TV, error) {
	conn := NewConnection(endpoint, opts...)
	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}
	return &TV{
		conn:        conn,
		Media:       newMediaControl(conn),
		Channel:     newTvControl(conn),
		Source:      newSourceControl(conn),
		System:      newSystemControl(conn),
		Application: newApplicationControl(conn),
		Input:       newInputControl(conn),
	}, nil
}

// Register runs the pairing handshake over the TV's connection. See
// Connection.Register for the event stream's semantics.
func (tv *TV) Register(ctx context.Context, manifest Manifest, key ClientKey) <-chan PairingEvent {
	return tv.conn.Register(ctx, manifest, key)
}

// State reports the underlying connection's lifecycle state.
func (tv *TV) State() ConnectionState {
	return tv.conn.State()
}

// Close tears down the connection and invalidates every subscription.
func (tv *TV) Close() error {
	return tv.conn.Close()
}
