package webostv

import (
	"context"
	"encoding/json"
	"fmt"
)

// controlBase is embedded by every typed control object. It owns no
// state of its own beyond the shared connection and this control's
// slice of the subscription registry — one registry per control
// object, keyed by command name, as spec.md §6 describes.
type controlBase struct {
	conn *Connection
	subs *subscriptionRegistry
}

func newControlBase(conn *Connection) controlBase {
	return controlBase{conn: conn, subs: newSubscriptionRegistry(conn)}
}

func (b *controlBase) run(ctx context.Context, desc *CommandDescriptor, args ...any) (any, error) {
	return execCommand(ctx, b.conn, desc, args)
}

func (b *controlBase) subscribe(name string, desc *CommandDescriptor, cb SubscriptionCallback, args ...any) error {
	return b.subs.subscribe(name, desc, args, cb)
}

func (b *controlBase) unsubscribe(name string, desc *CommandDescriptor) error {
	return b.subs.unsubscribe(name, desc)
}

func positiveInt(v any) error {
	n, ok := toInt(v)
	if !ok {
		return fmt.Errorf("expected an integer")
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

// rawPayloadBuilder builds a PayloadBuilder that forwards its sole
// argument verbatim as the outbound payload, for commands whose
// contract is "pass through an arbitrary dict" rather than named
// fields (e.g. launch(payload), close(payload), getAppState(payload)).
func rawPayloadBuilder(uri string) func([]any) (map[string]any, error) {
	return func(args []any) (map[string]any, error) {
		if len(args) < 1 || args[0] == nil {
			return map[string]any{}, nil
		}
		payload, ok := args[0].(map[string]any)
		if !ok {
			return nil, invalidArgumentError(uri, fmt.Errorf("payload must be a map[string]any"))
		}
		return payload, nil
	}
}

// intRange builds a validator rejecting integers outside [min, max],
// e.g. the 0-100 volume range spec.md §4.3 gives as its canonical
// validator example.
func intRange(min, max int) func(any) error {
	return func(v any) error {
		n, ok := toInt(v)
		if !ok {
			return fmt.Errorf("expected an integer")
		}
		if n < min || n > max {
			return fmt.Errorf("must be between %d and %d, got %d", min, max, n)
		}
		return nil
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// --- MediaControl -----------------------------------------------------

var (
	cmdVolumeUp     = &CommandDescriptor{URI: "ssap://audio/volumeUp"}
	cmdVolumeDown   = &CommandDescriptor{URI: "ssap://audio/volumeDown"}
	cmdGetVolume    = &CommandDescriptor{URI: "ssap://audio/getVolume", Subscribable: true}
	cmdSetVolume    = &CommandDescriptor{URI: "ssap://audio/setVolume", Args: []ArgSpec{{Name: "volume", Required: true, Validate: intRange(0, 100)}}}
	cmdSetMute      = &CommandDescriptor{URI: "ssap://audio/setMute", Args: []ArgSpec{{Name: "mute", Required: true}}}
	cmdGetSoundOutput = &CommandDescriptor{
		URI:          "ssap://audio/getSoundOutput",
		Subscribable: true,
		Transform: func(payload json.RawMessage) (any, error) {
			var body struct {
				SoundOutput string `json:"soundOutput"`
			}
			if err := json.Unmarshal(payload, &body); err != nil {
				return nil, err
			}
			return newAudioOutputSource(body.SoundOutput), nil
		},
	}
	cmdSetSoundOutput = &CommandDescriptor{URI: "ssap://audio/changeSoundOutput", Args: []ArgSpec{{Name: "output", Required: true}}}
	cmdMediaPlay      = &CommandDescriptor{URI: "ssap://media.controls/play"}
	cmdMediaPause     = &CommandDescriptor{URI: "ssap://media.controls/pause"}
	cmdMediaStop      = &CommandDescriptor{URI: "ssap://media.controls/stop"}
	cmdMediaRewind    = &CommandDescriptor{URI: "ssap://media.controls/rewind"}
	cmdMediaForward   = &CommandDescriptor{URI: "ssap://media.controls/fastForward"}
)

// MediaControl groups volume, sound-output, and transport commands.
type MediaControl struct {
	controlBase
}

func newMediaControl(conn *Connection) *MediaControl {
	return &MediaControl{controlBase: newControlBase(conn)}
}

func (m *MediaControl) VolumeUp(ctx context.Context) error {
	_, err := m.run(ctx, cmdVolumeUp)
	return err
}

func (m *MediaControl) VolumeDown(ctx context.Context) error {
	_, err := m.run(ctx, cmdVolumeDown)
	return err
}

func (m *MediaControl) GetVolume(ctx context.Context) (int, error) {
	v, err := m.run(ctx, cmdGetVolume)
	if err != nil {
		return 0, err
	}
	return intField(v, "volume"), nil
}

func (m *MediaControl) SetVolume(ctx context.Context, volume int) error {
	_, err := m.run(ctx, cmdSetVolume, volume)
	return err
}

func (m *MediaControl) SetMute(ctx context.Context, mute bool) error {
	_, err := m.run(ctx, cmdSetMute, mute)
	return err
}

func (m *MediaControl) GetSoundOutput(ctx context.Context) (AudioOutputSource, error) {
	v, err := m.run(ctx, cmdGetSoundOutput)
	if err != nil {
		return AudioOutputSource{}, err
	}
	return v.(AudioOutputSource), nil
}

func (m *MediaControl) SetSoundOutput(ctx context.Context, output string) error {
	_, err := m.run(ctx, cmdSetSoundOutput, output)
	return err
}

func (m *MediaControl) Play(ctx context.Context) error {
	_, err := m.run(ctx, cmdMediaPlay)
	return err
}

func (m *MediaControl) Pause(ctx context.Context) error {
	_, err := m.run(ctx, cmdMediaPause)
	return err
}

func (m *MediaControl) Stop(ctx context.Context) error {
	_, err := m.run(ctx, cmdMediaStop)
	return err
}

func (m *MediaControl) Rewind(ctx context.Context) error {
	_, err := m.run(ctx, cmdMediaRewind)
	return err
}

func (m *MediaControl) FastForward(ctx context.Context) error {
	_, err := m.run(ctx, cmdMediaForward)
	return err
}

// SubscribeVolume delivers the current volume whenever the TV reports
// a change. Returns ErrAlreadySubscribed if already subscribed.
func (m *MediaControl) SubscribeVolume(cb func(volume int, muted bool, err error)) error {
	return m.subscribe("getVolume", cmdGetVolume, func(ok bool, value any, err error) {
		if !ok {
			cb(0, false, err)
			return
		}
		body, _ := value.(map[string]any)
		vol, _ := toInt(body["volume"])
		muted, _ := body["muted"].(bool)
		cb(vol, muted, nil)
	})
}

func (m *MediaControl) UnsubscribeVolume() error {
	return m.unsubscribe("getVolume", cmdGetVolume)
}

// ListAudioOutputSources enumerates the fixed set of output routing
// targets the TV API recognizes. Unlike the other accessors this is
// static data, not a TV round-trip — it mirrors the reference client's
// AUDIO_OUTPUTS constant. SetSoundOutput does not check its argument
// against this list.
func (m *MediaControl) ListAudioOutputSources() []AudioOutputSource {
	names := []string{"tv_speaker", "external_speaker", "soundbar", "bt_soundbar", "tv_external_speaker"}
	out := make([]AudioOutputSource, 0, len(names))
	for _, n := range names {
		out = append(out, newAudioOutputSource(n))
	}
	return out
}

func intField(v any, key string) int {
	body, ok := v.(map[string]any)
	if !ok {
		return 0
	}
	n, _ := toInt(body[key])
	return n
}

// --- TvControl ----------------------------------------------------

var (
	cmdChannelUp       = &CommandDescriptor{URI: "ssap://tv/channelUp"}
	cmdChannelDown     = &CommandDescriptor{URI: "ssap://tv/channelDown"}
	cmdGetChannels     = &CommandDescriptor{URI: "ssap://tv/getChannelList"}
	cmdGetCurrentChannel = &CommandDescriptor{URI: "ssap://tv/getCurrentChannel", Subscribable: true}
	cmdGetChannelInfo  = &CommandDescriptor{URI: "ssap://tv/getChannelProgramInfo"}
	cmdSetChannel      = &CommandDescriptor{URI: "ssap://tv/openChannel", Args: []ArgSpec{{Name: "channelId", Required: true}}}
)

// TvControl groups channel-navigation commands.
type TvControl struct {
	controlBase
}

func newTvControl(conn *Connection) *TvControl {
	return &TvControl{controlBase: newControlBase(conn)}
}

func (t *TvControl) ChannelUp(ctx context.Context) error {
	_, err := t.run(ctx, cmdChannelUp)
	return err
}

func (t *TvControl) ChannelDown(ctx context.Context) error {
	_, err := t.run(ctx, cmdChannelDown)
	return err
}

func (t *TvControl) GetChannels(ctx context.Context) (map[string]any, error) {
	v, err := t.run(ctx, cmdGetChannels)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func (t *TvControl) GetCurrentChannel(ctx context.Context) (map[string]any, error) {
	v, err := t.run(ctx, cmdGetCurrentChannel)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func (t *TvControl) GetChannelInfo(ctx context.Context) (map[string]any, error) {
	v, err := t.run(ctx, cmdGetChannelInfo)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func (t *TvControl) SetChannel(ctx context.Context, channelID string) error {
	_, err := t.run(ctx, cmdSetChannel, channelID)
	return err
}

func (t *TvControl) SubscribeCurrentChannel(cb func(channel map[string]any, err error)) error {
	return t.subscribe("getCurrentChannel", cmdGetCurrentChannel, func(ok bool, value any, err error) {
		if !ok {
			cb(nil, err)
			return
		}
		cb(value.(map[string]any), nil)
	})
}

func (t *TvControl) UnsubscribeCurrentChannel() error {
	return t.unsubscribe("getCurrentChannel", cmdGetCurrentChannel)
}

// --- SourceControl --------------------------------------------------

var (
	cmdGetExternalInputList = &CommandDescriptor{
		URI: "ssap://tv/getExternalInputList",
		Transform: func(payload json.RawMessage) (any, error) {
			var body struct {
				Devices []map[string]any `json:"devices"`
			}
			if err := json.Unmarshal(payload, &body); err != nil {
				return nil, err
			}
			sources := make([]InputSource, 0, len(body.Devices))
			for _, raw := range body.Devices {
				src, err := newInputSource(raw)
				if err != nil {
					return nil, newError(KindCommandFailed, "ssap://tv/getExternalInputList", err)
				}
				sources = append(sources, src)
			}
			return sources, nil
		},
	}
	cmdSwitchInput = &CommandDescriptor{URI: "ssap://tv/switchInput", Args: []ArgSpec{{Name: "inputId", Required: true}}}
)

// SourceControl lists and switches between external inputs (HDMI, etc).
type SourceControl struct {
	controlBase
}

func newSourceControl(conn *Connection) *SourceControl {
	return &SourceControl{controlBase: newControlBase(conn)}
}

func (s *SourceControl) ListSources(ctx context.Context) ([]InputSource, error) {
	v, err := s.run(ctx, cmdGetExternalInputList)
	if err != nil {
		return nil, err
	}
	return v.([]InputSource), nil
}

func (s *SourceControl) SetSource(ctx context.Context, inputID string) error {
	_, err := s.run(ctx, cmdSwitchInput, inputID)
	return err
}

// --- SystemControl ----------------------------------------------------

var (
	cmdPowerOff       = &CommandDescriptor{URI: "ssap://system/turnOff"}
	cmdPowerOn        = &CommandDescriptor{URI: "ssap://system/turnOn"}
	cmdGetPowerState  = &CommandDescriptor{URI: "ssap://com.webos.service.tvpower/power/getPowerState", Subscribable: true}
	cmdNotify         = &CommandDescriptor{URI: "ssap://system.notifications/createToast", Args: []ArgSpec{{Name: "message", Required: true}}}
	cmdScreenOff      = &CommandDescriptor{URI: "ssap://com.webos.service.tvpower/power/turnOffScreen"}
	cmdScreenOn       = &CommandDescriptor{URI: "ssap://com.webos.service.tvpower/power/turnOnScreen"}
	cmdGetSystemInfo  = &CommandDescriptor{URI: "ssap://system/getSystemInfo"}
	cmdLauncherClose  = &CommandDescriptor{URI: "ssap://com.webos.app.home/close"}
	cmdLauncherReady  = &CommandDescriptor{URI: "ssap://com.webos.app.home/ready"}
)

// SystemControl groups power and on-screen notification commands.
type SystemControl struct {
	controlBase
}

func newSystemControl(conn *Connection) *SystemControl {
	return &SystemControl{controlBase: newControlBase(conn)}
}

func (s *SystemControl) PowerOff(ctx context.Context) error {
	_, err := s.run(ctx, cmdPowerOff)
	return err
}

// PowerOn wakes the TV from standby. Most models only accept this over
// Wake-on-LAN once the SSAP socket has dropped; while the connection is
// still open it is equivalent to a no-op on hardware that is already on.
func (s *SystemControl) PowerOn(ctx context.Context) error {
	_, err := s.run(ctx, cmdPowerOn)
	return err
}

// GetSystemInfo returns the TV's model/firmware identification block.
func (s *SystemControl) GetSystemInfo(ctx context.Context) (map[string]any, error) {
	v, err := s.run(ctx, cmdGetSystemInfo)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// LauncherClose dismisses the home launcher overlay.
func (s *SystemControl) LauncherClose(ctx context.Context) error {
	_, err := s.run(ctx, cmdLauncherClose)
	return err
}

// LauncherReady signals the home launcher app that this client is ready.
func (s *SystemControl) LauncherReady(ctx context.Context) error {
	_, err := s.run(ctx, cmdLauncherReady)
	return err
}

func (s *SystemControl) ScreenOff(ctx context.Context) error {
	_, err := s.run(ctx, cmdScreenOff)
	return err
}

func (s *SystemControl) ScreenOn(ctx context.Context) error {
	_, err := s.run(ctx, cmdScreenOn)
	return err
}

func (s *SystemControl) Notify(ctx context.Context, message string) error {
	_, err := s.run(ctx, cmdNotify, message)
	return err
}

func (s *SystemControl) GetPowerState(ctx context.Context) (map[string]any, error) {
	v, err := s.run(ctx, cmdGetPowerState)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func (s *SystemControl) SubscribePowerState(cb func(state map[string]any, err error)) error {
	return s.subscribe("getPowerState", cmdGetPowerState, func(ok bool, value any, err error) {
		if !ok {
			cb(nil, err)
			return
		}
		cb(value.(map[string]any), nil)
	})
}

func (s *SystemControl) UnsubscribePowerState() error {
	return s.unsubscribe("getPowerState", cmdGetPowerState)
}

// --- ApplicationControl -----------------------------------------------

var (
	cmdListApps = &CommandDescriptor{
		URI: "ssap://com.webos.applicationManager/listApps",
		Transform: func(payload json.RawMessage) (any, error) {
			var body struct {
				Apps []map[string]any `json:"apps"`
			}
			if err := json.Unmarshal(payload, &body); err != nil {
				return nil, err
			}
			apps := make([]Application, 0, len(body.Apps))
			for _, raw := range body.Apps {
				apps = append(apps, newApplication(raw))
			}
			return apps, nil
		},
	}
	cmdGetForegroundApp = &CommandDescriptor{
		URI:          "ssap://com.webos.applicationManager/getForegroundAppInfo",
		Subscribable: true,
	}
	// cmdLaunch is the generic launch(payload) shape: the caller's dict
	// is forwarded to the TV verbatim, unlike cmdLaunchApp's id/contentId
	// contract.
	cmdLaunch = &CommandDescriptor{
		URI:            "ssap://system.launcher/launch",
		PayloadBuilder: rawPayloadBuilder("ssap://system.launcher/launch"),
	}
	cmdLaunchApp = &CommandDescriptor{
		URI: "ssap://system.launcher/launch",
		Args: []ArgSpec{
			{Name: "id", Required: true},
			{Name: "contentId"},
		},
	}
	cmdCloseApp = &CommandDescriptor{URI: "ssap://system.launcher/close", Args: []ArgSpec{{Name: "id", Required: true}}}
	// cmdClose is the generic close(payload) shape, mirroring cmdLaunch.
	cmdClose = &CommandDescriptor{
		URI:            "ssap://system.launcher/close",
		PayloadBuilder: rawPayloadBuilder("ssap://system.launcher/close"),
	}
	cmdGetAppState = &CommandDescriptor{
		URI:            "ssap://system.launcher/getAppState",
		PayloadBuilder: rawPayloadBuilder("ssap://system.launcher/getAppState"),
	}
)

// ApplicationControl lists and launches apps.
type ApplicationControl struct {
	controlBase
}

func newApplicationControl(conn *Connection) *ApplicationControl {
	return &ApplicationControl{controlBase: newControlBase(conn)}
}

func (a *ApplicationControl) ListApps(ctx context.Context) ([]Application, error) {
	v, err := a.run(ctx, cmdListApps)
	if err != nil {
		return nil, err
	}
	return v.([]Application), nil
}

func (a *ApplicationControl) GetForegroundAppInfo(ctx context.Context) (map[string]any, error) {
	v, err := a.run(ctx, cmdGetForegroundApp)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// Launch starts an app from an arbitrary payload dict, forwarded to
// the TV verbatim. Use LaunchApp for the common id/contentID case.
func (a *ApplicationControl) Launch(ctx context.Context, payload map[string]any) error {
	_, err := a.run(ctx, cmdLaunch, payload)
	return err
}

// LaunchApp starts the app identified by id. contentID, when non-empty,
// is forwarded as the launch's contentId (e.g. a deep link target).
func (a *ApplicationControl) LaunchApp(ctx context.Context, id string, contentID string) error {
	args := []any{id}
	if contentID != "" {
		args = append(args, contentID)
	}
	_, err := a.run(ctx, cmdLaunchApp, args...)
	return err
}

// Close closes an app from an arbitrary payload dict, forwarded to the
// TV verbatim. Use CloseApp for the common id-only case.
func (a *ApplicationControl) Close(ctx context.Context, payload map[string]any) error {
	_, err := a.run(ctx, cmdClose, payload)
	return err
}

// CloseApp closes the app identified by id.
func (a *ApplicationControl) CloseApp(ctx context.Context, id string) error {
	_, err := a.run(ctx, cmdCloseApp, id)
	return err
}

// GetAppState reports the state of the app named in payload. payload is
// passed through verbatim as ssap://system.launcher/getAppState's
// argument object; a nil payload sends an empty object.
func (a *ApplicationControl) GetAppState(ctx context.Context, payload map[string]any) (map[string]any, error) {
	var args []any
	if payload != nil {
		args = []any{payload}
	}
	v, err := a.run(ctx, cmdGetAppState, args...)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func (a *ApplicationControl) SubscribeForegroundAppInfo(cb func(info map[string]any, err error)) error {
	return a.subscribe("getForegroundAppInfo", cmdGetForegroundApp, func(ok bool, value any, err error) {
		if !ok {
			cb(nil, err)
			return
		}
		cb(value.(map[string]any), nil)
	})
}

func (a *ApplicationControl) UnsubscribeForegroundAppInfo() error {
	return a.unsubscribe("getForegroundAppInfo", cmdGetForegroundApp)
}
