package webostv

import (
	"encoding/json"
	"fmt"
)

// Application wraps a raw ssap://com.webos.applicationManager payload
// (appId/title/icon/version and whatever else the TV includes) with a
// stable accessor surface instead of forcing callers to know the JSON
// shape up front.
type Application struct {
	data map[string]any
}

func newApplication(raw map[string]any) Application {
	return Application{data: raw}
}

// Get returns the raw field value and whether it was present.
func (a Application) Get(key string) (any, bool) {
	v, ok := a.data[key]
	return v, ok
}

func (a Application) ID() string     { return stringField(a.data, "id") }
func (a Application) Title() string  { return stringField(a.data, "title") }
func (a Application) Icon() string   { return stringField(a.data, "icon") }
func (a Application) String() string {
	if title := stringField(a.data, "title"); title != "" {
		return fmt.Sprintf("<Application %q>", title)
	}
	if appID := stringField(a.data, "appId"); appID != "" {
		return fmt.Sprintf("<Application %q>", appID)
	}
	return `<Application "Unknown App">`
}

// InputSource wraps an external-input entry from
// ssap://tv/getExternalInputList. Label is required: the reference
// implementation treats a missing label as a malformed entry.
type InputSource struct {
	data map[string]any
}

func newInputSource(raw map[string]any) (InputSource, error) {
	if _, ok := raw["label"]; !ok {
		return InputSource{}, fmt.Errorf("input source missing required %q field", "label")
	}
	return InputSource{data: raw}, nil
}

func (s InputSource) Get(key string) (any, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s InputSource) ID() string    { return stringField(s.data, "id") }
func (s InputSource) Label() string { return stringField(s.data, "label") }
func (s InputSource) String() string {
	return fmt.Sprintf("<InputSource %q>", s.Label())
}

// AudioOutputSource wraps a sound-output value: either a bare string
// (e.g. "tv_speaker", as produced by GetSoundOutput and
// ListAudioOutputSources) or a structured value.
type AudioOutputSource struct {
	data any
}

func newAudioOutputSource(raw any) AudioOutputSource {
	return AudioOutputSource{data: raw}
}

// Name returns the output source name when the underlying data is a
// plain string, as produced by MediaControl.ListAudioOutputSources.
func (s AudioOutputSource) Name() (string, bool) {
	name, ok := s.data.(string)
	return name, ok
}

// Data returns the raw underlying value, a string or map[string]any
// depending on where the value came from.
func (s AudioOutputSource) Data() any { return s.data }

func (s AudioOutputSource) String() string {
	switch v := s.data.(type) {
	case string:
		return fmt.Sprintf("<AudioOutputSource %q>", v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("<AudioOutputSource %v>", v)
		}
		return fmt.Sprintf("<AudioOutputSource %q>", string(b))
	}
}

func stringField(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	v, ok := data[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
