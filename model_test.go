package webostv

import "testing"

func TestApplicationStringPrefersTitle(t *testing.T) {
	app := newApplication(map[string]any{"id": "netflix", "title": "Netflix", "icon": "x.png"})
	if got, want := app.String(), `<Application "Netflix">`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestApplicationStringFallsBackToAppID(t *testing.T) {
	app := newApplication(map[string]any{"appId": "com.webos.app.livetv"})
	if got, want := app.String(), `<Application "com.webos.app.livetv">`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestApplicationStringFallsBackToUnknown(t *testing.T) {
	app := newApplication(map[string]any{})
	if got, want := app.String(), `<Application "Unknown App">`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestInputSourceRequiresLabel(t *testing.T) {
	if _, err := newInputSource(map[string]any{"id": "HDMI_1"}); err == nil {
		t.Fatal("expected an error for a source without a label")
	}
	src, err := newInputSource(map[string]any{"id": "HDMI_1", "label": "HDMI 1"})
	if err != nil {
		t.Fatalf("newInputSource: %v", err)
	}
	if got, want := src.String(), `<InputSource "HDMI 1">`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAudioOutputSourceStringForPlainString(t *testing.T) {
	src := newAudioOutputSource("external_speaker")
	if got, want := src.String(), `<AudioOutputSource "external_speaker">`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	name, ok := src.Name()
	if !ok || name != "external_speaker" {
		t.Fatalf("expected Name() to return external_speaker, got %q, %v", name, ok)
	}
}

func TestAudioOutputSourceStringForStructuredValue(t *testing.T) {
	src := newAudioOutputSource(map[string]any{"outputSource": "external_speaker"})
	if got, want := src.String(), `<AudioOutputSource "{\"outputSource\":\"external_speaker\"}">`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if _, ok := src.Name(); ok {
		t.Fatal("expected Name() to report false for a structured value")
	}
}
