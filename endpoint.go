package webostv

import "fmt"

// Endpoint identifies one TV's control channel.
type Endpoint struct {
	Host   string
	Port   int
	Secure bool
}

// URL builds the ws:// or wss:// URL for the endpoint, filling in the
// protocol default port (3000 plaintext, 3001 TLS) when Port is zero.
func (e Endpoint) URL() string {
	scheme := "ws"
	port := e.Port
	if e.Secure {
		scheme = "wss"
		if port == 0 {
			port = 3001
		}
	} else if port == 0 {
		port = 3000
	}
	return fmt.Sprintf("%s://%s:%d/", scheme, e.Host, port)
}

// ClientKey is the opaque key the TV issues on first pairing. The zero
// value means "no prior pairing" — the library never persists this;
// the caller is responsible for storing whatever Register returns.
type ClientKey string

// Manifest is the static document presented during pairing, declaring
// the requesting application's identity and requested permissions.
type Manifest struct {
	ForcePairing    bool              `json:"forcePairing"`
	PairingType     string            `json:"pairingType"`
	ManifestVersion int               `json:"manifestVersion"`
	AppVersion      string            `json:"appVersion"`
	Permissions     []string          `json:"permissions"`
	Signed          ManifestSigned    `json:"signed"`
	Signatures      []ManifestSigning `json:"signatures"`
}

// ManifestSigned is the inner "signed" block of the manifest, itself
// carrying a second, narrower permission list (write/control-class
// permissions the TV treats as more sensitive).
type ManifestSigned struct {
	AppID                string            `json:"appId"`
	Created              string            `json:"created"`
	LocalizedAppNames    map[string]string `json:"localizedAppNames"`
	LocalizedVendorNames map[string]string `json:"localizedVendorNames"`
	Permissions          []string          `json:"permissions"`
	Serial               string            `json:"serial"`
	VendorID             string            `json:"vendorId"`
}

// ManifestSigning is a signature entry accompanying the signed manifest
// block. The TV does not actually verify these against a live CA; they
// are carried verbatim for protocol compatibility with the reference
// client.
type ManifestSigning struct {
	Signature        string `json:"signature"`
	SignatureVersion int    `json:"signatureVersion"`
}

// defaultManifestSignature is the reference client's hardcoded test
// signing key blob. Firmware checks that a signature is present, not
// that it verifies against a live CA, so this constant is carried
// verbatim rather than generated per manifest.
const defaultManifestSignature = "eyJhbGdvcml0aG0iOiJSU0EtU0hBMjU2Iiwia2V5SWQiOiJ0ZXN0LXNpZ25pbm" +
	"ctY2VydCIsInNpZ25hdHVyZVZlcnNpb24iOjF9.hrVRgjCwXVvE2OOSpDZ58hR" +
	"+59aFNwYDyjQgKk3auukd7pcegmE2CzPCa0bJ0ZsRAcKkCTJrWo5iDzNhMBWRy" +
	"aMOv5zWSrthlf7G128qvIlpMT0YNY+n/FaOHE73uLrS/g7swl3/qH/BGFG2Hu4" +
	"RlL48eb3lLKqTt2xKHdCs6Cd4RMfJPYnzgvI4BNrFUKsjkcu+WD4OO2A27Pq1n" +
	"50cMchmcaXadJhGrOqH5YmHdOCj5NSHzJYrsW0HPlpuAx/ECMeIZYDh6RMqaFM" +
	"2DXzdKX9NmmyqzJ3o/0lkk/N97gfVRLW5hA29yeAwaCViZNCP8iC9aO0q9fQoj" +
	"oa7NQnAtw=="

// DefaultManifest mirrors the reference client's registration payload:
// the full read+control permission set, so a caller gets a working
// pairing out of the box and only needs to narrow Permissions/Signed.Permissions
// if they want a more restrictive manifest.
func DefaultManifest() Manifest {
	return Manifest{
		ForcePairing:    false,
		PairingType:     "PROMPT",
		ManifestVersion: 1,
		AppVersion:      "1.1",
		Permissions: []string{
			"LAUNCH", "LAUNCH_WEBAPP", "APP_TO_APP", "CLOSE", "TEST_OPEN",
			"TEST_PROTECTED", "CONTROL_AUDIO", "CONTROL_DISPLAY",
			"CONTROL_INPUT_JOYSTICK", "CONTROL_INPUT_MEDIA_RECORDING",
			"CONTROL_INPUT_MEDIA_PLAYBACK", "CONTROL_INPUT_TV", "CONTROL_POWER",
			"READ_APP_STATUS", "READ_CURRENT_CHANNEL", "READ_INPUT_DEVICE_LIST",
			"READ_NETWORK_STATE", "READ_RUNNING_APPS", "READ_TV_CHANNEL_LIST",
			"WRITE_NOTIFICATION_TOAST", "READ_POWER_STATE", "READ_COUNTRY_INFO",
			"READ_SETTINGS", "CONTROL_TV_SCREEN", "CONTROL_TV_STANBY",
			"CONTROL_FAVORITE_GROUP", "CONTROL_USER_INFO",
			"CHECK_BLUETOOTH_DEVICE", "CONTROL_BLUETOOTH", "CONTROL_TIMER_INFO",
			"STB_INTERNAL_CONNECTION", "CONTROL_RECORDING", "READ_RECORDING_STATE",
			"WRITE_RECORDING_LIST", "READ_RECORDING_LIST", "READ_RECORDING_SCHEDULE",
			"WRITE_RECORDING_SCHEDULE", "READ_STORAGE_DEVICE_LIST",
			"READ_TV_PROGRAM_INFO", "CONTROL_BOX_CHANNEL", "READ_TV_ACR_AUTH_TOKEN",
			"READ_TV_CONTENT_STATE", "READ_TV_CURRENT_TIME", "ADD_LAUNCHER_CHANNEL",
			"SET_CHANNEL_SKIP", "RELEASE_CHANNEL_SKIP", "CONTROL_CHANNEL_BLOCK",
			"DELETE_SELECT_CHANNEL", "CONTROL_CHANNEL_GROUP", "SCAN_TV_CHANNELS",
			"CONTROL_TV_POWER", "CONTROL_WOL",
		},
		Signatures: []ManifestSigning{
			{Signature: defaultManifestSignature, SignatureVersion: 1},
		},
		Signed: ManifestSigned{
			AppID:   "com.lge.test",
			Created: "20140509",
			LocalizedAppNames: map[string]string{
				"": "LG Remote App",
			},
			LocalizedVendorNames: map[string]string{
				"": "LG Electronics",
			},
			Permissions: []string{
				"TEST_SECURE", "CONTROL_INPUT_TEXT", "CONTROL_MOUSE_AND_KEYBOARD",
				"READ_INSTALLED_APPS", "READ_LGE_SDX", "READ_NOTIFICATIONS",
				"SEARCH", "WRITE_SETTINGS", "WRITE_NOTIFICATION_ALERT",
				"CONTROL_POWER", "READ_CURRENT_CHANNEL", "READ_RUNNING_APPS",
				"READ_UPDATE_INFO", "UPDATE_FROM_REMOTE_APP",
				"READ_LGE_TV_INPUT_EVENTS", "READ_TV_CURRENT_TIME",
			},
			Serial:   "2f930e2d2cfe083771f68e4fe7bb07",
			VendorID: "com.lge",
		},
	}
}
