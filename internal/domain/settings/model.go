package settings

import "errors"

// Keys in the system_settings table.
const (
	KeySoundSettings = "sound_settings"
	KeyTheme         = "theme"
)

// DefaultTheme matches the teal preset the display falls back to.
const DefaultTheme = "teal"

// themePresets is the allowlist of theme names the display knows how to
// render. Anything else stored in the table is treated as absent.
var themePresets = map[string]bool{
	"teal":   true,
	"blue":   true,
	"purple": true,
	"indigo": true,
	"rose":   true,
	"amber":  true,
}

// ValidTheme reports whether name is one of the display's preset themes.
func ValidTheme(name string) bool { return themePresets[name] }

// SoundSettings controls how the queue display announces calls.
type SoundSettings struct {
	GoogleTTSEnabled  bool    `json:"googleTtsEnabled"`
	BrowserTTSEnabled bool    `json:"browserTtsEnabled"`
	VoiceName         string  `json:"voiceName"`
	VoiceLang         string  `json:"voiceLang"`
	SpeechTemplate    string  `json:"speechTemplate"`
	SpeechPause       float64 `json:"speechPause"`
	SpeechRate        float64 `json:"speechRate"`
	PageInterval      int     `json:"pageInterval"`
	ShowSoundButton   bool    `json:"showSoundButton"`
}

// DefaultSoundSettings returns the announcement defaults. The speech
// template substitutes {{HN}} with the called patient's hospital number.
func DefaultSoundSettings() SoundSettings {
	return SoundSettings{
		GoogleTTSEnabled:  true,
		BrowserTTSEnabled: false,
		VoiceName:         "",
		VoiceLang:         "th-TH",
		SpeechTemplate:    "ขอเชิญหมายเลข {{HN}} เข้ารับการรักษา",
		SpeechPause:       0.5,
		SpeechRate:        1,
		PageInterval:      15,
		ShowSoundButton:   true,
	}
}

var (
	ErrNotFound     = errors.New("setting not found")
	ErrInvalidTheme = errors.New("invalid theme")
)
