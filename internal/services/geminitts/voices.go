package geminitts

import (
	"slices"
	"strings"
)

// DefaultVoice is used when a spec names none.
const DefaultVoice = "Kore"

// Voices lists the prebuilt voices and their character.
var Voices = map[string]string{
	"Zephyr":        "Bright",
	"Puck":          "Upbeat",
	"Aoede":         "Breezy",
	"Autonoe":       "Bright",
	"Laomedeia":     "Upbeat",
	"Sadachbia":     "Lively",
	"Charon":        "Informative",
	"Kore":          "Firm",
	"Orus":          "Firm",
	"Rasalgethi":    "Informative",
	"Alnilam":       "Firm",
	"Achernar":      "Soft",
	"Vindemiatrix":  "Gentle",
	"Sulafat":       "Warm",
	"Callirrhoe":    "Easy-going",
	"Umbriel":       "Easy-going",
	"Algieba":       "Smooth",
	"Despina":       "Smooth",
	"Erinome":       "Clear",
	"Iapetus":       "Clear",
	"Pulcherrima":   "Forward",
	"Fenrir":        "Excitable",
	"Leda":          "Youthful",
	"Enceladus":     "Breathy",
	"Algenib":       "Gravelly",
	"Gacrux":        "Mature",
	"Achird":        "Friendly",
	"Zubenelgenubi": "Casual",
	"Schedar":       "Even",
	"Sadaltager":    "Knowledgeable",
}

// ValidVoice reports whether name is a known prebuilt voice.
func ValidVoice(name string) bool {
	_, ok := Voices[strings.TrimSpace(name)]
	return ok
}

// VoiceNames returns the voice names sorted alphabetically.
func VoiceNames() []string {
	names := make([]string, 0, len(Voices))
	for name := range Voices {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
