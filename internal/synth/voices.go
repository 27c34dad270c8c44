package synth

import "github.com/iksnae/hypnojourney/internal"

// Voices maps each supported language to its ElevenLabs voice id.
var Voices = map[internal.Language]string{
	internal.LanguageEnglish: "PB6BdkFkZLbI39GHdnbQ",
	internal.LanguageFrench:  "jsCqWAovK2LkecY7zXl4",
	internal.LanguageArabic:  "t0jbNlBVZ17f02VDIeMI",
}

// VoiceFor returns the voice for lang, falling back to the English voice.
func VoiceFor(lang internal.Language) string {
	if v, ok := Voices[lang]; ok {
		return v
	}
	return Voices[internal.LanguageEnglish]
}
