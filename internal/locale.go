package internal

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Language is a supported UI and voice language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
	LanguageArabic  Language = "ar"
)

// Languages lists the supported languages in selector order.
var Languages = []Language{LanguageEnglish, LanguageFrench, LanguageArabic}

// ParseLanguage validates a language code.
func ParseLanguage(s string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, l := range Languages {
		if l == lang {
			return lang, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q (supported: en, fr, ar)", s)
}

// Translation holds every display string of the app for one language.
type Translation struct {
	AppName       string `yaml:"app_name"`
	Loading       string `yaml:"loading"`
	Error         string `yaml:"error"`
	Back          string `yaml:"back"`
	Save          string `yaml:"save"`
	Delete        string `yaml:"delete"`
	Cancel        string `yaml:"cancel"`
	Confirm       string `yaml:"confirm"`
	UnknownError  string `yaml:"unknown_error"`
	Minutes       string `yaml:"minutes"`
	Duration      string `yaml:"duration"`
	Progress      string `yaml:"progress"`
	Created       string `yaml:"created"`

	Tagline           string `yaml:"tagline"`
	AppDescription    string `yaml:"app_description"`
	StartNewSession   string `yaml:"start_new_session"`
	ViewSavedSessions string `yaml:"view_saved_sessions"`
	Disclaimer        string `yaml:"disclaimer"`

	ChatWelcome      string `yaml:"chat_welcome"`
	ChatPlaceholder  string `yaml:"chat_placeholder"`
	StartSession     string `yaml:"start_session"`
	Generating       string `yaml:"generating"`
	GeneratingScript string `yaml:"generating_script"`
	GeneratingAudio  string `yaml:"generating_audio"`
	ProcessingAudio  string `yaml:"processing_audio"`

	Play           string `yaml:"play"`
	Pause          string `yaml:"pause"`
	Stop           string `yaml:"stop"`
	Volume         string `yaml:"volume"`
	VoiceVolume    string `yaml:"voice_volume"`
	MusicVolume    string `yaml:"music_volume"`
	ResetToDefault string `yaml:"reset_to_default"`
	BackToSessions string `yaml:"back_to_sessions"`
	BackToHome     string `yaml:"back_to_home"`

	SavedSessions          string `yaml:"saved_sessions"`
	NoSavedSessions        string `yaml:"no_saved_sessions"`
	CreateFirstSession     string `yaml:"create_first_session"`
	CreateNewSession       string `yaml:"create_new_session"`
	ChooseSession          string `yaml:"choose_session"`
	SessionPageDescription string `yaml:"session_page_description"`
	ConfirmDelete          string `yaml:"confirm_delete"`
	DeleteSessionConfirm   string `yaml:"delete_session_confirm"`

	StressReliefTitle       string `yaml:"stress_relief_title"`
	StressReliefDescription string `yaml:"stress_relief_description"`
	ConfidenceTitle         string `yaml:"confidence_title"`
	ConfidenceDescription   string `yaml:"confidence_description"`
	SleepTitle              string `yaml:"sleep_title"`
	SleepDescription        string `yaml:"sleep_description"`
}

//go:embed locales.yaml
var localesYAML []byte

var (
	translationsOnce sync.Once
	translations     map[Language]Translation
	translationsErr  error
)

// Translations returns the parsed localization table.
func Translations() (map[Language]Translation, error) {
	translationsOnce.Do(func() {
		var table map[Language]Translation
		if err := yaml.Unmarshal(localesYAML, &table); err != nil {
			translationsErr = &ParseError{Source: "locales", Key: "locales.yaml", Err: err}
			return
		}
		for _, lang := range Languages {
			if _, ok := table[lang]; !ok {
				translationsErr = &ParseError{Source: "locales", Key: string(lang), Err: fmt.Errorf("missing language")}
				return
			}
		}
		translations = table
	})
	return translations, translationsErr
}

// Locale is the language context handed to every view. It replaces a
// process-wide "current language": views read from it, and changes go
// through the Persist callback supplied by whoever owns storage.
type Locale struct {
	Language Language
	T        Translation
	Persist  func(Language) error
}

// NewLocale builds the context for lang. persist may be nil.
func NewLocale(lang Language, persist func(Language) error) (Locale, error) {
	table, err := Translations()
	if err != nil {
		return Locale{}, err
	}
	t, ok := table[lang]
	if !ok {
		return Locale{}, fmt.Errorf("unsupported language %q", lang)
	}
	return Locale{Language: lang, T: t, Persist: persist}, nil
}

// Dir is the text direction of the locale: "rtl" for Arabic, "ltr" otherwise.
func (l Locale) Dir() string {
	if l.Language == LanguageArabic {
		return "rtl"
	}
	return "ltr"
}

// WithLanguage returns the locale for lang after persisting the choice.
func (l Locale) WithLanguage(lang Language) (Locale, error) {
	next, err := NewLocale(lang, l.Persist)
	if err != nil {
		return l, err
	}
	if l.Persist != nil {
		if err := l.Persist(lang); err != nil {
			return l, fmt.Errorf("failed to persist language: %w", err)
		}
	}
	return next, nil
}

// SessionTitle returns the localized title of st, falling back to the raw id.
func (l Locale) SessionTitle(st SessionType) string {
	switch st {
	case SessionStressRelief:
		return l.T.StressReliefTitle
	case SessionConfidence:
		return l.T.ConfidenceTitle
	case SessionSleep:
		return l.T.SleepTitle
	}
	return string(st)
}

// SessionDescription returns the localized description of st.
func (l Locale) SessionDescription(st SessionType) string {
	switch st {
	case SessionStressRelief:
		return l.T.StressReliefDescription
	case SessionConfidence:
		return l.T.ConfidenceDescription
	case SessionSleep:
		return l.T.SleepDescription
	}
	return ""
}
