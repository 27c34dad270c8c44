package internal

import (
	"fmt"
	"strings"
	"time"
)

// SessionType is one of the fixed relaxation themes.
type SessionType string

const (
	SessionStressRelief SessionType = "stress-relief"
	SessionConfidence   SessionType = "confidence"
	SessionSleep        SessionType = "sleep"
)

// SessionTypes lists the themes in chooser order.
var SessionTypes = []SessionType{SessionStressRelief, SessionConfidence, SessionSleep}

// nominal session lengths shown in the chooser, in minutes
var sessionMinutes = map[SessionType]int{
	SessionStressRelief: 20,
	SessionConfidence:   25,
	SessionSleep:        30,
}

// ParseSessionType validates s against the known session types.
func ParseSessionType(s string) (SessionType, error) {
	st := SessionType(strings.ToLower(strings.TrimSpace(s)))
	if st.Valid() {
		return st, nil
	}
	return "", fmt.Errorf("unknown session type %q (supported: stress-relief, confidence, sleep)", s)
}

// Valid reports whether st is one of the known session types.
func (st SessionType) Valid() bool {
	_, ok := sessionMinutes[st]
	return ok
}

// NominalMinutes is the advertised length of the session type.
func (st SessionType) NominalMinutes() int {
	return sessionMinutes[st]
}

// Speaker identifies who produced a chat turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// ChatTurn is one entry of the consultation transcript.
type ChatTurn struct {
	Speaker Speaker `json:"role" yaml:"role"`
	Text    string  `json:"content" yaml:"content"`
}

// SessionRequest is what the chat hands to script generation. Build it with
// NewSessionRequest so the transcript is not shared with the caller.
type SessionRequest struct {
	SessionType SessionType
	Language    Language
	transcript  []ChatTurn
}

// NewSessionRequest snapshots transcript into an immutable request.
func NewSessionRequest(st SessionType, lang Language, transcript []ChatTurn) SessionRequest {
	turns := make([]ChatTurn, len(transcript))
	copy(turns, transcript)
	return SessionRequest{SessionType: st, Language: lang, transcript: turns}
}

// Transcript returns a copy of the request transcript.
func (r SessionRequest) Transcript() []ChatTurn {
	turns := make([]ChatTurn, len(r.transcript))
	copy(turns, r.transcript)
	return turns
}

// GeneratedScript is the LLM output, still carrying [PAUSE], [LONG_PAUSE]
// and *emphasis* markup.
type GeneratedScript struct {
	RawText string
}

// SavedSessionRecord is the persisted form of a finished session.
type SavedSessionRecord struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Date     string `json:"date" yaml:"date"`
	Duration string `json:"duration" yaml:"duration"`
	AudioURL string `json:"audioUrl" yaml:"audio_url"`
}

// CreatedAt parses Date, returning the zero time if it is not RFC 3339.
func (r SavedSessionRecord) CreatedAt() time.Time {
	t, err := time.Parse(time.RFC3339, r.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}
