package orchestrator

import (
	"context"
	"strings"

	"github.com/iksnae/hypnojourney/internal"
	"github.com/iksnae/hypnojourney/internal/scriptgen"
)

// Verdict is a readiness policy's decision after a user turn.
type Verdict int

const (
	// Continue keeps collecting.
	Continue Verdict = iota
	// Confirm asks the user for a final go-ahead.
	Confirm
	// Ready ends the chat; a SessionRequest can be generated.
	Ready
)

// Turn is the user turn a policy is asked to answer.
type Turn struct {
	SessionType internal.SessionType
	// Number is the 1-based count of user turns, including this one.
	Number int
	Text   string
	// Transcript includes this turn.
	Transcript []internal.ChatTurn
}

// ReadinessPolicy produces assistant replies and decides when chat
// collection ends.
type ReadinessPolicy interface {
	Greeting(st internal.SessionType) string
	Reply(ctx context.Context, turn Turn) (reply string, verdict Verdict)
}

// Scripted replies of the guided player chat
const (
	replyTellMore   = "I understand how you're feeling. Would you like to tell me more about what brings you here today?"
	replyFocus      = "I can help you with that. Before we begin the session, is there anything specific you'd like me to focus on during the hypnosis?"
	replyReady      = "Thank you for sharing. I'll create a personalized hypnosis session for you. Are you ready to begin?"
	replyPleaseMore = "I understand. Please tell me more."
)

// DefaultTurnThreshold is the user turn that completes the guided chat.
const DefaultTurnThreshold = 4

// FixedTurnCountReadiness answers from a fixed script and completes the chat
// on the Threshold-th user turn, whatever the user says.
type FixedTurnCountReadiness struct {
	Threshold int
	Locale    internal.Locale
}

// NewFixedTurnCountReadiness returns the policy of the guided player chat.
func NewFixedTurnCountReadiness(loc internal.Locale) *FixedTurnCountReadiness {
	return &FixedTurnCountReadiness{Threshold: DefaultTurnThreshold, Locale: loc}
}

func (p *FixedTurnCountReadiness) Greeting(internal.SessionType) string {
	return p.Locale.T.ChatWelcome
}

func (p *FixedTurnCountReadiness) Reply(_ context.Context, turn Turn) (string, Verdict) {
	threshold := p.Threshold
	if threshold <= 0 {
		threshold = DefaultTurnThreshold
	}
	switch {
	case turn.Number >= threshold:
		return p.Locale.T.Generating, Ready
	case turn.Number == threshold-1:
		return replyReady, Confirm
	case turn.Number == 1:
		return replyTellMore, Continue
	case turn.Number == 2:
		return replyFocus, Continue
	}
	return replyPleaseMore, Continue
}

// Replier answers consultation turns, usually *scriptgen.Client.
type Replier interface {
	Reply(ctx context.Context, st internal.SessionType, transcript []internal.ChatTurn) (string, error)
}

var (
	consentWords   = []string{"yes", "ok", "ready"}
	settlingPhrase = []string{"close your eyes", "comfortable"}
)

// KeywordReadiness lets a model run the consultation and declares the chat
// ready once the user consents and the reply starts settling them in.
// Matching is case-insensitive substring matching.
type KeywordReadiness struct {
	Replier Replier
}

func (p *KeywordReadiness) Greeting(st internal.SessionType) string {
	return scriptgen.ConsultationGreeting(st)
}

// Reply never fails: a model error becomes an apology turn and the chat
// continues.
func (p *KeywordReadiness) Reply(ctx context.Context, turn Turn) (string, Verdict) {
	reply, err := p.Replier.Reply(ctx, turn.SessionType, turn.Transcript)
	if err != nil {
		internal.LogWarn("consultation reply failed: %v", err)
		return scriptgen.ConsultationApology, Continue
	}
	if containsAny(turn.Text, consentWords) && containsAny(reply, settlingPhrase) {
		return reply, Ready
	}
	return reply, Continue
}

func containsAny(s string, needles []string) bool {
	s = strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
