package scriptgen

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/iksnae/hypnojourney/internal"
)

// Style selects which script prompt is sent.
type Style int

const (
	// StyleTest asks for a 10-second script with a single [PAUSE]. It only
	// uses the session type and language.
	StyleTest Style = iota
	// StyleConsultation asks for a 2-3 minute script built from the
	// consultation transcript.
	StyleConsultation
)

func (s Style) String() string {
	if s == StyleConsultation {
		return "consultation"
	}
	return "test"
}

func textDirection(lang internal.Language) string {
	if lang == internal.LanguageArabic {
		return "right-to-left"
	}
	return "left-to-right"
}

func testSystemPrompt(lang internal.Language) string {
	return fmt.Sprintf(`You are an experienced hypnotherapist creating a very brief 10-second test script in %s format.
Create a single calming suggestion with one [PAUSE] marker.
Keep it extremely short - just 2-3 sentences maximum.
Mark emphasis words with *asterisks*.
Example format: "Take a *deep* breath in. [PAUSE] Feel yourself becoming *completely* relaxed."`, textDirection(lang))
}

func testUserPrompt(st internal.SessionType) string {
	return fmt.Sprintf("Create a 10-second test hypnosis script for %s.", st)
}

const consultationScriptSystemPrompt = `You are an experienced hypnotherapist creating a brief test hypnosis script.
Create a 2-3 minute session following these guidelines:

1. Voice and Pacing:
  - Use [PAUSE] for 2-second pauses
  - Use [LONG_PAUSE] for 4-second pauses
  - Add emphasis with *asterisks*

2. Quick Structure (30-45 seconds each):
  - Brief relaxation with 2-3 breaths
  - One simple metaphor or visualization
  - 2-3 key therapeutic suggestions
  - Quick awakening

3. Language:
  - Keep it simple but hypnotic
  - Use calming imagery
  - Speak in present tense

Keep the entire script concise but effective.`

func consultationUserPrompt(st internal.SessionType, transcript []internal.ChatTurn) (string, error) {
	background, err := sonic.MarshalString(transcript)
	if err != nil {
		return "", fmt.Errorf("failed to encode transcript: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Create a short test hypnosis script for %s.\n", st)
	fmt.Fprintf(&b, "Client background: %s\n\n", background)
	b.WriteString(`Requirements:
- Keep it under 3 minutes
- Focus on one main therapeutic suggestion
- Use simple, effective language
- Include breathing cues

Format:
- [PAUSE] for 2-second pauses
- [LONG_PAUSE] for 4-second pauses
- *asterisks* for emphasis
- New lines between sections`)
	return b.String(), nil
}

func consultationChatPrompt(st internal.SessionType) string {
	return fmt.Sprintf(`You are an experienced, empathetic hypnotherapist conducting an initial consultation for a %s hypnosis session. Ask relevant questions to understand the client's needs.
After gathering sufficient information about their concerns, ask if they're ready to begin the session.
Once they confirm readiness, provide brief preparation instructions and ask for final confirmation.
Keep responses concise and focused.`, st)
}

// ConsultationGreeting is the opening assistant turn of the consultation chat.
func ConsultationGreeting(st internal.SessionType) string {
	return fmt.Sprintf("Hello! I'm your AI hypnotherapist. I see you're interested in a %s session. "+
		"Before we begin, I'd like to understand your specific needs and goals. What brings you here today?", st)
}

// ConsultationApology replaces the assistant reply when a consultation turn fails.
const ConsultationApology = "I apologize, but I encountered an error. Please try again."
