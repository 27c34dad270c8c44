package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/iksnae/hypnojourney/internal"
	"github.com/iksnae/hypnojourney/internal/scriptgen"
)

func TestFixedTurnCountReadiness(t *testing.T) {
	loc, _ := internal.NewLocale(internal.LanguageEnglish, nil)
	p := &FixedTurnCountReadiness{Threshold: 6, Locale: loc}

	tests := []struct {
		n       int
		reply   string
		verdict Verdict
	}{
		{1, replyTellMore, Continue},
		{2, replyFocus, Continue},
		{3, replyPleaseMore, Continue},
		{4, replyPleaseMore, Continue},
		{5, replyReady, Confirm},
		{6, loc.T.Generating, Ready},
		{9, loc.T.Generating, Ready},
	}
	for _, tt := range tests {
		reply, verdict := p.Reply(context.Background(), Turn{Number: tt.n, Text: "anything"})
		if reply != tt.reply || verdict != tt.verdict {
			t.Errorf("turn %d = (%q, %d), want (%q, %d)", tt.n, reply, verdict, tt.reply, tt.verdict)
		}
	}
}

func TestFixedTurnCountReadiness_IgnoresContent(t *testing.T) {
	loc, _ := internal.NewLocale(internal.LanguageArabic, nil)
	p := NewFixedTurnCountReadiness(loc)

	for _, text := range []string{"no", "stop", "I'm not ready"} {
		if _, verdict := p.Reply(context.Background(), Turn{Number: DefaultTurnThreshold, Text: text}); verdict != Ready {
			t.Errorf("turn %d with %q: verdict = %d, want Ready", DefaultTurnThreshold, text, verdict)
		}
	}
	if got := p.Greeting(internal.SessionSleep); got != loc.T.ChatWelcome {
		t.Errorf("Greeting() = %q, want localized welcome", got)
	}
}

func TestKeywordReadiness(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		reply   string
		verdict Verdict
	}{
		{"consent and settling", "Yes, let's go", "Great. Close your eyes and breathe.", Ready},
		{"ok and comfortable", "OK", "Get comfortable for me.", Ready},
		{"ready substring", "I'm ready", "Find a COMFORTABLE position.", Ready},
		{"consent without settling", "yes", "Tell me about your week.", Continue},
		{"settling without consent", "maybe later", "Close your eyes.", Continue},
		{"substring match inside words", "I read a book", "Are you comfortable?", Ready},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replier := &fakeReplier{replies: []string{tt.reply}}
			p := &KeywordReadiness{Replier: replier}

			transcript := []internal.ChatTurn{{Speaker: internal.SpeakerUser, Text: tt.user}}
			reply, verdict := p.Reply(context.Background(), Turn{
				SessionType: internal.SessionConfidence,
				Number:      1,
				Text:        tt.user,
				Transcript:  transcript,
			})
			if reply != tt.reply {
				t.Errorf("reply = %q, want %q", reply, tt.reply)
			}
			if verdict != tt.verdict {
				t.Errorf("verdict = %d, want %d", verdict, tt.verdict)
			}
			if len(replier.seen) != 1 || len(replier.seen[0]) != 1 {
				t.Errorf("replier saw %v, want the turn transcript", replier.seen)
			}
		})
	}
}

func TestKeywordReadiness_ReplyErrorApologizes(t *testing.T) {
	p := &KeywordReadiness{Replier: &fakeReplier{err: errors.New("429 rate limited")}}

	reply, verdict := p.Reply(context.Background(), Turn{Number: 1, Text: "yes"})
	if reply != scriptgen.ConsultationApology {
		t.Errorf("reply = %q, want apology", reply)
	}
	if verdict != Continue {
		t.Errorf("verdict = %d, want Continue", verdict)
	}
}

func TestKeywordReadiness_ChatThroughOrchestrator(t *testing.T) {
	loc, _ := internal.NewLocale(internal.LanguageEnglish, nil)
	log := &callLog{}
	replier := &fakeReplier{replies: []string{
		"What would you like to feel more confident about?",
		"Wonderful. Close your eyes and get comfortable.",
	}}

	o, err := New(Options{
		SessionType: internal.SessionConfidence,
		Locale:      loc,
		Policy:      &KeywordReadiness{Replier: replier},
		Generator:   &fakeGenerator{log: log},
		Synthesizer: &fakeSynthesizer{log: log},
		Store:       &fakeStore{log: log},
		Media:       newFakeHandles(log),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := o.Snapshot().Transcript[0].Text; got != scriptgen.ConsultationGreeting(internal.SessionConfidence) {
		t.Errorf("greeting = %q", got)
	}

	snap := o.SubmitChatTurn(context.Background(), "public speaking")
	if snap.Complete {
		t.Fatal("chat completed without consent")
	}
	snap = o.SubmitChatTurn(context.Background(), "yes please")
	if !snap.Complete || snap.State != StateConfirming {
		t.Fatalf("chat not complete after consent: %+v", snap)
	}
	// the replier sees the whole transcript including the new user turn
	if got := len(replier.seen[1]); got != 4 {
		t.Errorf("second reply saw %d turns, want 4", got)
	}
}
