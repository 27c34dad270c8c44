// Package orchestrator drives a session from the first chat turn to saved
// audio.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iksnae/hypnojourney/internal"
	"github.com/iksnae/hypnojourney/internal/metrics"
	"github.com/iksnae/hypnojourney/internal/synth"
)

// State is the lifecycle position of a session.
type State int

const (
	StateGreeting State = iota
	StateCollecting
	StateConfirming
	StateGeneratingScript
	StateGeneratingAudio
	StateReady
	StateError
)

var stateNames = map[State]string{
	StateGreeting:         "Greeting",
	StateCollecting:       "Collecting",
	StateConfirming:       "Confirming",
	StateGeneratingScript: "GeneratingScript",
	StateGeneratingAudio:  "GeneratingAudio",
	StateReady:            "Ready",
	StateError:            "Error",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrPipelineBusy is returned by BeginGeneration while a run is in flight.
	ErrPipelineBusy = errors.New("generation already in progress")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("orchestrator is closed")
)

// FinalizedDuration is the duration stored with every saved session.
const FinalizedDuration = "0.17"

// ScriptGenerator drafts a script, usually *scriptgen.Client.
type ScriptGenerator interface {
	Generate(ctx context.Context, req internal.SessionRequest, onProgress func(percent float64)) (internal.GeneratedScript, error)
}

// AudioSynthesizer renders a script, usually *synth.Client.
type AudioSynthesizer interface {
	Synthesize(ctx context.Context, script internal.GeneratedScript, lang internal.Language, onProgress func(percent float64)) (synth.Audio, error)
}

// SessionSaver persists finished sessions, usually *internal.SessionStore.
type SessionSaver interface {
	Save(record internal.SavedSessionRecord) (internal.SavedSessionRecord, error)
}

// Handles issues and revokes audio handles, usually *media.Registry.
type Handles interface {
	Create(data []byte, contentType string) (string, error)
	Revoke(handle string)
}

// Archiver keeps a durable copy of finished audio, usually *media.Archive.
type Archiver interface {
	Write(st internal.SessionType, data []byte) (string, error)
}

// Options wires an Orchestrator. Archive, Metrics, Now and OnStateChange are
// optional.
type Options struct {
	SessionType internal.SessionType
	Locale      internal.Locale
	Policy      ReadinessPolicy
	Generator   ScriptGenerator
	Synthesizer AudioSynthesizer
	Store       SessionSaver
	Media       Handles
	Archive     Archiver
	Metrics     *metrics.Metrics
	Now         func() time.Time
	// OnStateChange is called after every transition, outside the lock.
	OnStateChange func(from, to State)
}

// TranscriptState is a snapshot of the chat.
type TranscriptState struct {
	State      State
	UserTurns  int
	Transcript []internal.ChatTurn
	// Complete is set once the policy declared the chat ready; Request is
	// then non-nil.
	Complete bool
	Request  *internal.SessionRequest
}

// Orchestrator owns one session: its chat, its pipeline runs and the audio
// handle of the latest run.
type Orchestrator struct {
	opts Options

	chatMu sync.Mutex // serializes SubmitChatTurn

	mu         sync.Mutex
	state      State
	userTurns  int
	transcript []internal.ChatTurn
	request    *internal.SessionRequest
	busy       bool
	handle     string
	lastErr    *ErrorEvent
	closed     bool
}

// New creates an orchestrator in the Greeting state.
func New(opts Options) (*Orchestrator, error) {
	if !opts.SessionType.Valid() {
		return nil, fmt.Errorf("unknown session type %q", opts.SessionType)
	}
	switch {
	case opts.Policy == nil:
		return nil, errors.New("orchestrator: readiness policy is required")
	case opts.Generator == nil:
		return nil, errors.New("orchestrator: script generator is required")
	case opts.Synthesizer == nil:
		return nil, errors.New("orchestrator: audio synthesizer is required")
	case opts.Store == nil:
		return nil, errors.New("orchestrator: session store is required")
	case opts.Media == nil:
		return nil, errors.New("orchestrator: media handles are required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	o := &Orchestrator{opts: opts, state: StateGreeting}
	o.transcript = []internal.ChatTurn{{
		Speaker: internal.SpeakerAssistant,
		Text:    opts.Policy.Greeting(opts.SessionType),
	}}
	return o, nil
}

// SubmitChatTurn appends a user turn and the policy's reply. Blank input and
// input after the chat completed are ignored.
func (o *Orchestrator) SubmitChatTurn(ctx context.Context, text string) TranscriptState {
	text = strings.TrimSpace(text)
	if text == "" {
		return o.Snapshot()
	}

	o.chatMu.Lock()
	defer o.chatMu.Unlock()

	o.mu.Lock()
	if o.closed || o.request != nil || o.state > StateConfirming {
		o.mu.Unlock()
		return o.Snapshot()
	}
	o.transcript = append(o.transcript, internal.ChatTurn{Speaker: internal.SpeakerUser, Text: text})
	o.userTurns++
	turn := Turn{
		SessionType: o.opts.SessionType,
		Number:      o.userTurns,
		Text:        text,
		Transcript:  append([]internal.ChatTurn(nil), o.transcript...),
	}
	from := o.state
	o.state = StateCollecting
	o.mu.Unlock()
	o.notify(from, StateCollecting)

	reply, verdict := o.opts.Policy.Reply(ctx, turn)

	o.mu.Lock()
	o.transcript = append(o.transcript, internal.ChatTurn{Speaker: internal.SpeakerAssistant, Text: reply})
	from = o.state
	switch verdict {
	case Confirm, Ready:
		o.state = StateConfirming
	}
	if verdict == Ready {
		req := internal.NewSessionRequest(o.opts.SessionType, o.opts.Locale.Language, o.transcript)
		o.request = &req
		internal.LogDebug("chat complete after %d user turns", o.userTurns)
	}
	to := o.state
	o.mu.Unlock()
	o.notify(from, to)

	return o.Snapshot()
}

// Snapshot returns the current chat state.
func (o *Orchestrator) Snapshot() TranscriptState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return TranscriptState{
		State:      o.state,
		UserTurns:  o.userTurns,
		Transcript: append([]internal.ChatTurn(nil), o.transcript...),
		Complete:   o.request != nil,
		Request:    o.request,
	}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastError returns the failure of the latest run, if it failed.
func (o *Orchestrator) LastError() *ErrorEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Handle returns the audio handle of the latest successful run.
func (o *Orchestrator) Handle() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handle
}

// BeginGeneration runs script generation then synthesis for req on a new
// goroutine and streams its events. The channel is closed after the final
// ArtifactEvent or ErrorEvent. Only one run may be in flight; a failed run
// is not retried, call BeginGeneration again to restart from 0%.
func (o *Orchestrator) BeginGeneration(ctx context.Context, req internal.SessionRequest) (<-chan Event, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	if o.busy {
		o.mu.Unlock()
		return nil, ErrPipelineBusy
	}
	o.busy = true
	o.lastErr = nil
	o.mu.Unlock()

	o.opts.Metrics.RecordRun()
	events := make(chan Event, 8)
	go o.run(ctx, req, events)
	return events, nil
}

func (o *Orchestrator) run(ctx context.Context, req internal.SessionRequest, events chan<- Event) {
	defer func() {
		o.mu.Lock()
		o.busy = false
		o.mu.Unlock()
		close(events)
	}()

	emit := func(ev Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}
	reporter := func(stage Stage, source ProgressSource) func(float64) {
		last := 0.0
		return func(p float64) {
			if p > 100 {
				p = 100
			}
			if p <= last {
				return
			}
			last = p
			emit(&ProgressEvent{Stage: stage, Percent: p, Source: source})
		}
	}

	// script
	o.transition(StateGeneratingScript)
	emit(&ProgressEvent{Stage: StageScript, Percent: 0, Source: Synthetic})
	start := time.Now()
	script, err := o.opts.Generator.Generate(ctx, req, reporter(StageScript, Synthetic))
	o.opts.Metrics.ObserveStage(metrics.StageScript, start)
	if err != nil {
		o.fail(emit, internal.ScriptGenerationFailed, err)
		return
	}

	// audio
	o.transition(StateGeneratingAudio)
	emit(&ProgressEvent{Stage: StageAudio, Percent: 0, Source: Measured})
	start = time.Now()
	audio, err := o.opts.Synthesizer.Synthesize(ctx, script, req.Language, reporter(StageAudio, Measured))
	o.opts.Metrics.ObserveStage(metrics.StageAudio, start)
	if err != nil {
		o.fail(emit, internal.AudioSynthesisFailed, err)
		return
	}
	o.opts.Metrics.RecordAudio(len(audio.Data))

	handle, err := o.opts.Media.Create(audio.Data, audio.ContentType)
	if err != nil {
		o.fail(emit, internal.AudioSynthesisFailed, err)
		return
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		o.opts.Media.Revoke(handle)
		return
	}
	prev := o.handle
	if prev != "" {
		o.opts.Media.Revoke(prev)
	}
	o.handle = handle
	o.mu.Unlock()
	o.transition(StateReady)

	emit(&ArtifactEvent{Artifact: &AudioArtifact{
		SessionType: req.SessionType,
		Script:      script,
		Data:        audio.Data,
		ContentType: audio.ContentType,
		Handle:      handle,
	}})
}

// fail moves to the Error state. Only the kind and the user-facing message
// leave the orchestrator; the cause is logged.
func (o *Orchestrator) fail(emit func(Event), kind internal.ErrorKind, err error) {
	var pe *internal.PipelineError
	if !errors.As(err, &pe) {
		if kind == internal.ScriptGenerationFailed {
			pe = internal.NewScriptGenerationError(err)
		} else {
			pe = internal.NewAudioSynthesisError(err)
		}
	}
	internal.LogDebug("pipeline failed (%s): %v", pe.Kind, pe.Err)
	o.opts.Metrics.RecordFailure(string(pe.Kind))

	ev := &ErrorEvent{Kind: pe.Kind, Message: pe.Message}
	o.mu.Lock()
	o.lastErr = ev
	o.mu.Unlock()
	o.transition(StateError)
	emit(ev)
}

func (o *Orchestrator) transition(to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.mu.Unlock()
	o.notify(from, to)
}

func (o *Orchestrator) notify(from, to State) {
	if o.opts.OnStateChange != nil && from != to {
		o.opts.OnStateChange(from, to)
	}
}

// Finalize saves artifact as the record for st, replacing any earlier
// record of the same type. With an archive configured the audio is also
// written to disk and the record points at the file.
func (o *Orchestrator) Finalize(artifact *AudioArtifact, st internal.SessionType) (internal.SavedSessionRecord, error) {
	if artifact == nil || artifact.Handle == "" {
		return internal.SavedSessionRecord{}, errors.New("finalize: no audio artifact")
	}

	audioURL := artifact.Handle
	if o.opts.Archive != nil {
		fileURL, err := o.opts.Archive.Write(st, artifact.Data)
		if err != nil {
			internal.LogWarn("Failed to archive audio, keeping the in-process handle: %v", err)
		} else {
			audioURL = fileURL
		}
	}

	record := internal.SavedSessionRecord{
		ID:       string(st),
		Title:    o.opts.Locale.SessionTitle(st),
		Date:     o.opts.Now().UTC().Format(time.RFC3339),
		Duration: FinalizedDuration,
		AudioURL: audioURL,
	}
	saved, err := o.opts.Store.Save(record)
	if err != nil {
		return internal.SavedSessionRecord{}, fmt.Errorf("failed to save session: %w", err)
	}
	o.opts.Metrics.RecordSave()
	return saved, nil
}

// Close revokes the current audio handle. A run still in flight finishes,
// but its audio is discarded.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	handle := o.handle
	o.handle = ""
	o.mu.Unlock()

	if handle != "" {
		o.opts.Media.Revoke(handle)
	}
	return nil
}
