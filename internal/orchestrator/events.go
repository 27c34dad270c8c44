package orchestrator

import (
	"github.com/iksnae/hypnojourney/internal"
)

// Stage is a step of the generation pipeline.
type Stage int

const (
	StageScript Stage = iota
	StageAudio
)

func (s Stage) String() string {
	if s == StageAudio {
		return "audio"
	}
	return "script"
}

// ProgressSource says how a progress value was obtained.
type ProgressSource int

const (
	// Synthetic progress comes from fixed checkpoints.
	Synthetic ProgressSource = iota
	// Measured progress comes from bytes received against the declared total.
	Measured
)

func (s ProgressSource) String() string {
	if s == Measured {
		return "measured"
	}
	return "synthetic"
}

// Event is one item of a BeginGeneration stream: *ProgressEvent,
// *ArtifactEvent or *ErrorEvent.
type Event interface {
	event()
}

// ProgressEvent reports stage progress in [0, 100]. Within a stage the
// values never decrease; each stage starts at 0.
type ProgressEvent struct {
	Stage   Stage
	Percent float64
	Source  ProgressSource
}

// ArtifactEvent carries the finished audio. It is the last event of a
// successful run.
type ArtifactEvent struct {
	Artifact *AudioArtifact
}

// ErrorEvent ends a failed run. Message is safe to show to the user.
type ErrorEvent struct {
	Kind    internal.ErrorKind
	Message string
}

func (*ProgressEvent) event() {}
func (*ArtifactEvent) event() {}
func (*ErrorEvent) event()    {}

// AudioArtifact is synthesized audio plus the handle it is reachable by.
// The handle stays valid until the orchestrator replaces it or closes.
type AudioArtifact struct {
	SessionType internal.SessionType
	Script      internal.GeneratedScript
	Data        []byte
	ContentType string
	Handle      string
}
