// Package player implements the playback transport of a finished session:
// play/pause, stop, seek and volume, rendered by an external audio player.
package player

import (
	"fmt"
	"math"
	"time"
)

// Status is the transport position of the player.
type Status int

const (
	Stopped Status = iota
	Playing
	Paused
)

func (s Status) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "stopped"
}

const (
	// SeekStep is the jump of a single seek.
	SeekStep = 10 * time.Second
	// VolumeStep is the change of a single volume key press.
	VolumeStep = 0.1
	// DefaultVolume is the volume a player starts with.
	DefaultVolume = 0.8
)

// Transport is the playback state without any audio attached. It is not
// safe for concurrent use; Player serializes access.
type Transport struct {
	Status   Status
	Position time.Duration
	// Duration is zero while unknown.
	Duration time.Duration
	Volume   float64
}

// NewTransport returns a stopped transport at DefaultVolume.
func NewTransport(duration time.Duration) Transport {
	return Transport{Duration: duration, Volume: DefaultVolume}
}

// Toggle switches between playing and paused. A stopped transport starts
// from its current position.
func (t *Transport) Toggle() {
	if t.Status == Playing {
		t.Status = Paused
		return
	}
	if t.Duration > 0 && t.Position >= t.Duration {
		t.Position = 0
	}
	t.Status = Playing
}

// Stop halts playback and rewinds to the start.
func (t *Transport) Stop() {
	t.Status = Stopped
	t.Position = 0
}

// Seek moves the position by delta, clamped to the track.
func (t *Transport) Seek(delta time.Duration) {
	t.SeekTo(t.Position + delta)
}

// SeekTo moves to an absolute position, clamped to the track.
func (t *Transport) SeekTo(pos time.Duration) {
	if pos < 0 {
		pos = 0
	}
	if t.Duration > 0 && pos > t.Duration {
		pos = t.Duration
	}
	t.Position = pos
}

// SetVolume sets the volume, clamped to [0, 1] and rounded to one decimal.
func (t *Transport) SetVolume(v float64) {
	v = math.Round(v*10) / 10
	t.Volume = math.Max(0, math.Min(1, v))
}

// Advance accounts for elapsed playing time. Reaching the end stops the
// transport at the end position.
func (t *Transport) Advance(elapsed time.Duration) {
	if t.Status != Playing || elapsed <= 0 {
		return
	}
	t.Position += elapsed
	if t.Duration > 0 && t.Position >= t.Duration {
		t.Position = t.Duration
		t.Status = Stopped
	}
}

// Fraction is the played share of the track in [0, 1], or 0 when the
// duration is unknown.
func (t Transport) Fraction() float64 {
	if t.Duration <= 0 {
		return 0
	}
	return math.Min(1, float64(t.Position)/float64(t.Duration))
}

// FormatTime renders d as m:ss, truncating fractional seconds.
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// mp3 rate of the synthesized audio
const assumedBitrate = 128000

// EstimateDuration guesses the length of a constant-bitrate mp3 of size
// bytes.
func EstimateDuration(size int64) time.Duration {
	if size <= 0 {
		return 0
	}
	return time.Duration(float64(size*8) / assumedBitrate * float64(time.Second))
}
