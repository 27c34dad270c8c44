package player

import (
	"testing"
	"time"
)

func TestTransport_Defaults(t *testing.T) {
	tr := NewTransport(3 * time.Minute)
	if tr.Status != Stopped || tr.Position != 0 || tr.Volume != 0.8 {
		t.Errorf("NewTransport() = %+v", tr)
	}
}

func TestTransport_ToggleAndStop(t *testing.T) {
	tr := NewTransport(time.Minute)

	tr.Toggle()
	if tr.Status != Playing {
		t.Fatalf("Status = %s, want playing", tr.Status)
	}
	tr.Advance(15 * time.Second)
	tr.Toggle()
	if tr.Status != Paused || tr.Position != 15*time.Second {
		t.Errorf("after pause = %+v", tr)
	}

	// paused time does not count
	tr.Advance(time.Hour)
	if tr.Position != 15*time.Second {
		t.Errorf("Position advanced while paused: %s", tr.Position)
	}

	tr.Stop()
	if tr.Status != Stopped || tr.Position != 0 {
		t.Errorf("after stop = %+v", tr)
	}
}

func TestTransport_PlayToEndThenReplay(t *testing.T) {
	tr := NewTransport(30 * time.Second)
	tr.Toggle()
	tr.Advance(45 * time.Second)

	if tr.Status != Stopped || tr.Position != 30*time.Second {
		t.Fatalf("at end = %+v", tr)
	}
	if tr.Fraction() != 1 {
		t.Errorf("Fraction() = %v, want 1", tr.Fraction())
	}

	tr.Toggle()
	if tr.Status != Playing || tr.Position != 0 {
		t.Errorf("replay = %+v, want playing from 0", tr)
	}
}

func TestTransport_Seek(t *testing.T) {
	tests := []struct {
		name  string
		start time.Duration
		delta time.Duration
		want  time.Duration
	}{
		{"forward", 20 * time.Second, SeekStep, 30 * time.Second},
		{"back", 20 * time.Second, -SeekStep, 10 * time.Second},
		{"clamp start", 4 * time.Second, -SeekStep, 0},
		{"clamp end", 55 * time.Second, SeekStep, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransport(time.Minute)
			tr.SeekTo(tt.start)
			tr.Seek(tt.delta)
			if tr.Position != tt.want {
				t.Errorf("Position = %s, want %s", tr.Position, tt.want)
			}
		})
	}

	unknown := NewTransport(0)
	unknown.Seek(5 * time.Minute)
	if unknown.Position != 5*time.Minute {
		t.Errorf("unknown duration must not clamp forward seeks: %s", unknown.Position)
	}
}

func TestTransport_Volume(t *testing.T) {
	tr := NewTransport(time.Minute)
	tests := []struct {
		set  float64
		want float64
	}{
		{tr.Volume + VolumeStep, 0.9},
		{1.3, 1},
		{-0.2, 0},
		{0.34, 0.3},
		{0.25, 0.3},
	}
	for _, tt := range tests {
		tr.SetVolume(tt.set)
		if tr.Volume != tt.want {
			t.Errorf("SetVolume(%v) -> %v, want %v", tt.set, tr.Volume, tt.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{9*time.Second + 900*time.Millisecond, "0:09"},
		{61 * time.Second, "1:01"},
		{10*time.Minute + 5*time.Second, "10:05"},
		{-time.Second, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.d); got != tt.want {
			t.Errorf("FormatTime(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestEstimateDuration(t *testing.T) {
	// 16000 bytes/s at 128kbps
	if got := EstimateDuration(160000); got != 10*time.Second {
		t.Errorf("EstimateDuration(160000) = %s, want 10s", got)
	}
	if got := EstimateDuration(0); got != 0 {
		t.Errorf("EstimateDuration(0) = %s", got)
	}
}
