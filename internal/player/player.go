package player

import (
	"sync"
	"time"

	"github.com/iksnae/hypnojourney/internal"
)

// Player couples a Transport with a Backend. Players that cannot change
// position or volume mid-stream are restarted at the current position.
type Player struct {
	mu        sync.Mutex
	backend   Backend
	path      string
	transport Transport
	proc      Process
	startedAt time.Time
	startPos  time.Duration

	// Now is swapped in tests.
	Now func() time.Time
}

// New returns a stopped player for the audio file at path.
func New(backend Backend, path string, duration time.Duration) *Player {
	return &Player{
		backend:   backend,
		path:      path,
		transport: NewTransport(duration),
		Now:       time.Now,
	}
}

// Snapshot returns the transport state with the position brought up to date.
func (p *Player) Snapshot() Transport {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sync()
	return p.transport
}

// Toggle plays or pauses.
func (p *Player) Toggle() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sync()
	p.transport.Toggle()
	if p.transport.Status == Playing {
		return p.start()
	}
	return p.halt()
}

// Stop stops playback and rewinds.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transport.Stop()
	return p.halt()
}

// Seek moves by delta; a playing track continues from the new position.
func (p *Player) Seek(delta time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sync()
	p.transport.Seek(delta)
	return p.restart()
}

// SetVolume changes the volume; a playing track continues at the new
// volume.
func (p *Player) SetVolume(v float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sync()
	before := p.transport.Volume
	p.transport.SetVolume(v)
	if p.transport.Volume == before {
		return nil
	}
	return p.restart()
}

// Close stops any running player process.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.halt()
}

// sync folds wall-clock progress into the transport. Must hold mu.
func (p *Player) sync() {
	if p.transport.Status != Playing || p.proc == nil {
		return
	}
	select {
	case <-p.proc.Done():
		// the player ran to the end
		p.proc = nil
		p.transport.Status = Stopped
		if p.transport.Duration > 0 {
			p.transport.Position = p.transport.Duration
		}
		return
	default:
	}
	now := p.Now()
	p.transport.SeekTo(p.startPos)
	p.transport.Advance(now.Sub(p.startedAt))
}

func (p *Player) start() error {
	proc, err := p.backend.Start(p.path, p.transport.Position, p.transport.Volume)
	if err != nil {
		p.transport.Status = Paused
		return err
	}
	p.proc = proc
	p.startedAt = p.Now()
	p.startPos = p.transport.Position
	internal.LogDebug("%s playing %s from %s", p.backend.Name(), p.path, FormatTime(p.startPos))
	return nil
}

func (p *Player) halt() error {
	if p.proc == nil {
		return nil
	}
	err := p.proc.Stop()
	p.proc = nil
	return err
}

func (p *Player) restart() error {
	if p.transport.Status != Playing {
		return nil
	}
	if err := p.halt(); err != nil {
		return err
	}
	return p.start()
}
