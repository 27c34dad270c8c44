package player

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrNoPlayer is returned when no supported audio player is installed.
var ErrNoPlayer = errors.New("no audio player found (install ffplay, mpv, afplay or mpg123, or set HYPNO_PLAYER)")

// Process is a running playback.
type Process interface {
	Stop() error
	// Done is closed when playback ends on its own or after Stop.
	Done() <-chan struct{}
}

// Backend starts playback of a file at an offset and volume.
type Backend interface {
	Start(path string, offset time.Duration, volume float64) (Process, error)
	Name() string
}

// Command describes how to drive one external player.
type Command struct {
	Name string
	// CanSeek is false for players that always start at the beginning.
	CanSeek bool
	Args    func(path string, offset time.Duration, volume float64) []string
}

func secs(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 1, 64)
}

func percent(v float64) string {
	return strconv.Itoa(int(v*100 + 0.5))
}

// Commands lists the supported players in detection order.
var Commands = []Command{
	{
		Name:    "ffplay",
		CanSeek: true,
		Args: func(path string, offset time.Duration, volume float64) []string {
			return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-ss", secs(offset), "-volume", percent(volume), path}
		},
	},
	{
		Name:    "mpv",
		CanSeek: true,
		Args: func(path string, offset time.Duration, volume float64) []string {
			return []string{"--no-video", "--really-quiet", "--start=" + secs(offset), "--volume=" + percent(volume), path}
		},
	},
	{
		Name: "afplay",
		Args: func(path string, _ time.Duration, volume float64) []string {
			return []string{"-v", strconv.FormatFloat(volume, 'f', 1, 64), path}
		},
	},
	{
		Name:    "mpg123",
		CanSeek: true,
		Args: func(path string, offset time.Duration, volume float64) []string {
			// -k skips mpeg frames, 1152 samples each at 44.1kHz
			frames := int(offset.Seconds() * 44100 / 1152)
			return []string{"-q", "-k", strconv.Itoa(frames), "-f", strconv.Itoa(int(volume * 32768)), path}
		},
	},
}

// lookPath is swapped in tests
var lookPath = exec.LookPath

// Detect returns the player named preferred, or the first installed one
// from Commands when preferred is empty.
func Detect(preferred string) (Command, string, error) {
	preferred = strings.TrimSpace(preferred)
	if preferred != "" {
		for _, c := range Commands {
			if c.Name == preferred {
				path, err := lookPath(c.Name)
				if err != nil {
					return Command{}, "", fmt.Errorf("player %q not found: %w", preferred, err)
				}
				return c, path, nil
			}
		}
		return Command{}, "", fmt.Errorf("unsupported player %q", preferred)
	}
	for _, c := range Commands {
		if path, err := lookPath(c.Name); err == nil {
			return c, path, nil
		}
	}
	return Command{}, "", ErrNoPlayer
}

// ExecBackend plays files by running an external player process.
type ExecBackend struct {
	Command Command
	Path    string
}

// NewExecBackend detects a player, honoring preferred when set.
func NewExecBackend(preferred string) (*ExecBackend, error) {
	c, path, err := Detect(preferred)
	if err != nil {
		return nil, err
	}
	return &ExecBackend{Command: c, Path: path}, nil
}

func (b *ExecBackend) Name() string {
	return b.Command.Name
}

// Start launches the player. Its output is discarded.
func (b *ExecBackend) Start(path string, offset time.Duration, volume float64) (Process, error) {
	if !b.Command.CanSeek {
		offset = 0
	}
	cmd := exec.Command(b.Path, b.Command.Args(path, offset, volume)...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", b.Command.Name, err)
	}
	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (p *execProcess) Done() <-chan struct{} {
	return p.done
}

func (p *execProcess) Stop() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	<-p.done
	return nil
}
