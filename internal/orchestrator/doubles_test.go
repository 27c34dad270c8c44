package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iksnae/hypnojourney/internal"
	"github.com/iksnae/hypnojourney/internal/synth"
)

// callLog records calls across doubles in order
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) count(call string) int {
	n := 0
	for _, c := range l.list() {
		if c == call {
			n++
		}
	}
	return n
}

func (l *callLog) index(call string) int {
	for i, c := range l.list() {
		if c == call {
			return i
		}
	}
	return -1
}

type fakeGenerator struct {
	log      *callLog
	err      error
	release  chan struct{} // when set, Generate waits for it
	progress []float64
	requests []internal.SessionRequest
}

func (g *fakeGenerator) Generate(ctx context.Context, req internal.SessionRequest, onProgress func(float64)) (internal.GeneratedScript, error) {
	g.log.add("generate:start")
	defer g.log.add("generate:end")
	g.requests = append(g.requests, req)
	if g.release != nil {
		<-g.release
	}
	progress := g.progress
	if progress == nil {
		progress = []float64{10, 100}
	}
	if g.err != nil {
		onProgress(10)
		return internal.GeneratedScript{}, g.err
	}
	for _, p := range progress {
		onProgress(p)
	}
	return internal.GeneratedScript{RawText: "Take a *deep* breath. [PAUSE] Relax."}, nil
}

type fakeSynthesizer struct {
	log       *callLog
	err       error
	progress  []float64
	languages []internal.Language
}

func (s *fakeSynthesizer) Synthesize(ctx context.Context, script internal.GeneratedScript, lang internal.Language, onProgress func(float64)) (synth.Audio, error) {
	s.log.add("synthesize:start")
	defer s.log.add("synthesize:end")
	s.languages = append(s.languages, lang)
	onProgress(0)
	if s.err != nil {
		return synth.Audio{}, s.err
	}
	progress := s.progress
	if progress == nil {
		progress = []float64{25, 50, 75, 100}
	}
	for _, p := range progress {
		onProgress(p)
	}
	return synth.Audio{Data: []byte("ID3 fake audio"), ContentType: "audio/mpeg"}, nil
}

type fakeHandles struct {
	log  *callLog
	next int
	live map[string]bool
}

func newFakeHandles(log *callLog) *fakeHandles {
	return &fakeHandles{log: log, live: map[string]bool{}}
}

func (h *fakeHandles) Create(data []byte, contentType string) (string, error) {
	h.next++
	handle := fmt.Sprintf("blob:%d", h.next)
	h.live[handle] = true
	h.log.add("create:%s", handle)
	return handle, nil
}

func (h *fakeHandles) Revoke(handle string) {
	delete(h.live, handle)
	h.log.add("revoke:%s", handle)
}

type fakeStore struct {
	log     *callLog
	err     error
	records []internal.SavedSessionRecord
}

func (s *fakeStore) Save(r internal.SavedSessionRecord) (internal.SavedSessionRecord, error) {
	s.log.add("save:%s", r.ID)
	if s.err != nil {
		return internal.SavedSessionRecord{}, s.err
	}
	s.records = append(s.records, r)
	return r, nil
}

type fakeArchive struct {
	err error
}

func (a *fakeArchive) Write(st internal.SessionType, data []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return "file:///archive/" + string(st) + ".mp3", nil
}

type fakeReplier struct {
	replies []string
	err     error
	seen    [][]internal.ChatTurn
}

func (r *fakeReplier) Reply(ctx context.Context, st internal.SessionType, transcript []internal.ChatTurn) (string, error) {
	r.seen = append(r.seen, transcript)
	if r.err != nil {
		return "", r.err
	}
	if len(r.replies) == 0 {
		return "Tell me more.", nil
	}
	reply := r.replies[0]
	r.replies = r.replies[1:]
	return reply, nil
}

var errTransport = errors.New("dial tcp 10.0.0.1:443: connection refused")
