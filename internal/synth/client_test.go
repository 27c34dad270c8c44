package synth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/iksnae/hypnojourney/internal"
	"github.com/iksnae/hypnojourney/testutil"
)

type seenRequest struct {
	path   string
	apiKey string
	accept string
	body   speechRequest
}

func newTTSServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]seenRequest) {
	t.Helper()
	var seen []seenRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body speechRequest
		_ = sonic.Unmarshal(raw, &body)
		seen = append(seen, seenRequest{
			path:   r.URL.Path,
			apiKey: r.Header.Get("xi-api-key"),
			accept: r.Header.Get("Accept"),
			body:   body,
		})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "xi-test", BaseURL: srv.URL, HTTPClient: srv.Client()}), &seen
}

// chunkedAudio writes payload in n flushed chunks with a Content-Length
func chunkedAudio(payload []byte, n int) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.WriteHeader(http.StatusOK)
		size := len(payload) / n
		for i := 0; i < n; i++ {
			end := (i + 1) * size
			if i == n-1 {
				end = len(payload)
			}
			_, _ = w.Write(payload[i*size : end])
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}

func TestSynthesize(t *testing.T) {
	client, seen := newTTSServer(t, chunkedAudio(testutil.FakeMP3, 4))

	var progress []float64
	script := internal.GeneratedScript{RawText: "Take a *deep* breath. [PAUSE] Relax. [LONG_PAUSE]"}
	audio, err := client.Synthesize(context.Background(), script, internal.LanguageFrench, func(p float64) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if !bytes.Equal(audio.Data, testutil.FakeMP3) {
		t.Errorf("Data has %d bytes, want %d", len(audio.Data), len(testutil.FakeMP3))
	}
	if audio.ContentType != "audio/mpeg" {
		t.Errorf("ContentType = %q", audio.ContentType)
	}

	if len(*seen) != 1 {
		t.Fatalf("server saw %d requests, want 1", len(*seen))
	}
	req := (*seen)[0]
	if req.path != "/v1/text-to-speech/jsCqWAovK2LkecY7zXl4" {
		t.Errorf("path = %q, want the french voice", req.path)
	}
	if req.apiKey != "xi-test" || req.accept != "audio/mpeg" {
		t.Errorf("headers: xi-api-key=%q accept=%q", req.apiKey, req.accept)
	}
	if req.body.Text != "Take a *deep* breath. Relax." {
		t.Errorf("text = %q", req.body.Text)
	}
	if req.body.VoiceSettings != DefaultVoiceSettings {
		t.Errorf("voice settings = %+v", req.body.VoiceSettings)
	}

	if len(progress) < 2 || progress[0] != 0 || progress[len(progress)-1] != 100 {
		t.Fatalf("progress = %v, want to start at 0 and end at 100", progress)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Errorf("progress decreased: %v", progress)
		}
	}
}

func TestSynthesize_UnknownLength(t *testing.T) {
	client, _ := newTTSServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(testutil.FakeMP3[:100])
		w.(http.Flusher).Flush()
		_, _ = w.Write(testutil.FakeMP3[100:])
	})

	var progress []float64
	_, err := client.Synthesize(context.Background(), internal.GeneratedScript{RawText: "Relax."}, internal.LanguageEnglish,
		func(p float64) { progress = append(progress, p) })
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(progress) != 2 || progress[0] != 0 || progress[1] != 100 {
		t.Errorf("progress = %v, want [0 100] without a Content-Length", progress)
	}
}

func TestSynthesize_Failures(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		handler func(http.ResponseWriter, *http.Request)
		calls   int
	}{
		{
			name: "unauthorized",
			text: "Relax.",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"detail":{"status":"invalid_api_key"}}`, http.StatusUnauthorized)
			},
			calls: 1,
		},
		{
			name: "quota exceeded",
			text: "Relax.",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "quota", http.StatusTooManyRequests)
			},
			calls: 1,
		},
		{
			name: "empty body",
			text: "Relax.",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			calls: 1,
		},
		{
			name:    "nothing to say",
			text:    "[PAUSE] [LONG_PAUSE]",
			handler: func(w http.ResponseWriter, r *http.Request) {},
			calls:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, seen := newTTSServer(t, tt.handler)

			_, err := client.Synthesize(context.Background(), internal.GeneratedScript{RawText: tt.text}, internal.LanguageEnglish, nil)
			var pipeErr *internal.PipelineError
			if !errors.As(err, &pipeErr) {
				t.Fatalf("error = %v, want *PipelineError", err)
			}
			if pipeErr.Kind != internal.AudioSynthesisFailed {
				t.Errorf("Kind = %q", pipeErr.Kind)
			}
			if pipeErr.Message != "Failed to generate audio" {
				t.Errorf("Message = %q", pipeErr.Message)
			}
			if len(*seen) != tt.calls {
				t.Errorf("server saw %d requests, want %d", len(*seen), tt.calls)
			}
		})
	}
}

func TestSynthesize_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(Config{APIKey: "k", BaseURL: url})
	_, err := client.Synthesize(context.Background(), internal.GeneratedScript{RawText: "Relax."}, internal.LanguageEnglish, nil)
	if internal.KindOf(err) != internal.AudioSynthesisFailed {
		t.Errorf("KindOf(err) = %q, want AudioSynthesisFailed", internal.KindOf(err))
	}
	if strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error message leaks transport detail: %q", err.Error())
	}
}
