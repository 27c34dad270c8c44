package cmd

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iksnae/hypnojourney/internal"
	"github.com/iksnae/hypnojourney/testutil"
)

// testEnv isolates one command run: its own store, config and data
// directories, and no real API endpoints.
type testEnv struct {
	dir       string
	storePath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{dir: dir, storePath: filepath.Join(dir, "store.db")}

	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv(internal.EnvStore, env.storePath)
	t.Setenv(internal.EnvOpenAIAPIKey, "")
	t.Setenv(internal.EnvElevenLabsAPIKey, "")
	t.Setenv(internal.EnvOpenAIBaseURL, "http://127.0.0.1:1/v1")
	t.Setenv(internal.EnvElevenLabsBaseURL, "http://127.0.0.1:1")
	t.Setenv(internal.EnvAudioDir, "")
	t.Setenv(internal.EnvPlayer, "")
	return env
}

// seed writes the two-record fixture store
func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	testutil.CreateSQLiteFixture(t, e.storePath)
}

// fakeAPIs serves the chat-completion and text-to-speech endpoints and
// points the configuration at them.
type fakeAPIs struct {
	server    *httptest.Server
	chatCalls atomic.Int32
	ttsCalls  atomic.Int32
}

const fakeScript = "Get comfortable. Relax *deeply*. [PAUSE] Let sleep come."

func (e *testEnv) serveAPIs(t *testing.T) *fakeAPIs {
	t.Helper()
	f := &fakeAPIs{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			f.chatCalls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4",`+
				`"choices":[{"index":0,"message":{"role":"assistant","content":"`+fakeScript+`"},"finish_reason":"stop"}]}`)
		case strings.HasPrefix(r.URL.Path, "/v1/text-to-speech/"):
			f.ttsCalls.Add(1)
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write(testutil.FakeMP3)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.server.Close)

	t.Setenv(internal.EnvOpenAIAPIKey, "sk-test")
	t.Setenv(internal.EnvElevenLabsAPIKey, "xi-test")
	t.Setenv(internal.EnvOpenAIBaseURL, f.server.URL+"/v1")
	t.Setenv(internal.EnvElevenLabsBaseURL, f.server.URL)
	return f
}

// execute runs the root command with args and returns what it wrote
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	if args == nil {
		// nil makes cobra fall back to os.Args
		args = []string{}
	}
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default. Cobra keeps parsed values
// on the package-level commands between Execute calls.
func resetFlags() {
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		reset := func(f *pflag.Flag) {
			if f.Value.Type() == "stringArray" {
				return
			}
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)

	resetAnswers(playCmd, &playOpts.answers)
	resetAnswers(consultCmd, &consultOpts.answers)
}

// resetAnswers swaps in a fresh --answer value: a used stringArray appends
// to its previous contents instead of replacing them.
func resetAnswers(c *cobra.Command, dst *[]string) {
	fs := pflag.NewFlagSet(c.Name(), pflag.ContinueOnError)
	fs.StringArrayVarP(dst, "answer", "a", nil, "")
	f := c.Flags().Lookup("answer")
	f.Value = fs.Lookup("answer").Value
	f.Changed = false
}

func assertContains(t *testing.T, output string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(output, w) {
			t.Errorf("output missing %q:\n%s", w, output)
		}
	}
}
