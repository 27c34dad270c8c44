package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/iksnae/hypnojourney/internal"
	"github.com/iksnae/hypnojourney/internal/orchestrator"
	"github.com/iksnae/hypnojourney/internal/player"
	"github.com/iksnae/hypnojourney/internal/tui"
)

// sessionOptions are the flags shared by play and consult
type sessionOptions struct {
	answers     []string
	showScript  bool
	metricsFile string
	play        bool
}

func addSessionFlags(cmd *cobra.Command, o *sessionOptions) {
	cmd.Flags().StringArrayVarP(&o.answers, "answer", "a", nil, "Answer the chat non-interactively (repeat for each turn)")
	cmd.Flags().BoolVar(&o.showScript, "show-script", false, "Print the generated script")
	cmd.Flags().StringVar(&o.metricsFile, "metrics-file", "", "Write pipeline metrics in Prometheus text format to this file")
	cmd.Flags().BoolVar(&o.play, "play", false, "Play the session after a non-interactive run")
}

// runSession runs one session of type st. With answers it runs without a
// terminal UI; otherwise it opens the interactive session page.
func runSession(cmd *cobra.Command, st internal.SessionType, f flow, o sessionOptions) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	for _, key := range a.cfg.MissingKeys() {
		internal.LogWarn("%s is not set; the session will fail to generate", key)
	}

	p, err := a.newPipeline(st, f)
	if err != nil {
		return err
	}
	defer p.Close()
	defer func() {
		if o.metricsFile == "" {
			return
		}
		if err := p.metrics.WriteFile(o.metricsFile); err != nil {
			internal.LogWarn("Failed to write metrics: %v", err)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(o.answers) == 0 {
		if !internal.IsTerminal(os.Stdin) {
			return fmt.Errorf("no terminal: pass the chat answers with --answer")
		}
		return runInteractive(ctx, cmd, a, p, st, f)
	}
	return runScripted(ctx, cmd, a, p, st, o)
}

func runInteractive(ctx context.Context, cmd *cobra.Command, a *app, p *pipeline, st internal.SessionType, f flow) error {
	var backend player.Backend
	if b, err := player.NewExecBackend(a.cfg.Player); err == nil {
		backend = b
	} else {
		internal.LogWarn("Playback unavailable: %v", err)
	}

	m := tui.NewModel(ctx, tui.Options{
		SessionType: st,
		Locale:      a.locale,
		Session:     p.orch,
		Resolver:    p.registry,
		Backend:     backend,
		AutoStart:   f == guided,
	})
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("session UI failed: %w", err)
	}

	fm, ok := final.(tui.Model)
	if !ok {
		return nil
	}
	if pl := fm.Player(); pl != nil {
		_ = pl.Close()
	}
	if rec := fm.Record(); rec != nil {
		internal.PrintSuccess(fmt.Sprintf("%s: %s", a.locale.T.Save, rec.Title))
	}
	return nil
}

func runScripted(ctx context.Context, cmd *cobra.Command, a *app, p *pipeline, st internal.SessionType, o sessionOptions) error {
	out := cmd.OutOrStdout()

	state := p.orch.Snapshot()
	printTurn(out, state.Transcript[0])
	for _, answer := range o.answers {
		before := len(state.Transcript)
		state = p.orch.SubmitChatTurn(ctx, answer)
		for _, turn := range state.Transcript[before:] {
			printTurn(out, turn)
		}
		if state.Complete {
			break
		}
	}
	if !state.Complete {
		return fmt.Errorf("chat not complete after %d answer(s); pass more --answer flags", state.UserTurns)
	}

	events, err := p.orch.BeginGeneration(ctx, *state.Request)
	if err != nil {
		return err
	}

	reporter := internal.NewStageReporter(cmd.ErrOrStderr())
	var artifact *orchestrator.AudioArtifact
	for ev := range events {
		switch ev := ev.(type) {
		case *orchestrator.ProgressEvent:
			reporter.Update(stageLabel(a.locale, ev.Stage), ev.Percent, ev.Source == orchestrator.Measured)
		case *orchestrator.ErrorEvent:
			reporter.Done()
			return &internal.PipelineError{Kind: ev.Kind, Message: ev.Message}
		case *orchestrator.ArtifactEvent:
			artifact = ev.Artifact
		}
	}
	reporter.Done()
	if artifact == nil {
		return fmt.Errorf("session interrupted")
	}

	if o.showScript {
		renderScript(out, artifact.Script.RawText)
	}

	rec, err := p.orch.Finalize(artifact, st)
	if err != nil {
		return err
	}
	internal.PrintSuccess(fmt.Sprintf("%s: %s (%s)", a.locale.T.Save, rec.Title, rec.AudioURL))

	if o.play {
		path, err := p.registry.Resolve(rec.AudioURL)
		if err != nil {
			return err
		}
		return playFile(ctx, out, a.cfg.Player, path)
	}
	return nil
}

func stageLabel(loc internal.Locale, s orchestrator.Stage) string {
	if s == orchestrator.StageAudio {
		return loc.T.GeneratingAudio
	}
	return loc.T.GeneratingScript
}

func printTurn(w io.Writer, turn internal.ChatTurn) {
	label := infoStyle.Render("assistant")
	if turn.Speaker == internal.SpeakerUser {
		label = countStyle.Render("you")
	}
	fmt.Fprintf(w, "%s: %s\n", label, turn.Text)
}

// renderScript prints the script as markdown so *emphasis* shows styled
func renderScript(w io.Writer, script string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err == nil {
		if rendered, err := r.Render(script); err == nil {
			fmt.Fprint(w, rendered)
			return
		}
	}
	fmt.Fprintln(w, script)
}

// playFile plays path to the end, or until ctx is cancelled
func playFile(ctx context.Context, w io.Writer, preferred, path string) error {
	backend, err := player.NewExecBackend(preferred)
	if err != nil {
		return err
	}
	proc, err := backend.Start(path, 0, player.DefaultVolume)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "▶ %s (Ctrl+C to stop)\n", backend.Name())

	select {
	case <-proc.Done():
		return nil
	case <-ctx.Done():
		return proc.Stop()
	}
}
