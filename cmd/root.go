package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/iksnae/hypnojourney/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	storePath  string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hypnojourney",
	Short: "Personalized guided relaxation sessions in your terminal",
	Long: `Talk through how you feel, then listen to a relaxation session written
and voiced for you.

A short chat collects what you would like to work on. A language model writes
the script, a text-to-speech service voices it, and the finished session is
saved so you can play it again.

Quick Start:
  hypnojourney sessions               # Choose a session type
  hypnojourney play sleep             # Guided chat, then generate and play
  hypnojourney consult confidence     # Free-form consultation first
  hypnojourney saved                  # Your saved sessions

Set OPENAI_API_KEY and ELEVENLABS_API_KEY (or a .env file) before starting.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:    cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		renderHome(cmd, a.locale)
		return nil
	},
}

func renderHome(cmd *cobra.Command, loc internal.Locale) {
	t := loc.T
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, headerStyle.Render(t.AppName))
	fmt.Fprintln(out, titleStyle.Render(t.Tagline))
	fmt.Fprintln(out)
	fmt.Fprintln(out, t.AppDescription)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s  %s\n", countStyle.Render("hypnojourney sessions"), t.StartNewSession)
	fmt.Fprintf(out, "  %s  %s\n", countStyle.Render("hypnojourney saved   "), t.ViewSavedSessions)
	fmt.Fprintln(out)
	fmt.Fprintln(out, dateStyle.Render(t.Disclaimer))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Ctrl+C cancels the command context, stopping playback and in-flight calls.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <config dir>/hypnojourney/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Session store database (default: <data dir>/hypnojourney/hypnojourney.db)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
