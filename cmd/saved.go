package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/iksnae/hypnojourney/internal"
	"github.com/iksnae/hypnojourney/internal/media"
)

var deleteYes bool

// savedCmd lists saved sessions
var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "List your saved sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		records, err := a.store.List()
		if err != nil {
			return fmt.Errorf("failed to load saved sessions: %w", err)
		}
		displaySavedSessions(cmd.OutOrStdout(), a.locale, records)
		return nil
	},
}

func displaySavedSessions(w io.Writer, loc internal.Locale, records []internal.SavedSessionRecord) {
	t := loc.T
	if len(records) == 0 {
		fmt.Fprintln(w, t.NoSavedSessions)
		fmt.Fprintln(w, dateStyle.Render(t.CreateFirstSession+": hypnojourney sessions"))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s (%d)", t.SavedSessions, len(records))))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			titleStyle.Render(r.Title),
			idStyle.Render(r.ID),
			dateStyle.Render(t.Created+" "+createdLabel(r)),
			audioStatus(r.AudioURL))
	}
	_ = tw.Flush()
}

// createdLabel renders the record date relative to now, keeping dates
// written by other versions as they are
func createdLabel(r internal.SavedSessionRecord) string {
	if at := r.CreatedAt(); !at.IsZero() {
		return humanize.Time(at)
	}
	return r.Date
}

func audioStatus(audioURL string) string {
	if _, err := resolveSaved(audioURL); err != nil {
		return warningStyle.Render("audio expired")
	}
	return successStyle.Render("audio available")
}

// resolveSaved returns the file behind a stored audio URL. Blob handles
// belong to the process that created them and never resolve here.
func resolveSaved(audioURL string) (string, error) {
	if strings.HasPrefix(audioURL, media.BlobScheme) {
		return "", fmt.Errorf("%w: set audio_dir to keep audio between runs", media.ErrHandleExpired)
	}
	return media.ResolveFileURL(audioURL)
}

var savedShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		r, err := findSaved(a, args[0])
		if err != nil {
			return err
		}

		t := a.locale.T
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headerStyle.Render(r.Title))
		fmt.Fprintf(out, "ID:         %s\n", r.ID)
		fmt.Fprintf(out, "%s: %s (%s)\n", t.Created, r.Date, createdLabel(r))
		fmt.Fprintf(out, "%s: %s\n", t.Duration, r.Duration)
		fmt.Fprintf(out, "Audio:      %s %s\n", r.AudioURL, audioStatus(r.AudioURL))
		return nil
	},
}

var savedDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		r, err := findSaved(a, args[0])
		if err != nil {
			return err
		}

		if !deleteYes {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s [y/N] ", a.locale.T.ConfirmDelete, a.locale.T.DeleteSessionConfirm)
			if !confirmed(cmd.InOrStdin()) {
				internal.PrintInfo(a.locale.T.Cancel)
				return nil
			}
		}

		if err := a.store.Delete(r.ID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ "+a.locale.T.Delete+": "+r.Title))
		return nil
	},
}

func confirmed(in io.Reader) bool {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

var savedPlayCmd = &cobra.Command{
	Use:   "play <id>",
	Short: "Play a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		r, err := findSaved(a, args[0])
		if err != nil {
			return err
		}
		path, err := resolveSaved(r.AudioURL)
		if err != nil {
			return fmt.Errorf("cannot play %s: %w", r.ID, err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return playFile(ctx, cmd.OutOrStdout(), a.cfg.Player, path)
	},
}

func findSaved(a *app, id string) (internal.SavedSessionRecord, error) {
	r, ok, err := a.store.Get(id)
	if err != nil {
		return internal.SavedSessionRecord{}, fmt.Errorf("failed to load saved sessions: %w", err)
	}
	if !ok {
		return internal.SavedSessionRecord{}, fmt.Errorf("session not found: %s (use 'hypnojourney saved' to see saved sessions)", id)
	}
	return r, nil
}

func init() {
	rootCmd.AddCommand(savedCmd)
	savedCmd.AddCommand(savedShowCmd, savedDeleteCmd, savedPlayCmd)
	savedDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking")
}
