package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iksnae/hypnojourney/internal"
)

var langCmd = &cobra.Command{
	Use:   "lang [en|fr|ar]",
	Short: "Show or change the interface and voice language",
	Long: `Without an argument, show the current language. With a language code,
switch to it. The choice is saved and used for the interface, the script and
the voice of new sessions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, lang := range internal.Languages {
				marker := "  "
				if lang == a.locale.Language {
					marker = countStyle.Render("*") + " "
				}
				fmt.Fprintf(out, "%s%s\n", marker, lang)
			}
			return nil
		}

		lang, err := internal.ParseLanguage(args[0])
		if err != nil {
			return err
		}
		next, err := a.locale.WithLanguage(lang)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ %s (%s)", next.T.AppName, next.Language)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(langCmd)
}
