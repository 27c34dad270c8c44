package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iksnae/hypnojourney/internal"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List the session types you can start",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		renderSessionTypes(cmd, a.locale)
		return nil
	},
}

func renderSessionTypes(cmd *cobra.Command, loc internal.Locale) {
	t := loc.T
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, headerStyle.Render(t.ChooseSession))
	fmt.Fprintln(out, t.SessionPageDescription)
	fmt.Fprintln(out)

	for _, st := range internal.SessionTypes {
		fmt.Fprintf(out, "%s %s\n",
			titleStyle.Render(loc.SessionTitle(st)),
			dateStyle.Render(fmt.Sprintf("(%d %s)", st.NominalMinutes(), t.Minutes)))
		fmt.Fprintf(out, "  %s\n", loc.SessionDescription(st))
		fmt.Fprintf(out, "  %s\n\n", idStyle.Render("hypnojourney play "+string(st)))
	}
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
