package cmd

import (
	"github.com/spf13/cobra"

	"github.com/iksnae/hypnojourney/internal"
)

var playOpts sessionOptions

var playCmd = &cobra.Command{
	Use:   "play <stress-relief|confidence|sleep>",
	Short: "Start a guided session",
	Long: `Start a guided session: a short chat, then the script is written and
voiced, saved, and played.

The chat completes after your fourth answer. Pass the answers with --answer
to run without the interactive page, for example:

  hypnojourney play sleep -a "I can't switch off" -a "work" -a "breathing" -a "yes"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := internal.ParseSessionType(args[0])
		if err != nil {
			return err
		}
		return runSession(cmd, st, guided, playOpts)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	addSessionFlags(playCmd, &playOpts)
}
