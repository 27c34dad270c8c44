package cmd

import (
	"github.com/spf13/cobra"

	"github.com/iksnae/hypnojourney/internal"
)

var consultOpts sessionOptions

var consultCmd = &cobra.Command{
	Use:   "consult <stress-relief|confidence|sleep>",
	Short: "Talk with the AI therapist before your session",
	Long: `Open a free-form consultation. Each answer is replied to by the language
model. Once you agree to begin and the therapist starts settling you in, the
session can start and a full-length script is written from the conversation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := internal.ParseSessionType(args[0])
		if err != nil {
			return err
		}
		return runSession(cmd, st, consultation, consultOpts)
	},
}

func init() {
	rootCmd.AddCommand(consultCmd)
	addSessionFlags(consultCmd, &consultOpts)
}
