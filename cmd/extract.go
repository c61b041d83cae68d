package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <transcript-file>",
		Short: "Extract and match participants from a transcript",
		Long: `Extract participant identities from a transcript file, match each
against the corporate directory, and print the resulting roster.

Name lines follow the directory export convention ("Surname, Given (ABC-DEF)");
email addresses are picked up anywhere in the text. Internal emails are
resolved by directory lookup, external ones kept as external contacts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading transcript: %w", err)
			}

			engine, err := buildEngine()
			if err != nil {
				return err
			}

			if err := engine.ExtractAndMatch(cmd.Context(), string(data)); err != nil {
				return err
			}

			return printRoster(cmd, engine.Participants())
		},
	}
}
