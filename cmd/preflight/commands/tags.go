package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List verified release tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, repo, _, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			tags, err := repo.Tags(cmd.Context(), "release_verified_*")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tags) == 0 {
				fmt.Fprintln(out, "No verified release tags.")
				return nil
			}
			for _, t := range tags {
				fmt.Fprintln(out, t)
			}
			return nil
		},
	}
}
