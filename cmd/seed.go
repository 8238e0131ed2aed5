package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default standup template if no default exists",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer rt.Close()

		template, created, err := rt.templates.EnsureDefaultTemplate(cmd.Context())
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "created default template %q (%s)\n", template.Name, template.ID)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "default template already present: %q (%s)\n", template.Name, template.ID)
		return nil
	},
}
