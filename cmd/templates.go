package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-tracker/internal/repository"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect ticket templates",
}

var templatesListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List templates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer rt.Close()

		filter := repository.NewTemplateFilter()
		filter.PageSize = 0
		templates, err := rt.templates.ListTemplates(cmd.Context(), filter)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tVERSION\tFIELDS\tDEFAULT")
		for i := range templates {
			t := &templates[i]
			def := ""
			if t.IsDefault {
				def = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", t.ID, t.Name, t.Version, t.TotalFieldCount(), def)
		}
		return w.Flush()
	},
}

func init() {
	templatesCmd.AddCommand(templatesListCmd)
}
