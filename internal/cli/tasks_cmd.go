package cli

import (
	"fmt"

	"go-fwpm/internal/importer"

	"github.com/spf13/cobra"
)

func newTasksCmd(opts *globalOptions) *cobra.Command {
	var q importer.TaskQuery

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List implementation tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			tasks, err := client.ListTasks(cmd.Context(), q)
			if err != nil {
				return withCode(exitGateway, err)
			}

			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, subtleStyle.Render("No tasks found"))
				return nil
			}
			fmt.Fprintln(out, renderRecords(tasks))
			fmt.Fprintln(out, subtleStyle.Render(fmt.Sprintf("%d task(s)", len(tasks))))
			return nil
		},
	}

	cmd.Flags().StringVar(&q.Status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&q.Category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&q.Search, "search", "", "Search site, node and implementor")
	return cmd
}

func renderRecords(records []importer.Record) string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{r.Category, r.SiteName, r.NodeID, r.Implementor, r.Status, r.DateCreated, r.LastUpdated}
	}
	return renderTable([]string{"Category", "Site", "Node", "Implementor", "Status", "Created", "Updated"}, rows)
}
