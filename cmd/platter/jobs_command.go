package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"platter/internal/library"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect sync, match, and align job records",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *library.Store) error {
				list, err := store.ListJobs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					items := make([]map[string]any, 0, len(list))
					for _, j := range list {
						items = append(items, jobView(j))
					}
					return writeJSON(cmd, map[string]any{"jobs": items})
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, j := range list {
					detail := j.ErrorKind
					if j.ErrorMessage != "" {
						detail = fmt.Sprintf("%s: %s", j.ErrorKind, j.ErrorMessage)
					}
					rows = append(rows, []string{
						shortJobID(j.ID),
						j.Kind,
						strconv.FormatInt(j.TargetID, 10),
						string(j.Status),
						fmt.Sprintf("%.0f%%", j.Progress),
						fmt.Sprintf("%d/%d", j.Synced, j.Total),
						j.UpdatedAt.Local().Format(time.DateTime),
						detail,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Job", "Kind", "Target", "Status", "Progress", "Items", "Updated", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func shortJobID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
