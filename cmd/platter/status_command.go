package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"platter/internal/library"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the library contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *library.Store) error {
				counts, err := store.Counts(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Library: %s\n", store.Path())
				rows := [][]string{
					{"Collections", strconv.Itoa(counts.Collections)},
					{"Releases", strconv.Itoa(counts.Releases)},
					{"Tracks", strconv.Itoa(counts.Tracks)},
					{"Artists", strconv.Itoa(counts.Artists)},
					{"Format descriptions", strconv.Itoa(counts.FormatDescriptions)},
					{"Matched catalog releases", strconv.Itoa(counts.SecondReleases)},
				}
				fmt.Fprintln(out, renderTable([]string{"Entity", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}
