package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"platter/internal/align"
	"platter/internal/jobs"
	"platter/internal/library"
	"platter/internal/matcher"
	"platter/internal/reconcile"
	"platter/internal/services"
)

func newCollectionCommand(ctx *commandContext) *cobra.Command {
	collectionCmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"collections"},
		Short:   "Inspect, sync, and match collections",
	}
	collectionCmd.AddCommand(newCollectionListCommand(ctx))
	collectionCmd.AddCommand(newCollectionShowCommand(ctx))
	collectionCmd.AddCommand(newCollectionSyncCommand(ctx))
	collectionCmd.AddCommand(newCollectionMatchCommand(ctx))
	return collectionCmd
}

func newCollectionListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list <user>",
		Short: "List a user's collections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *library.Store) error {
				user, err := lookupUser(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				collections, err := store.ListCollections(cmd.Context(), user.ID)
				if err != nil {
					return err
				}
				if asJSON {
					items := make([]map[string]any, 0, len(collections))
					for _, c := range collections {
						items = append(items, collectionView(c))
					}
					return writeJSON(cmd, map[string]any{"collections": items})
				}
				if len(collections) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No collections for %s; run `platter user folders %s` first\n", user.Name, user.Name)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderCollections(collections))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func renderCollections(collections []library.Collection) string {
	rows := make([][]string, 0, len(collections))
	for _, c := range collections {
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10),
			strconv.FormatInt(c.FolderID, 10),
			c.Name,
			strconv.Itoa(c.Count),
		})
	}
	return renderTable(
		[]string{"ID", "Folder", "Name", "Items"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignRight},
	)
}

func newCollectionShowCommand(ctx *commandContext) *cobra.Command {
	var (
		orderField string
		direction  string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "show <collection-id>",
		Short: "List the releases of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "collection")
			if err != nil {
				return err
			}
			order, err := library.ParseOrdering(orderField, direction)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *library.Store) error {
				coll, err := store.GetCollection(cmd.Context(), id)
				if err != nil {
					return err
				}
				if coll == nil {
					return services.Wrap(services.ErrNotFound, "cli", "show collection", fmt.Sprintf("collection %d", id), nil)
				}
				releases, err := store.CollectionReleases(cmd.Context(), id, order)
				if err != nil {
					return err
				}
				runner, err := ctx.jobRunner(store)
				if err != nil {
					return err
				}
				syncing, err := runner.InProgress(cmd.Context(), jobs.KindSync, id)
				if err != nil {
					return err
				}
				if asJSON {
					items := make([]map[string]any, 0, len(releases))
					for _, r := range releases {
						items = append(items, releaseSummaryView(r))
					}
					view := collectionView(*coll)
					view["sync_in_progress"] = syncing
					view["releases"] = items
					return writeJSON(cmd, view)
				}
				out := cmd.OutOrStdout()
				colors := newPalette(out)
				fmt.Fprintln(out, colors.section(fmt.Sprintf("%s (%d releases)", coll.Name, len(releases))))
				if syncing {
					fmt.Fprintln(out, colors.fair.Sprint("Sync in progress; the listing may be incomplete"))
				}
				rows := make([][]string, 0, len(releases))
				for _, r := range releases {
					year := ""
					if r.Year > 0 {
						year = strconv.Itoa(r.Year)
					}
					rows = append(rows, []string{
						strconv.FormatInt(r.ID, 10),
						strconv.FormatInt(r.SourceID, 10),
						r.PrimaryArtist(),
						r.Title,
						year,
						colors.confidence(r.MatchCode),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Discogs", "Artist", "Title", "Year", "Match"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&orderField, "order", "title", "Order by title, id, artists_sort, year, or created_at")
	cmd.Flags().StringVar(&direction, "direction", "asc", "Sort direction (asc or desc)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func newCollectionSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <collection-id>",
		Short: "Reconcile a collection with its remote folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "collection")
			if err != nil {
				return err
			}
			client, err := ctx.discogsClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printer := newProgressPrinter(out)
			return ctx.withStore(func(store *library.Store) error {
				var result reconcile.Result
				_, err := ctx.runJob(cmd.Context(), store, jobs.KindSync, id, func(jctx context.Context, h *jobs.Handle) error {
					var err error
					result, err = reconcile.New(store, client, h.Logger()).Sync(jctx, id, func(p reconcile.Progress) {
						if p.State == reconcile.StateFailed {
							return
						}
						h.Progress(jctx, p.Percent, p.Synced, p.Total)
						printer.update(p.Percent, p.Synced, p.Total)
					})
					return err
				})
				printer.finish()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Synced %d releases: %d ingested, %d linked, %d removed\n",
					result.Total, result.Created, result.Linked, result.Removed)
				return nil
			})
		},
	}
}

func newCollectionMatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "match <collection-id>",
		Short: "Match every unmatched release of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "collection")
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *library.Store) error {
				var result matcher.BatchResult
				_, err := ctx.runJob(cmd.Context(), store, jobs.KindMatchCollection, id, func(jctx context.Context, h *jobs.Handle) error {
					m, err := ctx.newMatcher(store, h)
					if err != nil {
						return err
					}
					result, err = m.MatchCollection(jctx, id)
					return err
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Matched %d of %d releases (%d unmatched, %d failed)\n",
					result.Matched, result.Total, result.Unmatched, result.Failed)
				return nil
			})
		},
	}
}

// newMatcher builds a matcher whose catalog client lives only as long as the job.
func (c *commandContext) newMatcher(store *library.Store, h *jobs.Handle) (*matcher.Matcher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := c.musicbrainzClient()
	if err != nil {
		return nil, err
	}
	aligner := align.New(align.PolicyFromConfig(cfg.Matching), h.Logger())
	return matcher.New(store, client, aligner, matcher.PolicyFromConfig(cfg.Matching), h.Logger()), nil
}
