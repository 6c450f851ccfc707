package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"platter/internal/align"
	"platter/internal/discs"
	"platter/internal/ingest"
	"platter/internal/jobs"
	"platter/internal/library"
	"platter/internal/matcher"
	"platter/internal/services"
)

func newReleaseCommand(ctx *commandContext) *cobra.Command {
	releaseCmd := &cobra.Command{
		Use:   "release",
		Short: "Ingest, inspect, match, and align single releases",
	}
	releaseCmd.AddCommand(newReleaseIngestCommand(ctx))
	releaseCmd.AddCommand(newReleaseShowCommand(ctx))
	releaseCmd.AddCommand(newReleaseMatchCommand(ctx))
	releaseCmd.AddCommand(newReleaseAlignCommand(ctx))
	return releaseCmd
}

func newReleaseIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <discogs-release-id>",
		Short: "Fetch a marketplace release and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceID, err := parseID(args[0], "release")
			if err != nil {
				return err
			}
			client, err := ctx.discogsClient()
			if err != nil {
				return err
			}
			raw, err := client.Release(cmd.Context(), sourceID)
			if err != nil {
				return fmt.Errorf("fetch release %d: %w", sourceID, err)
			}
			return ctx.withStore(func(store *library.Store) error {
				var rel *library.Release
				err := store.WithTx(cmd.Context(), func(tx *library.Tx) error {
					var err error
					rel, err = ingest.Ingest(cmd.Context(), tx, raw, true)
					return err
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if rel == nil {
					fmt.Fprintf(out, "Release %d is already in the library\n", sourceID)
					return nil
				}
				fmt.Fprintf(out, "Ingested %q as release %d (%d tracks)\n", rel.Title, rel.ID, len(rel.Tracks))
				return nil
			})
		},
	}
}

func newReleaseShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <release-id>",
		Short: "Show a release grouped by disc with match details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "release")
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *library.Store) error {
				rel, err := store.GetRelease(cmd.Context(), id)
				if err != nil {
					return err
				}
				if rel == nil {
					return services.Wrap(services.ErrNotFound, "cli", "show release", fmt.Sprintf("release %d", id), nil)
				}
				if asJSON {
					return writeJSON(cmd, releaseView(rel))
				}
				renderRelease(cmd.OutOrStdout(), rel)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func renderRelease(out io.Writer, rel *library.Release) {
	colors := newPalette(out)
	fmt.Fprintln(out, colors.section(fmt.Sprintf("%s - %s", rel.PrimaryArtist(), rel.Title)))
	if rel.Year > 0 {
		fmt.Fprintf(out, "Year:     %d\n", rel.Year)
	}
	fmt.Fprintf(out, "Discogs:  %s\n", rel.SourceURL())
	fmt.Fprintf(out, "Match:    %s\n", colors.confidence(rel.MatchCode))
	if link := rel.MatchURL(); link != "" {
		fmt.Fprintf(out, "          %s\n", link)
	}
	fmt.Fprintf(out, "Discs:    %d\n", rel.DiscCount())

	for _, disc := range discs.Assign(rel) {
		label := disc.ID
		if disc.Format != nil {
			label = fmt.Sprintf("%s  %s", disc.ID, strings.TrimSpace(disc.Format.Name+" "+disc.Format.DescriptionString()))
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, colors.section(label))
		rows := make([][]string, 0, len(disc.Tracks))
		for _, t := range disc.Tracks {
			matched := ""
			if t.Match != nil {
				matched = strings.TrimSpace(t.Match.Position + " " + t.Match.Title)
			}
			rows = append(rows, []string{t.Position, t.Title, t.DisplayDuration(), matched, colors.cost(t.MatchCost)})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Pos", "Title", "Length", "Matched track", "Cost"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight},
		))
	}
}

func newReleaseMatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "match <release-id>",
		Short: "Find and record the metadata catalog counterpart of a release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "release")
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *library.Store) error {
				var outcome matcher.Outcome
				_, err := ctx.runJob(cmd.Context(), store, jobs.KindMatch, id, func(jctx context.Context, h *jobs.Handle) error {
					m, err := ctx.newMatcher(store, h)
					if err != nil {
						return err
					}
					outcome, err = m.Match(jctx, id)
					return err
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !outcome.Matched {
					fmt.Fprintf(out, "No match found for release %d\n", id)
					return nil
				}
				fmt.Fprintf(out, "Matched release %d to %s via %s (code %d)\n",
					id, outcome.Match.ExternalID, outcome.Match.Strategy, outcome.Match.Code)
				printAlignment(out, outcome.Alignment)
				return nil
			})
		},
	}
}

func newReleaseAlignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "align <release-id>",
		Short: "Recompute track alignment for a matched release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "release")
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *library.Store) error {
				var result align.Result
				_, err := ctx.runJob(cmd.Context(), store, jobs.KindAlign, id, func(jctx context.Context, h *jobs.Handle) error {
					var err error
					result, err = align.New(align.PolicyFromConfig(cfg.Matching), h.Logger()).AlignRelease(jctx, store, id)
					return err
				})
				if err != nil {
					return err
				}
				printAlignment(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
}

func printAlignment(out io.Writer, result align.Result) {
	total := 0.0
	for _, a := range result.Assignments {
		total += a.Cost
	}
	fmt.Fprintf(out, "Aligned %d tracks (total cost %s), %d unmatched\n",
		len(result.Assignments), strconv.FormatFloat(total, 'f', 1, 64), result.Unmatched)
}
