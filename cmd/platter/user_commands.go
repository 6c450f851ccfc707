package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"platter/internal/jobs"
	"platter/internal/library"
	"platter/internal/reconcile"
	"platter/internal/services"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local users and their marketplace accounts",
	}
	userCmd.AddCommand(newUserAddCommand(ctx))
	userCmd.AddCommand(newUserListCommand(ctx))
	userCmd.AddCommand(newUserFoldersCommand(ctx))
	return userCmd
}

func newUserAddCommand(ctx *commandContext) *cobra.Command {
	var discogsUsername string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a user linked to a marketplace account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			account := strings.TrimSpace(discogsUsername)
			if account == "" {
				account = name
			}
			return ctx.withStore(func(store *library.Store) error {
				user, err := store.CreateUser(cmd.Context(), name, account)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added user %s (id %d, discogs %s)\n", user.Name, user.ID, user.DiscogsUsername)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&discogsUsername, "discogs", "", "Marketplace username (defaults to the user name)")
	return cmd
}

func newUserListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *library.Store) error {
				users, err := store.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					items := make([]map[string]any, 0, len(users))
					for _, u := range users {
						items = append(items, userView(u))
					}
					return writeJSON(cmd, map[string]any{"users": items})
				}
				if len(users) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No users registered")
					return nil
				}
				rows := make([][]string, 0, len(users))
				for _, u := range users {
					rows = append(rows, []string{
						strconv.FormatInt(u.ID, 10),
						u.Name,
						u.DiscogsUsername,
						u.CreatedAt.Local().Format("2006-01-02"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Discogs", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func newUserFoldersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "folders <user>",
		Short: "Mirror the user's remote collection folders as local collections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.discogsClient()
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *library.Store) error {
				user, err := lookupUser(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				var collections []library.Collection
				_, err = ctx.runJob(cmd.Context(), store, jobs.KindFolders, user.ID, func(jctx context.Context, h *jobs.Handle) error {
					var err error
					collections, err = reconcile.New(store, client, h.Logger()).SyncFolders(jctx, user.ID)
					return err
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderCollections(collections))
				return nil
			})
		},
	}
}

// lookupUser resolves a user by name, falling back to a numeric id.
func lookupUser(ctx context.Context, store *library.Store, ref string) (*library.User, error) {
	ref = strings.TrimSpace(ref)
	user, err := store.UserByName(ctx, ref)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		if user, err = store.GetUser(ctx, id); err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}
	return nil, services.Wrap(services.ErrNotFound, "cli", "lookup user", fmt.Sprintf("user %q", ref), nil)
}
