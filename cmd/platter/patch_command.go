package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"platter/internal/library"
	"platter/internal/overrides"
)

func newPatchCommand(ctx *commandContext) *cobra.Command {
	patchCmd := &cobra.Command{
		Use:   "patch",
		Short: "Apply manual metadata overrides",
	}
	patchCmd.AddCommand(newPatchApplyCommand(ctx))
	patchCmd.AddCommand(newPatchFieldsCommand())
	return patchCmd
}

func newPatchApplyCommand(ctx *commandContext) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the overrides file in one transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			source := strings.TrimSpace(path)
			if source == "" {
				source = cfg.Paths.OverridesPath
			}
			catalog := overrides.NewCatalog(source, logger)
			if catalog == nil {
				return fmt.Errorf("no overrides file configured; set paths.overrides_path or pass --file")
			}
			return ctx.withStore(func(store *library.Store) error {
				result, err := overrides.ApplyCatalog(cmd.Context(), store, catalog, logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d patches from %s (%d targets missing)\n", result.Applied, source, result.Missing)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "Overrides JSON file (defaults to paths.overrides_path)")
	return cmd
}

func newPatchFieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "fields",
		Short:       "List the fields overrides may change",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, kind := range []overrides.Kind{overrides.KindRelease, overrides.KindTrack} {
				fmt.Fprintf(out, "%s: %s\n", kind, strings.Join(overrides.Fields(kind), ", "))
			}
			return nil
		},
	}
}
