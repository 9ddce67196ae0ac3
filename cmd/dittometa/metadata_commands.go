package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittometa/pkg/config"
	"github.com/marmos91/dittometa/pkg/filemeta"
)

func newGetCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show the metadata stored for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return ctx.withStores(cmd, func(stores *config.Stores) error {
				meta, err := stores.Metadata.Load(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, meta)
				}
				if meta == nil {
					fmt.Fprintf(out, "No metadata for %s\n", id)
				} else {
					fmt.Fprintln(out, renderTable(
						[]string{"Key", "Type", "Value"},
						metadataRows(meta),
						nil,
					))
				}
				if names := stores.Aliases.ItemAliases(id); len(names) > 0 {
					fmt.Fprintf(out, "Aliases: %s\n", strings.Join(names, ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	return cmd
}

func newSetCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	var noOverwrite bool

	cmd := &cobra.Command{
		Use:   "set <id> <key> <value>",
		Short: "Set one metadata field on an item",
		Long: "Set one metadata field on an item. The value is parsed according to --type:\n" +
			"  integer   whole number\n" +
			"  number    real number\n" +
			"  boolean   true/false, 1/0, yes/no\n" +
			"  date      calendar date, stored as YYYY-MM-DD\n" +
			"  datetime  instant, stored in UTC\n" +
			"  string    text as given (default)",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, key, raw := args[0], args[1], args[2]

			kind, err := filemeta.ParseType(typeFlag)
			if err != nil {
				return err
			}
			entry, err := filemeta.ParseValue(raw, kind)
			if err != nil {
				return err
			}

			return ctx.withStores(cmd, func(stores *config.Stores) error {
				// Merge with what is already persisted.
				if _, err := stores.Metadata.Load(cmd.Context(), id); err != nil {
					return err
				}

				if noOverwrite {
					err = stores.Metadata.AddMetadataField(cmd.Context(), id, key, entry)
				} else {
					err = stores.Metadata.SetMetadataField(cmd.Context(), id, key, entry)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s = %s (%s)\n", id, key, entry, entry.Type)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&typeFlag, "type", "t", string(filemeta.TypeString), "Value type (string, integer, number, boolean, date, datetime)")
	cmd.Flags().BoolVar(&noOverwrite, "no-overwrite", false, "Fail if the key already exists")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id> [key]",
		Short: "Remove one field, or all metadata of an item",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return ctx.withStores(cmd, func(stores *config.Stores) error {
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					if err := stores.Metadata.RemoveMetadata(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed all metadata for %s\n", id)
					return nil
				}

				key := args[1]
				if _, err := stores.Metadata.Load(cmd.Context(), id); err != nil {
					return err
				}
				if !stores.Metadata.HasField(id, key) {
					fmt.Fprintf(out, "No field %s on %s\n", key, id)
					return nil
				}
				if err := stores.Metadata.RemoveMetadataField(cmd.Context(), id, key); err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %s from %s\n", key, id)
				return nil
			})
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every item with metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(cmd, func(stores *config.Stores) error {
				if _, err := stores.Metadata.LoadAll(cmd.Context()); err != nil {
					return err
				}
				snapshot := stores.Metadata.Snapshot()
				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, snapshot)
				}
				if len(snapshot) == 0 {
					fmt.Fprintln(out, "No items with metadata")
					return nil
				}

				ids := make([]string, 0, len(snapshot))
				for id := range snapshot {
					ids = append(ids, id)
				}
				slices.Sort(ids)

				rows := make([][]string, 0, len(ids))
				for _, id := range ids {
					meta := snapshot[id]
					rows = append(rows, []string{
						id,
						strconv.Itoa(len(meta)),
						strings.Join(meta.Keys(), ", "),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Fields", "Keys"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	return cmd
}

func metadataRows(meta filemeta.FileMetadata) [][]string {
	rows := make([][]string, 0, len(meta))
	for _, key := range meta.Keys() {
		entry := meta[key]
		rows = append(rows, []string{key, string(entry.Type), entry.String()})
	}
	return rows
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
