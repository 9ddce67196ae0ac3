package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittometa/pkg/config"
)

func newAliasCommand(ctx *commandContext) *cobra.Command {
	aliasCmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage aliases grouping items",
	}

	aliasCmd.AddCommand(newAliasListCommand(ctx))
	aliasCmd.AddCommand(newAliasAddCommand(ctx))
	aliasCmd.AddCommand(newAliasRemoveCommand(ctx))
	aliasCmd.AddCommand(newAliasTagCommand(ctx))
	aliasCmd.AddCommand(newAliasUntagCommand(ctx))

	return aliasCmd
}

func newAliasListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [query]",
		Short: "List aliases, optionally filtered by a case-insensitive substring",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query string
			if len(args) == 1 {
				query = args[0]
			}
			return ctx.withStores(cmd, func(stores *config.Stores) error {
				out := cmd.OutOrStdout()
				names := stores.Aliases.Search(query)
				if len(names) == 0 {
					fmt.Fprintln(out, "No aliases")
					return nil
				}

				rows := make([][]string, 0, len(names))
				for _, name := range names {
					items := stores.Aliases.Items(name)
					rows = append(rows, []string{name, strconv.Itoa(len(items)), strings.Join(items, ", ")})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Alias", "Items", "IDs"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newAliasAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create an alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(cmd, func(stores *config.Stores) error {
				if err := stores.Aliases.AddAlias(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created alias %s\n", strings.TrimSpace(args[0]))
				return nil
			})
		},
	}
}

func newAliasRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete an alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(cmd, func(stores *config.Stores) error {
				if err := stores.Aliases.RemoveAlias(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted alias %s\n", args[0])
				return nil
			})
		},
	}
}

func newAliasTagCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <alias> <id>...",
		Short: "Add items to an alias",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			alias, ids := args[0], args[1:]
			return ctx.withStores(cmd, func(stores *config.Stores) error {
				for _, id := range ids {
					if err := stores.Aliases.AddItem(cmd.Context(), alias, id); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tagged %d item(s) with %s\n", len(ids), strings.TrimSpace(alias))
				return nil
			})
		},
	}
}

func newAliasUntagCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "untag <alias> <id>...",
		Short: "Remove items from an alias",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			alias, ids := args[0], args[1:]
			return ctx.withStores(cmd, func(stores *config.Stores) error {
				for _, id := range ids {
					if err := stores.Aliases.RemoveItem(cmd.Context(), alias, id); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Untagged %d item(s) from %s\n", len(ids), alias)
				return nil
			})
		},
	}
}
