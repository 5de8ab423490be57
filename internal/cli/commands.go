package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mmynk/roster/internal/controller"
)

// withApp opens the configured store for the length of fn.
func withApp(opts *RootOptions, cmd *cobra.Command, fn func(a *app) error) error {
	a, err := openApp(opts.Config, cmd.OutOrStdout(), controller.Inline{})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// parseRow turns a 1-based row argument into a list index.
func parseRow(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid row %q: must be a positive number", arg)
	}
	return n - 1, nil
}

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List people sorted by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(a *app) error {
				a.list.Load(cmd.Context())
				return nil
			})
		},
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a person (age 20, gender Male)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(a *app) error {
				a.list.Add(cmd.Context(), args[0])
				return nil
			})
		},
	}
}

// NewEditCommand creates the edit command.
func NewEditCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <row> <name>",
		Short: "Rename the person at a row of the sorted list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseRow(args[0])
			if err != nil {
				return err
			}
			return withApp(opts, cmd, func(a *app) error {
				a.list.Load(cmd.Context())
				if err := a.list.EditAt(cmd.Context(), row, args[1]); err != nil {
					return fmt.Errorf("row %s: %w", args[0], err)
				}
				return nil
			})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <row>",
		Short: "Delete the person at a row of the sorted list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseRow(args[0])
			if err != nil {
				return err
			}
			return withApp(opts, cmd, func(a *app) error {
				a.list.Load(cmd.Context())
				if err := a.list.DeleteAt(cmd.Context(), row); err != nil {
					return fmt.Errorf("row %s: %w", args[0], err)
				}
				return nil
			})
		},
	}
}

// NewFamilyDemoCommand creates the family-demo command.
func NewFamilyDemoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "family-demo",
		Short: `Create "Abc Family" with "Maggie" as a member`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(a *app) error {
				a.list.RelationshipDemo(cmd.Context())
				return nil
			})
		},
	}
}

// NewFamiliesCommand creates the families command.
func NewFamiliesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "families",
		Short: "List families and their members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(a *app) error {
				families, err := a.records.FetchFamilies(cmd.Context())
				if err != nil {
					return err
				}
				writeFamilies(cmd.OutOrStdout(), families)
				return nil
			})
		},
	}
}
