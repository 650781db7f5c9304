package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewShoppingListCommand creates the shopping-list command.
func NewShoppingListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "shopping-list",
		Short:         "List items below their minimum or past their expiration date",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShoppingList(cmd.Context(), rootOpts, cmd)
		},
	}

	return cmd
}

func runShoppingList(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	if err := opts.requireUser(); err != nil {
		return formatter.Fail(err)
	}

	env, err := open(ctx, opts)
	if err != nil {
		return formatter.Fail(err)
	}

	list, err := env.service.ShoppingList(ctx, opts.User)
	if err != nil {
		return formatter.Fail(err)
	}

	return formatter.Success(list, func(w *tabwriter.Writer) {
		if len(list) == 0 {
			fmt.Fprintln(w, "Nothing to buy.")
			return
		}
		fmt.Fprintln(w, "INGREDIENT\tQUANTITY\tMINIMUM\tREASON")
		for _, item := range list {
			var reasons []string
			if item.Expired {
				reasons = append(reasons, "expired")
			}
			if item.BelowThreshold {
				reasons = append(reasons, "low")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.Ingredient,
				quantity(item.Quantity, item.Unit), quantity(item.MinimumThreshold, item.Unit), strings.Join(reasons, ", "))
		}
	})
}

// ExpiringOptions holds flags for the expiring command.
type ExpiringOptions struct {
	Days int
}

// NewExpiringCommand creates the expiring command.
func NewExpiringCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpiringOptions{}

	cmd := &cobra.Command{
		Use:           "expiring",
		Short:         "List items expiring within the next days",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpiring(cmd.Context(), rootOpts, opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Days, "days", "d", 3, "window in days, today included")

	return cmd
}

func runExpiring(ctx context.Context, rootOpts *RootOptions, opts *ExpiringOptions, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	if err := rootOpts.requireUser(); err != nil {
		return formatter.Fail(err)
	}

	env, err := open(ctx, rootOpts)
	if err != nil {
		return formatter.Fail(err)
	}

	items, err := env.service.ExpiringIngredients(ctx, rootOpts.User, opts.Days)
	if err != nil {
		return formatter.Fail(err)
	}

	return formatter.Success(items, func(w *tabwriter.Writer) {
		if len(items) == 0 {
			fmt.Fprintf(w, "Nothing expires within %d day(s).\n", opts.Days)
			return
		}
		fmt.Fprintln(w, "INGREDIENT\tQUANTITY\tEXPIRES\tDAYS LEFT")
		for _, item := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", item.Ingredient,
				quantity(item.Quantity, item.Unit), item.ExpirationDate.Format(time.DateOnly), item.DaysLeft)
		}
	})
}
