package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pantry/internal/pantry"
	"pantry/models"
)

// NewInventoryCommand creates the inventory command.
func NewInventoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "inventory",
		Short:         "List the user's stock",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInventory(cmd.Context(), rootOpts, cmd)
		},
	}

	return cmd
}

func runInventory(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	if err := opts.requireUser(); err != nil {
		return formatter.Fail(err)
	}

	env, err := open(ctx, opts)
	if err != nil {
		return formatter.Fail(err)
	}

	records, err := env.service.ListInventory(ctx, opts.User)
	if err != nil {
		return formatter.Fail(err)
	}

	return formatter.Success(records, func(w *tabwriter.Writer) {
		if len(records) == 0 {
			fmt.Fprintln(w, "No stock recorded.")
			return
		}
		fmt.Fprintln(w, "INGREDIENT\tQUANTITY\tMINIMUM\tEXPIRES")
		for _, record := range records {
			name, unit := recordIngredient(record)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name,
				quantity(record.Quantity, unit), quantity(record.MinimumThreshold, unit), date(record.ExpirationDate))
		}
	})
}

// RestockOptions holds flags for the restock command.
type RestockOptions struct {
	MinimumThreshold float64
	Expires          string
}

// NewRestockCommand creates the restock command.
func NewRestockCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestockOptions{}

	cmd := &cobra.Command{
		Use:   "restock <ingredient> <quantity>",
		Short: "Add stock of an ingredient in its canonical unit",
		Long: `Add stock of an ingredient, given by name or id, in its canonical unit.

--minimum and --expires replace the stored values when given.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestock(cmd.Context(), rootOpts, opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.MinimumThreshold, "minimum", 0, "minimum threshold before the item lands on the shopping list")
	cmd.Flags().StringVar(&opts.Expires, "expires", "", "expiration date (YYYY-MM-DD)")

	return cmd
}

func runRestock(ctx context.Context, rootOpts *RootOptions, opts *RestockOptions, ref, rawQuantity string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	if err := rootOpts.requireUser(); err != nil {
		return formatter.Fail(err)
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(rawQuantity), 64)
	if err != nil {
		return formatter.Fail(NewExitError(ExitCommandError, fmt.Sprintf("quantity %q is not a number", rawQuantity)))
	}

	var restock pantry.RestockOptions
	if cmd.Flags().Changed("minimum") {
		threshold := opts.MinimumThreshold
		restock.MinimumThreshold = &threshold
	}
	if opts.Expires != "" {
		expires, err := time.Parse(time.DateOnly, opts.Expires)
		if err != nil {
			return formatter.Fail(NewExitError(ExitCommandError, fmt.Sprintf("--expires %q is not a YYYY-MM-DD date", opts.Expires)))
		}
		restock.ExpirationDate = &expires
	}

	env, err := open(ctx, rootOpts)
	if err != nil {
		return formatter.Fail(err)
	}

	ingredient, err := env.catalog.ResolveRef(ctx, ref)
	if err != nil {
		return formatter.Fail(err)
	}

	record, err := env.service.Restock(ctx, rootOpts.User, ingredient.ID, amount, restock)
	if err != nil {
		return formatter.Fail(err)
	}

	return formatter.Success(record, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "%s now at %s\n", ingredient.Name, quantity(record.Quantity, ingredient.Unit))
	})
}

func recordIngredient(record models.InventoryRecord) (string, models.CanonicalUnit) {
	if record.Ingredient == nil {
		return fmt.Sprintf("#%d", record.IngredientID), ""
	}
	return record.Ingredient.Name, record.Ingredient.Unit
}

func quantity(value float64, unit models.CanonicalUnit) string {
	formatted := strconv.FormatFloat(value, 'f', -1, 64)
	if unit == "" {
		return formatted
	}
	return formatted + " " + string(unit)
}

func date(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}
