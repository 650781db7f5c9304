package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pantry/internal/pantry"
)

// NewCookableCommand creates the cookable command.
func NewCookableCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cookable",
		Short:         "List recipes the user can cook at their baseline servings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCookable(cmd.Context(), rootOpts, cmd)
		},
	}

	return cmd
}

func runCookable(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	if err := opts.requireUser(); err != nil {
		return formatter.Fail(err)
	}

	env, err := open(ctx, opts)
	if err != nil {
		return formatter.Fail(err)
	}

	report, err := env.service.CookableRecipes(ctx, opts.User)
	if err != nil {
		return formatter.Fail(err)
	}

	return formatter.Success(report, func(w *tabwriter.Writer) {
		if len(report.Recipes) == 0 {
			fmt.Fprintln(w, "Nothing can be cooked with the current stock.")
		}
		for _, recipe := range report.Recipes {
			fmt.Fprintf(w, "%s\t%d serving(s)\n", recipe.Name, recipe.Servings)
		}
		for _, failure := range report.Misconfigured {
			fmt.Fprintf(w, "! %s\t%s\n", failure.Recipe, failure.Error)
		}
	})
}

// ServingsOptions holds the servings flag shared by missing and cook.
type ServingsOptions struct {
	Servings int
}

// NewMissingCommand creates the missing command.
func NewMissingCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServingsOptions{}

	cmd := &cobra.Command{
		Use:           "missing <recipe>",
		Short:         "Show what the user lacks to cook a recipe",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMissing(cmd.Context(), rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Servings, "servings", "s", 0, "servings to check (default: the recipe's own)")

	return cmd
}

func runMissing(ctx context.Context, rootOpts *RootOptions, opts *ServingsOptions, ref string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	if err := rootOpts.requireUser(); err != nil {
		return formatter.Fail(err)
	}

	env, err := open(ctx, rootOpts)
	if err != nil {
		return formatter.Fail(err)
	}

	recipe, err := env.catalog.ResolveRecipe(ctx, rootOpts.User, ref)
	if err != nil {
		return formatter.Fail(err)
	}

	missing, err := env.service.MissingIngredients(ctx, rootOpts.User, recipe.ID, opts.Servings)
	if err != nil {
		return formatter.Fail(err)
	}

	return formatter.Success(missing, func(w *tabwriter.Writer) {
		if len(missing) == 0 {
			fmt.Fprintf(w, "%s can be cooked.\n", recipe.Name)
			return
		}
		fmt.Fprintln(w, "INGREDIENT\tREQUIRED\tAVAILABLE\tSHORT")
		for _, s := range missing {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Ingredient,
				quantity(s.Required, s.Unit), quantity(s.Available, s.Unit), quantity(s.Shortfall, s.Unit))
		}
	})
}

// CookOptions holds flags for the cook command.
type CookOptions struct {
	ServingsOptions
	Overrides []string
}

// NewCookCommand creates the cook command.
func NewCookCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CookOptions{}

	cmd := &cobra.Command{
		Use:   "cook <recipe>",
		Short: "Cook a recipe and deduct its ingredients",
		Long: `Cook a recipe, given by name or id, and deduct every ingredient at once.

Nothing is deducted when any ingredient is short. --override replaces the
computed amount of one ingredient, in its canonical unit, e.g.
--override "soy sauce=15".`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCook(cmd.Context(), rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Servings, "servings", "s", 0, "servings to cook (default: the recipe's own)")
	cmd.Flags().StringArrayVar(&opts.Overrides, "override", nil, "ingredient=quantity in the canonical unit (repeatable)")

	return cmd
}

func runCook(ctx context.Context, rootOpts *RootOptions, opts *CookOptions, ref string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	if err := rootOpts.requireUser(); err != nil {
		return formatter.Fail(err)
	}

	env, err := open(ctx, rootOpts)
	if err != nil {
		return formatter.Fail(err)
	}

	recipe, err := env.catalog.ResolveRecipe(ctx, rootOpts.User, ref)
	if err != nil {
		return formatter.Fail(err)
	}

	overrides := make(map[uint]float64, len(opts.Overrides))
	for _, raw := range opts.Overrides {
		name, value, ok := strings.Cut(raw, "=")
		if !ok {
			return formatter.Fail(NewExitError(ExitCommandError, fmt.Sprintf("override %q must look like ingredient=quantity", raw)))
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return formatter.Fail(NewExitError(ExitCommandError, fmt.Sprintf("override %q: quantity is not a number", raw)))
		}
		ingredient, err := env.catalog.ResolveRef(ctx, name)
		if err != nil {
			return formatter.Fail(err)
		}
		overrides[ingredient.ID] = amount
	}
	formatter.VerboseLog("Cooking %s (%d override(s))", recipe.Name, len(overrides))

	result, err := env.service.Cook(ctx, pantry.CookRequest{
		UserID:    rootOpts.User,
		RecipeID:  recipe.ID,
		Servings:  opts.Servings,
		Overrides: overrides,
	})
	if err != nil {
		return formatter.Fail(err)
	}

	return formatter.Success(result, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Cooked %s (%d serving(s))\n", result.Recipe, result.Servings)
		for _, d := range result.Deductions {
			note := ""
			if d.Clamped {
				note = "\t(clamped)"
			}
			fmt.Fprintf(w, "  %s\t-%s\tleft %s%s\n", d.Ingredient,
				quantity(d.Deducted, d.Unit), quantity(d.NewQuantity, d.Unit), note)
		}
	})
}
