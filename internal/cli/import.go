package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pantry/internal/catalog"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a catalog file",
		Long: `Import ingredients, conversions, recipes and stock.

YAML files may carry every section. CSV files (.csv) carry ingredients only,
with the columns name, category, unit and conversions ("cup=200; tbsp=12").
Existing ingredients, conversions and recipes are kept; stock is added.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runImport(ctx context.Context, opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	file, err := loadCatalogFile(path)
	if err != nil {
		return formatter.Fail(WrapExitError(ExitCommandError, "read "+path, err))
	}
	formatter.VerboseLog("Parsed %s: %d ingredient(s), %d recipe(s), %d stock entr(ies)",
		path, len(file.Ingredients), len(file.Recipes), len(file.Inventory))

	env, err := open(ctx, opts)
	if err != nil {
		return formatter.Fail(err)
	}

	summary, err := env.catalog.Import(ctx, env.service, file)
	if err != nil {
		return formatter.Fail(err)
	}

	return formatter.Success(summary, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "\tcreated\texisting")
		fmt.Fprintf(w, "ingredients\t%d\t%d\n", summary.IngredientsCreated, summary.IngredientsExisting)
		fmt.Fprintf(w, "conversions\t%d\t%d\n", summary.ConversionsCreated, summary.ConversionsExisting)
		fmt.Fprintf(w, "recipes\t%d\t%d\n", summary.RecipesCreated, summary.RecipesExisting)
		fmt.Fprintf(w, "restocks\t%d\t\n", summary.Restocks)
	})
}

func loadCatalogFile(path string) (catalog.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return catalog.File{}, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return catalog.ParseIngredientsCSV(f)
	}
	return catalog.ParseFile(f)
}
