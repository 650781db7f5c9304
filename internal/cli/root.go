package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"pantry/internal/catalog"
	"pantry/internal/config"
	"pantry/internal/db"
	applog "pantry/internal/log"
	"pantry/internal/pantry"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string
	User     uint
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// openDatabase connects to url, or to the configured database when url is
// empty.
var openDatabase = func(ctx context.Context, url string) (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(url) != "" {
		cfg.Database.URL = url
		cfg.Database.Driver = ""
	}
	applog.Debug(ctx, "opening database", "url_set", cfg.Database.URL != "")
	return db.Configure(cfg.Database)
}

// NewRootCommand creates the root command for the pantryctl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pantryctl",
		Short: "Pantry ledger administration",
		Long:  "Inspect and update the pantry ledger: import catalogs, restock, check recipes and cook.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Verbose {
				return applog.SetLevel("debug")
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "database", "", "database URL (defaults to DATABASE_URL)")
	cmd.PersistentFlags().UintVarP(&opts.User, "user", "u", 0, "user id owning the inventory")

	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewInventoryCommand(opts))
	cmd.AddCommand(NewRestockCommand(opts))
	cmd.AddCommand(NewCookableCommand(opts))
	cmd.AddCommand(NewMissingCommand(opts))
	cmd.AddCommand(NewCookCommand(opts))
	cmd.AddCommand(NewShoppingListCommand(opts))
	cmd.AddCommand(NewExpiringCommand(opts))

	return cmd
}

type environment struct {
	service *pantry.Service
	catalog *catalog.Catalog
}

func open(ctx context.Context, opts *RootOptions) (*environment, error) {
	database, err := openDatabase(ctx, opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	return &environment{
		service: pantry.NewService(database, pantry.Options{
			ClampOverdraw:           cfg.Ledger.ClampOverdraw,
			DefaultMinimumThreshold: cfg.Ledger.DefaultMinimumThreshold,
		}),
		catalog: catalog.New(database),
	}, nil
}

func (o *RootOptions) requireUser() error {
	if o.User == 0 {
		return NewExitError(ExitCommandError, "--user is required")
	}
	return nil
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
