package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	applog "pantry/internal/log"
	"pantry/internal/pantry"
	"pantry/models"
)

// File is the YAML layout accepted by Import.
type File struct {
	Ingredients []IngredientEntry `yaml:"ingredients"`
	Recipes     []RecipeEntry     `yaml:"recipes"`
	Inventory   []StockEntry      `yaml:"inventory"`
}

// IngredientEntry declares an ingredient and the conversions of its recipe
// units, e.g. {cup: 200}.
type IngredientEntry struct {
	Name        string             `yaml:"name"`
	Category    string             `yaml:"category"`
	Unit        string             `yaml:"unit"`
	Conversions map[string]float64 `yaml:"conversions"`
}

// RecipeEntry is a recipe owned by User.
type RecipeEntry struct {
	User        uint `yaml:"user"`
	RecipeInput `yaml:",inline"`
}

// StockEntry restocks User's inventory. Expires uses YYYY-MM-DD.
type StockEntry struct {
	User             uint     `yaml:"user"`
	Ingredient       string   `yaml:"ingredient"`
	Quantity         float64  `yaml:"quantity"`
	MinimumThreshold *float64 `yaml:"minimum_threshold"`
	Expires          string   `yaml:"expires"`
}

// Summary counts what an import changed.
type Summary struct {
	IngredientsCreated  int `json:"ingredients_created"`
	IngredientsExisting int `json:"ingredients_existing"`
	ConversionsCreated  int `json:"conversions_created"`
	ConversionsExisting int `json:"conversions_existing"`
	RecipesCreated      int `json:"recipes_created"`
	RecipesExisting     int `json:"recipes_existing"`
	Restocks            int `json:"restocks"`
}

// ParseFile decodes a catalog file. Unknown keys are rejected.
func ParseFile(r io.Reader) (File, error) {
	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("parse catalog file: %w", err)
	}
	return file, nil
}

// Import applies file section by section: ingredients with their
// conversions, then recipes, then inventory. Existing ingredients,
// conversions and same-named recipes are left untouched, so re-running an
// import only adds stock.
func (c *Catalog) Import(ctx context.Context, svc *pantry.Service, file File) (Summary, error) {
	var summary Summary

	for i, entry := range file.Ingredients {
		if err := c.importIngredient(ctx, svc, entry, &summary); err != nil {
			return summary, fmt.Errorf("ingredient %d (%s): %w", i+1, entry.Name, err)
		}
	}

	for i, entry := range file.Recipes {
		_, found, err := c.recipeByName(c.db.WithContext(ctx), entry.User, strings.Join(strings.Fields(entry.Name), " "))
		if err != nil {
			return summary, fmt.Errorf("recipe %d (%s): %w", i+1, entry.Name, err)
		}
		if found {
			summary.RecipesExisting++
			continue
		}
		if _, err := c.CreateRecipe(ctx, entry.User, entry.RecipeInput); err != nil {
			return summary, fmt.Errorf("recipe %d (%s): %w", i+1, entry.Name, err)
		}
		summary.RecipesCreated++
	}

	for i, entry := range file.Inventory {
		if err := c.importStock(ctx, svc, entry); err != nil {
			return summary, fmt.Errorf("inventory %d (%s): %w", i+1, entry.Ingredient, err)
		}
		summary.Restocks++
	}

	applog.Info(ctx, "catalog imported",
		"ingredients", summary.IngredientsCreated,
		"conversions", summary.ConversionsCreated,
		"recipes", summary.RecipesCreated,
		"restocks", summary.Restocks,
	)
	return summary, nil
}

func (c *Catalog) importIngredient(ctx context.Context, svc *pantry.Service, entry IngredientEntry, summary *Summary) error {
	ingredient, err := c.CreateIngredient(ctx, IngredientInput{
		Name:     entry.Name,
		Category: models.Category(entry.Category),
		Unit:     entry.Unit,
	})
	switch {
	case err == nil:
		summary.IngredientsCreated++
	case pantry.KindOf(err) == pantry.KindConflict:
		ingredient, err = c.ResolveRef(ctx, entry.Name)
		if err != nil {
			return err
		}
		summary.IngredientsExisting++
	default:
		return err
	}

	units := make([]string, 0, len(entry.Conversions))
	for unit := range entry.Conversions {
		units = append(units, unit)
	}
	sort.Strings(units)

	for _, unit := range units {
		_, err := svc.RegisterConversion(ctx, ingredient.ID, unit, entry.Conversions[unit])
		switch {
		case err == nil:
			summary.ConversionsCreated++
		case pantry.KindOf(err) == pantry.KindConversionExists:
			summary.ConversionsExisting++
		default:
			return fmt.Errorf("conversion %q: %w", unit, err)
		}
	}
	return nil
}

func (c *Catalog) importStock(ctx context.Context, svc *pantry.Service, entry StockEntry) error {
	if entry.User == 0 {
		return catalogError(pantry.KindInvalidArgument, "import inventory", "user is required")
	}
	ingredient, err := c.ResolveRef(ctx, entry.Ingredient)
	if err != nil {
		return err
	}

	opts := pantry.RestockOptions{MinimumThreshold: entry.MinimumThreshold}
	if expires := strings.TrimSpace(entry.Expires); expires != "" {
		date, err := time.Parse(time.DateOnly, expires)
		if err != nil {
			return catalogError(pantry.KindInvalidArgument, "import inventory", "expires %q is not a YYYY-MM-DD date", expires)
		}
		opts.ExpirationDate = &date
	}

	_, err = svc.Restock(ctx, entry.User, ingredient.ID, entry.Quantity, opts)
	return err
}
