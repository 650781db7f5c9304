package pantry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry/models"
)

func TestRequirementsScaleWithServings(t *testing.T) {
	t.Parallel()

	database := newTestDB(t)
	requirements := NewRequirementResolver(database, NewResolver(database))
	createIngredient(t, database, "Rice", models.UnitGrams)
	recipe := createRecipe(t, database, 1, "Pilaf", 2, row("rice", 100, "g"))

	got, err := requirements.Resolve(context.Background(), recipe, 4)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Rice", got[0].Ingredient)
	assert.Equal(t, models.UnitGrams, got[0].Unit)
	assert.InDelta(t, 200.0, got[0].Quantity, 1e-9)
}

func TestRequirementsAggregateAndSortByName(t *testing.T) {
	t.Parallel()

	database := newTestDB(t)
	requirements := NewRequirementResolver(database, NewResolver(database))
	rice := createIngredient(t, database, "Rice", models.UnitGrams)
	createIngredient(t, database, "Egg", models.UnitPieces)
	addRule(t, database, 0, rice.ID, "cup", 200)

	recipe := createRecipe(t, database, 1, "Fried Rice", 2,
		row("Rice", 1, "cup"),
		row("RICE", 50, "grams"),
		row("egg", 2, "pcs"),
	)

	got, err := requirements.Resolve(context.Background(), recipe, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Egg", got[0].Ingredient)
	assert.InDelta(t, 1.0, got[0].Quantity, 1e-9)
	assert.Equal(t, "Rice", got[1].Ingredient)
	assert.InDelta(t, 125.0, got[1].Quantity, 1e-9)
}

func TestRequirementsUseRecipeOwnerScope(t *testing.T) {
	t.Parallel()

	database := newTestDB(t)
	requirements := NewRequirementResolver(database, NewResolver(database))
	flour := createIngredient(t, database, "Flour", models.UnitGrams)
	addRule(t, database, 0, flour.ID, "cup", 125)
	addRule(t, database, 5, flour.ID, "cup", 150)

	mine := createRecipe(t, database, 5, "Bread", 1, row("Flour", 2, "cup"))
	theirs := createRecipe(t, database, 6, "Bread", 1, row("Flour", 2, "cup"))

	got, err := requirements.Resolve(context.Background(), mine, 1)
	require.NoError(t, err)
	assert.InDelta(t, 300.0, got[0].Quantity, 1e-9)

	got, err = requirements.Resolve(context.Background(), theirs, 1)
	require.NoError(t, err)
	assert.InDelta(t, 250.0, got[0].Quantity, 1e-9)
}

func TestRequirementsErrors(t *testing.T) {
	t.Parallel()

	database := newTestDB(t)
	requirements := NewRequirementResolver(database, NewResolver(database))
	createIngredient(t, database, "Flour", models.UnitGrams)

	tests := []struct {
		name     string
		recipe   models.Recipe
		servings int
		want     Kind
	}{
		{
			name:     "dangling ingredient",
			recipe:   createRecipe(t, database, 1, "Mystery", 1, row("Saffron", 1, "g")),
			servings: 1,
			want:     KindUnknownIngredient,
		},
		{
			name:     "missing conversion",
			recipe:   createRecipe(t, database, 1, "Cake", 1, row("Flour", 1, "cup")),
			servings: 1,
			want:     KindUnknownConversion,
		},
		{
			name:     "zero baseline",
			recipe:   createRecipe(t, database, 1, "Broken", 0, row("Flour", 1, "g")),
			servings: 1,
			want:     KindInvalidArgument,
		},
		{
			name:     "zero servings requested",
			recipe:   createRecipe(t, database, 1, "Bread", 1, row("Flour", 1, "g")),
			servings: 0,
			want:     KindInvalidArgument,
		},
	}

	for _, tt := range tests {
		_, err := requirements.Resolve(context.Background(), tt.recipe, tt.servings)
		requireKind(t, err, tt.want)
	}
}
