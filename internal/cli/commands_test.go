package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry/internal/catalog"
	"pantry/internal/pantry"
	"pantry/models"
)

const kitchen = `
ingredients:
  - name: Rice
    category: staple
    unit: grams
    conversions:
      cup: 200
  - name: Eggs
    category: protein
    unit: pieces
recipes:
  - user: 1
    name: Rice Bowl
    servings: 1
    ingredients:
      - name: rice
        quantity: 1
        unit: cup
      - name: eggs
        quantity: 1
        unit: pc
inventory:
  - user: 1
    ingredient: rice
    quantity: 300
    minimum_threshold: 250
  - user: 1
    ingredient: eggs
    quantity: 2
`

func importKitchen(t *testing.T) {
	t.Helper()

	stdout, _, err := execute("import", writeFile(t, "kitchen.yaml", kitchen), "--format", "json")
	require.NoError(t, err)
	summary := decodeData[catalog.Summary](t, stdout)
	assert.Equal(t, catalog.Summary{IngredientsCreated: 2, ConversionsCreated: 1, RecipesCreated: 1, Restocks: 2}, summary)
}

func TestImportThenCook(t *testing.T) {
	withDatabase(t)
	importKitchen(t)

	stdout, _, err := execute("cookable", "-u", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Rice Bowl")

	stdout, _, err = execute("cook", "Rice Bowl", "-u", "1", "--format", "json")
	require.NoError(t, err)
	result := decodeData[pantry.CookResult](t, stdout)
	require.Len(t, result.Deductions, 2)
	assert.Equal(t, "Eggs", result.Deductions[0].Ingredient)
	assert.Equal(t, 1.0, result.Deductions[0].NewQuantity)
	assert.Equal(t, 100.0, result.Deductions[1].NewQuantity)

	stdout, _, err = execute("shopping-list", "-u", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Rice")
	assert.Contains(t, stdout, "low")

	_, stderr, err := execute("cook", "Rice Bowl", "-u", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "insufficient_stock")
	assert.Contains(t, stderr, "Rice: need 200 grams, have 100 grams (short 100 grams)")

	stdout, _, err = execute("inventory", "-u", "1", "--format", "json")
	require.NoError(t, err)
	records := decodeData[[]models.InventoryRecord](t, stdout)
	require.Len(t, records, 2)
	assert.Equal(t, 1.0, records[0].Quantity, "failed cook leaves stock untouched")
	assert.Equal(t, 100.0, records[1].Quantity)
}

func TestCookWithOverrides(t *testing.T) {
	withDatabase(t)
	importKitchen(t)

	stdout, _, err := execute("cook", "Rice Bowl", "-u", "1", "--override", "rice=50", "--format", "json")
	require.NoError(t, err)
	result := decodeData[pantry.CookResult](t, stdout)
	assert.Equal(t, 50.0, result.Deductions[1].Deducted)

	_, _, err = execute("cook", "Rice Bowl", "-u", "1", "--override", "rice")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, stderr, err := execute("cook", "Rice Bowl", "-u", "1", "--override", "saffron=1")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "not_found")
}

func TestMissingReportsShortfalls(t *testing.T) {
	withDatabase(t)
	importKitchen(t)

	stdout, _, err := execute("missing", "Rice Bowl", "-u", "1", "--servings", "3", "--format", "json")
	require.NoError(t, err)
	missing := decodeData[[]pantry.Shortfall](t, stdout)
	require.Len(t, missing, 2)
	assert.Equal(t, 1.0, missing[0].Shortfall)
	assert.Equal(t, 300.0, missing[1].Shortfall)

	stdout, _, err = execute("missing", "Rice Bowl", "-u", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Rice Bowl can be cooked.")
}

func TestRestockAndExpiring(t *testing.T) {
	withDatabase(t)
	importKitchen(t)

	expires := time.Now().UTC().AddDate(0, 0, 1).Format(time.DateOnly)
	stdout, _, err := execute("restock", "eggs", "10", "-u", "1", "--minimum", "4", "--expires", expires)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Eggs now at 12 pieces")

	stdout, _, err = execute("expiring", "-u", "1", "--format", "json")
	require.NoError(t, err)
	items := decodeData[[]pantry.ExpiringItem](t, stdout)
	require.Len(t, items, 1)
	assert.Equal(t, "Eggs", items[0].Ingredient)
	assert.Equal(t, 1, items[0].DaysLeft)

	_, _, err = execute("restock", "eggs", "many", "-u", "1")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute("restock", "eggs", "1", "-u", "1", "--expires", "tomorrow")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, stderr, err := execute("restock", "-u", "1", "--", "eggs", "-1")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "invalid_argument")

	_, _, err = execute("expiring", "-u", "1", "--days=-2")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestImportCSV(t *testing.T) {
	withDatabase(t)

	path := writeFile(t, "ingredients.csv", "name,category,unit,conversions\nFlour,staple,g,cup=120\nButter,dairy,g,tbsp=14\n")
	stdout, _, err := execute("import", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(stdout), "created"), stdout)
	assert.Contains(t, stdout, "ingredients  2")

	_, _, err = execute("import", writeFile(t, "broken.yaml", "ingredients: [name: x"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
