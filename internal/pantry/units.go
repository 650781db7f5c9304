package pantry

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"pantry/models"
)

var canonicalSynonyms = map[string]models.CanonicalUnit{
	"g":           models.UnitGrams,
	"gr":          models.UnitGrams,
	"gram":        models.UnitGrams,
	"grams":       models.UnitGrams,
	"ml":          models.UnitMillilitres,
	"millilitre":  models.UnitMillilitres,
	"millilitres": models.UnitMillilitres,
	"milliliter":  models.UnitMillilitres,
	"milliliters": models.UnitMillilitres,
	"pc":          models.UnitPieces,
	"pcs":         models.UnitPieces,
	"piece":       models.UnitPieces,
	"pieces":      models.UnitPieces,
}

// NormalizeUnit folds a measurement unit as written in a recipe into the key
// used for conversion lookups: NFKC, case-folded, inner whitespace collapsed.
func NormalizeUnit(unit string) string {
	folded := cases.Fold().String(norm.NFKC.String(unit))
	return strings.Join(strings.Fields(folded), " ")
}

// CanonicalUnitOf returns the canonical unit a measurement unit is a synonym
// of, if any.
func CanonicalUnitOf(unit string) (models.CanonicalUnit, bool) {
	canonical, ok := canonicalSynonyms[NormalizeUnit(unit)]
	return canonical, ok
}

// isCanonicalFor reports whether unit is (a synonym of) the ingredient's
// canonical unit.
func isCanonicalFor(ingredient models.Ingredient, unit string) bool {
	canonical, ok := CanonicalUnitOf(unit)
	return ok && canonical == ingredient.Unit
}
