package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tandoor/internal/apperr"
	"github.com/example/tandoor/internal/models"
)

func option(name string, modifier int64) models.VariantOption {
	return models.VariantOption{
		BaseModel:     models.BaseModel{ID: uuid.New()},
		Name:          name,
		PriceModifier: modifier,
	}
}

func variant(name string, mode models.SelectionMode, required bool, options ...models.VariantOption) models.Variant {
	return models.Variant{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Name:      name,
		Mode:      mode,
		Required:  required,
		Options:   options,
	}
}

func TestResolveSelectionsSingle(t *testing.T) {
	half := option("Half", 0)
	full := option("Full", 8000)
	portion := variant("Portion", models.SelectionSingle, true, half, full)

	selections, err := ResolveSelections([]models.Variant{portion}, []SelectionInput{
		{VariantID: portion.ID, OptionID: &full.ID},
	})
	require.NoError(t, err)
	require.Len(t, selections, 1)

	assert.Equal(t, "Portion", selections[0].VariantName)
	assert.Equal(t, "Full", selections[0].OptionName)
	assert.Equal(t, int64(8000), selections[0].PriceModifier)

	unit, err := UnitPrice(45000, selections)
	require.NoError(t, err)
	assert.Equal(t, int64(53000), unit)
}

func TestResolveSelectionsMultiple(t *testing.T) {
	raita := option("Extra Raita", 5000)
	naan := option("Extra Naan", 3000)
	extras := variant("Extras", models.SelectionMultiple, false, raita, naan)

	selections, err := ResolveSelections([]models.Variant{extras}, []SelectionInput{
		{VariantID: extras.ID, OptionIDs: []uuid.UUID{raita.ID, naan.ID}},
	})
	require.NoError(t, err)
	require.Len(t, selections, 1)
	require.Len(t, selections[0].Options, 2)

	unit, err := UnitPrice(45000, selections)
	require.NoError(t, err)
	assert.Equal(t, int64(53000), unit)
}

func TestResolveSelectionsOmittedOptionalContributesNothing(t *testing.T) {
	extras := variant("Extras", models.SelectionMultiple, false, option("Cheese", 4000))

	selections, err := ResolveSelections([]models.Variant{extras}, nil)
	require.NoError(t, err)
	assert.Empty(t, selections)

	unit, err := UnitPrice(30000, selections)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), unit)
}

func TestResolveSelectionsRequiredMissing(t *testing.T) {
	portion := variant("Portion", models.SelectionSingle, true, option("Half", 0))

	_, err := ResolveSelections([]models.Variant{portion}, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "Portion")
}

func TestResolveSelectionsSingleWithoutOption(t *testing.T) {
	portion := variant("Portion", models.SelectionSingle, true, option("Half", 0))

	_, err := ResolveSelections([]models.Variant{portion}, []SelectionInput{
		{VariantID: portion.ID},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestResolveSelectionsUnknownOption(t *testing.T) {
	portion := variant("Portion", models.SelectionSingle, true, option("Half", 0))
	stranger := uuid.New()

	_, err := ResolveSelections([]models.Variant{portion}, []SelectionInput{
		{VariantID: portion.ID, OptionID: &stranger},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestResolveSelectionsUnknownVariant(t *testing.T) {
	portion := variant("Portion", models.SelectionSingle, false, option("Half", 0))
	half := portion.Options[0]

	_, err := ResolveSelections([]models.Variant{portion}, []SelectionInput{
		{VariantID: uuid.New(), OptionID: &half.ID},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestResolveSelectionsDuplicateOption(t *testing.T) {
	cheese := option("Cheese", 4000)
	extras := variant("Extras", models.SelectionMultiple, false, cheese)

	_, err := ResolveSelections([]models.Variant{extras}, []SelectionInput{
		{VariantID: extras.ID, OptionIDs: []uuid.UUID{cheese.ID, cheese.ID}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "twice")
}

func TestResolveSelectionsUnknownMode(t *testing.T) {
	weird := variant("Weird", models.SelectionMode("range"), false, option("A", 0))

	_, err := ResolveSelections([]models.Variant{weird}, []SelectionInput{
		{VariantID: weird.ID},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestResolveSelectionsAllModeRequiredEmpty(t *testing.T) {
	all := variant("Toppings", models.SelectionAll, true, option("Onion", 0))

	_, err := ResolveSelections([]models.Variant{all}, []SelectionInput{
		{VariantID: all.ID},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "Toppings")
}

func TestResolveSelectionsAllModeOptionalEmpty(t *testing.T) {
	all := variant("Toppings", models.SelectionAll, false, option("Onion", 0))

	selections, err := ResolveSelections([]models.Variant{all}, []SelectionInput{
		{VariantID: all.ID},
	})
	require.NoError(t, err)
	require.Len(t, selections, 1)
	assert.Empty(t, selections[0].Options)
}

func TestUnitPriceNegativeModifier(t *testing.T) {
	selections := []models.VariantSelection{
		{Mode: models.SelectionSingle, PriceModifier: -2000},
	}

	unit, err := UnitPrice(10000, selections)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), unit)
}

func TestUnitPriceNegativeResult(t *testing.T) {
	selections := []models.VariantSelection{
		{Mode: models.SelectionSingle, PriceModifier: -20000},
	}

	_, err := UnitPrice(10000, selections)
	require.Error(t, err)
	assert.Equal(t, apperr.KindArithmetic, apperr.KindOf(err))
}

func TestLineTotal(t *testing.T) {
	total, err := lineTotal(53000, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(159000), total)

	_, err = lineTotal(53000, 0)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = lineTotal(1<<62, 4)
	require.Error(t, err)
	assert.Equal(t, apperr.KindArithmetic, apperr.KindOf(err))
}
