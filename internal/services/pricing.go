package services

import (
	"github.com/google/uuid"

	"github.com/example/tandoor/internal/apperr"
	"github.com/example/tandoor/internal/models"
)

// SelectionInput is the client's choice for one variant. Single-select
// variants use OptionID; multiple/"all" variants use OptionIDs.
type SelectionInput struct {
	VariantID uuid.UUID   `json:"variant_id"`
	OptionID  *uuid.UUID  `json:"option_id,omitempty"`
	OptionIDs []uuid.UUID `json:"option_ids,omitempty"`
}

// ResolveSelections validates the client's choices against the catalog
// variants attached to an item or deal and snapshots names and price
// modifiers from the catalog. Client-supplied prices are never trusted.
// A validation failure names the offending variant and nothing is
// partially resolved.
func ResolveSelections(variants []models.Variant, inputs []SelectionInput) ([]models.VariantSelection, error) {
	byVariant := make(map[uuid.UUID]SelectionInput, len(inputs))
	for _, in := range inputs {
		byVariant[in.VariantID] = in
	}

	known := make(map[uuid.UUID]bool, len(variants))
	out := make([]models.VariantSelection, 0, len(inputs))

	for _, v := range variants {
		known[v.ID] = true
		in, ok := byVariant[v.ID]
		if !ok {
			if v.Required {
				return nil, apperr.Validation("variant %q requires a selection", v.Name)
			}
			continue
		}

		sel := models.VariantSelection{
			VariantID:   v.ID,
			VariantName: v.Name,
			Mode:        v.Mode,
		}

		switch v.Mode {
		case models.SelectionSingle:
			if in.OptionID == nil {
				return nil, apperr.Validation("variant %q: an option must be selected", v.Name)
			}
			opt, err := findOption(v, *in.OptionID)
			if err != nil {
				return nil, err
			}
			sel.OptionID = &opt.ID
			sel.OptionName = opt.Name
			sel.PriceModifier = opt.PriceModifier

		case models.SelectionMultiple:
			if len(in.OptionIDs) == 0 {
				return nil, apperr.Validation("variant %q: at least one option must be selected", v.Name)
			}
			opts, err := findOptions(v, in.OptionIDs)
			if err != nil {
				return nil, err
			}
			sel.Options = opts

		case models.SelectionAll:
			if v.Required && len(in.OptionIDs) == 0 {
				return nil, apperr.Validation("variant %q: at least one option must be selected", v.Name)
			}
			opts, err := findOptions(v, in.OptionIDs)
			if err != nil {
				return nil, err
			}
			sel.Options = opts

		default:
			return nil, apperr.Validation("variant %q has unknown selection mode %q", v.Name, v.Mode)
		}

		out = append(out, sel)
	}

	for _, in := range inputs {
		if !known[in.VariantID] {
			return nil, apperr.Validation("selection references a variant not attached to this item")
		}
	}

	return out, nil
}

// UnitPrice computes a line's unit price: catalog base price plus the sum
// of the chosen option modifiers across all selections. Selections absent
// from the input contribute zero.
func UnitPrice(basePrice int64, selections []models.VariantSelection) (int64, error) {
	price := basePrice
	for _, sel := range selections {
		mod, err := selectionModifier(sel)
		if err != nil {
			return 0, err
		}
		price += mod
	}
	if price < 0 {
		return 0, apperr.Arithmetic("invalid price calculation")
	}
	return price, nil
}

func selectionModifier(sel models.VariantSelection) (int64, error) {
	switch sel.Mode {
	case models.SelectionSingle:
		return sel.PriceModifier, nil
	case models.SelectionMultiple, models.SelectionAll:
		var sum int64
		for _, opt := range sel.Options {
			sum += opt.PriceModifier
		}
		return sum, nil
	default:
		return 0, apperr.Validation("variant %q has unknown selection mode %q", sel.VariantName, sel.Mode)
	}
}

func findOption(v models.Variant, id uuid.UUID) (*models.VariantOption, error) {
	for i := range v.Options {
		if v.Options[i].ID == id {
			return &v.Options[i], nil
		}
	}
	return nil, apperr.Validation("variant %q: unknown option selected", v.Name)
}

func findOptions(v models.Variant, ids []uuid.UUID) ([]models.SelectedOption, error) {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]models.SelectedOption, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, apperr.Validation("variant %q: option selected twice", v.Name)
		}
		seen[id] = true
		opt, err := findOption(v, id)
		if err != nil {
			return nil, err
		}
		out = append(out, models.SelectedOption{
			OptionID:      opt.ID,
			OptionName:    opt.Name,
			PriceModifier: opt.PriceModifier,
		})
	}
	return out, nil
}

// lineTotal multiplies with an overflow guard so a corrupt quantity can
// never persist a wrapped total.
func lineTotal(unitPrice int64, quantity int) (int64, error) {
	if quantity <= 0 {
		return 0, apperr.Validation("quantity must be a positive integer")
	}
	total := unitPrice * int64(quantity)
	if unitPrice != 0 && total/unitPrice != int64(quantity) {
		return 0, apperr.Arithmetic("invalid price calculation")
	}
	return total, nil
}
