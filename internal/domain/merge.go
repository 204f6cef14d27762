package domain

import (
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WashStage names the two spec slots of an order.
type WashStage string

const (
	StageBeforeWash WashStage = "beforeWash"
	StageAfterWash  WashStage = "afterWash"
)

// MergeInput is everything a spec upload contributes to an order.
type MergeInput struct {
	Sheet          *SpecSheet
	SelectedColors []string
	UploadedAt     time.Time
	// NewID mints ids for blocks that did not exist before. Defaults to primitive.NewObjectID.
	NewID func() primitive.ObjectID
}

// MergeResult is the outcome of merging an upload into an order's spec slots.
type MergeResult struct {
	BeforeWashSpecs []ColorSpecBlock
	AfterWashSpecs  []ColorSpecBlock

	// SelectedColors is the de-duplicated selection, in request order.
	SelectedColors   []string
	ResolvedColors   []string
	UnresolvedColors []string
	// AppliedColors lists every color the shared after-wash block covers.
	AppliedColors []string

	BeforeWashMeasurements int
	AfterWashMeasurements  int

	// Changed is false when the merged slots equal the stored ones, ignoring
	// block ids and upload times.
	Changed bool
}

// MergeWashingSpecs computes the new spec slots of order for an upload.
//
// Before-wash: one block per resolved color replaces that color's stored block.
// After-wash: a single block tagged AllColors replaces the stored shared block,
// and its applied colors grow by the resolved selection. Blocks of colors
// outside the selection are never touched. A stage the sheet has no values
// for keeps its stored blocks as they were.
func MergeWashingSpecs(order *Order, in MergeInput) (*MergeResult, error) {
	if err := in.Sheet.Validate(); err != nil {
		return nil, err
	}
	selected := dedupe(in.SelectedColors)
	if len(selected) == 0 {
		return nil, ErrNoColorsSelected
	}
	newID := in.NewID
	if newID == nil {
		newID = primitive.NewObjectID
	}

	result := &MergeResult{SelectedColors: selected}
	resolved := make(map[string]OrderColor, len(selected))
	for _, code := range selected {
		color, ok := order.FindColor(code)
		if !ok {
			result.UnresolvedColors = append(result.UnresolvedColors, code)
			continue
		}
		resolved[code] = color
		result.ResolvedColors = append(result.ResolvedColors, code)
	}
	if len(result.ResolvedColors) == 0 {
		return nil, ErrNoResolvableColors
	}

	beforeRows := BuildSpecRows(in.Sheet, StageBeforeWash)
	afterRows := BuildSpecRows(in.Sheet, StageAfterWash)

	before := append([]ColorSpecBlock{}, order.BeforeWashSpecs...)
	if len(beforeRows) > 0 {
		before = make([]ColorSpecBlock, 0, len(order.BeforeWashSpecs)+len(resolved))
		placed := make(map[string]bool, len(resolved))
		blockFor := func(code string, prevID primitive.ObjectID) ColorSpecBlock {
			color := resolved[code]
			id := prevID
			if id.IsZero() {
				id = newID()
			}
			result.BeforeWashMeasurements += len(beforeRows)
			return ColorSpecBlock{
				ID:         id,
				ColorCode:  code,
				Color:      color.Color,
				ChnColor:   color.ChnColor,
				ColorKey:   color.ColorKey,
				Shrinkage:  in.Sheet.ShrinkageInfo,
				UploadedAt: in.UploadedAt,
				Specs:      beforeRows,
			}
		}
		// Replaced blocks keep their position; new colors go at the end.
		for _, block := range order.BeforeWashSpecs {
			if _, ok := resolved[block.ColorCode]; !ok {
				before = append(before, block)
				continue
			}
			if placed[block.ColorCode] {
				continue
			}
			placed[block.ColorCode] = true
			before = append(before, blockFor(block.ColorCode, block.ID))
		}
		for _, code := range result.ResolvedColors {
			if !placed[code] {
				placed[code] = true
				before = append(before, blockFor(code, primitive.NilObjectID))
			}
		}
	}

	shared := order.SharedAfterWashBlock()
	var previouslyApplied []string
	if shared != nil {
		previouslyApplied = shared.AppliedColors
	}

	after := make([]ColorSpecBlock, 0, len(order.AfterWashSpecs)+1)
	if len(afterRows) > 0 {
		result.AppliedColors = dedupe(append(append([]string{}, previouslyApplied...), result.ResolvedColors...))
		for _, block := range order.AfterWashSpecs {
			if block.ColorCode != AllColors {
				after = append(after, block)
			}
		}
		id := newID()
		if shared != nil && !shared.ID.IsZero() {
			id = shared.ID
		}
		after = append(after, ColorSpecBlock{
			ID:                id,
			ColorCode:         AllColors,
			Color:             AllColors,
			ChnColor:          AllColors,
			ColorKey:          AllColors,
			AppliedColors:     result.AppliedColors,
			Shrinkage:         in.Sheet.ShrinkageInfo,
			UploadedAt:        in.UploadedAt,
			LastUpdatedColors: result.ResolvedColors,
			Specs:             afterRows,
		})
		result.AfterWashMeasurements = len(afterRows)
	} else {
		result.AppliedColors = dedupe(previouslyApplied)
		after = append(after, order.AfterWashSpecs...)
	}

	result.BeforeWashSpecs = before
	result.AfterWashSpecs = after
	result.Changed = !SpecsEqual(order.BeforeWashSpecs, before) || !SpecsEqual(order.AfterWashSpecs, after)
	return result, nil
}

var specsCompareOptions = []cmp.Option{
	cmpopts.IgnoreFields(ColorSpecBlock{}, "ID", "UploadedAt"),
	cmpopts.EquateEmpty(),
}

// SpecsEqual compares two spec slots, ignoring block ids and upload times.
func SpecsEqual(a, b []ColorSpecBlock) bool {
	return cmp.Equal(a, b, specsCompareOptions...)
}

// SpecsDiff reports the differences SpecsEqual would find, for logging.
func SpecsDiff(a, b []ColorSpecBlock) string {
	return cmp.Diff(a, b, specsCompareOptions...)
}

// BuildSpecRows turns sheet rows into stored spec rows for one wash stage.
// Rows with no value for the stage are left out; No keeps the sheet position.
func BuildSpecRows(sheet *SpecSheet, stage WashStage) []SpecRow {
	var rows []SpecRow
	for i, row := range sheet.Rows {
		var sizes SizeSpecs
		for _, size := range sheet.SizeColumns {
			v, ok := row.SizeValues.Get(size)
			if !ok {
				continue
			}
			m := v.BeforeWash
			if stage == StageAfterWash {
				m = v.AfterWash
			}
			if m.IsEmpty() {
				continue
			}
			sizes = append(sizes, SizeSpec{
				Size:  size,
				Value: FractionValue{Fraction: m.Raw, Decimal: m.Decimal},
			})
		}
		if len(sizes) == 0 {
			continue
		}
		rows = append(rows, SpecRow{
			No:                      i + 1,
			SeqNo:                   SequenceNo(row.SequenceNo),
			MeasurementPointEngName: row.EnglishLabel,
			MeasurementPointChiName: row.ChineseLabel,
			TolMinus:                toleranceValue(row.ToleranceMinus),
			TolPlus:                 toleranceValue(row.TolerancePlus),
			SizeSpecs:               sizes,
		})
	}
	return rows
}

// toleranceValue stores unparsed tolerances as zero.
func toleranceValue(m Measurement) FractionValue {
	return FractionValue{Fraction: m.Raw, Decimal: Float(m.DecimalOrZero())}
}

// dedupe trims codes and drops blanks and repeats, keeping first occurrences.
func dedupe(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// CountSpecs sums the spec rows held by blocks.
func CountSpecs(blocks []ColorSpecBlock) int {
	n := 0
	for _, b := range blocks {
		n += len(b.Specs)
	}
	return n
}
