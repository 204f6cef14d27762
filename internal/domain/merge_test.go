package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/YashPS24/CAQMS/internal/domain"
	"github.com/YashPS24/CAQMS/internal/testutil"
)

var uploadTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func sequentialIDs() func() primitive.ObjectID {
	var n byte
	return func() primitive.ObjectID {
		n++
		return primitive.ObjectID{11: n}
	}
}

func mergeInput(sheet domain.SpecSheet, colors ...string) domain.MergeInput {
	return domain.MergeInput{
		Sheet:          &sheet,
		SelectedColors: colors,
		UploadedAt:     uploadTime,
		NewID:          sequentialIDs(),
	}
}

func apply(order *domain.Order, result *domain.MergeResult) {
	order.BeforeWashSpecs = result.BeforeWashSpecs
	order.AfterWashSpecs = result.AfterWashSpecs
}

func TestMergeWashingSpecs_FirstUpload(t *testing.T) {
	order := testutil.SampleOrder()

	result, err := domain.MergeWashingSpecs(order, mergeInput(testutil.SampleSheet(), "C01", "C02"))
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, []string{"C01", "C02"}, result.ResolvedColors)
	assert.Empty(t, result.UnresolvedColors)
	assert.Equal(t, 4, result.BeforeWashMeasurements)
	assert.Equal(t, 2, result.AfterWashMeasurements)

	require.Len(t, result.BeforeWashSpecs, 2)
	black := result.BeforeWashSpecs[0]
	assert.Equal(t, "C01", black.ColorCode)
	assert.Equal(t, "Black ", black.Color)
	assert.Equal(t, "黑色", black.ChnColor)
	assert.Equal(t, domain.ColorKey("1"), black.ColorKey)
	assert.Equal(t, uploadTime, black.UploadedAt)
	assert.False(t, black.ID.IsZero())
	require.Len(t, black.Specs, 2)

	chest := black.Specs[0]
	assert.Equal(t, 1, chest.No)
	assert.Equal(t, domain.SequenceNo("1"), chest.SeqNo)
	assert.Equal(t, "Chest", chest.MeasurementPointEngName)
	assert.Equal(t, "胸围", chest.MeasurementPointChiName)
	assert.Equal(t, domain.FractionValue{Fraction: "-1/2", Decimal: domain.Float(-0.5)}, chest.TolMinus)
	s, ok := chest.SizeSpecs.Get("S")
	require.True(t, ok)
	assert.Equal(t, domain.FractionValue{Fraction: "20", Decimal: domain.Float(20)}, s)

	require.Len(t, result.AfterWashSpecs, 1)
	shared := result.AfterWashSpecs[0]
	assert.Equal(t, domain.AllColors, shared.ColorCode)
	assert.Equal(t, domain.ColorKey(domain.AllColors), shared.ColorKey)
	assert.Equal(t, []string{"C01", "C02"}, shared.AppliedColors)
	assert.Equal(t, []string{"C01", "C02"}, shared.LastUpdatedColors)
	afterChest, _ := shared.Specs[0].SizeSpecs.Get("S")
	assert.Equal(t, "19 1/2", afterChest.Fraction)
}

func TestMergeWashingSpecs_SameUploadIsUnchanged(t *testing.T) {
	order := testutil.SampleOrder()
	first, err := domain.MergeWashingSpecs(order, mergeInput(testutil.SampleSheet(), "C01"))
	require.NoError(t, err)
	apply(order, first)

	in := mergeInput(testutil.SampleSheet(), "C01")
	in.UploadedAt = uploadTime.Add(time.Hour)
	second, err := domain.MergeWashingSpecs(order, in)
	require.NoError(t, err)

	assert.False(t, second.Changed)
	assert.Equal(t, first.BeforeWashSpecs[0].ID, second.BeforeWashSpecs[0].ID)
	assert.Equal(t, first.AfterWashSpecs[0].ID, second.AfterWashSpecs[0].ID)
	assert.Empty(t, domain.SpecsDiff(first.BeforeWashSpecs, second.BeforeWashSpecs))
}

func TestMergeWashingSpecs_LeavesOtherColorsAlone(t *testing.T) {
	order := testutil.SampleOrder()
	first, err := domain.MergeWashingSpecs(order, mergeInput(testutil.SampleSheet(), "C01"))
	require.NoError(t, err)
	apply(order, first)

	sheet := testutil.SampleSheet()
	sheet.Rows = sheet.Rows[1:]
	second, err := domain.MergeWashingSpecs(order, mergeInput(sheet, "C02"))
	require.NoError(t, err)

	assert.True(t, second.Changed)
	require.Len(t, second.BeforeWashSpecs, 2)
	assert.Equal(t, first.BeforeWashSpecs[0], second.BeforeWashSpecs[0])
	assert.Equal(t, "C02", second.BeforeWashSpecs[1].ColorCode)
	assert.Len(t, second.BeforeWashSpecs[1].Specs, 1)

	require.Len(t, second.AfterWashSpecs, 1)
	shared := second.AfterWashSpecs[0]
	assert.Equal(t, []string{"C01", "C02"}, shared.AppliedColors)
	assert.Equal(t, []string{"C02"}, shared.LastUpdatedColors)
	assert.Len(t, shared.Specs, 1)
	assert.Equal(t, first.AfterWashSpecs[0].ID, shared.ID)
}

func TestMergeWashingSpecs_KeepsSharedBlockWithoutAfterWashValues(t *testing.T) {
	order := testutil.SampleOrder()
	first, err := domain.MergeWashingSpecs(order, mergeInput(testutil.SampleSheet(), "C01"))
	require.NoError(t, err)
	apply(order, first)

	sheet := testutil.SampleSheet()
	for i := range sheet.Rows {
		for j := range sheet.Rows[i].SizeValues {
			sheet.Rows[i].SizeValues[j].AfterWash = nil
		}
	}
	second, err := domain.MergeWashingSpecs(order, mergeInput(sheet, "C02"))
	require.NoError(t, err)

	assert.Equal(t, first.AfterWashSpecs, second.AfterWashSpecs)
	assert.Equal(t, []string{"C01"}, second.AppliedColors)
	assert.Zero(t, second.AfterWashMeasurements)
	assert.Len(t, second.BeforeWashSpecs, 2)
}

func TestMergeWashingSpecs_KeepsBeforeWashBlocksWithoutBeforeWashValues(t *testing.T) {
	order := testutil.SampleOrder()
	first, err := domain.MergeWashingSpecs(order, mergeInput(testutil.SampleSheet(), "C01"))
	require.NoError(t, err)
	apply(order, first)

	sheet := testutil.SampleSheet()
	for i := range sheet.Rows {
		for j := range sheet.Rows[i].SizeValues {
			sheet.Rows[i].SizeValues[j].BeforeWash = nil
		}
	}
	second, err := domain.MergeWashingSpecs(order, mergeInput(sheet, "C01"))
	require.NoError(t, err)

	assert.Equal(t, first.BeforeWashSpecs, second.BeforeWashSpecs)
	assert.Zero(t, second.BeforeWashMeasurements)
	assert.Equal(t, 2, second.AfterWashMeasurements)
}

func TestMergeWashingSpecs_ReplacedBlockKeepsPosition(t *testing.T) {
	order := testutil.SampleOrder()
	for _, code := range []string{"C01", "C02"} {
		result, err := domain.MergeWashingSpecs(order, mergeInput(testutil.SampleSheet(), code))
		require.NoError(t, err)
		apply(order, result)
	}
	stored := order.BeforeWashSpecs

	sheet := testutil.SampleSheet()
	sheet.Rows = sheet.Rows[:1]
	again, err := domain.MergeWashingSpecs(order, mergeInput(sheet, "C01"))
	require.NoError(t, err)

	require.Len(t, again.BeforeWashSpecs, 2)
	assert.Equal(t, "C01", again.BeforeWashSpecs[0].ColorCode)
	assert.Equal(t, stored[0].ID, again.BeforeWashSpecs[0].ID)
	assert.Len(t, again.BeforeWashSpecs[0].Specs, 1)
	assert.Equal(t, stored[1], again.BeforeWashSpecs[1])
}

func TestMergeWashingSpecs_ColorResolution(t *testing.T) {
	order := testutil.SampleOrder()

	result, err := domain.MergeWashingSpecs(order, mergeInput(testutil.SampleSheet(), " C01 ", "X9", "C01"))
	require.NoError(t, err)
	assert.Equal(t, []string{"C01", "X9"}, result.SelectedColors)
	assert.Equal(t, []string{"C01"}, result.ResolvedColors)
	assert.Equal(t, []string{"X9"}, result.UnresolvedColors)
	assert.Len(t, result.BeforeWashSpecs, 1)
}

func TestMergeWashingSpecs_Errors(t *testing.T) {
	unknownSize := testutil.SampleSheet()
	unknownSize.SizeColumns = []string{"S"}

	tests := []struct {
		name  string
		sheet domain.SpecSheet
		codes []string
		err   error
	}{
		{name: "no rows", sheet: domain.SpecSheet{SizeColumns: []string{"S"}}, codes: []string{"C01"}, err: domain.ErrNoSpecRows},
		{name: "size outside columns", sheet: unknownSize, codes: []string{"C01"}, err: domain.ErrUnknownSize},
		{name: "blank selection", sheet: testutil.SampleSheet(), codes: []string{" ", ""}, err: domain.ErrNoColorsSelected},
		{name: "foreign colors", sheet: testutil.SampleSheet(), codes: []string{"X1", "X2"}, err: domain.ErrNoResolvableColors},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.MergeWashingSpecs(testutil.SampleOrder(), mergeInput(tt.sheet, tt.codes...))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestBuildSpecRows(t *testing.T) {
	sheet := testutil.SampleSheet()
	sheet.Rows = append([]domain.MeasurementRow{{
		SequenceNo:   "0",
		EnglishLabel: "Note",
		SizeValues:   domain.SizeValues{{Size: "S", AfterWash: &domain.Measurement{Raw: "n/a"}}},
	}}, sheet.Rows...)
	sheet.Rows[1].ToleranceMinus = domain.Measurement{Raw: "?"}

	before := domain.BuildSpecRows(&sheet, domain.StageBeforeWash)
	require.Len(t, before, 2)
	assert.Equal(t, 2, before[0].No)
	assert.Equal(t, domain.FractionValue{Fraction: "?", Decimal: domain.Float(0)}, before[0].TolMinus)
	assert.Equal(t, []string{"S", "M"}, before[0].SizeSpecs.Sizes())

	after := domain.BuildSpecRows(&sheet, domain.StageAfterWash)
	require.Len(t, after, 3)
	note, ok := after[0].SizeSpecs.Get("S")
	require.True(t, ok)
	assert.Equal(t, "n/a", note.Fraction)
	assert.Nil(t, note.Decimal)
}

func TestCountSpecs(t *testing.T) {
	assert.Zero(t, domain.CountSpecs(nil))
	assert.Equal(t, 3, domain.CountSpecs([]domain.ColorSpecBlock{
		{Specs: make([]domain.SpecRow, 2)},
		{Specs: make([]domain.SpecRow, 1)},
	}))
}
