package application

import (
	"fmt"
	"strings"

	"github.com/YashPS24/CAQMS/internal/domain"
)

// ToOrderSummaryDTOs maps search hits to suggestions.
func ToOrderSummaryDTOs(orders []*domain.Order) []OrderSummaryDTO {
	dtos := make([]OrderSummaryDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, OrderSummaryDTO{
			OrderNo:   o.OrderNo,
			CustStyle: o.CustStyle,
			TotalQty:  o.TotalQty,
			Style:     o.Style,
		})
	}
	return dtos
}

// ToOrderColorDTOs maps order colors to selectable colors.
func ToOrderColorDTOs(colors []domain.OrderColor) []OrderColorDTO {
	dtos := make([]OrderColorDTO, 0, len(colors))
	for _, c := range colors {
		dtos = append(dtos, OrderColorDTO{
			ColorCode: c.ColorCode,
			Color:     c.Color,
			ChnColor:  c.ChnColor,
			ColorKey:  c.ColorKey,
		})
	}
	return dtos
}

// ToUploadedOrderDTO summarises the spec slots of an order. The shared
// after-wash block counts the colors it was applied to, not "ALL".
func ToUploadedOrderDTO(o *domain.Order) UploadedOrderDTO {
	var colors []string
	seen := make(map[string]bool)
	add := func(code string) {
		if code == "" || code == domain.AllColors || seen[code] {
			return
		}
		seen[code] = true
		colors = append(colors, code)
	}
	for _, b := range o.BeforeWashSpecs {
		add(b.ColorCode)
	}
	for _, b := range o.AfterWashSpecs {
		add(b.ColorCode)
		for _, code := range b.AppliedColors {
			add(code)
		}
	}

	custStyle := o.CustStyle
	if custStyle == "" {
		custStyle = "N/A"
	}

	before := domain.CountSpecs(o.BeforeWashSpecs)
	after := domain.CountSpecs(o.AfterWashSpecs)

	dto := UploadedOrderDTO{
		ID:                     o.ID.Hex(),
		MoNo:                   o.OrderNo,
		CustStyle:              custStyle,
		TotalQty:               o.TotalQty,
		UploadedColors:         len(colors),
		ColorsList:             strings.Join(colors, ", "),
		BeforeWashColors:       len(o.BeforeWashSpecs),
		AfterWashColors:        len(o.AfterWashSpecs),
		BeforeWashMeasurements: before,
		AfterWashMeasurements:  after,
		TotalMeasurements:      before + after,
	}
	if o.SpecsMetadata != nil && !o.SpecsMetadata.LastUpdated.IsZero() {
		t := o.SpecsMetadata.LastUpdated
		dto.LastUpdated = &t
	}
	return dto
}

// ToSaveSpecsDetails describes a merge that was written at version.
func ToSaveSpecsDetails(sheet *domain.SpecSheet, result *domain.MergeResult, version int64) *SaveSpecsDetails {
	sizes := append([]string{}, sheet.SizeColumns...)
	note := "No after wash specs"
	if result.AfterWashMeasurements > 0 || len(result.AppliedColors) > 0 {
		note = fmt.Sprintf(msgAfterWashShared, len(result.AppliedColors), strings.Join(result.AppliedColors, ", "))
	}
	return &SaveSpecsDetails{
		UpdatedColors:          nonNil(result.ResolvedColors),
		AllAppliedColors:       nonNil(result.AppliedColors),
		BeforeWashMeasurements: result.BeforeWashMeasurements,
		AfterWashMeasurements:  result.AfterWashMeasurements,
		TotalSizes:             len(sizes),
		AvailableSizes:         sizes,
		Structure: SpecsStructure{
			BeforeWashColors: len(result.BeforeWashSpecs),
			AfterWashSpecs:   len(result.AfterWashSpecs),
			AfterWashNote:    note,
		},
		UnresolvedColors: nonNil(result.UnresolvedColors),
		Version:          version,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
