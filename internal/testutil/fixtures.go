// Package testutil holds in-memory repositories and fixtures shared by the
// application and HTTP tests.
package testutil

import (
	"github.com/YashPS24/CAQMS/internal/domain"
)

// SampleOrderNo is the order number of SampleOrder.
const SampleOrderNo = "GPAR12345"

// SampleOrder returns an imported order with two colors and no specs.
func SampleOrder() *domain.Order {
	return &domain.Order{
		OrderNo:   SampleOrderNo,
		CustStyle: "CS-2201",
		TotalQty:  600,
		Style:     "Denim Jacket",
		ShortName: "GAP",
		Mode:      "Sea",
		Country:   "USA",
		Origin:    "KH",
		Factory:   "YM",
		Colors: []domain.OrderColor{
			{
				ColorCode: "C01",
				Color:     "Black ",
				ChnColor:  "黑色",
				ColorKey:  "1",
				OrderQty:  []map[string]interface{}{{"S;1": int32(100), "M;2": int32(200)}},
			},
			{
				ColorCode: "C02",
				Color:     "Navy",
				ChnColor:  "藏青",
				ColorKey:  "2",
				OrderQty:  []map[string]interface{}{{"S;1": int32(120), "M;2": int32(180), "L;3": int32(0)}},
			},
		},
	}
}

// SampleSheet returns a normalised two-row sheet with sizes S and M carrying
// both before-wash and after-wash values.
func SampleSheet() domain.SpecSheet {
	return domain.SpecSheet{
		ColorInfo:     &domain.ColorInfo{ColorCode: "C01", ColorName: "Black"},
		ShrinkageInfo: &domain.ShrinkageInfo{Raw: "L: 3% W: 2%", Length: 3, Width: 2},
		Headers: []domain.SizeHeader{
			{Size: "S", HasBeforeWash: true, HasAfterWash: true},
			{Size: "M", HasBeforeWash: true, HasAfterWash: true},
		},
		SizeColumns: []string{"S", "M"},
		Rows: []domain.MeasurementRow{
			{
				SequenceNo:     "1",
				ChineseLabel:   "胸围",
				EnglishLabel:   "Chest",
				ToleranceMinus: measurement("-1/2", -0.5),
				TolerancePlus:  measurement("1/2", 0.5),
				SizeValues: domain.SizeValues{
					{Size: "S", BeforeWash: measurementPtr("20", 20), AfterWash: measurementPtr("19 1/2", 19.5)},
					{Size: "M", BeforeWash: measurementPtr("21", 21), AfterWash: measurementPtr("20 1/2", 20.5)},
				},
			},
			{
				SequenceNo:     "2",
				ChineseLabel:   "衣长",
				EnglishLabel:   "Length",
				ToleranceMinus: measurement("-1/4", -0.25),
				TolerancePlus:  measurement("1/4", 0.25),
				SizeValues: domain.SizeValues{
					{Size: "S", BeforeWash: measurementPtr("28", 28), AfterWash: measurementPtr("27 3/4", 27.75)},
					{Size: "M", BeforeWash: measurementPtr("29", 29), AfterWash: measurementPtr("28 3/4", 28.75)},
				},
			},
		},
	}
}

// SampleSpecData returns template spec data for sizes S and M.
func SampleSpecData() []domain.SizeSpecData {
	detail := func(size float64) []domain.SpecDetail {
		return []domain.SpecDetail{
			{OrderNo: 1, SpecName: "Chest", ChineseRemark: "胸围", SeqNo: "1", TolMinus: -0.5, TolPlus: 0.5, SpecValueFraction: "", SpecValueDecimal: size},
		}
	}
	return []domain.SizeSpecData{
		{Size: "S", SpecDetails: detail(19.5)},
		{Size: "M", SpecDetails: detail(20.5)},
	}
}

func measurement(raw string, v float64) domain.Measurement {
	return domain.Measurement{Raw: raw, Decimal: domain.Float(v)}
}

func measurementPtr(raw string, v float64) *domain.Measurement {
	m := measurement(raw, v)
	return &m
}

// SampleCells returns a decoded washing spec sheet in the upload layout: color
// and shrinkage on row 1, wash stage markers on row 2, sizes on row 3.
func SampleCells() [][]string {
	return [][]string{
		{"Washing Measurement Spec"},
		{"颜色: 001 BLACK", "", "", "", "", "", "", "", "", "", "缩率: L3% W2%"},
		{"", "", "", "", "", "洗前", "客人尺寸", "洗前", "客人尺寸"},
		{"No", "部位", "Point", "Tol-", "Tol+", "S", "S", "M", "M"},
		{"1", "胸围", "Chest", "1/2", "1/2", "20", "19 1/2", "21", "20 1/2"},
		{"2", "衣长", "Length", "-1/4", "+1/4", "28", "27 3/4", "29", "28 3/4"},
	}
}
