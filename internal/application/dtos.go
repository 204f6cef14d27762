package application

import (
	"time"

	"github.com/YashPS24/CAQMS/internal/domain"
)

// Save response messages
const (
	msgSpecsUnchanged  = "Washing specs data is already up to date."
	msgSpecsUpdated    = "Successfully updated washing specs for MO No '%s' with %d color(s)."
	msgAfterWashShared = "After wash specs are shared across %d colors: %s"
	msgTemplateSaved   = "Buyer spec template saved successfully."
	msgTemplateUpdated = "Spec template updated successfully."
)

// SaveSpecsResult is the response to a spec save.
type SaveSpecsResult struct {
	Message string            `json:"message"`
	Details *SaveSpecsDetails `json:"details,omitempty"`
	// Unchanged is set when nothing was written.
	Unchanged bool `json:"-"`
}

// SaveSpecsDetails describes what a save wrote.
type SaveSpecsDetails struct {
	UpdatedColors          []string       `json:"updatedColors"`
	AllAppliedColors       []string       `json:"allAppliedColors"`
	BeforeWashMeasurements int            `json:"beforeWashMeasurements"`
	AfterWashMeasurements  int            `json:"afterWashMeasurements"`
	TotalSizes             int            `json:"totalSizes"`
	AvailableSizes         []string       `json:"availableSizes"`
	Structure              SpecsStructure `json:"structure"`
	UnresolvedColors       []string       `json:"unresolvedColors"`
	Version                int64          `json:"version"`
}

// SpecsStructure summarises the stored spec slots after a save.
type SpecsStructure struct {
	BeforeWashColors int    `json:"beforeWashColors"`
	AfterWashSpecs   int    `json:"afterWashSpecs"`
	AfterWashNote    string `json:"afterWashNote"`
}

// OrderSummaryDTO is one order search suggestion.
type OrderSummaryDTO struct {
	OrderNo   string `json:"Order_No"`
	CustStyle string `json:"CustStyle"`
	TotalQty  int64  `json:"TotalQty"`
	Style     string `json:"Style"`
}

// OrderSearchDTO wraps order suggestions.
type OrderSearchDTO struct {
	Orders []OrderSummaryDTO `json:"orders"`
}

// OrderColorDTO is one selectable color of an order.
type OrderColorDTO struct {
	ColorCode string          `json:"ColorCode"`
	Color     string          `json:"Color"`
	ChnColor  string          `json:"ChnColor"`
	ColorKey  domain.ColorKey `json:"ColorKey"`
}

// OrderColorsDTO lists the colors of an order.
type OrderColorsDTO struct {
	OrderNo string          `json:"orderNo"`
	Colors  []OrderColorDTO `json:"colors"`
}

// UploadedOrderDTO is one row of the uploaded-specs table.
type UploadedOrderDTO struct {
	ID                     string     `json:"_id"`
	MoNo                   string     `json:"moNo"`
	CustStyle              string     `json:"custStyle"`
	TotalQty               int64      `json:"totalQty"`
	UploadedColors         int        `json:"uploadedColors"`
	ColorsList             string     `json:"colorsList"`
	BeforeWashColors       int        `json:"beforeWashColors"`
	AfterWashColors        int        `json:"afterWashColors"`
	BeforeWashMeasurements int        `json:"beforeWashMeasurements"`
	AfterWashMeasurements  int        `json:"afterWashMeasurements"`
	TotalMeasurements      int        `json:"totalMeasurements"`
	LastUpdated            *time.Time `json:"lastUpdated"`
}

// FilterOptionsDTO lists the distinct facet values of matching orders.
type FilterOptionsDTO struct {
	Factories  []string `json:"factories"`
	Monos      []string `json:"monos"`
	CustStyles []string `json:"custStyles"`
	Buyers     []string `json:"buyers"`
	Modes      []string `json:"modes"`
	Countries  []string `json:"countries"`
	Origins    []string `json:"origins"`
}

// TemplateResultDTO is the response to a template write.
type TemplateResultDTO struct {
	Message string                    `json:"message"`
	Data    *domain.BuyerSpecTemplate `json:"data"`
}

// PatternDataDTO carries an order's stored after-wash specs.
type PatternDataDTO struct {
	OrderNo        string                  `json:"Order_No"`
	AfterWashSpecs []domain.ColorSpecBlock `json:"afterWashSpecs"`
}

// EditSpecsDataDTO feeds the template editor.
type EditSpecsDataDTO struct {
	TemplateData *domain.BuyerSpecTemplate `json:"templateData"`
	PatternData  *PatternDataDTO           `json:"patternData"`
}

// BuyerSpecOrderDetailsDTO is an order reshaped for the buyer spec sheet.
type BuyerSpecOrderDetailsDTO struct {
	MoNo         string                      `json:"moNo"`
	CustStyle    string                      `json:"custStyle"`
	Buyer        string                      `json:"buyer"`
	Mode         string                      `json:"mode"`
	Country      string                      `json:"country"`
	Origin       string                      `json:"origin"`
	OrderQty     int64                       `json:"orderQty"`
	Colors       []string                    `json:"colors"`
	Sizes        []string                    `json:"sizes"`
	ColorSizeMap map[string]map[string]int64 `json:"colorSizeMap"`
	BuyerSpec    []domain.BuyerSpecLine      `json:"buyerSpec"`
}
