package application

import (
	"io"

	"github.com/YashPS24/CAQMS/internal/domain"
)

// IngestCommand normalises an already decoded table.
type IngestCommand struct {
	// Source labels the decoder for metrics: "json", "xlsx" or "csv".
	Source string
	Cells  [][]string
}

// IngestFileCommand decodes and normalises an uploaded spreadsheet.
type IngestFileCommand struct {
	Filename  string
	SheetName string
	Content   io.Reader
}

// SaveSpecsCommand attaches an ingested sheet to an order's colors.
type SaveSpecsCommand struct {
	OrderNo string
	// WashingSpecsData holds ingested sheets; only the first is saved.
	WashingSpecsData []domain.SpecSheet
	SelectedColors   []string
}

// ListUploadedQuery pages through orders that have specs.
type ListUploadedQuery struct {
	Page    int64
	Limit   int64
	OrderNo string
}

// FilterOptionsQuery narrows the filter facets by exact values.
type FilterOptionsQuery struct {
	Factory   string
	OrderNo   string
	CustStyle string
	Buyer     string
	Mode      string
	Country   string
	Origin    string
}

func (q FilterOptionsQuery) toFilter() domain.OrderFilter {
	filter := domain.OrderFilter{}
	for field, value := range map[domain.OrderField]string{
		domain.FieldFactory:   q.Factory,
		domain.FieldOrderNo:   q.OrderNo,
		domain.FieldCustStyle: q.CustStyle,
		domain.FieldBuyer:     q.Buyer,
		domain.FieldMode:      q.Mode,
		domain.FieldCountry:   q.Country,
		domain.FieldOrigin:    q.Origin,
	} {
		if value != "" {
			filter[field] = value
		}
	}
	return filter
}

// SaveTemplateCommand creates or replaces a buyer spec template.
type SaveTemplateCommand struct {
	MoNo     string
	Buyer    string
	Stage    string
	SpecData []domain.SizeSpecData
}

// UpdateTemplateCommand replaces the spec data of an existing template.
type UpdateTemplateCommand struct {
	MoNo     string
	Stage    string
	SpecData []domain.SizeSpecData
}
