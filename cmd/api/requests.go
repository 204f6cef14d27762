package main

import (
	"github.com/YashPS24/CAQMS/internal/domain"
)

// IngestRequest carries a spreadsheet already decoded by the browser. Cells
// may be strings, numbers or null.
type IngestRequest struct {
	Rows [][]any `json:"rows" binding:"required"`
}

// SaveSpecsRequest is the request body for saving washing specs.
// Missing fields are reported by the service with upload-specific messages.
type SaveSpecsRequest struct {
	MoNo             string             `json:"moNo" binding:"omitempty,max=40,safe_string"`
	WashingSpecsData []domain.SpecSheet `json:"washingSpecsData"`
	SelectedColors   []string           `json:"selectedColors" binding:"omitempty,max=200,dive,color_code"`
}

// SaveTemplateRequest is the request body for creating a buyer spec template.
type SaveTemplateRequest struct {
	MoNo     string                `json:"moNo" binding:"omitempty,order_no"`
	Buyer    string                `json:"buyer" binding:"omitempty,max=100,safe_string"`
	Stage    string                `json:"stage" binding:"omitempty,max=40,safe_string"`
	SpecData []domain.SizeSpecData `json:"specData" binding:"omitempty,dive"`
}

// UpdateTemplateRequest is the request body for replacing a template's spec data.
type UpdateTemplateRequest struct {
	Stage    string                `json:"stage" binding:"omitempty,max=40,safe_string"`
	SpecData []domain.SizeSpecData `json:"specData" binding:"omitempty,dive"`
}
