package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderRepository reads orders and rewrites their spec slots. Orders themselves
// are owned by the order import and are never created here.
type OrderRepository interface {
	// FindByOrderNo returns nil, nil when no order has the number.
	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	// ListColors returns the colors of an order, or nil, nil when the order is unknown.
	ListColors(ctx context.Context, orderNo string) ([]OrderColor, error)

	// UpdateSpecs writes both spec slots in one document update, provided the
	// stored version still equals ExpectedVersion.
	UpdateSpecs(ctx context.Context, update SpecsUpdate) (*UpdateOutcome, error)

	// Search matches order numbers containing term, ignoring case.
	Search(ctx context.Context, term string, limit int64) ([]*Order, error)

	// FindWithUploadedSpecs pages through orders that hold any spec block,
	// most recently updated first.
	FindWithUploadedSpecs(ctx context.Context, filter UploadedFilter, pagination Pagination) ([]*Order, int64, error)

	// DistinctValues lists the distinct values of field over matching orders.
	DistinctValues(ctx context.Context, field OrderField, filter OrderFilter) ([]string, error)
}

// BuyerSpecTemplateRepository persists buyer spec templates, one per MO.
type BuyerSpecTemplateRepository interface {
	// Upsert creates or replaces the template for t.MoNo and returns the stored document.
	Upsert(ctx context.Context, t *BuyerSpecTemplate) (*BuyerSpecTemplate, error)

	// FindByMoNo returns nil, nil when no template exists.
	FindByMoNo(ctx context.Context, moNo string) (*BuyerSpecTemplate, error)

	// ListMoOptions lists every template's MO and stage, ordered by MO.
	ListMoOptions(ctx context.Context) ([]MoOption, error)

	// UpdateSpecData replaces specData, and stage when non-empty. It returns
	// nil, nil when no template exists.
	UpdateSpecData(ctx context.Context, moNo, stage string, specData []SizeSpecData) (*BuyerSpecTemplate, error)
}

// SpecsUpdate is the write half of a spec upload.
type SpecsUpdate struct {
	OrderID         primitive.ObjectID
	ExpectedVersion int64
	BeforeWashSpecs []ColorSpecBlock
	AfterWashSpecs  []ColorSpecBlock
	UpdatedAt       time.Time
}

// UpdateOutcome reports what a spec write did.
type UpdateOutcome struct {
	Matched  bool
	Modified bool
	Version  int64
}

// UploadedFilter narrows the uploaded-orders listing.
type UploadedFilter struct {
	// OrderNo matches order numbers containing it, ignoring case.
	OrderNo string
}

// OrderField names an order attribute offered as a filter facet.
type OrderField string

const (
	FieldFactory   OrderField = "Factory"
	FieldOrderNo   OrderField = "Order_No"
	FieldCustStyle OrderField = "CustStyle"
	FieldBuyer     OrderField = "ShortName"
	FieldMode      OrderField = "Mode"
	FieldCountry   OrderField = "Country"
	FieldOrigin    OrderField = "Origin"
)

// FilterFields lists the facets in the order they are reported.
var FilterFields = []OrderField{
	FieldFactory, FieldOrderNo, FieldCustStyle, FieldBuyer, FieldMode, FieldCountry, FieldOrigin,
}

// OrderFilter holds exact-match facet values; empty values are ignored.
type OrderFilter map[OrderField]string

// Pagination represents pagination options
type Pagination struct {
	Page     int64
	PageSize int64
}

// DefaultPagination returns default pagination options
func DefaultPagination() Pagination {
	return Pagination{
		Page:     1,
		PageSize: 10,
	}
}

// Skip returns the number of documents to skip
func (p Pagination) Skip() int64 {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Limit returns the maximum number of documents to return
func (p Pagination) Limit() int64 {
	return p.PageSize
}
