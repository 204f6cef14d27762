package cloudevents

import (
	"time"
)

// Event types published by the washing spec service
const (
	WashSpecsUploaded      = "caqms.washspec.uploaded"
	BuyerSpecTemplateSaved = "caqms.buyerspec.template-saved"
)

// Event sources
const (
	SourceWashSpec  = "/caqms/washspec-service"
	SourceBuyerSpec = "/caqms/washspec-service/buyer-specs"
)

// Extension attribute names, mirrored as ce-* Kafka headers.
const (
	ExtCorrelationID = "caqmscorrelationid"
	ExtOrderNo       = "caqmsorderno"
)

// CloudEvent is a CloudEvents v1.0 envelope.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	CorrelationID string `json:"caqmscorrelationid,omitempty"`
	OrderNo       string `json:"caqmsorderno,omitempty"`

	// W3C trace context, filled in by the instrumented producer.
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// WashSpecsUploadedData is the payload of WashSpecsUploaded.
type WashSpecsUploadedData struct {
	OrderNo                string    `json:"orderNo"`
	UpdatedColors          []string  `json:"updatedColors"`
	AppliedColors          []string  `json:"appliedColors"`
	UnresolvedColors       []string  `json:"unresolvedColors,omitempty"`
	BeforeWashMeasurements int       `json:"beforeWashMeasurements"`
	AfterWashMeasurements  int       `json:"afterWashMeasurements"`
	Sizes                  []string  `json:"sizes"`
	Version                int64     `json:"version"`
	UploadedAt             time.Time `json:"uploadedAt"`
}

// BuyerSpecTemplateSavedData is the payload of BuyerSpecTemplateSaved.
type BuyerSpecTemplateSavedData struct {
	MoNo      string   `json:"moNo"`
	Buyer     string   `json:"buyer,omitempty"`
	Stage     string   `json:"stage"`
	Sizes     []string `json:"sizes"`
	Operation string   `json:"operation"` // "created" | "updated"
}
