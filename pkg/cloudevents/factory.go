package cloudevents

import (
	"context"
	"time"

	"github.com/YashPS24/CAQMS/pkg/logging"
	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for one source
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// Source returns the factory's event source
func (f *EventFactory) Source() string {
	return f.source
}

// CreateEvent builds an envelope around data. The correlation ID is taken
// from ctx when the request middleware put one there.
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data interface{}) *CloudEvent {
	return &CloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		CorrelationID:   logging.CorrelationIDFromContext(ctx),
	}
}

// CreateWashSpecsUploadedEvent creates a WashSpecsUploaded event
func (f *EventFactory) CreateWashSpecsUploadedEvent(ctx context.Context, data WashSpecsUploadedData) *CloudEvent {
	event := f.CreateEvent(ctx, WashSpecsUploaded, "order/"+data.OrderNo, data)
	event.OrderNo = data.OrderNo
	return event
}

// CreateBuyerSpecTemplateSavedEvent creates a BuyerSpecTemplateSaved event
func (f *EventFactory) CreateBuyerSpecTemplateSavedEvent(ctx context.Context, data BuyerSpecTemplateSavedData) *CloudEvent {
	event := f.CreateEvent(ctx, BuyerSpecTemplateSaved, "buyer-spec/"+data.MoNo, data)
	event.OrderNo = data.MoNo
	return event
}
