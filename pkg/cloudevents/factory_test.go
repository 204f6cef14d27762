package cloudevents

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YashPS24/CAQMS/api"
	"github.com/YashPS24/CAQMS/pkg/contracts/asyncapi"
	"github.com/YashPS24/CAQMS/pkg/logging"
)

// wire encodes an event the way it is written to Kafka.
func wire(t *testing.T, e *CloudEvent) []byte {
	t.Helper()
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return b
}

func TestEventFactory_WashSpecsUploaded(t *testing.T) {
	validator, err := asyncapi.NewEventValidatorFromBytes(api.AsyncAPI)
	require.NoError(t, err)
	assert.Equal(t, []string{BuyerSpecTemplateSaved, WashSpecsUploaded}, validator.SupportedEventTypes())

	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-1")
	factory := NewEventFactory(SourceWashSpec)

	event := factory.CreateWashSpecsUploadedEvent(ctx, WashSpecsUploadedData{
		OrderNo:                "GPAR12345",
		UpdatedColors:          []string{"C01"},
		AppliedColors:          []string{"C01", "C02"},
		BeforeWashMeasurements: 2,
		AfterWashMeasurements:  2,
		Sizes:                  []string{"S", "M"},
		Version:                1,
		UploadedAt:             time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	})

	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, WashSpecsUploaded, event.Type)
	assert.Equal(t, SourceWashSpec, event.Source)
	assert.Equal(t, "order/GPAR12345", event.Subject)
	assert.Equal(t, "GPAR12345", event.OrderNo)
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.NotEmpty(t, event.ID)
	assert.NoError(t, validator.ValidateEventJSON(wire(t, event)))
}

func TestEventFactory_BuyerSpecTemplateSaved(t *testing.T) {
	validator, err := asyncapi.NewEventValidatorFromBytes(api.AsyncAPI)
	require.NoError(t, err)

	event := NewEventFactory(SourceBuyerSpec).CreateBuyerSpecTemplateSavedEvent(context.Background(), BuyerSpecTemplateSavedData{
		MoNo:      "GPAR12345",
		Stage:     "M1",
		Sizes:     []string{"S"},
		Operation: "created",
	})

	assert.Equal(t, "buyer-spec/GPAR12345", event.Subject)
	assert.Empty(t, event.CorrelationID)
	assert.NoError(t, validator.ValidateEventJSON(wire(t, event)))

	event.Data = BuyerSpecTemplateSavedData{MoNo: "GPAR12345", Stage: "M1", Sizes: []string{}, Operation: "deleted"}
	assert.Error(t, validator.ValidateEventJSON(wire(t, event)))
}

func TestEventFactory_RejectsIncompleteUpload(t *testing.T) {
	validator, err := asyncapi.NewEventValidatorFromBytes(api.AsyncAPI)
	require.NoError(t, err)

	event := NewEventFactory(SourceWashSpec).CreateWashSpecsUploadedEvent(context.Background(), WashSpecsUploadedData{
		OrderNo:    "GPAR12345",
		UploadedAt: time.Now(),
	})

	assert.Error(t, validator.ValidateEventJSON(wire(t, event)))
}

func TestEventFactory_RejectsUnknownSpecVersion(t *testing.T) {
	validator, err := asyncapi.NewEventValidatorFromBytes(api.AsyncAPI)
	require.NoError(t, err)

	event := NewEventFactory(SourceBuyerSpec).CreateBuyerSpecTemplateSavedEvent(context.Background(), BuyerSpecTemplateSavedData{
		MoNo: "GPAR12345", Stage: "M1", Sizes: []string{"S"}, Operation: "updated",
	})
	require.NoError(t, validator.ValidateEventJSON(wire(t, event)))

	event.SpecVersion = "0.3"
	assert.ErrorContains(t, validator.ValidateEventJSON(wire(t, event)), "unsupported CloudEvents specversion")
	assert.Error(t, validator.ValidateEventJSON([]byte("{")))
}
