package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YashPS24/CAQMS/pkg/cloudevents"
)

func headers(t *testing.T, event *cloudevents.CloudEvent) (map[string]string, []byte, []byte) {
	t.Helper()
	msg, err := NewMessage(event)
	require.NoError(t, err)
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[h.Key] = string(h.Value)
	}
	return out, msg.Key, msg.Value
}

func TestNewMessage(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	event := &cloudevents.CloudEvent{
		SpecVersion:     "1.0",
		Type:            cloudevents.WashSpecsUploaded,
		Source:          cloudevents.SourceWashSpec,
		Subject:         "order/GPAR12345",
		ID:              "evt-1",
		Time:            at,
		DataContentType: "application/json",
		Data:            map[string]string{"orderNo": "GPAR12345"},
		CorrelationID:   "corr-1",
		OrderNo:         "GPAR12345",
	}

	h, key, value := headers(t, event)

	assert.Equal(t, "GPAR12345", string(key))
	assert.Equal(t, map[string]string{
		"ce-specversion":        "1.0",
		"ce-type":               cloudevents.WashSpecsUploaded,
		"ce-source":             cloudevents.SourceWashSpec,
		"ce-id":                 "evt-1",
		"ce-time":               "2026-03-14T09:30:00Z",
		"content-type":          "application/json",
		"ce-caqmscorrelationid": "corr-1",
		"ce-caqmsorderno":       "GPAR12345",
	}, h)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(value, &decoded))
	assert.Equal(t, "evt-1", decoded["id"])
	assert.Equal(t, "GPAR12345", decoded["data"].(map[string]interface{})["orderNo"])
}

func TestNewMessage_KeyFallsBackToSubject(t *testing.T) {
	event := &cloudevents.CloudEvent{SpecVersion: "1.0", Subject: "buyer-spec/X", TraceParent: "00-abc-def-01"}

	h, key, _ := headers(t, event)

	assert.Equal(t, "buyer-spec/X", string(key))
	assert.Equal(t, "00-abc-def-01", h["ce-traceparent"])
	assert.NotContains(t, h, "ce-caqmscorrelationid")
	assert.NotContains(t, h, "ce-tracestate")
}

func TestNewMessage_UnencodableData(t *testing.T) {
	_, err := NewMessage(&cloudevents.CloudEvent{Data: make(chan int)})
	assert.ErrorContains(t, err, "failed to marshal event")
}
