package asyncapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// EventValidator validates CloudEvent payloads against the schemas of an
// AsyncAPI document.
type EventValidator struct {
	schemas  map[string]*jsonschema.Schema
	compiler *jsonschema.Compiler
}

// CloudEvent is the subset of the CloudEvents envelope the validator reads.
type CloudEvent struct {
	SpecVersion string      `json:"specversion"`
	Type        string      `json:"type"`
	Source      string      `json:"source"`
	ID          string      `json:"id"`
	Data        interface{} `json:"data,omitempty"`
}

// spec holds the parts of an AsyncAPI document the validator needs.
type spec struct {
	AsyncAPI   string `yaml:"asyncapi"`
	Components struct {
		Schemas map[string]schemaEntry `yaml:"schemas"`
	} `yaml:"components"`
}

// schemaEntry is a JSON schema tagged with the CloudEvent type it describes.
type schemaEntry map[string]interface{}

const eventTypeKey = "x-event-type"

// NewEventValidatorFromBytes compiles every component schema that carries an
// x-event-type annotation.
func NewEventValidatorFromBytes(specBytes []byte) (*EventValidator, error) {
	var doc spec
	if err := yaml.Unmarshal(specBytes, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse AsyncAPI spec: %w", err)
	}
	if doc.AsyncAPI == "" {
		return nil, fmt.Errorf("not an AsyncAPI document: missing asyncapi version")
	}

	v := &EventValidator{
		schemas:  make(map[string]*jsonschema.Schema),
		compiler: jsonschema.NewCompiler(),
	}

	for name, entry := range doc.Components.Schemas {
		eventType, _ := entry[eventTypeKey].(string)
		if eventType == "" {
			continue
		}
		delete(entry, eventTypeKey)

		raw, err := json.Marshal(map[string]interface{}(entry))
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		if err := v.register(eventType, "asyncapi://schemas/"+name, raw); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
	}

	return v, nil
}

func (v *EventValidator) register(eventType, uri string, schemaJSON []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return fmt.Errorf("failed to parse schema JSON: %w", err)
	}
	if err := v.compiler.AddResource(uri, doc); err != nil {
		return fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiled, err := v.compiler.Compile(uri)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}
	v.schemas[eventType] = compiled
	return nil
}

// ValidateEvent validates a CloudEvent's data against the schema for its type.
func (v *EventValidator) ValidateEvent(event CloudEvent) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}

	schema, ok := v.schemas[event.Type]
	if !ok {
		return fmt.Errorf("no schema found for event type: %s", event.Type)
	}

	if event.Data == nil {
		return fmt.Errorf("event data is required")
	}

	// Round-trip through JSON so struct payloads validate as they go on the wire.
	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	data, err := jsonschema.UnmarshalJSON(bytes.NewReader(dataJSON))
	if err != nil {
		return fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	if err := schema.Validate(data); err != nil {
		return fmt.Errorf("event data validation failed for type %s: %w", event.Type, err)
	}

	return nil
}

// ValidateEventJSON validates a CloudEvent from JSON bytes.
func (v *EventValidator) ValidateEventJSON(eventJSON []byte) error {
	var event CloudEvent
	if err := json.Unmarshal(eventJSON, &event); err != nil {
		return fmt.Errorf("failed to parse CloudEvent: %w", err)
	}
	if !strings.HasPrefix(event.SpecVersion, "1.") {
		return fmt.Errorf("unsupported CloudEvents specversion %q", event.SpecVersion)
	}
	return v.ValidateEvent(event)
}

// SupportedEventTypes returns the event types with a registered schema, sorted.
func (v *EventValidator) SupportedEventTypes() []string {
	types := make([]string, 0, len(v.schemas))
	for eventType := range v.schemas {
		types = append(types, eventType)
	}
	sort.Strings(types)
	return types
}
