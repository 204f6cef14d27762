package application

import (
	"context"

	"github.com/YashPS24/CAQMS/pkg/cloudevents"
)

// EventPublisher delivers integration events. A nil publisher disables events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error
}
