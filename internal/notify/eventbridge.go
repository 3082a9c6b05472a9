package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/eventbridge"
	"github.com/aws/aws-sdk-go/service/eventbridge/eventbridgeiface"
)

// EventBridgePublisher puts events on an Amazon EventBridge bus.
type EventBridgePublisher struct {
	client eventbridgeiface.EventBridgeAPI
	bus    string
}

// NewEventBridgePublisher builds a publisher from an AWS session for region.
func NewEventBridgePublisher(region, bus string) (*EventBridgePublisher, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return NewEventBridgePublisherWithClient(eventbridge.New(sess), bus), nil
}

// NewEventBridgePublisherWithClient wraps an existing client.
func NewEventBridgePublisherWithClient(client eventbridgeiface.EventBridgeAPI, bus string) *EventBridgePublisher {
	return &EventBridgePublisher{client: client, bus: bus}
}

func (p *EventBridgePublisher) Publish(ctx context.Context, evt Event) error {
	detail, err := json.Marshal(evt.Detail)
	if err != nil {
		return fmt.Errorf("encode detail: %w", err)
	}
	entry := &eventbridge.PutEventsRequestEntry{
		Source:     aws.String(evt.Source),
		DetailType: aws.String(evt.Type),
		Detail:     aws.String(string(detail)),
	}
	if p.bus != "" {
		entry.EventBusName = aws.String(p.bus)
	}
	out, err := p.client.PutEventsWithContext(ctx, &eventbridge.PutEventsInput{
		Entries: []*eventbridge.PutEventsRequestEntry{entry},
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			return fmt.Errorf("put events: %s: %w", aerr.Code(), err)
		}
		return fmt.Errorf("put events: %w", err)
	}
	if aws.Int64Value(out.FailedEntryCount) > 0 {
		for _, e := range out.Entries {
			if e != nil && e.ErrorCode != nil {
				return fmt.Errorf("put events: entry rejected: %s: %s",
					aws.StringValue(e.ErrorCode), aws.StringValue(e.ErrorMessage))
			}
		}
		return fmt.Errorf("put events: %d entries failed", aws.Int64Value(out.FailedEntryCount))
	}
	return nil
}
