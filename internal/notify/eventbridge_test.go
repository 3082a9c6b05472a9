package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/eventbridge"
	"github.com/aws/aws-sdk-go/service/eventbridge/eventbridgeiface"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeEventBridge struct {
	eventbridgeiface.EventBridgeAPI
	input *eventbridge.PutEventsInput
	out   *eventbridge.PutEventsOutput
	err   error
}

func (f *fakeEventBridge) PutEventsWithContext(_ aws.Context, in *eventbridge.PutEventsInput, _ ...request.Option) (*eventbridge.PutEventsOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return &eventbridge.PutEventsOutput{FailedEntryCount: aws.Int64(0)}, nil
}

func TestEventBridgePublisher_Publish(t *testing.T) {
	client := &fakeEventBridge{}
	pub := NewEventBridgePublisherWithClient(client, "skillsforge-bus")

	err := pub.Publish(context.Background(), Event{
		Source: SourceRegistrations,
		Type:   StudentRegistered,
		Detail: StudentRegisteredDetail{WorkshopID: "w1", StudentID: "s1"},
	})
	require.NoError(t, err)

	require.Len(t, client.input.Entries, 1)
	entry := client.input.Entries[0]
	require.Equal(t, SourceRegistrations, aws.StringValue(entry.Source))
	require.Equal(t, StudentRegistered, aws.StringValue(entry.DetailType))
	require.Equal(t, "skillsforge-bus", aws.StringValue(entry.EventBusName))

	var detail map[string]any
	require.NoError(t, json.Unmarshal([]byte(aws.StringValue(entry.Detail)), &detail))
	require.Equal(t, "w1", detail["workshopId"])
	require.Equal(t, "s1", detail["studentId"])
}

func TestEventBridgePublisher_Errors(t *testing.T) {
	client := &fakeEventBridge{err: awserr.New("ThrottlingException", "slow down", nil)}
	pub := NewEventBridgePublisherWithClient(client, "")

	err := pub.Publish(context.Background(), Event{Type: WorkshopCreated})
	require.ErrorContains(t, err, "ThrottlingException")
	require.Nil(t, client.input.Entries[0].EventBusName, "empty bus name targets the default bus")

	client.err = nil
	client.out = &eventbridge.PutEventsOutput{
		FailedEntryCount: aws.Int64(1),
		Entries: []*eventbridge.PutEventsResultEntry{
			{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("boom")},
		},
	}
	err = pub.Publish(context.Background(), Event{Type: WorkshopCreated})
	require.ErrorContains(t, err, "InternalFailure")
}

func TestRedisPublisher_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	pub := NewRedisPublisher(client, "skillsforge_events")
	t.Cleanup(func() { _ = pub.Close() })

	err := pub.Publish(context.Background(), Event{Type: WorkshopCreated, Detail: map[string]string{"a": "b"}})
	require.Error(t, err)
	require.ErrorContains(t, err, "skillsforge_events")
	require.False(t, errors.Is(err, redis.Nil))
}
