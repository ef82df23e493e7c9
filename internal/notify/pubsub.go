package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
)

// PubSubNotifier publishes alerts to a Google Cloud Pub/Sub topic as
// JSON messages. Kind and severity travel as attributes so subscribers
// can filter without decoding the payload.
type PubSubNotifier struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubNotifier connects to the given project and topic.
func NewPubSubNotifier(ctx context.Context, projectID, topicID string) (*PubSubNotifier, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	return &PubSubNotifier{
		client: client,
		topic:  client.Topic(topicID),
	}, nil
}

// Notify implements Notifier.
func (n *PubSubNotifier) Notify(ctx context.Context, alert chart.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}

	result := n.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"kind":     string(alert.Kind),
			"severity": string(alert.Severity),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

// Close implements Notifier.
func (n *PubSubNotifier) Close() error {
	n.topic.Stop()
	return n.client.Close()
}
