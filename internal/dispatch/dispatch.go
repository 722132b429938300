// Package dispatch forwards committed notifications to downstream consumers
// (push workers, mailers). Publishing happens after the owning transaction
// commits; a failure here never undoes a business operation.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/shinyyama/harvest-market-backend/internal/model"
)

type Publisher interface {
	Publish(ctx context.Context, notifications []model.Notification) error
}

// Event is the JSON body of one published message.
type Event struct {
	ID          uint64    `json:"id"`
	RecipientID uint64    `json:"recipientId"`
	ActorID     uint64    `json:"actorId"`
	PreOrderID  uint64    `json:"preOrderId"`
	FarmID      *uint64   `json:"farmId,omitempty"`
	ReferenceID *uint64   `json:"referenceId,omitempty"`
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewEvent(n model.Notification) Event {
	return Event{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		ActorID:     n.ActorID,
		PreOrderID:  n.PreOrderID,
		FarmID:      n.FarmID,
		ReferenceID: n.ReferenceID,
		Type:        string(n.Type),
		Message:     n.Message,
		CreatedAt:   n.CreatedAt,
	}
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []model.Notification) error { return nil }

type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

func NewPubSubPublisher(ctx context.Context, projectID, topicID string) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &PubSubPublisher{client: client, topic: client.Topic(topicID)}, nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, notifications []model.Notification) error {
	results := make([]*pubsub.PublishResult, 0, len(notifications))
	for _, n := range notifications {
		data, err := json.Marshal(NewEvent(n))
		if err != nil {
			return err
		}
		results = append(results, p.topic.Publish(ctx, &pubsub.Message{
			Data: data,
			Attributes: map[string]string{
				"type":        string(n.Type),
				"recipientId": strconv.FormatUint(n.RecipientID, 10),
			},
		}))
	}
	var errs []error
	for _, r := range results {
		if _, err := r.Get(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
