package dispatch

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shinyyama/harvest-market-backend/internal/model"
)

func TestNewEventJSON(t *testing.T) {
	farmID := uint64(3)
	n := model.Notification{
		ID:          9,
		RecipientID: 2,
		ActorID:     5,
		FarmID:      &farmID,
		PreOrderID:  11,
		Type:        model.NotificationTypeOffer,
		Message:     "Farm offered 60 kg",
		CreatedAt:   time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(NewEvent(n))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["type"] != "offer" || got["preOrderId"].(float64) != 11 || got["farmId"].(float64) != 3 {
		t.Fatalf("unexpected payload: %s", data)
	}
	if _, ok := got["referenceId"]; ok {
		t.Fatalf("nil referenceId should be omitted: %s", data)
	}
}

func TestNopPublisher(t *testing.T) {
	if err := (NopPublisher{}).Publish(context.Background(), []model.Notification{{ID: 1}}); err != nil {
		t.Fatalf("nop publish: %v", err)
	}
}
