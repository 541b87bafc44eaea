// Package notifications consumes external payment notifications and folds
// them into the order state by re-reading the gateway's authoritative status.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/andresfq/go-checkout/internal/checkout"
	kafkax "github.com/andresfq/go-checkout/internal/kafka"
	"github.com/andresfq/go-checkout/internal/redisx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type Service struct {
	Reconciler  *checkout.Reconciler
	Redis       *redis.Client
	Fulfilled   *kafkax.Producer
	ServiceName string
}

// HandlePaymentNotification is the consumer handler for payment.notifications.
// The notification's status field is untrusted; reconciliation always asks
// the gateway directly.
func (s *Service) HandlePaymentNotification(ctx context.Context, m kafkago.Message) error {
	var env checkout.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != checkout.EventPaymentStatusChanged {
		return nil // ignore foreign events on the topic
	}

	// dedup by event id so redelivery cannot re-run reconciliation
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifications", env.EventID)
	claimed, err := redisx.ClaimOnce(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	payload, err := kafkax.UnwrapPayload[checkout.PaymentStatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	view, err := s.Reconciler.Reconcile(ctx, payload.OrderID)
	if err != nil {
		switch checkout.KindOf(err) {
		case checkout.KindTransactionNotFound, checkout.KindNotProcessed:
			// nothing to reconcile; commit and move on
			log.Printf("notification for order %s skipped: %v", payload.OrderID, err)
			return nil
		default:
			return err
		}
	}

	if view.JustFulfilled {
		s.publishFulfilled(view, env.TraceID)
	}
	return nil
}

func (s *Service) publishFulfilled(view *checkout.StatusView, trace string) {
	if s.Fulfilled == nil {
		return
	}
	ev := checkout.Envelope{
		EventID:       uuid.NewString(),
		EventType:     checkout.EventOrderFulfilled,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: view.OrderID,
		Payload: kafkax.MustMarshal(checkout.OrderFulfilledPayload{
			OrderID:   view.OrderID,
			Reference: view.Reference,
			SessionID: view.SessionID,
		}),
	}
	s.Fulfilled.Publish(checkout.PartitionKey(view.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(checkout.EventOrderFulfilled)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
