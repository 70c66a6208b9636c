package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mehdiyara/stockroom/internal/model"
	"github.com/mehdiyara/stockroom/internal/repository"
)

// StartConsumer connects to RabbitMQ, declares the activity queue and
// writes each delivered event into the activities table.  It runs a
// reconnect loop with exponential backoff and never returns in normal
// operation; malformed messages are rejected without requeue so a bad
// payload cannot spin the consumer.
func StartConsumer(url string, activities *repository.ActivityRepo) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("audit-consumer: dial broker failed: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn, activities); err != nil {
			log.Printf("audit-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, activities *repository.ActivityRepo) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("audit-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(ActivityQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(ActivityQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleDelivery(d.Body, activities); err != nil {
			log.Printf("audit-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleDelivery(body []byte, activities *repository.ActivityRepo) error {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if _, ok := model.ParseAction(string(e.Action)); !ok {
		return fmt.Errorf("unknown action %q", e.Action)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return activities.Insert(ctx, &model.Activity{
		ID:          uuid.NewString(),
		Action:      e.Action,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Message:     e.Message,
		PerformedBy: e.PerformedBy,
	})
}
