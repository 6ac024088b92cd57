package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tablebook/user-service/config"
	"github.com/tablebook/user-service/internal/domain/entity"
	"github.com/tablebook/user-service/pkg/helpers"
)

// The event worker drains the domain-event queue and keeps the
// Elasticsearch users index in sync: created/updated events upsert the
// search document, deleted events remove it.

func main() {
	cfg := config.Load()
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEventsQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}

	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		log.Fatalf("elasticsearch client: %v", err)
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	if _, err := ch.QueueDeclare(cfg.RabbitMQEventsQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx := context.Background()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			var env entity.Envelope
			if err := json.Unmarshal(msg.Body, &env); err != nil {
				log.Printf("bad message: %v", err)
				_ = msg.Nack(false, false)
				continue
			}
			if err := handleEvent(ctx, es, cfg.ESUsersIndex, env); err != nil {
				log.Printf("handle %s for %s failed: %v", env.EventName, env.AggregateID, err)
				_ = msg.Nack(false, true)
				continue
			}
			_ = msg.Ack(false)
		}
		close(done)
	}()

	log.Printf("event worker listening on queue=%s", cfg.RabbitMQEventsQueue)
	<-stop
	log.Printf("shutting down...")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func handleEvent(ctx context.Context, es *elasticsearch.Client, index string, env entity.Envelope) error {
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	switch env.EventName {
	case "user.created":
		return indexDoc(c, es, index, env.AggregateID, map[string]any{
			"id":    env.AggregateID,
			"email": env.Payload["email"],
			"name":  env.Payload["name"],
			"phone": env.Payload["phone"],
		})
	case "user.updated":
		current, ok := env.Payload["currentState"].(map[string]any)
		if !ok {
			log.Printf("user.updated without currentState, skipping %s", env.AggregateID)
			return nil
		}
		return indexDoc(c, es, index, env.AggregateID, map[string]any{
			"id":    env.AggregateID,
			"email": current["email"],
			"name":  current["name"],
			"phone": current["phone"],
		})
	case "user.deleted":
		req := esapi.DeleteRequest{Index: index, DocumentID: env.AggregateID}
		res, err := req.Do(c, es)
		if err != nil {
			return err
		}
		defer func() { _ = res.Body.Close() }()
		// 404 means the doc was never indexed; nothing to undo
		if res.IsError() && res.StatusCode != 404 {
			log.Printf("es delete response %s for %s", res.Status(), env.AggregateID)
		}
		return nil
	default:
		// Unknown events are acked so the queue never wedges on them.
		return nil
	}
}

func indexDoc(ctx context.Context, es *elasticsearch.Client, index, id string, doc map[string]any) error {
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: index, DocumentID: id, Body: strings.NewReader(string(b)), Refresh: "false"}
	res, err := req.Do(ctx, es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		log.Printf("es index response %s for %s", res.Status(), id)
	}
	return nil
}
