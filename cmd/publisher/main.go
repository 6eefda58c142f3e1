package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/example/cart-sync-service/internal/config"
	"github.com/example/cart-sync-service/internal/domain"
)

// Публикует тестовые события каталога в fanout-обменник: либо JSON со stdin
// (-raw), либо сгенерированное событие заданного вида.
func main() {
	event := flag.String("event", "updated", "event to publish: updated | deleted | category")
	raw := flag.Bool("raw", false, "read payload JSON from stdin instead of generating one")
	flag.Parse()

	cfg := config.Load().Rabbit

	var payload []byte
	if *raw {
		var doc map[string]any
		if err := json.NewDecoder(os.Stdin).Decode(&doc); err != nil {
			log.Fatalf("read json from stdin: %v", err)
		}
		b, err := json.Marshal(doc)
		if err != nil {
			log.Fatalf("marshal: %v", err)
		}
		payload = b
	} else {
		payload = generate(*event)
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		log.Fatalf("rabbitmq connect: %v", err)
	}
	defer conn.Close()
	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("open channel: %v", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(cfg.Exchange, "fanout", true, false, false, false, nil); err != nil {
		log.Fatalf("declare exchange: %v", err)
	}

	err = ch.PublishWithContext(context.Background(), cfg.Exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
	if err != nil {
		log.Fatalf("publish: %v", err)
	}
	log.Printf("published %d bytes to %s", len(payload), cfg.Exchange)
}

func generate(event string) []byte {
	var doc map[string]any
	switch event {
	case "deleted":
		doc = map[string]any{
			"eventType": domain.EventProductDeleted,
			"productId": uuid.NewString(),
		}
	case "category":
		doc = map[string]any{
			"eventType":  domain.EventCategoryUpdated,
			"categoryId": uuid.NewString(),
			"name":       gofakeit.ProductCategory(),
		}
	default:
		doc = map[string]any{
			"eventType":  domain.EventProductUpdated,
			"productId":  uuid.NewString(),
			"name":       gofakeit.ProductName(),
			"price":      gofakeit.Price(1, 500),
			"categoryId": uuid.NewString(),
		}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		log.Fatalf("marshal: %v", err)
	}
	return b
}
