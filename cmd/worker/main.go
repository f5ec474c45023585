package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rankscout/rankscout/internal/config"
	"github.com/rankscout/rankscout/internal/store/rabbitmq"
)

const maxAttempts = 3

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

// ingestSink POSTs trace batches to the observability ingest endpoint.
type ingestSink struct {
	endpoint  string
	publicKey string
	secretKey string
	client    *http.Client
}

func (s *ingestSink) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/api/ingest", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.publicKey, s.secretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return fmt.Errorf("ingest status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}

func attempts(d amqp.Delivery) int {
	if d.Headers == nil {
		return 0
	}
	switch v := d.Headers["x-attempts"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func main() {
	cfg := config.Load()
	if cfg.RabbitURL == "" {
		log.Fatal("RABBIT_URL required")
	}
	if cfg.ObserveEndpoint == "" {
		log.Fatal("OBSERVE_ENDPOINT required")
	}

	sink := &ingestSink{
		endpoint:  strings.TrimRight(cfg.ObserveEndpoint, "/"),
		publicKey: cfg.ObservePublicKey,
		secretKey: cfg.ObserveSecretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				start := time.Now()
				err := sink.send(ctx, d.Body)
				if err == nil {
					if err := d.Ack(false); err != nil {
						log.Printf("worker=%d ack failed: %v", workerID, err)
					}
					continue
				}

				n := attempts(d) + 1
				log.Printf("worker=%d ingest failed attempt=%d cost=%s err=%v", workerID, n, time.Since(start), err)
				if n >= maxAttempts {
					// dead-letters to the DLQ
					_ = d.Nack(false, false)
					continue
				}
				if err := requeue(ctx, ch, cfg.RabbitQueue, d, n); err != nil {
					log.Printf("worker=%d requeue failed: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

// requeue parks the batch on the retry queue; after its TTL expires it
// dead-letters back onto the main queue with the attempt count bumped.
func requeue(ctx context.Context, ch *amqp.Channel, queue string, d amqp.Delivery, attempt int) error {
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return ch.PublishWithContext(pctx,
		"",
		queue+".retry",
		false,
		false,
		amqp.Publishing{
			ContentType:  d.ContentType,
			DeliveryMode: amqp.Persistent,
			Body:         d.Body,
			Expiration:   "5000",
			Headers:      amqp.Table{"x-attempts": int32(attempt)},
		},
	)
}
