package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPExporter POSTs entry batches to the observability ingest endpoint.
type HTTPExporter struct {
	endpoint  string
	publicKey string
	secretKey string
	client    *http.Client
}

func NewHTTPExporter(endpoint, publicKey, secretKey string) *HTTPExporter {
	return &HTTPExporter{
		endpoint:  strings.TrimRight(endpoint, "/"),
		publicKey: publicKey,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type ingestBody struct {
	Batch []Entry `json:"batch"`
}

func (e *HTTPExporter) Export(ctx context.Context, batch []Entry) error {
	b, err := json.Marshal(ingestBody{Batch: batch})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/api/ingest", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(e.publicKey, e.secretKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("ingest: %s", msg)
	}
	return nil
}

// BatchPublisher is the queue side of export; satisfied by the rabbitmq
// publisher. The worker drains the queue and POSTs to the ingest endpoint.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, body []byte) error
}

type QueueExporter struct {
	pub BatchPublisher
}

func NewQueueExporter(pub BatchPublisher) *QueueExporter {
	return &QueueExporter{pub: pub}
}

func (e *QueueExporter) Export(ctx context.Context, batch []Entry) error {
	body, err := json.Marshal(ingestBody{Batch: batch})
	if err != nil {
		return err
	}
	return e.pub.PublishBatch(ctx, body)
}
