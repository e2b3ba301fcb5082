package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"AgriConnect/internal/domain/order"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go"
)

var _ order.OutcomeSink = (*OutcomeSink)(nil)

// OutcomeSink indexes every reconciliation outcome so data-integrity drops,
// which the provider never sees, stay searchable.
type OutcomeSink struct {
	client *opensearch.Client
	index  string
}

func NewOutcomeSink(ctx context.Context, urls []string, index string) (*OutcomeSink, error) {
	if len(urls) == 0 {
		return nil, errors.New("no OpenSearch addresses configured")
	}

	cfg := opensearch.Config{
		Addresses: urls,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
		},
	}
	client, err := opensearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("opensearch client: %w", err)
	}

	sink := &OutcomeSink{client: client, index: index}
	if err := sink.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return sink, nil
}

func (s *OutcomeSink) ensureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("indices.exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	body := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"outcome":             map[string]any{"type": "keyword"},
				"event_type":          map[string]any{"type": "keyword"},
				"provider_order_id":   map[string]any{"type": "keyword"},
				"provider_payment_id": map[string]any{"type": "keyword"},
				"buyer_id":            map[string]any{"type": "keyword"},
				"order_ids":           map[string]any{"type": "keyword"},
				"correlation_id":      map[string]any{"type": "keyword"},
				"reason":              map[string]any{"type": "text"},
				"coercions":           map[string]any{"type": "object", "enabled": true},
				"received_at":         map[string]any{"type": "date"},
				"completed_at":        map[string]any{"type": "date"},
			},
		},
		"settings": map[string]any{
			"number_of_replicas": 0,
		},
	}
	buf, _ := json.Marshal(body)
	cr, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(bytes.NewReader(buf)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("indices.create: %w", err)
	}
	defer cr.Body.Close()
	if cr.IsError() {
		return fmt.Errorf("indices.create error: %s", cr.String())
	}
	return nil
}

func (s *OutcomeSink) RecordOutcome(ctx context.Context, outcome order.Outcome) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(payload),
		s.client.Index.WithDocumentID(uuid.NewString()),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index error: %s", res.String())
	}
	return nil
}

// GetOutcomes returns the recorded outcomes of one payment, oldest first.
func (s *OutcomeSink) GetOutcomes(ctx context.Context, providerOrderID, providerPaymentID string) ([]order.Outcome, error) {
	body := map[string]any{
		"size": 100,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{"provider_order_id": providerOrderID}},
					{"term": map[string]any{"provider_payment_id": providerPaymentID}},
				},
			},
		},
		"sort": []map[string]any{
			{"completed_at": map[string]any{"order": "asc"}},
		},
	}
	raw, _ := json.Marshal(body)

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(raw)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var sr struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search: %w", err)
	}

	out := make([]order.Outcome, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		var o order.Outcome
		if err := json.Unmarshal(h.Source, &o); err != nil {
			return nil, fmt.Errorf("decode hit: %w", err)
		}
		out = append(out, o)
	}
	return out, nil
}
