package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/models"
	"github.com/thomas-vilte/changelens/internal/store"
)

// LastClassificationKey is the single slot holding the latest result.
const LastClassificationKey = "last_classification"

// Subscriber receives every published result on the publishing goroutine.
type Subscriber func(ctx context.Context, record models.StoredClassification)

// ResultSink hands final results to subscribers and keeps the latest one
// in a store.
type ResultSink struct {
	store store.Store

	mu          sync.RWMutex
	subscribers []Subscriber
}

func New(s store.Store, subscribers ...Subscriber) *ResultSink {
	return &ResultSink{
		store:       s,
		subscribers: subscribers,
	}
}

func (r *ResultSink) Subscribe(fn Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Publish calls every subscriber synchronously, in subscription order.
func (r *ResultSink) Publish(ctx context.Context, record models.StoredClassification) {
	r.mu.RLock()
	subs := make([]Subscriber, len(r.subscribers))
	copy(subs, r.subscribers)
	r.mu.RUnlock()

	for _, fn := range subs {
		fn(ctx, record)
	}
}

// Persist overwrites the last-result slot.
func (r *ResultSink) Persist(ctx context.Context, record models.StoredClassification) error {
	if r.store == nil {
		return nil
	}
	return r.store.Set(ctx, LastClassificationKey, record)
}

// Deliver publishes then persists. A persistence error is returned but the
// publish has already happened.
func (r *ResultSink) Deliver(ctx context.Context, record models.StoredClassification) error {
	r.Publish(ctx, record)
	return r.Persist(ctx, record)
}

// Last reads back the persisted record, or ErrNoLastResult.
func (r *ResultSink) Last(ctx context.Context) (models.StoredClassification, error) {
	if r.store == nil {
		return models.StoredClassification{}, domainErrors.ErrNoLastResult
	}

	raw, ok, err := r.store.Get(ctx, LastClassificationKey)
	if err != nil {
		return models.StoredClassification{}, err
	}
	if !ok {
		return models.StoredClassification{}, domainErrors.ErrNoLastResult
	}

	var record models.StoredClassification
	if err := json.Unmarshal(raw, &record); err != nil {
		return models.StoredClassification{}, domainErrors.ErrStoreRead.WithError(fmt.Errorf("error decoding last classification: %w", err))
	}
	return record, nil
}
