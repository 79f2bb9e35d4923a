package classify

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/changelens/internal/models"
)

type mockClassifier struct {
	mock.Mock
	category models.Category
}

func newMockClassifier(category models.Category) *mockClassifier {
	return &mockClassifier{category: category}
}

func (m *mockClassifier) Category() models.Category {
	return m.category
}

func (m *mockClassifier) Classify(ctx context.Context, cleaned string, cc models.ClassificationContext) (models.ClassifierOutcome, error) {
	args := m.Called(ctx, cleaned, cc)
	return args.Get(0).(models.ClassifierOutcome), args.Error(1)
}

// funcClassifier runs an arbitrary function, for blocking and panicking cases.
type funcClassifier struct {
	category models.Category
	fn       func(ctx context.Context) (models.ClassifierOutcome, error)
}

func (f *funcClassifier) Category() models.Category {
	return f.category
}

func (f *funcClassifier) Classify(ctx context.Context, _ string, _ models.ClassificationContext) (models.ClassifierOutcome, error) {
	return f.fn(ctx)
}

type recordedCall struct {
	category string
	status   string
}

type fakeObserver struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (o *fakeObserver) ObserveClassifierCall(_ context.Context, category string, status string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, recordedCall{category: category, status: status})
}

func outcome(category models.Category, verdict bool, confidence float64, reasoning string) models.ClassifierOutcome {
	return models.ClassifierOutcome{
		Category:   category,
		Verdict:    verdict,
		Confidence: confidence,
		Reasoning:  reasoning,
	}
}
