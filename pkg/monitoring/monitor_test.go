package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAttemptCountsCompletionsOnlyWhenPromoted(t *testing.T) {
	beforePassed := testutil.ToFloat64(QuizAttempts.WithLabelValues("true"))
	beforeCompleted := testutil.ToFloat64(CourseCompletions)

	ObserveAttempt(80, true, true)
	ObserveAttempt(90, true, false)

	if got := testutil.ToFloat64(QuizAttempts.WithLabelValues("true")) - beforePassed; got != 2 {
		t.Fatalf("expected 2 passed attempts, got %v", got)
	}
	if got := testutil.ToFloat64(CourseCompletions) - beforeCompleted; got != 1 {
		t.Fatalf("expected 1 completion, got %v", got)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()
}
