package accent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"accentscan/internal/config"
	"accentscan/internal/logging"
	"accentscan/internal/services"
	"accentscan/internal/services/llm"
)

type stubVerdicts struct {
	verdict llm.AccentVerdict
	err     error
	calls   int
}

func (s *stubVerdicts) ClassifyAccent(context.Context, string) (llm.AccentVerdict, error) {
	s.calls++
	return s.verdict, s.err
}

func newStubLLM(stub *stubVerdicts) *LLM {
	return &LLM{client: stub, model: "stub", logger: logging.NewNop()}
}

func TestLLMClassify(t *testing.T) {
	stub := &stubVerdicts{verdict: llm.AccentVerdict{Accent: "british", Confidence: 0.82, Reason: "Uses lorry."}}
	got, err := newStubLLM(stub).Classify(context.Background(), "Put it in the lorry.")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Label != British || got.Confidence != 82 || got.Explanation != "Uses lorry." || got.Method != MethodLLM {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestLLMClassifyDefaultsExplanation(t *testing.T) {
	stub := &stubVerdicts{verdict: llm.AccentVerdict{Accent: "American", Confidence: 0.6}}
	got, err := newStubLLM(stub).Classify(context.Background(), "grab the truck")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !strings.Contains(got.Explanation, "American") || !strings.Contains(got.Explanation, "60%") {
		t.Fatalf("unexpected explanation %q", got.Explanation)
	}
}

func TestLLMClassifyNone(t *testing.T) {
	stub := &stubVerdicts{verdict: llm.AccentVerdict{Accent: "None", Confidence: 0.9, Reason: "No regional words."}}
	got, err := newStubLLM(stub).Classify(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Label != NoAccent || got.Confidence != 0 || got.Explanation != "No regional words." {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestLLMClassifyEmptyTranscriptSkipsRequest(t *testing.T) {
	stub := &stubVerdicts{}
	got, err := newStubLLM(stub).Classify(context.Background(), "  ")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("expected no request, got %d", stub.calls)
	}
	if got.Detected() {
		t.Fatalf("expected no accent, got %+v", got)
	}
}

func TestLLMClassifyError(t *testing.T) {
	stub := &stubVerdicts{err: errors.New("boom")}
	if _, err := newStubLLM(stub).Classify(context.Background(), "hello"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestAutoFallsBackToKeywords(t *testing.T) {
	stub := &stubVerdicts{err: errors.New("http 503")}
	auto := NewAuto(newStubLLM(stub), NewKeyword(config.Keywords{}), logging.NewNop())
	got, err := auto.Classify(context.Background(), "see you this arvo, mate")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Method != MethodKeyword || got.Label != Australian || got.Confidence != 100 {
		t.Fatalf("unexpected fallback result: %+v", got)
	}
	if got.Fallback == "" {
		t.Fatal("expected fallback reason")
	}
}

func TestAutoUsesPrimaryWhenHealthy(t *testing.T) {
	stub := &stubVerdicts{verdict: llm.AccentVerdict{Accent: "Australian", Confidence: 0.7, Reason: "arvo"}}
	auto := NewAuto(newStubLLM(stub), NewKeyword(config.Keywords{}), logging.NewNop())
	got, err := auto.Classify(context.Background(), "this arvo")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Method != MethodLLM || got.Fallback != "" {
		t.Fatalf("expected llm result, got %+v", got)
	}
}

func TestAutoDoesNotMaskCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stub := &stubVerdicts{err: context.Canceled}
	auto := NewAuto(newStubLLM(stub), NewKeyword(config.Keywords{}), logging.NewNop())
	if _, err := auto.Classify(ctx, "mate"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestNewSelectsClassifier(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = ""

	cfg.Classifier.Mode = config.ClassifierModeAuto
	c, err := New(&cfg, logging.NewNop())
	if err != nil || c.Name() != MethodKeyword {
		t.Fatalf("auto without key should be keyword, got %v, %v", c, err)
	}

	cfg.Classifier.Mode = config.ClassifierModeLLM
	if _, err := New(&cfg, logging.NewNop()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	cfg.LLM.APIKey = "key"
	if c, err = New(&cfg, logging.NewNop()); err != nil || c.Name() != MethodLLM {
		t.Fatalf("expected llm classifier, got %v, %v", c, err)
	}

	cfg.Classifier.Mode = config.ClassifierModeAuto
	if c, err = New(&cfg, logging.NewNop()); err != nil || c.Name() != config.ClassifierModeAuto {
		t.Fatalf("expected auto classifier, got %v, %v", c, err)
	}
}

func TestAutoEndToEndAgainstServer(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []any{map[string]any{"message": map[string]any{
					"content": `{"accent":"British","confidence":0.9,"reason":"colour and lorry"}`,
				}}},
			})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Classifier.Mode = config.ClassifierModeAuto
	cfg.LLM.APIKey = "key"
	cfg.LLM.BaseURL = server.URL
	c, err := New(&cfg, logging.NewNop(), llm.WithRetryBackoff(0, 0), llm.WithSleeper(func(time.Duration) {}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := c.Classify(context.Background(), "the lorry was a lovely colour")
	if err != nil || first.Method != MethodLLM || first.Label != British || first.Confidence != 90 {
		t.Fatalf("unexpected first result %+v, %v", first, err)
	}
	second, err := c.Classify(context.Background(), "the lorry was a lovely colour")
	if err != nil || second.Method != MethodKeyword || second.Label != British {
		t.Fatalf("expected keyword fallback, got %+v, %v", second, err)
	}
}
