package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func contentServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "stop",
					"message":       map[string]any{"content": content},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func quickClient(baseURL string, opts ...Option) *Client {
	opts = append([]Option{WithRetryBackoff(0, 0), WithSleeper(func(time.Duration) {})}, opts...)
	return NewClient(Config{APIKey: "test", BaseURL: baseURL, Model: "demo-model"}, opts...)
}

func TestClientHealthCheck(t *testing.T) {
	server := contentServer(t, `{"ok":true}`)
	if err := quickClient(server.URL).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server := contentServer(t, "```json\n{\"ok\":true}\n```")
	if err := quickClient(server.URL).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	err := quickClient(server.URL).HealthCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "http 401") {
		t.Fatalf("expected 401 failure, got %v", err)
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{Model: "demo"})
	if client.Configured() {
		t.Fatal("expected unconfigured client")
	}
	if _, err := client.ClassifyAccent(context.Background(), "hello mate"); err == nil || !strings.Contains(err.Error(), "api key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestClassifyAccentSendsSchema(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{
				"content": `{"accent":"British","confidence":0.82,"reason":"uses lorry and colour"}`,
			}}},
		})
	}))
	defer server.Close()

	verdict, err := quickClient(server.URL).ClassifyAccent(context.Background(), "The lorry was a lovely colour.")
	if err != nil {
		t.Fatalf("ClassifyAccent returned error: %v", err)
	}
	if verdict.Accent != "British" || verdict.Confidence != 0.82 {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
	if captured.Model != "demo-model" {
		t.Fatalf("unexpected model %q", captured.Model)
	}
	if captured.ResponseFormat["type"] != schemaResponseType {
		t.Fatalf("expected json_schema response format, got %v", captured.ResponseFormat)
	}
	spec, ok := captured.ResponseFormat["json_schema"].(map[string]any)
	if !ok || spec["name"] != accentSchemaName {
		t.Fatalf("unexpected json_schema block: %v", captured.ResponseFormat["json_schema"])
	}
	if len(captured.Messages) != 2 || !strings.Contains(captured.Messages[0].Content, `"accent"`) {
		t.Fatalf("expected schema embedded in system prompt, got %+v", captured.Messages)
	}
	if !strings.Contains(captured.Messages[1].Content, "lorry") {
		t.Fatalf("expected transcript in user prompt, got %q", captured.Messages[1].Content)
	}
}

func TestClassifyAccentNormalizesPercentConfidence(t *testing.T) {
	server := contentServer(t, "Here you go:\n```json\n{\"accent\":\" Australian \",\"confidence\":85,\"reason\":\"arvo\"}\n```")
	verdict, err := quickClient(server.URL).ClassifyAccent(context.Background(), "see you this arvo")
	if err != nil {
		t.Fatalf("ClassifyAccent returned error: %v", err)
	}
	if verdict.Accent != "Australian" {
		t.Fatalf("expected trimmed accent, got %q", verdict.Accent)
	}
	if verdict.Confidence != 0.85 {
		t.Fatalf("expected confidence 0.85, got %v", verdict.Confidence)
	}
	if !strings.Contains(verdict.Raw, "```") {
		t.Fatalf("expected raw payload to keep code fence, got %q", verdict.Raw)
	}
}

func TestClassifyAccentRejectsEmptyTranscript(t *testing.T) {
	if _, err := quickClient("http://127.0.0.1:0").ClassifyAccent(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestClientToolCallArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{
				"finish_reason": "tool_calls",
				"message": map[string]any{
					"content": "",
					"tool_calls": []any{map[string]any{
						"type": "function",
						"id":   "call_1",
						"function": map[string]any{
							"name":      "accent_verdict",
							"arguments": `{"accent":"American","confidence":0.6,"reason":"truck"}`,
						},
					}},
				},
			}},
		})
	}))
	defer server.Close()

	verdict, err := quickClient(server.URL).ClassifyAccent(context.Background(), "load the truck")
	if err != nil {
		t.Fatalf("ClassifyAccent returned error: %v", err)
	}
	if verdict.Accent != "American" {
		t.Fatalf("expected American, got %q", verdict.Accent)
	}
}

func TestClientDeltaAndLegacyText(t *testing.T) {
	for name, choice := range map[string]map[string]any{
		"delta": {"delta": map[string]any{"content": `{"ok":true}`}},
		"text":  {"finish_reason": "stop", "text": `{"ok":true}`},
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{choice}})
			}))
			defer server.Close()
			if err := quickClient(server.URL).HealthCheck(context.Background()); err != nil {
				t.Fatalf("HealthCheck returned error: %v", err)
			}
		})
	}
}

func TestClientEmptyContentHasSnippet(t *testing.T) {
	server := contentServer(t, "")
	_, err := quickClient(server.URL, WithRetryMaxAttempts(2)).CompleteJSON(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected completion to fail")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": `{"ok":true}`}}},
		})
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	if _, err := quickClient(server.URL).CompleteJSON(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	client := NewClient(Config{}, WithRetryBackoff(time.Second, 5*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	for i, expected := range want {
		if got := client.backoffDelay(i + 1); got != expected {
			t.Fatalf("attempt %d: got %s want %s", i+1, got, expected)
		}
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	var out struct {
		Accent string `json:"accent"`
	}
	if err := DecodeLLMJSON("Sure! {\"accent\":\"British\"} hope that helps", &out); err != nil {
		t.Fatalf("DecodeLLMJSON: %v", err)
	}
	if out.Accent != "British" {
		t.Fatalf("unexpected accent %q", out.Accent)
	}
	if err := DecodeLLMJSON("", &out); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if err := DecodeLLMJSON("not json at all", &out); err == nil || !strings.Contains(err.Error(), "payload snippet") {
		t.Fatalf("expected snippet in error, got %v", err)
	}
}

func TestSchemaForAccentVerdict(t *testing.T) {
	schema, err := SchemaFor[AccentVerdict]()
	if err != nil {
		t.Fatalf("SchemaFor: %v", err)
	}
	if _, ok := schema["$schema"]; ok {
		t.Fatal("expected $schema to be stripped")
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties map, got %T", schema["properties"])
	}
	for _, key := range []string{"accent", "confidence", "reason"} {
		if _, ok := props[key]; !ok {
			t.Fatalf("schema missing %q: %v", key, props)
		}
	}
	if _, ok := props["Raw"]; ok {
		t.Fatal("raw field must not be part of the schema")
	}
	if schema["additionalProperties"] != false {
		t.Fatalf("expected additionalProperties false, got %v", schema["additionalProperties"])
	}
}
