// Package llm provides an OpenRouter-compatible chat client used to classify
// the accent of a transcript.
//
// Requests ask for JSON output. When a reply type is supplied the client
// reflects it into a JSON schema (invopop/jsonschema) and sends it both as a
// structured response_format and inside the system prompt, since not every
// routed model honours response_format.
//
// The client retries on HTTP 408/429/5xx, empty content, and network
// timeouts with exponential backoff (base 1s, max 10s, up to 5 attempts by
// default). Context cancellation aborts retries immediately.
//
// Entry points: NewClient, Client.CompleteJSON, Client.ClassifyAccent,
// Client.HealthCheck, and DecodeLLMJSON for tolerant parsing of replies.
package llm
