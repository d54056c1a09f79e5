// Package accent labels a transcript as American, British, or Australian
// English.
//
// The keyword classifier counts regional spelling and vocabulary markers.
// Each marker scores once no matter how often it appears. The LLM classifier
// asks a chat model for a verdict, and the auto classifier prefers the model
// but falls back to keywords when the model cannot answer.
package accent
