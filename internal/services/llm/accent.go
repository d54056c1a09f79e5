package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// AccentVerdict is the reply the model must produce for a transcript.
type AccentVerdict struct {
	Accent     string  `json:"accent" jsonschema:"enum=American,enum=British,enum=Australian,enum=None" jsonschema_description:"Most likely English accent of the speaker, or None when the transcript gives no signal"`
	Confidence float64 `json:"confidence" jsonschema:"minimum=0,maximum=1" jsonschema_description:"Probability that the accent label is correct"`
	Reason     string  `json:"reason" jsonschema_description:"One or two sentences citing spelling, vocabulary, or idioms from the transcript"`
	Raw        string  `json:"-"`
}

// AccentClassificationPrompt instructs the model how to judge a transcript.
const AccentClassificationPrompt = `You classify the English accent of a speaker from a transcript of their speech.
Choose exactly one of American, British, or Australian. Base the decision on
regional vocabulary (lorry/truck, biscuit/cookie, arvo, brekkie), spelling
conventions the transcriber preserved (colour/color, realise/realize), and
idioms. Answer None when the transcript carries no regional signal.
Confidence is a number between 0 and 1. Keep the reason short and cite words
from the transcript. Respond with JSON only, matching this schema:`

const accentSchemaName = "accent_verdict"

var accentSchema = func() map[string]any {
	schema, err := SchemaFor[AccentVerdict]()
	if err != nil {
		panic(err)
	}
	return schema
}()

// ClassifyAccent asks the model to label the accent in transcript.
func (c *Client) ClassifyAccent(ctx context.Context, transcript string) (AccentVerdict, error) {
	var empty AccentVerdict
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return empty, errors.New("llm classify: transcript required")
	}
	schemaJSON, err := json.Marshal(accentSchema)
	if err != nil {
		return empty, fmt.Errorf("llm classify: encode schema: %w", err)
	}
	system := AccentClassificationPrompt + "\n" + string(schemaJSON)

	content, err := c.CompleteWithSchema(ctx, system, "Transcript:\n"+transcript, accentSchemaName, accentSchema)
	if err != nil {
		return empty, err
	}
	var parsed AccentVerdict
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return empty, fmt.Errorf("llm classify: parse payload: %w", err)
	}
	parsed.Raw = content
	parsed.Accent = strings.TrimSpace(parsed.Accent)
	parsed.Reason = strings.TrimSpace(parsed.Reason)
	switch {
	case parsed.Confidence < 0:
		parsed.Confidence = 0
	case parsed.Confidence > 1 && parsed.Confidence <= 100:
		// Some models answer in percent despite the schema.
		parsed.Confidence /= 100
	case parsed.Confidence > 100:
		parsed.Confidence = 1
	}
	return parsed, nil
}
