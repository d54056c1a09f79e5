package accent

import (
	"context"
	"fmt"
	"strings"
)

// Accent labels.
const (
	British    = "British"
	American   = "American"
	Australian = "Australian"
	// NoAccent is reported when nothing in the transcript points to a region.
	NoAccent = "No accent detected"
)

// Method names the classifier that produced a result.
const (
	MethodKeyword = "keyword"
	MethodLLM     = "llm"
)

const noKeywordsExplanation = "No accent keywords detected in the transcription."

// Scores holds the number of distinct markers found per accent.
type Scores struct {
	British    int `json:"british"`
	American   int `json:"american"`
	Australian int `json:"australian"`
}

// Total sums all accent scores.
func (s Scores) Total() int {
	return s.British + s.American + s.Australian
}

// Result is a classification verdict.
type Result struct {
	Label string `json:"accent"`
	// Confidence is an integer percentage between 0 and 100.
	Confidence  int      `json:"confidence"`
	Explanation string   `json:"explanation"`
	Method      string   `json:"method"`
	Scores      Scores   `json:"scores"`
	Matched     []string `json:"matched,omitempty"`
	// Fallback explains why the auto classifier used keywords instead of the LLM.
	Fallback string `json:"fallback,omitempty"`
}

// Detected reports whether an accent label was assigned.
func (r Result) Detected() bool {
	return r.Label != "" && r.Label != NoAccent
}

// Classifier labels transcript text.
type Classifier interface {
	Classify(ctx context.Context, transcript string) (Result, error)
	Name() string
}

func noAccent(method, explanation string, scores Scores) Result {
	if explanation == "" {
		explanation = noKeywordsExplanation
	}
	return Result{
		Label:       NoAccent,
		Confidence:  0,
		Explanation: explanation,
		Method:      method,
		Scores:      scores,
	}
}

func keywordExplanation(label string, confidence int) string {
	return fmt.Sprintf("Detected keywords suggest %s accent with confidence %d%%.", label, confidence)
}

// NormalizeLabel maps free-form accent names onto the supported labels.
// Anything unrecognised becomes NoAccent.
func NormalizeLabel(label string) string {
	value := strings.ToLower(strings.TrimSpace(label))
	switch {
	case value == "":
		return NoAccent
	case strings.Contains(value, "austral"), strings.Contains(value, "aussie"):
		return Australian
	case strings.Contains(value, "brit"), value == "uk", strings.Contains(value, "england"):
		return British
	case strings.Contains(value, "americ"), value == "us", value == "usa":
		return American
	default:
		return NoAccent
	}
}
