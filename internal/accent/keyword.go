package accent

import (
	"context"
	"slices"
	"strings"

	"accentscan/internal/config"
	"accentscan/internal/textutil"
)

// inflections are the suffixes accepted after a keyword so that plurals,
// verb forms and adjectives still count ("cookies", "realised", "colourful").
var inflections = []string{"s", "es", "'s", "d", "ed", "ing", "r", "rs", "ful"}

// marker is one configured keyword. A phrase matches as consecutive words;
// only its last word may be inflected.
type marker struct {
	text  string
	lead  []string
	forms map[string]struct{}
}

func newMarker(text string) (marker, bool) {
	words := textutil.Words(text)
	if len(words) == 0 {
		return marker{}, false
	}
	last := words[len(words)-1]
	forms := make(map[string]struct{})
	for _, form := range keywordForms(last) {
		forms[form] = struct{}{}
	}
	return marker{text: strings.Join(words, " "), lead: words[:len(words)-1], forms: forms}, true
}

func (m marker) in(words []string) bool {
	n := len(m.lead)
	for i := n; i < len(words); i++ {
		if _, ok := m.forms[words[i]]; !ok {
			continue
		}
		if slices.Equal(words[i-n:i], m.lead) {
			return true
		}
	}
	return false
}

// Keyword scores a transcript by regional marker words and phrases.
type Keyword struct {
	british    []marker
	american   []marker
	australian []marker
}

// NewKeyword constructs a keyword classifier. Empty lists fall back to the
// built-in markers.
func NewKeyword(keywords config.Keywords) *Keyword {
	defaults := config.DefaultKeywords()
	pick := func(list, fallback []string) []marker {
		out := make([]marker, 0, len(list))
		for _, word := range list {
			if m, ok := newMarker(word); ok {
				out = append(out, m)
			}
		}
		if len(out) > 0 {
			return out
		}
		for _, word := range fallback {
			if m, ok := newMarker(word); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return &Keyword{
		british:    pick(keywords.British, defaults.British),
		american:   pick(keywords.American, defaults.American),
		australian: pick(keywords.Australian, defaults.Australian),
	}
}

// Name identifies the classifier.
func (k *Keyword) Name() string { return MethodKeyword }

// Classify scores transcript. It never fails; an empty transcript yields
// the no-accent result. Ties resolve in the order British, American,
// Australian, and confidence is floor(score / total * 100).
func (k *Keyword) Classify(_ context.Context, transcript string) (Result, error) {
	words := textutil.Words(transcript)

	var matched []string
	count := func(markers []marker) int {
		score := 0
		for _, m := range markers {
			if m.in(words) {
				score++
				matched = append(matched, m.text)
			}
		}
		return score
	}
	scores := Scores{
		British:    count(k.british),
		American:   count(k.american),
		Australian: count(k.australian),
	}

	total := scores.Total()
	if total == 0 {
		return noAccent(MethodKeyword, "", scores), nil
	}

	label, best := British, scores.British
	if scores.American > best {
		label, best = American, scores.American
	}
	if scores.Australian > best {
		label, best = Australian, scores.Australian
	}
	confidence := best * 100 / total

	return Result{
		Label:       label,
		Confidence:  confidence,
		Explanation: keywordExplanation(label, confidence),
		Method:      MethodKeyword,
		Scores:      scores,
		Matched:     matched,
	}, nil
}

// keywordForms lists the spellings accepted for keyword. Words shorter than
// three letters only match exactly, so "ta" never counts "tad" or "tar".
func keywordForms(keyword string) []string {
	if len(keyword) < 3 {
		return []string{keyword}
	}
	forms := make([]string, 0, len(inflections)+4)
	forms = append(forms, keyword)
	for _, suffix := range inflections {
		forms = append(forms, keyword+suffix)
	}
	switch {
	case strings.HasSuffix(keyword, "e"):
		stem := strings.TrimSuffix(keyword, "e")
		forms = append(forms, stem+"ing")
	case strings.HasSuffix(keyword, "y"):
		stem := strings.TrimSuffix(keyword, "y")
		forms = append(forms, stem+"ies", stem+"ied")
	}
	return forms
}
