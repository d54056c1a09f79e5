package accent

import (
	"context"
	"slices"
	"testing"

	"accentscan/internal/config"
)

func TestKeywordClassify(t *testing.T) {
	classifier := NewKeyword(config.Keywords{})
	cases := []struct {
		name        string
		text        string
		label       string
		confidence  int
		explanation string
		scores      Scores
	}{
		{
			name:        "no keywords",
			text:        "Hello there, welcome to the channel.",
			label:       NoAccent,
			confidence:  0,
			explanation: "No accent keywords detected in the transcription.",
		},
		{
			name:        "empty transcript",
			text:        "",
			label:       NoAccent,
			explanation: "No accent keywords detected in the transcription.",
		},
		{
			name:        "british only",
			text:        "My favourite colour is the one on that lorry.",
			label:       British,
			confidence:  100,
			explanation: "Detected keywords suggest British accent with confidence 100%.",
			scores:      Scores{British: 3},
		},
		{
			name:        "mixed floors confidence",
			text:        "Grab a biscuit, mate, then load the truck this arvo.",
			label:       Australian,
			confidence:  50,
			explanation: "Detected keywords suggest Australian accent with confidence 50%.",
			scores:      Scores{British: 1, American: 1, Australian: 2},
		},
		{
			name:        "thirds floor",
			text:        "color colour mate",
			label:       British,
			confidence:  33,
			explanation: "Detected keywords suggest British accent with confidence 33%.",
			scores:      Scores{British: 1, American: 1, Australian: 1},
		},
		{
			name:        "tie prefers american over australian",
			text:        "The truck stopped for brekkie.",
			label:       American,
			confidence:  50,
			explanation: "Detected keywords suggest American accent with confidence 50%.",
			scores:      Scores{American: 1, Australian: 1},
		},
		{
			name:        "repeats count once",
			text:        "cookie cookie cookies truck colour",
			label:       American,
			confidence:  66,
			explanation: "Detected keywords suggest American accent with confidence 66%.",
			scores:      Scores{British: 1, American: 2},
		},
		{
			name:       "inflections match",
			text:       "I realised the lorries were full of biscuits.",
			label:      British,
			confidence: 100,
			scores:     Scores{British: 3},
		},
		{
			name:  "substrings do not match",
			text:  "The material from Colorado was discolored.",
			label: NoAccent,
		},
		{
			name:       "compound adjectives match",
			text:       "What a colorful truckload, mates",
			label:      American,
			confidence: 50,
			scores:     Scores{American: 1, Australian: 1},
		},
		{
			name:       "case insensitive",
			text:       "REALIZE the COLOR",
			label:      American,
			confidence: 100,
			scores:     Scores{American: 2},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := classifier.Classify(context.Background(), tc.text)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got.Label != tc.label || got.Confidence != tc.confidence {
				t.Fatalf("got %s %d%%, want %s %d%%", got.Label, got.Confidence, tc.label, tc.confidence)
			}
			if tc.explanation != "" && got.Explanation != tc.explanation {
				t.Fatalf("explanation = %q, want %q", got.Explanation, tc.explanation)
			}
			if got.Scores != tc.scores {
				t.Fatalf("scores = %+v, want %+v", got.Scores, tc.scores)
			}
			if got.Method != MethodKeyword {
				t.Fatalf("method = %q", got.Method)
			}
		})
	}
}

func TestKeywordCustomLists(t *testing.T) {
	classifier := NewKeyword(config.Keywords{British: []string{" Bloke "}, American: []string{"", " "}})
	got, err := classifier.Classify(context.Background(), "That bloke bought a cookie.")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Scores.British != 1 || got.Scores.American != 1 {
		t.Fatalf("expected custom british list and default american list, got %+v", got.Scores)
	}
	if got.Label != British {
		t.Fatalf("tie should favour British, got %q", got.Label)
	}
	if !slices.Equal(got.Matched, []string{"bloke", "cookie"}) {
		t.Fatalf("unexpected matches %v", got.Matched)
	}
}

func TestKeywordPhrasesAndShortWords(t *testing.T) {
	classifier := NewKeyword(config.Keywords{
		British:    []string{"car park", "ta"},
		Australian: []string{"fair dinkum"},
	})
	cases := []struct {
		name    string
		text    string
		scores  Scores
		matched []string
	}{
		{"phrase and short word", "We left it in the car park, ta.", Scores{British: 2}, []string{"car park", "ta"}},
		{"phrase across punctuation", "Parked the car-parks full", Scores{British: 1}, []string{"car park"}},
		{"phrase words apart", "The car is in the park.", Scores{}, nil},
		{"short word not inflected", "A tad of tar.", Scores{}, nil},
		{"phrase at start", "Fair dinkum, that's ace.", Scores{Australian: 1}, []string{"fair dinkum"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := classifier.Classify(context.Background(), tc.text)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got.Scores != tc.scores {
				t.Fatalf("scores = %+v, want %+v", got.Scores, tc.scores)
			}
			if !slices.Equal(got.Matched, tc.matched) {
				t.Fatalf("matched = %v, want %v", got.Matched, tc.matched)
			}
		})
	}
}

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]string{
		"British":            British,
		" british english ":  British,
		"UK":                 British,
		"American":           American,
		"General American":   American,
		"usa":                American,
		"Australian":         Australian,
		"aussie":             Australian,
		"None":               NoAccent,
		"":                   NoAccent,
		"Irish":              NoAccent,
		"No accent detected": NoAccent,
	}
	for input, want := range cases {
		if got := NormalizeLabel(input); got != want {
			t.Errorf("NormalizeLabel(%q) = %q, want %q", input, got, want)
		}
	}
}
