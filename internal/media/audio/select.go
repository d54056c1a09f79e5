package audio

import (
	"strconv"
	"strings"

	langpkg "accentscan/internal/language"
	"accentscan/internal/media/ffprobe"
)

// Selection describes the audio stream chosen for transcription.
type Selection struct {
	Primary ffprobe.Stream
	// PrimaryIndex is the absolute stream index, suitable for ffmpeg -map 0:N.
	// It is -1 when the container has no audio.
	PrimaryIndex int
	// Candidates is the number of audio streams considered.
	Candidates int
}

// Found reports whether an audio stream was selected.
func (s Selection) Found() bool {
	return s.PrimaryIndex >= 0
}

// PrimaryLabel returns a human-readable summary of the selected primary stream.
func (s Selection) PrimaryLabel() string {
	if s.PrimaryIndex < 0 {
		return ""
	}
	return formatStreamSummary(s.Primary)
}

// Select returns the audio stream most likely to carry the main English
// dialogue. English tracks win over other languages (falling back to all
// tracks when none is tagged English); within that set commentary and
// audio-description tracks are demoted, then the default-flagged track and
// finally the earliest track wins.
func Select(streams []ffprobe.Stream) Selection {
	candidates := buildCandidates(streams)
	if len(candidates) == 0 {
		return Selection{PrimaryIndex: -1}
	}

	pool := candidates.english()
	if len(pool) == 0 {
		pool = candidates
	}

	primary := choosePrimary(pool)
	return Selection{
		Primary:      primary.stream,
		PrimaryIndex: primary.stream.Index,
		Candidates:   len(candidates),
	}
}

type candidate struct {
	stream         ffprobe.Stream
	order          int
	isEnglish      bool
	isSecondary    bool
	defaultFlagged bool
}

type candidateList []candidate

func (c candidateList) english() candidateList {
	result := make(candidateList, 0, len(c))
	for _, cand := range c {
		if cand.isEnglish {
			result = append(result, cand)
		}
	}
	return result
}

func choosePrimary(candidates candidateList) candidate {
	best := candidates[0]
	bestScore := scorePrimary(best)
	for i := 1; i < len(candidates); i++ {
		score := scorePrimary(candidates[i])
		if score > bestScore {
			best = candidates[i]
			bestScore = score
		}
	}
	return best
}

func scorePrimary(cand candidate) float64 {
	score := 100.0
	if cand.isSecondary {
		score -= 50
	}
	if cand.defaultFlagged {
		score += 10
	}
	score -= float64(cand.order) * 0.1
	return score
}

func buildCandidates(streams []ffprobe.Stream) candidateList {
	result := make(candidateList, 0)
	order := 0
	for _, stream := range streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		language := stream.Language()
		result = append(result, candidate{
			stream:         stream,
			order:          order,
			isEnglish:      langpkg.IsEnglish(language),
			isSecondary:    isSecondaryTrack(stream),
			defaultFlagged: stream.IsDefault(),
		})
		order++
	}
	return result
}

var secondaryKeywords = []string{
	"commentary",
	"audio description",
	"descriptive",
	"described video",
	"karaoke",
	"instrumental",
}

func isSecondaryTrack(stream ffprobe.Stream) bool {
	if stream.Disposition["comment"] == 1 || stream.Disposition["visual_impaired"] == 1 {
		return true
	}
	title := stream.Title()
	for _, keyword := range secondaryKeywords {
		if strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}

func formatStreamSummary(stream ffprobe.Stream) string {
	parts := make([]string, 0, 4)
	if lang := stream.Language(); lang != "" {
		parts = append(parts, lang)
	}
	codec := stream.CodecLong
	if codec == "" {
		codec = stream.CodecName
	}
	if codec != "" {
		parts = append(parts, codec)
	}
	if stream.Channels > 0 {
		parts = append(parts, strconv.Itoa(stream.Channels)+"ch")
	}
	if title := strings.TrimSpace(stream.Tags["title"]); title != "" {
		parts = append(parts, title)
	}
	if len(parts) == 0 {
		return "audio"
	}
	return strings.Join(parts, " | ")
}
