package logging

import "strings"

// ProgressSampler thins out progress reports. yt-dlp prints several lines a
// second; callers only want a line per bucket and one per stage change.
type ProgressSampler struct {
	bucketSize float64
	stage      string
	bucket     int
	finished   bool
}

// NewProgressSampler emits whenever percent enters a new bucket of the given
// width. A non-positive width falls back to 5%.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, bucket: -1}
}

// ShouldLog reports whether the update is worth reporting. A new stage always
// passes and restarts bucketing. Negative percent means unknown and only
// passes on a stage change. Completion (100%) passes once per stage.
func (s *ProgressSampler) ShouldLog(stage string, percent float64) bool {
	if s == nil {
		return true
	}
	stage = strings.TrimSpace(stage)
	changed := stage != "" && stage != s.stage
	if changed {
		s.stage = stage
		s.bucket = -1
		s.finished = false
	}
	if percent < 0 {
		return changed
	}
	if percent >= 100 {
		s.bucket = int(100 / s.bucketSize)
		if s.finished {
			return changed
		}
		s.finished = true
		return true
	}
	bucket := int(percent / s.bucketSize)
	if bucket > s.bucket {
		s.bucket = bucket
		return true
	}
	return changed
}
