package logging

import "testing"

func TestProgressSamplerDefaultsBucket(t *testing.T) {
	for _, size := range []float64{0, -3} {
		if got := NewProgressSampler(size).bucketSize; got != 5 {
			t.Fatalf("NewProgressSampler(%v) bucket = %v, want 5", size, got)
		}
	}
}

func TestProgressSamplerNilAlwaysLogs(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog("download", 12) {
		t.Fatal("nil sampler should pass every update")
	}
}

func TestProgressSamplerSequence(t *testing.T) {
	type step struct {
		stage   string
		percent float64
		want    bool
	}
	s := NewProgressSampler(25)
	steps := []step{
		{"download", 0, true},
		{"download", 3.5, false},
		{"download", 24.9, false},
		{"download", 25, true},
		{"download", 40, false},
		{"download", 20, false},
		{"download", 80, true},
		{"download", 100, true},
		{"download", 100, false},
		{"extract", -1, true},
		{"extract", -1, false},
		{" extract ", 100, true},
		{"transcribe", 100, true},
		{"", 10, false},
	}
	for i, st := range steps {
		if got := s.ShouldLog(st.stage, st.percent); got != st.want {
			t.Fatalf("step %d ShouldLog(%q, %v) = %v, want %v", i, st.stage, st.percent, got, st.want)
		}
	}
}
