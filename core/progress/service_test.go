package progress

import "testing"

func TestSummarize(t *testing.T) {
	tests := []struct {
		name             string
		total, completed int
		exp              CourseProgress
	}{
		{
			name:  "empty course never completes",
			total: 0, completed: 0,
			exp: CourseProgress{},
		},
		{
			name:  "partial",
			total: 3, completed: 2,
			exp: CourseProgress{TotalVideos: 3, CompletedVideos: 2, ProgressPct: 67},
		},
		{
			name:  "rounds to 100 with a video still open",
			total: 200, completed: 199,
			exp: CourseProgress{TotalVideos: 200, CompletedVideos: 199, ProgressPct: 100},
		},
		{
			name:  "exact completion",
			total: 200, completed: 200,
			exp: CourseProgress{TotalVideos: 200, CompletedVideos: 200, ProgressPct: 100, IsCompleted: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summarize(tt.total, tt.completed); got != tt.exp {
				t.Fatalf("summarize(%d, %d): got %+v, exp %+v", tt.total, tt.completed, got, tt.exp)
			}
		})
	}
}
