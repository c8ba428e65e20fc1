package test

import (
	"net/http"
	"testing"

	"github.com/dugsiiye/barasho/core/enrollment"
	"github.com/dugsiiye/barasho/core/progress"
	"github.com/dugsiiye/barasho/validate"
)

func TestProgress(t *testing.T) {
	env, err := NewTestEnv(t, "progress_test")
	if err != nil {
		t.Fatalf("setting up test env: %v", err)
	}

	if err := Login(env, env.AdminEmail, env.AdminPass); err != nil {
		t.Fatal(err)
	}
	c := createCourse(t, env, "Somali for Travelers", 10, true)
	pl := createPlaylist(t, env, c.ID, "Basics", 0)
	v1 := createVideo(t, env, pl.ID, "Greetings", 0, 600)
	v2 := createVideo(t, env, pl.ID, "Numbers", 1, 480)
	if err := Logout(env); err != nil {
		t.Fatal(err)
	}

	env.SetCredits(t, env.UserID, 10)
	if err := Login(env, env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}

	var er enrollment.EnrollResult
	env.doJSON(t, http.MethodPost, "/courses/"+c.ID+"/enroll", nil, &er)
	if !er.Success {
		t.Fatalf("enrolling: %q", er.Error)
	}

	saveProgress := func(t *testing.T, videoID string, pct, pos int) progress.SaveResult {
		t.Helper()
		var res progress.SaveResult
		code := env.doJSON(t, http.MethodPut, "/videos/"+videoID+"/progress", progress.ProgressUp{
			WatchedPct:      pct,
			LastPositionSec: pos,
		}, &res)
		if code != http.StatusOK {
			t.Fatalf("saving progress: status %d", code)
		}
		if !res.Success {
			t.Fatal("save result: success false")
		}
		return res
	}

	loadProgress := func(t *testing.T, videoID string) progress.Progress {
		t.Helper()
		var p progress.Progress
		if code := env.doJSON(t, http.MethodGet, "/videos/"+videoID+"/progress", nil, &p); code != http.StatusOK {
			t.Fatalf("loading progress: status %d", code)
		}
		return p
	}

	courseProgress := func(t *testing.T) progress.CourseProgress {
		t.Helper()
		var agg progress.CourseProgress
		if code := env.doJSON(t, http.MethodGet, "/courses/"+c.ID+"/progress", nil, &agg); code != http.StatusOK {
			t.Fatalf("loading course progress: status %d", code)
		}
		return agg
	}

	t.Run("LoadBeforeFirstSaveIsZero", func(t *testing.T) {
		p := loadProgress(t, v1.ID)
		if p.WatchedPct != 0 || p.LastPositionSec != 0 || p.IsCompleted {
			t.Errorf("got %+v, exp zero record", p)
		}
	})

	t.Run("BelowThresholdIsNotCompleted", func(t *testing.T) {
		if res := saveProgress(t, v1.ID, 50, 300); res.IsCompleted {
			t.Error("is_completed: got true at 50%")
		}
		p := loadProgress(t, v1.ID)
		if p.WatchedPct != 50 || p.LastPositionSec != 300 {
			t.Errorf("got pct=%d pos=%d, exp 50/300", p.WatchedPct, p.LastPositionSec)
		}
	})

	t.Run("ThresholdBoundary", func(t *testing.T) {
		if res := saveProgress(t, v2.ID, 89, 427); res.IsCompleted {
			t.Error("is_completed: got true at 89%")
		}
		if res := saveProgress(t, v2.ID, 90, 432); !res.IsCompleted {
			t.Error("is_completed: got false at 90%")
		}
	})

	t.Run("CompletionLatches", func(t *testing.T) {
		res := saveProgress(t, v2.ID, 10, 48)
		if !res.IsCompleted {
			t.Error("is_completed: got false after rewatch, exp latched true")
		}
		p := loadProgress(t, v2.ID)
		if p.WatchedPct != 10 {
			t.Errorf("watched pct: got %d, exp 10 (position still tracks)", p.WatchedPct)
		}
		if !p.IsCompleted {
			t.Error("stored is_completed: got false, exp true")
		}
	})

	t.Run("CourseAggregate", func(t *testing.T) {
		agg := courseProgress(t)
		exp := progress.CourseProgress{TotalVideos: 2, CompletedVideos: 1, ProgressPct: 50}
		if agg != exp {
			t.Errorf("got %+v, exp %+v", agg, exp)
		}
	})

	t.Run("PlayCountAccumulates", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if code := env.doJSON(t, http.MethodPost, "/videos/"+v1.ID+"/play", nil, nil); code != http.StatusNoContent {
				t.Fatalf("recording play: status %d", code)
			}
		}
		if p := loadProgress(t, v1.ID); p.PlayCount != 2 {
			t.Errorf("play count: got %d, exp 2", p.PlayCount)
		}
	})

	t.Run("PlayOnUnknownVideoIsNotFound", func(t *testing.T) {
		if code := env.doJSON(t, http.MethodPost, "/videos/"+validate.GenerateID()+"/play", nil, nil); code != http.StatusNotFound {
			t.Errorf("status: got %d, exp %d", code, http.StatusNotFound)
		}
	})

	t.Run("FinishingLastVideoCompletesEnrollment", func(t *testing.T) {
		if res := saveProgress(t, v1.ID, 95, 570); !res.IsCompleted {
			t.Error("is_completed: got false at 95%")
		}

		agg := courseProgress(t)
		if agg.ProgressPct != 100 || !agg.IsCompleted {
			t.Errorf("aggregate: got %+v, exp 100%% completed", agg)
		}

		var es []enrollment.Enrollment
		if code := env.doJSON(t, http.MethodGet, "/enrollments", nil, &es); code != http.StatusOK {
			t.Fatalf("listing enrollments: status %d", code)
		}
		var found bool
		for _, e := range es {
			if e.CourseID != c.ID {
				continue
			}
			found = true
			if e.Status != enrollment.Completed {
				t.Errorf("enrollment status: got %q, exp %q", e.Status, enrollment.Completed)
			}
			if e.Progress != 100 {
				t.Errorf("enrollment progress: got %d, exp 100", e.Progress)
			}
			if e.CompletedAt == nil {
				t.Error("completed_at: got nil, exp set")
			}
		}
		if !found {
			t.Fatal("enrollment for course not listed")
		}
	})
}
