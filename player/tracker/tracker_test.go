package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dugsiiye/barasho/config"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
)

type savedCall struct {
	Pct int
	Pos int
}

type fakeSaver struct {
	mu       sync.Mutex
	snapshot Snapshot
	loadErr  error
	saveErr  error
	results  []SaveResult
	calls    []savedCall
}

func (f *fakeSaver) SaveProgress(ctx context.Context, videoID string, watchedPct, positionSec int) (SaveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return SaveResult{}, f.saveErr
	}

	f.calls = append(f.calls, savedCall{Pct: watchedPct, Pos: positionSec})

	res := SaveResult{Success: true}
	if len(f.results) > 0 {
		res = f.results[0]
		f.results = f.results[1:]
	}
	return res, nil
}

func (f *fakeSaver) LoadProgress(ctx context.Context, videoID string) (Snapshot, error) {
	if f.loadErr != nil {
		return Snapshot{}, f.loadErr
	}
	return f.snapshot, nil
}

func (f *fakeSaver) savedCalls() []savedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]savedCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func newTestTracker(saver Saver) *Tracker {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	// interval long enough that the real ticker never fires during a test;
	// ticks are driven directly through save.
	return New(Config{Interval: time.Hour, MinDelta: 5}, saver, log)
}

func TestDeltaSuppression(t *testing.T) {
	saver := &fakeSaver{}
	tr := newTestTracker(saver)

	pos := 0.0
	tr.Start(context.Background(), "vid-1", func() float64 { return pos }, func() float64 { return 600 }, nil)
	defer tr.Stop()

	ctx := context.Background()

	// 10s of a 600s video is 2%, under the 5 point delta from baseline 0.
	pos = 10
	tr.save(ctx, false)
	// 20s is 3%, still under.
	pos = 20
	tr.save(ctx, false)
	// 40s is 7%, crosses the threshold.
	pos = 40
	tr.save(ctx, false)

	want := []savedCall{{Pct: 7, Pos: 40}}
	if diff := cmp.Diff(want, saver.savedCalls()); diff != "" {
		t.Fatalf("unexpected saves (-want +got):\n%s", diff)
	}

	// a pause right after the save is under the new baseline but must
	// still be persisted
	pos = 41
	tr.Pause(ctx)

	want = append(want, savedCall{Pct: 7, Pos: 41})
	if diff := cmp.Diff(want, saver.savedCalls()); diff != "" {
		t.Fatalf("pause save missing (-want +got):\n%s", diff)
	}
}

func TestResumeFromSnapshot(t *testing.T) {
	saver := &fakeSaver{snapshot: Snapshot{WatchedPct: 40, LastPositionSec: 240}}
	tr := newTestTracker(saver)

	pos := 240.0
	resume := tr.Start(context.Background(), "vid-1", func() float64 { return pos }, func() float64 { return 600 }, nil)
	defer tr.Stop()

	if resume != 240 {
		t.Fatalf("resume position = %d, want 240", resume)
	}

	// the loaded value is the baseline: polling at the same spot must not
	// write anything
	tr.save(context.Background(), false)
	if calls := saver.savedCalls(); len(calls) != 0 {
		t.Fatalf("expected no saves at the resume position, got %v", calls)
	}

	// 270s is 45%, exactly 5 points past the baseline
	pos = 270
	tr.save(context.Background(), false)
	if calls := saver.savedCalls(); len(calls) != 1 || calls[0].Pct != 45 {
		t.Fatalf("expected one save at 45%%, got %v", calls)
	}
}

func TestLoadFailureIsNonFatal(t *testing.T) {
	saver := &fakeSaver{loadErr: errors.New("network down")}
	tr := newTestTracker(saver)

	pos := 60.0
	resume := tr.Start(context.Background(), "vid-1", func() float64 { return pos }, func() float64 { return 600 }, nil)
	defer tr.Stop()

	if resume != 0 {
		t.Fatalf("resume position = %d, want 0 after a failed load", resume)
	}

	tr.save(context.Background(), false)
	if calls := saver.savedCalls(); len(calls) != 1 {
		t.Fatalf("tracking must continue after a failed load, got %v", calls)
	}
}

func TestSaveFailureKeepsBaseline(t *testing.T) {
	saver := &fakeSaver{saveErr: errors.New("network down")}
	tr := newTestTracker(saver)

	pos := 60.0
	tr.Start(context.Background(), "vid-1", func() float64 { return pos }, func() float64 { return 600 }, nil)
	defer tr.Stop()

	tr.save(context.Background(), false)
	if calls := saver.savedCalls(); len(calls) != 0 {
		t.Fatalf("expected no recorded saves while failing, got %v", calls)
	}

	// recovery: the baseline is still 0, so the same position saves now
	saver.mu.Lock()
	saver.saveErr = nil
	saver.mu.Unlock()

	tr.save(context.Background(), false)
	if calls := saver.savedCalls(); len(calls) != 1 || calls[0].Pct != 10 {
		t.Fatalf("expected one save at 10%% after recovery, got %v", calls)
	}
}

func TestCompletionFiresOnce(t *testing.T) {
	saver := &fakeSaver{results: []SaveResult{
		{Success: true, IsCompleted: true},
		{Success: true, IsCompleted: false},
		{Success: true, IsCompleted: true},
	}}
	tr := newTestTracker(saver)

	completions := 0
	pos := 540.0
	tr.Start(context.Background(), "vid-1",
		func() float64 { return pos },
		func() float64 { return 600 },
		func() { completions++ })
	defer tr.Stop()

	ctx := context.Background()

	tr.save(ctx, false) // 90%, server reports complete
	if completions != 1 {
		t.Fatalf("completions = %d, want 1", completions)
	}

	// a later save reporting incomplete must not re-open the video
	pos = 300
	tr.Pause(ctx)
	if completions != 1 {
		t.Fatalf("completions changed on an incomplete report: %d", completions)
	}

	// nor does a repeated completed report fire the callback again
	pos = 590
	tr.Pause(ctx)
	if completions != 1 {
		t.Fatalf("completions = %d after repeated completed report, want 1", completions)
	}
}

func TestAlreadyCompletedSnapshotNeverFires(t *testing.T) {
	saver := &fakeSaver{
		snapshot: Snapshot{WatchedPct: 100, LastPositionSec: 600, IsCompleted: true},
		results:  []SaveResult{{Success: true, IsCompleted: true}},
	}
	tr := newTestTracker(saver)

	completions := 0
	tr.Start(context.Background(), "vid-1",
		func() float64 { return 600 },
		func() float64 { return 600 },
		func() { completions++ })
	defer tr.Stop()

	tr.End(context.Background())
	if completions != 0 {
		t.Fatalf("completions = %d for an already-completed video, want 0", completions)
	}
}

func TestTickerDrivesSaves(t *testing.T) {
	saver := &fakeSaver{}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	tr := New(Config{Interval: 10 * time.Millisecond, MinDelta: 5}, saver, log)

	tr.Start(context.Background(), "vid-1",
		func() float64 { return 300 },
		func() float64 { return 600 },
		nil)

	time.Sleep(50 * time.Millisecond)
	tr.Stop()

	calls := saver.savedCalls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one save (50%% then zero delta), got %v", calls)
	}
	if calls[0].Pct != 50 {
		t.Fatalf("saved pct = %d, want 50", calls[0].Pct)
	}

	// after Stop no further ticks may fire
	n := len(saver.savedCalls())
	time.Sleep(30 * time.Millisecond)
	if got := len(saver.savedCalls()); got != n {
		t.Fatalf("saves continued after Stop: %d -> %d", n, got)
	}
}

func TestNewFromConfigCarriesTuning(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	tr := NewFromConfig(config.Progress{SaveInterval: 3 * time.Second, MinSaveDelta: 8}, &fakeSaver{}, log)
	if tr.cfg.Interval != 3*time.Second {
		t.Fatalf("interval = %v, want 3s", tr.cfg.Interval)
	}
	if tr.cfg.MinDelta != 8 {
		t.Fatalf("min delta = %d, want 8", tr.cfg.MinDelta)
	}

	// zero values fall back to the defaults
	tr = NewFromConfig(config.Progress{}, &fakeSaver{}, log)
	if tr.cfg.Interval != DefaultInterval || tr.cfg.MinDelta != DefaultMinDelta {
		t.Fatalf("defaults not applied: %+v", tr.cfg)
	}
}

func TestZeroDurationIsIgnored(t *testing.T) {
	saver := &fakeSaver{}
	tr := newTestTracker(saver)

	tr.Start(context.Background(), "vid-1", func() float64 { return 30 }, func() float64 { return 0 }, nil)
	defer tr.Stop()

	tr.save(context.Background(), false)
	tr.Pause(context.Background())

	if calls := saver.savedCalls(); len(calls) != 0 {
		t.Fatalf("expected no saves while duration is unknown, got %v", calls)
	}
}
