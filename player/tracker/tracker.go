// Package tracker converts continuous playback into discrete, rate-limited
// progress saves. It polls the player's position on a wall-clock interval
// and writes through a Saver, suppressing writes whose percentage moved less
// than a configured delta since the last persisted value. Saves are
// fire-and-forget: failures are logged and playback is never interrupted.
package tracker

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/dugsiiye/barasho/config"
	"github.com/sirupsen/logrus"
)

// SaveResult mirrors the server's progress-save response. The server owns
// the completion decision; the tracker only consumes it.
type SaveResult struct {
	Success     bool `json:"success"`
	IsCompleted bool `json:"is_completed"`
}

// Snapshot is previously persisted progress, used for resume.
type Snapshot struct {
	WatchedPct      int  `json:"watchedPercentage"`
	LastPositionSec int  `json:"lastPositionSeconds"`
	IsCompleted     bool `json:"isCompleted"`
}

// Saver is the remote side of progress tracking.
type Saver interface {
	SaveProgress(ctx context.Context, videoID string, watchedPct, positionSec int) (SaveResult, error)
	LoadProgress(ctx context.Context, videoID string) (Snapshot, error)
}

type Config struct {
	// Interval between polls; wall-clock, independent of playback rate.
	Interval time.Duration
	// MinDelta is the absolute percentage movement, measured against the
	// last SAVED value, below which interval saves are suppressed.
	MinDelta int
}

const (
	DefaultInterval = 10 * time.Second
	DefaultMinDelta = 5
)

func (c *Config) defaults() {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MinDelta <= 0 {
		c.MinDelta = DefaultMinDelta
	}
}

// Tracker follows a single video. Start begins polling; Pause and End force
// a save regardless of the delta; Stop cancels the poll with no final flush,
// so progress since the last save is lost on teardown. That mirrors the
// player's observable behavior and is deliberate.
type Tracker struct {
	cfg   Config
	saver Saver
	log   logrus.FieldLogger

	mu            sync.Mutex
	videoID       string
	position      func() float64
	duration      func() float64
	onComplete    func()
	lastSavedPct  int
	knownComplete bool
	cancel        context.CancelFunc
}

func New(cfg Config, saver Saver, log logrus.FieldLogger) *Tracker {
	cfg.defaults()
	return &Tracker{
		cfg:   cfg,
		saver: saver,
		log:   log,
	}
}

// NewFromConfig builds a Tracker from the shared progress tuning, so the
// sampler and the server read the same knobs.
func NewFromConfig(cfg config.Progress, saver Saver, log logrus.FieldLogger) *Tracker {
	return New(Config{Interval: cfg.SaveInterval, MinDelta: cfg.MinSaveDelta}, saver, log)
}

// Start loads any persisted progress and begins the poll loop. It returns
// the position to resume from; zero means start at the beginning. A failed
// load is logged and treated as no prior progress.
func (t *Tracker) Start(ctx context.Context, videoID string, position, duration func() float64, onComplete func()) int {
	t.Stop()

	t.mu.Lock()
	t.videoID = videoID
	t.position = position
	t.duration = duration
	t.onComplete = onComplete
	t.lastSavedPct = 0
	t.knownComplete = false
	t.mu.Unlock()

	resume := 0
	if snap, err := t.saver.LoadProgress(ctx, videoID); err != nil {
		t.log.WithField("video_id", videoID).Infof("loading progress: %v", err)
	} else {
		t.mu.Lock()
		t.lastSavedPct = snap.WatchedPct
		t.knownComplete = snap.IsCompleted
		t.mu.Unlock()
		resume = snap.LastPositionSec
	}

	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	go t.loop(ctx)

	return resume
}

func (t *Tracker) loop(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.save(ctx, false)
		}
	}
}

// Pause forces a save regardless of the delta policy.
func (t *Tracker) Pause(ctx context.Context) {
	t.save(ctx, true)
}

// End forces a save at end of media.
func (t *Tracker) End(ctx context.Context) {
	t.save(ctx, true)
}

// Stop cancels the poll loop. No flush happens here: the only guaranteed
// saves are the interval, pause and end ones.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (t *Tracker) save(ctx context.Context, force bool) {
	t.mu.Lock()
	videoID := t.videoID
	position := t.position
	duration := t.duration
	lastSaved := t.lastSavedPct
	t.mu.Unlock()

	if position == nil || duration == nil {
		return
	}

	dur := duration()
	if dur <= 0 {
		return
	}

	cur := position()
	pct := int(math.Round(cur / dur * 100))
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}

	delta := pct - lastSaved
	if delta < 0 {
		delta = -delta
	}
	if !force && delta < t.cfg.MinDelta {
		return
	}

	res, err := t.saver.SaveProgress(ctx, videoID, pct, int(cur))
	if err != nil {
		t.log.WithField("video_id", videoID).Infof("saving progress: %v", err)
		return
	}

	t.mu.Lock()
	t.lastSavedPct = pct
	fire := res.IsCompleted && !t.knownComplete
	if res.IsCompleted {
		t.knownComplete = true
	}
	onComplete := t.onComplete
	t.mu.Unlock()

	if fire && onComplete != nil {
		onComplete()
	}
}
