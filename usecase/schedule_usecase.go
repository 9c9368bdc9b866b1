package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/hayatoa/threads-auto-post-gs/infrastructure/logger"

	"github.com/robfig/cron/v3"
)

// minLeadTime is the floor between "now" and any computed fire instant.
const minLeadTime = 5 * time.Second

// minJitterSpan is the smallest randomization span for at-time policies.
const minJitterSpan = 60 * time.Second

// maxSleepSlice bounds each sleep so the clock and the context are
// reassessed at least once a minute instead of one long uninterruptible
// sleep.
const maxSleepSlice = time.Minute

// ClockTime is a wall-clock time of day. Hours >= 24 in the source string
// roll into ExtraDays, so "26:30" means 02:30 on the following day.
type ClockTime struct {
	ExtraDays int
	Hour      int
	Minute    int
}

// Window is a daily HH:MM-HH:MM firing window.
type Window struct {
	Start ClockTime
	End   ClockTime
}

// ParseClockTime parses "HH:MM", accepting hour values >= 24 to mean the
// next calendar day.
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return ClockTime{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return ClockTime{}, fmt.Errorf("invalid minute in %q", s)
	}
	return ClockTime{ExtraDays: h / 24, Hour: h % 24, Minute: m}, nil
}

// ParseWindow parses "HH:MM-HH:MM".
func ParseWindow(s string) (Window, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return Window{}, fmt.Errorf("invalid window %q, expected HH:MM-HH:MM", s)
	}
	start, err := ParseClockTime(parts[0])
	if err != nil {
		return Window{}, err
	}
	end, err := ParseClockTime(parts[1])
	if err != nil {
		return Window{}, err
	}
	if start.ExtraDays > 0 || end.ExtraDays > 0 {
		return Window{}, fmt.Errorf("invalid window %q, hours must be below 24", s)
	}
	return Window{Start: start, End: end}, nil
}

func (t ClockTime) onDay(ref time.Time) time.Time {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour, t.Minute, 0, 0, ref.Location())
	return day.AddDate(0, 0, t.ExtraDays)
}

// NextRandomInWindow draws a uniform random instant inside the window,
// at least minLeadTime after now. When today's window end has already
// passed, or the end does not lie after the start, the whole window
// shifts to the next day.
func NextRandomInWindow(w Window, now time.Time, rng *rand.Rand) time.Time {
	start := w.Start.onDay(now)
	end := w.End.onDay(now)
	if !end.After(now) || !end.After(start) {
		start = start.AddDate(0, 0, 1)
		end = end.AddDate(0, 0, 1)
	}
	winStart := start
	if floor := now.Add(minLeadTime); floor.After(winStart) {
		winStart = floor
	}
	if end.Sub(winStart) <= minLeadTime {
		start = start.AddDate(0, 0, 1)
		end = end.AddDate(0, 0, 1)
		winStart = start
	}
	span := int64(end.Sub(winStart) / time.Second)
	if span < 0 {
		span = 0
	}
	offs := rng.Int63n(span + 1)
	return winStart.Add(time.Duration(offs) * time.Second)
}

// NextAtWithJitter computes the next fire instant for a daily time-of-day
// with +/- jitterMin minutes of randomization. The instant is clamped to
// at least minLeadTime after ref and the randomization span never shrinks
// below minJitterSpan. If ref is already past target+jitter, the target
// moves to the next day.
func NextAtWithJitter(at ClockTime, jitterMin int, ref time.Time, rng *rand.Rand) time.Time {
	base := at.onDay(ref)
	jitter := time.Duration(jitterMin) * time.Minute
	start := base.Add(-jitter)
	end := base.Add(jitter)
	if ref.After(end) {
		base = base.AddDate(0, 0, 1)
		start = base.Add(-jitter)
		end = base.Add(jitter)
	}
	if floor := ref.Add(minLeadTime); floor.After(start) {
		start = floor
	}
	secs := int64(end.Sub(start) / time.Second)
	if secs < int64(minJitterSpan/time.Second) {
		secs = int64(minJitterSpan / time.Second)
	}
	offs := rng.Int63n(secs + 1)
	return start.Add(time.Duration(offs) * time.Second)
}

// NearestEntry picks the schedule label with the earliest pending fire
// instant, breaking ties by label so the choice is deterministic.
func NearestEntry(entries map[string]time.Time) (string, time.Time) {
	var bestLabel string
	var bestAt time.Time
	for label, at := range entries {
		if bestLabel == "" || at.Before(bestAt) || (at.Equal(bestAt) && label < bestLabel) {
			bestLabel = label
			bestAt = at
		}
	}
	return bestLabel, bestAt
}

// WithEntry returns a copy of the schedule map with one label replaced;
// pending instants of other labels are undisturbed.
func WithEntry(entries map[string]time.Time, label string, at time.Time) map[string]time.Time {
	next := make(map[string]time.Time, len(entries))
	for k, v := range entries {
		next[k] = v
	}
	next[label] = at
	return next
}

type IScheduleUsecase interface {
	RunInterval(ctx context.Context, intervalMin int) error
	RunDailyWindow(ctx context.Context, window string) error
	RunDailyAt(ctx context.Context, timeStr string, jitterMin int) error
	RunDailyMultiAt(ctx context.Context, times []string, jitterMin int) error
}

type scheduleUsecase struct {
	post    IPostUsecase
	loc     *time.Location
	tracker *RunTracker
	rng     *rand.Rand
	now     func() time.Time
}

// NewScheduleUsecase creates the scheduling engine. All window/at-time
// arithmetic happens in loc, never in host-local time.
func NewScheduleUsecase(post IPostUsecase, loc *time.Location, tracker *RunTracker) IScheduleUsecase {
	return &scheduleUsecase{
		post:    post,
		loc:     loc,
		tracker: tracker,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}
}

func (u *scheduleUsecase) nowIn() time.Time {
	return u.now().In(u.loc)
}

// sleepUntil waits for the target instant in bounded slices so context
// cancellation and clock drift are observed at least once a minute.
func (u *scheduleUsecase) sleepUntil(ctx context.Context, target time.Time) error {
	for {
		remaining := target.Sub(u.now())
		if remaining <= 0 {
			return nil
		}
		slice := remaining
		if slice > maxSleepSlice {
			slice = maxSleepSlice
		}
		if slice < time.Second {
			slice = time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(slice):
		}
	}
}

// fire runs one posting attempt. Row store failures abort only this
// firing; the loop retries on its next scheduled tick.
func (u *scheduleUsecase) fire(ctx context.Context) {
	if _, err := u.post.PostNext(ctx); err != nil {
		logger.GetLogger().WithField("error", err).Error("Firing aborted by row store error")
	}
}

// newIntervalCron builds the fixed-interval runner. SkipIfStillRunning
// keeps firings strictly sequential: a tick arriving while the previous
// post is still in flight is dropped, never run concurrently, so at
// most one row is being processed at any moment.
func newIntervalCron(loc *time.Location) *cron.Cron {
	return cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger.GetLogger()))),
	)
}

// RunInterval fires once immediately, then every intervalMin minutes.
func (u *scheduleUsecase) RunInterval(ctx context.Context, intervalMin int) error {
	if intervalMin <= 0 {
		return fmt.Errorf("interval must be positive, got %d", intervalMin)
	}
	logger.GetLogger().WithField("interval_min", intervalMin).Info("Scheduler started with fixed interval")
	u.fire(ctx)

	c := newIntervalCron(u.loc)
	_, err := c.AddFunc(fmt.Sprintf("@every %dm", intervalMin), func() {
		u.tracker.SetNextFire("interval", u.nowIn().Add(time.Duration(intervalMin)*time.Minute))
		u.fire(ctx)
	})
	if err != nil {
		return err
	}
	u.tracker.SetNextFire("interval", u.nowIn().Add(time.Duration(intervalMin)*time.Minute))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// RunDailyWindow fires once per day at a random instant inside the window.
func (u *scheduleUsecase) RunDailyWindow(ctx context.Context, window string) error {
	w, err := ParseWindow(window)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("window", window).Info("Scheduler started with daily window")
	next := NextRandomInWindow(w, u.nowIn(), u.rng)
	for {
		u.tracker.SetNextFire("window", next)
		logger.GetLogger().WithField("next_run", next.Format(time.RFC3339)).Info("Next run scheduled")
		if err := u.sleepUntil(ctx, next); err != nil {
			return err
		}
		u.fire(ctx)
		// Anchor the next draw to the start of the day after the fired
		// slot: the draw spans the whole window, unbiased by where in
		// the window the firing landed, and a firing that outlives the
		// window end cannot skip a day.
		dayAfter := time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, u.loc).AddDate(0, 0, 1)
		next = NextRandomInWindow(w, dayAfter, u.rng)
	}
}

// RunDailyAt fires once per day around the given time with jitter.
func (u *scheduleUsecase) RunDailyAt(ctx context.Context, timeStr string, jitterMin int) error {
	at, err := ParseClockTime(timeStr)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("time", timeStr).WithField("jitter_min", jitterMin).
		Info("Scheduler started with daily time")
	next := NextAtWithJitter(at, jitterMin, u.nowIn(), u.rng)
	for {
		u.tracker.SetNextFire(timeStr, next)
		logger.GetLogger().WithField("next_run", next.Format(time.RFC3339)).Info("Next run scheduled")
		if err := u.sleepUntil(ctx, next); err != nil {
			return err
		}
		u.fire(ctx)
		next = NextAtWithJitter(at, jitterMin, next.AddDate(0, 0, 1).In(u.loc), u.rng)
	}
}

// RunDailyMultiAt maintains one pending fire instant per listed time and
// always sleeps toward the nearest one; only the fired label is
// recomputed for the next day.
func (u *scheduleUsecase) RunDailyMultiAt(ctx context.Context, times []string, jitterMin int) error {
	parsed := make(map[string]ClockTime, len(times))
	entries := make(map[string]time.Time, len(times))
	for _, label := range times {
		at, err := ParseClockTime(label)
		if err != nil {
			return err
		}
		parsed[label] = at
		entries[label] = NextAtWithJitter(at, jitterMin, u.nowIn(), u.rng)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no times configured")
	}
	logger.GetLogger().WithField("times", times).WithField("jitter_min", jitterMin).
		Info("Scheduler started with multiple daily times")
	for {
		label, next := NearestEntry(entries)
		for l, at := range entries {
			u.tracker.SetNextFire(l, at)
		}
		logger.GetLogger().WithField("slot", label).WithField("next_run", next.Format(time.RFC3339)).
			Info("Next run scheduled")
		if err := u.sleepUntil(ctx, next); err != nil {
			return err
		}
		u.fire(ctx)
		entries = WithEntry(entries, label, NextAtWithJitter(parsed[label], jitterMin, next.AddDate(0, 0, 1).In(u.loc), u.rng))
	}
}
