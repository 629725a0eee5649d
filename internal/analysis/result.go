// Package analysis orchestrates diarization over preprocessed segments and
// aggregates per-call speaker labels into a session speaker count and
// timeline. It hosts both run modes: single-file batch and live capture.
package analysis

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tdemirli/roomcount-go/internal/audio"
	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/diarizer"
)

// SpeakerSegment is one speaker-attributed span on the session timeline.
// The label carries a per-segment namespace prefix so indices from
// different diarization calls never collide downstream.
type SpeakerSegment struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// SpeakerStat accumulates per-label speech time within the session.
type SpeakerStat struct {
	Label     string        `json:"label"`
	Speech    time.Duration `json:"speech"`
	Intervals int           `json:"intervals"`
}

// Snapshot is a read-only copy of the evolving result, safe to hand to
// reporting while analysis continues.
type Snapshot struct {
	SessionID    string           `json:"session_id"`
	SpeakerCount int              `json:"speaker_count"`
	Timeline     []SpeakerSegment `json:"timeline"`
	Covered      time.Duration    `json:"covered_duration"`
	Analyzed     int              `json:"analyzed_segments"`
	Skipped      int              `json:"skipped_segments"`
	Stats        []SpeakerStat    `json:"speaker_stats"`
}

// Result is the evolving analysis outcome. Single writer (the analysis
// task), arbitrary readers through Snapshot.
type Result struct {
	mu           sync.RWMutex
	sessionID    string
	speakerCount int
	timeline     []SpeakerSegment
	covered      time.Duration
	analyzed     int
	skipped      int
	stats        map[string]*SpeakerStat
}

// NewResult creates an empty result for the given session.
func NewResult(sessionID string) *Result {
	return &Result{
		sessionID: sessionID,
		stats:     map[string]*SpeakerStat{},
	}
}

// AddSegment records the diarization outcome of one analyzed segment.
// Labels are local to the call: the session speaker count is the maximum
// label cardinality seen in any single segment, never a cumulative count
// across segments, because label identity does not carry across calls.
// Timeline entries are namespaced with the segment sequence number and the
// timeline is re-sorted on insertion to absorb out-of-order arrivals.
func (r *Result) AddSegment(seq int, seg *audio.Segment, intervals []diarizer.SpeakerInterval) {
	r.mu.Lock()
	defer r.mu.Unlock()

	labels := map[string]struct{}{}
	for _, iv := range intervals {
		labels[iv.Label] = struct{}{}

		start := seg.Start.Add(secondsToDuration(iv.Start))
		end := seg.Start.Add(secondsToDuration(iv.End))
		if end.After(seg.End) {
			end = seg.End
		}
		if !end.After(start) {
			continue
		}

		namespaced := fmt.Sprintf("s%d/%s", seq, iv.Label)
		r.timeline = append(r.timeline, SpeakerSegment{Start: start, End: end, Label: namespaced})

		stat, ok := r.stats[namespaced]
		if !ok {
			stat = &SpeakerStat{Label: namespaced}
			r.stats[namespaced] = stat
		}
		stat.Speech += end.Sub(start)
		stat.Intervals++
	}

	if len(labels) > r.speakerCount {
		r.speakerCount = len(labels)
	}
	r.covered += seg.Duration()
	r.analyzed++
	r.sortTimeline()
}

// MarkUnanalyzed records a segment whose diarization call failed. Its time
// range stays visible on the timeline under the unanalyzed label so gaps
// are distinguishable from silence.
func (r *Result) MarkUnanalyzed(seg *audio.Segment) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.timeline = append(r.timeline, SpeakerSegment{
		Start: seg.Start,
		End:   seg.End,
		Label: conf.UnanalyzedLabel,
	})
	r.skipped++
	r.sortTimeline()
}

func (r *Result) sortTimeline() {
	sort.SliceStable(r.timeline, func(i, j int) bool {
		return r.timeline[i].Start.Before(r.timeline[j].Start)
	})
}

// SpeakerCount returns the current session estimate.
func (r *Result) SpeakerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.speakerCount
}

// Snapshot returns a deep copy of the current state.
func (r *Result) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	timeline := make([]SpeakerSegment, len(r.timeline))
	copy(timeline, r.timeline)

	stats := make([]SpeakerStat, 0, len(r.stats))
	for _, s := range r.stats {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Label < stats[j].Label })

	return Snapshot{
		SessionID:    r.sessionID,
		SpeakerCount: r.speakerCount,
		Timeline:     timeline,
		Covered:      r.covered,
		Analyzed:     r.analyzed,
		Skipped:      r.skipped,
		Stats:        stats,
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
