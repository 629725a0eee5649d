// Package report renders analysis snapshots for operators: a terminal
// summary plus optional JSON or CSV result files.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tdemirli/roomcount-go/internal/analysis"
	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/errors"
)

// Write prints the session summary to stdout and, when an output
// directory is configured, writes the result file in the configured
// format.
func Write(settings *conf.Settings, s *analysis.Snapshot) error {
	PrintSummary(os.Stdout, s)

	if settings.Output.Dir == "" {
		return nil
	}
	return WriteFile(settings, s)
}

// PrintSummary renders the human-readable session summary.
func PrintSummary(w io.Writer, s *analysis.Snapshot) {
	fmt.Fprintf(w, "\nSession %s\n", s.SessionID)
	fmt.Fprintf(w, "Estimated speakers: %d\n", s.SpeakerCount)
	fmt.Fprintf(w, "Speech analyzed: %s across %d segments (%d skipped)\n",
		s.Covered.Round(100*time.Millisecond), s.Analyzed, s.Skipped)

	if len(s.Timeline) == 0 {
		fmt.Fprintln(w, "No speech detected.")
		return
	}

	fmt.Fprintf(w, "\n%-12s %-12s %s\n", "Start", "End", "Speaker")
	for _, seg := range s.Timeline {
		fmt.Fprintf(w, "%-12s %-12s %s\n",
			seg.Start.Format("15:04:05.000"),
			seg.End.Format("15:04:05.000"),
			seg.Label)
	}
}

// WriteFile writes the snapshot into the output directory, named after
// the session.
func WriteFile(settings *conf.Settings, s *analysis.Snapshot) error {
	if err := os.MkdirAll(settings.Output.Dir, 0o755); err != nil {
		return errors.New(fmt.Errorf("creating output directory: %w", err)).
			Component("report").
			Category(errors.CategoryFileIO).
			Build()
	}

	path := filepath.Join(settings.Output.Dir, "roomcount_"+s.SessionID+"."+settings.Output.Format)
	f, err := os.Create(path)
	if err != nil {
		return errors.New(fmt.Errorf("creating result file: %w", err)).
			Component("report").
			Category(errors.CategoryFileIO).
			Build()
	}
	defer f.Close()

	switch settings.Output.Format {
	case "csv":
		err = writeCSV(f, s)
	case "json":
		err = writeJSON(f, s)
	default:
		err = errors.Newf("unsupported output format: %s", settings.Output.Format).
			Component("report").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err != nil {
		return err
	}
	fmt.Printf("Results written to %s\n", path)
	return nil
}

// jsonReport is the serialized result layout. Durations are reported in
// seconds rather than Go's native nanoseconds.
type jsonReport struct {
	SessionID       string        `json:"session_id"`
	SpeakerCount    int           `json:"speaker_count"`
	CoveredSeconds  float64       `json:"covered_seconds"`
	Analyzed        int           `json:"analyzed_segments"`
	Skipped         int           `json:"skipped_segments"`
	Timeline        []jsonEntry   `json:"timeline"`
	Speakers        []jsonSpeaker `json:"speakers"`
}

type jsonEntry struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

type jsonSpeaker struct {
	Label         string  `json:"label"`
	SpeechSeconds float64 `json:"speech_seconds"`
	Intervals     int     `json:"intervals"`
}

func writeJSON(w io.Writer, s *analysis.Snapshot) error {
	rep := jsonReport{
		SessionID:      s.SessionID,
		SpeakerCount:   s.SpeakerCount,
		CoveredSeconds: s.Covered.Seconds(),
		Analyzed:       s.Analyzed,
		Skipped:        s.Skipped,
		Timeline:       make([]jsonEntry, 0, len(s.Timeline)),
		Speakers:       make([]jsonSpeaker, 0, len(s.Stats)),
	}
	for _, seg := range s.Timeline {
		rep.Timeline = append(rep.Timeline, jsonEntry{Start: seg.Start, End: seg.End, Label: seg.Label})
	}
	for _, st := range s.Stats {
		rep.Speakers = append(rep.Speakers, jsonSpeaker{
			Label:         st.Label,
			SpeechSeconds: st.Speech.Seconds(),
			Intervals:     st.Intervals,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func writeCSV(w io.Writer, s *analysis.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"start", "end", "label", "speaker_count"}); err != nil {
		return err
	}
	count := strconv.Itoa(s.SpeakerCount)
	for _, seg := range s.Timeline {
		if err := cw.Write([]string{
			seg.Start.Format(time.RFC3339Nano),
			seg.End.Format(time.RFC3339Nano),
			seg.Label,
			count,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
