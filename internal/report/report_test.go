package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdemirli/roomcount-go/internal/analysis"
	"github.com/tdemirli/roomcount-go/internal/conf"
)

func sampleSnapshot() *analysis.Snapshot {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &analysis.Snapshot{
		SessionID:    "abc123",
		SpeakerCount: 2,
		Covered:      6 * time.Second,
		Analyzed:     2,
		Skipped:      1,
		Timeline: []analysis.SpeakerSegment{
			{Start: base, End: base.Add(2 * time.Second), Label: "s0/SPEAKER_00"},
			{Start: base.Add(2 * time.Second), End: base.Add(4 * time.Second), Label: "s0/SPEAKER_01"},
			{Start: base.Add(5 * time.Second), End: base.Add(7 * time.Second), Label: conf.UnanalyzedLabel},
		},
		Stats: []analysis.SpeakerStat{
			{Label: "s0/SPEAKER_00", Speech: 2 * time.Second, Intervals: 1},
			{Label: "s0/SPEAKER_01", Speech: 2 * time.Second, Intervals: 1},
		},
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, sampleSnapshot())

	out := buf.String()
	assert.Contains(t, out, "Estimated speakers: 2")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "s0/SPEAKER_00")
	assert.Contains(t, out, conf.UnanalyzedLabel)
}

func TestPrintSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, &analysis.Snapshot{SessionID: "empty"})
	assert.Contains(t, buf.String(), "No speech detected")
}

func TestWriteFileJSON(t *testing.T) {
	settings := &conf.Settings{}
	settings.Output.Dir = t.TempDir()
	settings.Output.Format = "json"

	snap := sampleSnapshot()
	require.NoError(t, WriteFile(settings, snap))

	data, err := os.ReadFile(filepath.Join(settings.Output.Dir, "roomcount_abc123.json"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.EqualValues(t, 2, decoded["speaker_count"])
	assert.EqualValues(t, 6, decoded["covered_seconds"])
	assert.Len(t, decoded["timeline"], 3)
	assert.Len(t, decoded["speakers"], 2)
}

func TestWriteFileCSV(t *testing.T) {
	settings := &conf.Settings{}
	settings.Output.Dir = t.TempDir()
	settings.Output.Format = "csv"

	require.NoError(t, WriteFile(settings, sampleSnapshot()))

	f, err := os.Open(filepath.Join(settings.Output.Dir, "roomcount_abc123.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4) // header + 3 timeline entries
	assert.Equal(t, []string{"start", "end", "label", "speaker_count"}, rows[0])
	assert.Equal(t, "s0/SPEAKER_00", rows[1][2])
	assert.Equal(t, "2", rows[1][3])
}

func TestWriteFileUnsupportedFormat(t *testing.T) {
	settings := &conf.Settings{}
	settings.Output.Dir = t.TempDir()
	settings.Output.Format = "xml"

	assert.Error(t, WriteFile(settings, sampleSnapshot()))
}
