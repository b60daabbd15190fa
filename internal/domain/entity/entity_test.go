package entity

import (
	"encoding/json"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  SessionRecord
		wantErr bool
	}{
		{"valid", SessionRecord{Score: 80, Metrics: map[string]MetricScore{"stride_angle": {Score: 90}}}, false},
		{"bounds", SessionRecord{Score: 100, Metrics: map[string]MetricScore{"a": {Score: 0}}}, false},
		{"score above range", SessionRecord{Score: 101}, true},
		{"negative score", SessionRecord{Score: -1}, true},
		{"metric out of range", SessionRecord{Score: 50, Metrics: map[string]MetricScore{"a": {Score: 120}}}, true},
		{"empty metric name", SessionRecord{Score: 50, Metrics: map[string]MetricScore{"": {Score: 10}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRecord)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecordCloneIsDeep(t *testing.T) {
	orig := SessionRecord{Score: 70, Metrics: map[string]MetricScore{"a": {Score: 70}}}
	c := orig.Clone()
	c.Metrics["a"] = MetricScore{Score: 1}

	assert.Equal(t, 70, orig.Metrics["a"].Score)
	assert.Nil(t, SessionRecord{}.Clone().Metrics)
}

func TestSessionTransitions(t *testing.T) {
	s := NewSession("s1", SourceVideo)
	assert.Equal(t, SessionStatusPending, s.Status)
	assert.False(t, s.Done())

	s.MarkRunning()
	assert.Equal(t, SessionStatusRunning, s.Status)
	assert.False(t, s.Done())

	s.MarkCompleted(SessionSummary{SessionID: "s1", FramesProcessed: 3})
	assert.True(t, s.Done())
	require.NotNil(t, s.Summary)
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, 3, s.Summary.FramesProcessed)

	f := NewSession("s2", SourceCamera)
	f.MarkFailed("boom")
	assert.True(t, f.Done())
	assert.Equal(t, "boom", f.ErrorMessage)

	c := NewSession("s3", SourceCamera)
	c.MarkCancelled(SessionSummary{})
	assert.Equal(t, SessionStatusCancelled, c.Status)
	assert.True(t, c.Done())
}

func TestSummaryRecord(t *testing.T) {
	sum := SessionSummary{
		SessionID:    "s1",
		AverageScore: 77,
		AverageMetrics: map[MetricName]MetricScore{
			MetricStrideAngle: {Score: 80, Status: MetricStatusOK},
		},
	}
	rec := sum.Record()

	assert.Equal(t, "s1", rec.SessionID)
	assert.Equal(t, 77, rec.Score)
	assert.Equal(t, MetricScore{Score: 80, Status: MetricStatusOK}, rec.Metrics["stride_angle"])
	assert.False(t, rec.Timestamp.IsZero())
	assert.NoError(t, rec.Validate())
}

func TestStatusMessage(t *testing.T) {
	s := NewSession("s1", SourceVideo)
	msg := StatusMessage(s)
	assert.Equal(t, SessionStatusPending, msg.Status)
	assert.Zero(t, msg.FramesProcessed)

	s.MarkCompleted(SessionSummary{FramesProcessed: 10, AverageScore: 82})
	msg = StatusMessage(s)
	assert.Equal(t, "s1", msg.SessionID)
	assert.Equal(t, SourceVideo, msg.Source)
	assert.Equal(t, SessionStatusCompleted, msg.Status)
	assert.Equal(t, 10, msg.FramesProcessed)
	assert.Equal(t, 82, msg.AverageScore)
	assert.Equal(t, s.UpdatedAt, msg.Timestamp)
}

func TestUndetectedSnapshot(t *testing.T) {
	a, b := UndetectedSnapshot(), UndetectedSnapshot()
	assert.Equal(t, a, b)
	assert.False(t, a.Detected())
	assert.Len(t, a.Metrics, len(MetricNames))
	for _, name := range MetricNames {
		assert.Equal(t, MetricScore{Score: 0, Status: MetricStatusUndetected}, a.Metrics[name])
	}
}

func TestVerdictFor(t *testing.T) {
	assert.Equal(t, VerdictFail, VerdictFor(80))
	assert.Equal(t, VerdictPass, VerdictFor(81))
	assert.Equal(t, VerdictFail, VerdictFor(0))
}

func TestLandmarkSetGet(t *testing.T) {
	var none *LandmarkSet
	_, ok := none.Get(Nose, 0)
	assert.False(t, ok)
	assert.Zero(t, none.Len())

	set := NewLandmarkSet()
	set.Points[Nose] = Landmark{X: 0.5, Y: 0.2, Visibility: 0.4}
	_, ok = set.Get(Nose, 0.5)
	assert.False(t, ok)
	lm, ok := set.Get(Nose, 0.3)
	assert.True(t, ok)
	assert.Equal(t, 0.5, lm.X)
	assert.Equal(t, 1, set.Len())
}

func TestFrameImageRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	f := FrameFromImage(7, img)
	assert.Equal(t, uint64(7), f.Index)
	assert.Len(t, f.Data, 2*2*3)

	back := f.RGBA()
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, back.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{A: 255}, back.RGBAAt(0, 0))
}

func TestRecordUnmarshalTimestampFormats(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", `"2024-01-15T10:30:00.000Z"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"rfc3339 offset", `"2024-01-15T18:30:00+08:00"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"no zone", `"2024-01-15T10:30:00"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"date and time", `"2024-01-15 10:30:00"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"date only", `"2024-01-15"`, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"epoch millis", `1705314600000`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"null", `null`, time.Time{}},
		{"empty string", `""`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec SessionRecord
			err := json.Unmarshal([]byte(`{"score":85,"metrics":{},"timestamp":`+tt.raw+`}`), &rec)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(rec.Timestamp), "got %v", rec.Timestamp)
			assert.Equal(t, 85, rec.Score)
		})
	}
}

func TestRecordUnmarshalRejectsUnknownTimestamp(t *testing.T) {
	var rec SessionRecord
	err := json.Unmarshal([]byte(`{"score":85,"timestamp":"15/01/2024"}`), &rec)
	assert.Error(t, err)
}

func TestRecordUnmarshalKeepsMetricOrder(t *testing.T) {
	var rec SessionRecord
	body := `{"score":90,"metrics":{"throwing_angle":{"score":95,"status":"OK"},"arm_symmetry":{"score":95,"status":"OK"},"hip_rotation":{"score":70,"status":"OK"}}}`
	require.NoError(t, json.Unmarshal([]byte(body), &rec))

	assert.Equal(t, []string{"throwing_angle", "arm_symmetry", "hip_rotation"}, rec.MetricOrder)
	assert.Equal(t, rec.MetricOrder, rec.OrderedMetricNames())
	assert.Equal(t, 95, rec.Metrics["arm_symmetry"].Score)
	assert.True(t, rec.Timestamp.IsZero())
}

func TestOrderedMetricNamesFallsBackToAscending(t *testing.T) {
	rec := SessionRecord{
		Metrics: map[string]MetricScore{
			"stride_angle": {Score: 1},
			"arm_symmetry": {Score: 1},
			"hip_rotation": {Score: 1},
		},
		MetricOrder: []string{"stride_angle", "missing"},
	}
	assert.Equal(t, []string{"stride_angle", "arm_symmetry", "hip_rotation"}, rec.OrderedMetricNames())
}

func TestSummaryRecordUsesCanonicalOrder(t *testing.T) {
	sum := SessionSummary{AverageMetrics: map[MetricName]MetricScore{
		MetricElbowHeight: {Score: 1},
		MetricStrideAngle: {Score: 1},
	}}
	assert.Equal(t, []string{"stride_angle", "elbow_height"}, sum.Record().MetricOrder)
}
