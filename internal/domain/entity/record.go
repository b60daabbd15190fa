package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SessionRecord is a saved analysis result.
type SessionRecord struct {
	SessionID string                 `json:"session_id,omitempty"`
	Score     int                    `json:"score"`
	Metrics   map[string]MetricScore `json:"metrics"`
	Timestamp time.Time              `json:"timestamp"`

	// MetricOrder is the order metrics were listed in when the record was submitted.
	MetricOrder []string `json:"-"`
}

// Accepted string layouts for a submitted record timestamp, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON accepts timestamps as RFC3339, "2006-01-02T15:04:05",
// "2006-01-02 15:04:05", "2006-01-02" or epoch milliseconds, and keeps
// the submitted order of the metrics.
func (r *SessionRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		SessionID string          `json:"session_id"`
		Score     int             `json:"score"`
		Metrics   json.RawMessage `json:"metrics"`
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts, err := ParseTimestamp(raw.Timestamp)
	if err != nil {
		return err
	}

	var (
		metrics map[string]MetricScore
		order   []string
	)
	if len(raw.Metrics) > 0 {
		if err := json.Unmarshal(raw.Metrics, &metrics); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		if order, err = objectKeys(raw.Metrics); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	*r = SessionRecord{
		SessionID:   raw.SessionID,
		Score:       raw.Score,
		Metrics:     metrics,
		Timestamp:   ts,
		MetricOrder: order,
	}
	return nil
}

// ParseTimestamp decodes a JSON timestamp value. null, "" and an absent value give the zero time.
func ParseTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, fmt.Errorf("timestamp: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}, nil
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("timestamp: unsupported format %q", s)
	}

	ms, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp: %w", err)
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}

// objectKeys returns the keys of a JSON object in document order, without duplicates.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil
	}

	var keys []string
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// OrderedMetricNames returns the metric names in submitted order. Names
// without a submitted position follow in ascending order.
func (r SessionRecord) OrderedMetricNames() []string {
	names := make([]string, 0, len(r.Metrics))
	placed := make(map[string]bool, len(r.Metrics))
	for _, name := range r.MetricOrder {
		if _, ok := r.Metrics[name]; ok && !placed[name] {
			placed[name] = true
			names = append(names, name)
		}
	}

	var rest []string
	for name := range r.Metrics {
		if !placed[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// Validate checks that all scores are within [0,100].
func (r SessionRecord) Validate() error {
	if r.Score < 0 || r.Score > 100 {
		return ErrInvalidRecord
	}
	for name, m := range r.Metrics {
		if name == "" || m.Score < 0 || m.Score > 100 {
			return ErrInvalidRecord
		}
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r SessionRecord) Clone() SessionRecord {
	out := r
	if r.Metrics != nil {
		out.Metrics = make(map[string]MetricScore, len(r.Metrics))
		for k, v := range r.Metrics {
			out.Metrics[k] = v
		}
	}
	if r.MetricOrder != nil {
		out.MetricOrder = append([]string(nil), r.MetricOrder...)
	}
	return out
}

// BestMetric is the highest single metric score seen across saved records.
type BestMetric struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Recommendation flags a metric whose historical average is weak.
type Recommendation struct {
	Metric       string `json:"metric"`
	AverageScore int    `json:"average_score"`
}

// AnalyticsAggregate is the running summary over all saved records.
type AnalyticsAggregate struct {
	Records         []SessionRecord  `json:"records"`
	AnalysisCount   int              `json:"analysis_count"`
	AverageScore    int              `json:"average_score"`
	BestMetric      BestMetric       `json:"best_metric"`
	Recommendations []Recommendation `json:"recommendations"`
}
