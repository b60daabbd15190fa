package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

type stubStarter struct {
	err     error
	started []string
}

func (s *stubStarter) StartVideo(_ context.Context, sessionID string) error {
	s.started = append(s.started, sessionID)
	return s.err
}

type recordingDLQ struct {
	reasons []string
}

func (d *recordingDLQ) PublishToDLQ(_ context.Context, _ []byte, reason string) error {
	d.reasons = append(d.reasons, reason)
	return nil
}

func TestAnalysisRequestStartsVideo(t *testing.T) {
	starter := &stubStarter{}
	dlq := &recordingDLQ{}
	h := NewAnalysisRequestHandler(starter, dlq, zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), []byte(`{"session_id":"20240101_120000"}`)))
	assert.Equal(t, []string{"20240101_120000"}, starter.started)
	assert.Empty(t, dlq.reasons)
}

func TestAnalysisRequestMalformedGoesToDLQ(t *testing.T) {
	starter := &stubStarter{}
	dlq := &recordingDLQ{}
	h := NewAnalysisRequestHandler(starter, dlq, zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), []byte(`{not json`)))
	require.NoError(t, h.Handle(context.Background(), []byte(`{}`)))

	assert.Empty(t, starter.started)
	require.Len(t, dlq.reasons, 2)
	assert.Contains(t, dlq.reasons[0], "unmarshal_error")
	assert.Equal(t, "missing session_id", dlq.reasons[1])
}

func TestAnalysisRequestOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		parked bool
	}{
		{"source unavailable is acked", fmt.Errorf("%w: gone", entity.ErrSourceUnavailable), false},
		{"duplicate is parked", entity.ErrSessionExists, true},
		{"over limit is parked", entity.ErrTooManySessions, true},
		{"unexpected error is parked", assert.AnError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dlq := &recordingDLQ{}
			h := NewAnalysisRequestHandler(&stubStarter{err: tt.err}, dlq, zap.NewNop())

			require.NoError(t, h.Handle(context.Background(), []byte(`{"session_id":"s"}`)))
			assert.Equal(t, tt.parked, len(dlq.reasons) == 1)
		})
	}
}
