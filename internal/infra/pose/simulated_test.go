package pose

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skywalker0803r/baseball-pose-analyzer/internal/analyzer"
	"github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"
)

func TestSimulatedProducesScorablePose(t *testing.T) {
	s := NewSimulated()
	a := analyzer.New(analyzer.NewGeometryScorer(false))

	for i := uint64(1); i <= 60; i++ {
		set, err := s.Extract(context.Background(), entity.NewFrame(i, 2, 2, nil))
		require.NoError(t, err)
		require.NotNil(t, set)
		assert.Equal(t, len(restPose), set.Len())

		snap := a.Analyze(set)
		assert.True(t, snap.Detected())
		for _, name := range entity.MetricNames {
			assert.Equal(t, entity.MetricStatusOK, snap.Metrics[name].Status)
		}
	}
}

func TestSimulatedIsDeterministic(t *testing.T) {
	s := NewSimulated()
	frame := entity.NewFrame(17, 2, 2, nil)

	a, err := s.Extract(context.Background(), frame)
	require.NoError(t, err)
	b, err := s.Extract(context.Background(), frame)
	require.NoError(t, err)
	assert.Equal(t, a.Points, b.Points)
}

func TestSimulatedMissEvery(t *testing.T) {
	s := &Simulated{MissEvery: 3}

	set, err := s.Extract(context.Background(), entity.NewFrame(3, 2, 2, nil))
	require.NoError(t, err)
	assert.Nil(t, set)

	set, err = s.Extract(context.Background(), entity.NewFrame(4, 2, 2, nil))
	require.NoError(t, err)
	assert.NotNil(t, set)
}

func TestSimulatedHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSimulated().Extract(ctx, entity.NewFrame(1, 2, 2, nil))
	assert.ErrorIs(t, err, context.Canceled)
}
