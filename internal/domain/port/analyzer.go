package port

import "github.com/skywalker0803r/baseball-pose-analyzer/internal/domain/entity"

// MetricAnalyzer scores a landmark set. A nil set yields the undetected snapshot.
type MetricAnalyzer interface {
	Analyze(landmarks *entity.LandmarkSet) entity.MetricSnapshot
}
