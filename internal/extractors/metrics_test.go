package extractors

import (
	"math"
	"testing"
	"time"

	"github.com/strands/strands/internal/adapters"
)

func TestMetricExtractorDetect(t *testing.T) {
	extractor := NewMetricExtractor()

	start := time.Now().Add(-15 * time.Minute)
	series := make([]adapters.MetricPoint, 0, 15)
	for i := 0; i < 15; i++ {
		ts := start.Add(time.Duration(i) * time.Minute)
		value := 0.6
		if i > 10 {
			value = 2.5
		}
		series = append(series, adapters.MetricPoint{Timestamp: ts, Value: value})
	}

	anomalies := extractor.Detect(series, 1.0)
	if len(anomalies) == 0 {
		t.Fatalf("expected anomalies, got none")
	}
}

func TestMetricExtractorSkipsNaNGaps(t *testing.T) {
	extractor := NewMetricExtractor()
	start := time.Now()
	series := []adapters.MetricPoint{
		{Timestamp: start, Value: 0.5},
		{Timestamp: start.Add(time.Minute), Value: math.NaN()},
		{Timestamp: start.Add(2 * time.Minute), Value: 0.5},
	}
	anomalies := extractor.Detect(series, 1.0)
	if len(anomalies) != 0 {
		t.Fatalf("expected no anomalies for a flat series with a gap, got %d", len(anomalies))
	}
}

func TestLogsExtractorDetect(t *testing.T) {
	extractor := NewLogsExtractor()
	start := time.Now().Add(-5 * time.Minute)

	lines := make([]string, 0, 60)
	for i := 0; i < 20; i++ {
		lines = append(lines, "info: heartbeat ok")
	}
	for i := 0; i < 40; i++ {
		lines = append(lines, "error: connection refused")
	}

	raw := ""
	for i, l := range lines {
		if i > 0 {
			raw += "\n"
		}
		raw += l
	}

	anomalies := extractor.Detect(raw, start)
	if len(anomalies) == 0 {
		t.Fatalf("expected log anomalies, got none")
	}
}

func TestLogsExtractorEmptyInput(t *testing.T) {
	extractor := NewLogsExtractor()
	if anomalies := extractor.Detect("", time.Now()); anomalies != nil {
		t.Fatalf("expected nil anomalies for empty input, got %v", anomalies)
	}
}
