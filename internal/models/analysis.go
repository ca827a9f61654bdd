package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Trend indicates the direction of a statistic.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

func (t Trend) valid() bool {
	switch t {
	case TrendUp, TrendDown, TrendNeutral, "":
		return true
	}
	return false
}

// ChartPoint is a single data point for the dashboard chart.
type ChartPoint struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Category string  `json:"category,omitempty"`
}

// Statistic is a labeled headline figure. Value may be a string or a
// number, anything else is rejected at the deserialization boundary.
type Statistic struct {
	Label string `json:"label"`
	Value any    `json:"value"`
	Trend Trend  `json:"trend,omitempty"`
}

// AnalysisResult is the structured output of one remote analysis call.
// Immutable once received; a new upload replaces it wholesale.
type AnalysisResult struct {
	Summary     string       `json:"summary"`
	KeyInsights []string     `json:"keyInsights"`
	Suggestions []string     `json:"suggestions"`
	ChartData   []ChartPoint `json:"chartData"`
	Statistics  []Statistic  `json:"statistics"`
}

// Validate checks a deserialized result against the contract shape.
// The remote service is not trusted to match the declared schema, so
// any mismatch fails the whole call.
func (r *AnalysisResult) Validate() error {
	if strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("missing summary")
	}
	for i, p := range r.ChartData {
		if p.Name == "" {
			return fmt.Errorf("chartData[%d]: missing name", i)
		}
	}
	for i, s := range r.Statistics {
		if s.Label == "" {
			return fmt.Errorf("statistics[%d]: missing label", i)
		}
		if !validStatValue(s.Value) {
			return fmt.Errorf("statistics[%d]: value must be a string or number, got %T", i, s.Value)
		}
		if !s.Trend.valid() {
			return fmt.Errorf("statistics[%d]: unknown trend %q", i, s.Trend)
		}
	}
	return nil
}

// Normalize replaces nil slices with empty ones so encoded snapshots
// always carry arrays instead of nulls.
func (r *AnalysisResult) Normalize() {
	if r.KeyInsights == nil {
		r.KeyInsights = make([]string, 0)
	}
	if r.Suggestions == nil {
		r.Suggestions = make([]string, 0)
	}
	if r.ChartData == nil {
		r.ChartData = make([]ChartPoint, 0)
	}
	if r.Statistics == nil {
		r.Statistics = make([]Statistic, 0)
	}
}

func validStatValue(v any) bool {
	switch v.(type) {
	case string, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		json.Number:
		return true
	}
	return false
}
