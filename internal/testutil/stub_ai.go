// stub_ai.go - Canned AI provider doubles for testing
package testutil

import (
	"context"

	"github.com/masrulmollah/DataAnalysis/internal/models"
)

// StubAnalyzer implements the session hub's analyzer dependency with a
// canned result. When Block is set, Analyze waits until the channel is
// closed, so a test can hold an analysis in flight across a concurrent
// reset or second upload.
type StubAnalyzer struct {
	Result *models.AnalysisResult
	Err    error
	Block  chan struct{}
}

func (s *StubAnalyzer) Analyze(ctx context.Context, fileName, content string) (*models.AnalysisResult, error) {
	if s.Block != nil {
		<-s.Block
	}
	if s.Err != nil {
		return nil, s.Err
	}
	r := *s.Result
	return &r, nil
}

// StubChatter answers every question with the same text.
type StubChatter struct {
	Text  string
	Err   error
	Block chan struct{}
}

func (s *StubChatter) Reply(ctx context.Context, question, grounding string, history []models.ChatMessage) (string, error) {
	if s.Block != nil {
		<-s.Block
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Text, nil
}

// SampleAnalysis returns a minimal well-formed analysis result.
func SampleAnalysis() *models.AnalysisResult {
	return &models.AnalysisResult{
		Summary:     "ok",
		KeyInsights: []string{},
		Suggestions: []string{},
		ChartData:   []models.ChartPoint{},
		Statistics:  []models.Statistic{},
	}
}
