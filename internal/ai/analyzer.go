package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/masrulmollah/DataAnalysis/internal/models"
)

const analysisPrompt = `You are a data analyst. Analyze the uploaded file below and respond with a single JSON object and nothing else, matching exactly this shape:

{
  "summary": "one paragraph describing the data",
  "keyInsights": ["insight", ...],
  "suggestions": ["actionable suggestion", ...],
  "chartData": [{"name": "label", "value": 123, "category": "optional group"}, ...],
  "statistics": [{"label": "metric", "value": "string or number", "trend": "up|down|neutral"}, ...]
}

File name: %s

File content:
%s`

// Analyzer turns one uploaded file into a structured AnalysisResult
// through a single remote call. The call is single-shot, no retry.
type Analyzer struct {
	provider Provider
}

func NewAnalyzer(provider Provider) *Analyzer {
	return &Analyzer{provider: provider}
}

// Analyze sends the file name and extracted text to the model and
// deserializes the response. The remote output is validated against
// the result shape and rejected wholesale on any mismatch.
func (a *Analyzer) Analyze(ctx context.Context, fileName, content string) (*models.AnalysisResult, error) {
	prompt := fmt.Sprintf(analysisPrompt, fileName, content)

	raw, err := a.provider.Generate(ctx, prompt, WithJSONMode(), WithTemperature(0.2))
	if err != nil {
		return nil, &models.RemoteCallError{Op: "analysis", Err: err}
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &result); err != nil {
		return nil, &models.RemoteCallError{Op: "analysis", Err: fmt.Errorf("malformed response: %w", err)}
	}
	if err := result.Validate(); err != nil {
		return nil, &models.RemoteCallError{Op: "analysis", Err: fmt.Errorf("response shape: %w", err)}
	}
	result.Normalize()
	return &result, nil
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models emit even when asked for bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return strings.Trim(s, "`")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
