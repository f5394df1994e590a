package relevance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fairsearch/internal/config"
	"fairsearch/pkg/types"
)

const judgeAttempts = 2

// OllamaJudge resolves ambiguous candidates by asking a local Ollama
// model for a structured verdict.
type OllamaJudge struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOllamaJudge creates a judge from config.
func NewOllamaJudge(cfg config.JudgeConfig) *OllamaJudge {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaJudge{
		model:   cfg.Model,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (o *OllamaJudge) Classify(ctx context.Context, jc JudgmentContext) (Judgment, error) {
	prompt := buildPrompt(jc)

	var lastErr error
	for attempt := 0; attempt < judgeAttempts; attempt++ {
		if ctx.Err() != nil {
			return Judgment{}, ctx.Err()
		}
		judgment, err := o.callAPI(ctx, prompt)
		if err == nil {
			return judgment, nil
		}
		lastErr = err
	}
	return Judgment{}, fmt.Errorf("%w: %v", types.ErrJudgment, lastErr)
}

func buildPrompt(jc JudgmentContext) string {
	return fmt.Sprintf(`You are judging whether a documentation file describes a scientific data file.

Data file: %s
Candidate document: %s
Times the data file is mentioned in the document: %d

Document preview:
%s

Respond with JSON only: {"label": "RELEVANT" | "NOT_RELEVANT" | "UNCERTAIN", "confidence": 0.0-1.0, "reason": "one sentence"}`,
		jc.DataFilename, jc.CandidateFilename, jc.MentionCount, jc.ContentPreview)
}

func (o *OllamaJudge) callAPI(ctx context.Context, prompt string) (Judgment, error) {
	reqBody := map[string]interface{}{
		"model":  o.model,
		"prompt": prompt,
		"format": "json",
		"stream": false,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return Judgment{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Judgment{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return Judgment{}, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return Judgment{}, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return Judgment{}, fmt.Errorf("decode response: %w", err)
	}

	var judgment Judgment
	if err := json.Unmarshal([]byte(apiResp.Response), &judgment); err != nil {
		return Judgment{}, fmt.Errorf("parse judgment %q: %w", apiResp.Response, err)
	}
	return judgment, nil
}
