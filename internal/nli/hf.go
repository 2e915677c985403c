package nli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claimlens/claimlens/internal/model"
)

// HFScorer implements Scorer against a HuggingFace-style hosted inference
// endpoint running a text-classification NLI model such as
// facebook/bart-large-mnli.
type HFScorer struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

type hfRequest struct {
	Inputs string `json:"inputs"`
}

type hfLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type hfError struct {
	Error string `json:"error"`
}

// NewHFScorer creates a new hosted-inference NLI scorer
func NewHFScorer(cfg model.NLIConfig) (*HFScorer, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("NLI base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("NLI model is required")
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HFScorer{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Score runs the model with premise and hypothesis joined by the separator
// token the MNLI checkpoints were trained with
func (s *HFScorer) Score(ctx context.Context, premise, hypothesis string) (Scores, error) {
	body, err := json.Marshal(hfRequest{
		Inputs: premise + " </s> " + hypothesis,
	})
	if err != nil {
		return Scores{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", s.baseURL, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Scores{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Scores{}, fmt.Errorf("NLI request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Scores{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr hfError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return Scores{}, fmt.Errorf("NLI API error (HTTP %d): %s", resp.StatusCode, apiErr.Error)
		}
		return Scores{}, fmt.Errorf("NLI API error: HTTP %d", resp.StatusCode)
	}

	labels, err := parseLabels(data)
	if err != nil {
		return Scores{}, err
	}

	var scores Scores
	for _, l := range labels {
		switch strings.ToUpper(l.Label) {
		case "ENTAILMENT":
			scores.Entailment = l.Score
		case "CONTRADICTION":
			scores.Contradiction = l.Score
		case "NEUTRAL":
			scores.Neutral = l.Score
		}
	}

	return scores, nil
}

// parseLabels accepts both response shapes the inference API produces:
// a nested [[{label,score}]] for single inputs and a flat [{label,score}].
func parseLabels(data []byte) ([]hfLabel, error) {
	var nested [][]hfLabel
	if err := json.Unmarshal(data, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("empty NLI response")
		}
		return nested[0], nil
	}

	var flat []hfLabel
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("parse NLI response: %w", err)
	}
	return flat, nil
}
