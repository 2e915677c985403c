package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/util"
)

const serpAPIEndpoint = "https://serpapi.com/search.json"

// SerpAPISource retrieves evidence via the SerpAPI Google search API
type SerpAPISource struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	maxBytes   int64
}

type serpAPIResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

// NewSerpAPISource creates a new SerpAPI evidence source
func NewSerpAPISource(cfg model.SearchConfig, httpCfg model.HTTPConfig) (*SerpAPISource, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("SerpAPI key is required (set SERPAPI_API_KEY)")
	}

	return &SerpAPISource{
		apiKey:     cfg.APIKey,
		endpoint:   serpAPIEndpoint,
		httpClient: &http.Client{Timeout: httpCfg.Timeout},
		maxBytes:   httpCfg.MaxBodyBytes,
	}, nil
}

// Name returns the source name
func (s *SerpAPISource) Name() string {
	return "serpapi"
}

// Retrieve runs up to rounds result pages for the query, deduplicates
// snippet text case-insensitively across rounds, and truncates to topK.
// Results without a snippet are skipped; results without a link keep the
// snippet under a placeholder link.
func (s *SerpAPISource) Retrieve(ctx context.Context, query string, rounds, topK int) ([]model.Snippet, error) {
	if rounds < 1 {
		rounds = 1
	}

	var snippets []model.Snippet
	dd := newDedupe()

	for round := 0; round < rounds; round++ {
		page, err := s.search(ctx, query, topK, round*topK)
		if err != nil {
			// First round failing means no evidence at all; later rounds
			// keep whatever earlier rounds gathered.
			if len(snippets) == 0 {
				return nil, err
			}
			break
		}

		for _, r := range page.OrganicResults {
			text := util.CleanText(r.Snippet)
			if text == "" || !dd.add(text) {
				continue
			}

			link := r.Link
			if link == "" {
				link = "#"
			}
			snippets = append(snippets, model.Snippet{Text: text, SourceURL: link})
		}
	}

	return truncate(snippets, topK), nil
}

func (s *SerpAPISource) search(ctx context.Context, query string, num, start int) (*serpAPIResponse, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", s.apiKey)
	params.Set("num", strconv.Itoa(num))
	if start > 0 {
		params.Set("start", strconv.Itoa(start))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API error: HTTP %d", resp.StatusCode)
	}

	var parsed serpAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("search API error: %s", parsed.Error)
	}

	return &parsed, nil
}
