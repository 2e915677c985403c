package retrieve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/util"
	"github.com/claimlens/claimlens/internal/worker"
)

const ddgEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGoSource retrieves evidence by scraping DuckDuckGo's HTML results
// page. It needs no API key, which makes it the default when no SerpAPI
// credentials are configured. Scraping is polite: robots.txt is honored and
// requests are rate limited per domain.
type DuckDuckGoSource struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
}

// NewDuckDuckGoSource creates a new scraping evidence source
func NewDuckDuckGoSource(cfg model.SearchConfig, httpCfg model.HTTPConfig) (*DuckDuckGoSource, error) {
	rps := cfg.RateRPS
	if rps <= 0 {
		rps = 1.0
	}

	return &DuckDuckGoSource{
		endpoint:   ddgEndpoint,
		httpClient: &http.Client{Timeout: httpCfg.Timeout},
		userAgent:  httpCfg.UserAgent,
		maxBytes:   httpCfg.MaxBodyBytes,
		robots:     util.NewRobotsChecker(httpCfg.UserAgent, httpCfg.Timeout),
		limiter:    worker.NewLimiter(rps, cfg.Burst),
	}, nil
}

// Name returns the source name
func (s *DuckDuckGoSource) Name() string {
	return "duckduckgo"
}

// Retrieve scrapes up to rounds result pages, deduplicating snippet text
// case-insensitively across rounds and truncating to topK
func (s *DuckDuckGoSource) Retrieve(ctx context.Context, query string, rounds, topK int) ([]model.Snippet, error) {
	if rounds < 1 {
		rounds = 1
	}

	var snippets []model.Snippet
	dd := newDedupe()

	for round := 0; round < rounds; round++ {
		page, err := s.fetchPage(ctx, query, round*30)
		if err != nil {
			if len(snippets) == 0 {
				return nil, err
			}
			break
		}

		for _, r := range page {
			text := util.CleanText(r.Text)
			if text == "" || !dd.add(text) {
				continue
			}
			snippets = append(snippets, r)
		}
	}

	return truncate(snippets, topK), nil
}

func (s *DuckDuckGoSource) fetchPage(ctx context.Context, query string, offset int) ([]model.Snippet, error) {
	target := s.endpoint + "?q=" + url.QueryEscape(query)
	if offset > 0 {
		target += "&s=" + strconv.Itoa(offset)
	}

	allowed, crawlDelay, err := s.robots.CanFetch(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("robots check: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("robots.txt disallows fetching %s", s.endpoint)
	}

	if err := s.limiter.WaitWithDelay(ctx, target, crawlDelay); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch results: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search error: HTTP %d", resp.StatusCode)
	}

	return parseResults(io.LimitReader(resp.Body, s.maxBytes))
}

// parseResults extracts snippet/link pairs from a DuckDuckGo HTML results
// page
func parseResults(r io.Reader) ([]model.Snippet, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	var snippets []model.Snippet
	doc.Find("div.result").Each(func(_ int, sel *goquery.Selection) {
		text := sel.Find(".result__snippet").Text()
		if strings.TrimSpace(text) == "" {
			return
		}

		link := "#"
		if href, ok := sel.Find("a.result__a").Attr("href"); ok && href != "" {
			link = resolveRedirect(href)
		}

		snippets = append(snippets, model.Snippet{Text: text, SourceURL: link})
	})

	return snippets, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links to the real
// target URL, leaving direct links untouched
func resolveRedirect(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}

	if uddg := parsed.Query().Get("uddg"); uddg != "" {
		if target, err := url.QueryUnescape(uddg); err == nil {
			return target
		}
	}

	if parsed.Scheme == "" {
		return "https:" + href
	}

	return href
}
