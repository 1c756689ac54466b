// Package articles serves the read-only recovery-article catalogue. The
// catalogue lives in a remote content API; this side caches it in Redis and
// refreshes on an interval, falling back to a baked-in set when both the
// cache and the API are unavailable. Articles are never written from here.
package articles

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wisesobriety/wisesober/models"
	"github.com/wisesobriety/wisesober/utils"
)

const (
	cacheKey      = "cache:articles:list"
	lastUpdateKey = "cache:articles:last_update"
)

// Service fetches and caches the article catalogue.
type Service struct {
	client  *http.Client
	baseURL string
	apiKey  string
	refresh time.Duration

	// cache indirection so tests run without Redis
	cacheGet func(key string) ([]byte, bool)
	cacheSet func(key string, v interface{}, ttl time.Duration)
	now      func() time.Time
}

// NewService builds a Service against the given content API base URL. A
// blank baseURL disables remote fetching; only cache and fallback content
// are served.
func NewService(baseURL, apiKey string, refreshDays int) *Service {
	if refreshDays <= 0 {
		refreshDays = 7
	}
	return &Service{
		client:   &http.Client{Timeout: 15 * time.Second},
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		refresh:  time.Duration(refreshDays) * 24 * time.Hour,
		cacheGet: utils.CacheGetBytes,
		cacheSet: utils.CacheSetJSON,
		now:      time.Now,
	}
}

// List returns the article catalogue: remote when a refresh is due and the
// API answers, cached otherwise, baked-in fallback when both fail.
func (s *Service) List(ctx context.Context) []models.Article {
	if s.refreshDue() {
		if fetched, err := s.fetch(ctx, nil); err == nil && len(fetched) > 0 {
			s.cacheSet(cacheKey, fetched, s.refresh)
			s.cacheSet(lastUpdateKey, s.now().Unix(), s.refresh)
			return fetched
		} else if err != nil && utils.Sugar != nil {
			utils.Sugar.Warnf("article fetch failed, serving cache: %v", err)
		}
	}
	if cached := s.cached(); len(cached) > 0 {
		return cached
	}
	return fallbackArticles()
}

// ByCategory returns articles in one category. Remote filtering is
// preferred; any failure degrades to filtering the local catalogue.
func (s *Service) ByCategory(ctx context.Context, category string) []models.Article {
	params := url.Values{"category": []string{"eq." + category}}
	if fetched, err := s.fetch(ctx, params); err == nil {
		return fetched
	}
	matched := []models.Article{}
	for _, a := range s.List(ctx) {
		if strings.EqualFold(a.Category, category) {
			matched = append(matched, a)
		}
	}
	return matched
}

// Search matches a query against title, excerpt, and content of the local
// catalogue.
func (s *Service) Search(ctx context.Context, query string) []models.Article {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.List(ctx)
	}
	matched := []models.Article{}
	for _, a := range s.List(ctx) {
		haystack := strings.ToLower(a.Title + " " + a.Excerpt + " " + a.Content)
		if strings.Contains(haystack, q) {
			matched = append(matched, a)
		}
	}
	return matched
}

func (s *Service) refreshDue() bool {
	if s.baseURL == "" {
		return false
	}
	raw, ok := s.cacheGet(lastUpdateKey)
	if !ok {
		return true
	}
	last, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return true
	}
	return s.now().Sub(time.Unix(last, 0)) >= s.refresh
}

func (s *Service) cached() []models.Article {
	raw, ok := s.cacheGet(cacheKey)
	if !ok {
		return nil
	}
	var arts []models.Article
	if err := json.Unmarshal(raw, &arts); err != nil {
		return nil
	}
	return arts
}

// fetch queries the content API. The API answers with a bare JSON array.
func (s *Service) fetch(ctx context.Context, params url.Values) ([]models.Article, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("no content API configured")
	}
	endpoint := s.baseURL + "/articles"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content API status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	var arts []models.Article
	if err := json.Unmarshal(body, &arts); err != nil {
		return nil, fmt.Errorf("invalid content API response: %w", err)
	}
	return arts, nil
}

// fallbackArticles is the baked-in catalogue served when no other source is
// available, so the resources screen is never empty.
func fallbackArticles() []models.Article {
	return []models.Article{
		{
			ID:          "fallback-1",
			Title:       "Understanding Cravings and How They Pass",
			Category:    "Coping",
			Excerpt:     "Cravings feel urgent, but they crest and fade like waves.",
			Content:     "A craving typically peaks within 20 to 30 minutes. Naming the trigger, changing your environment, and riding the wave without acting are the foundation of urge surfing. Keep a short list of two or three actions you can start within one minute.",
			Author:      "WiseSober Team",
			ReadMinutes: 4,
		},
		{
			ID:          "fallback-2",
			Title:       "Building a Daily Check-in Habit",
			Category:    "Habits",
			Excerpt:     "Two minutes of honest reflection each day compounds.",
			Content:     "Attach the check-in to an anchor you already have: morning coffee, the commute, brushing your teeth. Consistency matters more than depth; a short honest entry beats a long skipped one.",
			Author:      "WiseSober Team",
			ReadMinutes: 3,
		},
		{
			ID:          "fallback-3",
			Title:       "Who To Call: Mapping Your Support Network",
			Category:    "Support",
			Excerpt:     "Decide who you will contact before you need to.",
			Content:     "Write down three people and the situations each is best for. A sponsor for cravings, a friend for loneliness, a group meeting schedule for structure. Deciding in a calm moment removes the hardest step from a hard moment.",
			Author:      "WiseSober Team",
			ReadMinutes: 5,
		},
	}
}
