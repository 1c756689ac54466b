package articles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisesobriety/wisesober/models"
)

// memCache is an in-process stand-in for the Redis cache helpers.
type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) get(key string) ([]byte, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *memCache) set(key string, v interface{}, ttl time.Duration) {
	c.data[key], _ = json.Marshal(v)
}

func withCache(s *Service, c *memCache) *Service {
	s.cacheGet = c.get
	s.cacheSet = c.set
	return s
}

func remoteArticles() []models.Article {
	return []models.Article{
		{ID: "r1", Title: "Urge Surfing Basics", Category: "Coping", Excerpt: "Ride the wave", Content: "...", Author: "A", ReadMinutes: 4},
		{ID: "r2", Title: "Sleep and Recovery", Category: "Health", Excerpt: "Rest matters", Content: "...", Author: "B", ReadMinutes: 6},
	}
}

func TestListServesFallbackWithoutAPIOrCache(t *testing.T) {
	s := withCache(NewService("", "", 7), newMemCache())

	arts := s.List(context.Background())
	require.NotEmpty(t, arts)
	assert.Equal(t, "fallback-1", arts[0].ID)
}

func TestListFetchesAndCaches(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/articles", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		json.NewEncoder(w).Encode(remoteArticles())
	}))
	defer srv.Close()

	cache := newMemCache()
	s := withCache(NewService(srv.URL, "secret", 7), cache)

	arts := s.List(context.Background())
	require.Len(t, arts, 2)
	assert.Equal(t, "r1", arts[0].ID)
	assert.Equal(t, 1, hits)

	// second call is within the refresh window and served from cache
	arts = s.List(context.Background())
	require.Len(t, arts, 2)
	assert.Equal(t, 1, hits, "refresh window must suppress refetching")
}

func TestListRefetchesAfterWindow(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		json.NewEncoder(w).Encode(remoteArticles())
	}))
	defer srv.Close()

	cache := newMemCache()
	s := withCache(NewService(srv.URL, "", 7), cache)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	s.List(context.Background())
	assert.Equal(t, 1, hits)

	s.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }
	s.List(context.Background())
	assert.Equal(t, 2, hits)
}

func TestListServesCacheWhenAPIFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cache := newMemCache()
	cache.set("cache:articles:list", remoteArticles(), time.Hour)
	s := withCache(NewService(srv.URL, "", 7), cache)

	arts := s.List(context.Background())
	require.Len(t, arts, 2)
	assert.Equal(t, "r1", arts[0].ID)
}

func TestListFallsBackWhenEverythingFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := withCache(NewService(srv.URL, "", 7), newMemCache())
	arts := s.List(context.Background())
	require.NotEmpty(t, arts)
	assert.Equal(t, "fallback-1", arts[0].ID)
}

func TestByCategoryPrefersRemoteFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.Coping", r.URL.Query().Get("category"))
		json.NewEncoder(w).Encode(remoteArticles()[:1])
	}))
	defer srv.Close()

	s := withCache(NewService(srv.URL, "", 7), newMemCache())
	arts := s.ByCategory(context.Background(), "Coping")
	require.Len(t, arts, 1)
	assert.Equal(t, "Coping", arts[0].Category)
}

func TestByCategoryDegradesToLocalFilter(t *testing.T) {
	s := withCache(NewService("", "", 7), newMemCache())

	arts := s.ByCategory(context.Background(), "coping") // case-insensitive
	require.Len(t, arts, 1)
	assert.Equal(t, "fallback-1", arts[0].ID)

	assert.Empty(t, s.ByCategory(context.Background(), "Nonexistent"))
}

func TestSearchMatchesTitleExcerptContent(t *testing.T) {
	s := withCache(NewService("", "", 7), newMemCache())

	byTitle := s.Search(context.Background(), "cravings")
	require.NotEmpty(t, byTitle)
	assert.Equal(t, "fallback-1", byTitle[0].ID)

	byContent := s.Search(context.Background(), "sponsor")
	require.NotEmpty(t, byContent)
	assert.Equal(t, "fallback-3", byContent[0].ID)

	assert.Empty(t, s.Search(context.Background(), "zzzz-no-match"))

	// blank query returns the whole catalogue
	assert.Len(t, s.Search(context.Background(), "   "), 3)
}
