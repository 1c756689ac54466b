package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisesobriety/wisesober/articles"
	"github.com/wisesobriety/wisesober/config"
	"github.com/wisesobriety/wisesober/models"
	"github.com/wisesobriety/wisesober/storage"
	"github.com/wisesobriety/wisesober/utils"
)

type fixedGenerator struct{ text string }

func (g fixedGenerator) Generate(ctx context.Context, rec *models.CheckInRecord) string {
	return g.text
}

func (g fixedGenerator) Fallback() string { return "fallback" }

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T) (http.Handler, *storage.CheckInStore) {
	t.Helper()
	config.SetForTesting(config.AppConfig{
		GinMode:             "test",
		JWTSecret:           "test-secret",
		AllowedOrigins:      []string{"*"},
		RateLimitPerMinute:  100000,
		ArticlesRefreshDays: 7,
	})
	store := storage.NewCheckInStore(storage.NewMemoryBlobStore(), fixedGenerator{text: "router summary"})
	return SetupRouter(store, nil, articles.NewService("", "", 7)), store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

func checkinBody(user string) map[string]any {
	return map[string]any{
		"userId":             user,
		"emotionalState":     "calm",
		"alcoholConsumption": "none",
		"cravingTriggers":    []string{"Stress"},
		"copingStrategies":   map[string]any{"selectedOptions": []string{"Exercise"}, "additionalText": "yoga"},
		"proudOf":            "stayed in",
		"motivationRating":   4,
		"supportNeed":        "",
	}
}

func TestHealth(t *testing.T) {
	h, _ := setup(t)
	w, env := doJSON(t, h, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
}

func TestCreateCheckInSynchronous(t *testing.T) {
	h, _ := setup(t)

	w, env := doJSON(t, h, http.MethodPost, "/api/v1/checkins", checkinBody("alice"), "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		CheckIn models.CheckInRecord `json:"checkIn"`
		Message string               `json:"message"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "alice", data.CheckIn.UserID)
	assert.Equal(t, "router summary", data.CheckIn.Summary())
	assert.Equal(t, "Check-in saved and AI summary generated successfully!", data.Message)
}

func TestCreateCheckInRejectsBadMotivation(t *testing.T) {
	h, _ := setup(t)

	body := checkinBody("alice")
	body["motivationRating"] = 6
	w, env := doJSON(t, h, http.MethodPost, "/api/v1/checkins", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40021, env.Code)
}

func TestCreateCheckInSanitizesMarkup(t *testing.T) {
	h, store := setup(t)

	body := checkinBody("alice")
	body["proudOf"] = `<script>alert(1)</script>said no`
	w, _ := doJSON(t, h, http.MethodPost, "/api/v1/checkins", body, "")
	require.Equal(t, http.StatusOK, w.Code)

	recs := store.GetAll(context.Background())
	require.Len(t, recs, 1)
	assert.NotContains(t, recs[0].ProudOf, "<script>")
	assert.Contains(t, recs[0].ProudOf, "said no")
}

func TestAuthenticatedCreateOverridesUserID(t *testing.T) {
	h, store := setup(t)

	token, err := utils.GenerateToken("token-user", time.Hour)
	require.NoError(t, err)

	w, _ := doJSON(t, h, http.MethodPost, "/api/v1/checkins", checkinBody("spoofed"), token)
	require.Equal(t, http.StatusOK, w.Code)

	recs := store.GetAll(context.Background())
	require.Len(t, recs, 1)
	assert.Equal(t, "token-user", recs[0].UserID)
}

func TestListScopesToAuthenticatedUser(t *testing.T) {
	h, _ := setup(t)

	tokenA, err := utils.GenerateToken("alice", time.Hour)
	require.NoError(t, err)

	for i, user := range []string{"alice", "alice", "bob"} {
		token := ""
		if user == "alice" {
			token = tokenA
		}
		body := checkinBody(user)
		body["emotionalState"] = fmt.Sprintf("state-%d", i)
		w, _ := doJSON(t, h, http.MethodPost, "/api/v1/checkins", body, token)
		require.Equal(t, http.StatusOK, w.Code)
	}

	_, env := doJSON(t, h, http.MethodGet, "/api/v1/checkins", nil, tokenA)
	var data struct {
		Items []models.CheckInRecord `json:"items"`
		Count int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 2, data.Count)
	for _, rec := range data.Items {
		assert.Equal(t, "alice", rec.UserID)
	}

	// anonymous listing with an explicit filter
	_, env = doJSON(t, h, http.MethodGet, "/api/v1/checkins?user_id=bob", nil, "")
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 1, data.Count)
}

func TestExportImportRoundTrip(t *testing.T) {
	h, _ := setup(t)

	for i := 0; i < 2; i++ {
		w, _ := doJSON(t, h, http.MethodPost, "/api/v1/checkins", checkinBody("alice"), "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	_, env := doJSON(t, h, http.MethodGet, "/api/v1/checkins/export", nil, "")
	var bundle models.ExportBundle
	require.NoError(t, json.Unmarshal(env.Data, &bundle))
	assert.Len(t, bundle.CheckIns, 2)

	// importing into a fresh instance restores everything
	h2, store2 := setup(t)
	w, env := doJSON(t, h2, http.MethodPost, "/api/v1/checkins/import", bundle, "")
	require.Equal(t, http.StatusOK, w.Code)
	var result struct {
		ImportedCount int `json:"importedCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.ImportedCount)
	assert.Len(t, store2.GetAll(context.Background()), 2)

	// same bundle again adds nothing
	_, env = doJSON(t, h2, http.MethodPost, "/api/v1/checkins/import", bundle, "")
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 0, result.ImportedCount)
}

func TestImportRejectsBundleWithoutCheckIns(t *testing.T) {
	h, _ := setup(t)
	w, env := doJSON(t, h, http.MethodPost, "/api/v1/checkins/import", map[string]any{"version": "1.0"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40023, env.Code)
}

func TestDeleteCheckIn(t *testing.T) {
	h, store := setup(t)

	w, _ := doJSON(t, h, http.MethodPost, "/api/v1/checkins", checkinBody("alice"), "")
	require.Equal(t, http.StatusOK, w.Code)
	recs := store.GetAll(context.Background())
	require.Len(t, recs, 1)

	w, _ = doJSON(t, h, http.MethodDelete, "/api/v1/checkins/"+recs[0].ID, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.GetAll(context.Background()))
}

func TestStatsEndpoint(t *testing.T) {
	h, _ := setup(t)

	doJSON(t, h, http.MethodPost, "/api/v1/checkins", checkinBody("alice"), "")

	_, env := doJSON(t, h, http.MethodGet, "/api/v1/checkins/stats", nil, "")
	var stats models.StorageStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1, stats.TotalCheckIns)
}

func TestAchievementsEndpoint(t *testing.T) {
	h, _ := setup(t)

	for i := 0; i < 7; i++ {
		w, _ := doJSON(t, h, http.MethodPost, "/api/v1/checkins", checkinBody(""), "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	_, env := doJSON(t, h, http.MethodGet, "/api/v1/achievements", nil, "")
	var data struct {
		Achievements []models.Achievement `json:"achievements"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))

	ids := []string{}
	for _, a := range data.Achievements {
		ids = append(ids, a.ID)
	}
	assert.Contains(t, ids, "sober_7_days")
	assert.Contains(t, ids, "daily_checkin_7")
}

func TestArticlesEndpoint(t *testing.T) {
	h, _ := setup(t)

	_, env := doJSON(t, h, http.MethodGet, "/api/v1/articles", nil, "")
	var data struct {
		Items []models.Article `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.Items)
}

func TestInvalidTokenTreatedAsAnonymous(t *testing.T) {
	h, _ := setup(t)

	doJSON(t, h, http.MethodPost, "/api/v1/checkins", checkinBody("alice"), "")

	// optional auth: a bad token does not reject, it just carries no identity
	w, env := doJSON(t, h, http.MethodGet, "/api/v1/checkins", nil, "not-a-token")
	assert.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 1, data.Count)
}

func TestUnknownRoute(t *testing.T) {
	h, _ := setup(t)
	w, env := doJSON(t, h, http.MethodGet, "/api/v1/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40400, env.Code)
}
