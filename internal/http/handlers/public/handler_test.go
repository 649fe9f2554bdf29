package public

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/config"
	handlershared "github.com/oneinfo/affiliate-backend/internal/http/handlers/shared"
	"github.com/oneinfo/affiliate-backend/internal/lifecycle"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPublicHandler(t *testing.T) (*Handler, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:affiliate_public_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	h := New(provider.NewContainerWithDB(&config.Config{}, db))

	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/share/:code", h.Redirect)
	r.POST("/api/v1/orders", h.PushOrder)
	me := r.Group("/api/v1/me", func(c *gin.Context) {
		if creatorID := c.GetHeader("X-Test-Creator"); creatorID != "" {
			c.Set(handlershared.ContextCreatorID, creatorID)
		}
		c.Next()
	})
	me.GET("/stats", h.GetMyStats)
	me.GET("/links", h.ListMyLinks)
	return h, r
}

func seedPublicLink(t *testing.T, h *Handler, code, affiliateURL string, expiresAt *time.Time) {
	t.Helper()
	if err := h.LinkRepo.Create(&models.AffiliateLink{
		ShortCode:    code,
		CreatorID:    "creator-1",
		OriginalURL:  "https://www.myntra.com/p/1",
		AffiliateURL: affiliateURL,
		Platform:     "admitad",
		IsActive:     true,
		ExpiresAt:    expiresAt,
	}); err != nil {
		t.Fatalf("seed link failed: %v", err)
	}
}

func envelope(t *testing.T, w *httptest.ResponseRecorder) (int, json.RawMessage) {
	t.Helper()
	var resp struct {
		StatusCode int             `json:"status_code"`
		Data       json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	return resp.StatusCode, resp.Data
}

func TestRedirectStatuses(t *testing.T) {
	h, r := setupPublicHandler(t)
	past := time.Now().Add(-time.Hour)
	seedPublicLink(t, h, "LIVE01", "https://ad.admitad.com/g/abc?subid=LIVE01", nil)
	seedPublicLink(t, h, "OFF001", "https://ad.admitad.com/g/abc?subid=OFF001", nil)
	seedPublicLink(t, h, "OLD001", "https://ad.admitad.com/g/abc?subid=OLD001", &past)
	seedPublicLink(t, h, "BAD001", "ftp://ad.admitad.com/g/abc", nil)
	if _, err := h.LinkRepo.SetActive("OFF001", false); err != nil {
		t.Fatalf("disable link failed: %v", err)
	}

	cases := []struct {
		code string
		want int
	}{
		{code: "LIVE01", want: http.StatusFound},
		{code: "OFF001", want: http.StatusNotFound},
		{code: "OLD001", want: http.StatusGone},
		{code: "BAD001", want: http.StatusNotFound},
		{code: "NOPE01", want: http.StatusNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/share/"+tc.code, nil))
		if w.Code != tc.want {
			t.Fatalf("%s: status want %d got %d", tc.code, tc.want, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/share/LIVE01", nil))
	if got := w.Header().Get("Location"); got != "https://ad.admitad.com/g/abc?subid=LIVE01" {
		t.Fatalf("unexpected redirect location: %s", got)
	}
}

func TestHealthFollowsLifecycle(t *testing.T) {
	h, r := setupPublicHandler(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("starting state want 503 got %d", w.Code)
	}

	h.Lifecycle.Set(lifecycle.StateDegraded, fmt.Errorf("redis: timeout"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("degraded state want 200 got %d", w.Code)
	}
	var snapshot lifecycle.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("unmarshal snapshot failed: %v", err)
	}
	if snapshot.State != "degraded" || snapshot.LastError == "" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestPushOrderValidation(t *testing.T) {
	_, r := setupPublicHandler(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{name: "missing category", body: `{"order_id":"A-1","platform":"flipkart","order_value":"10","creator_id":"c-1"}`, want: 400},
		{name: "no creator", body: `{"order_id":"A-1","platform":"flipkart","category":"fashion","order_value":"10"}`, want: 400},
		{name: "bad status", body: `{"order_id":"A-1","platform":"flipkart","category":"fashion","order_value":"10","creator_id":"c-1","status":"refunded"}`, want: 400},
		{name: "queue disabled", body: `{"order_id":"A-1","platform":"flipkart","category":"fashion","order_value":"10","sub_id":"LIVE01"}`, want: 503},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(tc.body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if code, _ := envelope(t, w); code != tc.want {
			t.Fatalf("%s: status_code want %d got %d body=%s", tc.name, tc.want, code, w.Body.String())
		}
	}
}

func TestGetMyStatsDefaultsToZero(t *testing.T) {
	_, r := setupPublicHandler(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/me/stats", nil))
	if code, _ := envelope(t, w); code != 401 {
		t.Fatalf("missing creator want 401 got %d", code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/stats", nil)
	req.Header.Set("X-Test-Creator", "creator-9")
	r.ServeHTTP(w, req)
	code, data := envelope(t, w)
	if code != 0 {
		t.Fatalf("status_code want 0 got %d", code)
	}
	var stats models.CreatorStats
	if err := json.Unmarshal(data, &stats); err != nil {
		t.Fatalf("unmarshal stats failed: %v", err)
	}
	if stats.CreatorID != "creator-9" || stats.LifetimeOrders != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestListMyLinksScopedToCreator(t *testing.T) {
	h, r := setupPublicHandler(t)
	seedPublicLink(t, h, "MINE01", "https://ad.admitad.com/g/abc?subid=MINE01", nil)
	if err := h.LinkRepo.Create(&models.AffiliateLink{
		ShortCode:    "THEIRS",
		CreatorID:    "creator-2",
		OriginalURL:  "https://www.myntra.com/p/2",
		AffiliateURL: "https://ad.admitad.com/g/abc?subid=THEIRS",
		IsActive:     true,
	}); err != nil {
		t.Fatalf("seed link failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/links", nil)
	req.Header.Set("X-Test-Creator", "creator-1")
	r.ServeHTTP(w, req)
	code, data := envelope(t, w)
	if code != 0 {
		t.Fatalf("status_code want 0 got %d", code)
	}
	var links []models.AffiliateLink
	if err := json.Unmarshal(data, &links); err != nil {
		t.Fatalf("unmarshal links failed: %v", err)
	}
	if len(links) != 1 || links[0].ShortCode != "MINE01" {
		t.Fatalf("unexpected links: %+v", links)
	}
}
