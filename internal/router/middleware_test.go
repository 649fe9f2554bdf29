package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/authz"
	"github.com/oneinfo/affiliate-backend/internal/config"
	handlershared "github.com/oneinfo/affiliate-backend/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w2.Header().Get(requestIDHeader) == "" {
		t.Fatalf("generated request id should not be empty")
	}
}

func signToken(t *testing.T, secret string, claims AuthClaims) string {
	t.Helper()
	claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return token
}

func envelopeCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	return resp.StatusCode
}

func TestCreatorJWTMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.JWTConfig{SecretKey: "creator-secret"}

	r := gin.New()
	r.Use(CreatorJWTMiddleware(cfg))
	r.GET("/me", func(c *gin.Context) {
		creatorID, _ := c.Get(handlershared.ContextCreatorID)
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "creator_id": creatorID})
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: 401},
		{name: "wrong scheme", header: "Token abc", want: 401},
		{name: "bad signature", header: "Bearer " + signToken(t, "other", AuthClaims{CreatorID: "c-1"}), want: 401},
		{name: "no creator", header: "Bearer " + signToken(t, cfg.SecretKey, AuthClaims{AdminID: "a-1"}), want: 401},
		{name: "valid", header: "Bearer " + signToken(t, cfg.SecretKey, AuthClaims{CreatorID: "c-1"}), want: 0},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		r.ServeHTTP(w, req)
		if got := envelopeCode(t, w); got != tc.want {
			t.Fatalf("%s: status_code want %d got %d", tc.name, tc.want, got)
		}
	}
}

func TestAdminJWTMiddlewareRejectsCreatorToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.JWTConfig{SecretKey: "admin-secret"}

	r := gin.New()
	r.Use(AdminJWTMiddleware(cfg))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, cfg.SecretKey, AuthClaims{CreatorID: "c-1"}))
	r.ServeHTTP(w, req)
	if got := envelopeCode(t, w); got != 403 {
		t.Fatalf("creator token on admin route want 403 got %d", got)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, cfg.SecretKey, AuthClaims{AdminID: "a-1", Role: "admin"}))
	r.ServeHTTP(w, req)
	if got := envelopeCode(t, w); got != 0 {
		t.Fatalf("admin token want 0 got %d", got)
	}
}

func TestAdminRBACMiddlewareByRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:router_rbac_%d?mode=memory&cache=shared", time.Now().UnixNano())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}
	cfg := config.JWTConfig{SecretKey: "admin-secret"}

	r := gin.New()
	admin := r.Group("/api/v1/admin", AdminJWTMiddleware(cfg), AdminRBACMiddleware(svc))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status_code": 0}) }
	admin.GET("/orders", ok)
	admin.PATCH("/payouts/:id/pay", ok)

	cases := []struct {
		role   string
		method string
		path   string
		want   int
	}{
		{role: "readonly_auditor", method: http.MethodGet, path: "/api/v1/admin/orders", want: 0},
		{role: "readonly_auditor", method: http.MethodPatch, path: "/api/v1/admin/payouts/7/pay", want: 403},
		{role: "finance", method: http.MethodPatch, path: "/api/v1/admin/payouts/7/pay", want: 0},
		{role: "", method: http.MethodPatch, path: "/api/v1/admin/payouts/7/pay", want: 0},
		{role: "intern", method: http.MethodGet, path: "/api/v1/admin/orders", want: 403},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, cfg.SecretKey, AuthClaims{AdminID: "a-1", Role: tc.role}))
		r.ServeHTTP(w, req)
		if got := envelopeCode(t, w); got != tc.want {
			t.Fatalf("role %q %s %s want %d got %d", tc.role, tc.method, tc.path, tc.want, got)
		}
	}
}

func TestAdminRBACMiddlewareWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/v1/admin/orders", AdminRBACMiddleware(nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil))
	if got := envelopeCode(t, w); got != 401 {
		t.Fatalf("missing authz service want 401 got %d", got)
	}
}

func TestJWTMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(AdminJWTMiddleware(config.JWTConfig{}))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/ping", nil))
	if got := envelopeCode(t, w); got != 401 {
		t.Fatalf("status_code want 401 got %d", got)
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/orders", APIKeyMiddleware("push-key"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(apiKeyHeader, "wrong")
	r.ServeHTTP(w, req)
	if got := envelopeCode(t, w); got != 403 {
		t.Fatalf("wrong key want 403 got %d", got)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(apiKeyHeader, "push-key")
	r.ServeHTTP(w, req)
	if got := envelopeCode(t, w); got != 0 {
		t.Fatalf("valid key want 0 got %d", got)
	}

	// 未配置密钥时拒绝所有请求
	empty := gin.New()
	empty.POST("/orders", APIKeyMiddleware(""), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(apiKeyHeader, "")
	empty.ServeHTTP(w, req)
	if got := envelopeCode(t, w); got != 403 {
		t.Fatalf("unconfigured key want 403 got %d", got)
	}
}
