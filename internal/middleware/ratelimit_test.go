package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/studydesk/internal/model"
)

func newTestRateLimiter(generalBurst, importBurst int) *RateLimiter {
	return NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(0.001), // テスト中にトークンが補充されない速度
		GeneralBurst:    generalBurst,
		ImportRate:      rate.Limit(0.001),
		ImportBurst:     importBurst,
		CleanupInterval: time.Hour,
	})
}

func doRequest(t *testing.T, handler http.Handler, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req = req.WithContext(ContextWithIdentity(req.Context(), &model.Identity{UserID: userID}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestGeneralMiddleware_AllowsWithinBurst(t *testing.T) {
	rl := newTestRateLimiter(3, 1)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		if w := doRequest(t, handler, "user-001"); w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, w.Code, http.StatusOK)
		}
	}
}

func TestGeneralMiddleware_RejectsOverBurst(t *testing.T) {
	rl := newTestRateLimiter(2, 1)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doRequest(t, handler, "user-001")
	doRequest(t, handler, "user-001")

	w := doRequest(t, handler, "user-001")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if got := w.Header().Get("Retry-After"); got == "" {
		t.Error("expected Retry-After header")
	}
}

func TestGeneralMiddleware_PerUserIsolation(t *testing.T) {
	rl := newTestRateLimiter(1, 1)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doRequest(t, handler, "user-001")

	// 別ユーザーは独立したリミッターを持つ
	if w := doRequest(t, handler, "user-002"); w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", got)
	}
}

func TestGeneralMiddleware_RequiresIdentity(t *testing.T) {
	rl := newTestRateLimiter(1, 1)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestImportMiddleware_IndependentFromGeneral(t *testing.T) {
	rl := newTestRateLimiter(1, 1)
	defer rl.Stop()

	general := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	importH := rl.ImportMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// API全般のバーストを使い切ってもコース取込は独立に許可される
	doRequest(t, general, "user-001")
	if w := doRequest(t, general, "user-001"); w.Code != http.StatusTooManyRequests {
		t.Errorf("general status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	if w := doRequest(t, importH, "user-001"); w.Code != http.StatusOK {
		t.Errorf("import status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(1),
		GeneralBurst:    1,
		ImportRate:      rate.Limit(1),
		ImportBurst:     1,
		CleanupInterval: time.Nanosecond,
	})
	defer rl.Stop()

	rl.getOrCreateGeneralLimiter("user-001")

	// lastAccessをTTL超過まで巻き戻してクリーンアップを直接実行
	rl.generalMu.Lock()
	rl.generalLimiters["user-001"].lastAccess = time.Now().Add(-time.Hour)
	rl.generalMu.Unlock()

	rl.cleanup()

	if got := rl.GeneralLimiterCount(); got != 0 {
		t.Errorf("GeneralLimiterCount = %d, want 0", got)
	}
}
