package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/contactbook/internal/auth"
	"github.com/hitoshi/contactbook/internal/contact"
	"github.com/hitoshi/contactbook/internal/middleware"
	"github.com/hitoshi/contactbook/internal/model"
	"github.com/jonboulle/clockwork"
)

const testCSRFToken = "test-csrf-token"

// --- テストヘルパー ---

type stubSessionReader struct {
	userID string
}

func (s stubSessionReader) ReadSession(r *http.Request) (string, bool) {
	return s.userID, s.userID != ""
}

// guardFor はuserIDでログイン済み（空文字なら未ログイン）とみなすガードを返す。
func guardFor(userID string) *auth.Guard {
	return auth.NewGuard(stubSessionReader{userID: userID})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter は未設定の依存をテスト用の既定値で埋めてルーターを構築する。
func newTestRouter(deps *RouterDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = discardLogger()
	}
	if deps.Guard == nil {
		deps.Guard = guardFor("user-1")
	}
	if deps.Sessions == nil {
		deps.Sessions = &mockSessionManager{}
	}
	if deps.AuthService == nil {
		deps.AuthService = &mockAuthService{}
	}
	if deps.ContactService == nil {
		deps.ContactService = &mockContactService{}
	}
	if deps.NoteService == nil {
		deps.NoteService = &mockNoteService{}
	}
	return NewRouter(deps)
}

// newFormRequest はCSRFトークン付きのフォーム送信リクエストを生成する。
func newFormRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRFToken})
	req.Header.Set("X-CSRF-Token", testCSRFToken)
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeErrors(t *testing.T, w *httptest.ResponseRecorder) map[string][]string {
	t.Helper()
	var body validationErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode validation errors: %v\nraw: %s", err, w.Body.String())
	}
	return body.Errors
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v\nraw: %s", err, w.Body.String())
	}
	return body
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusFound, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Location = %q, want %q", got, location)
	}
}

func assertNullBody(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}
	if got := strings.TrimSpace(w.Body.String()); got != "null" {
		t.Errorf("body = %q, want null", got)
	}
}

type mockHealthChecker struct {
	err error
}

func (m mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

// --- ルーティングとミドルウェアのテスト ---

func TestRouter_ProtectedRoutes_RedirectWithoutSession(t *testing.T) {
	router := newTestRouter(&RouterDeps{Guard: guardFor("")})

	paths := map[string]string{
		"/contacts":                   "/login?redirectTo=%2Fcontacts",
		"/contacts/42":                "/login?redirectTo=%2Fcontacts%2F42",
		"/contacts/42/edit":           "/login?redirectTo=%2Fcontacts%2F42%2Fedit",
		"/contacts/42/notes":          "/login?redirectTo=%2Fcontacts%2F42%2Fnotes",
		"/contacts/42/notes/n-1/edit": "/login?redirectTo=%2Fcontacts%2F42%2Fnotes%2Fn-1%2Fedit",
	}
	for path, want := range paths {
		t.Run(path, func(t *testing.T) {
			w := serve(router, httptest.NewRequest(http.MethodGet, path, nil))
			assertRedirect(t, w, want)
		})
	}
}

func TestRouter_PublicPages(t *testing.T) {
	for _, path := range []string{"/", "/login", "/join"} {
		t.Run("anonymous_"+path, func(t *testing.T) {
			router := newTestRouter(&RouterDeps{Guard: guardFor("")})
			assertNullBody(t, serve(router, httptest.NewRequest(http.MethodGet, path, nil)))
		})
		t.Run("authed_"+path, func(t *testing.T) {
			router := newTestRouter(&RouterDeps{Guard: guardFor("user-1")})
			assertRedirect(t, serve(router, httptest.NewRequest(http.MethodGet, path, nil)), "/contacts")
		})
	}
}

func TestRouter_StateChangingRequestWithoutCSRF_Returns403(t *testing.T) {
	called := false
	router := newTestRouter(&RouterDeps{
		ContactService: &mockContactService{
			createFn: func(ctx context.Context, userID string) (*model.Contact, error) {
				called = true
				return &model.Contact{ID: "c-1"}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/contacts", nil)
	w := serve(router, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if called {
		t.Error("service should not be called without CSRF token")
	}
}

func TestRouter_CSRFTokenFormField(t *testing.T) {
	router := newTestRouter(&RouterDeps{Guard: guardFor("")})

	// 1. GETでCSRFトークンを取得
	w := serve(router, httptest.NewRequest(http.MethodGet, "/csrf-token", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /csrf-token status = %d", w.Code)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body.Token == "" {
		t.Fatalf("failed to read token: %v", err)
	}

	// 2. フォーム項目でトークンを送信
	form := url.Values{"csrf_token": {body.Token}}
	req := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: body.Token})

	assertRedirect(t, serve(router, req), "/")
}

func TestRouter_SecurityHeaders(t *testing.T) {
	router := newTestRouter(&RouterDeps{Guard: guardFor("")})
	w := serve(router, httptest.NewRequest(http.MethodGet, "/login", nil))

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	if got := w.Header().Get("Content-Security-Policy"); !strings.Contains(got, "default-src 'none'") {
		t.Errorf("Content-Security-Policy = %q, want default-src 'none'", got)
	}
	// セッションを持たないリクエストはキャッシュ指定を変更しない
	if got := w.Header().Get("Cache-Control"); got != "" {
		t.Errorf("Cache-Control = %q, want empty", got)
	}
}

func TestRouter_Health(t *testing.T) {
	tests := []struct {
		name       string
		checker    HealthChecker
		wantStatus int
	}{
		{"no_checker", nil, http.StatusOK},
		{"db_ok", mockHealthChecker{}, http.StatusOK},
		{"db_down", mockHealthChecker{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&RouterDeps{HealthChecker: tt.checker})
			w := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := newTestRouter(&RouterDeps{
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "contactbook_login_total 1\n")
		}),
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "contactbook_login_total") {
		t.Errorf("unexpected metrics body: %s", w.Body.String())
	}
}

func TestRouter_LoginRateLimitedPerIP(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		LoginRate:       0.01,
		LoginBurst:      2,
		GeneralRate:     10,
		GeneralBurst:    10,
		CleanupInterval: time.Minute,
	}, nil)
	defer rl.Stop()

	router := newTestRouter(&RouterDeps{
		Guard:       guardFor(""),
		RateLimiter: rl,
		AuthService: &mockAuthService{
			loginFn: func(ctx context.Context, email, password string) (*model.User, error) {
				return nil, model.ErrInvalidCredentials
			},
		},
	})

	form := url.Values{"email": {"a@example.com"}, "password": {"password123"}}
	for i := 0; i < 2; i++ {
		w := serve(router, newFormRequest(http.MethodPost, "/login", form))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d: status = %d, want 400", i, w.Code)
		}
	}

	w := serve(router, newFormRequest(http.MethodPost, "/login", form))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

// TestRouter_SessionLifecycle は実際のセッションストアを使い、ログインからログアウトまでを検証する。
func TestRouter_SessionLifecycle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store, err := auth.NewSessionStore(auth.SessionConfig{
		Secret:      []byte("0123456789abcdef0123456789abcdef"),
		TTL:         time.Hour,
		RememberTTL: 24 * time.Hour,
	}, clock)
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}

	router := newTestRouter(&RouterDeps{
		Guard:    auth.NewGuard(store),
		Sessions: store,
		AuthService: &mockAuthService{
			loginFn: func(ctx context.Context, email, password string) (*model.User, error) {
				return &model.User{ID: "user-42", Email: email}, nil
			},
		},
		ContactService: &mockContactService{
			listFn: func(ctx context.Context, userID, query string) (*contact.ContactList, error) {
				if userID != "user-42" {
					t.Errorf("userID = %q, want user-42", userID)
				}
				return &contact.ContactList{}, nil
			},
		},
	})

	// 1. 未ログインでは一覧にアクセスできない
	assertRedirect(t, serve(router, httptest.NewRequest(http.MethodGet, "/contacts", nil)), "/login?redirectTo=%2Fcontacts")

	// 2. ログインするとredirectToへ遷移し、セッションCookieが発行される
	form := url.Values{"email": {"a@example.com"}, "password": {"password123"}}
	w := serve(router, newFormRequest(http.MethodPost, "/login?redirectTo=%2Fcontacts", form))
	assertRedirect(t, w, "/contacts")

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatal("expected session cookie")
	}
	if got := w.Result().Header.Get("Cache-Control"); got != "no-store" {
		t.Errorf("login Cache-Control = %q, want no-store", got)
	}

	// 3. セッションCookieで一覧にアクセスできる
	req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
	req.AddCookie(session)
	w = serve(router, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /contacts status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("GET /contacts Cache-Control = %q, want no-store", got)
	}

	// 4. ログイン済みでログインページを開くと一覧へ遷移する
	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(session)
	assertRedirect(t, serve(router, req), "/contacts")

	// 5. ログアウトでセッションCookieが破棄される
	req = newFormRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(session)
	w = serve(router, req)
	assertRedirect(t, w, "/")
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName && c.MaxAge < 0 && c.Value == "" {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be cleared")
	}

	// 6. 期限切れのセッションは未ログインとして扱う
	clock.Advance(2 * time.Hour)
	req = httptest.NewRequest(http.MethodGet, "/contacts", nil)
	req.AddCookie(session)
	assertRedirect(t, serve(router, req), "/login?redirectTo=%2Fcontacts")
}
