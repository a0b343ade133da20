package middleware

import (
	"net/http"
	"strings"

	"github.com/hitoshi/contactbook/internal/auth"
)

// contentSecurityPolicy はJSONとフォーム送信のみを扱うレスポンス向けのCSP。
// サブリソースの読み込みとフレーム埋め込みを禁止し、フォームの送信先を同一オリジンに限定する。
const contentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'self'"

// NewSecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与するミドルウェアを返す。
// セッションCookieを送ってきたリクエストと、セッションCookieを発行・破棄するレスポンスには
// Cache-Control: no-store を付け、共有キャッシュにユーザー固有の応答が残らないようにする。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			h.Add("Vary", "Cookie")

			if _, err := r.Cookie(auth.SessionCookieName); err == nil {
				h.Set("Cache-Control", "no-store")
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(&sessionCacheWriter{ResponseWriter: w}, r)
		})
	}
}

// sessionCacheWriter はヘッダー送信時にセッションCookieのSet-Cookieを検出し、no-storeを付与する。
type sessionCacheWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

// WriteHeader はSet-Cookieを確認してから委譲する。
func (sw *sessionCacheWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
		if setsSessionCookie(sw.Header()) {
			sw.Header().Set("Cache-Control", "no-store")
		}
	}
	sw.ResponseWriter.WriteHeader(code)
}

// Write はWriteHeaderが未呼び出しの場合に200として確定させてから書き込む。
func (sw *sessionCacheWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.WriteHeader(http.StatusOK)
	}
	return sw.ResponseWriter.Write(b)
}

func setsSessionCookie(h http.Header) bool {
	for _, v := range h.Values("Set-Cookie") {
		if strings.HasPrefix(v, auth.SessionCookieName+"=") {
			return true
		}
	}
	return false
}
