package auth

import (
	"net/http"
	"net/url"
)

// LoginPath は未認証時のリダイレクト先。
const LoginPath = "/login"

// SessionReader はリクエストからセッションのユーザーIDを解決する。
type SessionReader interface {
	ReadSession(r *http.Request) (string, bool)
}

// RedirectError は認証ガードが発行するリダイレクト指示。
// ミドルウェアで302レスポンスに変換される。
type RedirectError struct {
	Location string
}

// Error はerrorインターフェースを実装する。
func (e *RedirectError) Error() string {
	return "redirect to " + e.Location
}

// Guard はリクエスト単位で認証状態を判定する。結果はキャッシュしない。
type Guard struct {
	sessions SessionReader
}

// NewGuard はGuardを生成する。
func NewGuard(sessions SessionReader) *Guard {
	return &Guard{sessions: sessions}
}

// RequireUserID は有効なセッションのユーザーIDを返す。
// セッションがない場合は元のパスをredirectToに載せたログインURLへの *RedirectError を返す。
func (g *Guard) RequireUserID(r *http.Request) (string, error) {
	if userID, ok := g.sessions.ReadSession(r); ok {
		return userID, nil
	}

	q := url.Values{"redirectTo": {r.URL.Path}}
	return "", &RedirectError{Location: LoginPath + "?" + q.Encode()}
}

// RedirectAuthedUser はログイン済みの場合にtargetへの *RedirectError を返す。
// 未ログインの場合はnilを返す。
func (g *Guard) RedirectAuthedUser(r *http.Request, target string) error {
	if _, ok := g.sessions.ReadSession(r); ok {
		return &RedirectError{Location: target}
	}
	return nil
}
