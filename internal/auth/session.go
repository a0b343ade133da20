package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
)

// SessionCookieName はセッションCookie名。
const SessionCookieName = "__session"

const (
	sessionKeyUserID    = "user_id"
	sessionKeyExpiresAt = "expires_at"
)

// SessionConfig はセッションストアの設定。
// 鍵はプロセス起動時に設定から読み込み、以降は変更しない。
type SessionConfig struct {
	// Secret はHMAC-SHA256署名鍵。変更すると発行済みセッションはすべて無効になる。
	Secret []byte
	// EncryptionKey はAES暗号化鍵（16/24/32バイト）。空の場合は署名のみ行う。
	EncryptionKey []byte
	// TTL はremember=false の場合のセッション有効期間。
	TTL time.Duration
	// RememberTTL はremember=true の場合のセッション有効期間。
	RememberTTL time.Duration
	Secure      bool
	Domain      string
}

// SessionStore は署名付きCookieによるステートレスなセッションを発行・検証する。
// サーバー側にセッションは保存しない。
type SessionStore struct {
	store  *sessions.CookieStore
	config SessionConfig
	clock  clockwork.Clock
}

// NewSessionStore はSessionStoreを生成する。clockがnilの場合は実時間を使う。
func NewSessionStore(cfg SessionConfig, clock clockwork.Clock) (*SessionStore, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	if cfg.TTL <= 0 || cfg.RememberTTL <= 0 {
		return nil, errors.New("session TTL must be positive")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var store *sessions.CookieStore
	if len(cfg.EncryptionKey) > 0 {
		store = sessions.NewCookieStore(cfg.Secret, cfg.EncryptionKey)
	} else {
		store = sessions.NewCookieStore(cfg.Secret)
	}
	// 署名上の有効期限は最長の有効期間に合わせ、実際の期限はペイロードで判定する
	store.MaxAge(int(maxDuration(cfg.TTL, cfg.RememberTTL).Seconds()))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cfg.Domain,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionStore{store: store, config: cfg, clock: clock}, nil
}

// CreateSession はユーザーIDを埋め込んだ署名付きCookieを生成する。
// rememberがfalseの場合はブラウザセッション限りのCookieとなる。
func (s *SessionStore) CreateSession(userID string, remember bool) (*http.Cookie, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}

	ttl := s.config.TTL
	if remember {
		ttl = s.config.RememberTTL
	}

	values := map[interface{}]interface{}{
		sessionKeyUserID:    userID,
		sessionKeyExpiresAt: s.clock.Now().Add(ttl).Unix(),
	}
	encoded, err := securecookie.EncodeMulti(SessionCookieName, values, s.store.Codecs...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}

	opts := *s.store.Options
	opts.MaxAge = 0
	if remember {
		opts.MaxAge = int(ttl.Seconds())
	}
	return sessions.NewCookie(SessionCookieName, encoded, &opts), nil
}

// ReadSession はリクエストのセッションCookieを検証し、ユーザーIDを返す。
// Cookieが存在しない、改ざんされている、期限切れの場合はすべて ("", false) を返す。
func (s *SessionStore) ReadSession(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	values := make(map[interface{}]interface{})
	if err := securecookie.DecodeMulti(SessionCookieName, cookie.Value, &values, s.store.Codecs...); err != nil {
		return "", false
	}

	userID, _ := values[sessionKeyUserID].(string)
	expiresAt, _ := values[sessionKeyExpiresAt].(int64)
	if userID == "" || expiresAt == 0 {
		return "", false
	}
	if !s.clock.Now().Before(time.Unix(expiresAt, 0)) {
		return "", false
	}

	return userID, true
}

// DestroySession はセッションCookieを即時失効させるCookieを返す。
func (s *SessionStore) DestroySession() *http.Cookie {
	opts := *s.store.Options
	opts.MaxAge = -1
	return sessions.NewCookie(SessionCookieName, "", &opts)
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
