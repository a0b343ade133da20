// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/contactbook/internal/auth"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// SessionGuard は認証ガードの判定に必要なインターフェース。
// auth.Guardが実装する。
type SessionGuard interface {
	RequireUserID(r *http.Request) (string, error)
	RedirectAuthedUser(r *http.Request, target string) error
}

// NewRequireUserMiddleware は有効なセッションを必須とするミドルウェアを返す。
// 未認証リクエストはログインページへ302でリダイレクトし、ハンドラーは実行しない。
// 認証済みユーザーIDをリクエストコンテキストに注入する。
func NewRequireUserMiddleware(guard SessionGuard) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. セッションからユーザーIDを解決
			userID, err := guard.RequireUserID(r)
			if err != nil {
				writeGuardError(w, r, err)
				return
			}

			// 2. リクエストログにユーザーIDを記録
			setLoggedUserID(r.Context(), userID)

			// 3. 認証済みユーザーIDをコンテキストに注入
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// NewPublicOnlyMiddleware はログイン済みユーザーをtargetへリダイレクトするミドルウェアを返す。
// ログインページや新規登録ページなど、未ログイン時のみ意味を持つルートに使用する。
func NewPublicOnlyMiddleware(guard SessionGuard, target string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := guard.RedirectAuthedUser(r, target); err != nil {
				writeGuardError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeGuardError はガードが返したエラーをレスポンスに変換する。
// *auth.RedirectError は302、それ以外は500として扱う。
func writeGuardError(w http.ResponseWriter, r *http.Request, err error) {
	var redirect *auth.RedirectError
	if errors.As(err, &redirect) {
		http.Redirect(w, r, redirect.Location, http.StatusFound)
		return
	}

	slog.Error("auth guard failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	WriteInternalServerError(w)
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
