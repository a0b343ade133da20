package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/contactbook/internal/model"
)

const (
	// defaultAuthedRedirect はログイン・新規登録後のデフォルトの遷移先。
	defaultAuthedRedirect = "/contacts"

	msgInvalidCredentials = "Invalid email or password"
	msgEmailTaken         = "A user with this email already exists"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Join(ctx context.Context, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
}

// SessionManager はセッションCookieの発行・読み取り・破棄に必要なインターフェース。
// auth.SessionStoreが実装する。
type SessionManager interface {
	CreateSession(userID string, remember bool) (*http.Cookie, error)
	ReadSession(r *http.Request) (string, bool)
	DestroySession() *http.Cookie
}

// LogoutRecorder はログアウトのメトリクス記録に必要なインターフェース。
type LogoutRecorder interface {
	RecordLogout()
}

// AuthHandler はログイン・新規登録・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	sessions SessionManager
	recorder LogoutRecorder
}

// NewAuthHandler はAuthHandlerを生成する。recorderはnilでもよい。
func NewAuthHandler(service AuthServiceInterface, sessions SessionManager, recorder LogoutRecorder) *AuthHandler {
	return &AuthHandler{
		service:  service,
		sessions: sessions,
		recorder: recorder,
	}
}

// Page は未ログイン向けページの表示データを返す。
// GET /, GET /login, GET /join
func (h *AuthHandler) Page(w http.ResponseWriter, r *http.Request) {
	writeNull(w)
}

// Login はメールアドレスとパスワードでログインし、セッションCookieを発行する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	// 1. フォームの検証
	form := parseLoginForm(r)
	if err := validateForm(form); err != nil {
		handleServiceError(w, err)
		return
	}

	// 2. 資格情報の照合
	email, password := form.credentials()
	user, err := h.service.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			writeValidationErrors(w, model.NewValidationError("email", msgInvalidCredentials))
			return
		}
		handleServiceError(w, err)
		return
	}

	// 3. セッションを発行してリダイレクト
	h.startSession(w, r, user.ID, form.Remember == "on")
}

// Join は新規ユーザーを登録し、セッションCookieを発行する。
// POST /join
func (h *AuthHandler) Join(w http.ResponseWriter, r *http.Request) {
	// 1. フォームの検証
	form := parseLoginForm(r)
	form.Remember = ""
	if err := validateForm(form); err != nil {
		handleServiceError(w, err)
		return
	}

	// 2. ユーザーと資格情報の作成
	email, password := form.credentials()
	user, err := h.service.Join(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			writeValidationErrors(w, model.NewValidationError("email", msgEmailTaken))
			return
		}
		handleServiceError(w, err)
		return
	}

	// 3. セッションを発行してリダイレクト
	h.startSession(w, r, user.ID, false)
}

// Logout はセッションCookieを破棄してトップページへリダイレクトする。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if userID, ok := h.sessions.ReadSession(r); ok {
		slog.Info("user logged out", slog.String("user_id", userID))
		if h.recorder != nil {
			h.recorder.RecordLogout()
		}
	}

	http.SetCookie(w, h.sessions.DestroySession())
	http.Redirect(w, r, "/", http.StatusFound)
}

// LogoutPage はGETでのアクセスをトップページへリダイレクトする。セッションは変更しない。
// GET /logout
func (h *AuthHandler) LogoutPage(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

// startSession はセッションCookieを設定し、redirectTo（クエリ優先、なければフォーム項目）へリダイレクトする。
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, userID string, remember bool) {
	cookie, err := h.sessions.CreateSession(userID, remember)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	http.SetCookie(w, cookie)

	redirectTo := r.URL.Query().Get("redirectTo")
	if redirectTo == "" {
		redirectTo = r.PostFormValue("redirectTo")
	}
	http.Redirect(w, r, safeRedirect(redirectTo, defaultAuthedRedirect), http.StatusFound)
}
