package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/contactbook/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger      *slog.Logger
	Guard       middleware.SessionGuard
	RateLimiter *middleware.RateLimiter
	CSRF        middleware.CSRFConfig
	HTTPMetrics middleware.HTTPRecorder

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証
	AuthService    AuthServiceInterface
	Sessions       SessionManager
	LogoutRecorder LogoutRecorder

	// 連絡先・メモ
	ContactService ContactServiceInterface
	NoteService    NoteServiceInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Logging → Recovery → Metrics → SecurityHeaders → CSRF → (PublicOnly | RequireUser → RateLimit(General))
//
// /health と /metrics はCSRFミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.Sessions, deps.LogoutRecorder)
	contactHandler := NewContactHandler(deps.ContactService)
	noteHandler := NewNoteHandler(deps.NoteService)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF))

		r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF))

		// --- 未ログイン向けページ ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewPublicOnlyMiddleware(deps.Guard, defaultAuthedRedirect))

			r.Get("/", authHandler.Page)
			r.Get("/login", authHandler.Page)
			r.Get("/join", authHandler.Page)
		})

		// --- 認証フォーム（クライアントIPごとのレート制限） ---
		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.LoginMiddleware())
			}

			r.Post("/login", authHandler.Login)
			r.Post("/join", authHandler.Join)
		})

		r.Get("/logout", authHandler.LogoutPage)
		r.Post("/logout", authHandler.Logout)

		// --- 認証が必要なルート ---
		// ミドルウェアスタック: RequireUser → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRequireUserMiddleware(deps.Guard))
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.GeneralMiddleware())
			}

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", contactHandler.List)
				r.Post("/", contactHandler.Create)

				r.Route("/{contactID}", func(r chi.Router) {
					r.Get("/", contactHandler.Get)
					r.Post("/", contactHandler.Action)

					r.Get("/edit", contactHandler.EditForm)
					r.Post("/edit", contactHandler.Update)

					r.Route("/notes", func(r chi.Router) {
						r.Get("/", noteHandler.List)
						r.Post("/", noteHandler.Delete)
						r.Post("/new", noteHandler.Create)

						r.Get("/{noteID}/edit", noteHandler.EditForm)
						r.Post("/{noteID}/edit", noteHandler.Update)
					})
				})
			})
		})
	})

	return r
}
